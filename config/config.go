package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env    string       `mapstructure:"env"` // local / dev / prod, selects log handler
	Port   string       `mapstructure:"port"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Chain  ChainConfig  `mapstructure:"chain"`
	Wallet WalletConfig `mapstructure:"wallet"`
	Sweep  SweepConfig  `mapstructure:"sweep"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type ChainConfig struct {
	RPC           string  `mapstructure:"rpc"`
	ChainID       int64   `mapstructure:"chain_id"`
	TokenContract string  `mapstructure:"token_contract"`
	RateLimit     float64 `mapstructure:"rate_limit"` // outbound RPC calls per second, shared by all workers
	RateBurst     int     `mapstructure:"rate_burst"`
}

type WalletConfig struct {
	Mnemonic         string `mapstructure:"mnemonic"`
	MnemonicPass     string `mapstructure:"mnemonic_pass"` // optional BIP39 passphrase
	EncryptionSecret string `mapstructure:"encryption_secret"`
	MasterAddress    string `mapstructure:"master_address"`
}

type SweepConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	Workers        int           `mapstructure:"workers"`
	MinSweep       float64       `mapstructure:"min_sweep"`        // token units
	MinGasReserve  float64       `mapstructure:"min_gas_reserve"`  // native units needed to pay a token transfer
	DustReserve    float64       `mapstructure:"dust_reserve"`     // native units left behind after a native sweep
	MinNativeSweep float64       `mapstructure:"min_native_sweep"` // skip native sweeps below this
	FeeCeiling     float64       `mapstructure:"fee_ceiling"`      // max native units one transfer may burn as fees
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// ENV overrides YAML, e.g. WALLET_MNEMONIC, SWEEP_INTERVAL.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "sweep_service")
	v.SetDefault("chain.rate_limit", 10)
	v.SetDefault("chain.rate_burst", 5)
	v.SetDefault("sweep.interval", 5*time.Minute)
	v.SetDefault("sweep.workers", 4)
	v.SetDefault("sweep.min_sweep", 1)
	v.SetDefault("sweep.min_gas_reserve", 15)
	v.SetDefault("sweep.dust_reserve", 1)
	v.SetDefault("sweep.min_native_sweep", 0.1)
	v.SetDefault("sweep.fee_ceiling", 0.01)
	v.SetDefault("kafka.topic", "sweep-events")
}

func (c *Config) validate() error {
	var missing []string
	if c.Wallet.Mnemonic == "" {
		missing = append(missing, "wallet.mnemonic")
	}
	if c.Wallet.EncryptionSecret == "" {
		missing = append(missing, "wallet.encryption_secret")
	}
	if c.Wallet.MasterAddress == "" {
		missing = append(missing, "wallet.master_address")
	}
	if c.Chain.RPC == "" {
		missing = append(missing, "chain.rpc")
	}
	if c.Chain.TokenContract == "" {
		missing = append(missing, "chain.token_contract")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config keys: %s", strings.Join(missing, ", "))
	}
	if c.Sweep.Workers < 1 {
		return fmt.Errorf("sweep.workers must be at least 1")
	}
	return nil
}
