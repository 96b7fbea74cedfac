package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/linlinbupt123-crypto/sweep_service/api"
	"github.com/linlinbupt123-crypto/sweep_service/chain"
	"github.com/linlinbupt123-crypto/sweep_service/config"
	"github.com/linlinbupt123-crypto/sweep_service/db"
	"github.com/linlinbupt123-crypto/sweep_service/domain"
	"github.com/linlinbupt123-crypto/sweep_service/metrics"
	"github.com/linlinbupt123-crypto/sweep_service/notify"
	"github.com/linlinbupt123-crypto/sweep_service/repository"
	"github.com/linlinbupt123-crypto/sweep_service/service"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.NewMongoRepo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn("mongo close failed", "err", err)
		}
	}()

	keyring, err := domain.NewKeyring(cfg.Wallet.Mnemonic, cfg.Wallet.MnemonicPass, cfg.Wallet.EncryptionSecret)
	if err != nil {
		log.Error("keyring init failed", "err", err)
		os.Exit(1)
	}

	eth, err := chain.NewETHClient(ctx, cfg.Chain)
	if err != nil {
		log.Error("chain client init failed", "err", err)
		os.Exit(1)
	}
	defer eth.Close()

	if !eth.ValidAddress(cfg.Wallet.MasterAddress) {
		log.Error("invalid master wallet address", "address", cfg.Wallet.MasterAddress)
		os.Exit(1)
	}

	addressRepo := repository.NewAddressRepo(store)
	txRepo := repository.NewTransactionRepo(store)
	masterRepo := repository.NewMasterRepo(store)

	var notifier service.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		k := notify.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer k.Close()
		notifier = k
	} else {
		log.Warn("no kafka brokers configured, notifications go to the log only")
		notifier = notify.NewLog(log)
	}

	oracle := service.NewOracle(eth)
	recorder := service.NewRecorder(txRepo, addressRepo, masterRepo, log)
	sweeper := service.NewSweeper(&service.SweeperConfig{
		Addresses:     addressRepo,
		Keyring:       keyring,
		Oracle:        oracle,
		Executor:      service.NewExecutor(eth, decimal.NewFromFloat(cfg.Sweep.FeeCeiling)),
		Recorder:      recorder,
		Notifier:      notifier,
		Metrics:       metrics.NewSweep(prometheus.DefaultRegisterer),
		MasterAddress: cfg.Wallet.MasterAddress,
		Thresholds:    service.ThresholdsFromConfig(cfg.Sweep),
		Workers:       cfg.Sweep.Workers,
		Log:           log,
	})
	wallets := service.NewWallets(keyring, addressRepo, oracle, eth)

	scheduler := service.NewScheduler(sweeper, cfg.Sweep.Interval, log)
	go scheduler.Run(ctx)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	walletHandler := api.NewWalletHandler(wallets)
	sweepHandler := api.NewSweepHandler(sweeper)

	r.POST("/addresses", walletHandler.GenerateAddress)
	r.GET("/owners/:ownerRef/addresses", walletHandler.GetAddresses)
	r.GET("/addresses/:address/balance", walletHandler.GetBalance)
	r.POST("/sweep", sweepHandler.TriggerSweep)
	r.GET("/status", sweepHandler.Status)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()
	log.Info("sweep service started", "port", cfg.Port, "env", cfg.Env, "interval", cfg.Sweep.Interval)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", "err", err)
	}
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

// setupLogger picks the handler by environment: JSON for deployed
// environments, text for local work.
func setupLogger(env string) *slog.Logger {
	var h slog.Handler
	switch env {
	case "prod":
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "dev":
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h)
}
