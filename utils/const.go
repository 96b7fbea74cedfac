package utils

/*
BIP-44 layout used for deposit addresses:

	m / purpose' / coin_type' / account' / change / address_index

Only the address_index varies. Purpose is fixed to 44', coin type to 60'
(EVM chains), account to 0' and change to 0 (external chain). Re-deriving
an address therefore needs nothing but its index.
*/
const (
	DerivationPathPrefix = "m/44'/60'/0'/0/"

	// TokenDecimals is the fungible token's base-unit exponent. The
	// service custodies a single 6-decimals stablecoin; the value is a
	// constant on purpose, not configuration.
	TokenDecimals = 6

	// NativeDecimals is the wei exponent of the chain's base asset.
	NativeDecimals = 18
)
