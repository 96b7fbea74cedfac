package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToWei converts a native-token amount to its wei representation.
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(NativeDecimals).BigInt()
}

// FromWei converts wei back to a native-token amount.
func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -NativeDecimals)
}

// ToTokenUnits converts a token amount to its integer base-unit representation.
// The exponent is fixed; see TokenDecimals.
func ToTokenUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(TokenDecimals).BigInt()
}

// FromTokenUnits converts integer base units back to a token amount.
func FromTokenUnits(units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, -TokenDecimals)
}
