package domain

import (
	"math"
	"math/big"
	"strings"
)

// FeeDenominator is the basis-point scale: fees are parts per 10,000 of gross.
const FeeDenominator = 10_000

// FeeConfig is the platform fee in force at a point in time. Payments and
// escrows snapshot the config at creation; later config changes never
// reprice a settled or pending record.
type FeeConfig struct {
	BasisPoints uint32
	Collector   string
}

func (c FeeConfig) Validate(ceilingBasisPoints uint32) error {
	if c.BasisPoints > ceilingBasisPoints || c.BasisPoints > FeeDenominator {
		return ErrInvalidFeeConfig
	}
	if strings.TrimSpace(c.Collector) == "" {
		return ErrInvalidFeeConfig
	}
	return nil
}

// ComputeFee splits gross into (fee, net) using integer arithmetic only.
// Rounding is always down, toward the payer: the fee never exceeds the
// configured rate. fee + net == gross holds for every input.
func ComputeFee(gross int64, basisPoints uint32) (fee, net int64) {
	if gross <= math.MaxInt64/FeeDenominator {
		fee = gross * int64(basisPoints) / FeeDenominator
		return fee, gross - fee
	}
	// Amounts near the int64 ceiling would overflow the scaled product.
	product := new(big.Int).Mul(big.NewInt(gross), big.NewInt(int64(basisPoints)))
	fee = product.Div(product, big.NewInt(FeeDenominator)).Int64()
	return fee, gross - fee
}

// ProportionalShare computes amount * numerator / denominator without
// intermediate overflow. Used for per-recipient net shares in split payments,
// where amount * netTotal routinely exceeds the int64 range.
func ProportionalShare(amount, numerator, denominator int64) int64 {
	if denominator == 0 {
		return 0
	}
	product := new(big.Int).Mul(big.NewInt(amount), big.NewInt(numerator))
	return product.Div(product, big.NewInt(denominator)).Int64()
}
