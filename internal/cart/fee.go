package cart

import "github.com/shopspring/decimal"

// FeePolicy derives the delivery fee from a cart subtotal.
type FeePolicy func(subtotal decimal.Decimal) decimal.Decimal

func NoFee(decimal.Decimal) decimal.Decimal { return decimal.Zero }

func FlatFee(fee decimal.Decimal) FeePolicy {
	return func(decimal.Decimal) decimal.Decimal { return fee }
}

// TieredFee charges fee until the subtotal reaches freeOver. A zero
// freeOver behaves like FlatFee.
func TieredFee(fee, freeOver decimal.Decimal) FeePolicy {
	return func(subtotal decimal.Decimal) decimal.Decimal {
		if freeOver.IsPositive() && subtotal.GreaterThanOrEqual(freeOver) {
			return decimal.Zero
		}
		return fee
	}
}
