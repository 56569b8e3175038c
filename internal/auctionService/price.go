package auction

import (
	"auction-house/internal/auctionerrors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmount is the first value that no longer fits a decimal(10,2) column
var MaxAmount = decimal.New(1, 8)

// ValidateAmount rejects monetary values that are negative, finer than a cent, or too large to store.
// It applies to listing starting prices and bid amounts alike.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w - %s is negative", auctionerrors.ErrInvalidAmount, amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w - %s has more than two decimal places", auctionerrors.ErrInvalidAmount, amount)
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("%w - %s exceeds the maximum amount", auctionerrors.ErrInvalidAmount, amount)
	}
	return nil
}
