package commission

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

var (
	rateFloor   = decimal.Zero
	rateCeiling = decimal.NewFromInt(1)
)

// Breakdown splits a gross amount into the platform's commission and the
// artist payout. The payout is derived by subtraction so the two parts always
// sum back to the gross amount exactly.
type Breakdown struct {
	CommissionCents int64
	PayoutCents     int64
}

// Compute applies rate to grossCents. The commission is rounded half away
// from zero to whole cents; the payout never rounds independently.
func Compute(grossCents int64, rate decimal.Decimal) (Breakdown, error) {
	if grossCents < 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must not be negative")
	}
	if err := ValidateRate(rate); err != nil {
		return Breakdown{}, err
	}

	commission := decimal.NewFromInt(grossCents).Mul(rate).Round(0).IntPart()
	return Breakdown{
		CommissionCents: commission,
		PayoutCents:     grossCents - commission,
	}, nil
}

// ValidateRate rejects rates outside [0, 1].
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThan(rateFloor) || rate.GreaterThan(rateCeiling) {
		return pkgerrors.New(pkgerrors.CodeInvalidRate, "commission rate must be between 0 and 1").
			WithDetails(map[string]any{"rate": rate.String()})
	}
	return nil
}
