package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

func TestComputeSplitsGrossExactly(t *testing.T) {
	breakdown, err := Compute(10000, decimal.RequireFromString("0.20"))
	require.NoError(t, err)
	require.EqualValues(t, 2000, breakdown.CommissionCents)
	require.EqualValues(t, 8000, breakdown.PayoutCents)
}

func TestComputeNeverDrifts(t *testing.T) {
	rates := []string{"0", "0.0731", "0.1", "0.1999", "0.3333", "0.5", "1"}
	grosses := []int64{1, 3, 99, 101, 12345, 999999}

	for _, rawRate := range rates {
		rate := decimal.RequireFromString(rawRate)
		for _, gross := range grosses {
			breakdown, err := Compute(gross, rate)
			require.NoError(t, err)
			require.Equal(t, gross, breakdown.CommissionCents+breakdown.PayoutCents,
				"rate %s gross %d", rawRate, gross)
			require.GreaterOrEqual(t, breakdown.CommissionCents, int64(0))
			require.GreaterOrEqual(t, breakdown.PayoutCents, int64(0))
		}
	}
}

func TestComputeRoundsHalfAwayFromZero(t *testing.T) {
	// 150 * 0.155 = 23.25 -> 23; 150 * 0.157 = 23.55 -> 24
	breakdown, err := Compute(150, decimal.RequireFromString("0.155"))
	require.NoError(t, err)
	require.EqualValues(t, 23, breakdown.CommissionCents)

	breakdown, err = Compute(150, decimal.RequireFromString("0.157"))
	require.NoError(t, err)
	require.EqualValues(t, 24, breakdown.CommissionCents)
}

func TestComputeRejectsBadInputs(t *testing.T) {
	_, err := Compute(-1, decimal.RequireFromString("0.2"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	for _, raw := range []string{"-0.01", "1.01", "2"} {
		_, err := Compute(100, decimal.RequireFromString(raw))
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "rate %s", raw)
		require.Equal(t, pkgerrors.CodeInvalidRate, typed.Code(), "rate %s", raw)
	}
}
