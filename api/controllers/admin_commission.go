package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kq-050/ArtmarketPlace/api/responses"
	"github.com/kq-050/ArtmarketPlace/api/validators"
	"github.com/kq-050/ArtmarketPlace/pkg/logger"
)

type commissionRateService interface {
	CurrentRate(ctx context.Context) (decimal.Decimal, error)
	SetRate(ctx context.Context, rate decimal.Decimal) error
}

type rateAuditor interface {
	CommissionRateUpdated(ctx context.Context, adminID *uuid.UUID, oldRate, newRate string)
}

type updateCommissionRequest struct {
	RatePercent *float64 `json:"rate_percent" validate:"required"`
}

type commissionRateResponse struct {
	Rate        string  `json:"rate"`
	RatePercent float64 `json:"rate_percent"`
}

// AdminGetCommission reports the rate settlement currently snapshots.
func AdminGetCommission(svc commissionRateService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rate, err := svc.CurrentRate(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rateResponse(rate))
	}
}

// AdminUpdateCommission sets the platform commission rate. The rate only
// affects orders settled after the change; existing orders keep their
// snapshot.
func AdminUpdateCommission(svc commissionRateService, auditor rateAuditor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateCommissionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		previous, err := svc.CurrentRate(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate := decimal.NewFromFloat(*req.RatePercent).Div(decimal.NewFromInt(100))
		if err := svc.SetRate(r.Context(), rate); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if auditor != nil {
			auditor.CommissionRateUpdated(r.Context(), nil, previous.String(), rate.String())
		}
		responses.WriteSuccess(w, rateResponse(rate))
	}
}

func rateResponse(rate decimal.Decimal) commissionRateResponse {
	percent, _ := rate.Mul(decimal.NewFromInt(100)).Float64()
	return commissionRateResponse{
		Rate:        rate.String(),
		RatePercent: percent,
	}
}
