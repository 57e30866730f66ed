package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kq-050/ArtmarketPlace/pkg/db/models"
	"github.com/kq-050/ArtmarketPlace/pkg/enums"
	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
	"github.com/kq-050/ArtmarketPlace/pkg/logger"
)

// OriginStripeWebhook labels entries recorded by the payment webhook path.
const OriginStripeWebhook = "stripe-webhook"

// Recorder appends entries to the audit trail. Trail writes must never sink
// the operation being audited, so Record logs and swallows storage failures;
// callers that need the error use RecordStrict.
type Recorder struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecorder(conn *gorm.DB, log *logger.Logger) *Recorder {
	return &Recorder{db: conn, log: log}
}

// WithTx returns a recorder bound to the supplied transaction.
func (r *Recorder) WithTx(tx *gorm.DB) *Recorder {
	return &Recorder{db: tx, log: r.log}
}

// RecordStrict appends one entry and surfaces any storage error.
func (r *Recorder) RecordStrict(ctx context.Context, action enums.AuditAction, userID *uuid.UUID, origin, details string) error {
	if !action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown audit action %q", action))
	}
	entry := models.AuditLog{
		ID:      uuid.New(),
		Action:  action,
		UserID:  userID,
		Details: details,
		Origin:  origin,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "append audit entry")
	}
	return nil
}

// Record appends one entry, logging instead of returning storage failures.
func (r *Recorder) Record(ctx context.Context, action enums.AuditAction, userID *uuid.UUID, origin, details string) {
	if err := r.RecordStrict(ctx, action, userID, origin, details); err != nil {
		r.log.Error(ctx, "audit entry dropped", err)
	}
}

// PaymentSucceeded records the success entry for a settled payment.
func (r *Recorder) PaymentSucceeded(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, paymentID string, totalCents int64) {
	details := fmt.Sprintf("order %s settled for payment %s, total %d cents", orderID, paymentID, totalCents)
	r.Record(ctx, enums.AuditActionPaymentSuccess, &userID, OriginStripeWebhook, details)
}

// PaymentFailed records the failure entry for a settlement attempt.
func (r *Recorder) PaymentFailed(ctx context.Context, userID *uuid.UUID, paymentID string, cause error) {
	details := fmt.Sprintf("settlement failed for payment %s: %v", paymentID, cause)
	r.Record(ctx, enums.AuditActionPaymentProcessingError, userID, OriginStripeWebhook, details)
}

// CommissionRateUpdated records an admin rate change.
func (r *Recorder) CommissionRateUpdated(ctx context.Context, adminID *uuid.UUID, oldRate, newRate string) {
	details := fmt.Sprintf("commission rate changed from %s to %s", oldRate, newRate)
	r.Record(ctx, enums.AuditActionCommissionRateUpdated, adminID, "admin-api", details)
}
