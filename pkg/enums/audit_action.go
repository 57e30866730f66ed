package enums

import "fmt"

// AuditAction enumerates the actions recorded in the audit log.
type AuditAction string

const (
	AuditActionPaymentSuccess         AuditAction = "PAYMENT_SUCCESS"
	AuditActionPaymentProcessingError AuditAction = "PAYMENT_PROCESSING_ERROR"
	AuditActionCommissionRateUpdated  AuditAction = "COMMISSION_RATE_UPDATED"
	AuditActionArtworkApproved        AuditAction = "ARTWORK_APPROVED"
	AuditActionArtworkRejected        AuditAction = "ARTWORK_REJECTED"
)

var validAuditActions = []AuditAction{
	AuditActionPaymentSuccess,
	AuditActionPaymentProcessingError,
	AuditActionCommissionRateUpdated,
	AuditActionArtworkApproved,
	AuditActionArtworkRejected,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
