package enums

import "fmt"

// ArtworkStatus tracks the moderation and sale lifecycle of an artwork.
type ArtworkStatus string

const (
	ArtworkStatusPending  ArtworkStatus = "pending"
	ArtworkStatusApproved ArtworkStatus = "approved"
	ArtworkStatusRejected ArtworkStatus = "rejected"
	ArtworkStatusSold     ArtworkStatus = "sold"
)

var validArtworkStatuses = []ArtworkStatus{
	ArtworkStatusPending,
	ArtworkStatusApproved,
	ArtworkStatusRejected,
	ArtworkStatusSold,
}

// String implements fmt.Stringer.
func (s ArtworkStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ArtworkStatus.
func (s ArtworkStatus) IsValid() bool {
	for _, candidate := range validArtworkStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Sellable reports whether a sale may proceed from this status.
func (s ArtworkStatus) Sellable() bool {
	return s == ArtworkStatusApproved
}

// ParseArtworkStatus converts raw input into an ArtworkStatus.
func ParseArtworkStatus(value string) (ArtworkStatus, error) {
	for _, candidate := range validArtworkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid artwork status %q", value)
}
