package enums

import "fmt"

// KYCStatus maps to the kyc_status enum in Postgres.
type KYCStatus string

const (
	KYCStatusUnverified KYCStatus = "unverified"
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusApproved   KYCStatus = "approved"
	KYCStatusRejected   KYCStatus = "rejected"
)

var validKYCStatuses = []KYCStatus{
	KYCStatusUnverified,
	KYCStatusPending,
	KYCStatusApproved,
	KYCStatusRejected,
}

// IsValid reports whether the value matches the canonical kyc_status enum.
func (s KYCStatus) IsValid() bool {
	for _, candidate := range validKYCStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseKYCStatus converts raw input into KYCStatus.
func ParseKYCStatus(value string) (KYCStatus, error) {
	for _, candidate := range validKYCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid kyc status %q", value)
}
