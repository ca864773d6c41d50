package enums

import "fmt"

// FraudFlag maps to the fraud_flag enum in Postgres. Each flag names one
// weighted fraud indicator raised during review submission.
type FraudFlag string

const (
	FraudFlagSharedIP          FraudFlag = "shared_ip"
	FraudFlagSharedDevice      FraudFlag = "shared_device"
	FraudFlagReviewVelocity    FraudFlag = "review_velocity"
	FraudFlagNewAccount        FraudFlag = "new_account"
	FraudFlagSingleTarget      FraudFlag = "single_target"
	FraudFlagScoringIncomplete FraudFlag = "scoring_incomplete"
)

var validFraudFlags = []FraudFlag{
	FraudFlagSharedIP,
	FraudFlagSharedDevice,
	FraudFlagReviewVelocity,
	FraudFlagNewAccount,
	FraudFlagSingleTarget,
	FraudFlagScoringIncomplete,
}

// IsValid reports whether the value matches the canonical fraud_flag enum.
func (f FraudFlag) IsValid() bool {
	for _, candidate := range validFraudFlags {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFraudFlag converts raw input into FraudFlag.
func ParseFraudFlag(value string) (FraudFlag, error) {
	for _, candidate := range validFraudFlags {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fraud flag %q", value)
}
