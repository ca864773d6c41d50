package signals

import (
	"time"

	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/types"
)

// ReviewSample is one review considered by the review-quality factor,
// flattened to the fields the calculator filters on.
type ReviewSample struct {
	Rating           int
	IsValid          bool
	IsVerified       bool
	ReviewerVerified bool
}

// Signals is the full read snapshot the trust score calculator consumes.
// Fields backed by absent schema elements hold neutral values and are
// listed in Gaps.
type Signals struct {
	AccountID        uuid.UUID
	KYCStatus        enums.KYCStatus
	AccountCreatedAt time.Time
	CollectedAt      time.Time
	ProfileComplete  bool

	Reviews []ReviewSample

	ApprovedActiveListings int
	VerifiedReports        int
	RejectedListings       int
	Suspensions            int
	ActiveWarningPoints    int

	// Gaps names the factors whose inputs defaulted because the backing
	// table or column is absent.
	Gaps map[types.FactorName]bool
}

// ReviewContext describes a review submission about to be fraud-scored.
type ReviewContext struct {
	ReviewerID        uuid.UUID
	ReviewedAccountID uuid.UUID
	SubmitterIP       string
	DeviceFingerprint string
}

// ReviewSignals is the correlated-history snapshot the fraud scorer
// consumes. History always excludes the review being scored (it has not
// been inserted yet when collection runs).
type ReviewSignals struct {
	ReviewerAccountAge      time.Duration
	SameIPOtherReviewer     bool
	SameDeviceOtherReviewer bool
	ReviewsLast24h          int
	ReviewerTotalReviews    int
	ReviewerDistinctTargets int

	// Incomplete lists indicators whose sub-query failed. The scorer
	// fails closed when this is non-empty.
	Incomplete []enums.FraudFlag
}
