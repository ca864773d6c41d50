package signals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	pkgerrors "github.com/mirandavel/tradepost-backend/pkg/errors"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/types"
)

const fraudVelocityWindow = 24 * time.Hour

// Collector reads the raw facts scoring needs. Schema gaps resolve to
// neutral signals; storage failures propagate to the caller.
type Collector struct {
	accounts   AccountReader
	reviews    ReviewReader
	violations ViolationReader
	listings   ListingReader
	prober     *CapabilityProber
	logg       *logger.Logger
	timeout    time.Duration
}

// CollectorParams wires the collector's read surfaces.
type CollectorParams struct {
	Accounts     AccountReader
	Reviews      ReviewReader
	Violations   ViolationReader
	Listings     ListingReader
	Prober       *CapabilityProber
	Logger       *logger.Logger
	QueryTimeout time.Duration
}

// NewCollector validates and builds a Collector.
func NewCollector(params CollectorParams) (*Collector, error) {
	if params.Accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "account reader required")
	}
	if params.Reviews == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "review reader required")
	}
	if params.Violations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "violation reader required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "listing reader required")
	}
	if params.Prober == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "capability prober required")
	}
	timeout := params.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Collector{
		accounts:   params.Accounts,
		reviews:    params.Reviews,
		violations: params.Violations,
		listings:   params.Listings,
		prober:     params.Prober,
		logg:       params.Logger,
		timeout:    timeout,
	}, nil
}

// Collect assembles the trust score input snapshot for one account.
func (c *Collector) Collect(ctx context.Context, accountID uuid.UUID) (*Signals, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	caps, err := c.prober.Resolve(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve schema capabilities")
	}

	account, err := c.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sig := &Signals{
		AccountID:        accountID,
		KYCStatus:        account.KYCStatus,
		AccountCreatedAt: account.CreatedAt,
		CollectedAt:      time.Now().UTC(),
		ProfileComplete:  account.ProfileComplete(),
		Gaps:             map[types.FactorName]bool{},
	}

	if err := c.collectReviews(ctx, accountID, caps, sig); err != nil {
		return nil, err
	}
	if err := c.collectListings(ctx, accountID, caps, sig); err != nil {
		return nil, err
	}
	if err := c.collectViolations(ctx, accountID, caps, sig); err != nil {
		return nil, err
	}

	return sig, nil
}

func (c *Collector) collectReviews(ctx context.Context, accountID uuid.UUID, caps Capabilities, sig *Signals) error {
	readCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reviews, err := c.reviews.GetReviewsFor(readCtx, accountID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read reviews")
	}

	if !caps.HasReviewVerified || !caps.HasReviewValidity {
		sig.Gaps[types.FactorReviewQuality] = true
	}

	reviewerIDs := make([]uuid.UUID, 0, len(reviews))
	seen := map[uuid.UUID]bool{}
	for _, review := range reviews {
		if !seen[review.ReviewerID] {
			seen[review.ReviewerID] = true
			reviewerIDs = append(reviewerIDs, review.ReviewerID)
		}
	}

	statuses, err := c.accounts.GetKYCStatuses(readCtx, reviewerIDs)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read reviewer kyc statuses")
	}

	samples := make([]ReviewSample, 0, len(reviews))
	for _, review := range reviews {
		sample := ReviewSample{
			Rating:           review.Rating,
			IsValid:          review.IsValid,
			IsVerified:       review.IsVerified,
			ReviewerVerified: statuses[review.ReviewerID] == enums.KYCStatusApproved,
		}
		// Absent columns scan as zero values; treat them as passing so the
		// relaxed filters do not zero-score a schema-limited deployment.
		if !caps.HasReviewValidity {
			sample.IsValid = true
		}
		samples = append(samples, sample)
	}
	sig.Reviews = samples
	return nil
}

func (c *Collector) collectListings(ctx context.Context, accountID uuid.UUID, caps Capabilities, sig *Signals) error {
	if !caps.HasListings {
		sig.Gaps[types.FactorActiveListings] = true
		sig.Gaps[types.FactorRejectedListings] = true
		return nil
	}

	readCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	approved, err := c.listings.GetApprovedActiveListingCount(readCtx, accountID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved listings")
	}
	rejected, err := c.listings.GetRejectedListingCount(readCtx, accountID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count rejected listings")
	}
	sig.ApprovedActiveListings = approved
	sig.RejectedListings = rejected
	return nil
}

func (c *Collector) collectViolations(ctx context.Context, accountID uuid.UUID, caps Capabilities, sig *Signals) error {
	readCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if caps.HasReports {
		reports, err := c.violations.GetVerifiedReportCount(readCtx, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count verified reports")
		}
		sig.VerifiedReports = reports
	} else {
		sig.Gaps[types.FactorVerifiedReports] = true
	}

	if caps.HasSuspensions {
		suspensions, err := c.violations.GetSuspensionCount(readCtx, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count suspensions")
		}
		sig.Suspensions = suspensions
	} else {
		sig.Gaps[types.FactorSuspensions] = true
	}

	if caps.HasWarnings {
		warnings, err := c.violations.GetActiveWarnings(readCtx, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read active warnings")
		}
		now := time.Now().UTC()
		points := 0
		for _, warning := range warnings {
			if warning.ActiveAt(now) {
				points += warning.Points
			}
		}
		sig.ActiveWarningPoints = points
	} else {
		sig.Gaps[types.FactorWarnings] = true
	}

	return nil
}

// CollectReview assembles the fraud scorer's correlated-history snapshot.
// Individual sub-query failures are recorded in Incomplete instead of
// aborting the submission; the scorer fails closed on them.
func (c *Collector) CollectReview(ctx context.Context, rc ReviewContext) (*ReviewSignals, error) {
	if rc.ReviewerID == uuid.Nil || rc.ReviewedAccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer and reviewed account ids required")
	}

	caps, err := c.prober.Resolve(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve schema capabilities")
	}

	readCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out := &ReviewSignals{}
	now := time.Now().UTC()

	if reviewer, err := c.accounts.GetAccount(readCtx, rc.ReviewerID); err != nil {
		c.markIncomplete(ctx, out, enums.FraudFlagNewAccount, err)
	} else {
		out.ReviewerAccountAge = now.Sub(reviewer.CreatedAt)
	}

	if targetReviews, err := c.reviews.GetReviewsFor(readCtx, rc.ReviewedAccountID); err != nil {
		c.markIncomplete(ctx, out, enums.FraudFlagSharedIP, err)
		c.markIncomplete(ctx, out, enums.FraudFlagSharedDevice, err)
	} else {
		for _, review := range targetReviews {
			if review.ReviewerID == rc.ReviewerID {
				continue
			}
			if rc.SubmitterIP != "" && review.SubmitterIP == rc.SubmitterIP {
				out.SameIPOtherReviewer = true
			}
			if caps.HasDeviceFingerprint && rc.DeviceFingerprint != "" &&
				review.DeviceFingerprint == rc.DeviceFingerprint {
				out.SameDeviceOtherReviewer = true
			}
		}
	}

	if recent, err := c.reviews.GetReviewsBy(readCtx, rc.ReviewerID, now.Add(-fraudVelocityWindow)); err != nil {
		c.markIncomplete(ctx, out, enums.FraudFlagReviewVelocity, err)
	} else {
		out.ReviewsLast24h = len(recent)
	}

	if all, err := c.reviews.GetReviewsBy(readCtx, rc.ReviewerID, time.Time{}); err != nil {
		c.markIncomplete(ctx, out, enums.FraudFlagSingleTarget, err)
	} else {
		targets := map[uuid.UUID]bool{}
		for _, review := range all {
			targets[review.ReviewedAccountID] = true
		}
		out.ReviewerTotalReviews = len(all)
		out.ReviewerDistinctTargets = len(targets)
	}

	return out, nil
}

func (c *Collector) markIncomplete(ctx context.Context, out *ReviewSignals, flag enums.FraudFlag, err error) {
	out.Incomplete = append(out.Incomplete, flag)
	if c.logg != nil {
		logCtx := c.logg.WithField(ctx, "fraud_indicator", string(flag))
		c.logg.Error(logCtx, "fraud signal collection failed", err)
	}
}

func (c *Collector) getAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	readCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	account, err := c.accounts.GetAccount(readCtx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read account")
	}
	return account, nil
}
