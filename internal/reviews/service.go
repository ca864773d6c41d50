package reviews

import (
	"context"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/mirandavel/tradepost-backend/internal/fraud"
	"github.com/mirandavel/tradepost-backend/internal/signals"
	dbpkg "github.com/mirandavel/tradepost-backend/pkg/db"
	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	pkgerrors "github.com/mirandavel/tradepost-backend/pkg/errors"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/metrics"
	"github.com/mirandavel/tradepost-backend/pkg/outbox"
	"github.com/mirandavel/tradepost-backend/pkg/outbox/payloads"
)

// TxRunner executes work inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// FraudCollector assembles the correlated-history snapshot for a submission.
type FraudCollector interface {
	CollectReview(ctx context.Context, rc signals.ReviewContext) (*signals.ReviewSignals, error)
}

// Emitter queues a domain event inside the caller's transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service accepts review submissions.
type Service interface {
	Submit(ctx context.Context, req SubmitReviewRequest) (*ReviewResponse, error)
}

type service struct {
	tx        TxRunner
	repo      ReviewRepository
	collector FraudCollector
	scorer    *fraud.Scorer
	emitter   Emitter
	metrics   *metrics.ScoringMetrics
	logg      *logger.Logger
	validate  *validator.Validate
}

// ServiceParams wires the submission service.
type ServiceParams struct {
	Tx        TxRunner
	Repo      ReviewRepository
	Collector FraudCollector
	Scorer    *fraud.Scorer
	Emitter   Emitter
	Metrics   *metrics.ScoringMetrics
	Logger    *logger.Logger
}

// NewService validates dependencies and builds the submission service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "review repository required")
	}
	if params.Collector == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fraud collector required")
	}
	if params.Scorer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fraud scorer required")
	}
	if params.Emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{
		tx:        params.Tx,
		repo:      params.Repo,
		collector: params.Collector,
		scorer:    params.Scorer,
		emitter:   params.Emitter,
		metrics:   params.Metrics,
		logg:      params.Logger,
		validate:  validator.New(),
	}, nil
}

// Submit fraud-scores and persists one review. Reviews under the risk
// threshold publish immediately; everything else waits for moderation.
func (s *service) Submit(ctx context.Context, req SubmitReviewRequest) (*ReviewResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid review submission").
			WithDetails(err.Error())
	}
	if req.ReviewerID == req.ReviewedAccountID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "accounts cannot review themselves")
	}

	collected, err := s.collector.CollectReview(ctx, signals.ReviewContext{
		ReviewerID:        req.ReviewerID,
		ReviewedAccountID: req.ReviewedAccountID,
		SubmitterIP:       req.SubmitterIP,
		DeviceFingerprint: req.DeviceFingerprint,
	})
	if err != nil {
		return nil, err
	}

	assessment := s.scorer.Score(*collected)
	outcome := "held"
	if assessment.AutoVerify {
		outcome = "auto_verified"
	}
	s.metrics.IncFraudDecision(outcome)

	status := enums.ReviewStatusPendingReview
	if assessment.AutoVerify {
		status = enums.ReviewStatusPublished
	}

	review := &models.Review{
		ReviewerID:        req.ReviewerID,
		ReviewedAccountID: req.ReviewedAccountID,
		TransactionID:     req.TransactionID,
		ListingID:         req.ListingID,
		Rating:            req.Rating,
		Comment:           req.Comment,
		Status:            status,
		IsValid:           true,
		IsVerified:        assessment.AutoVerify,
		FraudScore:        assessment.Score,
		SubmitterIP:       req.SubmitterIP,
		DeviceFingerprint: req.DeviceFingerprint,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateReviewTx(tx, review); err != nil {
			return err
		}

		rows := make([]models.ReviewFraudSignal, 0, len(assessment.Signals))
		for _, signal := range assessment.Signals {
			rows = append(rows, models.ReviewFraudSignal{
				ReviewID: review.ID,
				Flag:     signal.Flag,
				Weight:   signal.Points,
				Message:  flagMessage(signal.Flag),
			})
		}
		if err := s.repo.CreateFraudSignalsTx(tx, rows); err != nil {
			return err
		}

		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{AccountID: req.ReviewerID, Role: string(enums.ScoreActorReview)},
			Data: payloads.ReviewEvent{
				ReviewID:          review.ID,
				ReviewerID:        review.ReviewerID,
				ReviewedAccountID: review.ReviewedAccountID,
				Rating:            review.Rating,
			},
			Version: 1,
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_reviews_reviewer_target_txn") ||
			dbpkg.IsUniqueViolation(err, "ux_reviews_reviewer_target_listing") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "review already submitted")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist review")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"review_id":   review.ID.String(),
			"fraud_score": assessment.Score,
			"status":      string(status),
		})
		s.logg.Info(logCtx, "review submitted")
	}

	response := ToReviewResponse(review)
	return &response, nil
}

func flagMessage(flag enums.FraudFlag) string {
	switch flag {
	case enums.FraudFlagSharedIP:
		return "submitted from an IP used by another reviewer of this account"
	case enums.FraudFlagSharedDevice:
		return "submitted from a device used by another reviewer of this account"
	case enums.FraudFlagReviewVelocity:
		return "reviewer exceeded the 24h submission limit"
	case enums.FraudFlagNewAccount:
		return "reviewer account is less than 7 days old"
	case enums.FraudFlagSingleTarget:
		return "reviewer only ever reviews this account"
	case enums.FraudFlagScoringIncomplete:
		return "one or more fraud indicators could not be collected"
	default:
		return string(flag)
	}
}
