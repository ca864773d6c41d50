package recompute

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/outbox"
	"github.com/mirandavel/tradepost-backend/pkg/outbox/idempotency"
	"github.com/mirandavel/tradepost-backend/pkg/outbox/payloads"
)

const scoringConsumer = "trust-scoring"

// enqueuer is the dispatcher surface the consumer pushes into.
type enqueuer interface {
	Enqueue(req Request) error
}

// aggregateRefresher keeps the denormalized review counters current before
// a review-driven recompute runs.
type aggregateRefresher interface {
	RefreshAccountAggregates(ctx context.Context, accountID uuid.UUID) error
}

// Consumer watches domain events and turns recompute triggers into
// dispatcher requests. Score-updated events are deliberately not triggers,
// which keeps the recompute loop acyclic.
type Consumer struct {
	subscription *pubsub.Subscriber
	dispatcher   enqueuer
	aggregates   aggregateRefresher
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the scoring event consumer.
func NewConsumer(subscription *pubsub.Subscriber, dispatcher enqueuer, aggregates aggregateRefresher, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if aggregates == nil {
		return nil, fmt.Errorf("aggregate refresher required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		dispatcher:   dispatcher,
		aggregates:   aggregates,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !eventType.IsRecomputeTrigger() {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, scoringConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	req, err := c.mapEvent(ctx, eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to map event", err)
		_ = c.idempotency.Delete(ctx, scoringConsumer, eventID)
		return processResult{nack: true}
	}

	if err := c.dispatcher.Enqueue(*req); err != nil {
		c.logg.Error(logCtx, "failed to queue recompute", err)
		_ = c.idempotency.Delete(ctx, scoringConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithAccountID(logCtx, req.AccountID.String())
	c.logg.Info(logCtx, "recompute queued")
	return processResult{ack: true}
}

// mapEvent extracts the affected account and recompute reason from the
// event payload. Review events also refresh the account's review counters
// so the collected snapshot sees current data.
func (c *Consumer) mapEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) (*Request, error) {
	switch eventType {
	case enums.EventIdentityStatusChanged:
		var payload payloads.IdentityStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return buildRequest(payload.AccountID, enums.ScoreReasonIdentityChanged, enums.ScoreActorSystem)

	case enums.EventReviewCreated, enums.EventReviewUpdated, enums.EventReviewDeleted:
		var payload payloads.ReviewEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.ReviewedAccountID == uuid.Nil {
			return nil, fmt.Errorf("reviewed account id missing")
		}
		if err := c.aggregates.RefreshAccountAggregates(ctx, payload.ReviewedAccountID); err != nil {
			return nil, fmt.Errorf("refresh review aggregates: %w", err)
		}
		return buildRequest(payload.ReviewedAccountID, enums.ScoreReasonReviewActivity, enums.ScoreActorReview)

	case enums.EventListingStatusChanged:
		var payload payloads.ListingStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return buildRequest(payload.AccountID, enums.ScoreReasonListingModerated, enums.ScoreActorSystem)

	case enums.EventWarningIssued:
		var payload payloads.WarningIssuedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return buildRequest(payload.AccountID, enums.ScoreReasonWarningIssued, enums.ScoreActorAdmin)

	default:
		return nil, fmt.Errorf("event type %q is not a recompute trigger", eventType)
	}
}

func buildRequest(accountID uuid.UUID, reason enums.ScoreReason, actor enums.ScoreActor) (*Request, error) {
	if accountID == uuid.Nil {
		return nil, fmt.Errorf("account id missing")
	}
	return &Request{AccountID: accountID, Reason: reason, Actor: actor}, nil
}
