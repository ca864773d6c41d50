package registry

import (
	"encoding/json"
	"fmt"

	"github.com/mirandavel/tradepost-backend/pkg/config"
	"github.com/mirandavel/tradepost-backend/pkg/db/models"
	"github.com/mirandavel/tradepost-backend/pkg/enums"
	"github.com/mirandavel/tradepost-backend/pkg/outbox"
	"github.com/mirandavel/tradepost-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the publisher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.DomainTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventIdentityStatusChanged,
			AggregateType:  enums.AggregateAccount,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.IdentityStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventReviewCreated,
			AggregateType:  enums.AggregateReview,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ReviewEvent{} },
		},
		{
			EventType:      enums.EventReviewUpdated,
			AggregateType:  enums.AggregateReview,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ReviewEvent{} },
		},
		{
			EventType:      enums.EventReviewDeleted,
			AggregateType:  enums.AggregateReview,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ReviewEvent{} },
		},
		{
			EventType:      enums.EventListingStatusChanged,
			AggregateType:  enums.AggregateListing,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ListingStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventWarningIssued,
			AggregateType:  enums.AggregateWarning,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.WarningIssuedEvent{} },
		},
		{
			EventType:      enums.EventAccountScoreUpdated,
			AggregateType:  enums.AggregateAccount,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.AccountScoreUpdatedEvent{} },
		},
		{
			EventType:      enums.EventScoreNotification,
			AggregateType:  enums.AggregateAccount,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.ScoreNotificationEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	r.entries[desc.EventType] = desc
}

// Descriptor returns the descriptor for the given event type.
func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.entries[eventType]
	return desc, ok
}

// Resolve decodes an outbox row against its registered descriptor. Unknown
// event types and malformed payloads are non-retryable.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[row.EventType]
	if !ok {
		return nil, NonRetryableError{Err: fmt.Errorf("unknown event type %q", row.EventType)}
	}
	if row.AggregateType != desc.AggregateType {
		return nil, NonRetryableError{Err: fmt.Errorf(
			"event %q carries aggregate %q, want %q", row.EventType, row.AggregateType, desc.AggregateType)}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode envelope: %w", err)}
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NonRetryableError{Err: fmt.Errorf("decode payload: %w", err)}
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}
