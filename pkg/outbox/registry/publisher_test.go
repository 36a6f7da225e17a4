package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/wishbridge-backend/pkg/config"
	"github.com/angelmondragon/wishbridge-backend/pkg/db/models"
	"github.com/angelmondragon/wishbridge-backend/pkg/enums"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox"
	"github.com/angelmondragon/wishbridge-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		BidsTopic:         "bids-topic",
		NotificationTopic: "notification-topic",
	})
	require.NoError(t, err)
	return reg
}

func mustEnvelope(t *testing.T, data any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	env, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return env
}

func TestEventRegistryResolveBidSubmitted(t *testing.T) {
	reg := newTestEventRegistry(t)
	bidID := uuid.New()

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventBidSubmitted,
		AggregateType: enums.AggregateBid,
		AggregateID:   bidID,
		Payload: mustEnvelope(t, payloads.BidSubmittedEvent{
			BidID:      bidID,
			WishID:     uuid.New(),
			OfferPrice: decimal.RequireFromString("120.50"),
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "bids-topic", resolved.Descriptor.Topic)
	assert.NotEmpty(t, resolved.Envelope.EventID)

	payload, ok := resolved.Payload.(*payloads.BidSubmittedEvent)
	require.True(t, ok, "unexpected payload type %T", resolved.Payload)
	assert.Equal(t, bidID, payload.BidID)
	assert.True(t, payload.OfferPrice.Equal(decimal.RequireFromString("120.5")))
}

func TestEventRegistryTopics(t *testing.T) {
	reg := newTestEventRegistry(t)
	cases := map[enums.OutboxEventType]string{
		enums.EventBidSubmitted:            "bids-topic",
		enums.EventBidAccepted:             "bids-topic",
		enums.EventWishDeleted:             "bids-topic",
		enums.EventSignupOTPRequested:      "notification-topic",
		enums.EventUserVerificationChanged: "notification-topic",
	}
	for eventType, topic := range cases {
		desc, ok := reg.Descriptor(eventType)
		require.True(t, ok, eventType)
		assert.Equal(t, topic, desc.Topic, eventType)
	}
}

func TestEventRegistryResolveNonRetryable(t *testing.T) {
	reg := newTestEventRegistry(t)
	valid := mustEnvelope(t, payloads.BidAcceptedEvent{BidID: uuid.New()})

	cases := []struct {
		name  string
		event models.OutboxEvent
	}{
		{"unsupported type", models.OutboxEvent{EventType: enums.OutboxEventType("wish_archived"), AggregateType: enums.AggregateWish, AggregateID: uuid.New(), Payload: valid}},
		{"aggregate mismatch", models.OutboxEvent{EventType: enums.EventBidAccepted, AggregateType: enums.AggregateBid, AggregateID: uuid.New(), Payload: valid}},
		{"missing aggregate id", models.OutboxEvent{EventType: enums.EventBidAccepted, AggregateType: enums.AggregateWish, Payload: valid}},
		{"bad envelope", models.OutboxEvent{EventType: enums.EventBidAccepted, AggregateType: enums.AggregateWish, AggregateID: uuid.New(), Payload: json.RawMessage(`{`)}},
		{"null data", models.OutboxEvent{EventType: enums.EventBidAccepted, AggregateType: enums.AggregateWish, AggregateID: uuid.New(), Payload: json.RawMessage(`{"version":1,"data":null}`)}},
		{"wrong payload shape", models.OutboxEvent{EventType: enums.EventBidAccepted, AggregateType: enums.AggregateWish, AggregateID: uuid.New(), Payload: json.RawMessage(`{"version":1,"data":{"bid_id":42}}`)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.Resolve(tc.event)
			require.Error(t, err)
			var nonRetry NonRetryableError
			assert.True(t, errors.As(err, &nonRetry), "expected NonRetryableError, got %T", err)
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{NotificationTopic: "n"})
	assert.Error(t, err)
	_, err = NewEventRegistry(config.PubSubConfig{BidsTopic: "b"})
	assert.Error(t, err)
}
