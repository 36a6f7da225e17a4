package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBidStatusTransitions(t *testing.T) {
	assert.False(t, BidStatusPending.IsTerminal())
	assert.True(t, BidStatusAccepted.IsTerminal())
	assert.True(t, BidStatusRejected.IsTerminal())

	assert.True(t, BidStatusPending.IsLive())
	assert.True(t, BidStatusAccepted.IsLive())
	assert.False(t, BidStatusRejected.IsLive())
}

func TestParseBidStatus(t *testing.T) {
	status, err := ParseBidStatus("accepted")
	require.NoError(t, err)
	assert.Equal(t, BidStatusAccepted, status)

	_, err = ParseBidStatus("withdrawn")
	assert.Error(t, err)
	assert.False(t, BidStatus("withdrawn").IsValid())
}

func TestParseSystemRole(t *testing.T) {
	role, err := ParseSystemRole("")
	require.NoError(t, err)
	assert.Equal(t, SystemRoleUser, role)

	role, err = ParseSystemRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, SystemRoleAdmin, role)

	_, err = ParseSystemRole("superuser")
	assert.Error(t, err)
}

func TestOutboxEnums(t *testing.T) {
	eventType, err := ParseOutboxEventType("bid_accepted")
	require.NoError(t, err)
	assert.Equal(t, EventBidAccepted, eventType)
	assert.False(t, OutboxEventType("order_created").IsValid())

	aggregate, err := ParseOutboxAggregateType("bid")
	require.NoError(t, err)
	assert.True(t, aggregate.IsValid())
	assert.True(t, OutboxDLQReasonMaxAttempts.IsValid())
	assert.True(t, OutboxDLQReasonUnresolvable.IsValid())
	assert.False(t, OutboxDLQErrorReason("expired").IsValid())
}
