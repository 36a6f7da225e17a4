package enums

// OutboxDLQErrorReason records why the publisher parked an outbox row.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: retryable publish errors until the attempt budget ran out.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: Pub/Sub rejected the message or no topic publisher exists.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	// OutboxDLQReasonUnresolvable: the row never decoded (unknown type, aggregate mismatch, bad payload).
	OutboxDLQReasonUnresolvable OutboxDLQErrorReason = "unresolvable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable, OutboxDLQReasonUnresolvable:
		return true
	}
	return false
}
