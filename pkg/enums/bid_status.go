package enums

import "fmt"

// BidStatus tracks where a bid sits in its lifecycle. Only pending bids move.
type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

var validBidStatuses = []BidStatus{
	BidStatusPending,
	BidStatusAccepted,
	BidStatusRejected,
}

// String implements fmt.Stringer.
func (s BidStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BidStatus.
func (s BidStatus) IsValid() bool {
	for _, candidate := range validBidStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status.
func (s BidStatus) IsTerminal() bool {
	return s == BidStatusAccepted || s == BidStatusRejected
}

// IsLive reports whether the bid still binds its wish (pending or accepted).
func (s BidStatus) IsLive() bool {
	return s == BidStatusPending || s == BidStatusAccepted
}

// ParseBidStatus converts raw input into a BidStatus.
func ParseBidStatus(value string) (BidStatus, error) {
	for _, candidate := range validBidStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bid status %q", value)
}
