package types

import "github.com/m-mizutani/goerr/v2"

// EventStatus represents the review status of a learning event
type EventStatus string

const (
	EventStatusPending  EventStatus = "Pending"
	EventStatusApproved EventStatus = "Approved"
	EventStatusRejected EventStatus = "Rejected"
)

// AllEventStatuses returns all valid event statuses
func AllEventStatuses() []EventStatus {
	return []EventStatus{
		EventStatusPending,
		EventStatusApproved,
		EventStatusRejected,
	}
}

// IsValid checks if the event status is valid
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusPending,
		EventStatusApproved,
		EventStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status permits no further transition
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusApproved || s == EventStatusRejected
}

// String returns the string representation of the event status
func (s EventStatus) String() string {
	return string(s)
}

// ParseEventStatus parses a string into an EventStatus
func ParseEventStatus(s string) (EventStatus, error) {
	status := EventStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid event status", goerr.V("status", s))
	}
	return status, nil
}
