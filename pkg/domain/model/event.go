package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/speare-ai/speare/pkg/domain/types"
)

// EventID is a UUID-based identifier for a LearningEvent
type EventID string

// NewEventID generates a new UUID v4 EventID
func NewEventID() EventID {
	return EventID(uuid.New().String())
}

// LearningEvent is one gap-to-resolution record of the learning loop.
// Created by the gap scanner or by a low-confidence copilot report,
// mutated exactly once by a review decision, never deleted.
type LearningEvent struct {
	ID             EventID
	TicketNumber   string
	ConversationID string
	DetectedGap    string
	ProposedKBID   ArticleID
	DraftSummary   string
	Status         types.EventStatus
	Trigger        types.TriggerKind

	// Review audit fields, stamped at the Pending -> terminal transition
	ReviewerRole string
	ReviewNotes  string
	ReviewedAt   *time.Time

	// Best prior KB match recorded when the gap was detected
	BestKBScore float64
	BestKBMatch string

	// Set only when created via the low-confidence report path
	SourceQuestion     string
	ReportedConfidence float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GapQuery returns the text the retriever should be asked to confirm the
// gap is closed: the reported question when the event came from the
// copilot, otherwise the detected gap description.
func (e *LearningEvent) GapQuery() string {
	if e.SourceQuestion != "" {
		return e.SourceQuestion
	}
	return e.DetectedGap
}

// BaselineConfidence returns the confidence recorded before publish,
// used for the before/after improvement comparison.
func (e *LearningEvent) BaselineConfidence() float64 {
	if e.TicketNumber == "" && e.ReportedConfidence > 0 {
		return e.ReportedConfidence
	}
	return e.BestKBScore
}

// ReviewPatch carries the fields a review transition stamps onto an event
type ReviewPatch struct {
	ReviewerRole string
	ReviewNotes  string
	ReviewedAt   time.Time
	DraftSummary string
	ProposedKBID ArticleID
}

// EventListOptions filters and paginates event listings
type EventListOptions struct {
	Status   types.EventStatus // zero value means all statuses
	Page     int               // 1-based
	PageSize int
}

// Normalize applies listing defaults
func (o EventListOptions) Normalize() EventListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = 20
	}
	if o.PageSize > 100 {
		o.PageSize = 100
	}
	return o
}
