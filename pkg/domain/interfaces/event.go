package interfaces

import (
	"context"

	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

// EventRepository is the system of record for learning events. It
// exclusively owns LearningEvent mutation.
type EventRepository interface {
	// Create persists a new event. When the event carries a ticket
	// number and a Pending event for that ticket already exists, it
	// fails with types.ErrDuplicatePending. The check and the write are
	// atomic, not read-then-write.
	Create(ctx context.Context, ev *model.LearningEvent) (*model.LearningEvent, error)

	// Get retrieves an event by ID, types.ErrNotFound when absent
	Get(ctx context.Context, id model.EventID) (*model.LearningEvent, error)

	// List retrieves events with optional status filter and pagination.
	// Returns the page, the total matching count, and an error.
	List(ctx context.Context, opts model.EventListOptions) ([]*model.LearningEvent, int, error)

	// CountByStatus returns event counts per status
	CountByStatus(ctx context.Context) (map[types.EventStatus]int, error)

	// HasEventForTicket reports whether any event, pending or terminal,
	// exists for the ticket number. Dedup key of the gap scanner.
	HasEventForTicket(ctx context.Context, ticketNumber string) (bool, error)

	// Transition atomically moves an event from the expected status to
	// the next one, stamping the patch fields. When the observed status
	// differs from the expected one it fails with types.ErrStaleState
	// and leaves the event unchanged.
	Transition(ctx context.Context, id model.EventID, from, to types.EventStatus, patch model.ReviewPatch) (*model.LearningEvent, error)
}
