package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

type eventRepository struct {
	mu     sync.RWMutex
	events map[model.EventID]*model.LearningEvent
}

func newEventRepository() *eventRepository {
	return &eventRepository{
		events: make(map[model.EventID]*model.LearningEvent),
	}
}

// copyEvent creates a deep copy of a learning event
func copyEvent(e *model.LearningEvent) *model.LearningEvent {
	copied := *e
	if e.ReviewedAt != nil {
		t := *e.ReviewedAt
		copied.ReviewedAt = &t
	}
	return &copied
}

func (r *eventRepository) Create(ctx context.Context, ev *model.LearningEvent) (*model.LearningEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Dedup check and insert happen under one lock so two concurrent
	// creators for the same ticket cannot both succeed.
	if ev.TicketNumber != "" {
		for _, existing := range r.events {
			if existing.TicketNumber == ev.TicketNumber && existing.Status == types.EventStatusPending {
				return nil, goerr.Wrap(types.ErrDuplicatePending, "event already pending",
					goerr.V("ticket_number", ev.TicketNumber),
					goerr.V("existing_event_id", existing.ID))
			}
		}
	}

	now := time.Now().UTC()
	created := copyEvent(ev)
	if created.ID == "" {
		created.ID = model.NewEventID()
	}
	if created.Status == "" {
		created.Status = types.EventStatusPending
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.events[created.ID] = created
	return copyEvent(created), nil
}

func (r *eventRepository) Get(ctx context.Context, id model.EventID) (*model.LearningEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, exists := r.events[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "event not found", goerr.V("id", id))
	}

	return copyEvent(ev), nil
}

func (r *eventRepository) List(ctx context.Context, opts model.EventListOptions) ([]*model.LearningEvent, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts = opts.Normalize()

	var matched []*model.LearningEvent
	for _, ev := range r.events {
		if opts.Status != "" && ev.Status != opts.Status {
			continue
		}
		matched = append(matched, copyEvent(ev))
	}

	// Newest first, ID as tie-break for a stable order
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := (opts.Page - 1) * opts.PageSize
	if start >= total {
		return []*model.LearningEvent{}, total, nil
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (r *eventRepository) CountByStatus(ctx context.Context) (map[types.EventStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[types.EventStatus]int, len(types.AllEventStatuses()))
	for _, status := range types.AllEventStatuses() {
		counts[status] = 0
	}
	for _, ev := range r.events {
		counts[ev.Status]++
	}

	return counts, nil
}

func (r *eventRepository) HasEventForTicket(ctx context.Context, ticketNumber string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ev := range r.events {
		if ev.TicketNumber == ticketNumber {
			return true, nil
		}
	}

	return false, nil
}

func (r *eventRepository) Transition(ctx context.Context, id model.EventID, from, to types.EventStatus, patch model.ReviewPatch) (*model.LearningEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, exists := r.events[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "event not found", goerr.V("id", id))
	}

	if ev.Status != from {
		return nil, goerr.Wrap(types.ErrStaleState, "unexpected event status",
			goerr.V("id", id),
			goerr.V("expected", from),
			goerr.V("observed", ev.Status))
	}

	ev.Status = to
	ev.ReviewerRole = patch.ReviewerRole
	ev.ReviewNotes = patch.ReviewNotes
	reviewedAt := patch.ReviewedAt
	ev.ReviewedAt = &reviewedAt
	if patch.DraftSummary != "" {
		ev.DraftSummary = patch.DraftSummary
	}
	if patch.ProposedKBID != "" {
		ev.ProposedKBID = patch.ProposedKBID
	}
	ev.UpdatedAt = time.Now().UTC()

	return copyEvent(ev), nil
}
