package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// eventDoc is the Firestore document representation of model.LearningEvent
type eventDoc struct {
	ID                 model.EventID     `firestore:"ID"`
	TicketNumber       string            `firestore:"TicketNumber"`
	ConversationID     string            `firestore:"ConversationID"`
	DetectedGap        string            `firestore:"DetectedGap"`
	ProposedKBID       model.ArticleID   `firestore:"ProposedKBID"`
	DraftSummary       string            `firestore:"DraftSummary"`
	Status             types.EventStatus `firestore:"Status"`
	Trigger            types.TriggerKind `firestore:"Trigger"`
	ReviewerRole       string            `firestore:"ReviewerRole"`
	ReviewNotes        string            `firestore:"ReviewNotes"`
	ReviewedAt         *time.Time        `firestore:"ReviewedAt"`
	BestKBScore        float64           `firestore:"BestKBScore"`
	BestKBMatch        string            `firestore:"BestKBMatch"`
	SourceQuestion     string            `firestore:"SourceQuestion"`
	ReportedConfidence float64           `firestore:"ReportedConfidence"`
	CreatedAt          time.Time         `firestore:"CreatedAt"`
	UpdatedAt          time.Time         `firestore:"UpdatedAt"`
}

// ticketMarkerDoc tracks which ticket numbers already have events. The
// PendingEventID field is the unique-constraint write that enforces at
// most one Pending event per ticket.
type ticketMarkerDoc struct {
	TicketNumber   string        `firestore:"TicketNumber"`
	PendingEventID model.EventID `firestore:"PendingEventID"`
	EventCount     int64         `firestore:"EventCount"`
}

func toEventDoc(e *model.LearningEvent) *eventDoc {
	return &eventDoc{
		ID:                 e.ID,
		TicketNumber:       e.TicketNumber,
		ConversationID:     e.ConversationID,
		DetectedGap:        e.DetectedGap,
		ProposedKBID:       e.ProposedKBID,
		DraftSummary:       e.DraftSummary,
		Status:             e.Status,
		Trigger:            e.Trigger,
		ReviewerRole:       e.ReviewerRole,
		ReviewNotes:        e.ReviewNotes,
		ReviewedAt:         e.ReviewedAt,
		BestKBScore:        e.BestKBScore,
		BestKBMatch:        e.BestKBMatch,
		SourceQuestion:     e.SourceQuestion,
		ReportedConfidence: e.ReportedConfidence,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func fromEventDoc(d *eventDoc) *model.LearningEvent {
	return &model.LearningEvent{
		ID:                 d.ID,
		TicketNumber:       d.TicketNumber,
		ConversationID:     d.ConversationID,
		DetectedGap:        d.DetectedGap,
		ProposedKBID:       d.ProposedKBID,
		DraftSummary:       d.DraftSummary,
		Status:             d.Status,
		Trigger:            d.Trigger,
		ReviewerRole:       d.ReviewerRole,
		ReviewNotes:        d.ReviewNotes,
		ReviewedAt:         d.ReviewedAt,
		BestKBScore:        d.BestKBScore,
		BestKBMatch:        d.BestKBMatch,
		SourceQuestion:     d.SourceQuestion,
		ReportedConfidence: d.ReportedConfidence,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func docToEvent(doc *firestore.DocumentSnapshot) (*model.LearningEvent, error) {
	var d eventDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromEventDoc(&d), nil
}

type eventRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEventRepository(client *firestore.Client) *eventRepository {
	return &eventRepository{client: client}
}

func (r *eventRepository) eventsCollection() *firestore.CollectionRef {
	name := "learning_events"
	if r.collectionPrefix != "" {
		name = r.collectionPrefix + "_" + name
	}
	return r.client.Collection(name)
}

func (r *eventRepository) ticketsCollection() *firestore.CollectionRef {
	name := "event_tickets"
	if r.collectionPrefix != "" {
		name = r.collectionPrefix + "_" + name
	}
	return r.client.Collection(name)
}

func (r *eventRepository) Create(ctx context.Context, ev *model.LearningEvent) (*model.LearningEvent, error) {
	now := time.Now().UTC()
	created := *ev
	if created.ID == "" {
		created.ID = model.NewEventID()
	}
	if created.Status == "" {
		created.Status = types.EventStatusPending
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	eventRef := r.eventsCollection().Doc(string(created.ID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if created.TicketNumber != "" {
			markerRef := r.ticketsCollection().Doc(created.TicketNumber)
			marker, err := tx.Get(markerRef)
			switch {
			case err != nil && status.Code(err) != codes.NotFound:
				return goerr.Wrap(err, "failed to get ticket marker")
			case err == nil:
				var m ticketMarkerDoc
				if err := marker.DataTo(&m); err != nil {
					return goerr.Wrap(err, "failed to unmarshal ticket marker")
				}
				if m.PendingEventID != "" {
					return goerr.Wrap(types.ErrDuplicatePending, "event already pending",
						goerr.V("ticket_number", created.TicketNumber),
						goerr.V("existing_event_id", m.PendingEventID))
				}
				if err := tx.Update(markerRef, []firestore.Update{
					{Path: "PendingEventID", Value: created.ID},
					{Path: "EventCount", Value: firestore.Increment(1)},
				}); err != nil {
					return goerr.Wrap(err, "failed to update ticket marker")
				}
			default:
				if err := tx.Set(markerRef, &ticketMarkerDoc{
					TicketNumber:   created.TicketNumber,
					PendingEventID: created.ID,
					EventCount:     1,
				}); err != nil {
					return goerr.Wrap(err, "failed to set ticket marker")
				}
			}
		}

		return tx.Set(eventRef, toEventDoc(&created))
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *eventRepository) Get(ctx context.Context, id model.EventID) (*model.LearningEvent, error) {
	doc, err := r.eventsCollection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "event not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get event", goerr.V("id", id))
	}

	ev, err := docToEvent(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal event", goerr.V("id", id))
	}

	return ev, nil
}

func (r *eventRepository) List(ctx context.Context, opts model.EventListOptions) ([]*model.LearningEvent, int, error) {
	opts = opts.Normalize()

	q := r.eventsCollection().Query
	if opts.Status != "" {
		q = q.Where("Status", "==", string(opts.Status))
	}
	q = q.OrderBy("CreatedAt", firestore.Desc)

	// The event population stays small enough to count by iteration;
	// pagination applies after the filtered fetch.
	iter := q.Documents(ctx)
	defer iter.Stop()

	var all []*model.LearningEvent
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to iterate events")
		}
		ev, err := docToEvent(doc)
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to unmarshal event")
		}
		all = append(all, ev)
	}

	total := len(all)
	start := (opts.Page - 1) * opts.PageSize
	if start >= total {
		return []*model.LearningEvent{}, total, nil
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}

	return all[start:end], total, nil
}

func (r *eventRepository) CountByStatus(ctx context.Context) (map[types.EventStatus]int, error) {
	counts := make(map[types.EventStatus]int, len(types.AllEventStatuses()))
	for _, st := range types.AllEventStatuses() {
		counts[st] = 0
	}

	iter := r.eventsCollection().Select("Status").Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate events")
		}
		var d struct {
			Status types.EventStatus `firestore:"Status"`
		}
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal event status")
		}
		counts[d.Status]++
	}

	return counts, nil
}

func (r *eventRepository) HasEventForTicket(ctx context.Context, ticketNumber string) (bool, error) {
	_, err := r.ticketsCollection().Doc(ticketNumber).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to get ticket marker", goerr.V("ticket_number", ticketNumber))
	}

	return true, nil
}

func (r *eventRepository) Transition(ctx context.Context, id model.EventID, from, to types.EventStatus, patch model.ReviewPatch) (*model.LearningEvent, error) {
	eventRef := r.eventsCollection().Doc(string(id))

	var updated *model.LearningEvent
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(eventRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(types.ErrNotFound, "event not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get event")
		}

		ev, err := docToEvent(doc)
		if err != nil {
			return goerr.Wrap(err, "failed to unmarshal event")
		}

		if ev.Status != from {
			return goerr.Wrap(types.ErrStaleState, "unexpected event status",
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

		if ev.TicketNumber != "" && to.IsTerminal() {
			markerRef := r.ticketsCollection().Doc(ev.TicketNumber)
			if err := tx.Update(markerRef, []firestore.Update{
				{Path: "PendingEventID", Value: ""},
			}); err != nil {
				return goerr.Wrap(err, "failed to clear pending marker")
			}
		}

		updated = ev
		return tx.Set(eventRef, toEventDoc(ev))
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
