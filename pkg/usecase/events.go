package usecase

import (
	"context"

	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

// EventListing is a page of learning events with the status breakdown
type EventListing struct {
	Events       []*model.LearningEvent
	Total        int
	StatusCounts map[types.EventStatus]int
}

// ListEvents returns a filtered page of learning events
func (l *LearningUseCase) ListEvents(ctx context.Context, opts model.EventListOptions) (*EventListing, error) {
	events, total, err := l.uc.repo.Event().List(ctx, opts)
	if err != nil {
		return nil, err
	}

	counts, err := l.uc.repo.Event().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &EventListing{
		Events:       events,
		Total:        total,
		StatusCounts: counts,
	}, nil
}

// GetEvent returns one learning event by ID
func (l *LearningUseCase) GetEvent(ctx context.Context, id model.EventID) (*model.LearningEvent, error) {
	return l.uc.repo.Event().Get(ctx, id)
}
