package usecase

import (
	"context"

	"github.com/speare-ai/speare/pkg/domain/types"
)

// Stats is a snapshot of the corpus, the KB and the learning loop
type Stats struct {
	Tickets        int
	ResolvedTier3  int
	AvgTier        float64
	Conversations  int
	Scripts        int
	Articles       int
	Events         int
	EventsByStatus map[types.EventStatus]int
	IndexedByType  map[types.DocType]int
}

// Stats aggregates counts across the ticket corpus, the article store,
// the event log and the vector index.
func (k *KnowledgeUseCase) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		IndexedByType: make(map[types.DocType]int),
	}

	tickets, err := k.uc.source.ListAllTickets(ctx)
	if err != nil {
		return nil, err
	}
	stats.Tickets = len(tickets)
	var tierSum int
	for _, t := range tickets {
		tierSum += t.Tier
		if t.IsResolvedTier3() {
			stats.ResolvedTier3++
		}
	}
	if stats.Tickets > 0 {
		stats.AvgTier = float64(tierSum) / float64(stats.Tickets)
	}

	stats.Conversations, err = k.uc.source.CountConversations(ctx)
	if err != nil {
		return nil, err
	}

	scripts, err := k.uc.source.ListScripts(ctx)
	if err != nil {
		return nil, err
	}
	stats.Scripts = len(scripts)

	stats.Articles, err = k.uc.repo.Article().Count(ctx)
	if err != nil {
		return nil, err
	}

	stats.EventsByStatus, err = k.uc.repo.Event().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range stats.EventsByStatus {
		stats.Events += n
	}

	for _, docType := range types.AllDocTypes() {
		count, err := k.uc.index.Count(ctx, docType)
		if err != nil {
			return nil, err
		}
		stats.IndexedByType[docType] = count
	}

	return stats, nil
}
