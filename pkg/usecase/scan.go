package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/utils/logging"
)

// ScanResult summarizes one gap-scan pass over the resolved tickets
type ScanResult struct {
	GapsScanned  int
	NewGapsFound int
	Skipped      int
	TotalEvents  int
	NewEvents    []*model.LearningEvent
}

// ScanGaps iterates all resolved Tier-3+ tickets and creates a Pending
// learning event for each one the KB does not cover. Tickets that
// already produced an event, in any state, are skipped; per-ticket
// retrieval failures are logged and counted but never abort the batch.
// Cancellation between tickets returns the progress made so far.
func (l *LearningUseCase) ScanGaps(ctx context.Context) (*ScanResult, error) {
	logger := logging.From(ctx)

	tickets, err := l.uc.source.ListResolvedTier3(ctx)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{}
	threshold := l.uc.retriever.GapThreshold()

	for _, ticket := range tickets {
		if ctx.Err() != nil {
			logger.Warn("gap scan cancelled", "scanned", result.GapsScanned)
			break
		}

		seen, err := l.uc.repo.Event().HasEventForTicket(ctx, ticket.Number)
		if err != nil {
			return nil, err
		}
		if seen {
			result.Skipped++
			continue
		}

		result.GapsScanned++

		coverage, err := l.uc.retriever.CheckKBCoverage(ctx, ticket.GapQuery())
		if err != nil {
			logger.Warn("gap check failed, skipping ticket",
				"ticket_number", ticket.Number,
				"error", err)
			result.Skipped++
			continue
		}

		if !coverage.IsBelowThreshold {
			continue
		}

		subject := model.Truncate(ticket.Subject, 100)

		event := &model.LearningEvent{
			TicketNumber:   ticket.Number,
			DetectedGap:    fmt.Sprintf("No KB match above %.0f%% for: %s", threshold*100, subject),
			Status:         types.EventStatusPending,
			Trigger:        types.TriggerScan,
			BestKBScore:    coverage.Confidence,
			SourceQuestion: ticket.GapQuery(),
		}
		if coverage.TopMatch != nil {
			event.BestKBMatch = coverage.TopMatch.ID
		}
		conv, err := l.uc.source.GetConversation(ctx, ticket.Number)
		if err != nil {
			return nil, err
		}
		if conv != nil {
			event.ConversationID = conv.ID
		}

		created, err := l.uc.repo.Event().Create(ctx, event)
		if err != nil {
			// A concurrent scan or report got there first
			if errors.Is(err, types.ErrDuplicatePending) {
				result.Skipped++
				continue
			}
			return nil, err
		}

		result.NewGapsFound++
		result.NewEvents = append(result.NewEvents, created)
	}

	counts, err := l.uc.repo.Event().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range counts {
		result.TotalEvents += n
	}

	logger.Info("gap scan finished",
		"scanned", result.GapsScanned,
		"new_gaps", result.NewGapsFound,
		"skipped", result.Skipped,
		"total_events", result.TotalEvents)

	return result, nil
}
