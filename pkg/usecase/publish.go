package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/utils/errutil"
	"github.com/speare-ai/speare/pkg/utils/logging"
)

// publish turns an approved review into a published, indexed article and
// flips the event to Approved. Ordering matters: the index write must
// succeed before the status flip, so an Approved event always implies a
// retrievable article. Failures before the flip roll the article back
// and leave the event Pending.
func (l *LearningUseCase) publish(ctx context.Context, event *model.LearningEvent, req ReviewRequest, patch model.ReviewPatch) (*ReviewResult, error) {
	logger := logging.From(ctx)

	content, err := l.buildPublishContent(ctx, event, req)
	if err != nil {
		return nil, err
	}

	articleID := event.ProposedKBID
	if articleID == "" {
		articleID, err = l.uc.repo.Article().NextID(ctx)
		if err != nil {
			return nil, err
		}
	}

	article := &model.KBArticle{
		ID:         articleID,
		Title:      content.Title,
		Body:       content.Body,
		Tags:       content.Tags,
		Module:     content.Module,
		Category:   content.Category,
		SourceType: types.ArticleSourceGenerated,
		Status:     types.ArticleStatusPublished,
	}

	stored, err := l.uc.repo.Article().Upsert(ctx, article)
	if err != nil {
		return nil, err
	}

	edges := make([]model.LineageEdge, 0, len(content.Lineage))
	for _, edge := range content.Lineage {
		edge.TargetKBID = articleID
		edges = append(edges, edge)
	}
	if err := l.uc.repo.Lineage().Append(ctx, edges); err != nil {
		l.rollback(ctx, articleID)
		return nil, goerr.Wrap(types.ErrPublishConsistency, "failed to record lineage",
			goerr.V("article_id", articleID),
			goerr.V("cause", err.Error()))
	}

	before := event.BaselineConfidence()

	if err := l.uc.index.Index(ctx, &interfaces.IndexDocument{
		ID:      string(articleID),
		DocType: types.DocTypeKBArticle,
		Title:   stored.Title,
		Content: stored.IndexText(),
	}); err != nil {
		l.rollback(ctx, articleID)
		return nil, goerr.Wrap(types.ErrPublishConsistency, "failed to index article",
			goerr.V("article_id", articleID),
			goerr.V("event_id", event.ID),
			goerr.V("cause", err.Error()))
	}

	patch.DraftSummary = stored.Title
	patch.ProposedKBID = articleID

	decided, err := l.uc.repo.Event().Transition(ctx, event.ID, types.EventStatusPending, types.EventStatusApproved, patch)
	if err != nil {
		// Whether a concurrent decision won or the store failed, the
		// event is not Approved, so withdraw the article. The stale
		// index entry is overwritten on the next publish of this ID.
		l.rollback(ctx, articleID)
		if errors.Is(err, types.ErrStaleState) {
			return nil, err
		}
		return nil, goerr.Wrap(types.ErrPublishConsistency, "failed to record review decision",
			goerr.V("article_id", articleID),
			goerr.V("event_id", event.ID),
			goerr.V("cause", err.Error()))
	}

	improvement := l.measureImprovement(ctx, decided, before)

	total, err := l.uc.repo.Article().Count(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info("article published",
		"event_id", decided.ID,
		"article_id", articleID,
		"kb_total", total)

	return &ReviewResult{
		Event:                 decided,
		ArticleID:             articleID,
		ConfidenceImprovement: improvement,
		KBTotalAfter:          total,
	}, nil
}

// rollback removes the article and its lineage after a failed publish.
// Rollback errors are logged, not returned; the original failure is the
// one the caller needs to see.
func (l *LearningUseCase) rollback(ctx context.Context, articleID model.ArticleID) {
	if err := l.uc.repo.Lineage().DeleteByArticle(ctx, articleID); err != nil {
		errutil.Handle(ctx, err, "failed to roll back lineage")
	}
	if err := l.uc.repo.Article().Delete(ctx, articleID); err != nil && !errors.Is(err, types.ErrNotFound) {
		errutil.Handle(ctx, err, "failed to roll back article")
	}
}

// measureImprovement re-runs the gap query against the KB after
// indexing. A failed re-retrieval degrades to a nil delta rather than
// failing the publish.
func (l *LearningUseCase) measureImprovement(ctx context.Context, event *model.LearningEvent, before float64) *model.ConfidenceImprovement {
	query := event.GapQuery()
	if query == "" {
		return nil
	}

	coverage, err := l.uc.retriever.CheckKBCoverage(ctx, query)
	if err != nil {
		errutil.Handle(ctx, err, "failed to measure confidence improvement")
		return nil
	}

	after := coverage.Confidence
	return &model.ConfidenceImprovement{
		Before: before,
		After:  after,
		Delta:  after - before,
		Explanation: fmt.Sprintf("KB coverage for the original gap moved from %.0f%% to %.0f%% after publishing %s",
			before*100, after*100, event.ProposedKBID),
	}
}
