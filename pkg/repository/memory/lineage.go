package memory

import (
	"context"
	"sync"

	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

type lineageKey struct {
	sourceType   types.LineageSource
	sourceID     string
	targetKBID   model.ArticleID
	relationship types.Relationship
}

type lineageRepository struct {
	mu    sync.RWMutex
	edges []model.LineageEdge
	seen  map[lineageKey]bool
}

func newLineageRepository() *lineageRepository {
	return &lineageRepository{
		seen: make(map[lineageKey]bool),
	}
}

func keyOf(e model.LineageEdge) lineageKey {
	return lineageKey{
		sourceType:   e.SourceType,
		sourceID:     e.SourceID,
		targetKBID:   e.TargetKBID,
		relationship: e.Relationship,
	}
}

func (r *lineageRepository) Append(ctx context.Context, edges []model.LineageEdge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range edges {
		if e.SourceID == "" || e.TargetKBID == "" {
			continue
		}
		k := keyOf(e)
		if r.seen[k] {
			continue
		}
		r.edges = append(r.edges, e)
		r.seen[k] = true
	}

	return nil
}

func (r *lineageRepository) ListByArticle(ctx context.Context, articleID model.ArticleID) ([]model.LineageEdge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []model.LineageEdge
	for _, e := range r.edges {
		if e.TargetKBID == articleID {
			result = append(result, e)
		}
	}

	return result, nil
}

func (r *lineageRepository) DeleteByArticle(ctx context.Context, articleID model.ArticleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.edges[:0]
	for _, e := range r.edges {
		if e.TargetKBID == articleID {
			delete(r.seen, keyOf(e))
			continue
		}
		kept = append(kept, e)
	}
	r.edges = kept

	return nil
}
