package interfaces

import (
	"context"

	"github.com/speare-ai/speare/pkg/domain/model"
)

// LineageRepository persists provenance edges from source records to
// generated articles.
type LineageRepository interface {
	// Append stores the given edges, silently skipping exact duplicates
	// of (source type, source ID, target article, relationship).
	Append(ctx context.Context, edges []model.LineageEdge) error

	// ListByArticle retrieves all edges pointing at the article
	ListByArticle(ctx context.Context, articleID model.ArticleID) ([]model.LineageEdge, error)

	// DeleteByArticle removes all edges for an article. Used only to
	// roll back a failed publish.
	DeleteByArticle(ctx context.Context, articleID model.ArticleID) error
}
