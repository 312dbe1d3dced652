package interfaces

import (
	"context"

	"github.com/speare-ai/speare/pkg/domain/model"
)

// ArticleRepository persists knowledge-base articles. Publish is the
// only writer of generated articles.
type ArticleRepository interface {
	// Upsert writes an article keyed by its ID. Re-upserting the same ID
	// replaces the record, which makes a failed publish retry-safe.
	Upsert(ctx context.Context, article *model.KBArticle) (*model.KBArticle, error)

	// Get retrieves an article by ID, types.ErrNotFound when absent
	Get(ctx context.Context, id model.ArticleID) (*model.KBArticle, error)

	// List retrieves articles with optional substring search and
	// pagination. Returns the page, total matching count, and an error.
	List(ctx context.Context, opts model.ArticleListOptions) ([]*model.KBArticle, int, error)

	// Count returns the total number of articles
	Count(ctx context.Context) (int, error)

	// Delete removes an article. Used only to roll back a failed publish.
	Delete(ctx context.Context, id model.ArticleID) error

	// NextID reserves the next "KB-SYN-NNNN" identifier. Safe under
	// concurrent callers.
	NextID(ctx context.Context) (model.ArticleID, error)
}
