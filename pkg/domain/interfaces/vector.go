package interfaces

import (
	"context"

	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

// IndexDocument is one document handed to the vector index for embedding
type IndexDocument struct {
	ID      string
	DocType types.DocType
	Title   string
	Content string
}

// VectorIndex is the external nearest-neighbor service. The retriever
// reads from it, the publish step writes to it; nothing else touches it.
type VectorIndex interface {
	// Index embeds and stores one document in its doc-type collection.
	// The write is an upsert keyed by document ID and must be durable
	// before Index returns.
	Index(ctx context.Context, doc *IndexDocument) error

	// Search returns up to limit hits from one collection, ranked by
	// similarity descending. An empty collection yields no hits, not an
	// error.
	Search(ctx context.Context, query string, collection types.DocType, limit int) ([]*model.SearchHit, error)

	// Count returns the number of documents in a collection
	Count(ctx context.Context, collection types.DocType) (int, error)
}
