package retriever

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/utils/logging"
)

const (
	defaultMaxAttempts = 3
	defaultBaseBackoff = 100 * time.Millisecond
)

// searchWithRetry retries transient index failures with doubling
// backoff. Exhausted retries surface as ErrRetrieval.
func (s *Service) searchWithRetry(ctx context.Context, query string, collection types.DocType, limit int) ([]*model.SearchHit, error) {
	backoff := s.baseBackoff

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, goerr.Wrap(ctx.Err(), "search cancelled", goerr.V("collection", collection))
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		hits, err := s.index.Search(ctx, query, collection, limit)
		if err == nil {
			return hits, nil
		}
		lastErr = err
		logging.From(ctx).Warn("vector search failed, retrying",
			"collection", collection,
			"attempt", attempt,
			"error", err)
	}

	return nil, goerr.Wrap(types.ErrRetrieval, "search failed after retries",
		goerr.V("collection", collection),
		goerr.V("attempts", s.maxAttempts),
		goerr.V("cause", lastErr.Error()))
}
