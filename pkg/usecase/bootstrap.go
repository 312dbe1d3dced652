package usecase

import (
	"context"

	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const bootstrapConcurrency = 4

// BootstrapResult reports how many documents each seeding pass indexed
type BootstrapResult struct {
	Articles int
	Scripts  int
	Tickets  int
}

// BootstrapIndex seeds the vector index from the corpus: the provided
// seed articles are persisted and indexed, and every script and ticket
// is indexed for copilot retrieval. Indexing is an upsert per document
// ID, so re-running against an already seeded index is safe.
func (k *KnowledgeUseCase) BootstrapIndex(ctx context.Context, seeds []*model.KBArticle) (*BootstrapResult, error) {
	logger := logging.From(ctx)
	result := &BootstrapResult{}

	for _, article := range seeds {
		stored, err := k.uc.repo.Article().Upsert(ctx, article)
		if err != nil {
			return nil, err
		}
		if err := k.uc.index.Index(ctx, &interfaces.IndexDocument{
			ID:      string(stored.ID),
			DocType: types.DocTypeKBArticle,
			Title:   stored.Title,
			Content: stored.IndexText(),
		}); err != nil {
			return nil, err
		}
		result.Articles++
	}

	scripts, err := k.uc.source.ListScripts(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := k.uc.source.ListAllTickets(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]*interfaces.IndexDocument, 0, len(scripts)+len(tickets))
	for _, script := range scripts {
		docs = append(docs, &interfaces.IndexDocument{
			ID:      script.ID,
			DocType: types.DocTypeScript,
			Title:   script.Title,
			Content: script.IndexText(),
		})
	}
	for _, ticket := range tickets {
		docs = append(docs, &interfaces.IndexDocument{
			ID:      ticket.Number,
			DocType: types.DocTypeTicket,
			Title:   ticket.Subject,
			Content: ticket.IndexText(),
		})
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(bootstrapConcurrency)
	for _, doc := range docs {
		eg.Go(func() error {
			return k.uc.index.Index(egCtx, doc)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	result.Scripts = len(scripts)
	result.Tickets = len(tickets)

	logger.Info("vector index seeded",
		"articles", result.Articles,
		"scripts", result.Scripts,
		"tickets", result.Tickets)

	return result, nil
}
