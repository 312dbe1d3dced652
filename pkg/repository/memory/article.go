package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

const kbIDPrefix = "KB-SYN"

type articleRepository struct {
	mu       sync.RWMutex
	articles map[model.ArticleID]*model.KBArticle
	sequence int
}

func newArticleRepository() *articleRepository {
	return &articleRepository{
		articles: make(map[model.ArticleID]*model.KBArticle),
	}
}

func copyArticle(a *model.KBArticle) *model.KBArticle {
	copied := *a
	return &copied
}

func (r *articleRepository) Upsert(ctx context.Context, article *model.KBArticle) (*model.KBArticle, error) {
	if article.ID == "" {
		return nil, goerr.New("article ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := copyArticle(article)
	if existing, ok := r.articles[article.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.articles[stored.ID] = stored
	return copyArticle(stored), nil
}

func (r *articleRepository) Get(ctx context.Context, id model.ArticleID) (*model.KBArticle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	article, exists := r.articles[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "article not found", goerr.V("id", id))
	}

	return copyArticle(article), nil
}

func (r *articleRepository) List(ctx context.Context, opts model.ArticleListOptions) ([]*model.KBArticle, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts = opts.Normalize()
	search := strings.ToLower(opts.Search)

	var matched []*model.KBArticle
	for _, a := range r.articles {
		if search != "" && !articleMatches(a, search) {
			continue
		}
		matched = append(matched, copyArticle(a))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := (opts.Page - 1) * opts.PageSize
	if start >= total {
		return []*model.KBArticle{}, total, nil
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func articleMatches(a *model.KBArticle, search string) bool {
	body := model.Truncate(a.Body, 500)
	return strings.Contains(strings.ToLower(string(a.ID)), search) ||
		strings.Contains(strings.ToLower(a.Title), search) ||
		strings.Contains(strings.ToLower(a.Module), search) ||
		strings.Contains(strings.ToLower(a.Category), search) ||
		strings.Contains(strings.ToLower(a.Tags), search) ||
		strings.Contains(strings.ToLower(body), search)
}

func (r *articleRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.articles), nil
}

func (r *articleRepository) Delete(ctx context.Context, id model.ArticleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[id]; !exists {
		return goerr.Wrap(types.ErrNotFound, "article not found", goerr.V("id", id))
	}
	delete(r.articles, id)

	return nil
}

func (r *articleRepository) NextID(ctx context.Context) (model.ArticleID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence++
	return model.ArticleID(fmt.Sprintf("%s-%04d", kbIDPrefix, r.sequence)), nil
}
