package firestore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const kbIDPrefix = "KB-SYN"

// articleDoc is the Firestore document representation of model.KBArticle
type articleDoc struct {
	ID         model.ArticleID     `firestore:"ID"`
	Title      string              `firestore:"Title"`
	Body       string              `firestore:"Body"`
	Tags       string              `firestore:"Tags"`
	Module     string              `firestore:"Module"`
	Category   string              `firestore:"Category"`
	SourceType types.ArticleSource `firestore:"SourceType"`
	Status     types.ArticleStatus `firestore:"Status"`
	CreatedAt  time.Time           `firestore:"CreatedAt"`
	UpdatedAt  time.Time           `firestore:"UpdatedAt"`
}

type counterDoc struct {
	Value int `firestore:"value"`
}

func toArticleDoc(a *model.KBArticle) *articleDoc {
	return &articleDoc{
		ID:         a.ID,
		Title:      a.Title,
		Body:       a.Body,
		Tags:       a.Tags,
		Module:     a.Module,
		Category:   a.Category,
		SourceType: a.SourceType,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func fromArticleDoc(d *articleDoc) *model.KBArticle {
	return &model.KBArticle{
		ID:         d.ID,
		Title:      d.Title,
		Body:       d.Body,
		Tags:       d.Tags,
		Module:     d.Module,
		Category:   d.Category,
		SourceType: d.SourceType,
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func docToArticle(doc *firestore.DocumentSnapshot) (*model.KBArticle, error) {
	var d articleDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromArticleDoc(&d), nil
}

type articleRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newArticleRepository(client *firestore.Client) *articleRepository {
	return &articleRepository{client: client}
}

func (r *articleRepository) collection() *firestore.CollectionRef {
	name := "kb_articles"
	if r.collectionPrefix != "" {
		name = r.collectionPrefix + "_" + name
	}
	return r.client.Collection(name)
}

func (r *articleRepository) countersCollection() *firestore.CollectionRef {
	name := "counters"
	if r.collectionPrefix != "" {
		name = r.collectionPrefix + "_" + name
	}
	return r.client.Collection(name)
}

func (r *articleRepository) Upsert(ctx context.Context, article *model.KBArticle) (*model.KBArticle, error) {
	if article.ID == "" {
		return nil, goerr.New("article ID is required")
	}

	now := time.Now().UTC()
	stored := *article
	stored.UpdatedAt = now

	docRef := r.collection().Doc(string(article.ID))
	existing, err := docRef.Get(ctx)
	switch {
	case err != nil && status.Code(err) != codes.NotFound:
		return nil, goerr.Wrap(err, "failed to get article", goerr.V("id", article.ID))
	case err == nil:
		prev, err := docToArticle(existing)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal article", goerr.V("id", article.ID))
		}
		stored.CreatedAt = prev.CreatedAt
	default:
		stored.CreatedAt = now
	}

	if _, err := docRef.Set(ctx, toArticleDoc(&stored)); err != nil {
		return nil, goerr.Wrap(err, "failed to save article", goerr.V("id", article.ID))
	}

	return &stored, nil
}

func (r *articleRepository) Get(ctx context.Context, id model.ArticleID) (*model.KBArticle, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "article not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get article", goerr.V("id", id))
	}

	article, err := docToArticle(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal article", goerr.V("id", id))
	}

	return article, nil
}

func (r *articleRepository) List(ctx context.Context, opts model.ArticleListOptions) ([]*model.KBArticle, int, error) {
	opts = opts.Normalize()
	search := strings.ToLower(opts.Search)

	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var matched []*model.KBArticle
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to iterate articles")
		}
		article, err := docToArticle(doc)
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to unmarshal article")
		}
		if search != "" && !articleMatches(article, search) {
			continue
		}
		matched = append(matched, article)
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
	iter := r.collection().Select().Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to iterate articles")
		}
		count++
	}

	return count, nil
}

func (r *articleRepository) Delete(ctx context.Context, id model.ArticleID) error {
	docRef := r.collection().Doc(string(id))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(types.ErrNotFound, "article not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get article", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete article", goerr.V("id", id))
	}

	return nil
}

// NextID allocates the next article ID from a counter document inside
// a transaction, so concurrent publishers never collide.
func (r *articleRepository) NextID(ctx context.Context) (model.ArticleID, error) {
	counterRef := r.countersCollection().Doc("kb_articles")

	var next int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get counter")
			}
			next = 1
			return tx.Set(counterRef, &counterDoc{Value: next})
		}

		var c counterDoc
		if err := doc.DataTo(&c); err != nil {
			return goerr.Wrap(err, "failed to unmarshal counter")
		}
		next = c.Value + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: next},
		})
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to allocate article ID")
	}

	return model.ArticleID(fmt.Sprintf("%s-%04d", kbIDPrefix, next)), nil
}
