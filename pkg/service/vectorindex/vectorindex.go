package vectorindex

import (
	"context"
	"hash/fnv"
	"math"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/philippgille/chromem-go"
	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

const snippetLimit = 500

// collectionName maps each document type to its own chromem collection
func collectionName(d types.DocType) string {
	switch d {
	case types.DocTypeKBArticle:
		return "kb_articles"
	case types.DocTypeScript:
		return "scripts"
	case types.DocTypeTicket:
		return "tickets"
	default:
		return string(d)
	}
}

// Index is a chromem-go backed implementation of
// interfaces.VectorIndex. Each document type lives in its own
// collection so searches never mix result spaces.
type Index struct {
	db        *chromem.DB
	embedFunc chromem.EmbeddingFunc
}

var _ interfaces.VectorIndex = &Index{}

type Option func(*config)

type config struct {
	path      string
	compress  bool
	embedFunc chromem.EmbeddingFunc
}

// WithPersistentPath stores the index on disk instead of in memory
func WithPersistentPath(path string, compress bool) Option {
	return func(c *config) {
		c.path = path
		c.compress = compress
	}
}

// WithEmbeddingFunc overrides the embedding function, mainly for tests
func WithEmbeddingFunc(fn chromem.EmbeddingFunc) Option {
	return func(c *config) {
		c.embedFunc = fn
	}
}

func New(opts ...Option) (*Index, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.embedFunc == nil {
		return nil, goerr.New("embedding function is required")
	}

	var db *chromem.DB
	if cfg.path != "" {
		if err := os.MkdirAll(cfg.path, 0755); err != nil {
			return nil, goerr.Wrap(err, "failed to create index directory", goerr.V("path", cfg.path))
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.path, cfg.compress)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open persistent index", goerr.V("path", cfg.path))
		}
	} else {
		db = chromem.NewDB()
	}

	return &Index{
		db:        db,
		embedFunc: cfg.embedFunc,
	}, nil
}

// NewEmbeddingFunc adapts an LLM client into the chromem embedding
// contract.
func NewEmbeddingFunc(llmClient gollem.LLMClient) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		embeddings, err := llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate embedding")
		}
		if len(embeddings) == 0 || len(embeddings[0]) == 0 {
			return nil, goerr.New("no embedding returned")
		}

		result := make([]float32, len(embeddings[0]))
		for i, v := range embeddings[0] {
			result[i] = float32(v)
		}
		return result, nil
	}
}

// HashEmbeddingFunc embeds text as normalized hashed bag-of-words
// vectors. No model behind it; retrieval quality is word overlap only.
// Used when no Gemini project is configured so the loop stays runnable
// in development.
func HashEmbeddingFunc() chromem.EmbeddingFunc {
	const dim = 256
	return func(ctx context.Context, text string) ([]float32, error) {
		vec := make([]float32, dim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(word))
			vec[h.Sum32()%dim]++
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			vec[0] = 1
			return vec, nil
		}
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
		return vec, nil
	}
}

func (x *Index) collection(docType types.DocType) (*chromem.Collection, error) {
	collection, err := x.db.GetOrCreateCollection(collectionName(docType), nil, x.embedFunc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open collection", goerr.V("doc_type", docType))
	}
	return collection, nil
}

func (x *Index) Index(ctx context.Context, doc *interfaces.IndexDocument) error {
	if doc.ID == "" {
		return goerr.New("document ID is required")
	}
	if doc.Content == "" {
		return goerr.New("document content is required", goerr.V("id", doc.ID))
	}

	collection, err := x.collection(doc.DocType)
	if err != nil {
		return err
	}

	err = collection.AddDocuments(ctx, []chromem.Document{
		{
			ID:      doc.ID,
			Content: doc.Content,
			Metadata: map[string]string{
				"title":    doc.Title,
				"doc_type": string(doc.DocType),
			},
		},
	}, 1)
	if err != nil {
		return goerr.Wrap(err, "failed to index document",
			goerr.V("id", doc.ID),
			goerr.V("doc_type", doc.DocType))
	}

	return nil
}

func (x *Index) Search(ctx context.Context, query string, docType types.DocType, limit int) ([]*model.SearchHit, error) {
	if query == "" {
		return nil, goerr.New("query is required")
	}
	if limit < 1 {
		limit = 1
	}

	collection, err := x.collection(docType)
	if err != nil {
		return nil, err
	}

	// chromem requires nResults <= document count
	docCount := collection.Count()
	if docCount == 0 {
		return []*model.SearchHit{}, nil
	}
	if limit > docCount {
		limit = docCount
	}

	results, err := collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query collection",
			goerr.V("doc_type", docType),
			goerr.V("limit", limit))
	}

	hits := make([]*model.SearchHit, 0, len(results))
	for _, r := range results {
		snippet := model.Truncate(r.Content, snippetLimit)
		hits = append(hits, &model.SearchHit{
			ID:      r.ID,
			DocType: docType,
			Title:   r.Metadata["title"],
			Snippet: snippet,
			Score:   float64(r.Similarity),
		})
	}

	return hits, nil
}

func (x *Index) Count(ctx context.Context, docType types.DocType) (int, error) {
	collection, err := x.collection(docType)
	if err != nil {
		return 0, err
	}
	return collection.Count(), nil
}
