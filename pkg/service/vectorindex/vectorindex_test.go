package vectorindex_test

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/service/vectorindex"
)

// wordHashEmbedding is a deterministic embedding built from hashed
// bag-of-words, so texts sharing vocabulary score higher cosine
// similarity without any model behind it.
func wordHashEmbedding(ctx context.Context, text string) ([]float32, error) {
	const dim = 64
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

func newTestIndex(t *testing.T) *vectorindex.Index {
	t.Helper()
	idx, err := vectorindex.New(vectorindex.WithEmbeddingFunc(wordHashEmbedding))
	gt.NoError(t, err).Required()
	return idx
}

func TestSearchEmptyCollection(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	hits, err := idx.Search(ctx, "password reset", types.DocTypeKBArticle, 5)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(0)
}

func TestIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := []*interfaces.IndexDocument{
		{
			ID:      "KB-0001",
			DocType: types.DocTypeKBArticle,
			Title:   "VPN split tunneling",
			Content: "vpn split tunneling breaks internal dns resolution on managed laptops",
		},
		{
			ID:      "KB-0002",
			DocType: types.DocTypeKBArticle,
			Title:   "Invoice export timeout",
			Content: "billing invoice export times out for large date ranges",
		},
	}
	for _, doc := range docs {
		gt.NoError(t, idx.Index(ctx, doc)).Required()
	}

	hits, err := idx.Search(ctx, "vpn dns resolution broken", types.DocTypeKBArticle, 5)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(2)
	gt.Value(t, hits[0].ID).Equal("KB-0001")
	gt.Value(t, hits[0].DocType).Equal(types.DocTypeKBArticle)
	gt.Value(t, hits[0].Title).Equal("VPN split tunneling")
	gt.Bool(t, hits[0].Score > 0).True()

	// Ranked descending
	for i := 1; i < len(hits); i++ {
		gt.Bool(t, hits[i-1].Score >= hits[i].Score).True()
	}
}

func TestIndexIsUpsert(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	doc := &interfaces.IndexDocument{
		ID:      "KB-0001",
		DocType: types.DocTypeKBArticle,
		Title:   "Old title",
		Content: "old content about nothing",
	}
	gt.NoError(t, idx.Index(ctx, doc)).Required()

	doc.Title = "New title"
	doc.Content = "fresh content about session timeouts"
	gt.NoError(t, idx.Index(ctx, doc)).Required()

	count, err := idx.Count(ctx, types.DocTypeKBArticle)
	gt.NoError(t, err).Required()
	gt.Value(t, count).Equal(1)

	hits, err := idx.Search(ctx, "session timeouts", types.DocTypeKBArticle, 1)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(1)
	gt.Value(t, hits[0].Title).Equal("New title")
}

func TestCollectionsAreIsolated(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	gt.NoError(t, idx.Index(ctx, &interfaces.IndexDocument{
		ID:      "SCRIPT-01",
		DocType: types.DocTypeScript,
		Title:   "Reset replication",
		Content: "resets database replication for a tenant",
	})).Required()

	hits, err := idx.Search(ctx, "database replication", types.DocTypeKBArticle, 5)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(0)

	hits, err = idx.Search(ctx, "database replication", types.DocTypeScript, 5)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(1)
	gt.Value(t, hits[0].ID).Equal("SCRIPT-01")
}

func TestSearchLimitCappedAtCollectionSize(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	gt.NoError(t, idx.Index(ctx, &interfaces.IndexDocument{
		ID:      "TK-1001",
		DocType: types.DocTypeTicket,
		Title:   "TK-1001",
		Content: "user cannot log in after password rotation",
	})).Required()

	hits, err := idx.Search(ctx, "login failure", types.DocTypeTicket, 10)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(1)
}

func TestSnippetIsCapped(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	long := strings.Repeat("word ", 300)
	gt.NoError(t, idx.Index(ctx, &interfaces.IndexDocument{
		ID:      "KB-0003",
		DocType: types.DocTypeKBArticle,
		Title:   "Long body",
		Content: long,
	})).Required()

	hits, err := idx.Search(ctx, "word", types.DocTypeKBArticle, 1)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(1)
	gt.Bool(t, len(hits[0].Snippet) <= 500).True()
}

func TestSnippetTruncationKeepsValidUTF8(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	long := "水道 " + strings.Repeat("配管の水漏れを点検する ", 120)
	gt.NoError(t, idx.Index(ctx, &interfaces.IndexDocument{
		ID:      "KB-0004",
		DocType: types.DocTypeKBArticle,
		Title:   "水漏れ対応",
		Content: long,
	})).Required()

	hits, err := idx.Search(ctx, "水道", types.DocTypeKBArticle, 1)
	gt.NoError(t, err).Required()
	gt.Array(t, hits).Length(1)
	gt.Bool(t, utf8.ValidString(hits[0].Snippet)).True()
	gt.Value(t, len([]rune(hits[0].Snippet))).Equal(500)
}
