package retriever_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/service/retriever"
)

// stubIndex serves canned hits per collection and can fail a number of
// times before succeeding.
type stubIndex struct {
	hits      map[types.DocType][]*model.SearchHit
	failures  int
	callCount int
}

func (s *stubIndex) Index(ctx context.Context, doc *interfaces.IndexDocument) error {
	return nil
}

func (s *stubIndex) Search(ctx context.Context, query string, collection types.DocType, limit int) ([]*model.SearchHit, error) {
	s.callCount++
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("index unavailable")
	}
	hits := s.hits[collection]
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *stubIndex) Count(ctx context.Context, collection types.DocType) (int, error) {
	return len(s.hits[collection]), nil
}

// ----- mock LLM client -----

type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"mock answer"}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func kbHit(id string, score float64) *model.SearchHit {
	return &model.SearchHit{
		ID:      id,
		DocType: types.DocTypeKBArticle,
		Title:   "Article " + id,
		Snippet: "snippet for " + id,
		Score:   score,
	}
}

func TestRetrieveAboveThreshold(t *testing.T) {
	idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{
		types.DocTypeKBArticle: {kbHit("KB-0001", 0.72), kbHit("KB-0002", 0.40)},
	}}
	svc, err := retriever.New(idx)
	gt.NoError(t, err).Required()

	result, err := svc.Retrieve(context.Background(), "vpn dns", []types.DocType{types.DocTypeKBArticle}, 0.50, 5)
	gt.NoError(t, err).Required()

	gt.Value(t, result.TopMatch.ID).Equal("KB-0001")
	gt.Value(t, result.Confidence).Equal(0.72)
	gt.Value(t, result.AnswerType).Equal(types.AnswerTypeKB)
	gt.Bool(t, result.IsBelowThreshold).False()
	gt.Value(t, result.SourcesSearched).Equal(2)
}

func TestRetrieveBelowThreshold(t *testing.T) {
	idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{
		types.DocTypeKBArticle: {kbHit("KB-0001", 0.28)},
	}}
	svc, err := retriever.New(idx)
	gt.NoError(t, err).Required()

	result, err := svc.Retrieve(context.Background(), "unknown topic", []types.DocType{types.DocTypeKBArticle}, 0.35, 1)
	gt.NoError(t, err).Required()

	gt.Bool(t, result.IsBelowThreshold).True()
	gt.Value(t, result.Confidence).Equal(0.28)
	gt.Value(t, result.TopMatch.ID).Equal("KB-0001")
}

func TestRetrieveNoMatch(t *testing.T) {
	t.Run("empty collections", func(t *testing.T) {
		idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{}}
		svc, err := retriever.New(idx)
		gt.NoError(t, err).Required()

		result, err := svc.Retrieve(context.Background(), "anything", types.AllDocTypes(), 0.50, 5)
		gt.NoError(t, err).Required()

		gt.Value(t, result.AnswerType).Equal(types.AnswerTypeNoMatch)
		gt.Bool(t, result.TopMatch == nil).True()
		gt.Value(t, result.Confidence).Equal(0.0)
		gt.Bool(t, result.IsBelowThreshold).True()
	})

	t.Run("nothing clears the floor", func(t *testing.T) {
		idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{
			types.DocTypeKBArticle: {kbHit("KB-0001", 0.02)},
		}}
		svc, err := retriever.New(idx)
		gt.NoError(t, err).Required()

		result, err := svc.Retrieve(context.Background(), "noise", []types.DocType{types.DocTypeKBArticle}, 0.50, 5)
		gt.NoError(t, err).Required()

		gt.Value(t, result.AnswerType).Equal(types.AnswerTypeNoMatch)
		gt.Bool(t, result.TopMatch == nil).True()
	})
}

func TestRetrieveTieBreakIsDeterministic(t *testing.T) {
	idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{
		types.DocTypeKBArticle: {kbHit("KB-0009", 0.60)},
		types.DocTypeScript: {
			{ID: "KB-0001", DocType: types.DocTypeScript, Title: "s", Score: 0.60},
		},
	}}
	svc, err := retriever.New(idx)
	gt.NoError(t, err).Required()

	// Equal scores resolve by document ID ascending
	for i := 0; i < 5; i++ {
		result, err := svc.Retrieve(context.Background(), "tied", []types.DocType{types.DocTypeKBArticle, types.DocTypeScript}, 0.50, 5)
		gt.NoError(t, err).Required()
		gt.Value(t, result.TopMatch.ID).Equal("KB-0001")
	}
}

func TestRetrieveRetriesTransientFailures(t *testing.T) {
	idx := &stubIndex{
		failures: 2,
		hits: map[types.DocType][]*model.SearchHit{
			types.DocTypeKBArticle: {kbHit("KB-0001", 0.80)},
		},
	}
	svc, err := retriever.New(idx)
	gt.NoError(t, err).Required()

	result, err := svc.Retrieve(context.Background(), "flaky", []types.DocType{types.DocTypeKBArticle}, 0.50, 1)
	gt.NoError(t, err).Required()
	gt.Value(t, result.TopMatch.ID).Equal("KB-0001")
	gt.Value(t, idx.callCount).Equal(3)
}

func TestRetrieveExhaustedRetries(t *testing.T) {
	idx := &stubIndex{failures: 100}
	svc, err := retriever.New(idx)
	gt.NoError(t, err).Required()

	_, err = svc.Retrieve(context.Background(), "down", []types.DocType{types.DocTypeKBArticle}, 0.50, 1)
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrRetrieval)).True()
}

func TestCheckKBCoverageUsesGapThreshold(t *testing.T) {
	idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{
		types.DocTypeKBArticle: {kbHit("KB-0001", 0.30)},
	}}
	svc, err := retriever.New(idx, retriever.WithGapThreshold(0.35))
	gt.NoError(t, err).Required()

	result, err := svc.CheckKBCoverage(context.Background(), "gap query")
	gt.NoError(t, err).Required()

	gt.Value(t, result.Threshold).Equal(0.35)
	gt.Bool(t, result.IsBelowThreshold).True()
	gt.Value(t, result.TopMatch.ID).Equal("KB-0001")
}

func TestAnswerFallbackWithoutLLM(t *testing.T) {
	idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{
		types.DocTypeKBArticle: {kbHit("KB-0001", 0.66)},
	}}
	svc, err := retriever.New(idx)
	gt.NoError(t, err).Required()

	answer, err := svc.Answer(context.Background(), "how to reset sessions", true, false, false)
	gt.NoError(t, err).Required()

	gt.Value(t, answer.AnswerType).Equal(types.AnswerTypeKB)
	gt.Value(t, answer.Confidence).Equal(0.66)
	gt.Array(t, answer.Sources).Length(1)
	gt.Bool(t, strings.Contains(answer.Answer, "KB-0001")).True()
	gt.Bool(t, strings.Contains(answer.Answer, "Best match")).True()
}

func TestAnswerWithLLM(t *testing.T) {
	idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{
		types.DocTypeKBArticle: {kbHit("KB-0001", 0.66)},
		types.DocTypeScript: {
			{ID: "SCRIPT-01", DocType: types.DocTypeScript, Title: "Reset", Snippet: "resets things", Score: 0.44},
		},
	}}

	var prompt string
	llm := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					if text, ok := input[0].(gollem.Text); ok {
						prompt = string(text)
					}
					return &gollem.Response{Texts: []string{"Run SCRIPT-01 with the tenant ID."}}, nil
				},
			}, nil
		},
	}

	svc, err := retriever.New(idx, retriever.WithLLMClient(llm))
	gt.NoError(t, err).Required()

	answer, err := svc.Answer(context.Background(), "how do I reset replication", true, true, false)
	gt.NoError(t, err).Required()

	gt.Value(t, answer.Answer).Equal("Run SCRIPT-01 with the tenant ID.")
	gt.Array(t, answer.Sources).Length(2)
	gt.Value(t, answer.Sources[0].ID).Equal("KB-0001")
	gt.Bool(t, strings.Contains(prompt, "how do I reset replication")).True()
	gt.Bool(t, strings.Contains(prompt, "KB-0001")).True()
	gt.Bool(t, strings.Contains(prompt, "SCRIPT-01")).True()
}

func TestAnswerNoMatch(t *testing.T) {
	idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{}}
	svc, err := retriever.New(idx, retriever.WithLLMClient(&mockLLMClient{}))
	gt.NoError(t, err).Required()

	answer, err := svc.Answer(context.Background(), "completely unknown", true, true, true)
	gt.NoError(t, err).Required()

	gt.Value(t, answer.AnswerType).Equal(types.AnswerTypeNoMatch)
	gt.Value(t, answer.Confidence).Equal(0.0)
	gt.Array(t, answer.Sources).Length(0)
	gt.Bool(t, strings.Contains(answer.Answer, "escalate")).True()
}

func TestAnswerLLMFailure(t *testing.T) {
	idx := &stubIndex{hits: map[types.DocType][]*model.SearchHit{
		types.DocTypeKBArticle: {kbHit("KB-0001", 0.66)},
	}}
	llm := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return nil, errors.New("model overloaded")
				},
			}, nil
		},
	}
	svc, err := retriever.New(idx, retriever.WithLLMClient(llm))
	gt.NoError(t, err).Required()

	_, err = svc.Answer(context.Background(), "anything", true, false, false)
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, types.ErrGeneration)).True()
}
