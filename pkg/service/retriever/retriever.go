package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/speare-ai/speare/pkg/domain/interfaces"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
)

const (
	// DefaultAskThreshold is the confidence floor for copilot answers
	DefaultAskThreshold = 0.50

	// DefaultGapThreshold is the score below which a ticket counts as a
	// knowledge gap
	DefaultGapThreshold = 0.35

	// DefaultTopK is the number of hits fetched per collection
	DefaultTopK = 5

	// matchFloor is the similarity under which a hit is noise, not a match
	matchFloor = 0.05
)

const copilotSystemPrompt = `You are an expert support copilot for property management software.
Given the user's question and relevant source documents, provide a clear, accurate answer.

Rules:
- Ground your answer ONLY in the provided sources. Do not hallucinate.
- If the answer requires a backend script, cite the script ID and explain what inputs are needed.
- If the answer comes from a KB article, cite the KB article ID.
- If unsure, say so and suggest escalation.
- Be concise and actionable.
- Format your response in clear paragraphs. Use markdown for structure.`

const noMatchAnswer = "I couldn't find relevant information for your question. Please escalate to a Tier 3 engineer."

// Service scores retrieval confidence over the vector index and
// synthesizes copilot answers. The LLM client is optional; without one,
// answers degrade to the top-match fallback.
type Service struct {
	index        interfaces.VectorIndex
	llmClient    gollem.LLMClient
	askThreshold float64
	gapThreshold float64
	topK         int
	maxAttempts  int
	baseBackoff  time.Duration
}

type Option func(*Service)

// WithLLMClient enables LLM answer synthesis
func WithLLMClient(llmClient gollem.LLMClient) Option {
	return func(s *Service) {
		s.llmClient = llmClient
	}
}

// WithAskThreshold overrides the copilot confidence threshold
func WithAskThreshold(threshold float64) Option {
	return func(s *Service) {
		s.askThreshold = threshold
	}
}

// WithGapThreshold overrides the gap detection threshold
func WithGapThreshold(threshold float64) Option {
	return func(s *Service) {
		s.gapThreshold = threshold
	}
}

// WithTopK overrides the per-collection result count
func WithTopK(k int) Option {
	return func(s *Service) {
		s.topK = k
	}
}

func New(index interfaces.VectorIndex, opts ...Option) (*Service, error) {
	if index == nil {
		return nil, goerr.New("vector index is required")
	}

	s := &Service{
		index:        index,
		askThreshold: DefaultAskThreshold,
		gapThreshold: DefaultGapThreshold,
		topK:         DefaultTopK,
		maxAttempts:  defaultMaxAttempts,
		baseBackoff:  defaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.askThreshold <= 0 || s.askThreshold > 1 {
		return nil, goerr.New("ask threshold must be in (0, 1]", goerr.V("threshold", s.askThreshold))
	}
	if s.gapThreshold <= 0 || s.gapThreshold > 1 {
		return nil, goerr.New("gap threshold must be in (0, 1]", goerr.V("threshold", s.gapThreshold))
	}
	if s.topK < 1 {
		return nil, goerr.New("top-k must be at least 1", goerr.V("top_k", s.topK))
	}

	return s, nil
}

// AskThreshold returns the configured copilot confidence threshold
func (s *Service) AskThreshold() float64 {
	return s.askThreshold
}

// GapThreshold returns the configured gap detection threshold
func (s *Service) GapThreshold() float64 {
	return s.gapThreshold
}

// Retrieve searches the given collections, merges the hits and scores
// confidence against the threshold. The merged order is deterministic:
// score descending, document ID ascending on ties.
func (s *Service) Retrieve(ctx context.Context, query string, collections []types.DocType, threshold float64, limit int) (*model.ConfidenceResult, error) {
	hits, err := s.search(ctx, query, collections, limit)
	if err != nil {
		return nil, err
	}

	result := &model.ConfidenceResult{
		Query:            query,
		AnswerType:       types.AnswerTypeNoMatch,
		Threshold:        threshold,
		IsBelowThreshold: true,
		SourcesSearched:  len(hits),
	}

	if len(hits) == 0 || hits[0].Score <= matchFloor {
		return result, nil
	}

	top := hits[0]
	result.TopMatch = top
	result.AnswerType = types.AnswerTypeOf(top.DocType)
	result.Confidence = top.Score
	result.IsBelowThreshold = top.Score < threshold

	return result, nil
}

// CheckKBCoverage tests whether the KB already covers a gap query. Only
// the article collection is consulted, with a single result.
func (s *Service) CheckKBCoverage(ctx context.Context, query string) (*model.ConfidenceResult, error) {
	return s.Retrieve(ctx, query, []types.DocType{types.DocTypeKBArticle}, s.gapThreshold, 1)
}

// CheckConfidence scores a question against all collections with the ask
// threshold, for the confidence-check endpoint.
func (s *Service) CheckConfidence(ctx context.Context, question string) (*model.ConfidenceResult, error) {
	return s.Retrieve(ctx, question, types.AllDocTypes(), s.askThreshold, s.topK)
}

// Answer produces a RAG answer for a support question. Collections can
// be toggled off individually.
func (s *Service) Answer(ctx context.Context, question string, includeKB, includeScripts, includeTickets bool) (*model.CopilotAnswer, error) {
	var collections []types.DocType
	if includeKB {
		collections = append(collections, types.DocTypeKBArticle)
	}
	if includeScripts {
		collections = append(collections, types.DocTypeScript)
	}
	if includeTickets {
		collections = append(collections, types.DocTypeTicket)
	}

	hits, err := s.search(ctx, question, collections, s.topK)
	if err != nil {
		return nil, err
	}

	answer := &model.CopilotAnswer{
		Answer:     noMatchAnswer,
		AnswerType: types.AnswerTypeNoMatch,
		Sources:    []*model.SearchHit{},
		Details: model.ConfidenceDetails{
			Method:           "top_match_similarity",
			Threshold:        s.askThreshold,
			SourcesSearched:  len(hits),
			IsBelowThreshold: true,
		},
	}

	if len(hits) == 0 || hits[0].Score <= matchFloor {
		return answer, nil
	}

	if len(hits) > s.topK {
		hits = hits[:s.topK]
	}
	top := hits[0]

	answer.AnswerType = types.AnswerTypeOf(top.DocType)
	answer.Confidence = top.Score
	answer.Sources = hits
	answer.Details.TopMatchScore = top.Score
	answer.Details.IsBelowThreshold = top.Score < s.askThreshold

	if s.llmClient == nil {
		answer.Answer = fallbackAnswer(hits)
		return answer, nil
	}

	text, err := s.generateAnswer(ctx, question, hits)
	if err != nil {
		return nil, err
	}
	answer.Answer = text

	return answer, nil
}

func (s *Service) generateAnswer(ctx context.Context, question string, hits []*model.SearchHit) (string, error) {
	session, err := s.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(copilotSystemPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(types.ErrGeneration, "failed to create LLM session", goerr.V("cause", err.Error()))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\nRelevant Sources:\n", question)
	for i, hit := range hits {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		fmt.Fprintf(&sb, "[Source %d] (%s) ID: %s\nTitle: %s\nContent: %s\n",
			i+1, hit.DocType, hit.ID, hit.Title, hit.Snippet)
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(sb.String()))
	if err != nil {
		return "", goerr.Wrap(types.ErrGeneration, "failed to generate answer", goerr.V("cause", err.Error()))
	}
	if len(resp.Texts) == 0 || resp.Texts[0] == "" {
		return "", goerr.Wrap(types.ErrGeneration, "LLM returned empty answer")
	}

	return resp.Texts[0], nil
}

// fallbackAnswer builds a basic answer from the top match when no LLM is
// configured.
func fallbackAnswer(hits []*model.SearchHit) string {
	top := hits[0]
	snippet := model.Truncate(top.Snippet, 1000)
	return fmt.Sprintf("**Best match** (%s): **%s**\n\nID: `%s` | Relevance: %.0f%%\n\n%s",
		top.DocType, top.Title, top.ID, top.Score*100, snippet)
}

// search fans out over the collections and merges the ranked hits
func (s *Service) search(ctx context.Context, query string, collections []types.DocType, limit int) ([]*model.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.New("query is required")
	}
	if limit < 1 {
		limit = 1
	}

	var merged []*model.SearchHit
	for _, collection := range collections {
		hits, err := s.searchWithRetry(ctx, query, collection, limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, hits...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ID < merged[j].ID
	})

	return merged, nil
}
