package model

import "github.com/speare-ai/speare/pkg/domain/types"

// EmbeddingDimension is the vector dimension for text embeddings
// (Gemini text-embedding-004 dimension)
const EmbeddingDimension = 768

// SearchHit is one ranked result from the vector index
type SearchHit struct {
	ID      string        `json:"id"`
	DocType types.DocType `json:"doc_type"`
	Title   string        `json:"title"`
	Snippet string        `json:"snippet"`
	Score   float64       `json:"score"`
}

// ConfidenceResult is the transient outcome of a confidence-scored
// retrieval: the best match across the searched collections and whether
// it clears the caller's threshold.
type ConfidenceResult struct {
	Query            string
	TopMatch         *SearchHit // nil when nothing cleared the match floor
	AnswerType       types.AnswerType
	Confidence       float64
	Threshold        float64
	IsBelowThreshold bool
	SourcesSearched  int
}

// CopilotAnswer is the full RAG answer returned to the ask endpoint
type CopilotAnswer struct {
	Answer     string
	Confidence float64
	Sources    []*SearchHit
	AnswerType types.AnswerType
	Details    ConfidenceDetails
}

// ConfidenceDetails explains how the confidence figure was produced
type ConfidenceDetails struct {
	Method           string  `json:"method"`
	Threshold        float64 `json:"threshold"`
	TopMatchScore    float64 `json:"top_match_score"`
	SourcesSearched  int     `json:"sources_searched"`
	IsBelowThreshold bool    `json:"is_below_threshold"`
}
