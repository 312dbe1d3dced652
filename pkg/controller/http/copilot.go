package http

import (
	"net/http"

	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/usecase"
)

type askRequest struct {
	Question       string `json:"question"`
	IncludeKB      *bool  `json:"include_kb,omitempty"`
	IncludeScripts *bool  `json:"include_scripts,omitempty"`
	IncludeTickets *bool  `json:"include_tickets,omitempty"`
}

type askResponse struct {
	Answer     string                  `json:"answer"`
	AnswerType string                  `json:"answer_type"`
	Confidence float64                 `json:"confidence"`
	Sources    []*model.SearchHit      `json:"sources"`
	Details    model.ConfidenceDetails `json:"confidence_details"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	answer, err := s.uc.Copilot.Ask(ctx, usecase.AskRequest{
		Question:       req.Question,
		IncludeKB:      req.IncludeKB,
		IncludeScripts: req.IncludeScripts,
		IncludeTickets: req.IncludeTickets,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, askResponse{
		Answer:     answer.Answer,
		AnswerType: string(answer.AnswerType),
		Confidence: answer.Confidence,
		Sources:    answer.Sources,
		Details:    answer.Details,
	})
}

type confidenceCheckRequest struct {
	Question string `json:"question"`
}

type confidenceCheckResponse struct {
	Confidence       float64          `json:"confidence"`
	AnswerType       string           `json:"answer_type"`
	TopSource        *model.SearchHit `json:"top_source,omitempty"`
	Threshold        float64          `json:"threshold"`
	IsBelowThreshold bool             `json:"is_below_threshold"`
	SourcesSearched  int              `json:"sources_searched"`
}

func (s *Server) handleConfidenceCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req confidenceCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Copilot.CheckConfidence(ctx, req.Question)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, confidenceCheckResponse{
		Confidence:       result.Confidence,
		AnswerType:       string(result.AnswerType),
		TopSource:        result.TopMatch,
		Threshold:        result.Threshold,
		IsBelowThreshold: result.IsBelowThreshold,
		SourcesSearched:  result.SourcesSearched,
	})
}
