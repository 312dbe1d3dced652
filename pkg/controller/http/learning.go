package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/speare-ai/speare/pkg/domain/model"
	"github.com/speare-ai/speare/pkg/domain/types"
	"github.com/speare-ai/speare/pkg/usecase"
)

type scanGapsResponse struct {
	GapsScanned  int              `json:"gaps_scanned"`
	NewGapsFound int              `json:"new_gaps_found"`
	Skipped      int              `json:"skipped"`
	TotalEvents  int              `json:"total_events"`
	NewEvents    []*eventResponse `json:"new_events"`
}

func (s *Server) handleScanGaps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := s.uc.Learning.ScanGaps(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, scanGapsResponse{
		GapsScanned:  result.GapsScanned,
		NewGapsFound: result.NewGapsFound,
		Skipped:      result.Skipped,
		TotalEvents:  result.TotalEvents,
		NewEvents:    toEventResponses(result.NewEvents),
	})
}

type listEventsResponse struct {
	Events       []*eventResponse `json:"events"`
	Total        int              `json:"total"`
	StatusCounts map[string]int   `json:"status_counts"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts := model.EventListOptions{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := types.ParseEventStatus(raw)
		if err != nil {
			handleError(ctx, w, goerr.Wrap(usecase.ErrBadRequest, "invalid status filter", goerr.V("status", raw)))
			return
		}
		opts.Status = status
	}

	listing, err := s.uc.Learning.ListEvents(ctx, opts)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	counts := make(map[string]int, len(listing.StatusCounts))
	for status, n := range listing.StatusCounts {
		counts[status.String()] = n
	}

	respondJSON(ctx, w, http.StatusOK, listEventsResponse{
		Events:       toEventResponses(listing.Events),
		Total:        listing.Total,
		StatusCounts: counts,
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	event, err := s.uc.Learning.GetEvent(ctx, model.EventID(chi.URLParam(r, "eventID")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toEventResponse(event))
}

type generateDraftRequest struct {
	TicketNumber string `json:"ticket_number,omitempty"`
	EventID      string `json:"event_id,omitempty"`
	Question     string `json:"question,omitempty"`
}

type generateDraftResponse struct {
	Draft        *draftResponse        `json:"draft"`
	Event        *eventResponse        `json:"event,omitempty"`
	Ticket       *ticketResponse       `json:"ticket,omitempty"`
	Conversation *conversationResponse `json:"conversation,omitempty"`
	Script       *scriptResponse       `json:"script,omitempty"`
}

func (s *Server) handleGenerateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Learning.GenerateDraft(ctx, usecase.DraftRequest{
		TicketNumber: req.TicketNumber,
		EventID:      model.EventID(req.EventID),
		Question:     req.Question,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, generateDraftResponse{
		Draft:        toDraftResponse(result.Draft),
		Event:        toEventResponse(result.Event),
		Ticket:       toTicketResponse(result.Ticket),
		Conversation: toConversationResponse(result.Conversation),
		Script:       toScriptResponse(result.Script),
	})
}

type reviewRequest struct {
	EventID       string `json:"event_id"`
	Action        string `json:"action"`
	ReviewerRole  string `json:"reviewer_role,omitempty"`
	ReviewerNotes string `json:"reviewer_notes,omitempty"`
	EditedTitle   string `json:"edited_title,omitempty"`
	EditedBody    string `json:"edited_body,omitempty"`
	EditedTags    string `json:"edited_tags,omitempty"`
}

type reviewResponse struct {
	Event                 *eventResponse               `json:"event"`
	ArticleID             string                       `json:"article_id,omitempty"`
	ConfidenceImprovement *model.ConfidenceImprovement `json:"confidence_improvement,omitempty"`
	KBTotalAfter          int                          `json:"kb_total_after,omitempty"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	result, err := s.uc.Learning.Review(ctx, usecase.ReviewRequest{
		EventID:       model.EventID(req.EventID),
		Action:        req.Action,
		ReviewerRole:  req.ReviewerRole,
		ReviewerNotes: req.ReviewerNotes,
		EditedTitle:   req.EditedTitle,
		EditedBody:    req.EditedBody,
		EditedTags:    req.EditedTags,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, reviewResponse{
		Event:                 toEventResponse(result.Event),
		ArticleID:             string(result.ArticleID),
		ConfidenceImprovement: result.ConfidenceImprovement,
		KBTotalAfter:          result.KBTotalAfter,
	})
}

type reportGapRequest struct {
	Question   string  `json:"question"`
	Confidence float64 `json:"confidence"`
}

type reportGapResponse struct {
	Event *eventResponse `json:"event"`
}

func (s *Server) handleReportGap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reportGapRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(ctx, w, err)
		return
	}

	event, err := s.uc.Copilot.ReportGap(ctx, req.Question, req.Confidence)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, reportGapResponse{Event: toEventResponse(event)})
}
