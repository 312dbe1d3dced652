package http

import (
	"time"

	"github.com/speare-ai/speare/pkg/domain/model"
)

// Wire representations of the domain records. The domain models stay
// free of transport tags; conversion happens here.

type eventResponse struct {
	ID                 string     `json:"id"`
	TicketNumber       string     `json:"ticket_number,omitempty"`
	ConversationID     string     `json:"conversation_id,omitempty"`
	DetectedGap        string     `json:"detected_gap"`
	ProposedKBID       string     `json:"proposed_kb_id,omitempty"`
	DraftSummary       string     `json:"draft_summary,omitempty"`
	Status             string     `json:"status"`
	Trigger            string     `json:"trigger"`
	ReviewerRole       string     `json:"reviewer_role,omitempty"`
	ReviewNotes        string     `json:"review_notes,omitempty"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	BestKBScore        float64    `json:"best_kb_score"`
	BestKBMatch        string     `json:"best_kb_match,omitempty"`
	SourceQuestion     string     `json:"source_question,omitempty"`
	ReportedConfidence float64    `json:"reported_confidence,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func toEventResponse(e *model.LearningEvent) *eventResponse {
	if e == nil {
		return nil
	}
	return &eventResponse{
		ID:                 string(e.ID),
		TicketNumber:       e.TicketNumber,
		ConversationID:     e.ConversationID,
		DetectedGap:        e.DetectedGap,
		ProposedKBID:       string(e.ProposedKBID),
		DraftSummary:       e.DraftSummary,
		Status:             e.Status.String(),
		Trigger:            string(e.Trigger),
		ReviewerRole:       e.ReviewerRole,
		ReviewNotes:        e.ReviewNotes,
		ReviewedAt:         e.ReviewedAt,
		BestKBScore:        e.BestKBScore,
		BestKBMatch:        e.BestKBMatch,
		SourceQuestion:     e.SourceQuestion,
		ReportedConfidence: e.ReportedConfidence,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toEventResponses(events []*model.LearningEvent) []*eventResponse {
	out := make([]*eventResponse, len(events))
	for i, e := range events {
		out[i] = toEventResponse(e)
	}
	return out
}

type articleResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tags       string    `json:"tags,omitempty"`
	Module     string    `json:"module,omitempty"`
	Category   string    `json:"category,omitempty"`
	SourceType string    `json:"source_type"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toArticleResponse(a *model.KBArticle) *articleResponse {
	if a == nil {
		return nil
	}
	return &articleResponse{
		ID:         string(a.ID),
		Title:      a.Title,
		Body:       a.Body,
		Tags:       a.Tags,
		Module:     a.Module,
		Category:   a.Category,
		SourceType: string(a.SourceType),
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

type lineageResponse struct {
	SourceType   string `json:"source_type"`
	SourceID     string `json:"source_id"`
	TargetKBID   string `json:"target_kb_id"`
	Relationship string `json:"relationship"`
}

func toLineageResponses(edges []model.LineageEdge) []lineageResponse {
	out := make([]lineageResponse, len(edges))
	for i, e := range edges {
		out[i] = lineageResponse{
			SourceType:   string(e.SourceType),
			SourceID:     e.SourceID,
			TargetKBID:   string(e.TargetKBID),
			Relationship: string(e.Relationship),
		}
	}
	return out
}

type ticketResponse struct {
	Number      string `json:"number"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Resolution  string `json:"resolution,omitempty"`
	RootCause   string `json:"root_cause,omitempty"`
	Module      string `json:"module,omitempty"`
	Category    string `json:"category,omitempty"`
	Product     string `json:"product,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority,omitempty"`
	Tier        int    `json:"tier"`
	ScriptID    string `json:"script_id,omitempty"`
	KBArticleID string `json:"kb_article_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toTicketResponse(t *model.Ticket) *ticketResponse {
	if t == nil {
		return nil
	}
	return &ticketResponse{
		Number:      t.Number,
		Subject:     t.Subject,
		Description: t.Description,
		Resolution:  t.Resolution,
		RootCause:   t.RootCause,
		Module:      t.Module,
		Category:    t.Category,
		Product:     t.Product,
		Tags:        t.Tags,
		Status:      t.Status,
		Priority:    t.Priority,
		Tier:        t.Tier,
		ScriptID:    t.ScriptID,
		KBArticleID: t.KBArticleID,
		CreatedAt:   t.CreatedAt,
	}
}

func toTicketResponses(tickets []*model.Ticket) []*ticketResponse {
	out := make([]*ticketResponse, len(tickets))
	for i, t := range tickets {
		out[i] = toTicketResponse(t)
	}
	return out
}

type conversationResponse struct {
	ID           string `json:"id"`
	TicketNumber string `json:"ticket_number"`
	Channel      string `json:"channel,omitempty"`
	AgentName    string `json:"agent_name,omitempty"`
	IssueSummary string `json:"issue_summary,omitempty"`
	Sentiment    string `json:"sentiment,omitempty"`
	Transcript   string `json:"transcript,omitempty"`
}

func toConversationResponse(c *model.Conversation) *conversationResponse {
	if c == nil {
		return nil
	}
	return &conversationResponse{
		ID:           c.ID,
		TicketNumber: c.TicketNumber,
		Channel:      c.Channel,
		AgentName:    c.AgentName,
		IssueSummary: c.IssueSummary,
		Sentiment:    c.Sentiment,
		Transcript:   c.Transcript,
	}
}

type scriptResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Purpose  string `json:"purpose,omitempty"`
	Inputs   string `json:"inputs,omitempty"`
	Module   string `json:"module,omitempty"`
	Category string `json:"category,omitempty"`
	Text     string `json:"text,omitempty"`
}

func toScriptResponse(s *model.Script) *scriptResponse {
	if s == nil {
		return nil
	}
	return &scriptResponse{
		ID:       s.ID,
		Title:    s.Title,
		Purpose:  s.Purpose,
		Inputs:   s.Inputs,
		Module:   s.Module,
		Category: s.Category,
		Text:     s.Text,
	}
}

type draftResponse struct {
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Tags         string            `json:"tags,omitempty"`
	Lineage      []lineageResponse `json:"lineage"`
	QualityScore float64           `json:"quality_score"`
	QualityNotes string            `json:"quality_notes,omitempty"`
}

func toDraftResponse(d *model.KBDraft) *draftResponse {
	if d == nil {
		return nil
	}
	return &draftResponse{
		Title:        d.Title,
		Body:         d.Body,
		Tags:         d.Tags,
		Lineage:      toLineageResponses(d.Lineage),
		QualityScore: d.QualityScore,
		QualityNotes: d.QualityNotes,
	}
}
