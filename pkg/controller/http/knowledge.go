package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/speare-ai/speare/pkg/domain/model"
)

type statsResponse struct {
	Tickets        int            `json:"tickets"`
	ResolvedTier3  int            `json:"resolved_tier3"`
	AvgTier        float64        `json:"avg_tier"`
	Conversations  int            `json:"conversations"`
	Scripts        int            `json:"scripts"`
	Articles       int            `json:"kb_articles"`
	Events         int            `json:"learning_events"`
	EventsByStatus map[string]int `json:"events_by_status"`
	IndexedByType  map[string]int `json:"indexed_by_type"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.uc.Knowledge.Stats(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	byStatus := make(map[string]int, len(stats.EventsByStatus))
	for status, n := range stats.EventsByStatus {
		byStatus[status.String()] = n
	}
	byType := make(map[string]int, len(stats.IndexedByType))
	for docType, n := range stats.IndexedByType {
		byType[docType.String()] = n
	}

	respondJSON(ctx, w, http.StatusOK, statsResponse{
		Tickets:        stats.Tickets,
		ResolvedTier3:  stats.ResolvedTier3,
		AvgTier:        stats.AvgTier,
		Conversations:  stats.Conversations,
		Scripts:        stats.Scripts,
		Articles:       stats.Articles,
		Events:         stats.Events,
		EventsByStatus: byStatus,
		IndexedByType:  byType,
	})
}

type listArticlesResponse struct {
	Articles []*articleResponse `json:"articles"`
	Total    int                `json:"total"`
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listing, err := s.uc.Knowledge.ListArticles(ctx, model.ArticleListOptions{
		Search:   r.URL.Query().Get("search"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	articles := make([]*articleResponse, len(listing.Articles))
	for i, a := range listing.Articles {
		articles[i] = toArticleResponse(a)
	}

	respondJSON(ctx, w, http.StatusOK, listArticlesResponse{
		Articles: articles,
		Total:    listing.Total,
	})
}

type articleDetailResponse struct {
	Article *articleResponse  `json:"article"`
	Lineage []lineageResponse `json:"lineage"`
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := s.uc.Knowledge.GetArticle(ctx, model.ArticleID(chi.URLParam(r, "articleID")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, articleDetailResponse{
		Article: toArticleResponse(detail.Article),
		Lineage: toLineageResponses(detail.Lineage),
	})
}

type listTicketsResponse struct {
	Tickets []*ticketResponse `json:"tickets"`
	Total   int               `json:"total"`
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listing, err := s.uc.Knowledge.ListTickets(ctx, model.TicketListOptions{
		Status:   r.URL.Query().Get("status"),
		Search:   r.URL.Query().Get("search"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, listTicketsResponse{
		Tickets: toTicketResponses(listing.Tickets),
		Total:   listing.Total,
	})
}

type listConversationsResponse struct {
	Conversations []*conversationResponse `json:"conversations"`
	Total         int                     `json:"total"`
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listing, err := s.uc.Knowledge.ListConversations(ctx, model.ConversationListOptions{
		TicketNumber: r.URL.Query().Get("ticket_number"),
		Page:         queryInt(r, "page"),
		PageSize:     queryInt(r, "page_size"),
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	conversations := make([]*conversationResponse, len(listing.Conversations))
	for i, c := range listing.Conversations {
		conversations[i] = toConversationResponse(c)
	}

	respondJSON(ctx, w, http.StatusOK, listConversationsResponse{
		Conversations: conversations,
		Total:         listing.Total,
	})
}

type ticketDetailResponse struct {
	Ticket       *ticketResponse       `json:"ticket"`
	Conversation *conversationResponse `json:"conversation,omitempty"`
	Script       *scriptResponse       `json:"script,omitempty"`
	Article      *articleResponse      `json:"kb_article,omitempty"`
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := s.uc.Knowledge.GetTicket(ctx, chi.URLParam(r, "ticketNumber"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, ticketDetailResponse{
		Ticket:       toTicketResponse(detail.Ticket),
		Conversation: toConversationResponse(detail.Conversation),
		Script:       toScriptResponse(detail.Script),
		Article:      toArticleResponse(detail.Article),
	})
}
