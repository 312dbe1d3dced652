package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/speare-ai/speare/pkg/usecase"
	"github.com/speare-ai/speare/pkg/utils/logging"
)

// Server exposes the learning loop and copilot over JSON HTTP
type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()
	s := &Server{router: r, uc: uc}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/copilot", func(r chi.Router) {
			r.Post("/ask", s.handleAsk)
			r.Post("/confidence-check", s.handleConfidenceCheck)
		})

		r.Route("/learning", func(r chi.Router) {
			r.Post("/scan-gaps", s.handleScanGaps)
			r.Get("/events", s.handleListEvents)
			r.Get("/events/{eventID}", s.handleGetEvent)
			r.Post("/generate-draft", s.handleGenerateDraft)
			r.Post("/review", s.handleReview)
			r.Post("/report-gap", s.handleReportGap)
		})

		r.Get("/stats", s.handleStats)

		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/articles", s.handleListArticles)
			r.Get("/articles/{articleID}", s.handleGetArticle)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", s.handleListTickets)
			r.Get("/{ticketNumber}", s.handleGetTicket)
		})

		r.Get("/conversations", s.handleListConversations)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
