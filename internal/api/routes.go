package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware(s.AllowedOrigins))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/cards", s.handleListCards)
		r.Post("/cards", s.handleCreateCard)
		r.Post("/cards/import", s.handleImportCards)
		r.Get("/cards/export", s.handleExportCards)
		r.Get("/cards/{id}", s.handleGetCard)
		r.Patch("/cards/{id}", s.handleUpdateCard)
		r.Delete("/cards/{id}", s.handleDeleteCard)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Patch("/categories/{id}", s.handleUpdateCategory)
		r.Delete("/categories/{id}", s.handleDeleteCategory)

		r.Post("/quiz/{id}/answer", s.handleAnswerQuiz)
		r.Post("/quiz/{id}/finish", s.handleFinishQuiz)
		r.Get("/daily", s.handleDailyOverview)
		r.Post("/daily/{id}/answer", s.handleAnswerDaily)
		r.Post("/daily/{id}/finish", s.handleFinishDaily)

		r.Post("/paragraph/words", s.handleSaveWords)
		r.Get("/paragraphs", s.handleListParagraphs)
		r.Post("/paragraphs", s.handleSaveParagraph)
		r.Delete("/paragraphs/{id}", s.handleDeleteParagraph)

		r.Post("/pronunciation/prefetch", s.handlePrefetchPronunciation)
		r.Get("/archaic", s.handleArchaic)
		r.Get("/progress", s.handleProgress)

		// Routes that may call the text generation service.
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitMiddleware)
			r.Post("/quiz", s.handleStartQuiz)
			r.Post("/daily", s.handleStartDaily)
			r.Post("/paragraph", s.handleGenerateParagraph)
			r.Post("/paragraph/random", s.handleRandomParagraph)
			r.Post("/paragraph/evaluate", s.handleEvaluateTranslation)
			r.Post("/assistant", s.handleAssistant)
			r.Get("/pronunciation", s.handlePronunciation)
		})
	})
	return r
}
