package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
)

type createCardRequest struct {
	Word       string `json:"word" validate:"required,max=200"`
	Meaning    string `json:"meaning" validate:"required,max=1000"`
	CategoryID string `json:"categoryId"`
}

type importCardsRequest struct {
	Text       string `json:"text" validate:"required"`
	CategoryID string `json:"categoryId"`
}

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color"`
}

type categoriesResponse struct {
	Categories []models.Category      `json:"categories"`
	Counts     []models.CategoryCount `json:"counts"`
}

// cardFilter reads the list and export query parameters.
func cardFilter(r *http.Request) (models.FlashcardFilter, error) {
	q := r.URL.Query()
	f := models.FlashcardFilter{
		CategoryID: q.Get("category"),
		Search:     q.Get("search"),
		Mastery:    models.Mastery(q.Get("mastery")),
		Sort:       models.SortOrder(q.Get("sort")),
	}
	if f.Mastery != "" && !f.Mastery.Valid() {
		return f, errors.NewValidationError("mastery", "must be new, learning, mastered or needsReview")
	}
	return f, nil
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	f, err := cardFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.Store.Filter(f))
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	card, err := s.Store.Add(r.Context(), req.Word, req.Meaning, req.CategoryID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, card)
}

func (s *Server) handleImportCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req importCardsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	res, err := s.Store.BulkImport(r.Context(), req.Text, req.CategoryID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("import finished: added=%d, duplicates=%d, malformed=%d", len(res.Added), len(res.SkippedDuplicates), res.Malformed)
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleExportCards(w http.ResponseWriter, r *http.Request) {
	f, err := cardFilter(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="flashcards.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.Store.Export(f)))
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := s.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var patch models.FlashcardPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		handleError(w, r, err)
		return
	}
	card, err := s.Store.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, categoriesResponse{
		Categories: s.Store.Categories(),
		Counts:     s.Store.CategoryCounts(),
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	cat, err := s.Store.AddCategory(r.Context(), req.Name, req.Color)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch models.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		handleError(w, r, err)
		return
	}
	cat, err := s.Store.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.RemoveCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
