package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/services"
)

type generateParagraphRequest struct {
	Words      []string          `json:"words" validate:"required,max=100"`
	Difficulty models.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type randomParagraphRequest struct {
	Difficulty models.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Exclude    []string          `json:"exclude" validate:"max=100"`
}

type evaluateRequest struct {
	ParagraphID string   `json:"paragraphId"`
	Arabic      string   `json:"arabic" validate:"required"`
	Translation string   `json:"translation" validate:"required"`
	Words       []string `json:"words" validate:"max=100"`
}

type saveWordsRequest struct {
	Words []string `json:"words" validate:"required,max=100"`
}

func (s *Server) handleGenerateParagraph(w http.ResponseWriter, r *http.Request) {
	var req generateParagraphRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.ParagraphService.Generate(r.Context(), services.GenerateParagraphRequest{
		Words:      req.Words,
		Difficulty: req.Difficulty,
		ClientID:   clientID(r),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleRandomParagraph(w http.ResponseWriter, r *http.Request) {
	var req randomParagraphRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.ParagraphService.GenerateRandom(r.Context(), services.RandomParagraphRequest{
		Difficulty: req.Difficulty,
		Exclude:    req.Exclude,
		ClientID:   clientID(r),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleEvaluateTranslation(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	feedback, err := s.ParagraphService.Evaluate(r.Context(), services.EvaluateRequest{
		ParagraphID: req.ParagraphID,
		Arabic:      req.Arabic,
		Translation: req.Translation,
		Words:       req.Words,
		ClientID:    clientID(r),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, feedback)
}

func (s *Server) handleSaveWords(w http.ResponseWriter, r *http.Request) {
	var req saveWordsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	res, err := s.ParagraphService.SaveWords(r.Context(), req.Words)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleListParagraphs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	paragraphs, err := s.ParagraphService.ListParagraphs(r.Context(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if paragraphs == nil {
		paragraphs = []models.SavedParagraph{}
	}
	writeJSON(w, r, http.StatusOK, paragraphs)
}

func (s *Server) handleSaveParagraph(w http.ResponseWriter, r *http.Request) {
	var p models.SavedParagraph
	if err := decodeJSON(w, r, &p); err != nil {
		handleError(w, r, err)
		return
	}
	saved, err := s.ParagraphService.SaveParagraph(r.Context(), p)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, saved)
}

func (s *Server) handleDeleteParagraph(w http.ResponseWriter, r *http.Request) {
	if err := s.ParagraphService.DeleteParagraph(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
