package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/services"
)

type startQuizRequest struct {
	Mode          models.QuizMode   `json:"mode" validate:"required,oneof=meaning sentence"`
	Size          int               `json:"size" validate:"min=0,max=50"`
	Difficulty    models.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard custom"`
	CustomSeconds int               `json:"customSeconds" validate:"min=0"`
	CategoryID    string            `json:"categoryId"`
}

type startDailyRequest struct {
	Type          models.QuizType   `json:"type" validate:"omitempty,oneof=standard sentence custom"`
	Size          int               `json:"size" validate:"min=0,max=50"`
	Difficulty    models.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard custom"`
	CustomSeconds int               `json:"customSeconds" validate:"min=0"`
	CategoryID    string            `json:"categoryId"`
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req startQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	session, err := s.QuizService.Start(r.Context(), services.StartQuizRequest{
		Mode:          req.Mode,
		Size:          req.Size,
		Difficulty:    req.Difficulty,
		CustomSeconds: req.CustomSeconds,
		CategoryID:    req.CategoryID,
		ClientID:      clientID(r),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, session)
}

func (s *Server) handleAnswerQuiz(w http.ResponseWriter, r *http.Request) {
	var sub models.AnswerSubmission
	if err := decodeJSON(w, r, &sub); err != nil {
		handleError(w, r, err)
		return
	}
	res, err := s.QuizService.Answer(r.Context(), chi.URLParam(r, "id"), sub)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleFinishQuiz(w http.ResponseWriter, r *http.Request) {
	summary, err := s.QuizService.Finish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleDailyOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.DailyQuizService.Overview(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, overview)
}

func (s *Server) handleStartDaily(w http.ResponseWriter, r *http.Request) {
	var req startDailyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	session, err := s.DailyQuizService.Start(r.Context(), services.StartDailyRequest{
		Type:          req.Type,
		Size:          req.Size,
		CategoryID:    req.CategoryID,
		Difficulty:    req.Difficulty,
		CustomSeconds: req.CustomSeconds,
		ClientID:      clientID(r),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, session)
}

func (s *Server) handleAnswerDaily(w http.ResponseWriter, r *http.Request) {
	var sub models.AnswerSubmission
	if err := decodeJSON(w, r, &sub); err != nil {
		handleError(w, r, err)
		return
	}
	res, err := s.DailyQuizService.Answer(r.Context(), chi.URLParam(r, "id"), sub)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleFinishDaily(w http.ResponseWriter, r *http.Request) {
	res, err := s.DailyQuizService.Finish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
