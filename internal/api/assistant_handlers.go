package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/services"
	"github.com/vytor/vocabflash/internal/worker"
)

type chatRequest struct {
	Messages []models.ChatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

type prefetchRequest struct {
	Words []string `json:"words" validate:"required,max=100"`
	Voice string   `json:"voice"`
}

type prefetchResponse struct {
	Queued  int `json:"queued"`
	Dropped int `json:"dropped"`
	Backlog int `json:"backlog"`
}

type archaicResponse struct {
	Matches []models.ArchaicMatch `json:"matches"`
}

// sseWriter frames server-sent events. Headers go out with the first event so
// errors raised before any output can still use a normal JSON response.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) event(name string, v any) error {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if name != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	chat := services.ChatRequest{Messages: req.Messages, ClientID: clientID(r)}

	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		reply, err := s.AssistantService.Reply(r.Context(), chat)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, reply)
		return
	}

	log := logger.FromContext(r.Context())
	flusher, _ := w.(http.Flusher)
	sse := &sseWriter{w: w, flusher: flusher}
	err := s.AssistantService.Stream(r.Context(), chat, func(tok string) error {
		return sse.event("", map[string]string{"token": tok})
	})
	if err != nil && !sse.started {
		handleError(w, r, err)
		return
	}
	if err != nil {
		appErr, ok := errors.As(err)
		if !ok {
			appErr = errors.NewInternalError(err)
		}
		log.Warn("assistant stream ended with error: %v", appErr)
		_ = sse.event("error", errorBody{Code: appErr.Code, Message: appErr.Message})
		return
	}
	_ = sse.event("done", map[string]bool{"done": true})
}

func (s *Server) handlePronunciation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := s.PronunciationService.Lookup(r.Context(), q.Get("word"), q.Get("voice"), clientID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

// handlePrefetchPronunciation queues cache warming for upcoming words.
// Words that do not fit in the queue are reported as dropped.
func (s *Server) handlePrefetchPronunciation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req prefetchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	var res prefetchResponse
	for _, word := range req.Words {
		if strings.TrimSpace(word) == "" {
			continue
		}
		if err := s.JobQueue.EnqueuePronunciation(word, req.Voice); err != nil {
			if !errors.Is(err, worker.ErrQueueFull) && !errors.Is(err, worker.ErrStopped) {
				handleError(w, r, err)
				return
			}
			res.Dropped++
			continue
		}
		res.Queued++
	}
	if res.Dropped > 0 {
		log.Debug("pronunciation prefetch dropped %d words", res.Dropped)
	}
	res.Backlog = s.JobQueue.Pending()
	writeJSON(w, r, http.StatusAccepted, res)
}

// handleArchaic checks a single word or scans a block of text.
func (s *Server) handleArchaic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := archaicResponse{Matches: []models.ArchaicMatch{}}
	switch {
	case q.Get("word") != "":
		if m, ok := s.Archaic.Check(q.Get("word")); ok {
			res.Matches = append(res.Matches, m)
		}
	case q.Get("text") != "":
		res.Matches = append(res.Matches, s.Archaic.Find(q.Get("text"))...)
	default:
		handleError(w, r, errors.NewValidationError("word", "word or text is required"))
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	overview, err := s.ProgressService.Overview(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, overview)
}
