package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/archaic"
	"github.com/vytor/vocabflash/internal/cache"
	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/db"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/quiz"
	"github.com/vytor/vocabflash/internal/repository/sqlstore"
	"github.com/vytor/vocabflash/internal/services"
	"github.com/vytor/vocabflash/internal/testutil"
	"github.com/vytor/vocabflash/internal/testutil/mocks"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	gen   *mocks.MockGenerator
	queue *mocks.MockJobQueue
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return fmt.Errorf("connection refused") }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sqlDB := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, sqlDB) })

	clock := func() time.Time { return testNow }
	kv := sqlstore.NewKVRepository(sqlDB, db.SQLite{})
	n := 0
	store, err := cardstore.Open(context.Background(), kv,
		cardstore.WithClock(clock),
		cardstore.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}))
	require.NoError(t, err)

	gen := &mocks.MockGenerator{}
	queue := &mocks.MockJobQueue{}
	tasks := ai.NewTasks(gen, "small", "big")
	quizGen := quiz.NewGenerator(rand.New(rand.NewSource(1)), tasks)
	sessions := services.NewSessionRegistry(time.Hour, clock)
	tracker := services.NewRequestTracker()

	return &testServer{
		Server: &Server{
			Store:                store,
			QuizService:          services.NewQuizService(store, quizGen, sessions, tracker),
			DailyQuizService:     services.NewDailyQuizService(store, kv, quizGen, sessions, tracker, clock),
			ParagraphService:     services.NewParagraphService(store, sqlstore.NewParagraphRepository(sqlDB, db.SQLite{}), tasks, tracker, clock),
			AssistantService:     services.NewAssistantService(store, tasks, tracker),
			PronunciationService: services.NewPronunciationService(tasks, cache.NewLRU[string, models.PronunciationDetails](10, time.Hour), tracker),
			ProgressService:      services.NewProgressService(store, kv, clock),
			Archaic:              archaic.Default,
			JobQueue:             queue,
			DB:                   sqlDB,
		},
		gen:   gen,
		queue: queue,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.Routes().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]errorBody](t, rec)
	return body["error"].Code
}

func (ts *testServer) addCards(t *testing.T, pairs ...string) {
	t.Helper()
	for i := 0; i+1 < len(pairs); i += 2 {
		_, err := ts.Store.Add(context.Background(), pairs[i], pairs[i+1], "")
		require.NoError(t, err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	ts.DB = failingPinger{}
	rec = ts.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestErrorResponses(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"invalid json", http.MethodPost, "/api/cards", "{", http.StatusBadRequest, "BAD_REQUEST"},
		{"empty body", http.MethodPost, "/api/cards", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"missing field", http.MethodPost, "/api/cards", `{"word":"a"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown card", http.MethodGet, "/api/cards/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad mastery", http.MethodGet, "/api/cards?mastery=expert", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad quiz mode", http.MethodPost, "/api/quiz", `{"mode":"spelling"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown session", http.MethodPost, "/api/quiz/nope/finish", "", http.StatusNotFound, "NOT_FOUND"},
		{"archaic without input", http.MethodGet, "/api/archaic", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad limit", http.MethodGet, "/api/paragraphs?limit=abc", "", http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestValidationErrorUsesJSONFieldName(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/cards/import", `{"categoryId":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]errorBody](t, rec)
	assert.Contains(t, body["error"].Message, "text")
}
