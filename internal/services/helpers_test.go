package services_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/ai"
	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/db"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/quiz"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/repository/sqlstore"
	"github.com/vytor/vocabflash/internal/testutil"
	"github.com/vytor/vocabflash/internal/testutil/mocks"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// env wires the services' collaborators over an in-memory database.
type env struct {
	kv         repository.KVStore
	paragraphs repository.ParagraphRepository
	store      *cardstore.Store
	gen        *mocks.MockGenerator
	tasks      *ai.Tasks
	quizGen    *quiz.Generator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	sqlDB := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, sqlDB) })

	kv := sqlstore.NewKVRepository(sqlDB, db.SQLite{})
	n := 0
	store, err := cardstore.Open(context.Background(), kv,
		cardstore.WithClock(clock),
		cardstore.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("card-%d", n)
		}))
	require.NoError(t, err)

	gen := &mocks.MockGenerator{}
	tasks := ai.NewTasks(gen, "small", "big")
	return &env{
		kv:         kv,
		paragraphs: sqlstore.NewParagraphRepository(sqlDB, db.SQLite{}),
		store:      store,
		gen:        gen,
		tasks:      tasks,
		quizGen:    quiz.NewGenerator(rand.New(rand.NewSource(7)), tasks),
	}
}

func (e *env) addCards(t *testing.T, pairs ...string) []models.Flashcard {
	t.Helper()
	require.Zero(t, len(pairs)%2)
	var out []models.Flashcard
	for i := 0; i < len(pairs); i += 2 {
		c, err := e.store.Add(context.Background(), pairs[i], pairs[i+1], "")
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }
