package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/vocabflash/internal/db"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository"
)

const paragraphTable = "saved_paragraphs"

var paragraphColumns = []string{"id", "arabic_text", "english_translation", "words", "score", "created_at"}

type paragraphRepository struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// NewParagraphRepository creates a ParagraphRepository backed by saved_paragraphs.
func NewParagraphRepository(sqlDB *sql.DB, dialect db.Dialect) repository.ParagraphRepository {
	return &paragraphRepository{db: sqlDB, sb: dialect.Builder()}
}

func (r *paragraphRepository) Insert(ctx context.Context, p models.SavedParagraph) error {
	log := logger.FromContext(ctx).WithPrefix("paragraph_repo")
	log.Debug("inserting paragraph: id=%s, words=%d", p.ID, len(p.Words))

	words, err := json.Marshal(nonNil(p.Words))
	if err != nil {
		return fmt.Errorf("encode words: %w", err)
	}
	var translation sql.NullString
	if p.EnglishTranslation != "" {
		translation = sql.NullString{String: p.EnglishTranslation, Valid: true}
	}
	var score sql.NullInt64
	if p.Score != nil {
		score = sql.NullInt64{Int64: int64(*p.Score), Valid: true}
	}

	query, args, err := r.sb.Insert(paragraphTable).
		Columns(paragraphColumns...).
		Values(p.ID, p.ArabicText, translation, string(words), score, p.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert paragraph: %v", err)
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParagraph(row rowScanner) (models.SavedParagraph, error) {
	var (
		p           models.SavedParagraph
		translation sql.NullString
		words       string
		score       sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.ArabicText, &translation, &words, &score, &p.CreatedAt); err != nil {
		return p, err
	}
	p.EnglishTranslation = translation.String
	if score.Valid {
		s := int(score.Int64)
		p.Score = &s
	}
	if err := json.Unmarshal([]byte(words), &p.Words); err != nil {
		return p, fmt.Errorf("decode words for paragraph %s: %w", p.ID, err)
	}
	return p, nil
}

func (r *paragraphRepository) Get(ctx context.Context, id string) (*models.SavedParagraph, error) {
	log := logger.FromContext(ctx).WithPrefix("paragraph_repo")
	log.Debug("getting paragraph: id=%s", id)

	query, args, err := r.sb.Select(paragraphColumns...).From(paragraphTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanParagraph(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("paragraph not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get paragraph: %v", err)
		return nil, err
	}
	return &p, nil
}

// List returns the newest paragraphs first. A limit <= 0 returns all.
func (r *paragraphRepository) List(ctx context.Context, limit int) ([]models.SavedParagraph, error) {
	log := logger.FromContext(ctx).WithPrefix("paragraph_repo")
	log.Debug("listing paragraphs: limit=%d", limit)

	q := r.sb.Select(paragraphColumns...).From(paragraphTable).OrderBy("created_at DESC", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list paragraphs: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]models.SavedParagraph, 0)
	for rows.Next() {
		p, err := scanParagraph(rows)
		if err != nil {
			log.Error("failed to scan paragraph row: %v", err)
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paragraphRepository) UpdateScore(ctx context.Context, id string, score int) error {
	log := logger.FromContext(ctx).WithPrefix("paragraph_repo")
	log.Debug("updating paragraph score: id=%s, score=%d", id, score)

	query, args, err := r.sb.Update(paragraphTable).Set("score", score).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update paragraph score: %v", err)
	}
	return err
}

func (r *paragraphRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("paragraph_repo")
	log.Debug("deleting paragraph: id=%s", id)

	query, args, err := r.sb.Delete(paragraphTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete paragraph: %v", err)
	}
	return err
}

func nonNil(words []string) []string {
	if words == nil {
		return []string{}
	}
	return words
}
