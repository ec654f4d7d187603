package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vytor/vocabflash/internal/models"
	"github.com/vytor/vocabflash/internal/repository"
)

const backupVersion = 1

// backup is the on-disk backup document. Values holds the key/value store
// verbatim; paragraphs live in their own table and are listed separately.
type backup struct {
	Version    int                     `json:"version"`
	CreatedAt  time.Time               `json:"createdAt"`
	Values     map[string]string       `json:"values"`
	Paragraphs []models.SavedParagraph `json:"paragraphs"`
}

type restoreReport struct {
	Keys                int
	Paragraphs          int
	SkippedParagraphs   int
	LegacyParagraphsKey bool
}

func writeBackup(ctx context.Context, kv repository.KVStore, paragraphs repository.ParagraphRepository, now time.Time, w io.Writer) (backup, error) {
	values, err := kv.Snapshot(ctx)
	if err != nil {
		return backup{}, fmt.Errorf("snapshot key/value store: %w", err)
	}
	saved, err := paragraphs.List(ctx, 0)
	if err != nil {
		return backup{}, fmt.Errorf("list paragraphs: %w", err)
	}
	doc := backup{Version: backupVersion, CreatedAt: now.UTC(), Values: values, Paragraphs: saved}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return backup{}, fmt.Errorf("write backup: %w", err)
	}
	return doc, nil
}

// restoreBackup loads a backup written by writeBackup. A savedParagraphs
// key, as exported by the browser app, is moved into the paragraph table.
// Paragraphs whose id already exists are left alone.
func restoreBackup(ctx context.Context, kv repository.KVStore, paragraphs repository.ParagraphRepository, r io.Reader) (restoreReport, error) {
	var doc backup
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return restoreReport{}, fmt.Errorf("read backup: %w", err)
	}
	if doc.Version > backupVersion {
		return restoreReport{}, fmt.Errorf("backup version %d is newer than supported version %d", doc.Version, backupVersion)
	}

	var report restoreReport
	values := make(map[string]string, len(doc.Values))
	for k, v := range doc.Values {
		if !json.Valid([]byte(v)) {
			return restoreReport{}, fmt.Errorf("value for key %q is not valid JSON", k)
		}
		values[k] = v
	}
	toInsert := doc.Paragraphs
	if raw, ok := values[repository.KeySavedParagraphs]; ok {
		var legacy []models.SavedParagraph
		if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
			return restoreReport{}, fmt.Errorf("decode %s: %w", repository.KeySavedParagraphs, err)
		}
		toInsert = append(toInsert, legacy...)
		delete(values, repository.KeySavedParagraphs)
		report.LegacyParagraphsKey = true
	}

	if len(values) > 0 {
		if err := kv.Restore(ctx, values); err != nil {
			return restoreReport{}, fmt.Errorf("restore key/value store: %w", err)
		}
	}
	report.Keys = len(values)

	for _, p := range toInsert {
		if p.ID == "" || p.ArabicText == "" {
			report.SkippedParagraphs++
			continue
		}
		existing, err := paragraphs.Get(ctx, p.ID)
		if err != nil {
			return report, fmt.Errorf("check paragraph %s: %w", p.ID, err)
		}
		if existing != nil {
			report.SkippedParagraphs++
			continue
		}
		if err := paragraphs.Insert(ctx, p); err != nil {
			return report, fmt.Errorf("insert paragraph %s: %w", p.ID, err)
		}
		report.Paragraphs++
	}
	return report, nil
}
