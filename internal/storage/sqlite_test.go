package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/ruiji/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func str(s string) *string { return &s }

func TestFragmentsRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	fragments := []models.Fragment{
		{DocumentID: "a", Position: 0, Language: "py", Text: str("x = 1")},
		{DocumentID: "a", Position: 1, Language: "md", Text: str("# notes")},
		{DocumentID: "b", Position: 0, Language: "py", Text: nil},
	}
	for i := range fragments {
		if err := store.AddFragment(ctx, &fragments[i]); err != nil {
			t.Fatal(err)
		}
	}

	count, err := store.CountFragments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 fragments, got %d", count)
	}

	loaded, err := store.LoadFragments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(loaded))
	}
	if loaded[0].DocumentID != "a" || *loaded[0].Text != "x = 1" {
		t.Errorf("unexpected first fragment: %+v", loaded[0])
	}
	if loaded[2].Text != nil {
		t.Errorf("nil text must round-trip as nil, got %v", loaded[2].Text)
	}
}

func TestWriteNeighbors_preservesOrder(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	records := []models.NeighborRecord{
		{DocumentID: "b", Similar: []models.Neighbor{
			{Jaccard: 0.0, DocumentID: "a"},
			{Jaccard: 0.2, DocumentID: "c"},
		}},
		{DocumentID: "a", Similar: []models.Neighbor{
			{Jaccard: 0.0, DocumentID: "b"},
		}},
	}
	if err := store.WriteNeighbors(ctx, records); err != nil {
		t.Fatal(err)
	}

	listed, err := store.ListNeighbors(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 records, got %d", len(listed))
	}
	if listed[0].DocumentID != "b" || listed[1].DocumentID != "a" {
		t.Errorf("stored record order lost: %+v", listed)
	}
	if listed[0].Similar[0].DocumentID != "a" || listed[0].Similar[1].DocumentID != "c" {
		t.Errorf("within-record order lost: %+v", listed[0].Similar)
	}

	rec, err := store.GetNeighbors(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Similar) != 2 || rec.Similar[0].Jaccard != 0.0 {
		t.Errorf("unexpected record: %+v", rec)
	}

	count, err := store.CountRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 records, got %d", count)
	}
}

func TestWriteNeighbors_replacesPreviousOutput(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := []models.NeighborRecord{
		{DocumentID: "a", Similar: []models.Neighbor{{Jaccard: 0.1, DocumentID: "b"}}},
		{DocumentID: "b", Similar: []models.Neighbor{{Jaccard: 0.1, DocumentID: "a"}}},
	}
	if err := store.WriteNeighbors(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := []models.NeighborRecord{
		{DocumentID: "c", Similar: []models.Neighbor{{Jaccard: 0.3, DocumentID: "d"}}},
	}
	if err := store.WriteNeighbors(ctx, second); err != nil {
		t.Fatal(err)
	}

	listed, err := store.ListNeighbors(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].DocumentID != "c" {
		t.Errorf("previous output must be replaced, got %+v", listed)
	}
}

func TestHasNeighbors(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	has, err := store.HasNeighbors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("fresh database must have no neighbors")
	}

	records := []models.NeighborRecord{
		{DocumentID: "a", Similar: []models.Neighbor{{Jaccard: 0.1, DocumentID: "b"}}},
	}
	if err := store.WriteNeighbors(ctx, records); err != nil {
		t.Fatal(err)
	}
	has, err = store.HasNeighbors(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Error("expected neighbors after write")
	}
}

func TestGetNeighbors_missingDocument(t *testing.T) {
	store := newTestStorage(t)
	if _, err := store.GetNeighbors(context.Background(), "nope"); err == nil {
		t.Error("expected error for document without neighbors")
	}
}

func TestRunBookkeeping(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	last, err := store.LastRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last != nil {
		t.Errorf("fresh database must have no runs, got %+v", last)
	}

	run := &models.RunInfo{
		ID:               "run-1",
		StartedAt:        time.Now().Add(-time.Minute),
		FinishedAt:       time.Now(),
		SimilarDistance:  0.5,
		VocabSize:        1000,
		NgramSize:        3,
		MinDocFreq:       1,
		NumHashFunctions: 3,
		Documents:        12,
		Records:          4,
	}
	if err := store.RecordRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	last, err = store.LastRun(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.ID != "run-1" || last.Documents != 12 || last.Records != 4 {
		t.Errorf("unexpected last run: %+v", last)
	}
	if last.SimilarDistance != 0.5 || last.NumHashFunctions != 3 {
		t.Errorf("run parameters lost: %+v", last)
	}
}
