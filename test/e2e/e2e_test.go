package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/pipeline"
	"github.com/hyperjump/ruiji/internal/storage"
)

func e2eConfig(distance float64) *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Similarity.SimilarDistance = &distance
	cfg.Similarity.NgramSize = 2
	cfg.Similarity.VocabSize = 5000
	cfg.Similarity.MinDocFreq = 1
	cfg.Similarity.NumHashFunctions = 100
	return cfg
}

// defaultCorpus holds three clusters: near-duplicate pair (alpha, alpha2),
// a looser pair (beta, beta2), and two isolated documents.
func defaultCorpus() []CorpusSpec {
	return []CorpusSpec{
		{ID: "alpha", FirstToken: 0, NumTokens: 60, Cells: 3},
		{ID: "alpha2", FirstToken: 0, NumTokens: 58, Cells: 2},
		{ID: "beta", FirstToken: 100, NumTokens: 60, Cells: 3},
		{ID: "beta2", FirstToken: 115, NumTokens: 60, Cells: 4},
		{ID: "gamma", FirstToken: 300, NumTokens: 40, Cells: 2},
		{ID: "delta", FirstToken: 400, NumTokens: 40, Cells: 1},
	}
}

func runOnce(t *testing.T, cfg *config.Config, store *storage.SQLiteStorage) []models.NeighborRecord {
	t.Helper()
	ctx := context.Background()
	fragments, err := store.LoadFragments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	p, err := pipeline.New(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	result, err := p.Run(ctx, fragments)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.WriteNeighbors(ctx, result.Records); err != nil {
		t.Fatal(err)
	}
	return result.Records
}

func seedStore(t *testing.T, specs []CorpusSpec) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	for _, f := range BuildFragments(specs) {
		frag := f
		if err := store.AddFragment(ctx, &frag); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func TestEndToEnd_findsNearDuplicates(t *testing.T) {
	store := seedStore(t, defaultCorpus())
	records := runOnce(t, e2eConfig(0.5), store)

	byID := map[string]models.NeighborRecord{}
	for _, rec := range records {
		byID[rec.DocumentID] = rec
		for _, n := range rec.Similar {
			if n.DocumentID == rec.DocumentID {
				t.Errorf("record %s contains a self-pair", rec.DocumentID)
			}
		}
	}

	alpha, ok := byID["alpha"]
	if !ok {
		t.Fatal("alpha should have neighbors")
	}
	found := false
	for _, n := range alpha.Similar {
		if n.DocumentID == "alpha2" {
			found = true
			if n.Jaccard > 0.2 {
				t.Errorf("alpha/alpha2 distance %.3f unexpectedly high", n.Jaccard)
			}
		}
	}
	if !found {
		t.Error("alpha2 missing from alpha's neighbors")
	}
	if _, ok := byID["gamma"]; ok {
		t.Error("gamma shares nothing and must have no record")
	}
	if _, ok := byID["delta"]; ok {
		t.Error("delta shares nothing and must have no record")
	}

	// Neighbor lists must come back from storage in the exact order written.
	stored, err := store.ListNeighbors(context.Background(), 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != len(records) {
		t.Fatalf("stored %d records, expected %d", len(stored), len(records))
	}
	for i, rec := range records {
		if stored[i].DocumentID != rec.DocumentID {
			t.Errorf("record %d: stored %s, expected %s", i, stored[i].DocumentID, rec.DocumentID)
		}
		if !reflect.DeepEqual(stored[i].Similar, rec.Similar) {
			t.Errorf("record %s neighbors changed in storage", rec.DocumentID)
		}
	}
}

func TestEndToEnd_idempotentOutput(t *testing.T) {
	store := seedStore(t, defaultCorpus())
	cfg := e2eConfig(0.5)

	first := runOnce(t, cfg, store)
	second := runOnce(t, cfg, store)

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("repeated runs on an unchanged corpus must be byte-identical")
	}
}

func TestEndToEnd_recordsOrderedByNeighborCount(t *testing.T) {
	// chain shares tokens with both ends, so it collects the largest
	// neighbor set and must lead the output.
	specs := []CorpusSpec{
		{ID: "left", FirstToken: 0, NumTokens: 40, Cells: 2},
		{ID: "chain", FirstToken: 5, NumTokens: 40, Cells: 2},
		{ID: "right", FirstToken: 10, NumTokens: 40, Cells: 2},
	}
	store := seedStore(t, specs)
	records := runOnce(t, e2eConfig(0.9), store)

	if len(records) == 0 {
		t.Fatal("expected records")
	}
	for i := 1; i < len(records); i++ {
		if len(records[i].Similar) > len(records[i-1].Similar) {
			t.Errorf("records not ordered by descending neighbor count at %d", i)
		}
	}
	for _, rec := range records {
		for i := 1; i < len(rec.Similar); i++ {
			if rec.Similar[i].Jaccard < rec.Similar[i-1].Jaccard {
				t.Errorf("record %s neighbors not ordered by ascending distance", rec.DocumentID)
			}
		}
	}
}
