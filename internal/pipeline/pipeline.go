// Package pipeline wires the similarity stages into one deterministic batch run.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/assemble"
	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/lsh"
	"github.com/hyperjump/ruiji/internal/minhash"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/score"
	"github.com/hyperjump/ruiji/internal/shingle"
	"github.com/hyperjump/ruiji/internal/vectorize"
	"github.com/hyperjump/ruiji/internal/vocab"
)

// Result holds the output of one run together with stage statistics.
type Result struct {
	Records    []models.NeighborRecord
	Documents  int // documents assembled from the corpus
	Vectorized int // documents surviving vectorization
	VocabSize  int
	Candidates int // candidate pairs scored
}

// Pipeline runs the similarity stages over a fragment corpus. Each stage owns
// its output and hands it forward as a value; nothing is mutated after
// handoff. Document-level stages run data-parallel over the configured worker
// count with index-addressed results, so output is byte-identical regardless
// of parallelism.
type Pipeline struct {
	sim     config.SimilarityConfig
	family  *minhash.Family
	workers int
	logger  *zap.Logger
}

// New builds a pipeline from validated configuration. The MinHash family is
// derived once from the configured seed so all runs of the same configuration
// share hash functions.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	family, err := minhash.NewFamily(cfg.Similarity.NumHashFunctions, cfg.Similarity.HashSeed)
	if err != nil {
		return nil, err
	}
	workers := cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		sim:     cfg.Similarity,
		family:  family,
		workers: workers,
		logger:  logger,
	}, nil
}

// Run executes the full pipeline over the fragment corpus. An empty corpus,
// empty vocabulary, or absence of candidate pairs all finish successfully
// with zero records.
func (p *Pipeline) Run(ctx context.Context, fragments []models.Fragment) (*Result, error) {
	docs := assemble.Assemble(fragments)
	p.logger.Info("assembled documents",
		zap.Int("fragments", len(fragments)),
		zap.Int("documents", len(docs)),
	)

	shingles := make([][]string, len(docs))
	p.forEach(len(docs), func(i int) {
		shingles[i] = shingle.Shingles(docs[i].Text, p.sim.NgramSize)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vocabulary, err := vocab.Build(shingles, p.sim.VocabSize, p.sim.MinDocFreq)
	if err != nil {
		return nil, err
	}
	p.logger.Info("built vocabulary", zap.Int("size", vocabulary.Size()))

	vectors := make([]vectorize.Vector, len(docs))
	p.forEach(len(docs), func(i int) {
		vectors[i] = vectorize.Vectorize(shingles[i], vocabulary)
	})

	// Drop zero vectors, keeping document order.
	var ids []string
	var kept []vectorize.Vector
	for i, vec := range vectors {
		if len(vec) == 0 {
			continue
		}
		ids = append(ids, docs[i].ID)
		kept = append(kept, vec)
	}
	p.logger.Info("vectorized documents",
		zap.Int("kept", len(kept)),
		zap.Int("dropped", len(docs)-len(kept)),
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signatures := make([][]uint64, len(kept))
	p.forEach(len(kept), func(i int) {
		signatures[i] = p.family.Signature(kept[i])
	})

	candidates, err := lsh.Candidates(signatures, p.sim.RowsPerBand)
	if err != nil {
		return nil, err
	}
	p.logger.Info("generated candidate pairs", zap.Int("pairs", len(candidates)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := score.Aggregate(ids, signatures, candidates, p.sim.SimilarDistanceOrDefault())
	p.logger.Info("aggregated neighbors", zap.Int("records", len(records)))

	return &Result{
		Records:    records,
		Documents:  len(docs),
		Vectorized: len(kept),
		VocabSize:  vocabulary.Size(),
		Candidates: len(candidates),
	}, nil
}

// forEach runs fn for every index in [0,n) across the worker pool. Workers
// only write results addressed by index, so scheduling cannot affect output.
func (p *Pipeline) forEach(n int, fn func(i int)) {
	workers := p.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
}
