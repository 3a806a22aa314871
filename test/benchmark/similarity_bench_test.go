package benchmark

import (
	"fmt"
	"testing"

	"github.com/hyperjump/ruiji/internal/lsh"
	"github.com/hyperjump/ruiji/internal/minhash"
	"github.com/hyperjump/ruiji/internal/shingle"
	"github.com/hyperjump/ruiji/internal/vectorize"
)

func benchVector(size, offset int) vectorize.Vector {
	vec := make(vectorize.Vector, size)
	for i := 0; i < size; i++ {
		vec[offset+i] = 1
	}
	return vec
}

func BenchmarkSignature(b *testing.B) {
	family, _ := minhash.NewFamily(100, 42)
	vec := benchVector(500, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = family.Signature(vec)
	}
}

func BenchmarkCandidates(b *testing.B) {
	family, _ := minhash.NewFamily(16, 42)
	sigs := make([][]uint64, 1000)
	for i := range sigs {
		// Overlapping supports so buckets are realistically populated.
		sigs[i] = family.Signature(benchVector(50, i%200))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = lsh.Candidates(sigs, 1)
	}
}

func BenchmarkShingles(b *testing.B) {
	var text string
	for i := 0; i < 1000; i++ {
		text += fmt.Sprintf("tok%d ", i%150)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = shingle.Shingles(text, 3)
	}
}
