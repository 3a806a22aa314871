// Package vectorize maps documents' shingle sequences to sparse count vectors
// over the vocabulary.
package vectorize

import "github.com/hyperjump/ruiji/internal/vocab"

// Vector is a sparse feature vector: vocabulary index to occurrence count.
type Vector map[int]int

// Vectorize counts occurrences of vocabulary shingles in one document's
// shingle sequence. Shingles outside the vocabulary are ignored. Returns nil
// when no shingle is in-vocabulary; such documents contribute nothing
// comparable and must be dropped from all downstream stages.
func Vectorize(shingles []string, v *vocab.Vocabulary) Vector {
	var vec Vector
	for _, s := range shingles {
		idx, ok := v.Index(s)
		if !ok {
			continue
		}
		if vec == nil {
			vec = make(Vector)
		}
		vec[idx]++
	}
	return vec
}
