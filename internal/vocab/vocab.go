// Package vocab builds the corpus-wide shingle vocabulary.
package vocab

import (
	"fmt"
	"sort"
)

// Vocabulary maps retained shingles to stable indices 0..Size()-1, assigned in
// rank order (descending document frequency, ties broken by ascending shingle).
type Vocabulary struct {
	index map[string]int
}

// Index returns the index of a shingle and whether it is in the vocabulary.
func (v *Vocabulary) Index(shingle string) (int, bool) {
	idx, ok := v.index[shingle]
	return idx, ok
}

// Size returns the number of retained shingles.
func (v *Vocabulary) Size() int {
	return len(v.index)
}

// Build scans all documents' shingle sequences and retains the top vocabSize
// shingles whose document frequency (distinct documents containing the
// shingle, not term frequency) is at least minDocFreq. An empty vocabulary is
// valid: downstream stages then yield zero records.
func Build(docShingles [][]string, vocabSize, minDocFreq int) (*Vocabulary, error) {
	if vocabSize <= 0 {
		return nil, fmt.Errorf("vocab size must be positive, got %d", vocabSize)
	}
	if minDocFreq < 1 {
		return nil, fmt.Errorf("min doc freq must be at least 1, got %d", minDocFreq)
	}

	df := make(map[string]int)
	for _, shingles := range docShingles {
		seen := make(map[string]bool, len(shingles))
		for _, s := range shingles {
			if !seen[s] {
				seen[s] = true
				df[s]++
			}
		}
	}

	type entry struct {
		shingle string
		df      int
	}
	entries := make([]entry, 0, len(df))
	for s, n := range df {
		if n >= minDocFreq {
			entries = append(entries, entry{shingle: s, df: n})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].df != entries[j].df {
			return entries[i].df > entries[j].df
		}
		return entries[i].shingle < entries[j].shingle
	})
	if len(entries) > vocabSize {
		entries = entries[:vocabSize]
	}

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.shingle] = i
	}
	return &Vocabulary{index: index}, nil
}
