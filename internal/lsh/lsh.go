// Package lsh generates candidate document pairs by banded signature hashing.
package lsh

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Pair is an unordered candidate pair of document positions, with I < J.
type Pair struct {
	I int
	J int
}

// Candidates partitions each signature into bands of rowsPerBand consecutive
// components, buckets documents by the hash of each band, and returns every
// pair of documents sharing at least one bucket. Pairs are deduplicated,
// never pair a position with itself, and are returned sorted by (I, J) so
// downstream order does not depend on map iteration.
//
// With b bands of r rows, a pair with Jaccard similarity s becomes a
// candidate with probability 1-(1-s^r)^b. The default configuration r=1,
// b=numHashFunctions mirrors the OR-amplification of per-table MinHash
// bucketing: misses for similar pairs are bounded by (1-s)^b.
func Candidates(signatures [][]uint64, rowsPerBand int) ([]Pair, error) {
	if rowsPerBand <= 0 {
		return nil, fmt.Errorf("rows per band must be positive, got %d", rowsPerBand)
	}
	if len(signatures) == 0 {
		return nil, nil
	}
	sigLen := len(signatures[0])
	if sigLen%rowsPerBand != 0 {
		return nil, fmt.Errorf("rows per band %d does not divide signature length %d", rowsPerBand, sigLen)
	}
	numBands := sigLen / rowsPerBand

	pairs := make(map[Pair]struct{})
	var key [8]byte
	for band := 0; band < numBands; band++ {
		buckets := make(map[uint64][]int)
		for doc, sig := range signatures {
			h := xxhash.New()
			binary.LittleEndian.PutUint64(key[:], uint64(band))
			_, _ = h.Write(key[:])
			for row := band * rowsPerBand; row < (band+1)*rowsPerBand; row++ {
				binary.LittleEndian.PutUint64(key[:], sig[row])
				_, _ = h.Write(key[:])
			}
			bucket := h.Sum64()
			buckets[bucket] = append(buckets[bucket], doc)
		}
		for _, docs := range buckets {
			for i := 0; i < len(docs); i++ {
				for j := i + 1; j < len(docs); j++ {
					pairs[Pair{I: docs[i], J: docs[j]}] = struct{}{}
				}
			}
		}
	}

	out := make([]Pair, 0, len(pairs))
	for p := range pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].I != out[j].I {
			return out[i].I < out[j].I
		}
		return out[i].J < out[j].J
	})
	return out, nil
}
