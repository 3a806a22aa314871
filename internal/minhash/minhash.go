// Package minhash computes fixed-length MinHash signatures over sparse
// feature vectors using an explicit seeded universal hash family.
package minhash

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand"

	"github.com/hyperjump/ruiji/internal/vectorize"
)

// mersennePrime is 2^61-1, the modulus of the universal hash family.
const mersennePrime = (1 << 61) - 1

// Family is a deterministic universal hash family h_i(x) = (a_i*x + b_i) mod p
// over the Mersenne prime p = 2^61-1. Component i of a signature is the
// minimum of h_i over the vector's present indices, so the expected fraction
// of matching components between two signatures equals the Jaccard similarity
// of the underlying index sets.
type Family struct {
	a []uint64
	b []uint64
}

// NewFamily derives numHashes coefficient pairs from seed. The same seed
// always yields the same family, so signatures are byte-identical across runs
// and across parallel workers.
func NewFamily(numHashes int, seed int64) (*Family, error) {
	if numHashes <= 0 {
		return nil, fmt.Errorf("number of hash functions must be positive, got %d", numHashes)
	}
	rng := rand.New(rand.NewSource(seed))
	a := make([]uint64, numHashes)
	b := make([]uint64, numHashes)
	for i := range a {
		// a must be non-zero for the family to be universal.
		a[i] = uint64(rng.Int63n(mersennePrime-1)) + 1
		b[i] = uint64(rng.Int63n(mersennePrime))
	}
	return &Family{a: a, b: b}, nil
}

// Size returns the number of hash functions in the family.
func (f *Family) Size() int {
	return len(f.a)
}

// hash applies hash function i to x. The 128-bit product a*x is reduced
// modulo 2^61-1 by folding: 2^64 ≡ 8 and 2^61 ≡ 1 (mod p), so
// hi*2^64 + lo ≡ hi*8 + (lo>>61) + (lo & p). Each term is below 2^61, so the
// sum plus b fits in a uint64.
func (f *Family) hash(i int, x uint64) uint64 {
	hi, lo := bits.Mul64(f.a[i], x%mersennePrime)
	s := hi*8 + (lo >> 61) + (lo & mersennePrime) + f.b[i]
	for s >= mersennePrime {
		s -= mersennePrime
	}
	return s
}

// Signature returns the MinHash signature of the vector's support set:
// component i is the minimum of hash i across all present indices. A vector
// with a single non-zero index produces a valid signature. The result for an
// empty vector is all-max and meaningless; callers must drop zero vectors
// before signing.
func (f *Family) Signature(vec vectorize.Vector) []uint64 {
	sig := make([]uint64, len(f.a))
	for i := range sig {
		sig[i] = math.MaxUint64
	}
	for idx := range vec {
		x := uint64(idx)
		for i := range sig {
			if h := f.hash(i, x); h < sig[i] {
				sig[i] = h
			}
		}
	}
	return sig
}
