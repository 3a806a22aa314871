// Package shingle turns assembled document text into token n-gram features.
package shingle

import "strings"

// Tokenize splits text on Unicode whitespace. Deterministic and locale-independent.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Ngrams returns the overlapping windows of n consecutive tokens, each joined
// by a single space, in original order. Fewer than n tokens yields nil, which
// is valid for trivial documents and propagates as empty downstream.
func Ngrams(tokens []string, n int) []string {
	if n < 1 || len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

// Shingles tokenizes text and returns its n-grams.
func Shingles(text string, n int) []string {
	return Ngrams(Tokenize(text), n)
}
