// Package models defines core data structures for corpus fragments, assembled
// documents, and neighbor records.
package models

import "time"

// Fragment is one raw piece of document content as stored in the corpus.
// Text is nullable: fragments without text are discarded during assembly.
type Fragment struct {
	DocumentID string  `json:"document_id" db:"document_id"`
	Position   int     `json:"position" db:"position"`
	Language   string  `json:"language" db:"language"`
	Text       *string `json:"text" db:"text"`
}

// Document is an assembled document: all retained fragments of one document
// joined in position order. Immutable once built.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Neighbor is one similar document together with its estimated Jaccard
// distance (distance, not similarity: 0 means identical signatures).
type Neighbor struct {
	Jaccard    float64 `json:"jaccard"`
	DocumentID string  `json:"document_id"`
}

// NeighborRecord lists the qualifying neighbors of one source document,
// closest first. Documents without qualifying neighbors have no record.
type NeighborRecord struct {
	DocumentID string     `json:"document_id"`
	Similar    []Neighbor `json:"similar"`
}

// RunInfo describes one completed pipeline run and the parameters it used.
type RunInfo struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	SimilarDistance  float64   `json:"similar_distance"`
	VocabSize        int       `json:"vocab_size"`
	NgramSize        int       `json:"ngram_size"`
	MinDocFreq       int       `json:"min_doc_freq"`
	NumHashFunctions int       `json:"num_hash_functions"`
	Documents        int       `json:"documents"`
	Records          int       `json:"records"`
}
