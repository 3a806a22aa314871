// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ruiji/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS fragments (
		document_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		language TEXT,
		text TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_fragments_document_id ON fragments(document_id);

	CREATE TABLE IF NOT EXISTS neighbors (
		document_id TEXT NOT NULL,
		record_rank INTEGER NOT NULL,
		neighbor_rank INTEGER NOT NULL,
		neighbor_id TEXT NOT NULL,
		jaccard REAL NOT NULL,
		PRIMARY KEY (document_id, neighbor_rank)
	);

	CREATE INDEX IF NOT EXISTS idx_neighbors_record_rank ON neighbors(record_rank);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		similar_distance REAL NOT NULL,
		vocab_size INTEGER NOT NULL,
		ngram_size INTEGER NOT NULL,
		min_doc_freq INTEGER NOT NULL,
		num_hash_functions INTEGER NOT NULL,
		documents INTEGER NOT NULL,
		records INTEGER NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// AddFragment inserts one corpus fragment. Used by corpus loaders and tests;
// the pipeline itself only reads fragments.
func (s *SQLiteStorage) AddFragment(ctx context.Context, f *models.Fragment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fragments (document_id, position, language, text) VALUES (?, ?, ?, ?)`,
		f.DocumentID, f.Position, f.Language, f.Text,
	)
	return err
}

// LoadFragments returns all fragments in corpus (rowid) order.
func (s *SQLiteStorage) LoadFragments(ctx context.Context) ([]models.Fragment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, position, language, text FROM fragments ORDER BY rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fragments []models.Fragment
	for rows.Next() {
		var f models.Fragment
		var language sql.NullString
		var text sql.NullString
		if err := rows.Scan(&f.DocumentID, &f.Position, &language, &text); err != nil {
			return nil, err
		}
		f.Language = language.String
		if text.Valid {
			t := text.String
			f.Text = &t
		}
		fragments = append(fragments, f)
	}
	return fragments, rows.Err()
}

// CountFragments returns the total number of corpus fragments.
func (s *SQLiteStorage) CountFragments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fragments`).Scan(&count)
	return count, err
}

// HasNeighbors reports whether any neighbor output rows exist.
func (s *SQLiteStorage) HasNeighbors(ctx context.Context) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM neighbors LIMIT 1`).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// WriteNeighbors replaces the neighbors table with the given records in one
// transaction. Output is all-or-nothing: on any error the previous contents
// remain untouched. record_rank preserves the aggregator's record order and
// neighbor_rank the within-record order, so reads reproduce the output
// byte-for-byte.
func (s *SQLiteStorage) WriteNeighbors(ctx context.Context, records []models.NeighborRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM neighbors`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO neighbors (document_id, record_rank, neighbor_rank, neighbor_id, jaccard)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for rank, rec := range records {
		for i, n := range rec.Similar {
			if _, err := stmt.ExecContext(ctx, rec.DocumentID, rank, i, n.DocumentID, n.Jaccard); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// GetNeighbors returns the neighbor record for one document.
func (s *SQLiteStorage) GetNeighbors(ctx context.Context, docID string) (*models.NeighborRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT neighbor_id, jaccard FROM neighbors WHERE document_id = ? ORDER BY neighbor_rank`,
		docID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec := &models.NeighborRecord{DocumentID: docID}
	for rows.Next() {
		var n models.Neighbor
		if err := rows.Scan(&n.DocumentID, &n.Jaccard); err != nil {
			return nil, err
		}
		rec.Similar = append(rec.Similar, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(rec.Similar) == 0 {
		return nil, fmt.Errorf("no neighbors for document: %s", docID)
	}
	return rec, nil
}

// ListNeighbors returns neighbor records in stored order with offset and limit.
func (s *SQLiteStorage) ListNeighbors(ctx context.Context, offset, limit int) ([]*models.NeighborRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, neighbor_id, jaccard FROM neighbors
		 WHERE record_rank >= ? AND record_rank < ?
		 ORDER BY record_rank, neighbor_rank`,
		offset, offset+limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.NeighborRecord
	var current *models.NeighborRecord
	for rows.Next() {
		var docID string
		var n models.Neighbor
		if err := rows.Scan(&docID, &n.DocumentID, &n.Jaccard); err != nil {
			return nil, err
		}
		if current == nil || current.DocumentID != docID {
			current = &models.NeighborRecord{DocumentID: docID}
			records = append(records, current)
		}
		current.Similar = append(current.Similar, n)
	}
	return records, rows.Err()
}

// CountRecords returns the number of documents with at least one neighbor.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT document_id) FROM neighbors`).Scan(&count)
	return count, err
}

// RecordRun inserts one completed-run row.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *models.RunInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, similar_distance, vocab_size,
		 ngram_size, min_doc_freq, num_hash_functions, documents, records)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.SimilarDistance, run.VocabSize,
		run.NgramSize, run.MinDocFreq, run.NumHashFunctions, run.Documents, run.Records,
	)
	return err
}

// LastRun returns the most recently finished run, or nil when no run exists.
func (s *SQLiteStorage) LastRun(ctx context.Context) (*models.RunInfo, error) {
	var run models.RunInfo
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, similar_distance, vocab_size,
		 ngram_size, min_doc_freq, num_hash_functions, documents, records
		 FROM runs ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.SimilarDistance, &run.VocabSize,
		&run.NgramSize, &run.MinDocFreq, &run.NumHashFunctions, &run.Documents, &run.Records)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
