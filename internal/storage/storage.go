// Package storage defines persistence for the fragment corpus and neighbor output.
package storage

import (
	"context"

	"github.com/hyperjump/ruiji/internal/models"
)

// Storage defines corpus input and neighbor output operations.
type Storage interface {
	// Corpus input
	AddFragment(ctx context.Context, f *models.Fragment) error
	LoadFragments(ctx context.Context) ([]models.Fragment, error)
	CountFragments(ctx context.Context) (int64, error)

	// Neighbor output
	HasNeighbors(ctx context.Context) (bool, error)
	WriteNeighbors(ctx context.Context, records []models.NeighborRecord) error
	GetNeighbors(ctx context.Context, docID string) (*models.NeighborRecord, error)
	ListNeighbors(ctx context.Context, offset, limit int) ([]*models.NeighborRecord, error)
	CountRecords(ctx context.Context) (int64, error)

	// Run bookkeeping
	RecordRun(ctx context.Context, run *models.RunInfo) error
	LastRun(ctx context.Context) (*models.RunInfo, error)

	Close() error
}
