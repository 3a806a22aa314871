// Package cli provides CLI output helpers for ruiji.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/ruiji/internal/models"
)

// OutputFormat is the format for neighbor record output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteNeighborRecords writes neighbor records to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteNeighborRecords(w io.Writer, records []*models.NeighborRecord, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	default:
		writeNeighborRecordsText(w, records)
		return nil
	}
}

func writeNeighborRecordsText(w io.Writer, records []*models.NeighborRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No similar documents found.")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Document: %s (%d similar)\n", rec.DocumentID, len(rec.Similar))
		for _, n := range rec.Similar {
			fmt.Fprintf(w, "  distance %.4f  %s\n", n.Jaccard, n.DocumentID)
		}
	}
}
