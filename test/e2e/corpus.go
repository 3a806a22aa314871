// Package e2e provides end-to-end tests that run the full pipeline against a
// SQLite-backed corpus.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/ruiji/internal/models"
)

// CorpusSpec describes one generated document: its id, the token range it
// draws content from, and how many cells the content is split into.
type CorpusSpec struct {
	ID         string
	FirstToken int
	NumTokens  int
	Cells      int
}

// BuildFragments expands specs into corpus fragments. Each document's tokens
// are split across Cells code fragments, and every document also gets one
// markdown fragment and one empty fragment that assembly must discard.
// Fragment order is shuffled deterministically (markdown first, cells in
// reverse position order) so tests exercise position sorting.
func BuildFragments(specs []CorpusSpec) []models.Fragment {
	var fragments []models.Fragment
	for _, spec := range specs {
		heading := fmt.Sprintf("# %s", spec.ID)
		fragments = append(fragments, models.Fragment{
			DocumentID: spec.ID, Position: 0, Language: "md", Text: &heading,
		})
		fragments = append(fragments, models.Fragment{
			DocumentID: spec.ID, Position: 1, Language: "py", Text: nil,
		})

		cells := splitTokens(spec.FirstToken, spec.NumTokens, spec.Cells)
		for i := len(cells) - 1; i >= 0; i-- {
			text := cells[i]
			fragments = append(fragments, models.Fragment{
				DocumentID: spec.ID, Position: 2 + i, Language: "py", Text: &text,
			})
		}
	}
	return fragments
}

func splitTokens(first, n, cells int) []string {
	if cells < 1 {
		cells = 1
	}
	per := n / cells
	if per < 1 {
		per = 1
	}
	var out []string
	for start := first; start < first+n; start += per {
		end := start + per
		if end > first+n {
			end = first + n
		}
		var b strings.Builder
		for i := start; i < end; i++ {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "tok%03d", i)
		}
		out = append(out, b.String())
	}
	return out
}
