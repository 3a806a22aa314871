// Package assemble builds one text blob per document from ordered corpus fragments.
package assemble

import (
	"sort"
	"strings"

	"github.com/hyperjump/ruiji/internal/models"
)

// nonCodeLanguages are fragment language tags whose content is commentary or
// markup rather than comparable document content.
var nonCodeLanguages = map[string]bool{
	"md":       true,
	"markdown": true,
}

type part struct {
	position int
	ordinal  int
	text     string
}

// Assemble filters, groups, orders, and concatenates fragments into documents.
// Fragments with a non-code language tag or absent text are discarded. Retained
// fragments are grouped by document id and sorted by position; equal positions
// keep their original corpus order. Texts are joined with a single space and
// the result is trimmed. Documents with no retained fragment are excluded,
// which is expected for markup-only documents, not an error. Output order is
// the first-seen order of document ids, so assembly is deterministic.
func Assemble(fragments []models.Fragment) []models.Document {
	parts := make(map[string][]part)
	var order []string
	for i, f := range fragments {
		if f.Text == nil || nonCodeLanguages[strings.ToLower(f.Language)] {
			continue
		}
		if _, ok := parts[f.DocumentID]; !ok {
			order = append(order, f.DocumentID)
		}
		parts[f.DocumentID] = append(parts[f.DocumentID], part{position: f.Position, ordinal: i, text: *f.Text})
	}

	docs := make([]models.Document, 0, len(order))
	for _, id := range order {
		ps := parts[id]
		sort.SliceStable(ps, func(i, j int) bool {
			if ps[i].position != ps[j].position {
				return ps[i].position < ps[j].position
			}
			return ps[i].ordinal < ps[j].ordinal
		})
		texts := make([]string, len(ps))
		for i, p := range ps {
			texts[i] = p.text
		}
		docs = append(docs, models.Document{
			ID:   id,
			Text: strings.TrimSpace(strings.Join(texts, " ")),
		})
	}
	return docs
}
