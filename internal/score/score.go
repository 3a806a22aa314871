// Package score turns candidate pairs into per-document neighbor records.
package score

import (
	"sort"

	"github.com/hyperjump/ruiji/internal/lsh"
	"github.com/hyperjump/ruiji/internal/models"
)

// Distance returns the estimated Jaccard distance between two signatures:
// 1 minus the fraction of matching components. Symmetric by construction.
func Distance(a, b []uint64) float64 {
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return 1 - float64(matches)/float64(len(a))
}

// Aggregate scores every candidate pair, keeps pairs with distance at most
// maxDistance (inclusive), drops self-pairs (equal document ids can reach
// this stage when the corpus holds duplicate ids), and emits both directions
// of each surviving pair. Contributions are grouped by source document:
// within a group, neighbors are sorted by ascending distance (ties by
// neighbor id); groups are ordered by descending neighbor count (ties by
// source id). The tie-breaks keep output byte-stable across runs. Documents
// with no qualifying neighbor produce no record.
func Aggregate(ids []string, signatures [][]uint64, pairs []lsh.Pair, maxDistance float64) []models.NeighborRecord {
	bySource := make(map[string][]models.Neighbor)
	for _, p := range pairs {
		if ids[p.I] == ids[p.J] {
			continue
		}
		d := Distance(signatures[p.I], signatures[p.J])
		if d > maxDistance {
			continue
		}
		bySource[ids[p.I]] = append(bySource[ids[p.I]], models.Neighbor{Jaccard: d, DocumentID: ids[p.J]})
		bySource[ids[p.J]] = append(bySource[ids[p.J]], models.Neighbor{Jaccard: d, DocumentID: ids[p.I]})
	}

	records := make([]models.NeighborRecord, 0, len(bySource))
	for id, neighbors := range bySource {
		sort.SliceStable(neighbors, func(i, j int) bool {
			if neighbors[i].Jaccard != neighbors[j].Jaccard {
				return neighbors[i].Jaccard < neighbors[j].Jaccard
			}
			return neighbors[i].DocumentID < neighbors[j].DocumentID
		})
		records = append(records, models.NeighborRecord{DocumentID: id, Similar: neighbors})
	}
	sort.SliceStable(records, func(i, j int) bool {
		if len(records[i].Similar) != len(records[j].Similar) {
			return len(records[i].Similar) > len(records[j].Similar)
		}
		return records[i].DocumentID < records[j].DocumentID
	})
	return records
}
