package optimizer

import (
	"sort"

	"github.com/emsctl/sunpura/internal/pkg/model"
)

// sortQuarters orders quarters by their position in the 24h window beginning
// at windowStart, so a curve crossing midnight keeps its natural order.
func sortQuarters(quarters []model.Quarter, windowStart model.Quarter) {
	sort.Slice(quarters, func(i, j int) bool {
		return quarters[i].Index(windowStart) < quarters[j].Index(windowStart)
	})
}

// groupConsecutive splits a sorted quarter list into maximal runs of strictly
// consecutive quarters. A gap of a single quarter starts a new run.
func groupConsecutive(quarters []model.Quarter) [][]model.Quarter {
	if len(quarters) == 0 {
		return nil
	}
	groups := [][]model.Quarter{}
	current := []model.Quarter{quarters[0]}
	for _, q := range quarters[1:] {
		if q == current[len(current)-1].Next() {
			current = append(current, q)
		} else {
			groups = append(groups, current)
			current = []model.Quarter{q}
		}
	}
	return append(groups, current)
}

// dedupe drops duplicate quarters, keeping first occurrence order.
func dedupe(quarters []model.Quarter) []model.Quarter {
	seen := make(map[model.Quarter]struct{}, len(quarters))
	out := quarters[:0]
	for _, q := range quarters {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
