package behavior

import (
	"fmt"
	"sort"

	"github.com/banshee-data/drivestyle/internal/cluster"
)

// Refinement is the output of Recluster.
type Refinement struct {
	// Refined holds initial*2 + sub for every point, aligned with the input.
	Refined []int
	// Degenerate lists, ascending, the initial labels whose split left one
	// side empty.
	Degenerate []int
	// Warnings holds one error wrapping cluster.ErrDegenerateSplit per
	// entry of Degenerate.
	Warnings []error
}

// Recluster splits every initial cluster into two with splitter. Clusters are
// processed in ascending label order. A single-point cluster is not passed to
// the splitter and maps to sub-label 0; any split that leaves one side empty
// is reported in Degenerate and Warnings rather than failing.
func Recluster(points [][]float64, initial []int, splitter cluster.Clusterer) (*Refinement, error) {
	if splitter == nil {
		return nil, fmt.Errorf("%w: no splitter", cluster.ErrInvalidInput)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty dataset", cluster.ErrInvalidInput)
	}
	if len(points) != len(initial) {
		return nil, fmt.Errorf("%w: %d points but %d labels", cluster.ErrInvalidInput, len(points), len(initial))
	}

	members := make(map[int][]int)
	for i, l := range initial {
		if l < 0 {
			return nil, fmt.Errorf("%w: point %d has negative label %d", cluster.ErrInvalidInput, i, l)
		}
		members[l] = append(members[l], i)
	}
	order := make([]int, 0, len(members))
	for l := range members {
		order = append(order, l)
	}
	sort.Ints(order)

	out := &Refinement{Refined: make([]int, len(points))}
	for _, label := range order {
		idx := members[label]

		sub := make([]int, len(idx))
		if len(idx) > 1 {
			rows := make([][]float64, len(idx))
			for j, i := range idx {
				rows[j] = points[i]
			}
			var err error
			if sub, err = splitter.Labels(rows); err != nil {
				return nil, fmt.Errorf("split cluster %d with %s: %w", label, splitter.Name(), err)
			}
			if len(sub) != len(idx) {
				return nil, fmt.Errorf("split cluster %d: %s returned %d labels for %d points",
					label, splitter.Name(), len(sub), len(idx))
			}
		}

		var sizes [2]int
		for j, s := range sub {
			if s != 0 && s != 1 {
				return nil, fmt.Errorf("split cluster %d: %s returned sub-label %d", label, splitter.Name(), s)
			}
			sizes[s]++
			out.Refined[idx[j]] = label*2 + s
		}
		if sizes[0] == 0 || sizes[1] == 0 {
			out.Degenerate = append(out.Degenerate, label)
			out.Warnings = append(out.Warnings,
				fmt.Errorf("cluster %d (%d points): %w", label, len(idx), cluster.ErrDegenerateSplit))
		}
	}
	return out, nil
}
