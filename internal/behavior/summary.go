package behavior

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/drivestyle/internal/cluster"
	"github.com/banshee-data/drivestyle/internal/features"
)

// ClusterSize is the member count of one cluster label.
type ClusterSize struct {
	Label int `json:"label"`
	Count int `json:"count"`
}

// Sizes counts members per label, ascending by label.
func Sizes(labels []int) []ClusterSize {
	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}
	out := make([]ClusterSize, 0, len(counts))
	for l, c := range counts {
		out = append(out, ClusterSize{Label: l, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Summarize computes ClusterStats for every refined label present, ascending
// by refined label. Statistics use the unstandardized window features.
func Summarize(table features.Table, refined []int) ([]ClusterStats, error) {
	if len(table) != len(refined) {
		return nil, fmt.Errorf("%w: %d windows but %d labels", cluster.ErrInvalidInput, len(table), len(refined))
	}

	speeds := make(map[int][]float64)
	variations := make(map[int][]float64)
	for i, l := range refined {
		speeds[l] = append(speeds[l], table[i].MeanSpeed)
		variations[l] = append(variations[l], table[i].SpeedVariation)
	}

	out := make([]ClusterStats, 0, len(speeds))
	for l, s := range speeds {
		st := ClusterStats{
			Refined:   l,
			Count:     len(s),
			MeanSpeed: stat.Mean(s, nil),
		}
		if len(s) > 1 {
			st.VariationStd = stat.StdDev(variations[l], nil)
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Refined < out[j].Refined })
	return out, nil
}
