package behavior

import (
	"fmt"
	"sort"

	"github.com/banshee-data/drivestyle/internal/cluster"
)

// AggressiveSuffix is appended to the band name of the aggressive group.
const AggressiveSuffix = " + Aggressive"

// ClusterStats summarises one refined group.
type ClusterStats struct {
	Refined int `json:"refined"`
	Count   int `json:"count"`
	// MeanSpeed is the mean of the members' mean speeds, km/h.
	MeanSpeed float64 `json:"mean_speed_kmh"`
	// VariationStd is the sample standard deviation of the members' speed
	// variation; 0 for a single member.
	VariationStd float64 `json:"variation_std"`
}

// Label is the behavior assigned to a refined group.
type Label struct {
	Band       string `json:"band"`
	Aggressive bool   `json:"aggressive"`
}

func (l Label) String() string {
	if l.Aggressive {
		return l.Band + AggressiveSuffix
	}
	return l.Band
}

// AssignLabels names every refined group. Groups are ranked by MeanSpeed,
// fastest first (equal speeds keep the lower refined label first), and
// consecutive ranks are paired: the first pair takes bands[0], the next
// bands[1], and so on. In each pair the group with the strictly larger
// VariationStd is aggressive; on a tie the faster-ranked group is.
//
// There must be exactly two groups per band.
func AssignLabels(stats []ClusterStats, bands []string) (map[int]Label, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: no band names", cluster.ErrInvalidInput)
	}
	if len(stats) != 2*len(bands) {
		return nil, fmt.Errorf("%w: %d refined clusters cannot be paired into %d bands (want %d)",
			cluster.ErrInvalidInput, len(stats), len(bands), 2*len(bands))
	}

	ranked := append([]ClusterStats(nil), stats...)
	seen := make(map[int]bool, len(ranked))
	for _, s := range ranked {
		if seen[s.Refined] {
			return nil, fmt.Errorf("%w: refined label %d listed twice", cluster.ErrInvalidInput, s.Refined)
		}
		seen[s.Refined] = true
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].MeanSpeed != ranked[j].MeanSpeed {
			return ranked[i].MeanSpeed > ranked[j].MeanSpeed
		}
		return ranked[i].Refined < ranked[j].Refined
	})

	labels := make(map[int]Label, len(ranked))
	for b, band := range bands {
		first, second := ranked[2*b], ranked[2*b+1]
		firstAggressive := first.VariationStd >= second.VariationStd
		labels[first.Refined] = Label{Band: band, Aggressive: firstAggressive}
		labels[second.Refined] = Label{Band: band, Aggressive: !firstAggressive}
	}
	return labels, nil
}
