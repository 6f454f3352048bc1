package behavior

import (
	"github.com/banshee-data/drivestyle/internal/features"
)

// Classification places one trip among the historical windows.
type Classification struct {
	Target features.Window `json:"target"`
	// Index is the target's row in Result.Windows.
	Index int `json:"index"`
	// Duplicate is set when the target already existed in the history; the
	// first matching row is used and nothing is appended.
	Duplicate bool    `json:"duplicate"`
	Cluster   int     `json:"cluster"`
	Refined   int     `json:"refined"`
	Label     Label   `json:"label"`
	Result    *Result `json:"result"`
}

// Classify runs the pipeline over history plus target and reports where the
// target landed. history is not modified.
func (p *Pipeline) Classify(history features.Table, target features.Window) (*Classification, error) {
	table := history
	idx := history.IndexOf(target)
	duplicate := idx >= 0
	if !duplicate {
		table = make(features.Table, 0, len(history)+1)
		table = append(table, history...)
		table = append(table, target)
		idx = len(table) - 1
	}

	res, err := p.Run(table)
	if err != nil {
		return nil, err
	}
	logf("classified %s as %q (cluster %d, refined %d, duplicate=%t)",
		target.Source, res.LabelOf(idx).String(), res.Clusters[idx], res.Refined[idx], duplicate)

	return &Classification{
		Target:    table[idx],
		Index:     idx,
		Duplicate: duplicate,
		Cluster:   res.Clusters[idx],
		Refined:   res.Refined[idx],
		Label:     res.LabelOf(idx),
		Result:    res,
	}, nil
}
