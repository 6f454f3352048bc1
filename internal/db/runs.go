package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/drivestyle/internal/behavior"
	"github.com/banshee-data/drivestyle/internal/features"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run is the stored output of one pipeline run. Runs are records for
// inspection and reporting; they are never loaded back into clustering.
type Run struct {
	RunID       string          `json:"run_id"`
	Method      string          `json:"method"`
	SplitMethod string          `json:"split_method"`
	WindowCount int             `json:"window_count"`
	Warnings    []string        `json:"warnings,omitempty"`
	DurationNs  int64           `json:"duration_ns"`
	CreatedAtNs int64           `json:"created_at_ns"`
	Clusters    []RunCluster    `json:"clusters,omitempty"`
	Assignments []RunAssignment `json:"assignments,omitempty"`
}

// RunCluster is one refined group of a run with its behavior label.
type RunCluster struct {
	behavior.ClusterStats
	behavior.Label
}

// RunAssignment places one window of a run.
type RunAssignment struct {
	RowIndex int             `json:"row_index"`
	Window   features.Window `json:"window"`
	Cluster  int             `json:"cluster"`
	Refined  int             `json:"refined"`
}

// Result rebuilds a pipeline result from a run loaded with GetRun, for
// reporting. Scaled is recomputed from the stored windows; Sizes come from
// the initial cluster labels.
func (r *Run) Result() (*behavior.Result, error) {
	if len(r.Assignments) == 0 {
		return nil, fmt.Errorf("run %s has no assignments", r.RunID)
	}
	res := &behavior.Result{
		Method:      r.Method,
		SplitMethod: r.SplitMethod,
		Windows:     make(features.Table, len(r.Assignments)),
		Clusters:    make([]int, len(r.Assignments)),
		Refined:     make([]int, len(r.Assignments)),
		Labels:      make(map[int]behavior.Label, len(r.Clusters)),
		Warnings:    r.Warnings,
		Duration:    time.Duration(r.DurationNs),
	}
	for i, a := range r.Assignments {
		res.Windows[i] = a.Window
		res.Clusters[i] = a.Cluster
		res.Refined[i] = a.Refined
	}
	for _, c := range r.Clusters {
		res.Stats = append(res.Stats, c.ClusterStats)
		res.Labels[c.Refined] = c.Label
	}
	res.Sizes = behavior.Sizes(res.Clusters)

	scaled, err := features.Standardize(res.Windows.Matrix())
	if err != nil {
		return nil, fmt.Errorf("rebuild run %s: %w", r.RunID, err)
	}
	res.Scaled = scaled
	return res, nil
}

// InsertRun stores a pipeline result and returns the new run id.
func (db *DB) InsertRun(res *behavior.Result) (string, error) {
	runID := uuid.New().String()

	var warnings sql.NullString
	if len(res.Warnings) > 0 {
		b, err := json.Marshal(res.Warnings)
		if err != nil {
			return "", fmt.Errorf("encode warnings: %w", err)
		}
		warnings = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin insert run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, method, split_method, window_count, warnings_json,
			duration_ns, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, res.Method, res.SplitMethod, len(res.Windows), warnings,
		res.Duration.Nanoseconds(), db.nowNs())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, s := range res.Stats {
		l := res.Labels[s.Refined]
		if _, err := tx.Exec(`
			INSERT INTO run_clusters (
				run_id, refined, member_count, mean_speed_kmh, variation_std,
				band, aggressive
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`, runID, s.Refined, s.Count, s.MeanSpeed, s.VariationStd, l.Band, l.Aggressive); err != nil {
			return "", fmt.Errorf("insert run cluster %d: %w", s.Refined, err)
		}
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_assignments (
			run_id, row_index, source, segment, mean_speed_kmh, max_speed_kmh,
			std_accel_x, std_accel_y, stop_time_pct, speed_variation,
			cluster, refined
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("prepare run assignments: %w", err)
	}
	defer stmt.Close()

	for i, w := range res.Windows {
		if _, err := stmt.Exec(
			runID, i, w.Source, w.Segment, w.MeanSpeed, w.MaxSpeed,
			w.StdAccelX, w.StdAccelY, w.StopTimePct, w.SpeedVariation,
			res.Clusters[i], res.Refined[i],
		); err != nil {
			return "", fmt.Errorf("insert run assignment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	logf("stored run %s (%s, %d windows)", runID, res.Method, len(res.Windows))
	return runID, nil
}

// GetRun loads a run with its clusters and assignments.
func (db *DB) GetRun(runID string) (*Run, error) {
	run, err := db.scanRun(db.QueryRow(`
		SELECT run_id, method, split_method, window_count, warnings_json,
		       duration_ns, created_at_ns
		FROM runs
		WHERE run_id = ?
	`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if run.Clusters, err = db.runClusters(runID); err != nil {
		return nil, err
	}
	if run.Assignments, err = db.runAssignments(runID); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs without clusters or assignments.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, method, split_method, window_count, warnings_json,
		       duration_ns, created_at_ns
		FROM runs
		ORDER BY created_at_ns DESC, run_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := db.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRunsBefore removes runs created before t, with their clusters and
// assignments.
func (db *DB) DeleteRunsBefore(t time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM runs WHERE created_at_ns < ?`, t.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanRun(row scanner) (*Run, error) {
	var run Run
	var warnings sql.NullString
	if err := row.Scan(
		&run.RunID, &run.Method, &run.SplitMethod, &run.WindowCount, &warnings,
		&run.DurationNs, &run.CreatedAtNs,
	); err != nil {
		return nil, err
	}
	if warnings.Valid && warnings.String != "" {
		if err := json.Unmarshal([]byte(warnings.String), &run.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	return &run, nil
}

func (db *DB) runClusters(runID string) ([]RunCluster, error) {
	rows, err := db.Query(`
		SELECT refined, member_count, mean_speed_kmh, variation_std, band, aggressive
		FROM run_clusters
		WHERE run_id = ?
		ORDER BY refined
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run clusters: %w", err)
	}
	defer rows.Close()

	var out []RunCluster
	for rows.Next() {
		var c RunCluster
		if err := rows.Scan(&c.Refined, &c.Count, &c.MeanSpeed, &c.VariationStd, &c.Band, &c.Aggressive); err != nil {
			return nil, fmt.Errorf("scan run cluster: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) runAssignments(runID string) ([]RunAssignment, error) {
	rows, err := db.Query(`
		SELECT row_index, source, segment, mean_speed_kmh, max_speed_kmh,
		       std_accel_x, std_accel_y, stop_time_pct, speed_variation,
		       cluster, refined
		FROM run_assignments
		WHERE run_id = ?
		ORDER BY row_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run assignments: %w", err)
	}
	defer rows.Close()

	var out []RunAssignment
	for rows.Next() {
		var a RunAssignment
		w := &a.Window
		if err := rows.Scan(
			&a.RowIndex, &w.Source, &w.Segment, &w.MeanSpeed, &w.MaxSpeed,
			&w.StdAccelX, &w.StdAccelY, &w.StopTimePct, &w.SpeedVariation,
			&a.Cluster, &a.Refined,
		); err != nil {
			return nil, fmt.Errorf("scan run assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
