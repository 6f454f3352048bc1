package db

import (
	"fmt"

	"github.com/banshee-data/drivestyle/internal/features"
	"github.com/banshee-data/drivestyle/internal/monitoring"
)

// StoredWindow is a feature window as persisted.
type StoredWindow struct {
	WindowID int64 `json:"window_id"`
	features.Window
	CreatedAtNs int64 `json:"created_at_ns"`
}

// InsertWindows stores windows in one transaction. A window with the same
// source and segment as a stored one replaces it. origin labels the
// ingestion metric ("trip", "import", ...).
func (db *DB) InsertWindows(windows []features.Window, origin string) error {
	if len(windows) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert windows: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO windows (
			source, segment, mean_speed_kmh, max_speed_kmh,
			std_accel_x, std_accel_y, stop_time_pct, speed_variation,
			created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, segment) DO UPDATE SET
			mean_speed_kmh  = excluded.mean_speed_kmh,
			max_speed_kmh   = excluded.max_speed_kmh,
			std_accel_x     = excluded.std_accel_x,
			std_accel_y     = excluded.std_accel_y,
			stop_time_pct   = excluded.stop_time_pct,
			speed_variation = excluded.speed_variation
	`)
	if err != nil {
		return fmt.Errorf("prepare insert windows: %w", err)
	}
	defer stmt.Close()

	now := db.nowNs()
	for _, w := range windows {
		if _, err := stmt.Exec(
			w.Source, w.Segment, w.MeanSpeed, w.MaxSpeed,
			w.StdAccelX, w.StdAccelY, w.StopTimePct, w.SpeedVariation,
			now,
		); err != nil {
			return fmt.Errorf("insert window %s/%d: %w", w.Source, w.Segment, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert windows: %w", err)
	}
	monitoring.WindowsIngestedTotal.WithLabelValues(origin).Add(float64(len(windows)))
	logf("stored %d windows (%s)", len(windows), origin)
	return nil
}

// ListWindows returns the historical feature table in insertion order.
func (db *DB) ListWindows() (features.Table, error) {
	stored, err := db.ListStoredWindows(0, 0)
	if err != nil {
		return nil, err
	}
	table := make(features.Table, len(stored))
	for i, s := range stored {
		table[i] = s.Window
	}
	return table, nil
}

// ListStoredWindows returns stored windows in insertion order. A limit of 0
// returns everything from offset.
func (db *DB) ListStoredWindows(limit, offset int) ([]StoredWindow, error) {
	query := `
		SELECT window_id, source, segment, mean_speed_kmh, max_speed_kmh,
		       std_accel_x, std_accel_y, stop_time_pct, speed_variation,
		       created_at_ns
		FROM windows
		ORDER BY window_id
		LIMIT ? OFFSET ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	defer rows.Close()

	var out []StoredWindow
	for rows.Next() {
		var s StoredWindow
		if err := rows.Scan(
			&s.WindowID, &s.Source, &s.Segment, &s.MeanSpeed, &s.MaxSpeed,
			&s.StdAccelX, &s.StdAccelY, &s.StopTimePct, &s.SpeedVariation,
			&s.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountWindows returns the number of stored windows.
func (db *DB) CountWindows() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM windows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count windows: %w", err)
	}
	return n, nil
}

// DeleteSource removes every window recorded from source and returns how
// many were deleted.
func (db *DB) DeleteSource(source string) (int64, error) {
	res, err := db.Exec(`DELETE FROM windows WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("delete windows for %s: %w", source, err)
	}
	return res.RowsAffected()
}
