package history

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/heatmiser-bridge/internal/bridges/heatmiser"
	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/database"
)

// pruneEvery is how many inserts pass between opportunistic prunes.
// Pruning on every insert would hammer the single-writer database for
// no benefit at thermostat data rates.
const pruneEvery = 100

// Repository persists zone and hot water state history to SQLite.
//
// It implements heatmiser.StateRecorder. Writes are bounded by the
// caller's context; the bridge treats them as best-effort.
//
// Thread Safety: safe for concurrent use; the underlying database pool
// serializes writers.
type Repository struct {
	db      *database.DB
	maxRows int

	inserts atomic.Uint64
}

// NewRepository creates a repository over an open database.
//
// Parameters:
//   - db: Open database handle (migrations already applied)
//   - maxRows: Cap on history rows per table; 0 disables pruning
func NewRepository(db *database.DB, maxRows int) *Repository {
	return &Repository{db: db, maxRows: maxRows}
}

// RecordZoneState inserts one zone state observation.
func (r *Repository) RecordZoneState(ctx context.Context, zone string, state heatmiser.ZoneState, source string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO state_history (zone, temperature, target, mode, action, source, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		zone, state.Temperature, state.Target, string(state.Mode), string(state.Action),
		source, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting zone state: %w", err)
	}

	r.maybePrune(ctx)
	return nil
}

// RecordHotWater inserts one hot water state observation.
func (r *Repository) RecordHotWater(ctx context.Context, state string, source string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO hotwater_history (hw_state, source, recorded_at)
		VALUES (?, ?, ?)`,
		state, source, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting hot water state: %w", err)
	}

	r.maybePrune(ctx)
	return nil
}

// ZoneRecord is one persisted zone state observation.
type ZoneRecord struct {
	Zone        string  `json:"zone"`
	Temperature float64 `json:"temperature"`
	Target      int     `json:"target"`
	Mode        string  `json:"mode"`
	Action      string  `json:"action"`
	Source      string  `json:"source"`
	RecordedAt  string  `json:"recorded_at"`
}

// RecentZoneStates returns the newest observations for a zone, newest
// first. An empty zone returns observations across all zones.
func (r *Repository) RecentZoneStates(ctx context.Context, zone string, limit int) ([]ZoneRecord, error) {
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT zone, temperature, target, mode, action, source, recorded_at
		FROM state_history`
	args := []any{}
	if zone != "" {
		query += ` WHERE zone = ?`
		args = append(args, zone)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying zone history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var records []ZoneRecord
	for rows.Next() {
		var rec ZoneRecord
		if err := rows.Scan(&rec.Zone, &rec.Temperature, &rec.Target, &rec.Mode,
			&rec.Action, &rec.Source, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning zone history row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune trims both history tables back to the configured row cap,
// discarding the oldest rows first.
func (r *Repository) Prune(ctx context.Context) error {
	if r.maxRows <= 0 {
		return nil
	}

	for _, table := range []string{"state_history", "hotwater_history"} {
		_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
			DELETE FROM %s WHERE id NOT IN (
				SELECT id FROM %s ORDER BY id DESC LIMIT ?
			)`, table, table), r.maxRows)
		if err != nil {
			return fmt.Errorf("pruning %s: %w", table, err)
		}
	}
	return nil
}

// maybePrune runs Prune on every pruneEvery-th insert. Prune failures
// are swallowed; the next insert tries again.
func (r *Repository) maybePrune(ctx context.Context) {
	if r.maxRows <= 0 {
		return
	}
	if r.inserts.Add(1)%pruneEvery != 0 {
		return
	}
	r.Prune(ctx) //nolint:errcheck // Best effort, retried on later inserts
}
