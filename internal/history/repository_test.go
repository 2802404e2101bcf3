package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/heatmiser-bridge/internal/bridges/heatmiser"
	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/database"
	_ "github.com/nerrad567/heatmiser-bridge/migrations"
)

// openTestRepo creates a migrated database in a temp directory.
func openTestRepo(t *testing.T, maxRows int) *Repository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return NewRepository(db, maxRows)
}

func TestRecordAndQueryZoneState(t *testing.T) {
	repo := openTestRepo(t, 0)
	ctx := context.Background()

	states := []heatmiser.ZoneState{
		{Temperature: 18.5, Target: 20, Mode: heatmiser.ModeHeat, Action: heatmiser.ActionHeating},
		{Temperature: 19.9, Target: 20, Mode: heatmiser.ModeHeat, Action: heatmiser.ActionIdle},
	}
	for _, s := range states {
		if err := repo.RecordZoneState(ctx, "lounge", s, "poll"); err != nil {
			t.Fatalf("RecordZoneState() error = %v", err)
		}
	}
	if err := repo.RecordZoneState(ctx, "hall", heatmiser.ZoneState{
		Temperature: 17.0, Target: 19, Mode: heatmiser.ModeOff, Action: heatmiser.ActionIdle,
	}, "command"); err != nil {
		t.Fatalf("RecordZoneState() error = %v", err)
	}

	records, err := repo.RecentZoneStates(ctx, "lounge", 10)
	if err != nil {
		t.Fatalf("RecentZoneStates() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("RecentZoneStates() returned %d records, want 2", len(records))
	}

	// Newest first.
	if records[0].Temperature != 19.9 || records[0].Action != "idle" {
		t.Errorf("newest record = %+v, want the idle observation", records[0])
	}
	if records[1].Mode != "heat" || records[1].Source != "poll" {
		t.Errorf("older record = %+v", records[1])
	}

	all, err := repo.RecentZoneStates(ctx, "", 10)
	if err != nil {
		t.Fatalf("RecentZoneStates(all) error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("RecentZoneStates(all) returned %d records, want 3", len(all))
	}
}

func TestRecordHotWater(t *testing.T) {
	repo := openTestRepo(t, 0)
	ctx := context.Background()

	if err := repo.RecordHotWater(ctx, "ON", "command"); err != nil {
		t.Fatalf("RecordHotWater() error = %v", err)
	}

	var state, source string
	row := repo.db.QueryRowContext(ctx, `SELECT hw_state, source FROM hotwater_history`)
	if err := row.Scan(&state, &source); err != nil {
		t.Fatalf("scanning hot water row: %v", err)
	}
	if state != "ON" || source != "command" {
		t.Errorf("hot water row = (%q, %q), want (ON, command)", state, source)
	}
}

func TestPruneCapsTables(t *testing.T) {
	repo := openTestRepo(t, 5)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if err := repo.RecordZoneState(ctx, "lounge", heatmiser.ZoneState{
			Temperature: float64(i), Target: 20, Mode: heatmiser.ModeHeat, Action: heatmiser.ActionIdle,
		}, "poll"); err != nil {
			t.Fatalf("RecordZoneState() error = %v", err)
		}
	}

	if err := repo.Prune(ctx); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	records, err := repo.RecentZoneStates(ctx, "lounge", 100)
	if err != nil {
		t.Fatalf("RecentZoneStates() error = %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("after prune: %d records, want 5", len(records))
	}
	// The survivors are the newest rows.
	if records[0].Temperature != 11 {
		t.Errorf("newest surviving temperature = %v, want 11", records[0].Temperature)
	}
	if records[4].Temperature != 7 {
		t.Errorf("oldest surviving temperature = %v, want 7", records[4].Temperature)
	}
}

func TestPruneDisabled(t *testing.T) {
	repo := openTestRepo(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.RecordHotWater(ctx, "OFF", "poll"); err != nil {
			t.Fatalf("RecordHotWater() error = %v", err)
		}
	}

	if err := repo.Prune(ctx); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	var count int
	row := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hotwater_history`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 3 {
		t.Errorf("row count = %d, want 3 (pruning disabled)", count)
	}
}
