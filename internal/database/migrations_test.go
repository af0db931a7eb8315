package database

import (
	"testing"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	conn, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer conn.Close()

	m := NewMigrationManager(conn)
	if err := m.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}

	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	applied, err := m.GetAppliedMigrations()
	if err != nil {
		t.Fatalf("GetAppliedMigrations() error = %v", err)
	}
	if len(applied) != len(migrations) {
		t.Fatalf("applied %d migrations, want %d", len(applied), len(migrations))
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version >= migrations[i].Version {
			t.Fatalf("migrations not sorted: %d before %d", migrations[i-1].Version, migrations[i].Version)
		}
	}

	for _, table := range []string{"sessions", "location_samples", "field_samples", "weather_samples", "heart_rate_samples", "analysis_tasks", "zone_cells"} {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
