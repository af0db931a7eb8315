package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jengzang/emf-backend-go/internal/database"
	"github.com/jengzang/emf-backend-go/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func createSession(t *testing.T, repo *SessionRepository, id, user, ts string) {
	t.Helper()
	s := &models.Session{ID: id, UserID: user, Timestamp: ts, Status: models.SessionStatusRecording}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("Create(%s) error = %v", id, err)
	}
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(openTestDB(t))

	createSession(t, repo, "s1", "u1", "2024-05-01T10:00:00Z")
	createSession(t, repo, "s2", "u1", "2024-05-02T10:00:00Z")
	createSession(t, repo, "s3", "u2", "2024-05-03T10:00:00Z")

	got, err := repo.GetByID(ctx, "s2")
	if err != nil {
		t.Fatalf("GetByID(s2) error = %v", err)
	}
	if got.UserID != "u1" || got.Status != models.SessionStatusRecording {
		t.Errorf("GetByID(s2) = %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}

	list, total, err := repo.List(ctx, models.SessionFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(list) != 2 || list[0].ID != "s2" || list[1].ID != "s1" {
		t.Fatalf("List(u1) = %d sessions (total %d), want s2, s1", len(list), total)
	}

	if err := repo.IncrementTotal(ctx, "s1", 5); err != nil {
		t.Fatalf("IncrementTotal() error = %v", err)
	}
	if err := repo.UpdateStatus(ctx, "s1", models.SessionStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	got, _ = repo.GetByID(ctx, "s1")
	if got.TotalSamples != 5 || got.Status != models.SessionStatusCompleted {
		t.Errorf("after update = %+v, want 5 samples completed", got)
	}

	up := &models.Session{ID: "s1", UserID: "u1", Timestamp: "t", Status: "recording", TotalSamples: 9}
	if err := repo.Upsert(ctx, up); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	got, _ = repo.GetByID(ctx, "s1")
	if got.TotalSamples != 9 || got.Timestamp != "t" {
		t.Errorf("after upsert = %+v", got)
	}
}

func TestSampleRepositoryCursor(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	repo := NewSampleRepository(db)
	createSession(t, sessions, "s1", "u1", "t")
	createSession(t, sessions, "s2", "u1", "t")

	acc := 12.0
	first := []models.LocationSample{
		{Seconds: 0, Latitude: 53.35, Longitude: -6.26, HorizontalAccuracy: &acc},
		{Seconds: 10, Latitude: 53.36, Longitude: -6.27},
	}
	if err := repo.AppendLocations(ctx, "s1", first); err != nil {
		t.Fatalf("AppendLocations() error = %v", err)
	}
	if err := repo.AppendFields(ctx, "s1", []models.FieldSample{{Seconds: 1, X: 3, Y: 4}}); err != nil {
		t.Fatalf("AppendFields() error = %v", err)
	}
	if err := repo.AppendFields(ctx, "s2", []models.FieldSample{{Seconds: 1}}); err != nil {
		t.Fatalf("AppendFields(s2) error = %v", err)
	}

	batch, cur, err := repo.LoadSince(ctx, "s1", Cursor{})
	if err != nil {
		t.Fatalf("LoadSince() error = %v", err)
	}
	if len(batch.Locations) != 2 || len(batch.Fields) != 1 || batch.Len() != 3 {
		t.Fatalf("LoadSince() batch = %+v", batch)
	}
	if batch.Locations[0].HorizontalAccuracy == nil || *batch.Locations[0].HorizontalAccuracy != 12 {
		t.Errorf("accuracy round trip = %v, want 12", batch.Locations[0].HorizontalAccuracy)
	}
	if batch.Locations[1].HorizontalAccuracy != nil {
		t.Errorf("unknown accuracy round trip = %v, want nil", *batch.Locations[1].HorizontalAccuracy)
	}

	batch, cur2, err := repo.LoadSince(ctx, "s1", cur)
	if err != nil {
		t.Fatalf("LoadSince(cursor) error = %v", err)
	}
	if batch.Len() != 0 || cur2 != cur {
		t.Fatalf("LoadSince(cursor) = %d samples, cursor %+v, want nothing new", batch.Len(), cur2)
	}

	temp := 0.0
	if err := repo.AppendWeather(ctx, "s1", []models.WeatherSample{{Latitude: 1, Longitude: 2, Temperature: &temp, Condition: "Clear"}}); err != nil {
		t.Fatalf("AppendWeather() error = %v", err)
	}
	if err := repo.AppendHeartRate(ctx, "s1", []models.HeartRateSample{{Seconds: 3, BPM: 80}}); err != nil {
		t.Fatalf("AppendHeartRate() error = %v", err)
	}
	if err := repo.AppendLocations(ctx, "s1", []models.LocationSample{{Seconds: 20, Latitude: 1, Longitude: 1}}); err != nil {
		t.Fatalf("AppendLocations() error = %v", err)
	}

	batch, _, err = repo.LoadSince(ctx, "s1", cur)
	if err != nil {
		t.Fatalf("LoadSince(cursor) error = %v", err)
	}
	if len(batch.Locations) != 1 || batch.Locations[0].Seconds != 20 {
		t.Errorf("new locations = %+v, want only seconds 20", batch.Locations)
	}
	if len(batch.Weather) != 1 || batch.Weather[0].Temperature == nil || *batch.Weather[0].Temperature != 0 || batch.Weather[0].Humidity != nil {
		t.Errorf("new weather = %+v", batch.Weather)
	}
	if len(batch.HeartRate) != 1 || len(batch.Fields) != 0 {
		t.Errorf("new batch = %+v", batch)
	}
}

func TestSampleRepositoryLoadAll(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sessions := NewSessionRepository(db)
	repo := NewSampleRepository(db)
	createSession(t, sessions, "b", "u1", "t")
	createSession(t, sessions, "a", "u2", "t")
	createSession(t, sessions, "c", "u1", "t")

	repo.AppendFields(ctx, "c", []models.FieldSample{{Seconds: 1}, {Seconds: 2}})
	repo.AppendLocations(ctx, "b", []models.LocationSample{{Seconds: 1, Latitude: 1, Longitude: 1}})

	all, err := repo.LoadAll(ctx, models.AggregateFilter{})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	order := []string{"b", "c", "a"}
	if len(all) != len(order) {
		t.Fatalf("LoadAll() returned %d sessions, want %d", len(all), len(order))
	}
	for i, s := range all {
		if s.SessionID != order[i] {
			t.Errorf("LoadAll()[%d] = %s, want %s", i, s.SessionID, order[i])
		}
	}
	if len(all[0].Locations) != 1 || len(all[1].Fields) != 2 {
		t.Errorf("LoadAll() streams = %+v", all)
	}

	filtered, err := repo.LoadAll(ctx, models.AggregateFilter{UserID: "u2"})
	if err != nil {
		t.Fatalf("LoadAll(u2) error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].SessionID != "a" {
		t.Errorf("LoadAll(u2) = %+v", filtered)
	}
}

func TestAnalysisTaskAndZoneRepository(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	tasks := NewAnalysisTaskRepository(db)
	zones := NewZoneRepository(db)

	if _, err := zones.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() on empty store error = %v, want ErrNotFound", err)
	}

	task := &models.AnalysisTask{SkillName: "zone_snapshot", Status: models.TaskStatusPending, CreatedBy: "u1"}
	if err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.ID == 0 {
		t.Fatal("Create() did not set ID")
	}

	if err := tasks.MarkAsRunning(ctx, task.ID); err != nil {
		t.Fatalf("MarkAsRunning() error = %v", err)
	}
	cells := []models.ZoneCell{
		{RowIndex: 2, ColIndex: 1, AverageWeight: 0.6, SampleCount: 1, Band: "elevated"},
		{RowIndex: 1, ColIndex: 5, AverageWeight: 0.2, SampleCount: 3, Band: "low"},
	}
	if err := zones.Save(ctx, task.ID, 0.01, cells); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := tasks.MarkAsCompleted(ctx, task.ID, `{"cells":2}`); err != nil {
		t.Fatalf("MarkAsCompleted() error = %v", err)
	}

	got, err := tasks.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != models.TaskStatusCompleted || got.ProgressPercent != 100 || got.CompletedAt == nil {
		t.Errorf("GetByID() = %+v, want completed", got)
	}

	snap, err := zones.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if snap.TaskID != task.ID || snap.CellSize != 0.01 || len(snap.Cells) != 2 || snap.Cells[0].RowIndex != 1 {
		t.Errorf("Latest() = %+v, want two cells sorted by row", snap)
	}

	failed := &models.AnalysisTask{SkillName: "zone_snapshot", Status: models.TaskStatusPending}
	tasks.Create(ctx, failed)
	if err := tasks.MarkAsFailed(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("MarkAsFailed() error = %v", err)
	}

	list, err := tasks.List(ctx, models.TaskFilter{Status: models.TaskStatusFailed})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].ErrorMessage != "boom" {
		t.Errorf("List(failed) = %+v", list)
	}

	if _, err := tasks.GetByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(999) error = %v, want ErrNotFound", err)
	}
}
