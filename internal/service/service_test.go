package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/jengzang/emf-backend-go/internal/analysis/zones"

	"github.com/jengzang/emf-backend-go/internal/analysis"
	"github.com/jengzang/emf-backend-go/internal/database"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/repository"
	"github.com/jengzang/emf-backend-go/internal/stream"
)

type fixture struct {
	db        *sql.DB
	sessions  *SessionService
	ingest    *IngestService
	live      *LiveService
	aggregate *AggregateService
	tasks     *AnalysisTaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sessionRepo := repository.NewSessionRepository(db)
	sampleRepo := repository.NewSampleRepository(db)
	bus := stream.NewBus()

	return &fixture{
		db:        db,
		sessions:  NewSessionService(sessionRepo, sampleRepo),
		ingest:    NewIngestService(sessionRepo, sampleRepo, bus),
		live:      NewLiveService(sessionRepo, sampleRepo, bus, 5, 200),
		aggregate: NewAggregateService(sampleRepo, 5, 2, 0.01),
		tasks:     NewAnalysisTaskService(db, analysis.Options{Tolerance: 5, Workers: 2, CellSize: 0.01}),
	}
}

func TestIngestAndSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.sessions.Create(ctx, "u1", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID == "" || session.Status != models.SessionStatusRecording || session.Timestamp == "" {
		t.Fatalf("Create() = %+v", session)
	}

	steps := []struct {
		kind string
		body string
		want int
	}{
		{KindLocations, `[{"seconds":0,"latitude":0,"longitude":0},{"seconds":10,"latitude":0,"longitude":0.001,"horizAcc":80}]`, 2},
		{KindMagnetometer, `[{"seconds":1,"x":3,"y":4,"z":0},{"seconds":9,"x":30,"y":40,"z":0}]`, 2},
		{KindHeartRate, `[{"seconds":5,"bpm":90},{"seconds":2,"bpm":70}]`, 2},
		{KindWeather, `{"ts":"t","lat":0,"lon":0,"temp":21.5}`, 1},
	}
	for _, step := range steps {
		n, err := f.ingest.Append(ctx, session.ID, "u1", step.kind, []byte(step.body))
		if err != nil {
			t.Fatalf("Append(%s) error = %v", step.kind, err)
		}
		if n != step.want {
			t.Errorf("Append(%s) = %d, want %d", step.kind, n, step.want)
		}
	}

	if _, err := f.ingest.Append(ctx, session.ID, "u2", KindLocations, []byte(`[]`)); !errors.Is(err, ErrForbidden) {
		t.Errorf("Append by other user error = %v, want ErrForbidden", err)
	}
	if _, err := f.ingest.Append(ctx, "missing", "u1", KindLocations, []byte(`[]`)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Append to missing session error = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.ingest.Append(ctx, session.ID, "u1", KindLocations, []byte(`[{`)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Append malformed error = %v, want ErrInvalidInput", err)
	}
	if _, err := f.ingest.Append(ctx, session.ID, "u1", "sound", []byte(`[]`)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Append unknown kind error = %v, want ErrInvalidInput", err)
	}

	summary, err := f.sessions.Summary(ctx, session.ID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.Session.TotalSamples != 7 {
		t.Errorf("TotalSamples = %d, want 7", summary.Session.TotalSamples)
	}
	if summary.LocationCount != 2 || summary.FieldCount != 2 || summary.HeartRateCount != 2 || summary.WeatherCount != 1 {
		t.Errorf("counts = %+v", summary)
	}
	if summary.DurationSeconds != 10 {
		t.Errorf("DurationSeconds = %v, want 10", summary.DurationSeconds)
	}
	// The inaccurate second fix is not on the path
	if summary.PathLengthMeters != 0 {
		t.Errorf("PathLengthMeters = %v, want 0", summary.PathLengthMeters)
	}
	if summary.Magnitude.Min != 5 || summary.Magnitude.Max != 50 || summary.Magnitude.Mean != 27.5 {
		t.Errorf("Magnitude = %+v, want min 5 max 50 mean 27.5", summary.Magnitude)
	}
	if summary.HeartRate.Count != 2 || summary.HeartRate.Latest != 90 || summary.HeartRate.Mean != 80 {
		t.Errorf("HeartRate = %+v, want latest 90 mean 80", summary.HeartRate)
	}

	series, err := f.sessions.HeartRate(ctx, session.ID)
	if err != nil {
		t.Fatalf("HeartRate() error = %v", err)
	}
	if len(series.Readings) != 2 || series.Readings[0].Seconds != 2 {
		t.Errorf("HeartRate() readings = %+v, want sorted by seconds", series.Readings)
	}

	done, err := f.sessions.Complete(ctx, session.ID, "u1")
	if err != nil || done.Status != models.SessionStatusCompleted {
		t.Errorf("Complete() = %+v, %v", done, err)
	}
	if _, err := f.sessions.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func TestLiveWatchFollowsAppends(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t)

	session, _ := f.sessions.Create(ctx, "u1", "t")
	f.ingest.Append(ctx, session.ID, "u1", KindMagnetometer, []byte(`[{"seconds":7,"x":48}]`))

	views, err := f.live.Watch(ctx, session.ID)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	first := <-views
	if first.Stats.TotalFieldSamples != 1 || first.Stats.MappedFieldSamples != 0 {
		t.Fatalf("initial stats = %+v, want one unmapped sample", first.Stats)
	}

	if _, err := f.ingest.Append(ctx, session.ID, "u1", KindLocations, []byte(`[{"seconds":5,"latitude":53.35,"longitude":-6.26}]`)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	select {
	case view := <-views:
		if view.Stats.MappedFieldSamples != 1 || len(view.Zones) != 1 {
			t.Fatalf("view after location = %+v, want the sample mapped", view.Stats)
		}
		z := view.Zones[0]
		if z.Latitude != 53.35 || z.Band != "medium" || z.LegendBand != "medium" {
			t.Errorf("zone = %+v, want medium at 53.35", z)
		}
		if view.Stats.PercentMapped != 100 {
			t.Errorf("PercentMapped = %v, want 100", view.Stats.PercentMapped)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no view after append")
	}

	cancel()
	select {
	case _, ok := <-views:
		for ok {
			_, ok = <-views
		}
	case <-time.After(2 * time.Second):
		t.Fatal("views channel not closed after cancel")
	}

	if _, err := f.live.Watch(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Watch(missing) error = %v, want ErrSessionNotFound", err)
	}
}

const importTree = `{"users": {
  "u1": {"sessions": {
    "A": {"status": "completed",
          "locationData": [{"seconds": 0, "latitude": 53.3555, "longitude": -6.2555}],
          "magnetometerData": [{"seconds": 1, "x": 30, "y": 40, "z": 0}]},
    "B": {"status": "completed",
          "locationData": [{"seconds": 100, "latitude": 53.3565, "longitude": -6.2565}],
          "magnetometerData": [{"seconds": 102, "x": 100, "y": 0, "z": 0}, {"seconds": 200, "x": 1}]}
  }}
}}`

func TestImportAndAggregate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.ingest.Import(ctx, []byte(importTree))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Sessions != 2 || result.Fields != 3 || result.Locations != 2 {
		t.Fatalf("Import() = %+v", result)
	}

	// Importing again replaces rather than duplicates
	if _, err := f.ingest.Import(ctx, []byte(importTree)); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}

	heat, err := f.aggregate.Heat(ctx, models.AggregateFilter{})
	if err != nil {
		t.Fatalf("Heat() error = %v", err)
	}
	if heat.Sessions != 2 || heat.FieldSamples != 3 || heat.Paired != 2 || len(heat.Points) != 2 {
		t.Fatalf("Heat() = %+v, want 2 of 3 samples paired", heat)
	}
	if heat.Points[0].Weight != 0.5 || heat.Points[1].Weight != 1 {
		t.Errorf("weights = %v, %v, want 0.5, 1", heat.Points[0].Weight, heat.Points[1].Weight)
	}
	if heat.Bounds == nil {
		t.Error("Heat() bounds missing")
	}

	zones, err := f.aggregate.Zones(ctx, models.AggregateFilter{}, 0)
	if err != nil {
		t.Fatalf("Zones() error = %v", err)
	}
	if len(zones.Cells) != 1 || zones.Cells[0].SampleCount != 2 || zones.Cells[0].AverageWeight != 0.75 {
		t.Fatalf("Zones() = %+v, want one cell averaging 0.75", zones.Cells)
	}

	fc, err := f.aggregate.ZonesGeoJSON(ctx, models.AggregateFilter{}, 0)
	if err != nil {
		t.Fatalf("ZonesGeoJSON() error = %v", err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("ZonesGeoJSON() features = %d, want 1", len(fc.Features))
	}

	if _, err := f.ingest.Import(ctx, []byte(`{"users": {`)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Import(malformed) error = %v, want ErrInvalidInput", err)
	}
}

func TestAnalysisTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.tasks.CreateTask("nope", nil, "u1"); !errors.Is(err, ErrInvalidSkill) {
		t.Fatalf("CreateTask(nope) error = %v, want ErrInvalidSkill", err)
	}
	if _, err := f.tasks.LatestZones(ctx); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("LatestZones() error = %v, want ErrSnapshotNotFound", err)
	}

	if _, err := f.ingest.Import(ctx, []byte(importTree)); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	task, err := f.tasks.CreateTask("zone_snapshot", map[string]interface{}{"user_id": "u1"}, "u1")
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	f.tasks.Wait()

	got, err := f.tasks.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Status != models.TaskStatusCompleted {
		t.Fatalf("task = %+v, want completed", got)
	}

	snap, err := f.tasks.LatestZones(ctx)
	if err != nil {
		t.Fatalf("LatestZones() error = %v", err)
	}
	if snap.TaskID != task.ID || len(snap.Cells) != 1 {
		t.Errorf("LatestZones() = %+v", snap)
	}

	list, err := f.tasks.ListTasks(ctx, models.TaskFilter{SkillName: "zone_snapshot"})
	if err != nil || len(list) != 1 {
		t.Errorf("ListTasks() = %d tasks, %v", len(list), err)
	}
	if _, err := f.tasks.GetTask(ctx, 999); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("GetTask(999) error = %v, want ErrTaskNotFound", err)
	}
	if err := f.tasks.CancelTask(ctx, task.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CancelTask(completed) error = %v, want ErrInvalidInput", err)
	}
}

func TestSummarizeWeather(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	summary := summarizeWeather([]models.WeatherSample{
		{Temperature: f(10), WindDirection: f(350), WindSpeed: f(2), Condition: "Clouds"},
		{Temperature: f(14), WindDirection: f(10), Condition: "Rain"},
		{Humidity: f(80)},
	})

	if summary.MeanTemperature == nil || *summary.MeanTemperature != 12 {
		t.Errorf("MeanTemperature = %v, want 12", summary.MeanTemperature)
	}
	if summary.MeanHumidity == nil || *summary.MeanHumidity != 80 {
		t.Errorf("MeanHumidity = %v, want 80", summary.MeanHumidity)
	}
	if summary.MeanWindSpeed == nil || *summary.MeanWindSpeed != 2 {
		t.Errorf("MeanWindSpeed = %v, want 2", summary.MeanWindSpeed)
	}
	if d := summary.MeanWindDirection; d == nil || (*d > 1e-6 && *d < 360-1e-6) {
		t.Errorf("MeanWindDirection = %v, want north", d)
	}
	if summary.WindSteadiness == nil || *summary.WindSteadiness < 0.98 {
		t.Errorf("WindSteadiness = %v, want close to 1", summary.WindSteadiness)
	}
	if summary.LatestCondition != "Rain" {
		t.Errorf("LatestCondition = %q, want Rain", summary.LatestCondition)
	}

	if empty := summarizeWeather(nil); empty.MeanTemperature != nil || empty.MeanWindDirection != nil {
		t.Errorf("summarizeWeather(nil) = %+v, want empty", empty)
	}
}
