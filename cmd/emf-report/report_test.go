package main

import (
	"strings"
	"testing"

	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
)

func TestTopCells(t *testing.T) {
	cells := []models.ZoneCell{
		{RowIndex: 1, AverageWeight: 0.2, SampleCount: 5},
		{RowIndex: 2, AverageWeight: 0.9, SampleCount: 1},
		{RowIndex: 3, AverageWeight: 0.2, SampleCount: 9},
	}

	got := topCells(cells, 2)
	if len(got) != 2 {
		t.Fatalf("topCells() returned %d cells, want 2", len(got))
	}
	if got[0].RowIndex != 2 || got[1].RowIndex != 3 {
		t.Errorf("topCells() rows = %d,%d, want 2,3", got[0].RowIndex, got[1].RowIndex)
	}
	if cells[0].RowIndex != 1 {
		t.Error("topCells() reordered its input")
	}
}

func TestRender(t *testing.T) {
	out := Render(Report{
		Source: "tree.json",
		Stats:  fusion.ReduceStats{Sessions: 2, FieldSamples: 3, Paired: 2},
		Points: []models.WeightedPoint{{Latitude: 53.35, Longitude: -6.25, Weight: 0.8}},
		Zones: models.ZoneView{
			CellSize: 0.01,
			Cells: []models.ZoneCell{
				{MinLat: 53.35, MaxLat: 53.36, MinLon: -6.26, MaxLon: -6.25, AverageWeight: 0.8, SampleCount: 1, Band: "high"},
			},
		},
		Top: 5,
	})

	for _, want := range []string{"EMF zone report", "tree.json", "sessions", "high", "0.800"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	out := Render(Report{Zones: models.ZoneView{CellSize: 0.01}})
	if !strings.Contains(out, "no paired samples") {
		t.Errorf("Render() = %q, want empty notice", out)
	}
}
