package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/spatial"
	"github.com/jengzang/emf-backend-go/internal/stats"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Width(16)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	bandStyles = map[string]lipgloss.Style{
		spatial.ZoneLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		spatial.ZoneMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		spatial.ZoneElevated: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8800")),
		spatial.ZoneHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true),
	}
)

// Report is everything the offline summary prints
type Report struct {
	Source string
	Stats  fusion.ReduceStats
	Points []models.WeightedPoint
	Zones  models.ZoneView
	Top    int
}

// Render formats a report for the terminal
func Render(r Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("EMF zone report") + "\n")
	if r.Source != "" {
		b.WriteString(labelStyle.Render("source") + r.Source + "\n")
	}
	b.WriteString("\n")

	weights := make([]float64, len(r.Points))
	for i, p := range r.Points {
		weights[i] = p.Weight
	}

	overview := []string{
		line("sessions", fmt.Sprint(r.Stats.Sessions)),
		line("field samples", fmt.Sprint(r.Stats.FieldSamples)),
		line("paired", fmt.Sprint(r.Stats.Paired)),
		line("cells", fmt.Sprintf("%d @ %g°", len(r.Zones.Cells), r.Zones.CellSize)),
	}
	if len(weights) > 0 {
		overview = append(overview,
			line("mean weight", fmt.Sprintf("%.3f", stats.Mean(weights))),
			line("p95 weight", fmt.Sprintf("%.3f", stats.Percentile(weights, 95))),
			line("max weight", fmt.Sprintf("%.3f", stats.Max(weights))),
		)
	}
	if bb := r.Zones.Bounds; bb != nil {
		overview = append(overview, line("bounds", fmt.Sprintf("%.4f,%.4f .. %.4f,%.4f", bb.South, bb.West, bb.North, bb.East)))
	}
	b.WriteString(panelStyle.Render(strings.Join(overview, "\n")) + "\n\n")

	bands := map[string]int{}
	for _, c := range r.Zones.Cells {
		bands[c.Band]++
	}
	var dist []string
	for _, band := range []string{spatial.ZoneLow, spatial.ZoneMedium, spatial.ZoneElevated, spatial.ZoneHigh} {
		dist = append(dist, bandStyles[band].Render(fmt.Sprintf("%s %d", band, bands[band])))
	}
	b.WriteString(strings.Join(dist, "  ") + "\n\n")

	top := topCells(r.Zones.Cells, r.Top)
	if len(top) == 0 {
		b.WriteString("no paired samples\n")
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %-10s %-8s %-7s %s", "lat", "lon", "weight", "count", "band")) + "\n")
	for _, c := range top {
		row := fmt.Sprintf("%-10.4f %-10.4f %-8.3f %-7d ", (c.MinLat+c.MaxLat)/2, (c.MinLon+c.MaxLon)/2, c.AverageWeight, c.SampleCount)
		b.WriteString(row + bandStyles[c.Band].Render(c.Band) + "\n")
	}
	return b.String()
}

func line(label, value string) string {
	return labelStyle.Render(label) + value
}

// topCells returns the n strongest cells, ties broken by sample count
func topCells(cells []models.ZoneCell, n int) []models.ZoneCell {
	sorted := make([]models.ZoneCell, len(cells))
	copy(sorted, cells)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AverageWeight != sorted[j].AverageWeight {
			return sorted[i].AverageWeight > sorted[j].AverageWeight
		}
		return sorted[i].SampleCount > sorted[j].SampleCount
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
