// Command emf-report summarizes a user tree snapshot offline: it reduces every
// session into the weighted point cloud, bins it into zones and prints the
// strongest cells.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jengzang/emf-backend-go/internal/config"
	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/ingest"
	"github.com/jengzang/emf-backend-go/internal/spatial"
)

func main() {
	cfg := config.Load()

	file := flag.String("file", "", "path to a tree snapshot JSON file")
	user := flag.String("user", "", "only include sessions of this user")
	cellSize := flag.Float64("cell", cfg.GridCellSize, "grid step in degrees")
	tolerance := flag.Float64("tolerance", cfg.MatchTolerance, "match window in seconds")
	workers := flag.Int("workers", cfg.ReduceWorkers, "concurrent session reductions")
	top := flag.Int("top", 10, "number of cells to list")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal("Failed to read snapshot:", err)
	}

	records, err := ingest.DecodeTree(data)
	if err != nil {
		log.Fatal("Failed to decode snapshot:", err)
	}

	sessions := make([]fusion.SessionSamples, 0, len(records))
	for _, rec := range records {
		if *user != "" && rec.Session.UserID != *user {
			continue
		}
		sessions = append(sessions, rec.Samples())
	}

	reducer := fusion.NewReducer(*workers)
	reducer.Tolerance = *tolerance
	points, stats, err := reducer.Reduce(context.Background(), sessions)
	if err != nil {
		log.Fatal("Failed to reduce sessions:", err)
	}

	grid := spatial.AggregateParallel(points, *cellSize, *workers)
	fmt.Print(Render(Report{
		Source: *file,
		Stats:  stats,
		Points: points,
		Zones:  grid.View(),
		Top:    *top,
	}))
}
