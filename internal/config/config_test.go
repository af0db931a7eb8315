package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "MATCH_TOLERANCE_SECONDS", "DISPLAY_LIMIT", "GRID_CELL_DEG", "REDUCE_WORKERS", "RATE_LIMIT_PER_MINUTE", "ANALYSIS_BATCH_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != ":8080" || cfg.MatchTolerance != 5 || cfg.DisplayLimit != 200 ||
		cfg.GridCellSize != 0.01 || cfg.ReduceWorkers != 4 || cfg.RateLimit != 600 || cfg.AnalysisBatch != 50 {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*Config) bool
	}{
		{"tolerance", "MATCH_TOLERANCE_SECONDS", "2.5", func(c *Config) bool { return c.MatchTolerance == 2.5 }},
		{"display limit", "DISPLAY_LIMIT", "50", func(c *Config) bool { return c.DisplayLimit == 50 }},
		{"invalid falls back", "DISPLAY_LIMIT", "lots", func(c *Config) bool { return c.DisplayLimit == 200 }},
		{"negative falls back", "REDUCE_WORKERS", "-3", func(c *Config) bool { return c.ReduceWorkers == 4 }},
		{"cell size", "GRID_CELL_DEG", "0.05", func(c *Config) bool { return c.GridCellSize == 0.05 }},
		{"batch size", "ANALYSIS_BATCH_SIZE", "10", func(c *Config) bool { return c.AnalysisBatch == 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if cfg := Load(); !tt.check(cfg) {
				t.Errorf("Load() with %s=%s = %+v", tt.key, tt.value, cfg)
			}
		})
	}
}
