package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	MatchTolerance float64 // 匹配窗口（秒）
	DisplayLimit   int     // 实时视图最多显示的磁场采样数
	GridCellSize   float64 // 网格步长（度）
	ReduceWorkers  int
	AnalysisBatch  int // 分析任务每批加载的会话数
	RateLimit      int // 每分钟每 IP 的写入请求数
}

// Load 加载配置。.env 文件可选，环境变量优先。
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] Failed to read .env: %v", err)
	}

	return &Config{
		Port:           envString("PORT", ":8080"),
		DBPath:         envString("DB_PATH", "./data/emf.db"),
		JWTSecret:      envString("JWT_SECRET", "your-secret-key-change-in-production"),
		MatchTolerance: envFloat("MATCH_TOLERANCE_SECONDS", 5),
		DisplayLimit:   envInt("DISPLAY_LIMIT", 200),
		GridCellSize:   envFloat("GRID_CELL_DEG", 0.01),
		ReduceWorkers:  envInt("REDUCE_WORKERS", 4),
		AnalysisBatch:  envInt("ANALYSIS_BATCH_SIZE", 50),
		RateLimit:      envInt("RATE_LIMIT_PER_MINUTE", 600),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || v <= 0 {
		log.Printf("[Config] Invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil || v <= 0 {
		log.Printf("[Config] Invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return v
}
