package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jengzang/emf-backend-go/internal/analysis"
	"github.com/jengzang/emf-backend-go/internal/api"
	"github.com/jengzang/emf-backend-go/internal/config"
	"github.com/jengzang/emf-backend-go/internal/database"
	"github.com/jengzang/emf-backend-go/internal/middleware"
	"github.com/jengzang/emf-backend-go/internal/repository"
	"github.com/jengzang/emf-backend-go/internal/service"
	"github.com/jengzang/emf-backend-go/internal/stream"

	// Import analyzer packages to register them
	_ "github.com/jengzang/emf-backend-go/internal/analysis/zones"
)

func main() {
	issueFor := flag.String("issue-token", "", "print a device token for the given user id and exit")
	tokenTTL := flag.Duration("token-ttl", 0, "token lifetime; 0 means no expiry")
	flag.Parse()

	// 加载配置
	cfg := config.Load()

	if *issueFor != "" {
		token, err := middleware.IssueToken(cfg.JWTSecret, *issueFor, *tokenTTL)
		if err != nil {
			log.Fatal("Failed to issue token:", err)
		}
		fmt.Println(token)
		return
	}

	// 初始化数据库
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			log.Fatal("Failed to create data directory:", err)
		}
	}
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.NewMigrationManager(db).RunMigrations(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// 组装服务
	sessions := repository.NewSessionRepository(db)
	samples := repository.NewSampleRepository(db)
	bus := stream.NewBus()

	tasks := service.NewAnalysisTaskService(db, analysis.Options{
		Tolerance: cfg.MatchTolerance,
		Workers:   cfg.ReduceWorkers,
		CellSize:  cfg.GridCellSize,
		BatchSize: cfg.AnalysisBatch,
	})

	router := api.SetupRouter(cfg, api.Services{
		Sessions: service.NewSessionService(sessions, samples),
		Ingest:   service.NewIngestService(sessions, samples, bus),
		Live:     service.NewLiveService(sessions, samples, bus, cfg.MatchTolerance, cfg.DisplayLimit),
		Views:    service.NewAggregateService(samples, cfg.MatchTolerance, cfg.ReduceWorkers, cfg.GridCellSize),
		Tasks:    tasks,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 启动服务器
	go func() {
		log.Printf("Server starting on port %s (skills: %v)", cfg.Port, analysis.Skills())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	tasks.Wait()
}
