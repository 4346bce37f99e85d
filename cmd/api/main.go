package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plantvision/leafscan/internal/application"
	apppredictions "github.com/plantvision/leafscan/internal/application/predictions"
	"github.com/plantvision/leafscan/internal/config"
	"github.com/plantvision/leafscan/internal/domain/predictions"
	mysqldb "github.com/plantvision/leafscan/internal/infra/db/mysql"
	postgresdb "github.com/plantvision/leafscan/internal/infra/db/postgres"
	sqlitedb "github.com/plantvision/leafscan/internal/infra/db/sqlite"
	openaiengine "github.com/plantvision/leafscan/internal/infra/engine/openai"
	"github.com/plantvision/leafscan/internal/infra/httpserver"
	"github.com/plantvision/leafscan/internal/infra/storage"
	"github.com/plantvision/leafscan/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect result store
	db, repo, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("database connect error: %v", err)
	}
	defer db.Close()

	// init archive store
	archive, imagesDir, err := openArchive(ctx, cfg)
	if err != nil {
		log.Fatalf("archive init error: %v", err)
	}

	// init prediction engine
	if cfg.Engine.OpenAIAPIKey == "" {
		log.Fatal("engine: OPENAI_API_KEY is not set")
	}
	engine := openaiengine.NewClient(cfg.Engine.OpenAIAPIKey, cfg.Engine.Model)

	// init service
	svc := &apppredictions.Service{
		Repo:          repo,
		Engine:        engine,
		Archive:       archive,
		Clock:         application.SystemClock{},
		Workers:       cfg.Batch.Workers,
		EngineTimeout: cfg.EngineTimeout(),
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	if imagesDir != "" {
		checkers["archive"] = &middleware.ArchiveDirChecker{Dir: imagesDir}
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		MaxUploadSize:     cfg.MaxUploadSize(),
		ImagesDir:         imagesDir,
		HealthCheckers:    checkers,
		RateLimitCapacity: cfg.RateLimit.Capacity,
		RateLimitRefill:   cfg.RateLimit.RefillPerSecond,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openRepository(ctx context.Context, cfg *config.Config) (*sql.DB, predictions.Repository, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		return db, mysqldb.NewPredictionRepository(db), nil
	case "postgres":
		db, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return db, postgresdb.NewPredictionRepository(db), nil
	case "sqlite":
		db, err := sqlitedb.Connect(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, sqlitedb.NewPredictionRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// openArchive returns the archive store plus the local directory to
// serve under /api/images/ (empty for remote backends).
func openArchive(ctx context.Context, cfg *config.Config) (predictions.ArchiveStore, string, error) {
	switch cfg.Archive.Backend {
	case "local":
		store, err := storage.NewLocal(cfg.Archive.LocalDir)
		if err != nil {
			return nil, "", err
		}
		return store, store.BasePath(), nil
	case "minio":
		store, err := storage.NewMinio(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		return nil, "", fmt.Errorf("unsupported archive backend: %s", cfg.Archive.Backend)
	}
}
