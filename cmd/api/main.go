package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ruxlab/labvault/internal/accounting"
	"github.com/ruxlab/labvault/internal/asset"
	"github.com/ruxlab/labvault/internal/auth"
	"github.com/ruxlab/labvault/internal/config"
	"github.com/ruxlab/labvault/internal/logger"
	"github.com/ruxlab/labvault/internal/server"
	"github.com/ruxlab/labvault/internal/storage"
	"github.com/ruxlab/labvault/internal/study"
	"github.com/ruxlab/labvault/internal/user"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init(os.Getenv("LABVAULT_LOG_LEVEL"))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.RunMigrations(ctx, cfg.Postgres); err != nil {
		logg.Fatal("run migrations", zap.Error(err))
	}

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		logg.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		logg.Fatal("ensure bucket", zap.Error(err))
	}

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth)

	userRepo := user.NewRepository(dbPool)
	studyRepo := study.NewRepository(dbPool)

	userService := user.NewService(userRepo, studyRepo, logg)
	studyService := study.NewService(studyRepo, userService, logg)

	lister := accounting.NewMinIOLister(minioClient, cfg.MinIO.Bucket)
	engine := accounting.NewEngine(userRepo, lister, logg)

	assetService := asset.NewService(minioClient, userRepo, cfg.MinIO.Bucket, cfg.Accounting.PresignTTL)

	if cfg.Accounting.WatchEnabled {
		watcher, err := accounting.NewWatcher(
			minioClient,
			cfg.MinIO.Bucket,
			engine,
			[]accounting.EventKind{accounting.EventFinalized},
			cfg.Accounting.ReconnectDelay,
			logg,
		)
		if err != nil {
			logg.Fatal("build storage watcher", zap.Error(err))
		}
		go watcher.Run(ctx)
	}

	router := server.NewRouter(server.Dependencies{
		Config:       cfg,
		Log:          logg,
		DB:           dbPool,
		ObjectStore:  minioClient,
		AuthService:  authService,
		UserService:  userService,
		StudyService: studyService,
		Engine:       engine,
		AssetService: assetService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("LabVault API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Warn("shutdown error", zap.Error(err))
	}
}
