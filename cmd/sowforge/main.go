package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/stratumlab/sowforge/internal/ai"
	"github.com/stratumlab/sowforge/internal/config"
	"github.com/stratumlab/sowforge/internal/db"
	"github.com/stratumlab/sowforge/internal/filestore"
	"github.com/stratumlab/sowforge/internal/handler"
	"github.com/stratumlab/sowforge/internal/ingest"
	"github.com/stratumlab/sowforge/internal/job"
	"github.com/stratumlab/sowforge/internal/middleware"
	"github.com/stratumlab/sowforge/internal/repo"
	"github.com/stratumlab/sowforge/internal/retry"
	"github.com/stratumlab/sowforge/internal/schedule"
	"github.com/stratumlab/sowforge/internal/service"
	"github.com/stratumlab/sowforge/internal/vector"
	"github.com/stratumlab/sowforge/internal/warehouse"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sowforge",
		Short: "sowforge backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run sowforge server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildRetryRunner(cfg config.RetryConfig) *retry.Runner {
	delay := time.Duration(cfg.DelayMs) * time.Millisecond
	var policy retry.Policy
	switch cfg.Backoff {
	case "fixed":
		policy = retry.FixedDelay(delay)
	case "exponential":
		policy = retry.ExponentialDelay(delay, 30*time.Second)
	default:
		policy = retry.NoDelay()
	}
	return retry.NewRunner(cfg.MaxAttempts, policy)
}

func buildEmbedder(cfg config.AIConfig) (ai.IEmbedder, ai.IProvider, error) {
	args := cfg.Data
	if cfg.EmbedProvider == "hash" {
		args = map[string]interface{}{"dim": cfg.EmbedDim}
	}
	provider, err := ai.NewProvider(cfg.EmbedProvider, args)
	if err != nil {
		return nil, nil, fmt.Errorf("init embed provider: %w", err)
	}
	return ai.NewEmbedder(provider, cfg.EmbedModel, cfg.EmbedDim), provider, nil
}

func buildGenerator(cfg config.AIConfig, embedProvider ai.IProvider) (ai.IGenerator, error) {
	if cfg.GenProvider == "" {
		return nil, nil
	}
	if embedProvider != nil && embedProvider.Name() == cfg.GenProvider {
		return ai.NewGenerator(embedProvider, cfg.GenModel), nil
	}
	provider, err := ai.NewProvider(cfg.GenProvider, cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("init gen provider: %w", err)
	}
	return ai.NewGenerator(provider, cfg.GenModel), nil
}

func buildIndex(ctx context.Context, cfg config.VectorConfig, dim int) (vector.Index, error) {
	if cfg.Mode == "remote" {
		idx, err := vector.NewRemoteIndex(cfg.Remote)
		if err != nil {
			return nil, err
		}
		if err := idx.EnsureIndex(ctx, dim); err != nil {
			return nil, fmt.Errorf("ensure remote index: %w", err)
		}
		return idx, nil
	}
	return vector.NewMemoryIndex(), nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	rootLogger := logutil.GetLogger(context.Background())
	rootLogger.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("embed_provider", cfg.AI.EmbedProvider),
		zap.String("vector_mode", cfg.Vector.Mode),
	)

	userRepo := repo.NewUserRepo(conn)
	docRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	sowRepo := repo.NewSOWRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	chunker, err := ingest.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return err
	}
	embedder, embedProvider, err := buildEmbedder(cfg.AI)
	if err != nil {
		return err
	}
	generator, err := buildGenerator(cfg.AI, embedProvider)
	if err != nil {
		return err
	}
	runner := buildRetryRunner(cfg.Retry)

	startupCtx := context.Background()
	index, err := buildIndex(startupCtx, cfg.Vector, embedder.Dim())
	if err != nil {
		return err
	}

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	documentService := service.NewDocumentService(docRepo, chunkRepo, store, chunker, embedder, index, runner)
	sowService := service.NewSOWService(sowRepo, documentService, generator, runner)
	exportService := service.NewExportService(sowService)

	if cfg.Vector.Mode == "memory" {
		loaded, err := documentService.ReloadIndex(startupCtx)
		if err != nil {
			return fmt.Errorf("reload index: %w", err)
		}
		rootLogger.Info("memory index rebuilt", zap.Int("chunks", loaded))
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingBackfillJob(documentService, 100), cfg.Jobs.EmbeddingBackfillSpec); err != nil {
		return err
	}
	if cfg.Warehouse.Enabled {
		client, err := warehouse.NewClient(cfg.Warehouse)
		if err != nil {
			return err
		}
		mirror := service.NewMirrorService(chunkRepo, sowRepo, client)
		if err := mirror.EnsureTables(startupCtx); err != nil {
			return fmt.Errorf("ensure warehouse tables: %w", err)
		}
		if err := scheduler.AddJob(job.NewWarehouseSyncJob(mirror, 100), cfg.Jobs.WarehouseSyncSpec); err != nil {
			return err
		}
	}

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Documents: handler.NewDocumentHandler(documentService),
		SOW:       handler.NewSOWHandler(sowService, exportService),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	rootLogger.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	rootLogger.Info("server stopping...")
	scheduler.Stop()
	return nil
}
