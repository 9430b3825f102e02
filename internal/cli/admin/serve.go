package admin

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

	"github.com/relaydesk/relaydesk/internal/api/handlers"
	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/database"
	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/embedding"
	"github.com/relaydesk/relaydesk/internal/jobs"
	"github.com/relaydesk/relaydesk/internal/llm"
	"github.com/relaydesk/relaydesk/internal/repository"
	"github.com/relaydesk/relaydesk/internal/server"
	"github.com/relaydesk/relaydesk/internal/service"
	"github.com/relaydesk/relaydesk/internal/storage"
	"github.com/relaydesk/relaydesk/internal/telemetry"
	"github.com/relaydesk/relaydesk/internal/vectorstore"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the relaydesk API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnv,
			TracesSampleRate: cfg.SentrySampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	store := vectorstore.NewPgStore(pool)
	router := service.NewEmbeddingRouter(store, service.RouterConfig{
		Credentials: embedding.Credentials{
			OpenAIAPIKey: cfg.OpenAIAPIKey,
			VoyageAPIKey: cfg.VoyageAPIKey,
		},
		BaseCollection: cfg.BaseCollection,
		CacheSize:      cfg.EmbeddingCacheSize,
		CacheTTL:       cfg.EmbeddingCacheTTL,
	})

	if cfg.HasOpenAI() || cfg.HasVoyage() {
		if err := router.SetProvider(ctx, cfg.EmbeddingProvider, cfg.EmbeddingModel); err != nil {
			return fmt.Errorf("failed to configure embedding provider: %w", err)
		}
		binding, _ := router.Binding()
		log.Printf("embedding provider ready: %s/%s -> %s", binding.Provider, binding.Model, binding.Collection)
	} else {
		log.Println("no embedding provider configured; retrieval disabled until credentials are set")
	}

	var completer service.Completer
	if cfg.HasOpenRouter() {
		client, err := llm.NewClient(llm.Config{
			APIKey:   cfg.OpenRouterAPIKey,
			SiteURL:  cfg.OpenRouterSiteURL,
			SiteName: cfg.OpenRouterSiteName,
		})
		if err != nil {
			return fmt.Errorf("failed to create completion client: %w", err)
		}
		completer = client
	} else {
		completer = &noOpCompleter{}
		log.Println("OPENROUTER_API_KEY not set; chat generation disabled")
	}

	var objects service.ObjectStorage
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		objects = s3Client
	}

	searchLogRepo := repository.NewSearchLogRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)

	searchEngine := service.NewSearchEngine(router, store)
	generator := service.NewGenerationOrchestrator(completer)
	chatSvc := service.NewChatService(router, searchEngine, generator, searchLogRepo)
	knowledgeSvc := service.NewKnowledgeService(router, store, objects)

	ingestProcessor := jobs.NewIngestWorker(ingestJobRepo, knowledgeSvc)
	ingestWorker := jobs.NewWorker(ingestProcessor, cfg.WorkerPollInterval)
	go ingestWorker.Start(ctx)
	log.Println("ingest worker started")

	routerCfg := server.RouterConfig{
		ChatHandler:      handlers.NewChatHandler(chatSvc),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledgeSvc, searchEngine, ingestJobRepo, searchLogRepo),
	}

	widgetKeys, err := service.ParseWidgetKeys(cfg.WidgetKeys)
	if err != nil {
		return fmt.Errorf("failed to parse widget keys: %w", err)
	}
	if !widgetKeys.Empty() {
		routerCfg.AuthValidator = widgetKeys
	} else {
		log.Println("no widget keys configured; API authentication disabled")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(routerCfg),
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ingestWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noOpCompleter struct{}

func (c *noOpCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return nil, domain.NewDomainError(domain.ErrCodeGeneration, "completion client not configured: OPENROUTER_API_KEY required")
}

func runMigrations(databaseURL string) error {
	// golang-migrate needs a database/sql handle
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
