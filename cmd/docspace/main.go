package main

// @title           Docspace API
// @version         1.0
// @description     Document hierarchy and versioned publication API. Authors edit a live tree of documents per space and publish immutable snapshots that readers resolve by slug.

// @contact.name   Docspace OSS
// @contact.url    https://github.com/custodia-labs/docspace/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

//go:generate swag init -g cmd/docspace/main.go -o docs --parseInternal -d ../../

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docspace/internal/adapters/driven/auth"
	"github.com/custodia-labs/docspace/internal/adapters/driven/memory"
	"github.com/custodia-labs/docspace/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/docspace/internal/adapters/driven/redis"
	"github.com/custodia-labs/docspace/internal/adapters/driving/http"
	"github.com/custodia-labs/docspace/internal/config"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/custodia-labs/docspace/internal/core/services"
)

var version = "dev"

func main() {
	// .env is optional; production sets the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "docspace: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("docspace exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// backends holds the driven adapters chosen for this process
type backends struct {
	spaces       driven.SpaceStore
	documents    driven.DocumentStore
	publications driven.PublicationStore
	slugs        driven.SlugStore
	lock         driven.DistributedLock
	checks       map[string]http.Pinger
	closers      []func() error
}

func (b *backends) close(logger *slog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Warn("failed to close backend", "error", err)
		}
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("docspace starting",
		"version", version,
		"storage_backend", cfg.StorageBackend,
		"redis", cfg.RedisURL != "",
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close(logger)

	// ===== Services (core business logic) =====
	slugRegistry := services.NewSlugRegistry(b.slugs)
	documentService := services.NewDocumentService(services.DocumentServiceConfig{
		Documents: b.documents,
		Spaces:    b.spaces,
		Slugs:     slugRegistry,
		Lock:      b.lock,
		Logger:    logger,
		LockTTL:   cfg.Limits.PublishLockTTL,
		LockPoll:  cfg.Limits.LockPollInterval,
	})
	publicationService := services.NewPublicationService(services.PublicationServiceConfig{
		Publications: b.publications,
		Documents:    b.documents,
		Spaces:       b.spaces,
		Slugs:        slugRegistry,
		Lock:         b.lock,
		Logger:       logger,
		LockTTL:      cfg.Limits.PublishLockTTL,
		LockPoll:     cfg.Limits.LockPollInterval,
		MaxDocuments: cfg.Limits.MaxPublicationDocuments,
	})
	drafts := services.NewDraftQueue(services.DraftQueueConfig{
		Documents: documentService,
		Logger:    logger,
		Interval:  cfg.Limits.AutosaveInterval,
	})

	if err := drafts.Start(ctx); err != nil {
		return fmt.Errorf("start draft queue: %w", err)
	}
	defer drafts.Stop()

	server := http.NewServer(
		http.Config{
			Host:           "0.0.0.0",
			Port:           cfg.Port,
			Version:        version,
			AllowedOrigins: cfg.AllowedOrigins,
		},
		http.Services{
			Spaces:       services.NewSpaceService(b.spaces, slugRegistry, logger),
			Documents:    documentService,
			Tree:         services.NewTreeService(b.documents),
			Slugs:        slugRegistry,
			Publications: publicationService,
			Gateway:      services.NewPublicGateway(b.publications, logger),
			Drafts:       drafts,
		},
		auth.NewAdapter(cfg.JWTSecret, cfg.JWTIssuer),
		b.checks,
		logger,
	)

	return server.Start(ctx)
}

// openBackends picks stores and the lease backend.
// Redis, when configured, carries the lock and the slug registry; PostgreSQL or memory carry the rest.
func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{checks: map[string]http.Pinger{}}

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		logger.Info("connecting to PostgreSQL")
		dbConfig := postgres.DefaultConfig(cfg.DatabaseURL)
		dbConfig.MaxOpenConns = cfg.DBMaxOpenConns
		db, err := postgres.Connect(ctx, dbConfig)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)

		if cfg.DBAutoMigrate {
			if err := db.InitSchema(ctx); err != nil {
				b.close(logger)
				return nil, err
			}
		}
		logger.Info("PostgreSQL connected")

		b.spaces = postgres.NewSpaceStore(db)
		b.documents = postgres.NewDocumentStore(db)
		b.publications = postgres.NewPublicationStore(db)
		b.slugs = postgres.NewSlugStore(db)
		advisory := postgres.NewAdvisoryLock(db)
		b.closers = append(b.closers, advisory.Close)
		b.lock = advisory
		b.checks["postgres"] = db

	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		b.spaces = memory.NewSpaceStore()
		b.documents = memory.NewDocumentStore()
		b.publications = memory.NewPublicationStore()
		b.slugs = memory.NewSlugStore()
		lock := memory.NewLock()
		b.lock = lock
		b.checks["lock"] = lock
	}

	if cfg.RedisURL != "" {
		logger.Info("connecting to Redis")
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			b.close(logger)
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		b.closers = append(b.closers, client.Close)

		lock := redisadapter.NewLock(client)
		if err := lock.Ping(ctx); err != nil {
			b.close(logger)
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		b.lock = lock
		b.slugs = redisadapter.NewSlugStore(client)
		delete(b.checks, "lock")
		b.checks["redis"] = lock
		logger.Info("using Redis lock and slug registry", "owner_id", lock.OwnerID())
	}

	return b, nil
}
