package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/nlsql/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/nlsql/pkg/adapters/datasource/mysql"
	_ "github.com/ekaya-inc/nlsql/pkg/adapters/datasource/postgres"
	_ "github.com/ekaya-inc/nlsql/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/nlsql/pkg/cache"
	"github.com/ekaya-inc/nlsql/pkg/config"
	"github.com/ekaya-inc/nlsql/pkg/llm"
	"github.com/ekaya-inc/nlsql/pkg/logging"
	"github.com/ekaya-inc/nlsql/pkg/schema"
	"github.com/ekaya-inc/nlsql/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, os.Args[1:]); err != nil {
		logger.Error("Translation failed", zap.String("error", logging.SanitizeError(err)))
		fmt.Fprintln(os.Stderr, logging.SanitizeError(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connMgr := datasource.NewConnectionManager(datasource.ConnectionManagerConfig{
		TTLMinutes:   cfg.Datasource.ConnectionTTLMinutes,
		MaxPools:     cfg.Datasource.MaxPools,
		PoolMaxConns: cfg.Datasource.PoolMaxConns,
		PoolMinConns: cfg.Datasource.PoolMinConns,
	}, logger)
	defer connMgr.Close()

	opener := datasource.NewDatasourceAdapterFactory(connMgr)
	datasourceService := services.NewDatasourceService(opener, logger)

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		var kinds []string
		for _, info := range datasourceService.ListTypes() {
			kinds = append(kinds, info.DisplayName)
		}
		return fmt.Errorf("usage: nlsql <question>  (supported databases: %s)", strings.Join(kinds, ", "))
	}

	store, err := cache.NewStore(ctx, cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("failed to open schema cache: %w", err)
	}
	defer store.Close()

	schemaCache := cache.NewSchemaCache(
		store,
		opener,
		schema.NewExtractor(logger),
		schema.NewSampler(cfg.Datasource.SampleTables, cfg.Datasource.SampleRows, logger),
		time.Duration(cfg.Cache.TTLMinutes)*time.Minute,
		logger,
	)

	httpClient := llm.NewHTTPClient(time.Duration(cfg.AI.TimeoutSeconds) * time.Second)
	dispatcher := llm.NewDispatcher(httpClient, logger)

	translationService := services.NewTranslationService(schemaCache, dispatcher, services.TranslationOptions{
		DefaultProvider: cfg.AI.ProviderConfig(),
	}, logger)

	logger.Info("Translating",
		zap.String("version", cfg.Version),
		zap.String("provider", string(cfg.AI.Provider)),
		zap.String("db_type", string(cfg.Profile.Type)),
		zap.String("cache", cfg.Cache.Type))

	temperature := cfg.AI.Temperature
	result, err := translationService.Translate(ctx, services.TranslateRequest{
		Question:       question,
		Profile:        cfg.Profile.ConnectionProfile(),
		Temperature:    &temperature,
		IncludeSamples: cfg.Datasource.SampleTables > 0,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.SQL)
	return nil
}
