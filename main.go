package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/campusworks/registrar-engine/pkg/config"
	"github.com/campusworks/registrar-engine/pkg/database"
	"github.com/campusworks/registrar-engine/pkg/logging"
	"github.com/campusworks/registrar-engine/pkg/models"
	"github.com/campusworks/registrar-engine/pkg/repositories"
	"github.com/campusworks/registrar-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// The engine itself is a library; this entrypoint is the maintenance
// operation that deployment tooling re-runs defensively on every deploy:
// apply migrations, then idempotently register the canonical attribute set
// for each domain and report the outcome.
func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting registrar-engine bootstrap",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("domain_specs", cfg.DomainSpecPath))

	if err := run(cfg, logger); err != nil {
		logger.Error("Bootstrap failed", zap.String("error", logging.SanitizeError(err)))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// Migrations run over database/sql (required by golang-migrate).
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		return err
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		_ = sqlDB.Close()
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MinConnections,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	specs, err := models.LoadDomainSpecs(cfg.DomainSpecPath)
	if err != nil {
		return err
	}

	scopeCtx, release, err := database.WithScope(ctx, db)
	if err != nil {
		return err
	}
	defer release()

	bootstrapper := services.NewBootstrapper(repositories.NewAttributeRepository(), logger)
	report, err := bootstrapper.Ensure(scopeCtx, specs)
	if err != nil {
		return err
	}

	for _, conflict := range report.Conflicts() {
		logger.Warn("Kind conflict requires manual migration",
			zap.String("domain", conflict.Domain),
			zap.String("attribute", conflict.Attribute),
			zap.String("existing_kind", string(conflict.ExistingKind)),
			zap.String("requested_kind", string(conflict.Kind)))
	}

	logger.Info("Bootstrap finished",
		zap.Int("created", report.Created()),
		zap.Int("present", report.Present()),
		zap.Int("conflicts", len(report.Conflicts())))

	return nil
}
