package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"complianceapi/internal/config"
	"complianceapi/internal/database"
	"complianceapi/internal/database/migration"
	handlers "complianceapi/internal/http/handler"
	"complianceapi/internal/http/middleware"
	"complianceapi/internal/notify"
	appotel "complianceapi/internal/otel"
	"complianceapi/internal/registry"
	"complianceapi/internal/repository/postgres"
	"complianceapi/internal/service"
	"complianceapi/internal/storage"
	"complianceapi/internal/sweep"
)

func main() {
	// Configuration from environment variables (.env auto-loaded if present).
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := appotel.Init(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// The document type catalog is fixed at startup; a misconfigured catalog
	// refuses to boot rather than silently misclassifying documents.
	reg, err := registry.New(registry.Catalog())
	if err != nil {
		log.Fatalf("invalid document type catalog: %v", err)
	}

	recordRepo := postgres.NewRecordPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)

	subSvc := service.NewSubmissionService(reg, objStore, recordRepo, auditRepo)
	revSvc := service.NewReviewService(reg, recordRepo)
	compSvc := service.NewComplianceService(reg, recordRepo, cfg.Engine.WarningWindowMonths)

	promReg := prometheus.NewRegistry()

	sweepMetrics, err := sweep.NewMetrics(promReg)
	if err != nil {
		log.Fatalf("failed to register sweep metrics: %v", err)
	}
	sweeper := sweep.New(sweep.Config{
		Interval:            time.Duration(cfg.Engine.SweepIntervalMinutes) * time.Minute,
		WarningWindowMonths: cfg.Engine.WarningWindowMonths,
		RejectedArchiveDays: cfg.Engine.RejectedArchiveDays,
	}, reg, recordRepo, notify.NewLogNotifier(), sweepMetrics)
	go sweeper.Run(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(promReg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, subSvc, revSvc, compSvc,
		time.Duration(cfg.Engine.DownloadURLExpiryMinutes)*time.Minute)

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
