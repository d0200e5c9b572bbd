package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"3tcapital/facturas_sri/internal/adapters/archive/minio"
	auditpg "3tcapital/facturas_sri/internal/adapters/audit/postgres"
	healthhttp "3tcapital/facturas_sri/internal/adapters/http/health"
	invoicehttp "3tcapital/facturas_sri/internal/adapters/http/invoice"
	taxpayerhttp "3tcapital/facturas_sri/internal/adapters/http/taxpayer"
	invoicepg "3tcapital/facturas_sri/internal/adapters/invoice/postgres"
	"3tcapital/facturas_sri/internal/adapters/ocr/barcode"
	"3tcapital/facturas_sri/internal/adapters/ocr/paddle"
	"3tcapital/facturas_sri/internal/adapters/ocr/pdfimages"
	"3tcapital/facturas_sri/internal/adapters/ocr/pdftext"
	"3tcapital/facturas_sri/internal/adapters/ocr/tesseract"
	"3tcapital/facturas_sri/internal/adapters/ocr/vision"
	"3tcapital/facturas_sri/internal/adapters/sri"
	taxpayerpg "3tcapital/facturas_sri/internal/adapters/taxpayer/postgres"
	apphealth "3tcapital/facturas_sri/internal/application/health"
	"3tcapital/facturas_sri/internal/application/ingestion"
	appinvoice "3tcapital/facturas_sri/internal/application/invoice"
	appocr "3tcapital/facturas_sri/internal/application/ocr"
	apptaxpayer "3tcapital/facturas_sri/internal/application/taxpayer"
	"3tcapital/facturas_sri/internal/core/analyzer"
	"3tcapital/facturas_sri/internal/core/archive"
	"3tcapital/facturas_sri/internal/core/audit"
	"3tcapital/facturas_sri/internal/core/invoice"
	coreocr "3tcapital/facturas_sri/internal/core/ocr"
	"3tcapital/facturas_sri/internal/infrastructure/config"
	"3tcapital/facturas_sri/internal/infrastructure/database"
	httpinfra "3tcapital/facturas_sri/internal/infrastructure/http"
	"3tcapital/facturas_sri/internal/infrastructure/http/middleware"
	"3tcapital/facturas_sri/internal/infrastructure/http/server"
	"3tcapital/facturas_sri/internal/infrastructure/logger"
	"3tcapital/facturas_sri/internal/infrastructure/resilience"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("Database connection established", "database", cfg.Database.Database)

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(ctx, pool, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	invoiceRepo := invoicepg.NewRepository(pool, log)
	taxpayerRepo := taxpayerpg.NewRepository(pool, log)
	auditRepo := auditpg.NewRepository(pool, log)

	var store archive.Store
	var archiveStore *minio.Store
	if cfg.Storage.Enabled {
		archiveStore, err = minio.New(ctx, minio.Config{
			Endpoint:   cfg.Storage.Endpoint,
			AccessKey:  cfg.Storage.AccessKey,
			SecretKey:  cfg.Storage.SecretKey,
			Bucket:     cfg.Storage.Bucket,
			UseSSL:     cfg.Storage.UseSSL,
			PresignTTL: cfg.Storage.PresignTTL,
		}, log)
		if err != nil {
			return fmt.Errorf("connect archive: %w", err)
		}
		store = archiveStore
		log.Info("Original uploads will be archived", "bucket", cfg.Storage.Bucket)
	} else {
		log.Info("Archive disabled, original uploads are not kept")
	}

	engine, closeEngine, err := newEngine(ctx, cfg, log, auditRepo)
	if err != nil {
		return err
	}
	defer closeEngine()

	breaker := resilience.NewCircuitBreaker(cfg.OCR.BreakerMaxFailures, cfg.OCR.BreakerThreshold, cfg.OCR.BreakerCooldown)
	extractor := appocr.NewService(appocr.Config{
		Engine:     engine,
		TextLayer:  pdftext.New(),
		PageImager: pdfimages.New(cfg.OCR.MaxPDFImages),
		Barcode:    barcode.New(),
		Breaker:    breaker,
		Limiter:    resilience.NewLimiter(cfg.OCR.MaxConcurrent),
		Timeout:    cfg.OCR.Timeout,
	}, log)

	fallback, err := invoice.ParseMatchPolicy(cfg.Ingestion.DedupFallbackFields)
	if err != nil {
		return fmt.Errorf("dedup fallback fields: %w", err)
	}
	ocrPolicy, err := invoice.ParseMatchPolicy(cfg.Ingestion.DedupOCRFields)
	if err != nil {
		return fmt.Errorf("dedup OCR fields: %w", err)
	}

	taxpayerService := apptaxpayer.NewService(taxpayerRepo, cfg.Taxpayer.CacheTTL, log)
	ingestService := ingestion.NewService(ingestion.Config{
		Decoder:        sri.NewDecoder(),
		OCR:            extractor,
		Analyzer:       analyzer.New(analyzer.DefaultExtractors()...),
		Repo:           invoiceRepo,
		Archive:        store,
		Directory:      taxpayerService,
		FallbackPolicy: fallback,
		OCRPolicy:      ocrPolicy,
	}, log)
	batch := ingestion.NewBatchProcessor(ingestService, cfg.Ingestion.BatchWorkers, cfg.Ingestion.BatchQueueSize, log)
	invoiceService := appinvoice.NewService(invoiceRepo, store, log)

	checks := []apphealth.Check{
		{Name: "database", Critical: true, Probe: pool.Ping},
		{Name: "ocr", Probe: breaker.Probe},
	}
	if archiveStore != nil {
		checks = append(checks, apphealth.Check{Name: "archive", Probe: archiveStore.Ping})
	}
	healthService := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, checks...)

	auth, err := middleware.NewJWTAuthenticator(cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	if !cfg.Auth.Enabled {
		log.Warn("JWT authentication disabled", "dev_user_header", cfg.Auth.DevUserHeader)
	}

	srv, err := server.New(server.Options{
		Config:          cfg,
		Logger:          log,
		HealthHandler:   healthhttp.NewHandler(healthService),
		Authenticator:   auth,
		InvoiceHandler:  invoicehttp.NewHandler(invoiceService, log),
		UploadHandler:   invoicehttp.NewUploadHandler(ingestService, batch, cfg.HTTP.MaxUploadBytes, cfg.Ingestion.BatchMaxFiles, log),
		TaxpayerHandler: taxpayerhttp.NewHandler(taxpayerService, log),
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	defer srv.Close()

	log.Info("Starting facturas SRI service",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"ocr_engine", engine.Name(),
		"archive_enabled", store != nil,
	)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("Service stopped")
	return nil
}

// newEngine builds the configured OCR engine. The returned func releases
// any client the engine holds.
func newEngine(ctx context.Context, cfg config.AppConfig, log *slog.Logger, auditRepo audit.Repository) (coreocr.Engine, func(), error) {
	noop := func() {}

	switch cfg.OCR.Engine {
	case config.EngineTesseract:
		return tesseract.New(cfg.OCR.Language, cfg.OCR.TessdataPrefix), noop, nil

	case config.EnginePaddle:
		client := httpinfra.NewTracedClient(&httpinfra.TracedClientConfig{
			Timeout:         cfg.OCR.Timeout,
			AuditEnabled:    cfg.Audit.Enabled,
			LogRequestBody:  cfg.Audit.LogRequestBody,
			LogResponseBody: cfg.Audit.LogResponseBody,
			MaxBodySize:     cfg.Audit.MaxBodySize,
			MaxConnsPerHost: cfg.OCR.MaxConcurrent,
		}, log, auditRepo, config.EnginePaddle)
		return paddle.New(client, cfg.OCR.PaddleURL, cfg.OCR.PaddleMinConfidence), noop, nil

	case config.EngineVision:
		engine, err := vision.New(ctx, cfg.OCR.VisionCredentialsJSON, cfg.OCR.VisionCredentialsFile)
		if err != nil {
			return nil, noop, fmt.Errorf("init vision engine: %w", err)
		}
		return engine, func() {
			if err := engine.Close(); err != nil {
				log.Warn("Failed to close vision client", "error", err)
			}
		}, nil
	}

	return nil, noop, errors.New("unknown OCR engine " + cfg.OCR.Engine)
}
