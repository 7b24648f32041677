package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/export"
	"github.com/haoxuny/orderscan/internal/ingest"
	"github.com/haoxuny/orderscan/internal/ocr"
	"github.com/haoxuny/orderscan/internal/parse"
	"github.com/haoxuny/orderscan/internal/pipeline"
	"github.com/haoxuny/orderscan/internal/repository"
	"github.com/haoxuny/orderscan/internal/server"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Env
	if err := godotenv.Load(); err != nil {
		log.Debugw("no .env file loaded", "err", err)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := repository.Open(cfg.Database)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	orders := repository.NewOrderRepository(db)
	log.Infow("database ready", "dsn", cfg.Database.DSN)

	// OCR engine
	engine, err := ocr.NewEngine(cfg.OCR, slog.Default())
	if err != nil {
		log.Fatalf("building ocr engine: %v", err)
	}

	parser := parse.NewParser(parserVariant(cfg.OCR.Engine))
	processor := pipeline.NewProcessor(slog.Default(), engine, parser, orders)
	exporter := export.NewService(orders, cfg.Export.SheetName, slog.Default())

	// Optional drop-directory watcher.
	if cfg.Ingest.WatchDir != "" {
		ing := ingest.NewIngestor(processor, cfg.Ingest.UploadUser, slog.Default())
		go func() {
			if err := ing.Run(ctx, cfg.Ingest.WatchDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("ingest watcher: %v", err)
			}
		}()
	}

	srv := server.New(cfg.Server, processor, orders, exporter, slog.Default())
	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("http serving on %s", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	log.Info("stopped.")
}

// parserVariant picks the anchor rule set matching the recognition engine.
func parserVariant(engine string) parse.Variant {
	if engine == "tesseract" {
		return parse.TesseractVariant()
	}
	return parse.DefaultVariant()
}
