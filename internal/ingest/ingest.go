package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/pipeline"
)

// Processor is the slice of the pipeline the ingestor needs.
type Processor interface {
	ProcessImage(ctx context.Context, imagePath, uploadUser string) (pipeline.Outcome, error)
}

// Ingestor consumes watcher events and runs each screenshot through the
// pipeline. Duplicate orders are logged and skipped.
type Ingestor struct {
	proc       Processor
	uploadUser string
	logger     *slog.Logger
}

func NewIngestor(proc Processor, uploadUser string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	if uploadUser == "" {
		uploadUser = "watcher"
	}
	return &Ingestor{proc: proc, uploadUser: uploadUser, logger: logger}
}

// Run watches the directory until the context is cancelled.
func (in *Ingestor) Run(ctx context.Context, root string) error {
	events, errs, err := StartWatcher(ctx, WatchConfig{
		Root:        root,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	})
	if err != nil {
		return err
	}

	in.logger.Info("ingest.watch.started", "root", root)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case werr, ok := <-errs:
			if ok && werr != nil {
				in.logger.Error("ingest.watch.error", "err", werr)
			}
		case path, ok := <-events:
			if !ok {
				return nil
			}
			in.handle(ctx, path)
		}
	}
}

func (in *Ingestor) handle(ctx context.Context, path string) {
	out, err := in.proc.ProcessImage(ctx, path, in.uploadUser)
	switch {
	case errors.Is(err, common.ErrDuplicate):
		in.logger.Info("ingest.duplicate", "path", path, "order_code", out.Order.OrderCode)
	case errors.Is(err, common.ErrNoOrderCode):
		in.logger.Warn("ingest.no_order_code", "path", path, "fields", out.FieldCount)
	case err != nil:
		in.logger.Error("ingest.failed", "path", path, "err", err)
	default:
		in.logger.Info("ingest.ok",
			"path", path,
			"order_code", out.Order.OrderCode,
			"quality", out.Quality,
		)
	}
}
