// Package ocr turns an order screenshot into the line sequence the parser
// consumes. Two engines are available: a local tesseract binary and the Baidu
// cloud OCR API.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haoxuny/orderscan/internal/common"
)

// Result is the recognized content of one image.
type Result struct {
	// Lines holds the recognized fragments in reading order.
	Lines []string

	// Text is the full recognized block, lines joined by newlines.
	Text string

	// Method names the engine that produced the result.
	Method string

	Language string
	Duration time.Duration
	Warnings []string
}

// Engine recognizes the text content of an image file.
type Engine interface {
	Recognize(ctx context.Context, path string) (Result, error)
}

// NewEngine builds the engine selected by configuration.
func NewEngine(cfg common.OCRConfig, logger *slog.Logger) (Engine, error) {
	switch cfg.Engine {
	case "", "tesseract":
		return NewTesseract(TesseractConfig{
			Binary:      cfg.TesseractBin,
			TessdataDir: cfg.TessdataDir,
			Languages:   cfg.Languages,
		}, logger), nil
	case "baidu":
		return NewBaidu(BaiduConfig{
			APIKey:    cfg.BaiduAPIKey,
			SecretKey: cfg.BaiduSecret,
			Timeout:   cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine: %q", cfg.Engine)
	}
}
