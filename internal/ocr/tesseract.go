package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// TesseractConfig configures the local tesseract engine.
type TesseractConfig struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	TessdataDir string
	Languages   string // default "chi_sim+eng"

	PSM int // page segmentation mode, default 6 (uniform block of text)
	OEM int // engine mode, default 3

	// SkipPreprocess feeds the image to tesseract untouched.
	SkipPreprocess bool
}

// Tesseract runs the tesseract binary against a preprocessed screenshot.
type Tesseract struct {
	cfg    TesseractConfig
	runner Runner
	logger *slog.Logger
}

// NewTesseract builds the engine, filling config defaults.
func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "chi_sim+eng"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.OEM <= 0 {
		cfg.OEM = 3
	}
	return &Tesseract{cfg: cfg, runner: newExecRunner(logger), logger: logger}
}

func (t *Tesseract) Recognize(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	var warns []string

	input := path
	if !t.cfg.SkipPreprocess {
		out, cleanup, err := preprocess(path)
		if err != nil {
			// Recognition on the raw image still has a chance.
			t.logger.Warn("image preprocess failed", "path", path, "error", err)
			warns = append(warns, err.Error())
		} else {
			defer cleanup()
			input = out
		}
	}

	args := []string{input, "stdout",
		"-l", t.cfg.Languages,
		"--psm", fmt.Sprintf("%d", t.cfg.PSM),
		"--oem", fmt.Sprintf("%d", t.cfg.OEM),
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Binary, args...)
	if err != nil {
		return Result{Method: "tesseract", Warnings: append(warns, string(errb))},
			fmt.Errorf("tesseract: %w", err)
	}

	text := strings.TrimSpace(string(out))
	return Result{
		Lines:    splitNonEmpty(text),
		Text:     text,
		Method:   "tesseract",
		Language: t.cfg.Languages,
		Duration: time.Since(start),
		Warnings: warns,
	}, nil
}

func splitNonEmpty(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
