package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/ocr"
	"github.com/haoxuny/orderscan/internal/parse"
	"github.com/haoxuny/orderscan/internal/pipeline"
)

// scanorder recognizes a single order screenshot (or an already extracted
// text file) and prints the parsed order as JSON.
func main() {
	textFile := flag.String("text", "", "parse a recognized text file instead of running OCR")
	engineName := flag.String("engine", "", "ocr engine: tesseract or baidu (default from OCR_ENGINE)")
	timeout := flag.Duration("timeout", 2*time.Minute, "recognition timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	if *engineName != "" {
		cfg.OCR.Engine = *engineName
	}

	parser := parse.NewParser(variantFor(cfg.OCR.Engine))

	if *textFile != "" {
		data, err := os.ReadFile(*textFile)
		if err != nil {
			fatal("read text file: %v", err)
		}
		printOutcome(pipeline.NewProcessor(logger, nil, parser, nil).PreviewText(string(data)))
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scanorder [-engine tesseract|baidu] <image>")
		fmt.Fprintln(os.Stderr, "       scanorder -text <recognized.txt>")
		os.Exit(2)
	}

	engine, err := ocr.NewEngine(cfg.OCR, logger)
	if err != nil {
		fatal("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	processor := pipeline.NewProcessor(logger, engine, parser, nil)
	out, err := processor.Preview(ctx, flag.Arg(0))
	if err != nil {
		fatal("recognize: %v", err)
	}
	printOutcome(out)
}

func variantFor(engine string) parse.Variant {
	if engine == "tesseract" {
		return parse.TesseractVariant()
	}
	return parse.DefaultVariant()
}

func printOutcome(out pipeline.Outcome) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"order":       out.Order,
		"field_count": out.FieldCount,
		"quality":     out.Quality,
		"method":      out.Method,
	}); err != nil {
		fatal("encode: %v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
