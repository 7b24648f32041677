// Package pipeline coordinates OCR, parsing and persistence for one
// uploaded screenshot.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/entity"
	"github.com/haoxuny/orderscan/internal/ocr"
	"github.com/haoxuny/orderscan/internal/parse"
	"github.com/haoxuny/orderscan/internal/repository"
)

// Recognition quality levels reported to the client.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

const (
	highFieldCount   = 10
	mediumFieldCount = 5
)

// Outcome is the result of recognizing one screenshot.
type Outcome struct {
	Order      parse.ExtractedOrder
	FieldCount int
	Quality    string
	Method     string
	RawText    string
	Duration   time.Duration

	// Saved is set when the order was persisted.
	Saved *entity.Order
}

// ToEntity maps the parse result onto a storable record.
func (out Outcome) ToEntity(uploadUser, sourceImage string) *entity.Order {
	o := out.Order
	return &entity.Order{
		UploadUser:       uploadUser,
		OrderCode:        o.OrderCode,
		ProductName:      o.ProductName,
		Specification:    o.Specification,
		ProductPrice:     o.ProductPrice,
		AmountPaid:       o.AmountPaid,
		PaymentMethod:    o.PaymentMethod,
		LogisticsCompany: o.LogisticsCompany,
		TrackingNumber:   o.TrackingNumber,
		OrderStatus:      o.OrderStatus,
		Receiver:         o.Receiver,
		Contact:          o.Contact,
		ShippingAddress:  o.ShippingAddress,
		ShopName:         o.ShopName,
		OrderTime:        o.OrderTime,
		GroupTime:        o.GroupTime,
		ShipTime:         o.ShipTime,
		SourceImage:      sourceImage,
		OCRText:          out.RawText,
	}
}

// Processor runs OCR then parse, and optionally stores the result.
type Processor struct {
	logger *slog.Logger
	engine ocr.Engine
	parser *parse.Parser
	orders repository.OrderRepository
}

func NewProcessor(logger *slog.Logger, engine ocr.Engine, parser *parse.Parser, orders repository.OrderRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if parser == nil {
		parser = parse.NewParser(parse.DefaultVariant())
	}
	return &Processor{logger: logger, engine: engine, parser: parser, orders: orders}
}

// Preview recognizes a screenshot without persisting anything.
func (p *Processor) Preview(ctx context.Context, imagePath string) (Outcome, error) {
	start := time.Now()

	res, err := p.engine.Recognize(ctx, imagePath)
	if err != nil {
		p.logger.Error("processor.ocr.failed", "path", imagePath, "err", err)
		return Outcome{}, fmt.Errorf("%w: %v", common.ErrOCRFailed, err)
	}
	p.logger.Info("processor.ocr.ok",
		"path", imagePath,
		"method", res.Method,
		"lines", len(res.Lines),
		"ocr_ms", res.Duration.Milliseconds(),
	)

	out := p.fromLines(res.Lines)
	out.Method = res.Method
	out.RawText = res.Text
	out.Duration = time.Since(start)
	return out, nil
}

// PreviewText parses an already recognized text block.
func (p *Processor) PreviewText(text string) Outcome {
	start := time.Now()
	out := p.fromLines(parse.SplitLines(text))
	out.Method = "text"
	out.RawText = text
	out.Duration = time.Since(start)
	return out
}

// ProcessImage recognizes a screenshot and stores the resulting order.
// A duplicate order code surfaces as common.ErrDuplicate with the outcome
// still populated, so callers can report who uploaded it first.
func (p *Processor) ProcessImage(ctx context.Context, imagePath, uploadUser string) (Outcome, error) {
	out, err := p.Preview(ctx, imagePath)
	if err != nil {
		return out, err
	}
	return p.store(ctx, out, uploadUser, imagePath)
}

// ProcessText parses a text block and stores the resulting order.
func (p *Processor) ProcessText(ctx context.Context, text, uploadUser string) (Outcome, error) {
	return p.store(ctx, p.PreviewText(text), uploadUser, "")
}

func (p *Processor) fromLines(lines []string) Outcome {
	order := p.parser.ParseLines(lines)
	count := order.ExtractedCount()
	return Outcome{
		Order:      order,
		FieldCount: count,
		Quality:    qualityFor(count),
	}
}

// store persists the outcome. An order without an order code is never
// saved; the outcome comes back with ErrNoOrderCode so callers can still
// show what was recognized.
func (p *Processor) store(ctx context.Context, out Outcome, uploadUser, sourceImage string) (Outcome, error) {
	o := out.Order
	if o.OrderCode == "" {
		p.logger.Warn("processor.store.no_order_code",
			"upload_user", uploadUser,
			"fields", out.FieldCount,
		)
		return out, common.ErrNoOrderCode
	}
	record := out.ToEntity(uploadUser, sourceImage)
	if err := p.orders.Create(ctx, record); err != nil {
		p.logger.Warn("processor.store.failed",
			"order_code", o.OrderCode,
			"upload_user", uploadUser,
			"err", err,
		)
		return out, err
	}
	out.Saved = record

	p.logger.Info("processor.store.ok",
		"order_id", record.ID,
		"order_code", record.OrderCode,
		"fields", out.FieldCount,
		"quality", out.Quality,
	)
	return out, nil
}

func qualityFor(count int) string {
	switch {
	case count >= highFieldCount:
		return QualityHigh
	case count >= mediumFieldCount:
		return QualityMedium
	default:
		return QualityLow
	}
}
