// Package parse converts the noisy line sequence produced by an OCR engine
// for a group-buying order screenshot into a fixed 16-field order record.
//
// The pipeline is a strict three-stage pass: normalize lines, locate layout
// anchors, extract fields. It is pure and deterministic; malformed input
// degrades field by field to the empty string, never to an error.
package parse

import (
	"regexp"
	"strings"
)

// ExtractedOrder is the parse result. The key set is fixed: every invocation
// produces exactly these sixteen fields, empty string where the document gave
// no usable signal.
type ExtractedOrder struct {
	OrderCode        string `json:"order_code"`
	ProductName      string `json:"product_name"`
	Specification    string `json:"specification"`
	ProductPrice     string `json:"product_price"`
	AmountPaid       string `json:"amount_paid"`
	PaymentMethod    string `json:"payment_method"`
	LogisticsCompany string `json:"logistics_company"`
	TrackingNumber   string `json:"tracking_number"`
	OrderStatus      string `json:"order_status"`
	Receiver         string `json:"receiver"`
	Contact          string `json:"contact"`
	ShippingAddress  string `json:"shipping_address"`
	ShopName         string `json:"shop_name"`
	OrderTime        string `json:"order_time"`
	GroupTime        string `json:"group_time"`
	ShipTime         string `json:"ship_time"`
}

// FieldCount is the size of the fixed key set.
const FieldCount = 16

// FieldKeys lists the record's JSON keys in declaration order.
var FieldKeys = []string{
	"order_code", "product_name", "specification", "product_price",
	"amount_paid", "payment_method", "logistics_company", "tracking_number",
	"order_status", "receiver", "contact", "shipping_address",
	"shop_name", "order_time", "group_time", "ship_time",
}

// Values returns the field values in FieldKeys order.
func (o ExtractedOrder) Values() []string {
	return []string{
		o.OrderCode, o.ProductName, o.Specification, o.ProductPrice,
		o.AmountPaid, o.PaymentMethod, o.LogisticsCompany, o.TrackingNumber,
		o.OrderStatus, o.Receiver, o.Contact, o.ShippingAddress,
		o.ShopName, o.OrderTime, o.GroupTime, o.ShipTime,
	}
}

// ExtractedCount reports how many of the sixteen fields are non-empty.
func (o ExtractedOrder) ExtractedCount() int {
	n := 0
	for _, v := range o.Values() {
		if v != "" {
			n++
		}
	}
	return n
}

var (
	reRunSpace = regexp.MustCompile(`\s+`)
	reEdgeTrim = regexp.MustCompile(`^[^a-zA-Z0-9\x{4e00}-\x{9fff}]+|[^a-zA-Z0-9\x{4e00}-\x{9fff}]+$`)
)

// postProcess collapses internal whitespace and trims leading/trailing
// characters that are neither ASCII alphanumerics nor CJK ideographs.
// Applied to every field before the record is returned.
func postProcess(s string) string {
	if s == "" {
		return s
	}
	s = strings.TrimSpace(reRunSpace.ReplaceAllString(s, " "))
	return reEdgeTrim.ReplaceAllString(s, "")
}

func (o *ExtractedOrder) finalize() {
	o.OrderCode = postProcess(o.OrderCode)
	o.ProductName = postProcess(o.ProductName)
	o.Specification = postProcess(o.Specification)
	o.ProductPrice = postProcess(o.ProductPrice)
	o.AmountPaid = postProcess(o.AmountPaid)
	o.PaymentMethod = postProcess(o.PaymentMethod)
	o.LogisticsCompany = postProcess(o.LogisticsCompany)
	o.TrackingNumber = postProcess(o.TrackingNumber)
	o.OrderStatus = postProcess(o.OrderStatus)
	o.Receiver = postProcess(o.Receiver)
	o.Contact = postProcess(o.Contact)
	o.ShippingAddress = postProcess(o.ShippingAddress)
	o.ShopName = postProcess(o.ShopName)
	o.OrderTime = postProcess(o.OrderTime)
	o.GroupTime = postProcess(o.GroupTime)
	o.ShipTime = postProcess(o.ShipTime)
}

// Parser runs the normalize/locate/extract pipeline for one provider variant.
// The zero value is not usable; construct with NewParser.
type Parser struct {
	v Variant
}

// NewParser returns a parser bound to the given provider variant.
func NewParser(v Variant) *Parser {
	return &Parser{v: v}
}

// Parse splits a newline-delimited OCR text block and parses it.
func (p *Parser) Parse(raw string) ExtractedOrder {
	return p.ParseLines(SplitLines(raw))
}

// ParseLines parses an ordered sequence of recognized text fragments.
func (p *Parser) ParseLines(lines []string) ExtractedOrder {
	valid := filterNoise(NormalizeLines(lines))
	if len(valid) == 0 {
		return ExtractedOrder{}
	}
	anchors := p.locate(valid)
	return p.extract(valid, anchors)
}

// Parse is a convenience wrapper using the default (cloud provider) variant.
func Parse(raw string) ExtractedOrder {
	return NewParser(DefaultVariant()).Parse(raw)
}
