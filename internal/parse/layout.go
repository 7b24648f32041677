package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// NotFound marks an anchor the locator could not place.
const NotFound = -1

// Anchors holds the line indices of the structurally significant rows of one
// order screenshot, computed once per document and consumed read-only by the
// extractor. StatusText carries the literal status phrase when StatusLine is
// set.
type Anchors struct {
	StatusLine   int
	PhoneLine    int
	AddressLine  int
	StoreLine    int
	ProductStart int
	ProductEnd   int
	PriceLine    int
	RealPayLine  int
	OrderStart   int
	ButtonsLine  int

	StatusText string
}

func newAnchors() Anchors {
	return Anchors{
		StatusLine:   NotFound,
		PhoneLine:    NotFound,
		AddressLine:  NotFound,
		StoreLine:    NotFound,
		ProductStart: NotFound,
		ProductEnd:   NotFound,
		PriceLine:    NotFound,
		RealPayLine:  NotFound,
		OrderStart:   NotFound,
		ButtonsLine:  NotFound,
	}
}

var (
	addressKeywords = []string{"省", "市", "区", "街道", "路", "号"}
	shopKeywords    = []string{"店", "旗舰", "商城"}
	productMarkers  = []string{"x1", "×1", "@", "¥", "￥"}

	reAnyDigit   = regexp.MustCompile(`\d`)
	rePriceAt    = regexp.MustCompile(`(\d+\.?\d*)\s*@`)
	reYuanAmount = regexp.MustCompile(`[¥￥]\d+`)
)

// locate scans the normalized lines for the anchor rows. Anchors are resolved
// in a fixed dependency order: address is searched relative to the phone row,
// the shop relative to the address, the product block relative to the shop.
// First match wins for every rule.
func (p *Parser) locate(lines []string) Anchors {
	a := newAnchors()

	// Status phrase sits in the screenshot header.
	for i := 0; i < len(lines) && i < 5; i++ {
		if a.StatusLine != NotFound {
			break
		}
		for _, status := range p.v.Statuses {
			if strings.Contains(lines[i], status) {
				a.StatusLine = i
				a.StatusText = status
				break
			}
		}
	}

	for i, line := range lines {
		if p.v.Phone.MatchString(line) {
			a.PhoneLine = i
			break
		}
	}

	// Address follows the phone row within a short window.
	if a.PhoneLine != NotFound {
		end := min(a.PhoneLine+4, len(lines))
		for i := a.PhoneLine + 1; i < end; i++ {
			if hasAddressKeyword(lines[i]) && reAnyDigit.MatchString(lines[i]) {
				a.AddressLine = i
				break
			}
		}
		// The cloud provider sometimes pushes the address further down; fall
		// back to the line directly after the phone row when it carries an
		// address keyword even without a house number.
		if a.AddressLine == NotFound && a.PhoneLine+1 < len(lines) && hasAddressKeyword(lines[a.PhoneLine+1]) {
			a.AddressLine = a.PhoneLine + 1
		}
	}

	if a.AddressLine != NotFound {
		end := min(a.AddressLine+6, len(lines))
		for i := a.AddressLine + 1; i < end; i++ {
			line := lines[i]
			if !hasShopKeyword(line) || utf8.RuneCountInString(line) > 50 {
				continue
			}
			if containsAny(line, productMarkers) {
				continue
			}
			a.StoreLine = i
			break
		}
	}

	for i, line := range lines {
		if strings.Contains(line, "分享商品") || strings.Contains(line, "联系商家") {
			a.ButtonsLine = i
			break
		}
	}

	// Product description spans from the shop row down to the action buttons,
	// or to the first price/quantity row when the buttons were not recognized.
	if a.StoreLine != NotFound {
		a.ProductStart = a.StoreLine + 1
		if a.ButtonsLine != NotFound {
			a.ProductEnd = a.ButtonsLine - 1
		} else {
			for i := a.ProductStart; i < min(a.ProductStart+8, len(lines)); i++ {
				if strings.Contains(lines[i], "@") || reYuanAmount.MatchString(lines[i]) {
					a.ProductEnd = i - 1
					break
				}
			}
			if a.ProductEnd == NotFound {
				a.ProductEnd = min(a.ProductStart+6, len(lines)-1)
			}
		}
	}

	for i, line := range lines {
		if rePriceAt.MatchString(line) {
			a.PriceLine = i
			break
		}
	}

	for i, line := range lines {
		if strings.Contains(line, "实付") {
			a.RealPayLine = i
			break
		}
	}

	for i, line := range lines {
		if strings.Contains(line, "订单编号") {
			a.OrderStart = i
			break
		}
	}

	return a
}

func hasAddressKeyword(line string) bool { return containsAny(line, addressKeywords) }
func hasShopKeyword(line string) bool    { return containsAny(line, shopKeywords) }

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
