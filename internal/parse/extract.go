package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	reCJKRun       = regexp.MustCompile(`[\x{4e00}-\x{9fff}]{2,4}`)
	reMaskedPhone  = regexp.MustCompile(`\d{3}\*{4}\d{4}`)
	reFullPhone    = regexp.MustCompile(`1[3-9]\d{9}`)
	reAddressNoise = regexp.MustCompile(`[展开▼>»@$&*√]`)

	reShopAmount = regexp.MustCompile(`\d+\.?\d*[¥￥]?`)
	reQuantity   = regexp.MustCompile(`[×*xX]\s*\d+`)

	reNameYuan    = regexp.MustCompile(`[¥￥]\s*\d+\.?\d*`)
	reNameAt      = regexp.MustCompile(`\d+\.?\d*\s*@`)
	reNameVersion = regexp.MustCompile(`v\d+\.?\d*`)
	reNameBracket = regexp.MustCompile(`【[^】]+】`)
	reNameSquare  = regexp.MustCompile(`\[[^\]]+\]`)
	reNameSweep   = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9\s]`)
	reNonCJKWord  = regexp.MustCompile(`[^\x{4e00}-\x{9fff}a-zA-Z ]`)
	reOCRNoise    = regexp.MustCompile(`[¥￥@\d.\s×*xX]`)

	reSpecBracket = regexp.MustCompile(`【([^】]{2,30})】`)
	reSpecMeasure = regexp.MustCompile(`\d+\s*[mMlLgG克毫升]{1,2}`)
	reSpecPack    = regexp.MustCompile(`\d+\s*[支瓶包条盒只个]`)
	reSpecPair    = regexp.MustCompile(`\d+[a-zA-Z]+\s*,\s*\d+[^,，;\s]+`)

	rePriceYuan   = regexp.MustCompile(`[¥￥]\s*(\d+\.?\d*)`)
	rePaidLabeled = regexp.MustCompile(`实付[:：]\s*[¥￥]?\s*(\d+\.?\d*)`)
	rePaidParen   = regexp.MustCompile(`[¥￥]\s*(\d+\.?\d*)\s*\(`)
	rePaidAt      = regexp.MustCompile(`(\d+\.\d{2})\s*@`)

	reOrderCode   = regexp.MustCompile(`(\d{6}-\d{9,15})`)
	reCodeStrip   = regexp.MustCompile(`[^\d-]`)
	reDateTime    = regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}\s+\d{1,2}:\d{1,2}:\d{1,2}`)
	reDateOnly    = regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`)
	reClockPrefix = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}`)
)

// receiverDenylist holds CJK runs that appear near the phone row but can
// never be a person's name.
var receiverDenylist = []string{
	"待取件", "已签收", "运输中", "交易成功",
	"昨天", "今天", "小时", "分钟", "驿站", "取件码",
}

// productNoise lists the action-button and policy captions that interleave
// with the product description block.
var productNoise = []string{
	"分享商品", "联系商家", "申请售后", "7天无理由退货", "退货包运费",
}

// extract walks the anchored lines and fills each field with its first
// matching rule. Fields whose rules all miss stay empty.
func (p *Parser) extract(lines []string, a Anchors) ExtractedOrder {
	var o ExtractedOrder

	o.OrderStatus = a.StatusText

	p.extractRecipient(lines, a, &o)
	p.extractShop(lines, a, &o)
	p.extractProduct(lines, a, &o)
	p.extractPrices(lines, a, &o)
	p.extractDetails(lines, a, &o)
	p.extractTimes(lines, a, &o)

	o.finalize()

	if o.LogisticsCompany == "" && o.TrackingNumber != "" {
		o.LogisticsCompany = courierFromTracking(o.TrackingNumber)
	}
	if o.ProductPrice == "" && o.AmountPaid != "" && o.AmountPaid != "0.00" {
		o.ProductPrice = o.AmountPaid
	}

	return o
}

// extractRecipient resolves contact, receiver and shipping address around the
// phone anchor.
func (p *Parser) extractRecipient(lines []string, a Anchors, o *ExtractedOrder) {
	if a.PhoneLine == NotFound {
		return
	}
	phoneLine := lines[a.PhoneLine]
	o.Contact = p.v.Phone.FindString(phoneLine)

	// Receiver: the first short CJK run before the number that is not a
	// status phrase or pickup-notice word. Falls back to the previous line.
	before := phoneLine
	if o.Contact != "" {
		if idx := strings.Index(phoneLine, o.Contact); idx >= 0 {
			before = phoneLine[:idx]
		}
	}
	o.Receiver = findReceiver(before)
	if o.Receiver == "" && a.PhoneLine > 0 {
		o.Receiver = findReceiver(lines[a.PhoneLine-1])
	}

	if a.AddressLine == NotFound {
		return
	}
	addr := lines[a.AddressLine]
	if o.Contact != "" {
		addr = strings.ReplaceAll(addr, o.Contact, "")
	}
	addr = reMaskedPhone.ReplaceAllString(addr, "")
	addr = reFullPhone.ReplaceAllString(addr, "")
	addr = reAddressNoise.ReplaceAllString(addr, "")
	if o.Receiver != "" {
		addr = strings.ReplaceAll(addr, o.Receiver, "")
	}
	addr = strings.TrimSpace(addr)
	if utf8.RuneCountInString(addr) >= 8 {
		o.ShippingAddress = addr
	}
}

func findReceiver(s string) string {
	for _, run := range reCJKRun.FindAllString(s, -1) {
		if !isDenied(run) {
			return run
		}
	}
	return ""
}

func isDenied(run string) bool {
	for _, d := range receiverDenylist {
		if strings.Contains(d, run) || strings.Contains(run, d) {
			return true
		}
	}
	return false
}

// extractShop cleans the store row into a shop name.
func (p *Parser) extractShop(lines []string, a Anchors, o *ExtractedOrder) {
	if a.StoreLine == NotFound {
		return
	}
	s := lines[a.StoreLine]
	if idx := strings.Index(s, ">"); idx >= 0 {
		s = s[:idx]
	}
	s = reShopAmount.ReplaceAllString(s, "")
	s = reQuantity.ReplaceAllString(s, "")
	s = reNonCJKWord.ReplaceAllString(s, " ")
	s = strings.TrimSpace(reRunSpace.ReplaceAllString(s, " "))
	n := utf8.RuneCountInString(s)
	if n >= 2 && n <= 40 {
		o.ShopName = s
	}
}

// extractProduct derives product name and specification from the block
// between the shop row and the action buttons.
func (p *Parser) extractProduct(lines []string, a Anchors, o *ExtractedOrder) {
	if a.ProductStart == NotFound {
		return
	}
	end := a.ProductEnd
	if end == NotFound || end >= len(lines) {
		end = len(lines) - 1
	}
	block := make([]string, 0, end-a.ProductStart+1)
	for i := a.ProductStart; i <= end && i < len(lines); i++ {
		if containsAny(lines[i], productNoise) {
			continue
		}
		block = append(block, lines[i])
	}
	if len(block) == 0 {
		return
	}

	name := cleanProductName(block[0])
	if utf8.RuneCountInString(name) < 4 && len(block) > 1 {
		name = cleanProductFallback(block[1])
	}
	if utf8.RuneCountInString(name) >= 4 {
		if tokens := strings.Fields(name); len(tokens) >= 2 {
			if len(tokens) > 4 {
				tokens = tokens[:4]
			}
			name = strings.Join(tokens, " ")
		}
		o.ProductName = name
	}

	o.Specification = extractSpecification(block)
}

func cleanProductName(s string) string {
	s = reNameYuan.ReplaceAllString(s, "")
	s = reNameAt.ReplaceAllString(s, "")
	s = reNameVersion.ReplaceAllString(s, "")
	s = reQuantity.ReplaceAllString(s, "")
	s = reNameBracket.ReplaceAllString(s, "")
	s = reNameSquare.ReplaceAllString(s, "")
	s = reNameSweep.ReplaceAllString(s, " ")
	return strings.TrimSpace(reRunSpace.ReplaceAllString(s, " "))
}

// cleanProductFallback keeps only CJK and latin word content, used when the
// first block line was entirely price and quantity noise.
func cleanProductFallback(s string) string {
	s = reOCRNoise.ReplaceAllString(s, "")
	s = reNonCJKWord.ReplaceAllString(s, " ")
	return strings.TrimSpace(reRunSpace.ReplaceAllString(s, " "))
}

func extractSpecification(block []string) string {
	var specs []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		specs = append(specs, s)
	}
	for _, line := range block {
		for _, m := range reSpecBracket.FindAllStringSubmatch(line, -1) {
			add(m[1])
		}
		for _, m := range reSpecMeasure.FindAllString(line, -1) {
			if len(m) >= 2 && !isDigits(m) {
				add(m)
			}
		}
		for _, m := range reSpecPack.FindAllString(line, -1) {
			add(m)
		}
		for _, m := range reSpecPair.FindAllString(line, -1) {
			add(m)
		}
	}
	if len(specs) > 3 {
		specs = specs[:3]
	}
	return strings.Join(specs, "; ")
}

// extractPrices resolves unit price and the amount actually paid.
func (p *Parser) extractPrices(lines []string, a Anchors, o *ExtractedOrder) {
	if a.PriceLine != NotFound {
		if m := rePriceAt.FindStringSubmatch(lines[a.PriceLine]); m != nil {
			o.ProductPrice = normalizePrice(m[1])
		}
	}
	if o.ProductPrice == "" {
		// No @-quantity row: take the first plausible yuan amount outside
		// the paid-total row.
		for _, line := range lines {
			if strings.Contains(line, "实付") {
				continue
			}
			if m := rePriceYuan.FindStringSubmatch(line); m != nil {
				if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 && v <= 9999.99 {
					o.ProductPrice = fmt.Sprintf("%.2f", v)
					break
				}
			}
		}
	}

	if a.RealPayLine == NotFound {
		return
	}
	payLine := lines[a.RealPayLine]
	switch {
	case strings.Contains(payLine, "先用后付实付"):
		// Pay-after-delivery shows no amount at purchase time. Plain
		// 先用后付 mentions (coupon captions) still carry a real amount.
		o.AmountPaid = "0.00"
	default:
		if m := rePaidLabeled.FindStringSubmatch(payLine); m != nil {
			o.AmountPaid = normalizePaid(m[1])
			return
		}
		if m := rePaidParen.FindStringSubmatch(payLine); m != nil {
			o.AmountPaid = normalizePaid(m[1])
			return
		}
		if m := rePaidAt.FindStringSubmatch(payLine); m != nil {
			o.AmountPaid = normalizePaid(m[1])
			return
		}
		if containsAny(payLine, []string{"¥0", "￥0", "xO", "yxO"}) {
			o.AmountPaid = "0.00"
		}
	}
}

// normalizePrice fixes the recurring OCR defect where a decimal point in an
// @-quantity amount is lost, turning 0.89 into 089. A three-digit integer is
// reread as d.dd before range checking.
func normalizePrice(raw string) string {
	if len(raw) == 3 && !strings.Contains(raw, ".") {
		raw = raw[:1] + "." + raw[1:]
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0.01 || v > 9999.99 {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

func normalizePaid(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

// extractDetails reads the order-detail block: order code, payment method,
// carrier and tracking number.
func (p *Parser) extractDetails(lines []string, a Anchors, o *ExtractedOrder) {
	block := lines
	if a.OrderStart != NotFound {
		block = lines[a.OrderStart:min(a.OrderStart+15, len(lines))]
	}

	for _, line := range block {
		if o.OrderCode == "" && strings.Contains(line, "订单编号") {
			if m := reOrderCode.FindStringSubmatch(line); m != nil {
				o.OrderCode = m[1]
			} else if stripped := reCodeStrip.ReplaceAllString(line, ""); len(stripped) > 10 {
				o.OrderCode = stripped
			}
		}
		if o.PaymentMethod == "" && strings.Contains(line, "支付方式") {
			o.PaymentMethod = paymentMethod(line)
		}
		if o.LogisticsCompany == "" && strings.Contains(line, "物流公司") {
			o.LogisticsCompany = identifyCourier(line)
		}
		if o.TrackingNumber == "" && strings.Contains(line, "快递单号") {
			for _, re := range p.v.TrackingPatterns {
				if m := re.FindString(line); m != "" {
					o.TrackingNumber = m
					break
				}
			}
		}
	}

	// Tesseract drops the tracking label often enough that a bare
	// carrier-prefixed digit run on its own line is trusted.
	if o.TrackingNumber == "" && p.v.BareTracking != nil {
		for _, line := range lines {
			if p.v.BareTracking.MatchString(line) {
				o.TrackingNumber = line
				break
			}
		}
	}
}

func paymentMethod(line string) string {
	switch {
	case strings.Contains(line, "先用后付"):
		return "先用后付"
	case strings.Contains(line, "支付宝"):
		return "支付宝"
	case strings.Contains(line, "微信"):
		return "微信支付"
	case strings.Contains(line, "RR"):
		// OCR misread of the pay-after-delivery badge.
		return "先用后付"
	}
	return ""
}

// extractTimes resolves the three timestamps. The order page frequently wraps
// a timestamp so the date lands on the labeled line and the clock on the
// next; both shapes are handled.
func (p *Parser) extractTimes(lines []string, a Anchors, o *ExtractedOrder) {
	block := lines
	offset := 0
	if a.OrderStart != NotFound {
		offset = a.OrderStart
		block = lines[a.OrderStart:min(a.OrderStart+15, len(lines))]
	}

	for i, line := range block {
		target := timeTarget(line, o)
		if target == nil {
			continue
		}
		if m := reDateTime.FindString(line); m != "" {
			*target = m
			continue
		}
		// A wrapped timestamp puts the clock on the next line. A date with
		// no clock anywhere is not a usable timestamp.
		if d := reDateOnly.FindString(line); d != "" {
			abs := offset + i
			if abs+1 < len(lines) {
				if clock := reClockPrefix.FindString(lines[abs+1]); clock != "" {
					*target = d + " " + clock
				}
			}
		}
	}

	// A completed order prints its delivery timestamp on the status row.
	if o.ShipTime == "" {
		for _, line := range lines {
			if strings.Contains(line, "交易成功") {
				if m := reDateTime.FindString(line); m != "" {
					o.ShipTime = m
					break
				}
			}
		}
	}
	if o.ShipTime == "" {
		for _, line := range lines {
			if strings.Contains(line, "下单") || strings.Contains(line, "拼单") {
				continue
			}
			if m := reDateTime.FindString(line); m != "" && m != o.OrderTime && m != o.GroupTime {
				o.ShipTime = m
				break
			}
		}
	}
}

func timeTarget(line string, o *ExtractedOrder) *string {
	switch {
	case strings.Contains(line, "下单时间") && o.OrderTime == "":
		return &o.OrderTime
	case (strings.Contains(line, "拼单时间") || strings.Contains(line, "拼音时间")) && o.GroupTime == "":
		return &o.GroupTime
	case strings.Contains(line, "发货时间") && o.ShipTime == "":
		return &o.ShipTime
	}
	return nil
}
