package parse

import "strings"

// courierAliases maps each carrier to the spellings OCR produces for it:
// the Chinese name, pinyin transliterations and the common two-letter
// abbreviations printed on waybills.
var courierAliases = []struct {
	name    string
	aliases []string
}{
	{"韵达", []string{"韵达", "yunda", "YD"}},
	{"申通", []string{"申通", "shentong", "ST"}},
	{"圆通", []string{"圆通", "yuantong", "YT"}},
	{"中通", []string{"中通", "zhongtong", "ZT"}},
	{"邮政", []string{"邮政", "邮政快递", "快递包", "youzheng", "EMS"}},
	{"顺丰", []string{"顺丰", "顺丰快递", "shunfeng", "SF"}},
	{"京东", []string{"京东", "京东快递", "jingdong", "JD"}},
	{"百世", []string{"百世", "百世快递", "baishi"}},
	{"天天", []string{"天天", "天天快递", "tiantian"}},
	{"德邦", []string{"德邦", "德邦快递", "debang"}},
}

// trackingPrefixes maps waybill number prefixes to carriers, most specific
// prefix first so that e.g. "464" wins over a bare "46" style catch-all.
var trackingPrefixes = []struct {
	prefix  string
	carrier string
}{
	{"464", "韵达"},
	{"777", "申通"},
	{"981", "邮政"},
	{"YT", "圆通"},
	{"SF", "顺丰"},
	{"JD", "京东"},
	{"88", "圆通"},
	{"78", "中通"},
	{"75", "中通"},
	{"12", "中通"},
	{"11", "申通"},
	{"10", "中通"},
}

// identifyCourier returns the canonical carrier name mentioned anywhere in
// the line, or "" when none of the known aliases occur.
func identifyCourier(line string) string {
	lower := strings.ToLower(line)
	for _, c := range courierAliases {
		for _, alias := range c.aliases {
			if strings.Contains(lower, strings.ToLower(alias)) {
				return c.name
			}
		}
	}
	return ""
}

// courierFromTracking infers the carrier from the waybill number alone.
// Prefix rules run first; length/format conventions cover the rest.
// Unresolvable numbers yield "".
func courierFromTracking(tracking string) string {
	for _, p := range trackingPrefixes {
		if strings.HasPrefix(tracking, p.prefix) {
			return p.carrier
		}
	}
	switch {
	case len(tracking) == 13 && isDigits(tracking):
		return "韵达"
	case len(tracking) == 12 && isDigits(tracking):
		return "申通"
	case strings.HasPrefix(tracking, "SF") && len(tracking) > 10:
		return "顺丰"
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
