package parse

import "regexp"

// Variant captures the rules that differ between OCR providers. The cloud
// provider returns clean per-line text and partially masked phone numbers with
// a variable asterisk run; the local tesseract engine produces rougher text
// with a fixed four-asterisk mask and occasionally drops the tracking-number
// label, leaving the bare number on its own line.
type Variant struct {
	Name string

	// Closed set of order status phrases searched in the first lines.
	Statuses []string

	// Masked phone pattern for the phone anchor.
	Phone *regexp.Regexp

	// Ordered tracking-number patterns tried against the labeled line.
	TrackingPatterns []*regexp.Regexp

	// When set, a line that is nothing but a known carrier-prefixed digit run
	// is accepted as the tracking number even without its label.
	BareTracking *regexp.Regexp
}

var (
	rePhoneCloud     = regexp.MustCompile(`1[3-9]\d[\d*]{6,10}\d{2,4}`)
	rePhoneTesseract = regexp.MustCompile(`1[3-9]\d\*{4}\d{4}`)

	trackingCloud = []*regexp.Regexp{
		regexp.MustCompile(`\d{10,20}`),
		regexp.MustCompile(`YT\d{12,14}`),
		regexp.MustCompile(`464\d{12}`),
		regexp.MustCompile(`777\d{12}`),
		regexp.MustCompile(`981\d{12}`),
		regexp.MustCompile(`785\d{12}`),
		regexp.MustCompile(`SF\d{12,15}`),
		regexp.MustCompile(`JD\d{12,15}`),
	}

	reBareYunda = regexp.MustCompile(`^464\d{12}$`)
)

// DefaultVariant is the consolidated profile keyed on the cloud provider's
// per-line output. It is the reference rule set.
func DefaultVariant() Variant {
	return Variant{
		Name:             "cloud",
		Statuses:         []string{"待取件", "已签收", "运输中", "交易成功"},
		Phone:            rePhoneCloud,
		TrackingPatterns: trackingCloud,
	}
}

// TesseractVariant adapts the anchor rules to local tesseract output.
func TesseractVariant() Variant {
	return Variant{
		Name:             "tesseract",
		Statuses:         []string{"待取件", "已签收", "运输中"},
		Phone:            rePhoneTesseract,
		TrackingPatterns: trackingCloud,
		BareTracking:     reBareYunda,
	}
}
