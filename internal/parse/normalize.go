package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Glyphs OCR tends to hallucinate around UI chrome and product imagery.
	reArtifacts = regexp.MustCompile("[©™®«»“”‘’'\"`~|]")

	// Trailing "expand" affordance the order page renders after a truncated
	// address line.
	reExpandTail = regexp.MustCompile(`展开\s*[▼▾v]?\s*$`)

	// Phone status bar: a clock reading followed by signal/battery icon noise.
	reStatusBar = regexp.MustCompile(`^\d{1,2}:\d{2}\s+[!@#$%^&*()]`)
)

// SplitLines breaks a raw OCR text block into normalized lines.
func SplitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return NormalizeLines(strings.Split(raw, "\n"))
}

// NormalizeLines cleans each fragment and drops the ones too short to carry
// order content. Input order is preserved.
func NormalizeLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = reArtifacts.ReplaceAllString(line, "")
		line = reExpandTail.ReplaceAllString(line, "")
		line = strings.TrimSpace(reRunSpace.ReplaceAllString(line, " "))
		if utf8.RuneCountInString(line) < 2 {
			continue
		}
		out = append(out, line)
	}
	return out
}

// filterNoise removes status-bar lines recognized from the top of a phone
// screenshot. If the filter would discard everything, the unfiltered input is
// returned: a non-empty document must never normalize to zero lines.
func filterNoise(lines []string) []string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if reStatusBar.MatchString(line) || strings.Contains(line, "5G GE") {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return lines
	}
	return kept
}
