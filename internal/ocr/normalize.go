package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reODigits    = regexp.MustCompile(`(\d)[Oo](\d)`) // "1O5.00" -> "105.00"
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-=|]{3,}\s*$`)

// Normalize collapses noisy whitespace and fixes common OCR artifacts.
// Conservative: keeps line breaks; collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = stripControl(s)
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	// collapse too many blank lines
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	// twice, so overlapping runs like "1OO2" are fixed too
	s = reODigits.ReplaceAllString(s, "${1}0${2}")
	s = reODigits.ReplaceAllString(s, "${1}0${2}")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// NormalizeLayout is Normalize for text whose column spacing carries meaning
// (pdftotext -layout): only line endings, control characters and trailing
// spaces are touched.
func NormalizeLayout(s string) string {
	s = reCRLF.ReplaceAllString(s, "\n")
	s = stripControl(s)
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.Trim(s, "\n")
}

// stripControl drops control characters other than newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
