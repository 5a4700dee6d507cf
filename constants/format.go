package constants

import "strings"

// OutputFormat is the rendering requested by a conversion.
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
)

var allFormats = []OutputFormat{FormatText, FormatMarkdown, FormatJSON}

// ParseOutputFormat accepts the canonical names (case-insensitive) plus "md" and "txt".
func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "txt":
		return FormatText, true
	case "markdown", "md":
		return FormatMarkdown, true
	case "json":
		return FormatJSON, true
	}
	return "", false
}

// FormatNames returns the canonical output format names.
func FormatNames() []string {
	out := make([]string, len(allFormats))
	for i, f := range allFormats {
		out[i] = string(f)
	}
	return out
}

// FileExt is the extension used when an output is saved next to its source.
func (f OutputFormat) FileExt() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}
