package render

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docgate/internal/extract"
	"github.com/joseph-ayodele/docgate/internal/fields"
)

var reAmountNoise = regexp.MustCompile(`(?i)^(?:[$£€¥₹]|rm|rp|[a-z]{3})?\s*`)

// Markdown renders fields as a table, line items as a second table and falls
// back to the raw page text when nothing was recognised.
func Markdown(doc *extract.Document, records []fields.Record) string {
	var b strings.Builder

	if title := fields.Title(records); title != "" {
		fmt.Fprintf(&b, "# %s\n\n", escapeInline(title))
	}

	var scalars, items []fields.Record
	for _, r := range records {
		if r.Type == fields.KindLineItem {
			items = append(items, r)
		} else {
			scalars = append(scalars, r)
		}
	}

	if len(scalars) > 0 {
		b.WriteString("| Field | Value |\n")
		b.WriteString("|-------|-------|\n")
		for _, r := range scalars {
			fmt.Fprintf(&b, "| **%s** | %s |\n", escapeCell(r.Key), escapeCell(r.Value))
		}
	}

	if len(items) > 0 {
		if len(scalars) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## Line Items\n\n")
		b.WriteString("| Description | Quantity | Unit Price | Amount |\n")
		b.WriteString("|-------------|----------|------------|--------|\n")
		for _, r := range items {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escapeCell(r.Description), escapeCell(r.Quantity), escapeCell(r.Price), escapeCell(r.Amount))
		}
		b.WriteString("\n")
		b.WriteString(itemSummary(items))
		b.WriteString("\n")
	}

	if len(records) == 0 {
		for i, p := range doc.Pages {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "## Page %d\n\n```\n%s\n```\n", p.Number, strings.TrimRight(p.Text, "\n"))
		}
	}

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated from: %s*\n", sourceName(doc))
	return b.String()
}

// itemSummary counts line items and totals the amounts that parse as numbers.
// Amounts that do not parse are listed verbatim.
func itemSummary(items []fields.Record) string {
	var (
		total    float64
		unparsed []string
	)
	for _, r := range items {
		if r.Amount == "" {
			continue
		}
		if v, ok := parseAmount(r.Amount); ok {
			total += v
		} else {
			unparsed = append(unparsed, r.Amount)
		}
	}
	s := fmt.Sprintf("**Line items:** %d | **Amount total:** %.2f", len(items), total)
	if len(unparsed) > 0 {
		s += " (unparsed: " + escapeCell(strings.Join(unparsed, ", ")) + ")"
	}
	return s
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg, s = true, s[1:len(s)-1]
	}
	s = reAmountNoise.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// tableMarkdown renders detected tables, the first row of each as its header.
func tableMarkdown(tables []extract.Table) string {
	var blocks []string
	for _, t := range tables {
		if len(t) == 0 {
			continue
		}
		width := 0
		for _, row := range t {
			width = max(width, len(row))
		}
		var b strings.Builder
		for i, row := range t {
			cells := make([]string, width)
			for j := range cells {
				if j < len(row) {
					cells[j] = escapeCell(row[j])
				}
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
			if i == 0 {
				b.WriteString("|" + strings.Repeat("---|", width) + "\n")
			}
		}
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, `|`, `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func escapeInline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sourceName(doc *extract.Document) string {
	if doc.Path == "" {
		return "unknown"
	}
	return filepath.Base(doc.Path)
}
