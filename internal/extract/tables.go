package extract

import (
	"regexp"
	"strings"
)

var reColumnGap = regexp.MustCompile(`\s{2,}`)

// detectTables finds runs of at least two consecutive lines that split into
// three or more columns on gaps of two or more spaces.
func detectTables(text string) []Table {
	var tables []Table
	var run Table
	flush := func() {
		if len(run) >= 2 {
			tables = append(tables, run)
		}
		run = nil
	}
	for _, line := range strings.Split(text, "\n") {
		cells := splitColumns(line)
		if len(cells) >= 3 {
			run = append(run, cells)
			continue
		}
		flush()
	}
	flush()
	return tables
}

func splitColumns(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return reColumnGap.Split(line, -1)
}
