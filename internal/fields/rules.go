package fields

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/docgate/constants"
)

const currencyCodes = `RM|Rp|USD|EUR|GBP|MYR|SGD|IDR|INR|JPY|CAD|AUD|NZD|CHF|HKD|CNY|PHP|THB`

var (
	reGap      = regexp.MustCompile(`\s{2,}|\t`)
	reLabel    = regexp.MustCompile(`^(\p{L}[\p{L}\p{N} .,#/&()'_-]*?)\s*:\s*(\S.*?)\s*$`)
	reNumbered = regexp.MustCompile(`^(\d{1,3})[.)]\s+(\S.*)$`)

	reNumber    = regexp.MustCompile(`^-?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?$`)
	reInteger   = regexp.MustCompile(`^\d+$`)
	reCurrTok   = regexp.MustCompile(`^(?:[$£€¥₹]|` + currencyCodes + `)$`)
	reCurrGlued = regexp.MustCompile(`^(?:[$£€¥₹]|` + currencyCodes + `)(-?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?)$`)

	reLooseMoney = regexp.MustCompile(`(?:[$£€¥₹]\s?|\b(?:` + currencyCodes + `)\s?)-?\d[\d,]*(?:\.\d+)?`)
	reLooseDate  = regexp.MustCompile(`(?i)\b(?:\d{4}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}|\d{1,2} (?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]* \d{2,4})\b`)

	reSummary = buildSummary()
)

var headerWords = map[string]bool{
	"description": true, "desc": true, "item": true, "items": true, "qty": true,
	"quantity": true, "price": true, "unit": true, "amount": true, "amt": true,
	"total": true, "rate": true, "perkara": true, "kuantiti": true, "harga": true,
}

// buildSummary matches "<summary label> [qualifier] <amount>" rows such as
// "TOTAL $42.10" or "Tax 6% 2.10". Longer labels are tried first.
func buildSummary() *regexp.Regexp {
	labels := append([]string(nil), constants.SummaryLabels...)
	sort.SliceStable(labels, func(i, j int) bool { return len(labels[i]) > len(labels[j]) })
	alt := make([]string, len(labels))
	for i, l := range labels {
		alt[i] = strings.ReplaceAll(regexp.QuoteMeta(l), " ", `\s+`)
	}
	money := `(?:[$£€¥₹]\s?|(?:` + currencyCodes + `)\s?)?-?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`
	return regexp.MustCompile(`(?i)^((?:` + strings.Join(alt, "|") + `)\b[^:]*?)\s+(` + money + `)$`)
}

type lineKind int

const (
	lineOther lineKind = iota
	lineDone
	lineHeader
	lineItemStrong // three numeric columns or an explicit x/@ marker
	lineItemWeak   // two numeric columns, needs a neighbour
)

type parsed struct {
	kind    lineKind
	text    string
	records []Record
}

func parsePage(lines []string, page int) []Record {
	rows := make([]parsed, len(lines))
	for i, l := range lines {
		rows[i] = classify(strings.TrimSpace(l), page)
	}

	var out []Record
	for i, r := range rows {
		switch r.kind {
		case lineDone, lineItemStrong:
			out = append(out, r.records...)
		case lineItemWeak:
			if itemNeighbour(rows, i-1) || itemNeighbour(rows, i+1) {
				out = append(out, r.records...)
			} else {
				out = append(out, looseValues(r.text, page)...)
			}
		case lineOther:
			out = append(out, looseValues(r.text, page)...)
		}
	}
	return out
}

func itemNeighbour(rows []parsed, i int) bool {
	if i < 0 || i >= len(rows) {
		return false
	}
	switch rows[i].kind {
	case lineHeader, lineItemStrong, lineItemWeak:
		return true
	}
	return false
}

func classify(line string, page int) parsed {
	if line == "" {
		return parsed{kind: lineOther}
	}
	if m := reNumbered.FindStringSubmatch(line); m != nil {
		rest := m[2]
		if rec, kind, ok := lineItem(rest, page); ok && kind == lineItemStrong {
			return parsed{kind: lineDone, records: []Record{rec}}
		}
		return parsed{kind: lineDone, records: []Record{{Type: KindLineItem, Description: collapse(rest), Page: page}}}
	}
	if recs := labelValues(line, page); len(recs) > 0 {
		return parsed{kind: lineDone, records: recs}
	}
	if m := reSummary.FindStringSubmatch(line); m != nil && len(m[1]) <= maxLabelLen {
		return parsed{kind: lineDone, records: []Record{{Type: KindField, Key: collapse(m[1]), Value: collapse(m[2]), Page: page}}}
	}
	if isHeader(line) {
		return parsed{kind: lineHeader}
	}
	if rec, kind, ok := lineItem(line, page); ok {
		return parsed{kind: kind, text: line, records: []Record{rec}}
	}
	return parsed{kind: lineOther, text: line}
}

// labelValues handles "Label : value" lines, including several pairs laid out
// in columns on one line.
func labelValues(line string, page int) []Record {
	if cells := joinDanglingLabels(reGap.Split(line, -1)); len(cells) > 1 {
		var recs []Record
		for _, c := range cells {
			rec, ok := labelValue(c, page)
			if !ok {
				recs = nil
				break
			}
			recs = append(recs, rec)
		}
		if len(recs) > 0 {
			return recs
		}
	}
	if rec, ok := labelValue(line, page); ok {
		return []Record{rec}
	}
	return nil
}

// joinDanglingLabels glues a cell that ends in ':' to the cell after it, so
// layout text such as "Receipt No:   A-123" stays one pair.
func joinDanglingLabels(cells []string) []string {
	out := cells[:0:0]
	for i := 0; i < len(cells); i++ {
		c := strings.TrimSpace(cells[i])
		if strings.HasSuffix(c, ":") && i+1 < len(cells) {
			c += " " + strings.TrimSpace(cells[i+1])
			i++
		}
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func labelValue(s string, page int) (Record, bool) {
	m := reLabel.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Record{}, false
	}
	label := collapse(m[1])
	if len(label) > maxLabelLen || strings.HasPrefix(m[2], "//") {
		return Record{}, false
	}
	return Record{Type: KindField, Key: label, Value: collapse(m[2]), Page: page}, true
}

func isHeader(line string) bool {
	if strings.ContainsAny(line, "0123456789") {
		return false
	}
	hits := 0
	for _, w := range strings.Fields(strings.ToLower(line)) {
		if headerWords[strings.Trim(w, ".:|")] {
			hits++
		}
	}
	return hits >= 2
}

type numTok struct {
	text     string
	integer  bool
	currency bool
}

func (n numTok) looksLikeAmount() bool {
	return n.currency || strings.Contains(n.text, ".")
}

func isMultiplier(t string) bool {
	switch strings.ToLower(t) {
	case "x", "@", "×":
		return true
	}
	return false
}

// lineItem reads trailing numeric columns off line.
func lineItem(line string, page int) (Record, lineKind, bool) {
	toks := strings.Fields(line)
	var nums []numTok
	mul := false
	i := len(toks) - 1
scan:
	for i >= 0 && len(nums) < 3 {
		t := toks[i]
		switch {
		case reNumber.MatchString(t):
			n := numTok{text: t, integer: reInteger.MatchString(t)}
			if i > 0 && reCurrTok.MatchString(toks[i-1]) {
				n = numTok{text: toks[i-1] + " " + t, currency: true}
				i--
			}
			nums = append(nums, n)
		case reCurrGlued.MatchString(t):
			nums = append(nums, numTok{text: t, currency: true})
		case isMultiplier(t) && (len(nums) == 1 || len(nums) == 2):
			mul = true
		default:
			break scan
		}
		i--
	}
	if len(nums) < 2 {
		return Record{}, lineOther, false
	}
	for l, r := 0, len(nums)-1; l < r; l, r = l+1, r-1 {
		nums[l], nums[r] = nums[r], nums[l]
	}
	desc := strings.TrimRight(strings.Join(toks[:i+1], " "), " :-")
	if !hasLetter(desc) || !nums[len(nums)-1].looksLikeAmount() {
		return Record{}, lineOther, false
	}
	if isSummaryLabel(desc) {
		return Record{Type: KindField, Key: desc, Value: nums[len(nums)-1].text, Page: page}, lineItemStrong, true
	}

	rec := Record{Type: KindLineItem, Description: desc, Page: page}
	switch {
	case len(nums) == 3:
		if nums[0].currency {
			return Record{}, lineOther, false
		}
		rec.Quantity, rec.Price, rec.Amount = nums[0].text, nums[1].text, nums[2].text
		return rec, lineItemStrong, true
	case nums[0].integer && !nums[0].currency:
		rec.Quantity, rec.Amount = nums[0].text, nums[1].text
	default:
		rec.Price, rec.Amount = nums[0].text, nums[1].text
	}
	if mul {
		return rec, lineItemStrong, true
	}
	return rec, lineItemWeak, true
}

func isSummaryLabel(desc string) bool {
	d := strings.ToLower(desc)
	for _, l := range constants.SummaryLabels {
		if d == l || strings.HasPrefix(d, l+" ") {
			return true
		}
	}
	return false
}

type looseMatch struct {
	at  int
	key string
	val string
}

// looseValues picks currency amounts and dates out of otherwise unclaimed text.
func looseValues(line string, page int) []Record {
	if line == "" {
		return nil
	}
	var ms []looseMatch
	for _, loc := range reLooseMoney.FindAllStringIndex(line, -1) {
		ms = append(ms, looseMatch{at: loc[0], key: "Amount", val: strings.TrimSpace(line[loc[0]:loc[1]])})
	}
	for _, loc := range reLooseDate.FindAllStringIndex(line, -1) {
		ms = append(ms, looseMatch{at: loc[0], key: "Date", val: line[loc[0]:loc[1]]})
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].at < ms[j].at })
	out := make([]Record, 0, len(ms))
	for _, m := range ms {
		out = append(out, Record{Type: KindField, Key: m.key, Value: m.val, Page: page})
	}
	return out
}
