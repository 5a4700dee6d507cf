package constants

import "strings"

// DocumentKeywords mark a title line as a document type ("OFFICIAL RECEIPT", "RESIT RASMI").
var DocumentKeywords = []string{
	"RECEIPT",
	"INVOICE",
	"RESIT",
	"BILL",
	"STATEMENT",
	"FAKTUR",
	"INVOIS",
	"QUOTATION",
	"ESTIMATE",
	"PURCHASE ORDER",
	"CREDIT NOTE",
	"PACKING SLIP",
}

// SummaryLabels start lines that summarise a document rather than list an item.
var SummaryLabels = []string{
	"amount due",
	"balance due",
	"grand total",
	"sub total",
	"subtotal",
	"total",
	"jumlah",
	"tax",
	"vat",
	"gst",
	"sst",
	"tip",
	"discount",
	"balance",
	"change",
	"cash",
	"rounding",
}

// HasDocumentKeyword reports whether line contains one of DocumentKeywords as a word.
func HasDocumentKeyword(line string) bool {
	up := " " + strings.ToUpper(line) + " "
	for _, kw := range DocumentKeywords {
		if strings.Contains(up, " "+kw+" ") || strings.Contains(up, " "+kw+"S ") {
			return true
		}
	}
	return false
}
