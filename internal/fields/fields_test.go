package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docgate/internal/extract"
)

func field(k, v string) Record {
	return Record{Type: KindField, Key: k, Value: v, Page: 1}
}

func TestParseLabelValue(t *testing.T) {
	got := ParseText("Amount: $99.99")
	require.Equal(t, []Record{field("Amount", "$99.99")}, got)
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, ParseText(""))
	assert.Empty(t, ParseText("\n\n   \n"))
	assert.Nil(t, Parse(nil))
	assert.Empty(t, Parse(&extract.Document{}))
}

func TestParseMalayReceipt(t *testing.T) {
	text := `RESIT RASMI     No. Resit : 2025E0004343673
PERKESO
Tarikh Masa          :     05/03/2025 10:21:33
Kod Majikan          :     A3700012345
Nama Majikan         :     SYARIKAT CONTOH SDN BHD
Jumlah Bayaran       :     RM 245.60
Jenis Bayaran        :     1. Caruman Bulanan
2. Caruman SIP`

	got := ParseText(text)
	want := []Record{
		field("Document Type", "RESIT RASMI"),
		field("No. Resit", "2025E0004343673"),
		field("Tarikh Masa", "05/03/2025 10:21:33"),
		field("Kod Majikan", "A3700012345"),
		field("Nama Majikan", "SYARIKAT CONTOH SDN BHD"),
		field("Jumlah Bayaran", "RM 245.60"),
		field("Jenis Bayaran", "1. Caruman Bulanan"),
		{Type: KindLineItem, Description: "Caruman SIP", Page: 1},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "RESIT RASMI", Title(got))
}

func TestParseLineItems(t *testing.T) {
	text := `STORE RECEIPT
Description       Qty   Price   Amount
Apples              3    4.50    13.50
Coffee 2 x 5.00 10.00
Bread             1      2.20
Milk              2      3.10
Subtotal 28.80
TOTAL   $30.53`

	got := ParseText(text)
	want := []Record{
		field("Document Type", "STORE RECEIPT"),
		{Type: KindLineItem, Description: "Apples", Quantity: "3", Price: "4.50", Amount: "13.50", Page: 1},
		{Type: KindLineItem, Description: "Coffee", Quantity: "2", Price: "5.00", Amount: "10.00", Page: 1},
		{Type: KindLineItem, Description: "Bread", Quantity: "1", Amount: "2.20", Page: 1},
		{Type: KindLineItem, Description: "Milk", Quantity: "2", Amount: "3.10", Page: 1},
		field("Subtotal", "28.80"),
		field("TOTAL", "$30.53"),
	}
	assert.Equal(t, want, got)
}

func TestParseLoneTwoColumnRowIsNotAnItem(t *testing.T) {
	got := ParseText("Thank you for visiting\nTable 4 12.50\nSee you soon")
	assert.Empty(t, got)
}

func TestParseTwoColumnPriceAmount(t *testing.T) {
	got := ParseText("Latte 4.50 4.50\nMuffin 3.25 6.50")
	want := []Record{
		{Type: KindLineItem, Description: "Latte", Price: "4.50", Amount: "4.50", Page: 1},
		{Type: KindLineItem, Description: "Muffin", Price: "3.25", Amount: "6.50", Page: 1},
	}
	assert.Equal(t, want, got)
}

func TestParseNumberedList(t *testing.T) {
	got := ParseText("1. Caruman Bulanan\n2) Widget 2 5.00 10.00")
	want := []Record{
		{Type: KindLineItem, Description: "Caruman Bulanan", Page: 1},
		{Type: KindLineItem, Description: "Widget", Quantity: "2", Price: "5.00", Amount: "10.00", Page: 1},
	}
	assert.Equal(t, want, got)
}

func TestParseColumnsOfLabels(t *testing.T) {
	got := ParseText("Date: 2024-03-05     Time: 10:30")
	assert.Equal(t, []Record{field("Date", "2024-03-05"), field("Time", "10:30")}, got)
}

func TestParseLayoutColumnsWithGapAfterColon(t *testing.T) {
	got := ParseText("Receipt No:  A-123       Date:  2024-01-05")
	assert.Equal(t, []Record{field("Receipt No", "A-123"), field("Date", "2024-01-05")}, got)

	got = ParseText("Cashier:    Ann")
	assert.Equal(t, []Record{field("Cashier", "Ann")}, got)
}

func TestParseLooseValues(t *testing.T) {
	got := ParseText("Paid USD 12.00 on 12 Mar 2024 and €3 later")
	want := []Record{
		field("Amount", "USD 12.00"),
		field("Date", "12 Mar 2024"),
		field("Amount", "€3"),
	}
	assert.Equal(t, want, got)
}

func TestParseIgnoresURLsAndPhoneNumbers(t *testing.T) {
	got := ParseText("https://example.com/receipt\nTel 03 1234 5678")
	assert.Empty(t, got)
}

func TestParseTitleRequiresKeyword(t *testing.T) {
	got := ParseText("ACME HARDWARE\nTotal: 5.00")
	assert.Equal(t, []Record{field("Total", "5.00")}, got)
	assert.Equal(t, "", Title(got))
}

func TestParseMultiPage(t *testing.T) {
	doc := &extract.Document{Pages: []extract.Page{
		{Number: 1, Text: ""},
		{Number: 2, Text: "INVOICE\nInvoice No: 42"},
		{Number: 3, Text: "Total Amount: $10.00"},
	}}
	got := Parse(doc)
	want := []Record{
		{Type: KindField, Key: "Document Type", Value: "INVOICE", Page: 2},
		{Type: KindField, Key: "Invoice No", Value: "42", Page: 2},
		{Type: KindField, Key: "Total Amount", Value: "$10.00", Page: 3},
	}
	assert.Equal(t, want, got)
}

func TestParseIsIdempotent(t *testing.T) {
	text := "OFFICIAL RECEIPT\nDate: 01/02/2024\nTea 2 1.50 3.00\nTOTAL RM3.00"
	first := ParseText(text)
	second := ParseText(text)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}
