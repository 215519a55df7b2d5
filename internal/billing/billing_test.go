package billing

import (
	"bytes"
	"testing"
	"time"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fixtureItems() []models.InvoiceItem {
	return []models.InvoiceItem{
		{Description: "Website design", Quantity: 1, UnitPrice: 1500},
		{Description: "Content hours", Quantity: 20, UnitPrice: 100},
	}
}

func TestCalculateTotals_Fixture(t *testing.T) {
	totals := CalculateTotals(fixtureItems(), 0, 10)

	assert.Equal(t, 3500.0, totals.Subtotal)
	assert.Equal(t, 350.0, totals.TaxAmount)
	assert.Equal(t, 3850.0, totals.Total)
}

func TestCalculateTotals_Discount(t *testing.T) {
	totals := CalculateTotals(fixtureItems(), 500, 10)

	assert.Equal(t, 3500.0, totals.Subtotal)
	assert.Equal(t, 300.0, totals.TaxAmount)
	assert.Equal(t, 3300.0, totals.Total)
}

func TestCalculateTotals_Empty(t *testing.T) {
	assert.Equal(t, Totals{}, CalculateTotals(nil, 0, 20))
}

func TestApply(t *testing.T) {
	invoice := &models.Invoice{Items: fixtureItems(), TaxRate: 10}
	Apply(invoice)

	assert.Equal(t, 1500.0, invoice.Items[0].Amount)
	assert.Equal(t, 2000.0, invoice.Items[1].Amount)
	assert.Equal(t, 3500.0, invoice.Subtotal)
	assert.Equal(t, 350.0, invoice.TaxAmount)
	assert.Equal(t, 3850.0, invoice.Total)
}

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	for _, bad := range []string{"", "US", "123", "EURO"} {
		_, err := NormalizeCurrency(bad)
		assert.ErrorIs(t, err, ErrInvalidCurrency, bad)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Contains(t, FormatAmount("USD", 3850), "$")
	assert.NotEmpty(t, FormatAmount("not-a-code", 12.5))
}

func TestExportXLSX(t *testing.T) {
	due := time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC)
	invoice := &models.Invoice{
		Number:    "INV-2026-0001",
		Status:    models.InvoiceStatusSent,
		IssueDate: time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC),
		DueDate:   &due,
		Currency:  "USD",
		TaxRate:   10,
		Items:     fixtureItems(),
		Client:    &models.Client{Name: "Jane", Company: "Globex"},
	}
	Apply(invoice)

	buf, err := ExportXLSX(&models.Organization{Name: "Acme Agency"}, invoice)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	cell := func(axis string) string {
		v, err := f.GetCellValue(invoiceSheet, axis)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "INV-2026-0001", cell("B1"))
	assert.Equal(t, "Acme Agency", cell("B2"))
	assert.Equal(t, "Jane (Globex)", cell("B4"))
	assert.Equal(t, "2026-11-30", cell("B6"))
	assert.Equal(t, "Website design", cell("A10"))
	assert.Equal(t, "Content hours", cell("A11"))
	assert.Equal(t, "2000", cell("D11"))

	// Items end at row 11, one blank row, then the summary block.
	assert.Equal(t, "Subtotal", cell("C13"))
	assert.Equal(t, "3500", cell("D13"))
	assert.Equal(t, "Total", cell("C16"))
	assert.Equal(t, "3850", cell("D16"))
}
