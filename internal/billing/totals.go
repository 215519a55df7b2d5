package billing

import "github.com/agensea/agency-nexus-flow/internal/models"

// Totals are the derived amounts of an invoice.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	TaxAmount float64 `json:"tax_amount"`
	Total     float64 `json:"total"`
}

// CalculateTotals computes
//
//	subtotal  = Σ(quantity × unit price)
//	taxAmount = (subtotal − discount) × taxRate / 100
//	total     = subtotal − discount + taxAmount
//
// in plain float64 without rounding.
func CalculateTotals(items []models.InvoiceItem, discount, taxRate float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Quantity * item.UnitPrice
	}

	taxable := subtotal - discount
	taxAmount := taxable * taxRate / 100

	return Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     taxable + taxAmount,
	}
}

// Apply recomputes every item amount and the invoice totals in place.
func Apply(invoice *models.Invoice) {
	for i := range invoice.Items {
		invoice.Items[i].Amount = invoice.Items[i].Quantity * invoice.Items[i].UnitPrice
	}

	totals := CalculateTotals(invoice.Items, invoice.Discount, invoice.TaxRate)
	invoice.Subtotal = totals.Subtotal
	invoice.TaxAmount = totals.TaxAmount
	invoice.Total = totals.Total
}
