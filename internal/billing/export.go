package billing

import (
	"bytes"
	"fmt"

	"github.com/agensea/agency-nexus-flow/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	invoiceSheet   = "Invoice"
	itemsHeaderRow = 9
	dateLayout     = "2006-01-02"
)

// ExportXLSX renders an invoice, its items and totals as a workbook.
func ExportXLSX(org *models.Organization, invoice *models.Invoice) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	clientName := ""
	if invoice.Client != nil {
		clientName = invoice.Client.Name
		if invoice.Client.Company != "" {
			clientName += " (" + invoice.Client.Company + ")"
		}
	}
	dueDate := ""
	if invoice.DueDate != nil {
		dueDate = invoice.DueDate.Format(dateLayout)
	}

	header := [][2]any{
		{"Invoice", invoice.Number},
		{"Organization", org.Name},
		{"Tax ID", org.TaxID},
		{"Client", clientName},
		{"Issue date", invoice.IssueDate.Format(dateLayout)},
		{"Due date", dueDate},
		{"Status", string(invoice.Status)},
	}
	for i, row := range header {
		if err := setRow(f, i+1, row[0], row[1]); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(invoiceSheet, "A1", fmt.Sprintf("A%d", len(header)), boldStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	if err := setRow(f, itemsHeaderRow, "Description", "Quantity", "Unit price", "Amount"); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(invoiceSheet, fmt.Sprintf("A%d", itemsHeaderRow), fmt.Sprintf("D%d", itemsHeaderRow), boldStyle); err != nil {
		return nil, fmt.Errorf("failed to style items header: %w", err)
	}

	row := itemsHeaderRow + 1
	for _, item := range invoice.Items {
		if err := setRow(f, row, item.Description, item.Quantity, item.UnitPrice, item.Amount); err != nil {
			return nil, err
		}
		row++
	}

	row++
	summary := [][2]any{
		{"Subtotal", invoice.Subtotal},
		{"Discount", invoice.Discount},
		{fmt.Sprintf("Tax (%g%%)", invoice.TaxRate), invoice.TaxAmount},
		{"Total", invoice.Total},
	}
	for _, line := range summary {
		if err := setRow(f, row, nil, nil, line[0], line[1]); err != nil {
			return nil, err
		}
		row++
	}
	if err := setRow(f, row, nil, nil, "Total ("+invoice.Currency+")", FormatAmount(invoice.Currency, invoice.Total)); err != nil {
		return nil, err
	}

	if err := f.SetColWidth(invoiceSheet, "A", "A", 40); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(invoiceSheet, "B", "D", 16); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// setRow writes values into consecutive columns starting at A; nil cells are skipped.
func setRow(f *excelize.File, row int, values ...any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetCellValue(invoiceSheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}
