package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	accounting "tbill-market/internal/accounting/domain"
	"tbill-market/internal/fixedpoint"
)

// FormatAmount renders a scaled amount as a decimal string with seven
// fractional digits.
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%07d", sign, amount/fixedpoint.Scale, amount%fixedpoint.Scale)
}

// BuildReportPDF renders a minimal PDF for the accounting snapshot.
func BuildReportPDF(record *accounting.ProtocolAccounting, generatedAt time.Time) ([]byte, error) {
	if record == nil {
		return nil, accounting.ErrNilRecord
	}
	profit, err := record.Profit()
	if err != nil {
		return nil, err
	}
	available, err := record.AvailableForLending()
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Protocol Accounting Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if !record.UpdatedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Last Updated: %s", record.UpdatedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	rows := [][2]string{
		{"Total Cash Collected", FormatAmount(record.TotalCashCollected)},
		{"Total Liability Minted", FormatAmount(record.TotalLiabilityMinted)},
		{"Total Lent", FormatAmount(record.TotalLent)},
		{"Total Repo Revenue", FormatAmount(record.TotalRepoRevenue)},
		{"Total Defaults", fmt.Sprintf("%d", record.TotalDefaults)},
		{"Protocol Profit", FormatAmount(profit)},
		{"Available For Lending", FormatAmount(available)},
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Measure", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Value", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(70, 6, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, row[1], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a minimal XLSX for the accounting snapshot.
func BuildReportXLSX(record *accounting.ProtocolAccounting, generatedAt time.Time) ([]byte, error) {
	if record == nil {
		return nil, accounting.ErrNilRecord
	}
	profit, err := record.Profit()
	if err != nil {
		return nil, err
	}
	available, err := record.AvailableForLending()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "report"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Protocol Accounting Report")
	_ = f.SetCellValue(sheet, "A2", "Generated")
	_ = f.SetCellValue(sheet, "B2", generatedAt.Format(time.RFC3339))

	rows := [][2]string{
		{"Total Cash Collected", FormatAmount(record.TotalCashCollected)},
		{"Total Liability Minted", FormatAmount(record.TotalLiabilityMinted)},
		{"Total Lent", FormatAmount(record.TotalLent)},
		{"Total Repo Revenue", FormatAmount(record.TotalRepoRevenue)},
		{"Total Defaults", fmt.Sprintf("%d", record.TotalDefaults)},
		{"Protocol Profit", FormatAmount(profit)},
		{"Available For Lending", FormatAmount(available)},
	}
	for i, row := range rows {
		line := i + 4
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", line), row[0])
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", line), row[1])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
