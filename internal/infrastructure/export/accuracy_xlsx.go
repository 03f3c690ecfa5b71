// Package export renders reports as spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"lumpiah/internal/domain/production"
)

// ContentTypeXLSX is the MIME type of generated workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const accuracySheet = "Accuracy"

var accuracyHeadings = []string{
	"Product", "Target", "Production", "Sold", "Deviation", "Sales Gap", "Insight",
}

// AccuracyFilename returns the attachment name for a report.
func AccuracyFilename(r *production.AccuracyReport) string {
	if r.BranchID != nil {
		return fmt.Sprintf("accuracy-%s-%s.xlsx", r.BranchID, r.Date)
	}
	return fmt.Sprintf("accuracy-all-%s.xlsx", r.Date)
}

// WriteAccuracyXLSX writes one sheet with a row per product followed by a totals row.
func WriteAccuracyXLSX(w io.Writer, r *production.AccuracyReport) error {
	f, err := buildAccuracyWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func buildAccuracyWorkbook(r *production.AccuracyReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", accuracySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range accuracyHeadings {
		if err := setCell(f, i+1, 1, h); err != nil {
			f.Close()
			return nil, err
		}
	}

	row := 2
	for _, item := range r.Items {
		values := []any{
			item.ProductName, item.Target, item.Production, item.Sold,
			item.Deviation, item.SalesGap, string(item.Insight),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				f.Close()
				return nil, err
			}
		}
		row++
	}

	s := r.Summary
	totals := []any{"Total", s.TotalTarget, s.TotalProduction, s.TotalSold, s.TotalDeviation, s.TotalProduction - s.TotalSold, ""}
	for col, v := range totals {
		if err := setCell(f, col+1, row, v); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetPanes(accuracySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	return f, nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellValue(accuracySheet, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}
