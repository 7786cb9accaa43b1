package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX renders the workbook to an xlsx file at path.
func WriteXLSX(w *Workbook, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for _, sheet := range w.Sheets {
		if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet.Name, err)
		}
		if err := writeRows(f, sheet); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	if err := ensureParentDir(path); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet Sheet) error {
	rows := append([][]string{sheet.Header}, sheet.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet.Name, err)
		}
	}
	return nil
}

// ensureParentDir creates the directory a report file is written into.
func ensureParentDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	return nil
}
