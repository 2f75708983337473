package excel

import (
	"encoding/csv"
	"os"

	"trialstat/internal/errors"

	"github.com/xuri/excelize/v2"
)

// WriteCSV writes a header and rows to path
func WriteCSV(path string, headers []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.IOError("failed to create CSV file", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(headers); err != nil {
		return errors.IOError("failed to write CSV header", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return errors.IOError("failed to write CSV rows", err)
	}
	return nil
}

// WriteXLSX writes a header and rows to the first sheet of a new workbook
func WriteXLSX(path, sheet string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return errors.IOError("failed to name sheet", err)
		}
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return errors.IOError("failed to write header", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.InternalError(err.Error())
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.IOError("failed to write row", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.IOError("failed to save workbook", err)
	}
	return nil
}
