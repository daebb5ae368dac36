// Package spreadsheet encodes tables as xlsx workbooks and reads them back.
package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/andresuchdata/draftq-processor/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of files produced by WriteXLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

// WriteXLSX writes the table to path as a single-sheet workbook: a header
// row followed by one row per table row, without an index column.
func WriteXLSX(table *domain.Table, path string) error {
	if table == nil || len(table.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if table.Sheet != "" && table.Sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, table.Sheet); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", table.Sheet, err)
		}
		sheet = table.Sheet
	}

	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(table.Columns))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save xlsx file %s: %w", path, err)
	}
	return nil
}

// ReadXLSX returns every row of the first sheet as strings.
func ReadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// ConvertXLSXToCSV converts the first sheet of an XLSX file to a CSV file.
func ConvertXLSXToCSV(xlsxPath, csvPath string) error {
	out, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", csvPath, err)
	}
	defer out.Close()

	return WriteCSV(xlsxPath, out)
}

// WriteCSV streams the first sheet of an XLSX file to w as CSV.
func WriteCSV(xlsxPath string, w io.Writer) error {
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("failed to open xlsx file %s: %w", xlsxPath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx file %s has no sheets", xlsxPath)
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read row from %s: %w", xlsxPath, err)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	if err := rows.Error(); err != nil {
		return fmt.Errorf("error iterating rows in %s: %w", xlsxPath, err)
	}

	cw.Flush()
	return cw.Error()
}
