package importer

import (
	"fmt"

	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX returns the rows of the first sheet of an .xlsx workbook.
func ReadXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("importer: open xlsx: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, ErrNoHeader
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// ParseXLSX reads the first sheet of a workbook like ParseCSV.
func ParseXLSX(path string) (Result, error) {
	rows, err := ReadXLSX(path)
	if err != nil {
		return Result{}, err
	}
	return ParseRows(rows)
}
