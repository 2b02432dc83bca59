// Package xlsx reads and writes the single-sheet workbooks used for day
// uploads.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/couchcryptid/critical-events-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ReadRows returns the cell values of the first sheet, one slice per row.
// Trailing empty cells are trimmed by excelize.
func ReadRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewError(domain.ErrUnsupportedFormat, "The file could not be read as an Excel workbook", err)
	}
	defer f.Close() //nolint:errcheck // read-only workbook

	return firstSheetRows(f)
}

type sheetReader interface {
	GetSheetList() []string
	GetRows(sheet string, opts ...excelize.Options) ([][]string, error)
}

func firstSheetRows(r sheetReader) ([][]string, error) {
	sheets := r.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewValidationError("The workbook contains no sheets")
	}

	rows, err := r.GetRows(sheets[0])
	if err != nil {
		return nil, domain.NewError(domain.ErrUnsupportedFormat, fmt.Sprintf("The sheet %q could not be read", sheets[0]), err)
	}
	return rows, nil
}

// WriteRows builds a workbook with rows written to the first sheet.
func WriteRows(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
