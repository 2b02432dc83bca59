package domain

import (
	"fmt"
	"strings"
)

const dayIndexHeader = "day_index"

// MinSpreadsheetColumns is the column count a spreadsheet's first row must reach.
const MinSpreadsheetColumns = 3

// GroupRows converts spreadsheet rows of (day_index, intersection, event)
// into day records labelled "day-<index>", ordered by first appearance of
// each index. A leading header row whose first cell is "day_index" is
// skipped, as are blank rows. Columns beyond the third are ignored.
func GroupRows(rows [][]string) ([]DayRecord, error) {
	if len(rows) == 0 || len(rows[0]) < MinSpreadsheetColumns {
		return nil, NewValidationError("The file must contain at least three columns: day_index, intersection, and event.")
	}

	start := 0
	if strings.EqualFold(strings.TrimSpace(rows[0][0]), dayIndexHeader) {
		start = 1
	}

	var records []DayRecord
	index := make(map[string]int)

	for i := start; i < len(rows); i++ {
		row := trimCells(rows[i])
		if isBlank(row) {
			continue
		}
		if len(row) < MinSpreadsheetColumns || row[0] == "" || row[1] == "" || row[2] == "" {
			return nil, NewValidationError(fmt.Sprintf("row %d: expected day_index, intersection and event", i+1))
		}

		id := "day-" + row[0]
		pos, ok := index[id]
		if !ok {
			pos = len(records)
			index[id] = pos
			records = append(records, DayRecord{ID: id, Events: []Observation{}})
		}
		records[pos].Events = append(records[pos].Events, Observation{Intersection: row[1], Event: row[2]})
	}

	if records == nil {
		records = []DayRecord{}
	}
	return records, nil
}

func trimCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
