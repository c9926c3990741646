package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrMissingNameColumn is returned when the header row has no name column.
var ErrMissingNameColumn = errors.New("catalog header has no name column")

// Parse reads delimited text with a header row and maps every data row to a
// Record. Unknown columns are ignored and missing cells fall back to their zero
// value, so a short row never fails the whole file. Rows keep their file
// position, blank ones included, because the position is the catalog index;
// only blank rows at the end of the file are dropped.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBody
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols[ColumnName]; !ok {
		return nil, ErrMissingNameColumn
	}

	var (
		records []Record
		kept    int // records up to the last non-blank row
	)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		records = append(records, mapRow(cols, row))
		if !blankRow(row) {
			kept = len(records)
		}
	}
	return records[:kept], nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, seen := cols[name]; seen {
			continue
		}
		cols[name] = i
	}
	return cols
}

func mapRow(cols map[string]int, row []string) Record {
	cell := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}
	return Record{
		Name:                    cell(ColumnName),
		Price:                   cell(ColumnPrice),
		Rating:                  cell(ColumnRating),
		Category:                cell(ColumnCategory),
		Description:             cell(ColumnDescription),
		PreprocessedDescription: cell(ColumnPreprocessedDescription),
		SimilarityScore:         parseScore(cell(ColumnSimilarityScore)),
	}
}

func parseScore(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	score, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
