// Package tabular turns delimited text and spreadsheet workbooks into an
// ordered sequence of uniform row records keyed by column header.
package tabular

import (
	"fmt"

	"github.com/Laurentvial/LeadFlow-sub003/pkg/serrors"
)

// ErrEmptyFile is returned when the input contains no non-empty lines.
var ErrEmptyFile = serrors.NewError("EMPTY_FILE", "file contains no data", "Migration.Errors.EmptyFile")

// Row maps a source column header to the cell text of one data line.
// Immutable once produced.
type Row map[string]string

// Table is the result of ingesting one file: ordered distinct headers plus
// one Row per non-empty data line, in source line order.
type Table struct {
	Headers []string
	Rows    []Row
}

// Options control header handling and field splitting.
type Options struct {
	// Delimiter defaults to ',' when zero.
	Delimiter rune
	// TreatFirstRowAsData synthesizes ColumnN headers and keeps the first
	// line as a data row.
	TreatFirstRowAsData bool
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

func positionalHeader(n int) string {
	return fmt.Sprintf("Column%d", n)
}

// buildTable derives headers from the record matrix and maps every data
// record onto them. Records shorter than the header row yield empty cells;
// extra cells are dropped.
func buildTable(records [][]string, treatFirstRowAsData bool) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	var headers []string
	data := records
	if treatFirstRowAsData {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = positionalHeader(i + 1)
		}
	} else {
		headers = deriveHeaders(records[0])
		data = records[1:]
	}

	rows := make([]Row, 0, len(data))
	for _, record := range data {
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// deriveHeaders replaces blank header cells with positional placeholders and
// disambiguates repeated names so every header is distinct.
func deriveHeaders(record []string) []string {
	headers := make([]string, 0, len(record))
	seen := make(map[string]int, len(record))
	for i, cell := range record {
		name := cell
		if name == "" {
			name = positionalHeader(i + 1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 1
		}
		headers = append(headers, name)
	}
	return headers
}
