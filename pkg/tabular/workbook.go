package tabular

import (
	"bytes"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// ParseWorkbook ingests the first sheet of an xlsx workbook. Header
// handling matches ParseCSV; rows whose cells are all blank are skipped.
func ParseWorkbook(data []byte, opts Options) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, gerrors.Wrap(err, "open workbook")
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	matrix, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, gerrors.Wrap(err, "read sheet")
	}

	records := make([][]string, 0, len(matrix))
	for _, cells := range matrix {
		if isBlankRecord(cells) {
			continue
		}
		trimmed := make([]string, len(cells))
		for i, cell := range cells {
			trimmed[i] = strings.TrimSpace(cell)
		}
		records = append(records, trimmed)
	}

	return buildTable(records, opts.TreatFirstRowAsData)
}

func isBlankRecord(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
