package extractor

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNotSpreadsheet is returned by ParseSpreadsheet for non-tabular files.
var ErrNotSpreadsheet = errors.New("not a spreadsheet")

// Spreadsheet is the tabular view of an uploaded CSV or XLSX file. The first
// row is taken as the header.
type Spreadsheet struct {
	Columns   []string            `json:"columns"`
	Rows      []map[string]string `json:"rows"`
	TotalRows int                 `json:"total_rows"`
}

// ParseSpreadsheet reads the first sheet of an XLSX file, or a CSV file, into
// header-keyed rows.
func ParseSpreadsheet(content []byte, filename string) (*Spreadsheet, error) {
	var (
		rows [][]string
		err  error
	)
	switch FileType(filename) {
	case TypeCSV:
		rows, err = readCSV(content)
	case TypeXLSX:
		var sheets []sheetRows
		sheets, err = readXLSX(content)
		if err == nil && len(sheets) > 0 {
			rows = sheets[0].rows
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotSpreadsheet, filename)
	}
	if err != nil {
		return nil, err
	}

	sheet := &Spreadsheet{Columns: []string{}, Rows: []map[string]string{}}
	if len(rows) == 0 {
		return sheet, nil
	}
	sheet.Columns = rows[0]
	for _, r := range rows[1:] {
		row := make(map[string]string, len(sheet.Columns))
		for i, col := range sheet.Columns {
			if i < len(r) {
				row[col] = r[i]
			} else {
				row[col] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	sheet.TotalRows = len(sheet.Rows)
	return sheet, nil
}

func readCSV(content []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		rows = append(rows, record)
	}
}

type sheetRows struct {
	name string
	rows [][]string
}

func readXLSX(content []byte) ([]sheetRows, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open XLSX: %w", err)
	}
	defer f.Close()

	var sheets []sheetRows
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, sheetRows{name: name, rows: rows})
	}
	return sheets, nil
}

// extractCSV returns rows joined by tabs. Malformed CSV falls back to raw text.
func extractCSV(content []byte) (string, error) {
	rows, err := readCSV(content)
	if err != nil {
		return extractText(content)
	}
	return joinRows(rows), nil
}

// extractXLSX renders every sheet under a "# name" header.
func extractXLSX(content []byte) (string, error) {
	sheets, err := readXLSX(content)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, s := range sheets {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("# ")
		sb.WriteString(s.name)
		sb.WriteString("\n")
		sb.WriteString(joinRows(s.rows))
	}
	return sb.String(), nil
}

func joinRows(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r, "\t")
	}
	return strings.Join(lines, "\n")
}
