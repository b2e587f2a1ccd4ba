package recipx

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseFile parses an uploaded recipient file into header names and raw
// rows, picking the parser from the file extension. Supported: .csv,
// .xlsx, .xls.
func ParseFile(r io.Reader, filename string) ([]string, []map[string]string, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return ParseCSV(r)
	case strings.HasSuffix(name, ".xlsx"), strings.HasSuffix(name, ".xls"):
		return ParseXLSX(r)
	default:
		return nil, nil, recipxErrors.New(ErrUnsupportedFormat).
			WithDetail("filename", filename)
	}
}

// ParseCSV reads a header row followed by data rows. Short records are
// padded with empty values; the row shape mirrors what Normalize expects.
func ParseCSV(r io.Reader) ([]string, []map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, recipxErrors.NewWithCause(ErrParseFailed, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, recipxErrors.NewWithCause(ErrParseFailed, err)
		}
		rows = append(rows, recordToRow(headers, record))
	}
	return headers, rows, nil
}

// ParseXLSX reads the first sheet of a workbook, treating the first row
// as headers.
func ParseXLSX(r io.Reader) ([]string, []map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, recipxErrors.NewWithCause(ErrParseFailed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, recipxErrors.NewWithCause(ErrParseFailed, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, recordToRow(headers, record))
	}
	return headers, rows, nil
}

func recordToRow(headers, record []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			row[h] = record[i]
		} else {
			row[h] = ""
		}
	}
	return row
}
