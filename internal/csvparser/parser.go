// =============================================================================
// In-flight Payment Sender - CSV Parser Module
// =============================================================================
//
// This module parses the delimiter-separated input files (purchases and
// customers). Each file has one header row; every following non-blank line is
// a data row.
//
// FEATURES:
//   - Configurable delimiter via config.CSVSettings (default ";")
//   - Rows as maps of header -> value (types.RawRow)
//   - Values are kept verbatim so rejected rows can be reported as read
//   - Short rows leave their missing trailing columns absent from the map
//
// The whole file is read into memory and the file handle is released before
// any row is transformed.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/inflightpayment/internal/config"
	"github.com/ginjaninja78/inflightpayment/internal/types"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed input file.
type CSVData struct {
	// Headers contains the column headers in file order.
	Headers types.Columns

	// Rows contains the data rows as maps of header -> value.
	Rows []types.RawRow

	// SourceFile is the path to the source file ("" when parsed from a reader).
	SourceFile string

	// RowCount is the number of data rows (excluding the header).
	RowCount int
}

// Ordered returns row i paired with the file's header order.
func (d *CSVData) Ordered(i int) types.OrderedRow {
	return types.OrderedRow{Columns: d.Headers, Row: d.Rows[i]}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited file and returns the parsed data.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader parses delimited text from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	csvReader := csv.NewReader(r)
	if err := configureReader(csvReader, settings); err != nil {
		return nil, err
	}

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	headers := cleanHeaders(allRows[0])
	rows := extractDataRows(allRows[1:], headers)

	return &CSVData{
		Headers:  headers,
		Rows:     rows,
		RowCount: len(rows),
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) error {
	switch settings.Delimiter {
	case "", ";", "semicolon":
		reader.Comma = ';'
	case ",", "comma":
		reader.Comma = ','
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	default:
		runes := []rune(settings.Delimiter)
		if len(runes) != 1 {
			return fmt.Errorf("delimiter must be a single character, got %q", settings.Delimiter)
		}
		reader.Comma = runes[0]
	}

	// Rows may be shorter than the header; missing columns are reported as
	// absent rather than failing the whole file.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return nil
}

// cleanHeaders trims header names and drops a leading UTF-8 byte order mark.
func cleanHeaders(headers []string) types.Columns {
	cleaned := make(types.Columns, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

// extractDataRows converts records to maps keyed by header. Values beyond the
// header width are dropped.
func extractDataRows(records [][]string, headers types.Columns) []types.RawRow {
	rows := make([]types.RawRow, 0, len(records))
	for _, record := range records {
		if isRowEmpty(record) {
			continue
		}
		row := make(types.RawRow, len(headers))
		for i, header := range headers {
			if i >= len(record) {
				break
			}
			row[header] = record[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
