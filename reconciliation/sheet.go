package reconciliation

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrEmptySheet        = errors.New("sheet has no header row")
	ErrMissingColumn     = errors.New("required column missing")
)

// Sheet is a header row plus its non-blank data rows.
type Sheet struct {
	Header []string
	Rows   [][]string
	// Lines holds the 1-based source line of each row in Rows.
	Lines []int
}

// NewSheet builds a sheet from in-memory rows, numbering them from line 2.
func NewSheet(header []string, rows ...[]string) *Sheet {
	s := &Sheet{Header: header, Rows: rows}
	for i := range rows {
		s.Lines = append(s.Lines, i+2)
	}
	return s
}

// Line returns the source line of the i-th data row.
func (s *Sheet) Line(i int) int {
	if i < len(s.Lines) {
		return s.Lines[i]
	}
	return i + 2
}

// SupportedExtension reports whether the file name has a readable extension.
func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// ReadSheet parses a CSV or the first worksheet of an XLSX workbook.
// Blank rows are skipped and the first non-blank row is the header.
func ReadSheet(r io.Reader, filename string) (*Sheet, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrEmptySheet
	}

	header := rows[headerAt]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	sheet := &Sheet{Header: header}
	for i := headerAt + 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		sheet.Rows = append(sheet.Rows, rows[i])
		sheet.Lines = append(sheet.Lines, i+1)
	}
	return sheet, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheet, err)
	}
	return rows, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
