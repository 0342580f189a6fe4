// Package fileparse reads uploaded source files into raw string grids.
// It knows nothing about mappings or runs; callers interpret the grid.
package fileparse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Options controls how a raw grid is read from file bytes.
type Options struct {
	Delimiter string
}

func (o Options) delimiterRune() rune {
	if o.Delimiter == "" {
		return ','
	}
	return []rune(o.Delimiter)[0]
}

// ReadCSV parses CSV bytes into the full grid of cells. A UTF-8 BOM is
// stripped and ragged rows are tolerated.
func ReadCSV(content []byte, opts Options) ([][]string, error) {
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = opts.delimiterRune()
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// ReadXLSX parses the first sheet of an XLSX file into the full grid of cells.
func ReadXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("xlsx read: %w", err)
	}
	return rows, nil
}

// Read dispatches on the declared file type.
func Read(content []byte, fileType string, opts Options) ([][]string, error) {
	switch fileType {
	case "XLSX":
		return ReadXLSX(content)
	case "CSV", "":
		return ReadCSV(content, opts)
	default:
		return nil, fmt.Errorf("unsupported file type %q", fileType)
	}
}

// HeaderAndData splits a grid: the header is the row at index skipHeaderRows
// and data rows start just after it. Returns (nil, nil) when the grid is too
// short to contain a header.
func HeaderAndData(rows [][]string, skipHeaderRows int) ([]string, [][]string) {
	if skipHeaderRows < 0 {
		skipHeaderRows = 0
	}
	if skipHeaderRows >= len(rows) {
		return nil, nil
	}
	header := rows[skipHeaderRows]
	data := rows[skipHeaderRows+1:]
	return header, data
}
