package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFile is returned for extensions the loader cannot read.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Sheet is the raw cell matrix of one spreadsheet file.
type Sheet struct {
	FileName string
	FilePath string
	Data     [][]string
	RowCount int
}

const xlsMaxRows = 65536

// Load reads the file at path.
func Load(path string) (Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to read file: %w", err)
	}
	sh, err := LoadBytes(filepath.Base(path), data)
	if err != nil {
		return Sheet{}, err
	}
	sh.FilePath = path
	return sh, nil
}

// LoadBytes decodes an in-memory file, picking the reader from the name's
// extension.
func LoadBytes(fileName string, data []byte) (Sheet, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xls":
		rows, err = readXLS(data)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
	case ".csv", ".txt":
		rows, err = readCSV(data)
	default:
		return Sheet{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName)
	}
	if err != nil {
		return Sheet{}, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	return Sheet{FileName: fileName, Data: rows, RowCount: len(rows)}, nil
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("error creating workbook: %w", err)
	}
	rows := workbook.ReadAllCells(xlsMaxRows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in sheet")
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// readCSV tries ';' first, the separator Romanian exports use, then ','.
func readCSV(data []byte) ([][]string, error) {
	var lastErr error
	for _, sep := range []rune{';', ','} {
		r := csv.NewReader(bytes.NewReader(data))
		r.Comma = sep
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		records, err := r.ReadAll()
		if err != nil {
			lastErr = err
			continue
		}
		if sep == ';' && singleColumn(records) {
			continue
		}
		return records, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("error reading CSV: %w", lastErr)
	}
	return nil, fmt.Errorf("csv is empty")
}

func singleColumn(records [][]string) bool {
	for _, rec := range records {
		if len(rec) > 1 {
			return false
		}
	}
	return true
}
