// Package export merges the normalized rows of one source into a single CSV
// or XLSX document.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yurifrl/conciliu/pkg/csv"
	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/models"
)

// Header names the columns of a merged document, in canonical order.
var Header = []string{"Data", "Document", "Explicatie", "Cont", "Tip", "Debit", "Credit", "Sold"}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	ErrNothingToMerge = errors.New("no files loaded for source")
	ErrUnknownFormat  = errors.New("unknown export format")
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Merged holds the rows of every file of one source, in load order.
type Merged struct {
	Source models.Source
	Files  []string
	Rows   []models.Row
}

// Merge collects the rows of the files of src. Dates that parse are rewritten
// as DD/MM/YYYY; anything else is kept as loaded.
func Merge(src models.Source, files []*models.LoadedFile, conv dates.Convention) (*Merged, error) {
	m := &Merged{Source: src}
	for _, f := range files {
		if f.Source != src {
			continue
		}
		m.Files = append(m.Files, f.FileName)
		for _, r := range f.Rows {
			r.Fields[models.ColDate] = dates.FormatValue(r.Date(), conv)
			m.Rows = append(m.Rows, r)
		}
	}
	if len(m.Files) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNothingToMerge, src)
	}
	return m, nil
}

// FileName is the default name of the merged document.
func (m *Merged) FileName(format Format) string {
	return fmt.Sprintf("%s_merged.%s", m.Source, format)
}

// CSV renders the rows behind Header. A nil filter keeps every row.
func (m *Merged) CSV(filter csv.FilterFunc[models.Row]) ([]byte, error) {
	return csv.Create(Header, m.Rows, filter)
}

// XLSX renders a workbook with one sheet named after the source: a metadata
// row, the header, then the rows.
func (m *Merged) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := string(m.Source)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	meta := []any{"Sursa: " + string(m.Source), "Fisiere: " + strings.Join(m.Files, ", ")}
	if err := f.SetSheetRow(sheet, "A1", &meta); err != nil {
		return nil, err
	}
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheet, 2, 2, bold); err != nil {
		return nil, err
	}

	for i, r := range m.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		values := make([]any, models.RowWidth)
		for j, v := range r.Fields {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheet, "A", "H", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders m in the given format to w.
func (m *Merged) Write(w io.Writer, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatXLSX:
		data, err = m.XLSX()
	case FormatCSV:
		data, err = m.CSV(nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}

// Save writes m to path, picking the format from the extension.
func (m *Merged) Save(path string) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := m.Write(out, format); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
