package parser

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/sheet"
)

const (
	// Single-account exports open with nine rows of fixed header text.
	singleAccountHeaderRows = 9
	// The "Fisa contului" block repeats inside single-account exports.
	boilerplateBlockRows = 7
	boilerplateMarker    = "fisa contului"

	multiAccountMinHeaderCells = 12
	multiAccountMinCells       = 4

	singleAccountWidth = 7
)

var multiAccountHeaderTokens = []string{"data", "cont", "explicatie"}

type Parser struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Parser {
	return &Parser{
		logger: logger,
	}
}

// ProcessBytes loads a spreadsheet from memory and normalizes it.
func (p *Parser) ProcessBytes(data []byte, filename string, src models.Source) (*models.LoadedFile, error) {
	sh, err := sheet.LoadBytes(filename, data)
	if err != nil {
		return nil, err
	}
	return p.Normalize(sh, src), nil
}

// ProcessFile loads the spreadsheet at path and normalizes it.
func (p *Parser) ProcessFile(path string, src models.Source) (*models.LoadedFile, error) {
	sh, err := sheet.Load(path)
	if err != nil {
		return nil, err
	}
	return p.Normalize(sh, src), nil
}

// Normalize converts a raw sheet into canonical rows. Rows that do not fit
// the detected layout are dropped and only counted.
func (p *Parser) Normalize(sh sheet.Sheet, src models.Source) *models.LoadedFile {
	layout := DetectLayout(sh.Data)
	p.logger.Debug("detected layout", "layout", layout, "filename", sh.FileName, "source", src)

	file := &models.LoadedFile{
		ID:       uuid.NewString(),
		Source:   src,
		FileName: sh.FileName,
		FilePath: sh.FilePath,
		Layout:   layout,
		RowCount: sh.RowCount,
	}

	switch layout {
	case models.LayoutMultiAccount:
		file.Rows, file.Dropped = p.normalizeMultiAccount(sh.Data)
	default:
		file.Account = InferAccount(sh.FileName)
		file.Rows, file.Dropped = p.normalizeSingleAccount(sh.Data, file.Account)
	}
	for i := range file.Rows {
		file.Rows[i].FileID = file.ID
	}

	p.logger.Info("normalized file", "filename", sh.FileName, "layout", layout,
		"account", file.Account, "rows", len(file.Rows), "dropped", file.Dropped)
	return file
}

// DetectLayout classifies a sheet by its first row. Anything that is not
// clearly a multi-account header is treated as a single-account export.
func DetectLayout(data [][]string) models.Layout {
	if len(data) == 0 {
		return models.LayoutSingleAccount
	}
	first := data[0]
	if nonEmpty(first) < multiAccountMinHeaderCells {
		return models.LayoutSingleAccount
	}
	for _, cell := range first {
		folded := models.Fold(cell)
		for _, token := range multiAccountHeaderTokens {
			if strings.Contains(folded, token) {
				return models.LayoutMultiAccount
			}
		}
	}
	return models.LayoutSingleAccount
}

func (p *Parser) normalizeMultiAccount(data [][]string) ([]models.Row, int) {
	var (
		rows    []models.Row
		dropped int
	)
	for i := 1; i < len(data); i++ {
		row := models.NewRow(data[i])
		n := nonEmpty(row.Fields[:])
		if n == 0 {
			continue
		}
		if n < multiAccountMinCells || row.Account() == "" {
			p.logger.Debug("dropping row", "line", i, "cells", n)
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped
}

func (p *Parser) normalizeSingleAccount(data [][]string, account string) ([]models.Row, int) {
	var (
		rows    []models.Row
		dropped int
	)
	for i := singleAccountHeaderRows; i < len(data); i++ {
		raw := data[i]
		if firstCellEmpty(raw) && i+1 < len(data) && containsFold(data[i+1], boilerplateMarker) {
			p.logger.Debug("skipping account sheet header", "line", i)
			i += boilerplateBlockRows - 1
			continue
		}

		n := nonEmpty(raw)
		if n == 0 {
			continue
		}
		// Fields are taken by position, so every filled cell must sit in
		// the first singleAccountWidth columns.
		inWidth := nonEmpty(raw[:min(len(raw), singleAccountWidth)])
		if inWidth != n || (n != singleAccountWidth && n != singleAccountWidth-1) {
			p.logger.Debug("dropping row", "line", i, "cells", n, "in_width", inWidth)
			dropped++
			continue
		}

		cells := make([]string, singleAccountWidth)
		copy(cells, raw)
		fields := make([]string, 0, models.RowWidth)
		fields = append(fields, cells[:3]...)
		fields = append(fields, account)
		fields = append(fields, cells[3:]...)

		row := models.NewRow(fields)
		row.FileAccount = account
		rows = append(rows, row)
	}
	return rows, dropped
}

func nonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func firstCellEmpty(row []string) bool {
	return len(row) == 0 || strings.TrimSpace(row[0]) == ""
}

func containsFold(row []string, marker string) bool {
	for _, c := range row {
		if strings.Contains(models.Fold(c), marker) {
			return true
		}
	}
	return false
}
