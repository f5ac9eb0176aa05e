package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/export"
	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/parser"
	"github.com/yurifrl/conciliu/pkg/sheet"
)

// Processor rewrites every export in a directory as a normalized document
// next to it, or under OutputPath when set.
type Processor struct {
	OutputPath string
	Format     export.Format
	Source     models.Source
	Convention dates.Convention

	logger *log.Logger
	parser *parser.Parser
}

func NewProcessor(src models.Source, conv dates.Convention, logger *log.Logger) *Processor {
	return &Processor{
		Format:     export.FormatCSV,
		Source:     src,
		Convention: conv,
		logger:     logger,
		parser:     parser.New(logger),
	}
}

// ProcessDirectory handles each supported file in dir and returns the paths
// written. A failing file is logged and does not stop the others.
func (p *Processor) ProcessDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}

	var written []string
	for _, entry := range entries {
		if entry.IsDir() || p.isOutput(entry.Name()) {
			continue
		}
		out, err := p.processEntry(dir, entry.Name())
		if errors.Is(err, sheet.ErrUnsupportedFile) {
			p.logger.Debug("skipping file", "file", entry.Name())
			continue
		}
		if err != nil {
			p.logger.Error("failed to process entry", "file", entry.Name(), "error", err)
			continue
		}
		written = append(written, out)
	}
	return written, nil
}

func (p *Processor) processEntry(dir, name string) (string, error) {
	inputPath := filepath.Join(dir, name)
	f, err := p.parser.ProcessFile(inputPath, p.Source)
	if err != nil {
		return "", err
	}

	merged, err := export.Merge(p.Source, []*models.LoadedFile{f}, p.Convention)
	if err != nil {
		return "", err
	}
	outFile := p.determineOutputPath(inputPath, name)
	if err := merged.Save(outFile); err != nil {
		return "", fmt.Errorf("error writing output file: %w", err)
	}

	p.logger.Info("processed file successfully", "input", inputPath, "output", outFile,
		"layout", f.Layout, "rows", len(f.Rows), "dropped", f.Dropped)
	return outFile, nil
}

const outputSuffix = "-conciliu"

func (p *Processor) isOutput(name string) bool {
	return strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), outputSuffix)
}

func (p *Processor) determineOutputPath(inputPath, fileName string) string {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext) + outputSuffix + "." + string(p.Format)
	if p.OutputPath != "" {
		return filepath.Join(p.OutputPath, baseName)
	}
	return filepath.Join(filepath.Dir(inputPath), baseName)
}
