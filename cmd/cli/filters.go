package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/parser"
)

type filters struct {
	startDate string
	endDate   string
	accounts  []string
}

// toInterval parses --start and --end. An empty flag leaves that side open.
func (f *filters) toInterval() (models.DateInterval, error) {
	var out models.DateInterval
	if f.startDate != "" {
		t, err := dates.ParseDisplay(f.startDate)
		if err != nil {
			return out, fmt.Errorf("invalid --start %q (want DD/MM/YYYY): %w", f.startDate, err)
		}
		out.Start = t
	}
	if f.endDate != "" {
		t, err := dates.ParseDisplay(f.endDate)
		if err != nil {
			return out, fmt.Errorf("invalid --end %q (want DD/MM/YYYY): %w", f.endDate, err)
		}
		out.End = t
	}
	return out, nil
}

func (f *filters) set() bool {
	return f.startDate != "" || f.endDate != ""
}

type FileProcessor struct {
	logger *log.Logger
	parser *parser.Parser
}

func NewFileProcessor(logger *log.Logger) *FileProcessor {
	return &FileProcessor{
		logger: logger,
		parser: parser.New(logger),
	}
}

// Load expands every pattern and loads the matching files. Directories are
// read one level deep. Files that fail to load are logged and skipped.
func (p *FileProcessor) Load(patterns []string, src models.Source) ([]*models.LoadedFile, error) {
	var out []*models.LoadedFile
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files found matching pattern %s", pattern)
		}
		sort.Strings(matches)

		for _, match := range matches {
			fileInfo, err := os.Stat(match)
			if err != nil {
				p.logger.Warn("failed to stat file", "error", err, "file", match)
				continue
			}
			if fileInfo.IsDir() {
				files, err := p.ProcessDirectory(match, src)
				if err != nil {
					p.logger.Warn("failed to process directory", "error", err, "dir", match)
				}
				out = append(out, files...)
				continue
			}
			f, err := p.ProcessFile(match, src)
			if err != nil {
				p.logger.Warn("failed to process file", "error", err, "file", match)
				continue
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func (p *FileProcessor) ProcessDirectory(inputDir string, src models.Source) ([]*models.LoadedFile, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var out []*models.LoadedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f, err := p.ProcessFile(filepath.Join(inputDir, entry.Name()), src)
		if err != nil {
			p.logger.Warn("error processing file", "error", err)
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (p *FileProcessor) ProcessFile(inputPath string, src models.Source) (*models.LoadedFile, error) {
	f, err := p.parser.ProcessFile(inputPath, src)
	if err != nil {
		return nil, fmt.Errorf("failed to process file: %w", err)
	}
	return f, nil
}
