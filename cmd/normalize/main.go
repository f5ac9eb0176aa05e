package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/export"
	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/service"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "conciliu-normalize",
	})

	var outputPath, source, format, convention string
	pflag.StringVarP(&outputPath, "output", "o", "", "Output directory (default: same as input file)")
	pflag.StringVarP(&source, "source", "s", string(models.Conta), "Source of the files (conta, anaf)")
	pflag.StringVarP(&format, "format", "f", string(export.FormatCSV), "Output format (csv, xlsx)")
	pflag.StringVar(&convention, "dates", string(dates.DayFirst), "Ambiguous date order (day-first, month-first)")
	pflag.Parse()

	args := pflag.Args()
	if len(args) != 1 {
		logger.Error("invalid usage", "args", args)
		fmt.Fprintf(os.Stderr, "Usage: conciliu-normalize [-o output_dir] [-s conta|anaf] <directory>\n")
		os.Exit(1)
	}

	src, err := models.ParseSource(source)
	if err != nil {
		logger.Fatal("invalid source", "error", err)
	}
	fmtOut, err := export.ParseFormat(format)
	if err != nil {
		logger.Fatal("invalid format", "error", err)
	}
	conv, err := dates.ParseConvention(convention)
	if err != nil {
		logger.Fatal("invalid date convention", "error", err)
	}

	processor := service.NewProcessor(src, conv, logger)
	processor.OutputPath = outputPath
	processor.Format = fmtOut

	written, err := processor.ProcessDirectory(args[0])
	if err != nil {
		logger.Fatal("processing failed", "error", err)
	}
	logger.Info("done", "files", len(written))
}
