package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliu/pkg/config"
	"github.com/yurifrl/conciliu/pkg/export"
	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/plan"
	"github.com/yurifrl/conciliu/pkg/reconcile"
	"github.com/yurifrl/conciliu/pkg/report"
	"github.com/yurifrl/conciliu/pkg/settings"
)

var (
	cliFilters filters
	cfgFile    string
)

// env is what every subcommand needs once flags are parsed.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	store  *settings.FileStore
	state  *reconcile.State
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	e := &env{
		cfg:    cfg,
		logger: cfg.Logger("conciliu"),
		store:  settings.NewFileStore(cfg.Settings),
		state:  reconcile.NewState(),
	}
	stored, err := e.store.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if err := stored.Apply(e.state); err != nil {
		return nil, fmt.Errorf("applying %s: %w", e.store.Path(), err)
	}
	return e, nil
}

func (e *env) save(ctx context.Context) error {
	if err := e.store.Save(ctx, settings.FromState(e.state)); err != nil {
		return err
	}
	e.logger.Info("settings saved", "path", e.store.Path())
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "conciliu",
	Short: "Reconcile Contabilitate ledger exports against ANAF statements",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
	SilenceUsage: true,
}

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Sum tracked accounts and report differences against ANAF",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}

		contaPaths, _ := cmd.Flags().GetStringSlice("conta")
		anafPaths, _ := cmd.Flags().GetStringSlice("anaf")
		details, _ := cmd.Flags().GetBool("details")
		dump, _ := cmd.Flags().GetBool("dump")
		planPath, _ := cmd.Flags().GetString("plan")

		if planPath != "" {
			p, err := plan.Load(planPath)
			if err != nil {
				return err
			}
			e.logger.Debug("loaded plan", "path", planPath)
			contaPaths = append(p.Patterns(models.Conta), contaPaths...)
			anafPaths = append(p.Patterns(models.Anaf), anafPaths...)
			if len(p.Accounts) > 0 {
				e.state.Accounts = nil
				for _, a := range p.Accounts {
					e.state.Track(a)
				}
			}
			if rng := p.Interval(); !rng.Unbounded() {
				e.state.Range = rng
			}
		}

		processor := NewFileProcessor(e.logger)
		for src, patterns := range map[models.Source][]string{models.Conta: contaPaths, models.Anaf: anafPaths} {
			files, err := processor.Load(patterns, src)
			if err != nil {
				return err
			}
			for _, f := range files {
				e.state.AddFile(f)
			}
		}

		if len(cliFilters.accounts) > 0 {
			e.state.Accounts = nil
			for _, a := range cliFilters.accounts {
				e.state.Track(a)
			}
		}
		if cliFilters.set() {
			rng, err := cliFilters.toInterval()
			if err != nil {
				return err
			}
			e.state.Range = rng
		}

		calc := reconcile.New(e.logger, e.cfg.Options())
		res, err := calc.Calculate(e.state)
		if err != nil {
			return errors.New(reconcile.StatusMessage(err))
		}

		if dump {
			_, err := pp.Fprintln(os.Stdout, res)
			return err
		}
		if err := report.Render(os.Stdout, res); err != nil {
			return err
		}
		if details {
			for _, account := range e.state.Accounts {
				fmt.Println()
				if err := report.Details(os.Stdout, account, calc.Details(e.state, account)); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge [flags] <input_path>...",
	Short: "Merge the normalized rows of several exports into one CSV or XLSX",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		sourceFlag, _ := cmd.Flags().GetString("source")
		output, _ := cmd.Flags().GetString("output")

		src, err := models.ParseSource(sourceFlag)
		if err != nil {
			return err
		}
		files, err := NewFileProcessor(e.logger).Load(args, src)
		if err != nil {
			return err
		}

		conv := e.cfg.Options().ContaConvention
		if src == models.Anaf {
			conv = e.cfg.Options().AnafConvention
		}
		merged, err := export.Merge(src, files, conv)
		if err != nil {
			return err
		}

		if output == "" {
			return merged.Write(os.Stdout, export.FormatCSV)
		}
		if err := merged.Save(output); err != nil {
			return err
		}
		e.logger.Info("merged", "source", src, "files", len(merged.Files), "rows", len(merged.Rows), "output", output)
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <input_path>...",
	Short: "Show how each export is normalized",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		sourceFlag, _ := cmd.Flags().GetString("source")
		src, err := models.ParseSource(sourceFlag)
		if err != nil {
			return err
		}
		files, err := NewFileProcessor(e.logger).Load(args, src)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("%s\n  layout:  %s\n  account: %s\n  rows:    %d of %d (dropped %d)\n",
				f.FileName, f.Layout, valueOr(f.Account, "-"), len(f.Rows), f.RowCount, f.Dropped)
		}
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Preview a YAML calculation plan (dry-run)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		planPath := args[0]

		p, err := plan.Load(planPath)
		if err != nil {
			return err
		}

		fmt.Printf("Plan preview for %s\n", planPath)
		p.Print(os.Stdout)

		processor := NewFileProcessor(e.logger)
		fmt.Println("Summary of files:")
		for _, src := range models.Sources {
			patterns := p.Patterns(src)
			if len(patterns) == 0 {
				continue
			}
			files, err := processor.Load(patterns, src)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Printf("  - %s %s : %d rows, %d dropped\n", src, f.FileName, len(f.Rows), f.Dropped)
			}
		}
		return nil
	},
}

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Show or edit the ledger to ANAF account mapping",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		for _, ledger := range e.state.Mapping.Ledgers() {
			fmt.Printf("%-10s -> %s\n", ledger, strings.Join(e.state.Mapping[ledger], ", "))
		}
		return nil
	},
}

var mappingAddCmd = &cobra.Command{
	Use:   "add <ledger> <external>",
	Short: "Map an ANAF account to a ledger account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		if !e.state.Mapping.Add(args[0], args[1]) {
			e.logger.Warn("mapping unchanged", "ledger", args[0], "external", args[1])
			return nil
		}
		return e.save(cmd.Context())
	},
}

var mappingRemoveCmd = &cobra.Command{
	Use:   "remove <ledger> <external>",
	Short: "Remove an ANAF account from a ledger account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		if !e.state.Mapping.Remove(args[0], args[1]) {
			return fmt.Errorf("%s is not mapped to %s", args[1], args[0])
		}
		return e.save(cmd.Context())
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts [add|remove <account>...]",
	Short: "List, track or untrack ledger accounts",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			tracked := append([]string(nil), e.state.Accounts...)
			sort.Strings(tracked)
			for _, a := range tracked {
				cfg := e.state.FilterFor(models.Conta, a)
				fmt.Printf("%-10s %s=%q sum %s\n", a, cfg.FilterColumn, valueOr(cfg.FilterValue, a), cfg.SumColumn)
			}
			return nil
		}
		if len(args) < 2 {
			return errors.New("usage: accounts add|remove <account>...")
		}
		switch args[0] {
		case "add":
			for _, a := range args[1:] {
				e.state.Track(a)
			}
		case "remove":
			for _, a := range args[1:] {
				e.state.Untrack(a)
			}
		default:
			return fmt.Errorf("unknown action %q", args[0])
		}
		return e.save(cmd.Context())
	},
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	// Calculation flags
	calculateCmd.Flags().StringSlice("conta", nil, "Contabilitate files, directories or globs")
	calculateCmd.Flags().StringSlice("anaf", nil, "ANAF files, directories or globs")
	calculateCmd.Flags().StringSliceVar(&cliFilters.accounts, "account", nil, "Ledger accounts to calculate (default: tracked accounts)")
	calculateCmd.Flags().StringVar(&cliFilters.startDate, "start", "", "Start date (DD/MM/YYYY)")
	calculateCmd.Flags().StringVar(&cliFilters.endDate, "end", "", "End date (DD/MM/YYYY)")
	calculateCmd.Flags().Bool("details", false, "List the rows counted for each account")
	calculateCmd.Flags().Bool("dump", false, "Pretty-print the raw result")
	calculateCmd.Flags().String("plan", "", "YAML plan listing files, accounts and dates")

	for _, c := range []*cobra.Command{mergeCmd, inspectCmd} {
		c.Flags().StringP("source", "s", string(models.Conta), "Source of the files (conta, anaf)")
	}
	mergeCmd.Flags().StringP("output", "o", "", "Output file, .csv or .xlsx (default: CSV on stdout)")

	mappingCmd.AddCommand(mappingAddCmd, mappingRemoveCmd)
	rootCmd.AddCommand(calculateCmd, mergeCmd, inspectCmd, planCmd, mappingCmd, accountsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
