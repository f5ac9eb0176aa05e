// Package reconcile computes ledger and ANAF totals for the tracked accounts
// and compares them through the account mapping.
package reconcile

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliu/pkg/aggregate"
	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/interval"
	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/variance"
)

// Configuration problems. Callers show them as status messages; nothing is
// calculated.
var (
	ErrNoAccounts = errors.New("no accounts selected")
	ErrNoFiles    = errors.New("no Contabilitate files loaded")
)

type Options struct {
	Tolerance       float64
	Shift           interval.Shift
	ContaConvention dates.Convention
	AnafConvention  dates.Convention
}

func DefaultOptions() Options {
	return Options{
		Tolerance:       variance.DefaultTolerance,
		Shift:           interval.DefaultShift,
		ContaConvention: dates.DayFirst,
		AnafConvention:  dates.DayFirst,
	}
}

// Ranges are the windows one ledger account and its external accounts were
// summed over.
type Ranges struct {
	Conta models.DateInterval `json:"conta"`
	Anaf  models.DateInterval `json:"anaf"`
}

// Result is rebuilt from scratch on every calculation.
type Result struct {
	ContaSums models.AccountSumResult            `json:"contaSums"`
	AnafSums  map[string]models.AccountSumResult `json:"anafSums"` // by ledger account
	Ranges    map[string]Ranges                  `json:"ranges"`
	Variances []variance.Variance                `json:"variances"`
}

type Calculator struct {
	logger *log.Logger
	opts   Options
}

func New(logger *log.Logger, opts Options) *Calculator {
	return &Calculator{
		logger: logger,
		opts:   opts,
	}
}

func (c *Calculator) Options() Options {
	return c.opts
}

// Calculate sums every tracked ledger account over its effective range and
// every mapped ANAF account over the shifted range, then builds the variance
// report.
func (c *Calculator) Calculate(s *State) (*Result, error) {
	if len(s.Accounts) == 0 {
		return nil, ErrNoAccounts
	}
	if len(s.FilesOf(models.Conta)) == 0 {
		return nil, ErrNoFiles
	}

	contaRows := s.Rows(models.Conta)
	anafRows := s.Rows(models.Anaf)
	c.logger.Debug("calculating", "accounts", len(s.Accounts), "conta_rows", len(contaRows), "anaf_rows", len(anafRows))

	res := &Result{
		ContaSums: make(models.AccountSumResult, len(s.Accounts)),
		AnafSums:  make(map[string]models.AccountSumResult, len(s.Accounts)),
		Ranges:    make(map[string]Ranges, len(s.Accounts)),
	}

	for _, account := range s.Accounts {
		contaRange := interval.ContaEffectiveRange(contaRows, account, s.Range, c.opts.ContaConvention)
		anafRange := interval.ExternalEffectiveRange(contaRange, c.opts.Shift)
		res.Ranges[account] = Ranges{Conta: contaRange, Anaf: anafRange}

		cfg := s.FilterFor(models.Conta, account)
		res.ContaSums[account] = aggregate.Aggregate(models.Conta, contaRows, account, cfg, contaRange, c.opts.ContaConvention)

		externals := s.Mapping[account]
		sums := make(models.AccountSumResult, len(externals))
		for _, external := range externals {
			ecfg := s.FilterFor(models.Anaf, external)
			sums[external] = aggregate.Aggregate(models.Anaf, anafRows, external, ecfg, anafRange, c.opts.AnafConvention)
		}
		res.AnafSums[account] = sums

		c.logger.Debug("account calculated", "account", account, "sum", res.ContaSums[account],
			"range", contaRange.String(), "anaf_range", anafRange.String())
	}

	res.Variances = variance.Report(trackedMapping(s), res.ContaSums, res.AnafSums, c.opts.Tolerance)
	c.logger.Info("calculation complete", "accounts", len(s.Accounts), "variances", len(res.Variances))
	return res, nil
}

// Details returns the ledger rows counted for account over its effective
// range.
func (c *Calculator) Details(s *State, account string) []models.Row {
	rows := s.Rows(models.Conta)
	r := interval.ContaEffectiveRange(rows, account, s.Range, c.opts.ContaConvention)
	return aggregate.Detail(models.Conta, rows, account, s.FilterFor(models.Conta, account), r, c.opts.ContaConvention)
}

// trackedMapping limits the mapping to tracked accounts, keeping tracked
// accounts without a mapping so they still show up in the report.
func trackedMapping(s *State) models.AccountMapping {
	out := make(models.AccountMapping, len(s.Accounts))
	for _, a := range s.Accounts {
		out[a] = s.Mapping[a]
	}
	return out
}

// StatusMessage turns a calculation error into the text shown to the user.
func StatusMessage(err error) string {
	switch {
	case err == nil:
		return "calculation complete"
	case errors.Is(err, ErrNoAccounts):
		return "Select at least one account before calculating."
	case errors.Is(err, ErrNoFiles):
		return "Load at least one Contabilitate file before calculating."
	default:
		return err.Error()
	}
}
