// Package settings persists the user's accounts, filter configs, mapping and
// date range between sessions.
package settings

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/reconcile"
)

var validate = validator.New()

// FilterSetting is an AccountFilterConfig with columns spelled out, so that
// the file stays readable and accepts the source's own header names.
type FilterSetting struct {
	FilterColumn string         `yaml:"filterColumn" json:"filterColumn" validate:"required"`
	FilterValue  string         `yaml:"filterValue,omitempty" json:"filterValue,omitempty"`
	SumColumn    string         `yaml:"sumColumn" json:"sumColumn" validate:"required"`
	Subtract     *FilterSetting `yaml:"subtract,omitempty" json:"subtract,omitempty"`
}

type Settings struct {
	Accounts     []string                 `yaml:"accounts,omitempty" json:"accounts" validate:"dive,required"`
	Mapping      map[string][]string      `yaml:"mapping,omitempty" json:"mapping" validate:"dive,keys,required,endkeys,dive,required"`
	ContaFilters map[string]FilterSetting `yaml:"contaFilters,omitempty" json:"contaFilters" validate:"dive"`
	AnafFilters  map[string]FilterSetting `yaml:"anafFilters,omitempty" json:"anafFilters" validate:"dive"`
	StartDate    string                   `yaml:"startDate,omitempty" json:"startDate" validate:"omitempty,datetime=02/01/2006"`
	EndDate      string                   `yaml:"endDate,omitempty" json:"endDate" validate:"omitempty,datetime=02/01/2006"`
}

func (s *Settings) Validate() error {
	return validate.Struct(s)
}

// Apply copies the settings into state. Filter configs replace the state's
// and are laid over the built-in ones; a nil mapping keeps the state's
// mapping.
func (s *Settings) Apply(state *reconcile.State) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	var rng models.DateInterval
	if s.StartDate != "" {
		t, err := dates.ParseDisplay(s.StartDate)
		if err != nil {
			return fmt.Errorf("start date: %w", err)
		}
		rng.Start = t
	}
	if s.EndDate != "" {
		t, err := dates.ParseDisplay(s.EndDate)
		if err != nil {
			return fmt.Errorf("end date: %w", err)
		}
		rng.End = t
	}

	filters := map[models.Source]map[string]FilterSetting{
		models.Conta: s.ContaFilters,
		models.Anaf:  s.AnafFilters,
	}
	parsed := make(map[models.Source]map[string]models.AccountFilterConfig, len(filters))
	for src, byAccount := range filters {
		parsed[src] = make(map[string]models.AccountFilterConfig, len(byAccount))
		for account, fs := range byAccount {
			cfg, err := fs.config(src)
			if err != nil {
				return fmt.Errorf("%s filter for %s: %w", src, account, err)
			}
			parsed[src][account] = cfg
		}
	}

	// Overrides go onto fresh built-in configs, so one removed from the
	// settings no longer applies. Nothing is touched until all of them pass.
	rebuilt := reconcile.NewState()
	for src, byAccount := range parsed {
		for account, cfg := range byAccount {
			if err := rebuilt.SetFilter(src, account, cfg); err != nil {
				return fmt.Errorf("%s filter for %s: %w", src, account, err)
			}
		}
	}
	state.Filters = rebuilt.Filters
	if s.Accounts != nil {
		state.Accounts = nil
		for _, a := range s.Accounts {
			state.Track(a)
		}
	}
	if s.Mapping != nil {
		state.Mapping = models.AccountMapping(s.Mapping).Clone()
	}
	state.Range = rng
	return nil
}

// FromState captures everything Apply restores.
func FromState(state *reconcile.State) *Settings {
	s := &Settings{
		Accounts:     slices.Clone(state.Accounts),
		Mapping:      state.Mapping.Clone(),
		ContaFilters: settingsOf(state.Filters[models.Conta]),
		AnafFilters:  settingsOf(state.Filters[models.Anaf]),
	}
	if s.Accounts == nil {
		s.Accounts = []string{}
	}
	if !state.Range.Start.IsZero() {
		s.StartDate = dates.FormatDisplay(state.Range.Start)
	}
	if !state.Range.End.IsZero() {
		s.EndDate = dates.FormatDisplay(state.Range.End)
	}
	return s
}

func settingsOf(cfgs map[string]models.AccountFilterConfig) map[string]FilterSetting {
	out := make(map[string]FilterSetting, len(cfgs))
	for account, cfg := range cfgs {
		out[account] = settingOf(cfg)
	}
	return out
}

func settingOf(cfg models.AccountFilterConfig) FilterSetting {
	fs := FilterSetting{
		FilterColumn: cfg.FilterColumn.String(),
		FilterValue:  cfg.FilterValue,
		SumColumn:    cfg.SumColumn.String(),
	}
	if cfg.Subtract != nil {
		sub := settingOf(*cfg.Subtract)
		fs.Subtract = &sub
	}
	return fs
}

func (fs FilterSetting) config(src models.Source) (models.AccountFilterConfig, error) {
	var cfg models.AccountFilterConfig
	var err error
	if cfg.FilterColumn, err = models.ParseColumn(src, fs.FilterColumn); err != nil {
		return cfg, err
	}
	if cfg.SumColumn, err = models.ParseColumn(src, fs.SumColumn); err != nil {
		return cfg, err
	}
	cfg.FilterValue = fs.FilterValue
	if fs.Subtract != nil {
		sub, err := fs.Subtract.config(src)
		if err != nil {
			return cfg, fmt.Errorf("subtract: %w", err)
		}
		cfg.Subtract = &sub
	}
	return cfg, cfg.Validate()
}
