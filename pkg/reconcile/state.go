package reconcile

import (
	"slices"

	"github.com/yurifrl/conciliu/pkg/models"
)

// State is everything a calculation reads: loaded files, tracked ledger
// accounts, filter configs, the account mapping and the user's date range.
// Calculation functions take it explicitly and never modify it.
type State struct {
	Files    []*models.LoadedFile                                    `json:"files"`
	Accounts []string                                                `json:"accounts"`
	Filters  map[models.Source]map[string]models.AccountFilterConfig `json:"filters"`
	Mapping  models.AccountMapping                                   `json:"mapping"`
	Range    models.DateInterval                                     `json:"range"`
}

// NewState returns a state seeded with the built-in filter configs and
// mapping. No accounts are tracked until the user picks them.
func NewState() *State {
	return &State{
		Filters: map[models.Source]map[string]models.AccountFilterConfig{
			models.Conta: DefaultContaFilters(),
			models.Anaf:  DefaultAnafFilters(),
		},
		Mapping: DefaultMapping(),
	}
}

func (s *State) AddFile(f *models.LoadedFile) {
	s.Files = append(s.Files, f)
}

// RemoveFile drops the file and with it its rows.
func (s *State) RemoveFile(id string) bool {
	idx := slices.IndexFunc(s.Files, func(f *models.LoadedFile) bool { return f.ID == id })
	if idx < 0 {
		return false
	}
	s.Files = slices.Delete(s.Files, idx, idx+1)
	return true
}

// Reset forgets every loaded file. Accounts, configs and mapping stay.
func (s *State) Reset() {
	s.Files = nil
}

// FilesOf returns the files of one source in load order.
func (s *State) FilesOf(src models.Source) []*models.LoadedFile {
	var out []*models.LoadedFile
	for _, f := range s.Files {
		if f.Source == src {
			out = append(out, f)
		}
	}
	return out
}

// Rows concatenates the rows of every file of src, in load order.
func (s *State) Rows(src models.Source) []models.Row {
	var out []models.Row
	for _, f := range s.FilesOf(src) {
		out = append(out, f.Rows...)
	}
	return out
}

// Track adds a ledger account to the calculation set.
func (s *State) Track(account string) bool {
	if account == "" || slices.Contains(s.Accounts, account) {
		return false
	}
	s.Accounts = append(s.Accounts, account)
	return true
}

func (s *State) Untrack(account string) bool {
	idx := slices.Index(s.Accounts, account)
	if idx < 0 {
		return false
	}
	s.Accounts = slices.Delete(s.Accounts, idx, idx+1)
	return true
}

// FilterFor returns the user's config for account, the built-in one, or the
// source fallback.
func (s *State) FilterFor(src models.Source, account string) models.AccountFilterConfig {
	if cfg, ok := s.Filters[src][account]; ok {
		return cfg
	}
	if src == models.Anaf {
		return fallbackAnafFilter
	}
	return fallbackContaFilter
}

// SetFilter stores a validated config override.
func (s *State) SetFilter(src models.Source, account string, cfg models.AccountFilterConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if s.Filters == nil {
		s.Filters = make(map[models.Source]map[string]models.AccountFilterConfig)
	}
	if s.Filters[src] == nil {
		s.Filters[src] = make(map[string]models.AccountFilterConfig)
	}
	s.Filters[src][account] = cfg.Clone()
	return nil
}
