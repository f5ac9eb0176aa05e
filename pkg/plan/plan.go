// Package plan reads a YAML description of one calculation: which files to
// load, which accounts to sum and over which dates.
package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/models"
)

var validate = validator.New()

type Plan struct {
	Conta    []string `yaml:"conta" validate:"required,min=1,dive,required"`
	Anaf     []string `yaml:"anaf,omitempty" validate:"dive,required"`
	Accounts []string `yaml:"accounts,omitempty" validate:"dive,required"`
	Start    string   `yaml:"start,omitempty" validate:"omitempty,datetime=02/01/2006"`
	End      string   `yaml:"end,omitempty" validate:"omitempty,datetime=02/01/2006"`

	dir string
}

// Load reads a plan. Relative file patterns are resolved against the plan's
// directory.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	return &p, nil
}

// Patterns returns the file patterns of src, resolved against the plan's
// directory.
func (p *Plan) Patterns(src models.Source) []string {
	list := p.Conta
	if src == models.Anaf {
		list = p.Anaf
	}
	out := make([]string, len(list))
	for i, pattern := range list {
		if filepath.IsAbs(pattern) || p.dir == "" {
			out[i] = pattern
			continue
		}
		out[i] = filepath.Join(p.dir, pattern)
	}
	return out
}

// Interval is the plan's date range. Load has already checked the format.
func (p *Plan) Interval() models.DateInterval {
	var out models.DateInterval
	if t, err := dates.ParseDisplay(p.Start); err == nil {
		out.Start = t
	}
	if t, err := dates.ParseDisplay(p.End); err == nil {
		out.End = t
	}
	return out
}

func (p *Plan) Print(w io.Writer) {
	for _, src := range models.Sources {
		for i, pattern := range p.Patterns(src) {
			fmt.Fprintf(w, "[%s %d] %s\n", src, i+1, pattern)
		}
	}
	if len(p.Accounts) > 0 {
		fmt.Fprintf(w, "accounts: %v\n", p.Accounts)
	}
	fmt.Fprintf(w, "range: %s\n", p.Interval())
}
