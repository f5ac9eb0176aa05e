// Package config resolves runtime configuration from flags, CONCILIU_*
// environment variables, an optional .env file and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/interval"
	"github.com/yurifrl/conciliu/pkg/reconcile"
	"github.com/yurifrl/conciliu/pkg/variance"
)

const envPrefix = "CONCILIU"

var validate = validator.New()

type Config struct {
	Settings    string  `mapstructure:"settings" validate:"required"`
	LogLevel    string  `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	Tolerance   float64 `mapstructure:"tolerance" validate:"gt=0"`
	ShiftMonths int     `mapstructure:"shift-months" validate:"gte=0,lte=12"`
	DueDay      int     `mapstructure:"due-day" validate:"gte=1,lte=28"`
	ContaDates  string  `mapstructure:"conta-dates" validate:"oneof=day-first month-first"`
	AnafDates   string  `mapstructure:"anaf-dates" validate:"oneof=day-first month-first"`
	Addr        string  `mapstructure:"addr" validate:"required,hostname_port"`
}

func defaults() map[string]any {
	return map[string]any{
		"settings":     DefaultSettingsPath(),
		"log-level":    "info",
		"tolerance":    variance.DefaultTolerance,
		"shift-months": interval.DefaultShift.Months,
		"due-day":      interval.DefaultShift.Day,
		"conta-dates":  string(dates.DayFirst),
		"anaf-dates":   string(dates.DayFirst),
		"addr":         "127.0.0.1:3000",
	}
}

// DefaultSettingsPath is settings.yaml under the user config directory, or in
// the working directory when there is none.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(dir, "conciliu", "settings.yaml")
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("settings", d["settings"].(string), "Settings file")
	fs.String("log-level", d["log-level"].(string), "Log level (debug, info, warn, error)")
	fs.Float64("tolerance", d["tolerance"].(float64), "Absolute difference under which an account is balanced")
	fs.Int("shift-months", d["shift-months"].(int), "Months between a ledger period and its ANAF due date")
	fs.Int("due-day", d["due-day"].(int), "Day of month ANAF obligations fall due")
	fs.String("conta-dates", d["conta-dates"].(string), "Ambiguous date order in Contabilitate files (day-first, month-first)")
	fs.String("anaf-dates", d["anaf-dates"].(string), "Ambiguous date order in ANAF files (day-first, month-first)")
}

// Build merges, in increasing priority: defaults, config file, environment,
// then flags the user set. cfgFile may be empty, in which case config.yaml is
// looked up in the working directory and skipped when absent.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Options are the calculation settings carried by the config.
func (c *Config) Options() reconcile.Options {
	return reconcile.Options{
		Tolerance:       c.Tolerance,
		Shift:           interval.Shift{Months: c.ShiftMonths, Day: c.DueDay},
		ContaConvention: dates.Convention(c.ContaDates),
		AnafConvention:  dates.Convention(c.AnafDates),
	}
}

func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           c.Level(),
	})
}
