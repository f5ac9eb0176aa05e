// Package aggregate sums the configured amount column over the rows of one
// account.
package aggregate

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/matcher"
	"github.com/yurifrl/conciliu/pkg/models"
)

// Aggregate walks rows once per pass and returns the signed total of
// cfg.SumColumn for account within interval. Rows whose date cannot be parsed
// are kept. An active subtract config runs a second pass whose total is taken
// off the first.
func Aggregate(
	src models.Source,
	rows []models.Row,
	account string,
	cfg models.AccountFilterConfig,
	interval models.DateInterval,
	conv dates.Convention,
) float64 {
	return Total(src, rows, account, cfg, interval, conv).InexactFloat64()
}

// Total is Aggregate without the final float conversion.
func Total(
	src models.Source,
	rows []models.Row,
	account string,
	cfg models.AccountFilterConfig,
	interval models.DateInterval,
	conv dates.Convention,
) decimal.Decimal {
	total := sum(src, rows, account, cfg, interval, conv)
	if cfg.SubtractActive() {
		total = total.Sub(sum(src, rows, account, *cfg.Subtract, interval, conv))
	}
	return total
}

// Detail returns the rows counted by the first pass, in input order.
func Detail(
	src models.Source,
	rows []models.Row,
	account string,
	cfg models.AccountFilterConfig,
	interval models.DateInterval,
	conv dates.Convention,
) []models.Row {
	var out []models.Row
	for _, r := range rows {
		if included(src, r, account, cfg, interval, conv) {
			out = append(out, r)
		}
	}
	return out
}

func sum(
	src models.Source,
	rows []models.Row,
	account string,
	cfg models.AccountFilterConfig,
	interval models.DateInterval,
	conv dates.Convention,
) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if !included(src, r, account, cfg, interval, conv) {
			continue
		}
		total = total.Add(ParseAmount(r.Get(cfg.SumColumn)))
	}
	return total
}

func included(
	src models.Source,
	r models.Row,
	account string,
	cfg models.AccountFilterConfig,
	interval models.DateInterval,
	conv dates.Convention,
) bool {
	if !matcher.Matches(src, r, account, cfg) {
		return false
	}
	if interval.Unbounded() {
		return true
	}
	d, ok := dates.Parse(r.Date(), conv)
	if !ok {
		return true
	}
	return interval.Contains(d)
}

var exponentRegex = regexp.MustCompile(`\d[eE][+-]?\d`)

// ParseAmount reads an amount in either decimal convention ("1.234,56" or
// "1,234.56"). Anything unreadable counts as zero, and so does scientific
// notation.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	if exponentRegex.MatchString(s) {
		return decimal.Zero
	}

	// Parentheses mark a negative amount; a minus inside them is redundant.
	parens := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	negative := parens

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case (r == '-' || r == '−') && !parens:
			negative = !negative
		}
	}
	clean := normalizeSeparators(b.String())
	if clean == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

// normalizeSeparators rewrites s to use '.' as the only decimal separator.
// When both separators appear the last one is the decimal separator; a lone
// comma is decimal; a repeated separator is a thousands separator.
func normalizeSeparators(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}
