// Package interval derives the date windows sums are computed over.
package interval

import (
	"time"

	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/matcher"
	"github.com/yurifrl/conciliu/pkg/models"
)

// Shift moves a ledger window onto the tax-authority calendar: Months later,
// with both bounds pinned to Day.
type Shift struct {
	Months int
	Day    int
}

var DefaultShift = Shift{Months: 1, Day: 25}

// Observed returns the earliest and latest parseable date among the rows of
// account. Both bounds are zero when no row has a date.
func Observed(src models.Source, rows []models.Row, account string, conv dates.Convention) models.DateInterval {
	var out models.DateInterval
	for _, r := range rows {
		if !matcher.MatchesAccount(src, r, account) {
			continue
		}
		d, ok := dates.Parse(r.Date(), conv)
		if !ok {
			continue
		}
		if out.Start.IsZero() || d.Before(out.Start) {
			out.Start = d
		}
		if out.End.IsZero() || d.After(out.End) {
			out.End = d
		}
	}
	return out
}

// Intersect keeps the later start and the earlier end. A bound missing on one
// side is taken from the other.
func Intersect(a, b models.DateInterval) models.DateInterval {
	return models.DateInterval{
		Start: later(a.Start, b.Start),
		End:   earlier(a.End, b.End),
	}
}

// ContaEffectiveRange narrows the user's range to the span the ledger rows of
// account actually cover.
func ContaEffectiveRange(rows []models.Row, account string, user models.DateInterval, conv dates.Convention) models.DateInterval {
	return Intersect(Observed(models.Conta, rows, account, conv), user)
}

// ExternalEffectiveRange shifts a ledger window onto the external calendar.
// Absent bounds stay absent.
func ExternalEffectiveRange(r models.DateInterval, shift Shift) models.DateInterval {
	return models.DateInterval{
		Start: shift.apply(r.Start),
		End:   shift.apply(r.End),
	}
}

func (s Shift) apply(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month()+time.Month(s.Months), s.Day, 0, 0, 0, 0, time.UTC)
}

func later(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a.After(b):
		return a
	default:
		return b
	}
}

func earlier(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a.Before(b):
		return a
	default:
		return b
	}
}
