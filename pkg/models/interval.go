package models

import (
	"encoding/json"
	"time"

	"github.com/yurifrl/conciliu/pkg/dates"
)

// DateInterval is an inclusive date range. A zero bound means the range is
// open on that side. Start counts from 00:00:00 of its day and End through
// 23:59:59 of its day.
type DateInterval struct {
	Start time.Time
	End   time.Time
}

func (i DateInterval) Unbounded() bool {
	return i.Start.IsZero() && i.End.IsZero()
}

func (i DateInterval) Contains(t time.Time) bool {
	if !i.Start.IsZero() && t.Before(startOfDay(i.Start)) {
		return false
	}
	if !i.End.IsZero() && t.After(endOfDay(i.End)) {
		return false
	}
	return true
}

func (i DateInterval) String() string {
	return displayOrDash(i.Start) + " - " + displayOrDash(i.End)
}

type intervalJSON struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// MarshalJSON renders bounds as DD/MM/YYYY, absent bounds as null.
func (i DateInterval) MarshalJSON() ([]byte, error) {
	return json.Marshal(intervalJSON{Start: displayOrNil(i.Start), End: displayOrNil(i.End)})
}

func (i *DateInterval) UnmarshalJSON(data []byte) error {
	var raw intervalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = DateInterval{}
	if raw.Start != nil && *raw.Start != "" {
		t, err := dates.ParseDisplay(*raw.Start)
		if err != nil {
			return err
		}
		i.Start = t
	}
	if raw.End != nil && *raw.End != "" {
		t, err := dates.ParseDisplay(*raw.End)
		if err != nil {
			return err
		}
		i.End = t
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func displayOrNil(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := dates.FormatDisplay(t)
	return &s
}

func displayOrDash(t time.Time) string {
	if t.IsZero() {
		return "…"
	}
	return dates.FormatDisplay(t)
}
