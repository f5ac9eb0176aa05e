package csv

import (
	"bytes"
	"encoding/csv"
)

// Record is anything that can be written as one CSV line.
type Record interface {
	Values() []string
}

type FilterFunc[T Record] func(T) bool

// Create writes header followed by every record the filter keeps. A nil
// filter keeps everything.
func Create[T Record](header []string, records []T, filter FilterFunc[T]) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range records {
		if filter == nil || filter(r) {
			if err := w.Write(r.Values()); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
