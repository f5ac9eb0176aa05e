package models

import "strings"

// RowWidth is the number of fields every normalized row carries.
const RowWidth = 8

// Row is a ledger or tax-authority transaction in canonical form:
// date, document number, description, account, direction, debit, credit,
// balance. Fields is an array so the width cannot drift.
type Row struct {
	Fields [RowWidth]string

	// Provenance, not part of the canonical fields.
	FileID      string
	FileAccount string // account inferred for single-account files, empty otherwise
}

// NewRow copies up to RowWidth cells into a row, padding missing ones.
func NewRow(cells []string) Row {
	var r Row
	for i := 0; i < RowWidth && i < len(cells); i++ {
		r.Fields[i] = strings.TrimSpace(cells[i])
	}
	return r
}

func (r Row) Get(c Column) string {
	if !c.Valid() {
		return ""
	}
	return r.Fields[c]
}

func (r Row) Date() string        { return r.Fields[ColDate] }
func (r Row) Document() string    { return r.Fields[ColDocument] }
func (r Row) Description() string { return r.Fields[ColDescription] }
func (r Row) Account() string     { return r.Fields[ColAccount] }
func (r Row) Direction() string   { return r.Fields[ColDirection] }
func (r Row) Debit() string       { return r.Fields[ColDebit] }
func (r Row) Credit() string      { return r.Fields[ColCredit] }
func (r Row) Balance() string     { return r.Fields[ColBalance] }

// Values returns the fields as a slice, in canonical order.
func (r Row) Values() []string {
	out := make([]string, RowWidth)
	copy(out, r.Fields[:])
	return out
}

// AccountSumResult maps an account name to its aggregated total.
type AccountSumResult map[string]float64
