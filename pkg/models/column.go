package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnknownSource = errors.New("unknown source")
	ErrUnknownColumn = errors.New("unknown column")
)

// Source identifies which export a file came from.
type Source string

const (
	Conta Source = "conta" // Contabilitate ledger export
	Anaf  Source = "anaf"  // ANAF tax-authority export
)

var Sources = []Source{Conta, Anaf}

func ParseSource(s string) (Source, error) {
	switch Source(Fold(s)) {
	case Conta, "contabilitate":
		return Conta, nil
	case Anaf:
		return Anaf, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
}

// Column is one of the canonical row fields.
type Column int

const (
	ColDate Column = iota
	ColDocument
	ColDescription
	ColAccount
	ColDirection
	ColDebit
	ColCredit
	ColBalance
)

var columnNames = [RowWidth]string{
	"date", "documentNumber", "description", "account",
	"direction", "debit", "credit", "balance",
}

func (c Column) Valid() bool { return c >= 0 && int(c) < RowWidth }

func (c Column) String() string {
	if !c.Valid() {
		return fmt.Sprintf("column(%d)", int(c))
	}
	return columnNames[c]
}

// Numeric reports whether the column holds amounts that can be summed.
func (c Column) Numeric() bool {
	return c == ColDebit || c == ColCredit || c == ColBalance
}

func (c Column) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownColumn, int(c))
	}
	return []byte(columnNames[c]), nil
}

// UnmarshalText accepts canonical names only; source aliases go through
// ParseColumn.
func (c *Column) UnmarshalText(text []byte) error {
	folded := Fold(string(text))
	for i, n := range columnNames {
		if strings.ToLower(n) == folded {
			*c = Column(i)
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownColumn, string(text))
}

// Source-specific header names, folded. Canonical names are accepted for
// every source.
var columnAliases = map[Source]map[string]Column{
	Conta: {
		"data":         ColDate,
		"document":     ColDocument,
		"nr document":  ColDocument,
		"explicatie":   ColDescription,
		"cont":         ColAccount,
		"tip":          ColDirection,
		"d/c":          ColDirection,
		"rulaj debit":  ColDebit,
		"rulaj credit": ColCredit,
		"sold":         ColBalance,
	},
	Anaf: {
		"data":          ColDate,
		"document":      ColDocument,
		"explicatie":    ColDescription,
		"cont":          ColAccount,
		"obligatie":     ColAccount,
		"tip":           ColDirection,
		"datorat":       ColDebit,
		"suma datorata": ColDebit,
		"platit":        ColCredit,
		"suma platita":  ColCredit,
		"sold":          ColBalance,
	},
}

// ParseColumn resolves a column name for the given source. Unknown names are
// an error rather than a silent default.
func ParseColumn(src Source, name string) (Column, error) {
	folded := Fold(name)
	for i, n := range columnNames {
		if strings.ToLower(n) == folded {
			return Column(i), nil
		}
	}
	if c, ok := columnAliases[src][folded]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w %q for source %s", ErrUnknownColumn, name, src)
}

// Fold lower-cases s, trims it and strips diacritics, so that "Explicație"
// and "explicatie" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
