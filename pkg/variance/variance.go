package variance

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/yurifrl/conciliu/pkg/models"
)

// DefaultTolerance is the absolute difference under which a ledger account
// counts as balanced.
const DefaultTolerance = 1.0

// Status classifies a ledger account against its mapped external accounts.
//
//   - NoSum: the ledger account has not been calculated yet.
//   - Balanced: difference under the tolerance.
//   - Unbalanced: everything else.
type Status int

const (
	NoSum Status = iota
	Balanced
	Unbalanced
)

func (s Status) String() string {
	switch s {
	case Balanced:
		return "balanced"
	case Unbalanced:
		return "unbalanced"
	default:
		return "no sum calculated"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Variance is the comparison of one ledger account with its external accounts.
type Variance struct {
	Ledger        string             `json:"ledger"`
	Externals     []string           `json:"externals"`
	LedgerSum     *float64           `json:"ledgerSum"`
	ExternalSums  map[string]float64 `json:"externalSums"`
	ExternalTotal float64            `json:"externalTotal"`
	Difference    float64            `json:"difference"`
	Status        Status             `json:"status"`
}

// Compute returns ledgerSum minus the sum of the external accounts. A nil
// ledgerSum yields NoSum and no difference. Externals missing from
// externalSums count as zero.
func Compute(ledger string, ledgerSum *float64, externals []string, externalSums map[string]float64, tolerance float64) Variance {
	v := Variance{
		Ledger:       ledger,
		Externals:    externals,
		LedgerSum:    ledgerSum,
		ExternalSums: make(map[string]float64, len(externals)),
	}

	externalTotal := decimal.Zero
	for _, e := range externals {
		s := externalSums[e]
		v.ExternalSums[e] = s
		externalTotal = externalTotal.Add(decimal.NewFromFloat(s))
	}
	v.ExternalTotal = externalTotal.InexactFloat64()

	if ledgerSum == nil {
		v.Status = NoSum
		return v
	}

	diff := decimal.NewFromFloat(*ledgerSum).Sub(externalTotal)
	v.Difference = diff.InexactFloat64()
	if diff.Abs().LessThan(decimal.NewFromFloat(tolerance)) {
		v.Status = Balanced
	} else {
		v.Status = Unbalanced
	}
	return v
}

// Report computes a Variance for every mapped ledger account, in sorted
// order. externalSums is keyed by ledger account because each ledger account
// sums its external accounts over its own window.
func Report(
	mapping models.AccountMapping,
	ledgerSums models.AccountSumResult,
	externalSums map[string]models.AccountSumResult,
	tolerance float64,
) []Variance {
	out := make([]Variance, 0, len(mapping))
	for _, ledger := range mapping.Ledgers() {
		var sum *float64
		if s, ok := ledgerSums[ledger]; ok {
			sum = &s
		}
		out = append(out, Compute(ledger, sum, mapping[ledger], externalSums[ledger], tolerance))
	}
	return out
}

// Gap is the size of the difference, without its sign.
func (v Variance) Gap() float64 {
	return math.Abs(v.Difference)
}

// Side names the source with the larger total, or "" when they match.
// Difference is ledger minus external, so a negative one means ANAF is higher.
func (v Variance) Side() string {
	switch {
	case v.Status == NoSum || v.Difference == 0:
		return ""
	case v.Difference < 0:
		return "ANAF higher"
	default:
		return "ledger higher"
	}
}

// Summary is a one-line description of v. The difference is shown unsigned,
// followed by the side that is higher.
func (v Variance) Summary() string {
	if v.Status == NoSum {
		return fmt.Sprintf("%s: %s", v.Ledger, v.Status)
	}
	if side := v.Side(); side != "" {
		return fmt.Sprintf("%s: difference %.2f, %s (%s)", v.Ledger, v.Gap(), side, v.Status)
	}
	return fmt.Sprintf("%s: difference %.2f (%s)", v.Ledger, v.Gap(), v.Status)
}
