package reconcile

import "github.com/yurifrl/conciliu/pkg/models"

func byAccount(sum models.Column) models.AccountFilterConfig {
	return models.AccountFilterConfig{FilterColumn: models.ColAccount, SumColumn: sum}
}

// Fallback configs for accounts without a built-in or user config. Ledger
// liabilities accumulate on credit; ANAF obligations are the amounts due.
var (
	fallbackContaFilter = byAccount(models.ColCredit)
	fallbackAnafFilter  = byAccount(models.ColDebit)
)

// DefaultContaFilters are the built-in configs for common ledger accounts.
func DefaultContaFilters() map[string]models.AccountFilterConfig {
	return map[string]models.AccountFilterConfig{
		"4315": byAccount(models.ColCredit), // CAS
		"4316": byAccount(models.ColCredit), // CASS
		"436":  byAccount(models.ColCredit), // CAM
		"444":  byAccount(models.ColCredit), // impozit pe salarii
		"4423": byAccount(models.ColCredit), // TVA de plata
		"4424": byAccount(models.ColDebit),  // TVA de recuperat
		"441":  byAccount(models.ColCredit), // impozit pe profit
		"4418": byAccount(models.ColCredit), // impozit pe venit micro
		// impozit pe dividende, net of reversals. The subtract pass filters on
		// the description alone, so the debit of every "Storno" row in the
		// loaded ledger files is taken off, whatever its account. Load only
		// the 446 fisa, or override the filter value, when other accounts
		// carry reversals too.
		"446.DIV": {
			FilterColumn: models.ColAccount,
			SumColumn:    models.ColCredit,
			Subtract: &models.AccountFilterConfig{
				FilterColumn: models.ColDescription,
				FilterValue:  "Storno",
				SumColumn:    models.ColDebit,
			},
		},
	}
}

// DefaultAnafFilters are the built-in configs for ANAF obligation codes.
func DefaultAnafFilters() map[string]models.AccountFilterConfig {
	return map[string]models.AccountFilterConfig{
		"412":    byAccount(models.ColDebit),
		"432":    byAccount(models.ColDebit),
		"480":    byAccount(models.ColDebit),
		"602":    byAccount(models.ColDebit),
		"1/4423": byAccount(models.ColDebit),
		"121":    byAccount(models.ColDebit),
		"103":    byAccount(models.ColDebit),
		"628":    byAccount(models.ColDebit),
	}
}

// DefaultMapping links ledger accounts to the ANAF obligations they settle.
func DefaultMapping() models.AccountMapping {
	return models.AccountMapping{
		"4315":    {"412"},
		"4316":    {"432"},
		"436":     {"480"},
		"444":     {"602"},
		"4423":    {"1/4423"},
		"441":     {"121"},
		"4418":    {"103"},
		"446.DIV": {"628"},
	}
}
