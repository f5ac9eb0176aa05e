// Package matcher decides whether a normalized row belongs to a named account.
package matcher

import (
	"strings"

	"github.com/yurifrl/conciliu/pkg/models"
)

// anafRootAccount is the inferred account of ANAF files that hold every
// "1/<code>" obligation.
const anafRootAccount = "1"

// Matches reports whether row belongs to account under cfg. With the account
// column the row's account decides; with any other column the row matches
// when that column contains cfg.FilterValue.
func Matches(src models.Source, row models.Row, account string, cfg models.AccountFilterConfig) bool {
	if cfg.FilterColumn == models.ColAccount {
		return MatchesAccount(src, row, account)
	}
	if cfg.FilterValue == "" {
		return true
	}
	return strings.Contains(row.Get(cfg.FilterColumn), cfg.FilterValue)
}

// MatchesAccount compares account with the row's account field and, for rows
// of single-account files, with the account inferred from the file name.
// Sub-accounts such as "446.DIV" roll up to a "446" file.
func MatchesAccount(src models.Source, row models.Row, account string) bool {
	if row.Account() == account {
		return true
	}
	fileAccount := row.FileAccount
	if fileAccount == "" {
		return false
	}
	if fileAccount == account || strings.HasPrefix(account, fileAccount+".") {
		return true
	}
	return src == models.Anaf && fileAccount == anafRootAccount && strings.HasPrefix(account, anafRootAccount+"/")
}

// Filter returns the rows that match.
func Filter(src models.Source, rows []models.Row, account string, cfg models.AccountFilterConfig) []models.Row {
	var out []models.Row
	for _, r := range rows {
		if Matches(src, r, account, cfg) {
			out = append(out, r)
		}
	}
	return out
}
