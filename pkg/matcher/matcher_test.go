package matcher

import (
	"testing"

	"github.com/yurifrl/conciliu/pkg/models"
)

func row(account, fileAccount, description string) models.Row {
	r := models.NewRow([]string{"05/01/2024", "D1", description, account, "C", "", "10", "10"})
	r.FileAccount = fileAccount
	return r
}

func TestMatchesAccountColumn(t *testing.T) {
	byAccount := models.AccountFilterConfig{FilterColumn: models.ColAccount, SumColumn: models.ColCredit}

	tests := []struct {
		name    string
		src     models.Source
		row     models.Row
		account string
		want    bool
	}{
		{"exact row account", models.Conta, row("4423", "", ""), "4423", true},
		{"different account", models.Conta, row("4424", "", ""), "4423", false},
		{"no prefix match on row account", models.Conta, row("44", "", ""), "4423", false},
		{"file account", models.Conta, row("", "446", ""), "446", true},
		{"sub-account rolls up to file", models.Conta, row("446", "446", ""), "446.DIV", true},
		{"sub-account needs dot", models.Conta, row("446", "446", ""), "4461", false},
		{"anaf root file", models.Anaf, row("1", "1", ""), "1/4423", true},
		{"root rule only for anaf", models.Conta, row("1", "1", ""), "1/4423", false},
		{"anaf root needs root file", models.Anaf, row("2", "2", ""), "1/4423", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.src, tt.row, tt.account, byAccount); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesOtherColumn(t *testing.T) {
	cfg := models.AccountFilterConfig{FilterColumn: models.ColDescription, FilterValue: "TVA", SumColumn: models.ColDebit}

	if !Matches(models.Conta, row("4424", "", "Plata TVA ianuarie"), "4423", cfg) {
		t.Error("substring in description should match regardless of account")
	}
	if Matches(models.Conta, row("4423", "", "Plata CAS"), "4423", cfg) {
		t.Error("missing substring should not match")
	}

	cfg.FilterValue = ""
	if !Matches(models.Conta, row("999", "", "anything"), "4423", cfg) {
		t.Error("empty filter value matches everything")
	}
}

func TestFilter(t *testing.T) {
	rows := []models.Row{row("4423", "", "a"), row("4424", "", "b"), row("4423", "", "c")}
	got := Filter(models.Conta, rows, "4423", models.AccountFilterConfig{FilterColumn: models.ColAccount, SumColumn: models.ColCredit})
	if len(got) != 2 || got[0].Description() != "a" || got[1].Description() != "c" {
		t.Errorf("unexpected rows %+v", got)
	}
}
