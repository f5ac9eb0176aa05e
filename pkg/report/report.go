// Package report renders a calculation result for the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/reconcile"
	"github.com/yurifrl/conciliu/pkg/variance"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	balancedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	unbalancedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	noSumStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
)

func statusStyle(s variance.Status) lipgloss.Style {
	switch s {
	case variance.Balanced:
		return balancedStyle
	case variance.Unbalanced:
		return unbalancedStyle
	default:
		return noSumStyle
	}
}

// Render writes the ledger sums, the external sums and one line per variance.
func Render(w io.Writer, res *reconcile.Result) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Contabilitate") + "\n")
	for _, account := range sortedKeys(res.ContaSums) {
		r := res.Ranges[account]
		fmt.Fprintf(&b, "  %-10s %15.2f   %s\n", account, res.ContaSums[account], r.Conta)
	}

	b.WriteString("\n" + titleStyle.Render("ANAF") + "\n")
	for _, ledger := range sortedKeys(res.ContaSums) {
		sums := res.AnafSums[ledger]
		for _, external := range sortedKeys(sums) {
			r := res.Ranges[ledger]
			fmt.Fprintf(&b, "  %-10s %15.2f   %s (for %s)\n", external, sums[external], r.Anaf, ledger)
		}
	}

	b.WriteString("\n" + titleStyle.Render("Diferente (Contabilitate - ANAF)") + "\n")
	for _, v := range res.Variances {
		b.WriteString("  " + Line(v) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Line is the colored one-line summary of v. The signed difference follows
// the formula; the unsigned gap and the higher side close the line.
func Line(v variance.Variance) string {
	if v.Status == variance.NoSum || len(v.Externals) == 0 {
		return statusStyle(v.Status).Render(v.Summary())
	}
	line := fmt.Sprintf("%s - [%s] = %.2f - %.2f = %.2f (%s)",
		v.Ledger, strings.Join(v.Externals, " + "), *v.LedgerSum, v.ExternalTotal, v.Difference, v.Status)
	if side := v.Side(); side != "" {
		line += fmt.Sprintf(", %.2f %s", v.Gap(), side)
	}
	return statusStyle(v.Status).Render(line)
}

// Details lists the rows counted for one account.
func Details(w io.Writer, account string, rows []models.Row) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s: %d row(s)", account, len(rows))) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "  %s | %-12s | %-30s | D %s | C %s\n",
			r.Date(), r.Document(), r.Description(), r.Debit(), r.Credit())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m models.AccountSumResult) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
