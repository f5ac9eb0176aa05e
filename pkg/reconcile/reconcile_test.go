package reconcile

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/variance"
)

func row(date, account, debit, credit string) models.Row {
	return models.NewRow([]string{date, "D1", "", account, "", debit, credit, ""})
}

func file(id string, src models.Source, rows ...models.Row) *models.LoadedFile {
	return &models.LoadedFile{ID: id, Source: src, FileName: id + ".xls", Rows: rows, RowCount: len(rows)}
}

func newCalculator() *Calculator {
	return New(log.New(io.Discard), DefaultOptions())
}

func TestCalculateLedgerSum(t *testing.T) {
	s := NewState()
	s.AddFile(file("c1", models.Conta,
		row("05/01/2024", "4423", "", "100.00"),
		row("06/01/2024", "4423", "", "50.00"),
		row("06/01/2024", "4424", "", "70.00"),
	))
	s.Track("4423")

	res, err := newCalculator().Calculate(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.ContaSums["4423"]; got != 150.00 {
		t.Errorf("ContaSums[4423] = %v, want 150", got)
	}
}

func TestCalculateVariance(t *testing.T) {
	tests := []struct {
		name   string
		anaf   string
		status variance.Status
	}{
		{"balanced", "500.40", variance.Balanced},
		{"unbalanced", "498.00", variance.Unbalanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.AddFile(file("c1", models.Conta, row("10/01/2024", "4315", "", "500.00")))
			// Due on the 25th of the following month.
			s.AddFile(file("a1", models.Anaf,
				row("25/02/2024", "412", tt.anaf, ""),
				row("25/03/2024", "412", "9999", ""),
			))
			s.Track("4315")

			res, err := newCalculator().Calculate(s)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Variances) != 1 {
				t.Fatalf("got %d variances, want 1", len(res.Variances))
			}
			if got := res.Variances[0].Status; got != tt.status {
				t.Errorf("status = %s, want %s", got, tt.status)
			}

			wantRanges := Ranges{
				Conta: models.DateInterval{
					Start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
					End:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				},
				Anaf: models.DateInterval{
					Start: time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC),
					End:   time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC),
				},
			}
			if diff := cmp.Diff(wantRanges, res.Ranges["4315"]); diff != "" {
				t.Errorf("ranges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculateUserRange(t *testing.T) {
	s := NewState()
	s.AddFile(file("c1", models.Conta,
		row("10/01/2024", "4315", "", "100"),
		row("10/02/2024", "4315", "", "200"),
	))
	s.Track("4315")
	s.Range = models.DateInterval{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}

	res, err := newCalculator().Calculate(s)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.ContaSums["4315"]; got != 200 {
		t.Errorf("ContaSums[4315] = %v, want 200", got)
	}
}

func TestCalculateErrors(t *testing.T) {
	s := NewState()
	if _, err := newCalculator().Calculate(s); !errors.Is(err, ErrNoAccounts) {
		t.Errorf("err = %v, want ErrNoAccounts", err)
	}

	s.Track("4315")
	s.AddFile(file("a1", models.Anaf, row("25/02/2024", "412", "1", "")))
	if _, err := newCalculator().Calculate(s); !errors.Is(err, ErrNoFiles) {
		t.Errorf("err = %v, want ErrNoFiles", err)
	}

	if msg := StatusMessage(ErrNoAccounts); msg == "" || msg == ErrNoAccounts.Error() {
		t.Errorf("StatusMessage(ErrNoAccounts) = %q", msg)
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	s := NewState()
	s.AddFile(file("c1", models.Conta,
		row("10/01/2024", "4315", "", "0.1"),
		row("11/01/2024", "4315", "", "0.2"),
	))
	s.AddFile(file("a1", models.Anaf, row("25/02/2024", "412", "0.3", "")))
	s.Track("4315")

	c := newCalculator()
	first, err := c.Calculate(s)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Calculate(s)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second calculation differs (-first +second):\n%s", diff)
	}
	if len(s.Files) != 2 || len(s.Accounts) != 1 {
		t.Errorf("calculation modified the state")
	}
}

func TestDetails(t *testing.T) {
	s := NewState()
	s.AddFile(file("c1", models.Conta,
		row("10/01/2024", "4315", "", "1"),
		row("10/01/2024", "4316", "", "2"),
	))
	got := newCalculator().Details(s, "4315")
	if len(got) != 1 || got[0].Account() != "4315" {
		t.Errorf("Details = %v", got)
	}
}

func TestStateFiles(t *testing.T) {
	s := NewState()
	s.AddFile(file("c1", models.Conta, row("10/01/2024", "4315", "", "1")))
	s.AddFile(file("c2", models.Conta, row("11/01/2024", "4315", "", "2")))
	s.AddFile(file("a1", models.Anaf, row("25/02/2024", "412", "3", "")))

	if got := len(s.Rows(models.Conta)); got != 2 {
		t.Errorf("conta rows = %d, want 2", got)
	}
	if !s.RemoveFile("c1") {
		t.Fatal("RemoveFile(c1) = false")
	}
	if s.RemoveFile("c1") {
		t.Error("second RemoveFile(c1) = true")
	}
	if got := s.Rows(models.Conta); len(got) != 1 || got[0].Credit() != "2" {
		t.Errorf("conta rows after remove = %v", got)
	}

	s.Track("4315")
	s.Reset()
	if len(s.Files) != 0 {
		t.Errorf("Reset kept %d files", len(s.Files))
	}
	if len(s.Accounts) != 1 {
		t.Errorf("Reset dropped tracked accounts")
	}
}

func TestDividendReversalsSpanLoadedLedger(t *testing.T) {
	// Rows from a "fise_446" export carry the inferred account.
	fisa := func(r models.Row) models.Row {
		r.FileAccount = "446"
		return r
	}
	stornoRow := func(account, debit string) models.Row {
		return models.NewRow([]string{"12/01/2024", "S1", "Storno", account, "", debit, "", ""})
	}
	calc := func(rows ...models.Row) float64 {
		s := NewState()
		s.AddFile(file("c1", models.Conta, rows...))
		s.Track("446.DIV")
		res, err := newCalculator().Calculate(s)
		if err != nil {
			t.Fatal(err)
		}
		return res.ContaSums["446.DIV"]
	}

	only446 := calc(fisa(row("10/01/2024", "446", "", "100")), fisa(stornoRow("446", "10")))
	if only446 != 90 {
		t.Errorf("446 only = %v, want 90", only446)
	}
	mixed := calc(fisa(row("10/01/2024", "446", "", "100")), fisa(stornoRow("446", "10")), stornoRow("4423", "5"))
	if mixed != 85 {
		t.Errorf("with a 4423 reversal = %v, want 85", mixed)
	}

	s := NewState()
	narrowed := s.FilterFor(models.Conta, "446.DIV")
	sub := *narrowed.Subtract
	sub.FilterValue = "Storno dividende"
	narrowed.Subtract = &sub
	if err := s.SetFilter(models.Conta, "446.DIV", narrowed); err != nil {
		t.Fatal(err)
	}
	if got := s.FilterFor(models.Conta, "446.DIV").Subtract.FilterValue; got != "Storno dividende" {
		t.Errorf("subtract filter value = %q", got)
	}
}

func TestStateTracking(t *testing.T) {
	s := NewState()
	if !s.Track("4315") || s.Track("4315") || s.Track("") {
		t.Error("Track should add each account once")
	}
	if !s.Untrack("4315") || s.Untrack("4315") {
		t.Error("Untrack should remove each account once")
	}
}

func TestFilterFor(t *testing.T) {
	s := NewState()
	if got := s.FilterFor(models.Anaf, "999"); got.SumColumn != models.ColDebit {
		t.Errorf("anaf fallback sums %s", got.SumColumn)
	}
	if got := s.FilterFor(models.Conta, "999"); got.SumColumn != models.ColCredit {
		t.Errorf("conta fallback sums %s", got.SumColumn)
	}
	if got := s.FilterFor(models.Conta, "446.DIV"); !got.SubtractActive() {
		t.Error("446.DIV should subtract reversals")
	}

	cfg := models.AccountFilterConfig{FilterColumn: models.ColAccount, SumColumn: models.ColDescription}
	if err := s.SetFilter(models.Conta, "4315", cfg); err == nil {
		t.Error("SetFilter accepted a non-numeric sum column")
	}
	cfg.SumColumn = models.ColDebit
	if err := s.SetFilter(models.Conta, "4315", cfg); err != nil {
		t.Fatal(err)
	}
	if got := s.FilterFor(models.Conta, "4315"); got.SumColumn != models.ColDebit {
		t.Errorf("override not applied: %s", got.SumColumn)
	}
}
