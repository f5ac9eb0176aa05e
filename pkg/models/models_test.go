package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewRowAlwaysHasEightFields(t *testing.T) {
	short := NewRow([]string{"01/01/2024", " 12 "})
	if short.Document() != "12" || short.Balance() != "" {
		t.Errorf("unexpected row %+v", short.Fields)
	}
	long := NewRow([]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"})
	if got := len(long.Values()); got != RowWidth {
		t.Errorf("got %d fields", got)
	}
	if long.Balance() != "h" {
		t.Errorf("balance = %q", long.Balance())
	}
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		src  Source
		name string
		want Column
	}{
		{Conta, "credit", ColCredit},
		{Conta, "Explicație", ColDescription},
		{Conta, "documentNumber", ColDocument},
		{Anaf, "Suma datorată", ColDebit},
		{Anaf, "obligatie", ColAccount},
		{Anaf, "SOLD", ColBalance},
	}
	for _, tt := range tests {
		got, err := ParseColumn(tt.src, tt.name)
		if err != nil {
			t.Fatalf("ParseColumn(%s, %q): %v", tt.src, tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ParseColumn(%s, %q) = %s, want %s", tt.src, tt.name, got, tt.want)
		}
	}

	if _, err := ParseColumn(Conta, "obligatie"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestFilterConfigValidate(t *testing.T) {
	ok := AccountFilterConfig{
		FilterColumn: ColAccount,
		SumColumn:    ColCredit,
		Subtract:     &AccountFilterConfig{FilterColumn: ColDescription, FilterValue: "storno", SumColumn: ColDebit},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nested := ok.Clone()
	nested.Subtract.Subtract = &AccountFilterConfig{FilterColumn: ColAccount, SumColumn: ColDebit}
	if err := nested.Validate(); !errors.Is(err, ErrNestedSubtract) {
		t.Errorf("expected ErrNestedSubtract, got %v", err)
	}
	if ok.Subtract.Subtract != nil {
		t.Error("Clone shared the subtract config")
	}

	text := AccountFilterConfig{FilterColumn: ColAccount, SumColumn: ColDescription}
	if err := text.Validate(); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("expected ErrNotNumeric, got %v", err)
	}
}

func TestFilterConfigJSON(t *testing.T) {
	in := AccountFilterConfig{FilterColumn: ColDescription, FilterValue: "TVA", SumColumn: ColBalance}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"filterColumn":"description","filterValue":"TVA","sumColumn":"balance"}` {
		t.Errorf("unexpected json %s", data)
	}
	var out AccountFilterConfig
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDateIntervalContainsIsInclusive(t *testing.T) {
	in := DateInterval{
		Start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
	}
	cases := map[time.Time]bool{
		time.Date(2024, 1, 9, 23, 0, 0, 0, time.UTC):  false,
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC):  true,
		time.Date(2024, 1, 20, 23, 59, 0, 0, time.UTC): true,
		time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC):  false,
	}
	for ts, want := range cases {
		if got := in.Contains(ts); got != want {
			t.Errorf("Contains(%s) = %v, want %v", ts, got, want)
		}
	}
	if !(DateInterval{}).Contains(time.Date(1901, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("unbounded interval must contain everything")
	}
}

func TestDateIntervalJSON(t *testing.T) {
	in := DateInterval{Start: time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"start":"25/02/2024","end":null}` {
		t.Errorf("unexpected json %s", data)
	}
	var out DateInterval
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Start.Equal(in.Start) || !out.End.IsZero() {
		t.Errorf("round trip got %+v", out)
	}
}

func TestAccountMapping(t *testing.T) {
	m := AccountMapping{}
	if !m.Add("4423", "1/4423") {
		t.Error("first add should change the mapping")
	}
	if m.Add("4423", "1/4423") {
		t.Error("duplicate add should be ignored")
	}
	m.Add("4315", "412")
	m.Add("4315", "413")

	if diff := cmp.Diff([]string{"4315", "4423"}, m.Ledgers()); diff != "" {
		t.Errorf("ledgers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1/4423", "412", "413"}, m.Externals()); diff != "" {
		t.Errorf("externals (-want +got):\n%s", diff)
	}

	clone := m.Clone()
	if !m.Remove("4315", "412") {
		t.Error("remove should report a change")
	}
	if m.Remove("4315", "412") {
		t.Error("second remove should be a no-op")
	}
	if diff := cmp.Diff([]string{"413"}, m["4315"]); diff != "" {
		t.Errorf("after remove (-want +got):\n%s", diff)
	}
	if len(clone["4315"]) != 2 {
		t.Error("clone was mutated")
	}
}

func TestParseSource(t *testing.T) {
	if s, err := ParseSource("ANAF"); err != nil || s != Anaf {
		t.Errorf("got %v, %v", s, err)
	}
	if s, err := ParseSource("Contabilitate"); err != nil || s != Conta {
		t.Errorf("got %v, %v", s, err)
	}
	if _, err := ParseSource("bank"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}
