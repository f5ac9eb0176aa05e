package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/reconcile"
)

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	s, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	state := reconcile.NewState()
	if err := s.Apply(state); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(reconcile.DefaultMapping(), state.Mapping); diff != "" {
		t.Errorf("empty settings changed the mapping (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	state := reconcile.NewState()
	state.Track("4315")
	state.Track("446.DIV")
	state.Mapping.Add("4315", "412.1")
	state.Range = models.DateInterval{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := state.SetFilter(models.Conta, "4315", models.AccountFilterConfig{
		FilterColumn: models.ColDescription,
		FilterValue:  "CAS",
		SumColumn:    models.ColDebit,
	}); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "settings.yaml"))
	ctx := context.Background()
	if err := store.Save(ctx, FromState(state)); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}

	restored := reconcile.NewState()
	if err := loaded.Apply(restored); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(state, restored); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySourceColumnNames(t *testing.T) {
	s := &Settings{
		AnafFilters: map[string]FilterSetting{
			"412": {FilterColumn: "Obligație", SumColumn: "Suma plătită"},
		},
	}
	state := reconcile.NewState()
	if err := s.Apply(state); err != nil {
		t.Fatal(err)
	}
	got := state.FilterFor(models.Anaf, "412")
	if got.FilterColumn != models.ColAccount || got.SumColumn != models.ColCredit {
		t.Errorf("got filter %s sum %s", got.FilterColumn, got.SumColumn)
	}
}

func TestApplyDropsRemovedOverrides(t *testing.T) {
	state := reconcile.NewState()
	with := &Settings{ContaFilters: map[string]FilterSetting{
		"4315": {FilterColumn: "explicatie", FilterValue: "CAS", SumColumn: "debit"},
		"9999": {FilterColumn: "cont", SumColumn: "debit"},
	}}
	if err := with.Apply(state); err != nil {
		t.Fatal(err)
	}
	if got := state.FilterFor(models.Conta, "4315"); got.SumColumn != models.ColDebit {
		t.Fatalf("override not applied: %s", got.SumColumn)
	}

	without := &Settings{ContaFilters: map[string]FilterSetting{
		"9999": {FilterColumn: "cont", SumColumn: "debit"},
	}}
	if err := without.Apply(state); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(reconcile.DefaultContaFilters()["4315"], state.FilterFor(models.Conta, "4315")); diff != "" {
		t.Errorf("removed override still applied (-want +got):\n%s", diff)
	}
	if got := state.FilterFor(models.Conta, "9999"); got.SumColumn != models.ColDebit {
		t.Errorf("kept override lost: %s", got.SumColumn)
	}
}

func TestApplyRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr error
	}{
		{
			name:    "unknown column",
			s:       Settings{ContaFilters: map[string]FilterSetting{"4315": {FilterColumn: "nope", SumColumn: "credit"}}},
			wantErr: models.ErrUnknownColumn,
		},
		{
			name:    "text sum column",
			s:       Settings{ContaFilters: map[string]FilterSetting{"4315": {FilterColumn: "cont", SumColumn: "explicatie"}}},
			wantErr: models.ErrNotNumeric,
		},
		{
			name: "nested subtract",
			s: Settings{ContaFilters: map[string]FilterSetting{"4315": {
				FilterColumn: "cont", SumColumn: "credit",
				Subtract: &FilterSetting{
					FilterColumn: "explicatie", FilterValue: "storno", SumColumn: "debit",
					Subtract: &FilterSetting{FilterColumn: "cont", SumColumn: "debit"},
				},
			}}},
			wantErr: models.ErrNestedSubtract,
		},
		{
			name: "bad date",
			s:    Settings{StartDate: "2024-01-01"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := reconcile.NewState()
			before := FromState(state)
			err := tt.s.Apply(state)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(before, FromState(state)); diff != "" {
				t.Errorf("failed Apply modified the state (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("accounts: [\"4315\"]\ncolour: blue\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Error("expected an error for an unknown field")
	}
}
