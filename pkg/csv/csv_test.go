package csv

import (
	"strings"
	"testing"
)

type line []string

func (l line) Values() []string { return l }

func TestCreate(t *testing.T) {
	records := []line{
		{"05/01/2024", "Plata, TVA", "100"},
		{"06/01/2024", "Storno", "-30"},
	}

	got, err := Create([]string{"Data", "Explicatie", "Suma"}, records, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "Data,Explicatie,Suma\n05/01/2024,\"Plata, TVA\",100\n06/01/2024,Storno,-30\n"
	if string(got) != want {
		t.Errorf("Create =\n%s\nwant\n%s", got, want)
	}

	filtered, err := Create([]string{"Data"}, records, func(l line) bool { return !strings.HasPrefix(l[2], "-") })
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(filtered), "Storno") {
		t.Errorf("filter not applied:\n%s", filtered)
	}
}
