package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m3rciful/taxibot/internal/refdata"
)

const sample = `district,streetType,streetName
Київський,вулиця,Сумська
Жовтневий,проспект,Гагаріна
Київський,вулиця,Франка
Ленінський,вулиця,Франка
`

func TestFindDistrict(t *testing.T) {
	c, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		street   string
		district string
	}{
		{"Сумська", "Київський"},
		{"СУМСЬКА", "Київський"},
		{"  гагаріна ", "Жовтневий"},
		{"франка", "Київський"},
	}
	for _, tc := range cases {
		rec, err := c.FindDistrict(tc.street)
		if err != nil {
			t.Fatalf("FindDistrict(%q): %v", tc.street, err)
		}
		if rec.District != tc.district {
			t.Errorf("FindDistrict(%q) = %q, want %q", tc.street, rec.District, tc.district)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestFindDistrictNotFound(t *testing.T) {
	c := New(Record{District: "Київський", StreetType: "вулиця", StreetName: "Сумська"})
	for _, street := range []string{"Шевченка", "", "Сумськ"} {
		if _, err := c.FindDistrict(street); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindDistrict(%q) err = %v, want ErrNotFound", street, err)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	wide := filepath.Join(dir, "wide.csv")
	if err := os.WriteFile(wide, []byte("district,streetType,streetName,extra\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.csv"), empty, wide} {
		_, err := Load(path)
		var le *refdata.LoadError
		if !errors.As(err, &le) {
			t.Errorf("Load(%s) err = %v, want *refdata.LoadError", filepath.Base(path), err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.csv")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.FindDistrict("Сумська"); err != nil {
		t.Fatal(err)
	}
}
