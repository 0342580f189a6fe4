package importer

import (
	"testing"
	"time"

	"github.com/mmdatafocus/imports_backend/models"
)

func TestResolveColumnIndex(t *testing.T) {
	header := []string{"Value Date", "Narration", "Amount"}

	cases := []struct {
		key  string
		want int
	}{
		{"Narration", 1},
		{"narration", 1},
		{" Amount ", 2},
		{"2", 1},
		{"1", 0},
		{"4", -1},
		{"0", -1},
		{"Missing", -1},
		{"", -1},
	}
	for _, tc := range cases {
		if got := ResolveColumnIndex(header, tc.key); got != tc.want {
			t.Fatalf("ResolveColumnIndex(%q) = %d, want %d", tc.key, got, tc.want)
		}
	}

	// headerless exports are mapped with positions only
	if got := ResolveColumnIndex(nil, "7"); got != 6 {
		t.Fatalf("positional key on empty header = %d, want 6", got)
	}
}

func TestParseAmount(t *testing.T) {
	plain := models.ColumnMapping{RemoveThousandSeparators: true}
	parens := models.ColumnMapping{RemoveThousandSeparators: true, NegativeInParentheses: true}
	euro := models.ColumnMapping{DecimalSeparator: ","}

	cases := []struct {
		name    string
		mapping models.ColumnMapping
		in      string
		want    string
		wantErr bool
	}{
		{"empty is zero", plain, "", "0.000", false},
		{"thousand separators stripped", plain, "1,234,567.89", "1234567.890", false},
		{"space separators stripped", plain, "1 234.50", "1234.500", false},
		{"parentheses negative", parens, "(1,500)", "-1500.000", false},
		{"parentheses ignored when disabled", plain, "(1500)", "", true},
		{"comma decimal", euro, "1.234,56", "1234.560", false},
		{"rounds to three places", plain, "10.12345", "10.123", false},
		{"garbage", plain, "abc", "", true},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in, tc.mapping)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error for %q", tc.name, tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: ParseAmount(%q) error: %v", tc.name, tc.in, err)
		}
		if got.StringFixed(3) != tc.want {
			t.Fatalf("%s: ParseAmount(%q) = %s, want %s", tc.name, tc.in, got.StringFixed(3), tc.want)
		}
	}
}

func TestParseRowDate(t *testing.T) {
	got, err := ParseRowDate("25/12/2026", "DD/MM/YYYY")
	if err != nil {
		t.Fatalf("token format parse error: %v", err)
	}
	if got.Day() != 25 || got.Month() != time.December || got.Year() != 2026 {
		t.Fatalf("unexpected date: %v", got)
	}

	got, err = ParseRowDate("25/12/2026 08:30:00", "DD/MM/YYYY HH:mm:SS")
	if err != nil {
		t.Fatalf("datetime token parse error: %v", err)
	}
	if got.Hour() != 8 || got.Minute() != 30 {
		t.Fatalf("unexpected time: %v", got)
	}

	// fallback layouts when the declared format does not match
	if _, err := ParseRowDate("2026-12-25", "DD/MM/YYYY"); err != nil {
		t.Fatalf("ISO fallback failed: %v", err)
	}
	if _, err := ParseRowDate("25-Dec-2026", "DD/MM/YYYY"); err != nil {
		t.Fatalf("named month fallback failed: %v", err)
	}

	if _, err := ParseRowDate("", "DD/MM/YYYY"); err == nil {
		t.Fatal("empty date should error")
	}
	if _, err := ParseRowDate("not a date", "DD/MM/YYYY"); err == nil {
		t.Fatal("garbage date should error")
	}
}

func TestExtractAttendanceId(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"uid=3E1858DE", "3E1858DE"},
		{"UID == 3e1858de", "3E1858DE"},
		{"3e18-58de", "3E1858DE"},
		{"  ", ""},
		{"card uid=ab12cd34 scanned", "AB12CD34"},
	}
	for _, tc := range cases {
		if got := ExtractAttendanceId(tc.in); got != tc.want {
			t.Fatalf("ExtractAttendanceId(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFindUidToken(t *testing.T) {
	row := []string{"2026-01-05 08:00:00", "door-1", "event uid=AB12CD34"}
	if got := FindUidToken(row); got != "AB12CD34" {
		t.Fatalf("FindUidToken = %q", got)
	}
	if got := FindUidToken([]string{"nothing", "here"}); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestRowContainsAny(t *testing.T) {
	row := []string{"01/02/2026", "Opening Balance", "0"}
	if !rowContainsAny(row, []string{"opening balance"}) {
		t.Fatal("case-insensitive term should match")
	}
	if rowContainsAny(row, []string{"closing"}) {
		t.Fatal("unrelated term should not match")
	}
	if rowContainsAny(row, nil) {
		t.Fatal("no terms should never match")
	}
}
