package fileparse

import "testing"

func TestReadCSV_StripsBOMAndToleratesRaggedRows(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b,c\n1,2\n3,4,5,6\n")...)
	rows, err := ReadCSV(content, Options{})
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "a" {
		t.Fatalf("BOM not stripped, first cell is %q", rows[0][0])
	}
	if len(rows[1]) != 2 || len(rows[2]) != 4 {
		t.Fatalf("ragged rows not preserved: %v", rows)
	}
}

func TestReadCSV_CustomDelimiter(t *testing.T) {
	rows, err := ReadCSV([]byte("a;b\n1;2\n"), Options{Delimiter: ";"})
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "2" {
		t.Fatalf("unexpected grid: %v", rows)
	}
}

func TestRead_RejectsUnknownFileType(t *testing.T) {
	if _, err := Read([]byte("x"), "PDF", Options{}); err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

func TestHeaderAndData_SkipSemantics(t *testing.T) {
	grid := [][]string{
		{"Bank Statement Export"},
		{"Date", "Amount"},
		{"01/02/2026", "100"},
		{"02/02/2026", "200"},
	}

	header, data := HeaderAndData(grid, 1)
	if header == nil || header[0] != "Date" {
		t.Fatalf("expected header row at index 1, got %v", header)
	}
	if len(data) != 2 || data[0][0] != "01/02/2026" {
		t.Fatalf("expected 2 data rows after header, got %v", data)
	}

	header, data = HeaderAndData(grid, 0)
	if header[0] != "Bank Statement Export" || len(data) != 3 {
		t.Fatalf("skip=0 should use first row as header: %v / %v", header, data)
	}

	if header, data := HeaderAndData(grid, 10); header != nil || data != nil {
		t.Fatal("skip beyond grid should return nil, nil")
	}
}
