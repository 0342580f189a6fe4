package importer

import (
	"testing"
	"time"
)

func previewRows(n int) []*CanonicalRow {
	base := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	rows := make([]*CanonicalRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, &CanonicalRow{
			NaturalKey: string(rune('a' + i)),
			OrderKey:   base.Add(time.Duration(i) * time.Minute),
			Ready:      i%2 == 0,
		})
	}
	return rows
}

func TestPaginateRows_Windows(t *testing.T) {
	rows := previewRows(10)

	page := paginateRows(rows, 0, 3, "asc")
	if page.Total != 10 || page.Ready != 5 {
		t.Fatalf("totals: %+v", page)
	}
	if len(page.Rows) != 3 || page.Rows[0].NaturalKey != "a" {
		t.Fatalf("first window: %v", page.Rows)
	}

	page = paginateRows(rows, 8, 5, "asc")
	if len(page.Rows) != 2 || page.Rows[0].NaturalKey != "i" {
		t.Fatalf("tail window clamps: %v", page.Rows)
	}

	page = paginateRows(rows, 50, 5, "asc")
	if len(page.Rows) != 0 {
		t.Fatalf("offset past end returns empty window: %v", page.Rows)
	}
}

func TestPaginateRows_DescendingOrder(t *testing.T) {
	rows := previewRows(4)
	page := paginateRows(rows, 0, 2, "desc")
	if page.Rows[0].NaturalKey != "d" || page.Rows[1].NaturalKey != "c" {
		t.Fatalf("descending window: %v", page.Rows)
	}
	// the input slice must stay untouched
	if rows[0].NaturalKey != "a" {
		t.Fatal("paginate mutated its input")
	}
}

func TestPaginateRows_LimitDefaultsAndCaps(t *testing.T) {
	rows := previewRows(3)
	page := paginateRows(rows, 0, 0, "asc")
	if page.Limit != previewDefaultLimit {
		t.Fatalf("default limit: %d", page.Limit)
	}
	page = paginateRows(rows, 0, 10000, "asc")
	if page.Limit != previewMaxLimit {
		t.Fatalf("limit cap: %d", page.Limit)
	}
	page = paginateRows(rows, -5, 2, "asc")
	if page.Offset != 0 {
		t.Fatalf("negative offset clamps to 0, got %d", page.Offset)
	}
}
