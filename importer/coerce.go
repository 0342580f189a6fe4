package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/imports_backend/models"
	"github.com/mmdatafocus/imports_backend/utils"
)

// moneyPlaces is the fixed precision money values are compared and displayed
// at, to avoid reconciliation drift from binary floats.
const moneyPlaces = 3

// ResolveColumnIndex maps a mapping key to a zero-based column index. The key
// can be a header label (case-insensitive) or a 1-based position, so headerless
// exports can be mapped with plain numbers. Returns -1 when unresolvable.
func ResolveColumnIndex(header []string, key string) int {
	key = strings.TrimSpace(key)
	if key == "" {
		return -1
	}
	if n, err := strconv.Atoi(key); err == nil {
		idx := n - 1
		if idx >= 0 && (len(header) == 0 || idx < len(header)) {
			return idx
		}
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			return i
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseAmount coerces a raw cell to a decimal at 3 places, honoring the
// mapping's separator settings and parentheses negatives. Empty cells are
// zero, matching bank exports that leave the unused credit/debit side blank.
func ParseAmount(raw string, m models.ColumnMapping) (decimal.Decimal, error) {
	txt := strings.TrimSpace(raw)
	if txt == "" {
		return decimal.Zero, nil
	}

	neg := false
	if m.NegativeInParentheses && strings.HasPrefix(txt, "(") && strings.HasSuffix(txt, ")") {
		neg = true
		txt = txt[1 : len(txt)-1]
	}
	if m.RemoveThousandSeparators {
		txt = strings.ReplaceAll(txt, ",", "")
		txt = strings.ReplaceAll(txt, " ", "")
	}
	if strings.TrimSpace(m.DecimalSeparator) == "," {
		txt = strings.ReplaceAll(txt, ".", "")
		txt = strings.ReplaceAll(txt, ",", ".")
	}

	val, err := utils.ParseDecimal(txt)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed amount %q", raw)
	}
	if neg {
		val = val.Neg()
	}
	return val.Round(moneyPlaces), nil
}

// dateFormatTokens converts a DD/MM/YYYY-style token format to a Go layout.
var dateTokenReplacer = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"hh", "15",
	"mm", "04",
	"SS", "05",
	"ss", "05",
)

// dateFallbackLayouts covers common bank and device exports tried after the
// mapping's declared format.
var dateFallbackLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"01-02-2006",
	"02/01/2006",
	"01/02/2006",
	"02-Jan-2006",
	"02 Jan 2006",
	"02 January 2006",
	"2006/01/02",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseRowDate parses a raw cell using the declared token format first, then
// the fallback layouts.
func ParseRowDate(raw string, tokenFormat string) (time.Time, error) {
	txt := strings.TrimSpace(raw)
	if txt == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	format := strings.TrimSpace(tokenFormat)
	if format == "" {
		format = "DD/MM/YYYY"
	}
	layout := dateTokenReplacer.Replace(format)
	if t, err := time.Parse(layout, txt); err == nil {
		return t, nil
	}

	for _, candidate := range dateFallbackLayouts {
		if t, err := time.Parse(candidate, txt); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q (expected like %s)", raw, format)
}

var uidTokenRe = regexp.MustCompile(`(?i)uid\s*={1,2}\s*([0-9A-Fa-f]+)`)

// ExtractAttendanceId pulls a clean attendance device id from strings like
// "uid=3E1858DE" or plain "3E1858DE". Returns "" when nothing usable remains.
func ExtractAttendanceId(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if m := uidTokenRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return models.NormalizeAttendanceDeviceId(s)
}

// FindUidToken searches all cells of a row for a "uid=value" token.
func FindUidToken(row []string) string {
	for _, cell := range row {
		if cell == "" {
			continue
		}
		if m := uidTokenRe.FindStringSubmatch(cell); m != nil {
			return m[1]
		}
	}
	return ""
}

// rowContainsAny reports whether any cell contains any of the terms,
// case-insensitively. Used for the ignore-rows filter.
func rowContainsAny(row []string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, cell := range row {
		lc := strings.ToLower(cell)
		for _, term := range terms {
			if term != "" && strings.Contains(lc, strings.ToLower(term)) {
				return true
			}
		}
	}
	return false
}
