package grades

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"gradestats-server-go/models"
)

// GradeColumnSynonyms are the header names recognized as the grade column,
// compared after FoldName.
var GradeColumnSynonyms = []string{"media", "medie", "nota finala", "nota_finala", "note"}

// StripDiacritics removes combining marks, so "Notă" becomes "Nota".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldName is the comparison key for header names and status labels:
// trimmed, lower case, without diacritics.
func FoldName(s string) string {
	return strings.ToLower(StripDiacritics(strings.TrimSpace(s)))
}

func isGradeSynonym(name string) bool {
	folded := FoldName(name)
	for _, syn := range GradeColumnSynonyms {
		if folded == syn {
			return true
		}
	}
	return false
}

// gradeColumnIndex picks the grade column: one already named like
// models.GradeColumn if present, otherwise the first synonym in header order.
func gradeColumnIndex(columns []string) int {
	canonical := FoldName(models.GradeColumn)
	idx := -1
	for i, name := range columns {
		if FoldName(name) == canonical {
			return i
		}
		if idx < 0 && isGradeSynonym(name) {
			idx = i
		}
	}
	return idx
}

// NormalizeColumns renames the grade column to models.GradeColumn, so the
// result has exactly one column by that name. The input table is not
// modified. Without a match it returns a *MissingColumnError listing every
// detected column.
func NormalizeColumns(t *models.Table) (*models.Table, error) {
	idx := gradeColumnIndex(t.Columns)
	if idx < 0 {
		detected := make([]string, len(t.Columns))
		copy(detected, t.Columns)
		return nil, &MissingColumnError{Detected: detected}
	}

	out := *t
	out.Columns = make([]string, len(t.Columns))
	copy(out.Columns, t.Columns)
	out.Columns[idx] = models.GradeColumn
	return &out, nil
}
