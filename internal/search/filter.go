package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/baptism-gallery/internal/database"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Conceição" -> "Conceicao").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Normalize lowercases s and strips diacritics for comparison.
func Normalize(s string) string {
	return strings.ToLower(RemoveDiacritics(strings.TrimSpace(s)))
}

// Matches reports whether the record's description, AI description or any
// tag contains query, ignoring case and accents.
func Matches(rec *database.MediaRecord, query string) bool {
	q := Normalize(query)
	if q == "" {
		return true
	}
	if strings.Contains(Normalize(rec.Description), q) || strings.Contains(Normalize(rec.AIDescription), q) {
		return true
	}
	for _, tag := range rec.Tags {
		if strings.Contains(Normalize(tag), q) {
			return true
		}
	}
	return false
}

// FilterByText keeps the records matching query. An empty query keeps all.
func FilterByText(records []database.MediaRecord, query string) []database.MediaRecord {
	if Normalize(query) == "" {
		return records
	}
	out := []database.MediaRecord{}
	for i := range records {
		if Matches(&records[i], query) {
			out = append(out, records[i])
		}
	}
	return out
}

// FilterEvents keeps events whose title or description contains query.
func FilterEvents(events []database.EventSummary, query string) []database.EventSummary {
	q := Normalize(query)
	if q == "" {
		return events
	}
	out := []database.EventSummary{}
	for _, e := range events {
		if strings.Contains(Normalize(e.Title), q) || strings.Contains(Normalize(e.Description), q) {
			out = append(out, e)
		}
	}
	return out
}
