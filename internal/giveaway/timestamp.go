package giveaway

import (
	"slices"
	"time"
)

// EffectiveTime orders catalog entries: generated_at when it parses,
// otherwise the entry date at midnight UTC, otherwise the Unix epoch.
func EffectiveTime(e CatalogEntry) time.Time {
	if e.GeneratedAt != "" {
		if t, err := time.Parse(time.RFC3339, e.GeneratedAt); err == nil {
			return t.UTC()
		}
	}
	if e.Date != "" {
		if t, err := time.ParseInLocation(DateLayout, e.Date, time.UTC); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// SortNewestFirst sorts entries by effective time, most recent first.
// The sort is stable so entries with equal times keep their relative order.
func SortNewestFirst(entries []CatalogEntry) {
	slices.SortStableFunc(entries, func(a, b CatalogEntry) int {
		return EffectiveTime(b).Compare(EffectiveTime(a))
	})
}
