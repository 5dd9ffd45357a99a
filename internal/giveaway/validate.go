package giveaway

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/zlormann/giveaway-linux/internal/errors"
)

// requiredItemFields are the keys every reference item must carry as non-blank strings.
var requiredItemFields = []string{"id", "name", "url"}

// requiredPickFields are the keys picks.json must carry as non-blank strings.
var requiredPickFields = []string{"date", "software_id", "game_id"}

// ValidateReferences checks a raw software.json / games.json document and decodes it.
// The first violation is returned, naming the file, the item index and the field.
func ValidateReferences(file string, raw []byte) ([]ReferenceItem, error) {
	elems, err := decodeList(file, raw)
	if err != nil {
		return nil, err
	}

	items := make([]ReferenceItem, 0, len(elems))
	seen := make(map[string]bool, len(elems))

	for i, elem := range elems {
		obj, err := decodeObject(file, i, elem)
		if err != nil {
			return nil, err
		}

		for _, k := range requiredItemFields {
			if !isNonBlankString(obj[k]) {
				return nil, errors.NewSchemaViolation(file, i, k, fmt.Sprintf("missing/invalid '%s'", k))
			}
		}

		rawURL := obj["url"].(string)
		if !strings.HasPrefix(rawURL, "http") {
			return nil, errors.NewSchemaViolation(file, i, "url", "url must start with http")
		}
		if u, err := url.Parse(rawURL); err != nil || u.Host == "" {
			return nil, errors.NewSchemaViolation(file, i, "url", fmt.Sprintf("url %q is not an absolute URL", rawURL))
		}

		id := obj["id"].(string)
		if seen[id] {
			return nil, errors.NewSchemaViolation(file, i, "id", fmt.Sprintf("duplicate id '%s'", id))
		}
		seen[id] = true

		var item ReferenceItem
		if err := json.Unmarshal(elem, &item); err != nil {
			return nil, errors.NewSchemaViolation(file, i, "", err.Error())
		}
		items = append(items, item)
	}

	return items, nil
}

// DecodeReferences decodes a reference list for rendering. Malformed JSON or a
// document that is not a list is an error. Elements without a usable id are
// skipped; a blank name or a url that is not http(s) is cleared so rendering
// falls back to placeholders. Each problem is returned as a warning.
func DecodeReferences(file string, raw []byte) ([]ReferenceItem, []string, error) {
	elems, err := decodeList(file, raw)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	warn := func(i int, format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf("%s[%d]: ", file, i)+fmt.Sprintf(format, args...))
	}

	items := make([]ReferenceItem, 0, len(elems))
	seen := make(map[string]bool, len(elems))
	for i, elem := range elems {
		var item ReferenceItem
		if err := json.Unmarshal(elem, &item); err != nil {
			warn(i, "skipped: not a reference object")
			continue
		}
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			warn(i, "skipped: missing/invalid 'id'")
			continue
		}
		if seen[item.ID] {
			warn(i, "skipped: duplicate id '%s'", item.ID)
			continue
		}
		seen[item.ID] = true

		if strings.TrimSpace(item.Name) == "" {
			warn(i, "missing/invalid 'name', using placeholder")
			item.Name = ""
		}
		if !strings.HasPrefix(item.URL, "http") {
			warn(i, "missing/invalid 'url', using site URL")
			item.URL = ""
		}
		items = append(items, item)
	}
	return items, warnings, nil
}

// RequireNonEmpty fails when a reference list has nothing to pick from.
func RequireNonEmpty(file string, items []ReferenceItem) error {
	if len(items) == 0 {
		return errors.NewSchemaViolation(file, -1, "", "must contain at least one item")
	}
	return nil
}

// DecodePick checks a raw picks.json document and decodes it.
// Field presence is checked here; references are checked by ValidatePick.
func DecodePick(file string, raw []byte) (Pick, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		if !json.Valid(raw) {
			return Pick{}, errors.NewInvalidJSON(file, err)
		}
		return Pick{}, errors.NewSchemaViolation(file, -1, "", "must be a JSON object")
	}
	if obj == nil {
		return Pick{}, errors.NewSchemaViolation(file, -1, "", "must be a JSON object")
	}

	for _, k := range requiredPickFields {
		if !isNonBlankString(obj[k]) {
			return Pick{}, errors.NewSchemaViolation(file, -1, k, fmt.Sprintf("missing/invalid '%s'", k))
		}
	}

	var p Pick
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pick{}, errors.NewSchemaViolation(file, -1, "", err.Error())
	}
	if _, err := time.Parse(DateLayout, p.Date); err != nil {
		return Pick{}, errors.NewSchemaViolation(file, -1, "date", fmt.Sprintf("date %q must be YYYY-MM-DD", p.Date))
	}
	return p, nil
}

// ValidatePick checks that both ids of p resolve against the reference lists.
func ValidatePick(file string, p Pick, software, games []ReferenceItem) error {
	if _, ok := Index(software)[p.SoftwareID]; !ok {
		return errors.NewDanglingReference(file, "software_id", p.SoftwareID, SoftwareFile)
	}
	if _, ok := Index(games)[p.GameID]; !ok {
		return errors.NewDanglingReference(file, "game_id", p.GameID, GamesFile)
	}
	return nil
}

// DecodeCatalog decodes catalog.json / history.json. The document must be a list
// of objects; individual entries are not otherwise checked (see CheckCatalog).
func DecodeCatalog(file string, raw []byte) ([]CatalogEntry, error) {
	elems, err := decodeList(file, raw)
	if err != nil {
		return nil, err
	}

	entries := make([]CatalogEntry, 0, len(elems))
	for i, elem := range elems {
		if _, err := decodeObject(file, i, elem); err != nil {
			return nil, err
		}
		var e CatalogEntry
		if err := json.Unmarshal(elem, &e); err != nil {
			return nil, errors.NewSchemaViolation(file, i, "", err.Error())
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CheckCatalog enforces the store invariants on decoded entries:
// every entry dated, one entry per date, at most retention entries.
func CheckCatalog(file string, entries []CatalogEntry, retention int) error {
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Date) == "" {
			return errors.NewSchemaViolation(file, i, "date", "missing/invalid 'date'")
		}
		if first, dup := seen[e.Date]; dup {
			return errors.NewSchemaViolation(file, i, "date", fmt.Sprintf("duplicate date '%s' (first at index %d)", e.Date, first))
		}
		seen[e.Date] = i
	}
	if retention > 0 && len(entries) > retention {
		return errors.NewSchemaViolation(file, -1, "", fmt.Sprintf("holds %d entries, retention is %d", len(entries), retention))
	}
	return nil
}

// decodeList splits a raw JSON list into its elements.
func decodeList(file string, raw []byte) ([]json.RawMessage, error) {
	if !json.Valid(raw) {
		var probe any
		return nil, errors.NewInvalidJSON(file, json.Unmarshal(raw, &probe))
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return nil, errors.NewSchemaViolation(file, -1, "", "must be a JSON list")
	}
	return elems, nil
}

// decodeObject decodes a list element as a JSON object.
func decodeObject(file string, index int, elem json.RawMessage) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(elem, &obj); err != nil || obj == nil {
		return nil, errors.NewSchemaViolation(file, index, "", "must be an object")
	}
	return obj, nil
}

func isNonBlankString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}
