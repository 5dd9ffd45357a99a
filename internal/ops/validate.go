package ops

import (
	"encoding/json"
	"log"
	"path/filepath"
	"sort"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// FileCheck describes one data file that passed validation.
type FileCheck struct {
	File    string `json:"file"`
	Entries int    `json:"entries"`
}

// ValidateOutput contains the result of the Validate operation.
type ValidateOutput struct {
	OK    bool        `json:"ok"`
	Files []FileCheck `json:"files"`
}

// Validate checks every data file. The first problem is returned as a coded
// error naming the file and, where it applies, the index and field.
// Unlike feed rendering, a pick pointing at an unknown id is an error here.
func Validate(layout Layout, cfg *config.Config) (*ValidateOutput, error) {
	paths, err := filepath.Glob(filepath.Join(layout.DataDir, "*.json"))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	sort.Strings(paths)

	counts := make(map[string]int, len(paths))
	for _, p := range paths {
		raw, err := readFile(p)
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, errors.NewInvalidJSON(filepath.Base(p), err)
		}
		if list, ok := v.([]any); ok {
			counts[filepath.Base(p)] = len(list)
		} else {
			counts[filepath.Base(p)] = 1
		}
	}

	refs, err := LoadReferences(layout)
	if err != nil {
		return nil, err
	}

	pick, err := LoadPick(layout)
	if err != nil {
		return nil, err
	}
	if err := giveaway.ValidatePick(giveaway.PicksFile, pick, refs.Software, refs.Games); err != nil {
		return nil, err
	}

	for _, name := range []string{giveaway.CatalogFile, giveaway.HistoryFile} {
		entries, exists, err := loadStore(layout.Data(name), name)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		if err := giveaway.CheckCatalog(name, entries, cfg.RetentionDays); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	output := &ValidateOutput{OK: true, Files: make([]FileCheck, 0, len(names))}
	for _, name := range names {
		output.Files = append(output.Files, FileCheck{File: name, Entries: counts[name]})
	}
	log.Printf("validated %d data files", len(names))

	return output, nil
}
