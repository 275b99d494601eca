package runs

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// LoadGlob reads every persisted run record matching the pattern and
// normalizes it. Files that fail to decode or lack mandatory fields are
// skipped with a log line; one bad file never aborts a run-set load.
func LoadGlob(pattern string, combineComposite bool) ([]Run, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	out := make([]Run, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		run, ok := LoadFile(path, combineComposite)
		if !ok {
			continue
		}
		out = append(out, run)
	}
	return out, nil
}

// LoadFile reads and normalizes one record; ok is false for anything
// non-conforming.
func LoadFile(path string, combineComposite bool) (Run, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Printf("runs: read %s: %v", path, err)
		return Run{}, false
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		log.Printf("runs: decode %s: %v", path, err)
		return Run{}, false
	}
	run, ok := Normalize(rec, combineComposite)
	if !ok {
		log.Printf("runs: %s is missing mandatory fields, skipped", path)
	}
	return run, ok
}
