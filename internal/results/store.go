// Package results persists one record per completed job. Records are
// write-only from this system's perspective; reading them back is an
// operator concern.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Record is the persisted outcome of one completed run.
type Record struct {
	JobID         string         `json:"job_id"`
	Backend       string         `json:"backend"`
	Counts        map[string]int `json:"counts"`
	Fidelity      float64        `json:"fidelity"`
	TotalShots    int            `json:"total_shots"`
	ExpectedState string         `json:"expected_state"`
}

// Store writes records under one directory, one file per job id.
type Store struct {
	Dir string
}

// Write persists the record as grover_result_<jobid>.json. Rewriting the
// same job id is idempotent; distinct job ids never share a file.
func (s Store) Write(rec Record) (string, error) {
	if strings.TrimSpace(rec.JobID) == "" {
		return "", fmt.Errorf("results: record missing job id")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("results: create dir %q: %w", s.Dir, err)
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("results: encode record for %s: %w", rec.JobID, err)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("grover_result_%s.json", sanitize(rec.JobID)))
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("results: write %q: %w", path, err)
	}
	return path, nil
}

// sanitize keeps job ids filesystem-safe without changing distinctness for
// the identifiers the service actually issues.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}
