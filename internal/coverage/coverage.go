// Package coverage reads the scenario coverage sidecar files that map
// Gherkin scenarios to test files and implementation files. The engine
// only consumes these mappings for the validating-entry guard; the files
// themselves are maintained by collaborator tooling.
package coverage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSuffix is the naming convention for coverage sidecar files.
const FileSuffix = ".coverage.json"

// Document is one coverage sidecar file.
type Document struct {
	Feature   string     `json:"feature"`
	Scenarios []Scenario `json:"scenarios"`
}

// Scenario maps one Gherkin scenario to its tests and implementations.
type Scenario struct {
	Name         string        `json:"name"`
	WorkUnitIDs  []string      `json:"workUnitIds,omitempty"`
	TestMappings []TestMapping `json:"testMappings,omitempty"`
}

// TestMapping links a scenario to a test file and the implementation
// files that test exercises.
type TestMapping struct {
	File         string   `json:"file"`
	ImplMappings []string `json:"implMappings,omitempty"`
}

// Covered reports whether the scenario has at least one test mapping
// that carries at least one implementation mapping.
func (s *Scenario) Covered() bool {
	for _, tm := range s.TestMappings {
		if len(tm.ImplMappings) > 0 {
			return true
		}
	}
	return false
}

// TaggedFor reports whether the scenario belongs to the work unit.
func (s *Scenario) TaggedFor(id string) bool {
	for _, u := range s.WorkUnitIDs {
		if u == id {
			return true
		}
	}
	return false
}

// ScenariosFor loads every coverage document under root and returns the
// scenarios tagged for the work unit.
func ScenariosFor(root, id string) ([]Scenario, error) {
	var out []Scenario
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipAll // no spec tree yet means no scenarios
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), FileSuffix) {
			return nil
		}

		data, readErr := os.ReadFile(path) // #nosec G304 - path produced by the walk
		if readErr != nil {
			return fmt.Errorf("reading coverage file %s: %w", path, readErr)
		}
		var doc Document
		if jsonErr := json.Unmarshal(data, &doc); jsonErr != nil {
			return fmt.Errorf("coverage file %s is corrupt: %w", path, jsonErr)
		}
		for _, sc := range doc.Scenarios {
			if sc.TaggedFor(id) {
				out = append(out, sc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Uncovered returns the names of the scenarios tagged for the work unit
// that lack an implementation-file mapping.
func Uncovered(root, id string) ([]string, error) {
	scenarios, err := ScenariosFor(root, id)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, sc := range scenarios {
		if !sc.Covered() {
			missing = append(missing, sc.Name)
		}
	}
	return missing, nil
}
