// Package temporal validates the ordering between recorded state
// transitions and the filesystem timestamps of specification artifacts.
// An artifact modified before the state it is supposed to follow points
// at retroactively fabricated process compliance.
//
// Filesystem mtimes are a coarse proof: resolution varies, clocks skew,
// and some tooling preserves mtimes on copy. The check is deliberately a
// guard rail, not a tamper-proof ledger.
package temporal

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fspec-dev/fspec/internal/debug"
)

// FileType selects which artifact set to scan.
type FileType string

// Artifact file types
const (
	FileTypeFeature FileType = "feature"
	FileTypeTest    FileType = "test"
)

// Violation describes one artifact modified before the state-entry time.
type Violation struct {
	Path       string    `json:"path"`
	ModifiedAt time.Time `json:"modifiedAt"`
	StateEntry time.Time `json:"stateEntry"`
	GapMinutes float64   `json:"gapMinutes"`
}

// OrderingViolation reports every artifact whose modification time
// predates the state transition it should follow.
type OrderingViolation struct {
	ID         string
	FileType   FileType
	Violations []Violation
}

func (e *OrderingViolation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s file(s) for %s were last modified before the work unit entered its current phase:",
		len(e.Violations), e.FileType, e.ID)
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "\n  %s modified %s, state entered %s (%.1f minutes earlier)",
			v.Path,
			v.ModifiedAt.Format(time.RFC3339),
			v.StateEntry.Format(time.RFC3339),
			v.GapMinutes)
	}
	return b.String()
}

// Directories never scanned for artifacts.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
}

// CheckFileCreatedAfter enumerates the candidate artifact files for the
// work unit and compares each file's modification time against the given
// state-entry timestamp. Files modified strictly before it are
// violations; when any exist the returned error is an *OrderingViolation
// listing all of them. Absence of matching files is not a violation;
// other guards cover missing artifacts.
func CheckFileCreatedAfter(id string, after time.Time, fileType FileType, cwd string) error {
	files, err := matchingArtifacts(id, fileType, cwd)
	if err != nil {
		return err
	}

	var violations []Violation
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			// The file matched during the walk; a racing delete is not a
			// temporal violation.
			continue
		}
		mtime := info.ModTime()
		if mtime.Before(after) {
			violations = append(violations, Violation{
				Path:       path,
				ModifiedAt: mtime,
				StateEntry: after,
				GapMinutes: after.Sub(mtime).Minutes(),
			})
		}
	}

	if len(violations) > 0 {
		return &OrderingViolation{ID: id, FileType: fileType, Violations: violations}
	}
	debug.Logf("temporal check passed for %s: %d %s file(s) modified after %s\n",
		id, len(files), fileType, after.Format(time.RFC3339))
	return nil
}

// matchingArtifacts walks cwd and collects the artifact files that
// reference the work unit: feature files carrying the @id tag, or
// test-convention files containing the id (or its tag form).
func matchingArtifacts(id string, fileType FileType, cwd string) ([]string, error) {
	var matches []string

	err := filepath.WalkDir(cwd, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && d.Name() != "." && path != cwd) {
				return filepath.SkipDir
			}
			return nil
		}

		switch fileType {
		case FileTypeFeature:
			if !strings.HasSuffix(d.Name(), ".feature") {
				return nil
			}
		case FileTypeTest:
			if !isTestFile(d.Name()) {
				return nil
			}
		default:
			return fmt.Errorf("unknown artifact file type: %s", fileType)
		}

		data, readErr := os.ReadFile(path) // #nosec G304 - path produced by the walk
		if readErr != nil {
			return nil // unreadable files are not candidates
		}
		content := string(data)
		if fileType == FileTypeFeature {
			if strings.Contains(content, "@"+id) {
				matches = append(matches, path)
			}
			return nil
		}
		if strings.Contains(content, id) || strings.Contains(content, "@"+id) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s for %s files: %w", cwd, fileType, err)
	}
	return matches, nil
}

// isTestFile reports whether the file name follows a recognized test
// convention across the ecosystems agents commonly generate for.
func isTestFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "_test.go") || strings.HasSuffix(lower, "_test.py") {
		return true
	}
	if strings.HasPrefix(lower, "test_") {
		return true
	}
	for _, marker := range []string{".test.", ".spec.", "_spec."} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
