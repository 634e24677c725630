package temporal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFileWithMtime(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestFeatureFileModifiedBeforeStateEntryIsViolation(t *testing.T) {
	dir := t.TempDir()
	entered := time.Now().Add(-time.Hour)
	stale := entered.Add(-30 * time.Minute)

	writeFileWithMtime(t, filepath.Join(dir, "spec", "auth.feature"),
		"@AUTH-001\nFeature: Login\n", stale)

	err := CheckFileCreatedAfter("AUTH-001", entered, FileTypeFeature, dir)
	var ov *OrderingViolation
	if !errors.As(err, &ov) {
		t.Fatalf("error = %v, want *OrderingViolation", err)
	}
	if len(ov.Violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(ov.Violations))
	}
	v := ov.Violations[0]
	if v.GapMinutes < 29 || v.GapMinutes > 31 {
		t.Errorf("GapMinutes = %f, want ~30", v.GapMinutes)
	}
	msg := ov.Error()
	for _, want := range []string{"auth.feature", "minutes earlier"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestFeatureFileModifiedAfterStateEntryPasses(t *testing.T) {
	dir := t.TempDir()
	entered := time.Now().Add(-time.Hour)

	writeFileWithMtime(t, filepath.Join(dir, "spec", "auth.feature"),
		"@AUTH-001\nFeature: Login\n", entered.Add(10*time.Minute))

	if err := CheckFileCreatedAfter("AUTH-001", entered, FileTypeFeature, dir); err != nil {
		t.Errorf("CheckFileCreatedAfter = %v, want nil", err)
	}
}

func TestUntaggedFeatureFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	entered := time.Now()

	// Stale, but tagged for a different unit.
	writeFileWithMtime(t, filepath.Join(dir, "spec", "other.feature"),
		"@OTHER-001\nFeature: Other\n", entered.Add(-time.Hour))

	if err := CheckFileCreatedAfter("AUTH-001", entered, FileTypeFeature, dir); err != nil {
		t.Errorf("CheckFileCreatedAfter = %v, want nil", err)
	}
}

func TestNoMatchingFilesIsNotAViolation(t *testing.T) {
	dir := t.TempDir()
	if err := CheckFileCreatedAfter("AUTH-001", time.Now(), FileTypeFeature, dir); err != nil {
		t.Errorf("CheckFileCreatedAfter on empty tree = %v, want nil", err)
	}
}

func TestTestFileMatchingByIDReference(t *testing.T) {
	dir := t.TempDir()
	entered := time.Now().Add(-time.Hour)
	stale := entered.Add(-5 * time.Minute)

	writeFileWithMtime(t, filepath.Join(dir, "src", "login_test.go"),
		"// covers AUTH-001\npackage src\n", stale)
	// Non-test files containing the id are not candidates.
	writeFileWithMtime(t, filepath.Join(dir, "src", "login.go"),
		"// implements AUTH-001\npackage src\n", stale)

	err := CheckFileCreatedAfter("AUTH-001", entered, FileTypeTest, dir)
	var ov *OrderingViolation
	if !errors.As(err, &ov) {
		t.Fatalf("error = %v, want *OrderingViolation", err)
	}
	if len(ov.Violations) != 1 {
		t.Fatalf("violations = %v, want only the test file", ov.Violations)
	}
	if !strings.HasSuffix(ov.Violations[0].Path, "login_test.go") {
		t.Errorf("violation path = %s, want login_test.go", ov.Violations[0].Path)
	}
}

func TestIsTestFileConventions(t *testing.T) {
	cases := map[string]bool{
		"login_test.go":      true,
		"test_login.py":      true,
		"login.test.ts":      true,
		"login.spec.js":      true,
		"login_spec.rb":      true,
		"login.go":           false,
		"testdata.json":      false,
		"contest_results.md": false,
	}
	for name, want := range cases {
		if got := isTestFile(name); got != want {
			t.Errorf("isTestFile(%q) = %v, want %v", name, got, want)
		}
	}
}
