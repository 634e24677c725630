package coverage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCoverage(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

const sample = `{
  "feature": "login",
  "scenarios": [
    {
      "name": "valid credentials",
      "workUnitIds": ["AUTH-001"],
      "testMappings": [
        {"file": "login_test.go", "implMappings": ["login.go"]}
      ]
    },
    {
      "name": "locked account",
      "workUnitIds": ["AUTH-001"],
      "testMappings": [
        {"file": "lockout_test.go"}
      ]
    },
    {
      "name": "other unit scenario",
      "workUnitIds": ["AUTH-002"],
      "testMappings": []
    }
  ]
}`

func TestScenariosForFiltersByWorkUnit(t *testing.T) {
	dir := t.TempDir()
	writeCoverage(t, filepath.Join(dir, "features", "login.feature.coverage.json"), sample)

	scenarios, err := ScenariosFor(dir, "AUTH-001")
	if err != nil {
		t.Fatalf("ScenariosFor: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("scenarios = %d, want 2", len(scenarios))
	}
}

func TestUncoveredRequiresImplMapping(t *testing.T) {
	dir := t.TempDir()
	writeCoverage(t, filepath.Join(dir, "login.feature.coverage.json"), sample)

	missing, err := Uncovered(dir, "AUTH-001")
	if err != nil {
		t.Fatalf("Uncovered: %v", err)
	}
	// "locked account" has a test mapping but no implementation mapping.
	if len(missing) != 1 || missing[0] != "locked account" {
		t.Errorf("missing = %v, want [locked account]", missing)
	}
}

func TestUncoveredEmptyTree(t *testing.T) {
	missing, err := Uncovered(filepath.Join(t.TempDir(), "nope"), "AUTH-001")
	if err != nil {
		t.Fatalf("Uncovered on missing tree: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
}

func TestCorruptCoverageFileSurfaces(t *testing.T) {
	dir := t.TempDir()
	writeCoverage(t, filepath.Join(dir, "bad.coverage.json"), "{broken")

	if _, err := Uncovered(dir, "AUTH-001"); err == nil {
		t.Fatal("corrupt coverage file did not surface an error")
	}
}
