package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fspec-dev/fspec/internal/config"
	"github.com/fspec-dev/fspec/internal/types"
)

// projectDir resolves the project root from --dir or the working
// directory.
func projectDir() string {
	if dirFlag != "" {
		return dirFlag
	}
	wd, err := os.Getwd()
	if err != nil {
		fatalf("Error resolving working directory: %v\n", err)
	}
	return wd
}

// specDir is the spec tree holding feature files and coverage sidecars.
func specDir() string {
	return filepath.Join(projectDir(), config.GetString(config.KeySpecDir))
}

// workUnitsPath is the persisted document all commands transact on.
func workUnitsPath() string {
	return filepath.Join(specDir(), "work-units.json")
}

// newDocument seeds an empty document for first use.
func newDocument() *types.WorkUnitsData {
	return types.NewWorkUnitsData()
}

// fatalf prints to stderr and exits 1. Every command failure funnels
// through here so the exit contract stays uniform.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("Error marshaling output: %v\n", err)
	}
	fmt.Println(string(data))
}

// emptyIfNil keeps JSON output keys present as [] instead of null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
