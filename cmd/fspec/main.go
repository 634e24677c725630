// Package main implements the fspec CLI: a dependency-aware work-unit
// tracker driving a spec-first development workflow.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fspec-dev/fspec/internal/config"
	"github.com/fspec-dev/fspec/internal/debug"
	"github.com/fspec-dev/fspec/internal/store"
	"github.com/fspec-dev/fspec/internal/ui"
)

// Version and Build are set at link time.
var (
	Version = "dev"
	Build   = "unknown"
)

// Global flag values
var (
	dirFlag     string
	jsonOutput  bool
	quietFlag   bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "fspec",
	Short: "fspec - dependency-aware work-unit lifecycle engine",
	Long: `Work units chained by dependencies through a spec-first lifecycle.
Tracks blocking relationships, enforces phase-entry guards, and validates
that specification artifacts were produced in the right order.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("fspec version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help() // Help() always returns nil for cobra commands
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			debug.SetVerbose(true)
		}
		if quietFlag || config.GetBool(config.KeyQuiet) {
			debug.SetQuiet(true)
		}
		if config.GetBool(config.KeyNoColor) {
			ui.DisableColor()
		}
		if t := config.GetDuration(config.KeyLockTimeout); t > 0 {
			store.SetLockTimeout(t)
		}
	},
}

func init() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
