package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fspec-dev/fspec/internal/lifecycle"
	"github.com/fspec-dev/fspec/internal/store"
	"github.com/fspec-dev/fspec/internal/types"
	"github.com/fspec-dev/fspec/internal/ui"
)

var updateStatusCmd = &cobra.Command{
	Use:   "update-work-unit-status [id] [status]",
	Short: "Move a work unit to a new lifecycle status",
	Long: `Runs the phase-entry guards for the target status and, when they
pass, records the transition in the work unit's state history. Guard
failures leave the document untouched and exit 1.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		skipTemporal, _ := cmd.Flags().GetBool("skip-temporal-validation")
		target := types.Status(args[1])

		opts := lifecycle.Options{
			SkipTemporalValidation: skipTemporal,
			Cwd:                    projectDir(),
			SpecDir:                specDir(),
		}

		var res *lifecycle.Result
		_, err := store.Transaction(workUnitsPath(), nil, func(d *types.WorkUnitsData) error {
			var terr error
			res, terr = lifecycle.Transition(d, args[0], target, opts)
			return terr
		})
		if err != nil {
			fatalf("Error updating status: %v\n", err)
		}

		if jsonOutput {
			printJSON(res)
			return
		}
		if res.NoOp {
			fmt.Printf("%s is already %s\n", args[0], ui.RenderStatus(target))
			return
		}
		fmt.Printf("%s: %s -> %s\n", args[0], ui.RenderStatus(res.From), ui.RenderStatus(res.To))

		if block := lifecycle.FormatReminderBlock(lifecycle.Reminders(res)); block != "" && !quietFlag {
			fmt.Println(block)
		}
	},
}

func init() {
	updateStatusCmd.Flags().Bool("skip-temporal-validation", false,
		"Bypass the artifact mtime ordering checks")
	rootCmd.AddCommand(updateStatusCmd)
}
