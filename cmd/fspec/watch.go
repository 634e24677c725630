package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fspec-dev/fspec/internal/store"
	"github.com/fspec-dev/fspec/internal/types"
	"github.com/fspec-dev/fspec/internal/ui"
	"github.com/fspec-dev/fspec/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the work-units document and print changes",
	Long: `Tails the work-units document: whenever another process commits a
change, re-reads it and prints the per-status counts. Read-only; exits on
Ctrl+C.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := workUnitsPath()
		refresh := func() {
			doc, err := store.Read[types.WorkUnitsData](path, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error refreshing work units: %v\n", err)
				return
			}
			fmt.Printf("%s  %d work units\n",
				doc.Meta.LastUpdated.Format("15:04:05"), len(doc.WorkUnits))
			for _, s := range types.AllStatuses {
				if n := len(doc.States[s]); n > 0 {
					fmt.Printf("  %s %d\n", ui.RenderStatus(s), n)
				}
			}
		}

		refresh()
		fmt.Fprintf(os.Stderr, "\nWatching for changes... (Press Ctrl+C to exit)\n")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		w := watch.New(path, refresh, func(err error) {
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		})
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fatalf("Error watching: %v\n", err)
		}
		fmt.Fprintf(os.Stderr, "\nStopped watching.\n")
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
