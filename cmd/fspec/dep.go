package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fspec-dev/fspec/internal/graph"
	"github.com/fspec-dev/fspec/internal/store"
	"github.com/fspec-dev/fspec/internal/types"
	"github.com/fspec-dev/fspec/internal/ui"
)

// relationshipFlagNames maps the CLI flag spelling to the relationship
// kind it selects.
var relationshipFlagNames = []struct {
	flag string
	kind types.RelationshipType
}{
	{"blocks", types.RelBlocks},
	{"blocked-by", types.RelBlockedBy},
	{"depends-on", types.RelDependsOn},
	{"relates-to", types.RelRelatesTo},
}

// relationshipFlags reads the four mutually exclusive relationship
// flags and returns the selected kind and target id.
func relationshipFlags(cmd *cobra.Command) (types.RelationshipType, string, error) {
	var kind types.RelationshipType
	var target string
	count := 0
	for _, rf := range relationshipFlagNames {
		val, _ := cmd.Flags().GetString(rf.flag)
		if val != "" {
			kind = rf.kind
			target = val
			count++
		}
	}
	if count != 1 {
		return "", "", fmt.Errorf("exactly one of --blocks, --blocked-by, --depends-on, --relates-to is required")
	}
	return kind, target, nil
}

func addRelationshipFlags(cmd *cobra.Command) {
	for _, rf := range relationshipFlagNames {
		cmd.Flags().String(rf.flag, "", fmt.Sprintf("Target work unit for a %s relationship", rf.kind))
	}
}

var addDependencyCmd = &cobra.Command{
	Use:   "add-dependency [id]",
	Short: "Add a dependency relationship between two work units",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind, target, err := relationshipFlags(cmd)
		if err != nil {
			fatalf("Error: %v\n", err)
		}

		doc, err := store.Transaction(workUnitsPath(), nil, func(d *types.WorkUnitsData) error {
			return graph.AddRelationship(d, args[0], target, kind)
		})
		if err != nil {
			fatalf("Error adding dependency: %v\n", err)
		}

		if jsonOutput {
			printJSON(map[string]string{"from": args[0], "to": target, "type": string(kind)})
			return
		}
		fmt.Printf("Added %s %s %s\n", args[0], kind, target)
		if u := doc.Get(args[0]); u != nil && u.Status == types.StatusBlocked && kind == types.RelBlockedBy {
			fmt.Printf("%s is now %s\n", args[0], ui.RenderStatus(types.StatusBlocked))
		}
		if u := doc.Get(target); u != nil && u.Status == types.StatusBlocked && kind == types.RelBlocks {
			fmt.Printf("%s is now %s\n", target, ui.RenderStatus(types.StatusBlocked))
		}
	},
}

var removeDependencyCmd = &cobra.Command{
	Use:   "remove-dependency [id]",
	Short: "Remove a dependency relationship",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind, target, err := relationshipFlags(cmd)
		if err != nil {
			fatalf("Error: %v\n", err)
		}

		_, err = store.Transaction(workUnitsPath(), nil, func(d *types.WorkUnitsData) error {
			return graph.RemoveRelationship(d, args[0], target, kind)
		})
		if err != nil {
			fatalf("Error removing dependency: %v\n", err)
		}

		if jsonOutput {
			printJSON(map[string]string{"from": args[0], "to": target, "type": string(kind)})
			return
		}
		fmt.Printf("Removed %s %s %s\n", args[0], kind, target)
	},
}

var clearDependenciesCmd = &cobra.Command{
	Use:   "clear-dependencies [id]",
	Short: "Remove every relationship from a work unit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		confirm, _ := cmd.Flags().GetBool("confirm")

		if !confirm {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				fatalf("Error: clearing all dependencies requires --confirm\n")
			}
			var proceed bool
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Remove every relationship from %s?", args[0])).
				Value(&proceed)
			if err := prompt.Run(); err != nil {
				fatalf("Error reading confirmation: %v\n", err)
			}
			if !proceed {
				fmt.Println("Aborted.")
				return
			}
			confirm = true
		}

		_, err := store.Transaction(workUnitsPath(), nil, func(d *types.WorkUnitsData) error {
			return graph.ClearAll(d, args[0], confirm)
		})
		if err != nil {
			fatalf("Error clearing dependencies: %v\n", err)
		}
		fmt.Printf("Cleared all relationships from %s\n", args[0])
	},
}

// dependencyListing is the list-dependencies payload. Slices are always
// present in the output, empty rather than omitted.
type dependencyListing struct {
	ID        string   `json:"id"`
	Blocks    []string `json:"blocks"`
	BlockedBy []string `json:"blockedBy"`
	DependsOn []string `json:"dependsOn"`
	RelatesTo []string `json:"relatesTo"`
}

var listDependenciesCmd = &cobra.Command{
	Use:   "list-dependencies [id]",
	Short: "List the relationships of a work unit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		typeFilter, _ := cmd.Flags().GetString("type")

		doc, err := store.Read[types.WorkUnitsData](workUnitsPath(), nil)
		if err != nil {
			fatalf("Error reading work units: %v\n", err)
		}
		u := doc.Get(args[0])
		if u == nil {
			fatalf("Error: work unit %s does not exist\n", args[0])
		}

		listing := dependencyListing{
			ID:        u.ID,
			Blocks:    []string{},
			BlockedBy: []string{},
			DependsOn: []string{},
			RelatesTo: []string{},
		}
		include := func(rel types.RelationshipType) bool {
			return typeFilter == "" || typeFilter == string(rel)
		}
		if include(types.RelBlocks) {
			listing.Blocks = emptyIfNil(u.Blocks)
		}
		if include(types.RelBlockedBy) {
			listing.BlockedBy = emptyIfNil(u.BlockedBy)
		}
		if include(types.RelDependsOn) {
			listing.DependsOn = emptyIfNil(u.DependsOn)
		}
		if include(types.RelRelatesTo) {
			listing.RelatesTo = emptyIfNil(u.RelatesTo)
		}

		if jsonOutput {
			printJSON(listing)
			return
		}
		fmt.Printf("%s %s\n", ui.RenderHeader(u.ID), ui.RenderMuted(u.Title))
		printRelList("blocks", listing.Blocks)
		printRelList("blockedBy", listing.BlockedBy)
		printRelList("dependsOn", listing.DependsOn)
		printRelList("relatesTo", listing.RelatesTo)
	},
}

func printRelList(label string, ids []string) {
	if len(ids) == 0 {
		fmt.Printf("  %s: %s\n", label, ui.RenderMuted("(none)"))
		return
	}
	fmt.Printf("  %s:\n", label)
	for _, id := range ids {
		fmt.Printf("    %s\n", id)
	}
}

var queryDependencyStatsCmd = &cobra.Command{
	Use:   "query-dependency-stats",
	Short: "Show aggregate dependency statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := store.Read[types.WorkUnitsData](workUnitsPath(), nil)
		if err != nil {
			fatalf("Error reading work units: %v\n", err)
		}
		stats := graph.ComputeStats(doc)

		if jsonOutput {
			printJSON(stats)
			return
		}
		fmt.Println(ui.RenderHeader("Dependency statistics"))
		fmt.Printf("  Blocking others:        %d\n", stats.WorkUnitsBlockingOthers)
		fmt.Printf("  With blockers:          %d\n", stats.WorkUnitsWithBlockers)
		fmt.Printf("  With soft dependencies: %d\n", stats.WorkUnitsWithSoftDependencies)
		fmt.Printf("  Avg relationships:      %.2f\n", stats.AverageRelationships)
		fmt.Printf("  Longest chain:          %d\n", stats.LongestChain)
	},
}

var exportDependenciesCmd = &cobra.Command{
	Use:   "export-dependencies",
	Short: "Export the dependency graph",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if format != "mermaid" {
			fatalf("Error: unsupported export format: %s\n", format)
		}

		doc, err := store.Read[types.WorkUnitsData](workUnitsPath(), nil)
		if err != nil {
			fatalf("Error reading work units: %v\n", err)
		}

		out := os.Stdout
		if output != "" {
			f, err := os.Create(output) // #nosec G304 - user-provided output path
			if err != nil {
				fatalf("Error creating %s: %v\n", output, err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}
		if err := graph.WriteMermaid(doc, out); err != nil {
			fatalf("Error exporting graph: %v\n", err)
		}
		if output != "" && !quietFlag {
			fmt.Printf("Wrote %s\n", output)
		}
	},
}

var suggestDependenciesCmd = &cobra.Command{
	Use:   "suggest-dependencies",
	Short: "Propose likely missing dependencies (advisory only)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := store.Read[types.WorkUnitsData](workUnitsPath(), nil)
		if err != nil {
			fatalf("Error reading work units: %v\n", err)
		}
		suggestions := graph.Suggest(doc)

		if jsonOutput {
			printJSON(suggestions)
			return
		}
		if len(suggestions) == 0 {
			fmt.Println("No suggestions.")
			return
		}
		for _, s := range suggestions {
			fmt.Printf("  %s dependsOn %s  %s\n", s.FromID, s.ToID, ui.RenderMuted("("+s.Reason+")"))
		}
		fmt.Printf("\n%d suggestion(s). Apply with: fspec add-dependency <id> --depends-on=<id>\n", len(suggestions))
	},
}

var repairDependenciesCmd = &cobra.Command{
	Use:   "repair-dependencies",
	Short: "Restore missing inverse edges and drop dangling references",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var repairs []string
		_, err := store.Transaction(workUnitsPath(), nil, func(d *types.WorkUnitsData) error {
			repairs = graph.Repair(d)
			return nil
		})
		if err != nil {
			fatalf("Error repairing dependencies: %v\n", err)
		}

		if jsonOutput {
			printJSON(map[string]interface{}{"repairs": repairs})
			return
		}
		if len(repairs) == 0 {
			fmt.Println("No repairs needed.")
			return
		}
		warn := color.New(color.FgYellow)
		for _, r := range repairs {
			_, _ = warn.Printf("  repaired: %s\n", r)
		}
		fmt.Printf("%d repair(s) applied.\n", len(repairs))
	},
}

func init() {
	addRelationshipFlags(addDependencyCmd)
	addRelationshipFlags(removeDependencyCmd)
	clearDependenciesCmd.Flags().Bool("confirm", false, "Skip the interactive confirmation")
	listDependenciesCmd.Flags().String("type", "", "Only list one relationship type")
	exportDependenciesCmd.Flags().String("format", "mermaid", "Export format")
	exportDependenciesCmd.Flags().String("output", "", "Write to a file instead of stdout")

	rootCmd.AddCommand(
		addDependencyCmd,
		removeDependencyCmd,
		clearDependenciesCmd,
		listDependenciesCmd,
		queryDependencyStatsCmd,
		exportDependenciesCmd,
		suggestDependenciesCmd,
		repairDependenciesCmd,
	)
}
