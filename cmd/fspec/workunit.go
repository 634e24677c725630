package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fspec-dev/fspec/internal/graph"
	"github.com/fspec-dev/fspec/internal/store"
	"github.com/fspec-dev/fspec/internal/types"
	"github.com/fspec-dev/fspec/internal/ui"
)

var createWorkUnitCmd = &cobra.Command{
	Use:   "create-work-unit",
	Short: "Create a work unit in the backlog",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		prefix, _ := cmd.Flags().GetString("prefix")
		title, _ := cmd.Flags().GetString("title")
		unitType, _ := cmd.Flags().GetString("type")
		description, _ := cmd.Flags().GetString("description")

		if prefix == "" || title == "" {
			fatalf("Error: --prefix and --title are required\n")
		}
		ut := types.UnitType(unitType)
		if !ut.IsValid() {
			fatalf("Error: invalid work unit type: %s\n", unitType)
		}

		var created *types.WorkUnit
		_, err := store.Transaction(workUnitsPath(), newDocument, func(d *types.WorkUnitsData) error {
			now := time.Now()
			created = &types.WorkUnit{
				ID:           d.AllocateID(strings.ToUpper(prefix)),
				Title:        title,
				Description:  description,
				Status:       types.StatusBacklog,
				Type:         ut,
				StateHistory: []types.StateEntry{{State: types.StatusBacklog, Timestamp: now}},
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			return d.AddUnit(created)
		})
		if err != nil {
			fatalf("Error creating work unit: %v\n", err)
		}

		if jsonOutput {
			printJSON(created)
			return
		}
		fmt.Printf("Created %s: %s\n", ui.RenderHeader(created.ID), created.Title)
	},
}

var deleteWorkUnitCmd = &cobra.Command{
	Use:   "delete-work-unit [id]",
	Short: "Delete a work unit",
	Long: `Refuses to delete a work unit that still has relationships unless
--force is given, which removes every relationship first and reports what
was detached.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		var warnings []string
		_, err := store.Transaction(workUnitsPath(), nil, func(d *types.WorkUnitsData) error {
			u := d.Get(args[0])
			if u == nil {
				return fmt.Errorf("work unit %s does not exist", args[0])
			}
			if u.HasRelationships() && !force {
				return fmt.Errorf("%s has %d relationship(s); use --force to delete anyway",
					args[0], u.RelationshipCount())
			}
			var derr error
			warnings, derr = graph.CascadeDelete(d, args[0])
			if derr != nil {
				return derr
			}
			d.RemoveUnit(args[0])
			return nil
		})
		if err != nil {
			fatalf("Error deleting work unit: %v\n", err)
		}

		if jsonOutput {
			printJSON(map[string]interface{}{"deleted": args[0], "warnings": warnings})
			return
		}
		fmt.Printf("Deleted %s\n", args[0])
		for _, w := range warnings {
			fmt.Printf("  %s\n", ui.RenderWarn(w))
		}
	},
}

var listWorkUnitsCmd = &cobra.Command{
	Use:   "list-work-units",
	Short: "List work units",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		statusFilter, _ := cmd.Flags().GetString("status")

		doc, err := store.Read[types.WorkUnitsData](workUnitsPath(), nil)
		if err != nil {
			fatalf("Error reading work units: %v\n", err)
		}

		var units []*types.WorkUnit
		for _, id := range doc.SortedIDs() {
			u := doc.Get(id)
			if statusFilter != "" && string(u.Status) != statusFilter {
				continue
			}
			units = append(units, u)
		}

		if jsonOutput {
			if units == nil {
				units = []*types.WorkUnit{}
			}
			printJSON(units)
			return
		}
		if len(units) == 0 {
			fmt.Println("No work units.")
			return
		}
		for _, u := range units {
			fmt.Printf("%s %s  %s  %s\n",
				graph.StatusSymbol(u.Status), ui.RenderHeader(u.ID),
				ui.RenderStatus(u.Status), u.Title)
		}
	},
}

var showWorkUnitCmd = &cobra.Command{
	Use:   "show-work-unit [id]",
	Short: "Show a work unit in detail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := store.Read[types.WorkUnitsData](workUnitsPath(), nil)
		if err != nil {
			fatalf("Error reading work units: %v\n", err)
		}
		u := doc.Get(args[0])
		if u == nil {
			fatalf("Error: work unit %s does not exist\n", args[0])
		}

		if jsonOutput {
			printJSON(u)
			return
		}

		fmt.Printf("%s %s  [%s] %s\n", graph.StatusSymbol(u.Status),
			ui.RenderHeader(u.ID), u.Type, ui.RenderStatus(u.Status))
		fmt.Printf("  %s\n", u.Title)
		if u.Description != "" {
			fmt.Printf("  %s\n", u.Description)
		}
		if u.BlockedReason != "" {
			fmt.Printf("  %s\n", ui.RenderFail(u.BlockedReason))
		}
		printRelList("blocks", u.Blocks)
		printRelList("blockedBy", u.BlockedBy)
		printRelList("dependsOn", u.DependsOn)
		printRelList("relatesTo", u.RelatesTo)
		if len(u.Rules) > 0 {
			fmt.Println(ui.RenderHeader("  Rules"))
			for _, r := range u.Rules {
				fmt.Printf("    #%d %s\n", r.ID, r.Text)
			}
		}
		if len(u.Examples) > 0 {
			fmt.Println(ui.RenderHeader("  Examples"))
			for _, e := range u.Examples {
				fmt.Printf("    #%d %s\n", e.ID, e.Text)
			}
		}
		if len(u.Questions) > 0 {
			fmt.Println(ui.RenderHeader("  Questions"))
			for _, q := range u.Questions {
				mark := "?"
				if q.Answered {
					mark = "answered"
				}
				fmt.Printf("    #%d [%s] %s\n", q.ID, mark, q.Text)
			}
		}
		if len(u.StateHistory) > 0 {
			fmt.Println(ui.RenderHeader("  History"))
			for _, h := range u.StateHistory {
				fmt.Printf("    %s  %s\n", h.Timestamp.Format(time.RFC3339), h.State)
			}
		}
	},
}

func init() {
	createWorkUnitCmd.Flags().String("prefix", "", "ID prefix, e.g. AUTH")
	createWorkUnitCmd.Flags().String("title", "", "Short title")
	createWorkUnitCmd.Flags().String("type", "story", "Work unit type (story|task|bug)")
	createWorkUnitCmd.Flags().String("description", "", "Longer description")
	deleteWorkUnitCmd.Flags().Bool("force", false, "Delete even if relationships exist")
	listWorkUnitsCmd.Flags().String("status", "", "Only list one status")

	rootCmd.AddCommand(
		createWorkUnitCmd,
		deleteWorkUnitCmd,
		listWorkUnitsCmd,
		showWorkUnitCmd,
	)
}
