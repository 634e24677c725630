package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fspec-dev/fspec/internal/store"
	"github.com/fspec-dev/fspec/internal/types"
)

// mutateUnit runs a transaction scoped to one existing work unit.
func mutateUnit(id string, fn func(d *types.WorkUnitsData, u *types.WorkUnit) error) {
	_, err := store.Transaction(workUnitsPath(), nil, func(d *types.WorkUnitsData) error {
		u := d.Get(id)
		if u == nil {
			return fmt.Errorf("work unit %s does not exist", id)
		}
		if err := fn(d, u); err != nil {
			return err
		}
		d.Touch(u, time.Now())
		return nil
	})
	if err != nil {
		fatalf("Error: %v\n", err)
	}
}

var addRuleCmd = &cobra.Command{
	Use:   "add-rule [id] [text]",
	Short: "Record an Example Mapping rule on a work unit",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args[1:], " ")
		var ruleID int
		mutateUnit(args[0], func(d *types.WorkUnitsData, u *types.WorkUnit) error {
			u.NextRuleID++
			ruleID = u.NextRuleID
			u.Rules = append(u.Rules, types.Rule{ID: ruleID, Text: text})
			return nil
		})
		fmt.Printf("Added rule #%d to %s\n", ruleID, args[0])
	},
}

var addExampleCmd = &cobra.Command{
	Use:   "add-example [id] [text]",
	Short: "Record an Example Mapping example on a work unit",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ruleRef, _ := cmd.Flags().GetInt("rule")
		text := strings.Join(args[1:], " ")
		var exampleID int
		mutateUnit(args[0], func(d *types.WorkUnitsData, u *types.WorkUnit) error {
			if ruleRef != 0 {
				found := false
				for _, r := range u.Rules {
					if r.ID == ruleRef {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("rule #%d does not exist on %s", ruleRef, u.ID)
				}
			}
			u.NextExampleID++
			exampleID = u.NextExampleID
			u.Examples = append(u.Examples, types.Example{ID: exampleID, RuleID: ruleRef, Text: text})
			return nil
		})
		fmt.Printf("Added example #%d to %s\n", exampleID, args[0])
	},
}

var addQuestionCmd = &cobra.Command{
	Use:   "add-question [id] [text]",
	Short: "Record an open Example Mapping question on a work unit",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args[1:], " ")
		var questionID int
		mutateUnit(args[0], func(d *types.WorkUnitsData, u *types.WorkUnit) error {
			u.NextQuestionID++
			questionID = u.NextQuestionID
			u.Questions = append(u.Questions, types.Question{ID: questionID, Text: text})
			return nil
		})
		fmt.Printf("Added question #%d to %s\n", questionID, args[0])
	},
}

var addArchitectureNoteCmd = &cobra.Command{
	Use:   "add-architecture-note [id] [text]",
	Short: "Record an architecture note on a work unit",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args[1:], " ")
		mutateUnit(args[0], func(d *types.WorkUnitsData, u *types.WorkUnit) error {
			u.ArchitectureNotes = append(u.ArchitectureNotes, text)
			return nil
		})
		fmt.Printf("Added architecture note to %s\n", args[0])
	},
}

var addAttachmentCmd = &cobra.Command{
	Use:   "add-attachment [id]",
	Short: "Attach research material to a work unit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind, _ := cmd.Flags().GetString("kind")
		path, _ := cmd.Flags().GetString("path")
		content, _ := cmd.Flags().GetString("content")

		if kind == "" {
			fatalf("Error: --kind is required (e.g. %s)\n", types.AttachmentKindASTResearch)
		}
		if path == "" && content == "" {
			fatalf("Error: one of --path or --content is required\n")
		}

		mutateUnit(args[0], func(d *types.WorkUnitsData, u *types.WorkUnit) error {
			u.Attachments = append(u.Attachments, types.Attachment{
				Kind:      kind,
				Path:      path,
				Content:   content,
				CreatedAt: time.Now(),
			})
			return nil
		})
		fmt.Printf("Attached %s to %s\n", kind, args[0])
	},
}

func init() {
	addExampleCmd.Flags().Int("rule", 0, "Rule id the example illustrates")
	addAttachmentCmd.Flags().String("kind", "", "Attachment kind")
	addAttachmentCmd.Flags().String("path", "", "File path to reference")
	addAttachmentCmd.Flags().String("content", "", "Inline content")

	rootCmd.AddCommand(
		addRuleCmd,
		addExampleCmd,
		addQuestionCmd,
		addArchitectureNoteCmd,
		addAttachmentCmd,
	)
}
