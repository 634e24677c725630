package lifecycle

import (
	"fmt"
	"strings"

	"github.com/fspec-dev/fspec/internal/types"
)

// guidance is the per-status coaching text shown after a successful
// transition. The wording assumes the reader is an agent driving the
// workflow and tells it what the new phase expects before the next
// transition will pass its guards.
var guidance = map[types.Status]string{
	types.StatusBacklog: "Work unit moved to backlog. No work is expected yet; " +
		"move it to specifying when it is picked up.",
	types.StatusSpecifying: "Now in specifying. Run an Example Mapping session: " +
		"capture rules with add-rule, concrete examples with add-example, and open " +
		"questions with add-question. Record the intended design with " +
		"add-architecture-note and attach AST research with " +
		"add-attachment --kind=ast-research. Write or update the tagged .feature " +
		"file. All of these are checked before testing.",
	types.StatusTesting: "Now in testing. Write failing tests that cover every " +
		"scenario tagged for this work unit. Test files must be created or modified " +
		"after this transition; stale test files will fail the next guard.",
	types.StatusImplementing: "Now in implementing. Make the failing tests pass. " +
		"Keep the coverage sidecar files up to date: every tagged scenario needs a " +
		"test mapping with at least one implementation mapping before validating.",
	types.StatusValidating: "Now in validating. Run the full test suite and " +
		"review the implementation against the captured rules and examples before " +
		"marking it done.",
	types.StatusDone: "Work unit is done. If it was blocking others, move each " +
		"dependent forward explicitly; completion does not unblock them.",
}

// Reminders builds the guidance lines for a completed transition:
// the per-status text, then any warnings and notifications. The CLI
// joins them with blank lines inside one system-reminder block.
func Reminders(res *Result) []string {
	if res == nil || res.NoOp {
		return nil
	}
	var out []string
	if text, ok := guidance[res.To]; ok {
		out = append(out, text)
	}
	out = append(out, res.Warnings...)
	out = append(out, res.Notifications...)
	return out
}

// FormatReminderBlock wraps the guidance lines in a single
// system-reminder block, separated by blank lines. Empty input yields
// an empty string.
func FormatReminderBlock(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("<system-reminder>\n%s\n</system-reminder>",
		strings.Join(lines, "\n\n"))
}
