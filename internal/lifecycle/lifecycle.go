// Package lifecycle implements the work-unit state machine. Statuses
// form a fixed pipeline (backlog, specifying, testing, implementing,
// validating, done) plus the side state blocked. Guards run against the
// transition target; side effects and the guard table live here so every
// status change flows through one auditable code path. The blocked state
// is the one exception: it is entered only via the dependency graph's
// auto-block side effect, never by a direct transition request.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/fspec-dev/fspec/internal/coverage"
	"github.com/fspec-dev/fspec/internal/temporal"
	"github.com/fspec-dev/fspec/internal/types"
)

// GuardError is a transition precondition failure. Nothing is mutated
// when a guard fails.
type GuardError struct {
	ID      string
	Target  types.Status
	Message string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("cannot move %s to %s: %s", e.ID, e.Target, e.Message)
}

// Options tune a transition request.
type Options struct {
	// SkipTemporalValidation bypasses the artifact mtime ordering guards.
	SkipTemporalValidation bool
	// Cwd is the project root scanned for feature and test artifacts.
	Cwd string
	// SpecDir is the spec tree scanned for coverage sidecar files.
	SpecDir string
}

// Result reports a completed (or no-op) transition, plus non-fatal
// warnings and notifications the caller should surface.
type Result struct {
	ID   string       `json:"id"`
	From types.Status `json:"from"`
	To   types.Status `json:"to"`
	NoOp bool         `json:"noOp,omitempty"`
	// Warnings are advisory, e.g. unmet soft dependencies.
	Warnings []string `json:"warnings,omitempty"`
	// Notifications flag follow-up work, e.g. dependents still blocked
	// after their blocker completed.
	Notifications []string `json:"notifications,omitempty"`
}

// Transition moves the work unit to targetStatus after running the guard
// checks for the target. On success it appends a state history entry,
// moves the unit between states buckets, and updates the status field,
// all on the in-memory document, so a surrounding transaction commits or
// discards the whole set together.
func Transition(doc *types.WorkUnitsData, id string, target types.Status, opts Options) (*Result, error) {
	u := doc.Get(id)
	if u == nil {
		return nil, fmt.Errorf("work unit %s does not exist", id)
	}
	if !target.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", target)
	}
	if target == types.StatusBlocked {
		return nil, &GuardError{ID: id, Target: target,
			Message: "blocked is entered automatically when a blocking relationship is added, never by request"}
	}

	if u.Status == target {
		return &Result{ID: id, From: u.Status, To: target, NoOp: true}, nil
	}

	res := &Result{ID: id, From: u.Status, To: target}

	if err := runGuards(u, target, opts); err != nil {
		return nil, err
	}

	res.Warnings = append(res.Warnings, softDependencyWarnings(doc, u, target)...)

	// Completing a blocker does not auto-unblock its dependents; surface
	// a notification and leave their status untouched until each is
	// explicitly re-evaluated.
	if target == types.StatusDone {
		for _, dep := range u.Blocks {
			res.Notifications = append(res.Notifications,
				fmt.Sprintf("%s completed, but %s remains blocked until it is explicitly moved on", id, dep))
		}
	}

	now := time.Now()
	doc.MoveToBucket(id, u.Status, target)
	u.Status = target
	u.StateHistory = append(u.StateHistory, types.StateEntry{State: target, Timestamp: now})
	if u.BlockedReason != "" {
		// Manual exit from blocked clears the recorded reason. blockedBy
		// entries are deliberately not re-checked here; see the
		// documented auto-block-in, manual-unblock-out asymmetry.
		u.BlockedReason = ""
	}
	doc.Touch(u, now)

	return res, nil
}

// runGuards enforces the target-specific preconditions. Bugs follow a
// relaxed guard set: every guard is skipped except coverage. Tasks are
// exempt from the implementing temporal guard.
func runGuards(u *types.WorkUnit, target types.Status, opts Options) error {
	isBug := u.Type == types.TypeBug

	switch target {
	case types.StatusTesting:
		if isBug {
			return nil
		}
		if len(u.Rules) == 0 || len(u.Examples) == 0 {
			return &GuardError{ID: u.ID, Target: target,
				Message: "Example Mapping is incomplete: capture at least one rule and one example before writing tests"}
		}
		if len(u.ArchitectureNotes) == 0 {
			return &GuardError{ID: u.ID, Target: target,
				Message: "no architecture notes recorded: document the intended design before writing tests"}
		}
		if !hasASTResearch(u) {
			return &GuardError{ID: u.ID, Target: target,
				Message: "no AST research attached: analyze the existing code structure before writing tests"}
		}
		if !opts.SkipTemporalValidation {
			enteredAt, ok := u.StateEnteredAt(types.StatusSpecifying)
			if ok {
				if err := temporal.CheckFileCreatedAfter(u.ID, enteredAt, temporal.FileTypeFeature, opts.Cwd); err != nil {
					return err
				}
			}
		}
		return nil

	case types.StatusImplementing:
		if isBug || u.Type == types.TypeTask {
			return nil
		}
		if !opts.SkipTemporalValidation {
			enteredAt, ok := u.StateEnteredAt(types.StatusTesting)
			if ok {
				if err := temporal.CheckFileCreatedAfter(u.ID, enteredAt, temporal.FileTypeTest, opts.Cwd); err != nil {
					return err
				}
			}
		}
		return nil

	case types.StatusValidating:
		// The coverage guard applies to every unit type and cannot be
		// skipped.
		missing, err := coverage.Uncovered(opts.SpecDir, u.ID)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return &GuardError{ID: u.ID, Target: target,
				Message: fmt.Sprintf("implementation coverage is incomplete: %d scenario(s) have test mappings but no implementation mapping: %v",
					len(missing), missing)}
		}
		return nil

	default:
		return nil
	}
}

func hasASTResearch(u *types.WorkUnit) bool {
	for _, a := range u.Attachments {
		if a.Kind == types.AttachmentKindASTResearch {
			return true
		}
	}
	return false
}

// softDependencyWarnings reports dependsOn targets that are not done yet.
// Soft dependencies warn from testing onward but never block.
func softDependencyWarnings(doc *types.WorkUnitsData, u *types.WorkUnit, target types.Status) []string {
	switch target {
	case types.StatusTesting, types.StatusImplementing, types.StatusValidating, types.StatusDone:
	default:
		return nil
	}
	var warnings []string
	for _, dep := range u.DependsOn {
		other := doc.Get(dep)
		if other == nil {
			continue
		}
		if other.Status != types.StatusDone {
			warnings = append(warnings,
				fmt.Sprintf("soft dependency %s is %s, not done", dep, other.Status))
		}
	}
	return warnings
}
