package lifecycle

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fspec-dev/fspec/internal/temporal"
	"github.com/fspec-dev/fspec/internal/types"
)

func newDoc(t *testing.T, units ...*types.WorkUnit) *types.WorkUnitsData {
	t.Helper()
	doc := types.NewWorkUnitsData()
	for _, u := range units {
		if err := doc.AddUnit(u); err != nil {
			t.Fatalf("AddUnit(%s): %v", u.ID, err)
		}
	}
	return doc
}

func unit(id string, status types.Status) *types.WorkUnit {
	now := time.Now().Add(-time.Hour)
	return &types.WorkUnit{
		ID:           id,
		Title:        "unit " + id,
		Status:       status,
		Type:         types.TypeStory,
		StateHistory: []types.StateEntry{{State: status, Timestamp: now}},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// specified returns a unit in specifying with every testing-entry
// artifact already captured.
func specified(id string) *types.WorkUnit {
	u := unit(id, types.StatusSpecifying)
	u.Rules = []types.Rule{{ID: 1, Text: "passwords expire after 90 days"}}
	u.Examples = []types.Example{{ID: 1, RuleID: 1, Text: "day 91 login forces a reset"}}
	u.ArchitectureNotes = []string{"reuse the session middleware"}
	u.Attachments = []types.Attachment{{Kind: types.AttachmentKindASTResearch, Content: "...", CreatedAt: time.Now()}}
	return u
}

func emptyOpts(t *testing.T) Options {
	t.Helper()
	return Options{Cwd: t.TempDir(), SpecDir: t.TempDir()}
}

func TestTransitionAppendsHistoryAndMovesBuckets(t *testing.T) {
	doc := newDoc(t, unit("AUTH-001", types.StatusBacklog))

	res, err := Transition(doc, "AUTH-001", types.StatusSpecifying, emptyOpts(t))
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if res.From != types.StatusBacklog || res.To != types.StatusSpecifying {
		t.Errorf("result = %s -> %s", res.From, res.To)
	}

	u := doc.Get("AUTH-001")
	if u.Status != types.StatusSpecifying {
		t.Errorf("status = %s, want specifying", u.Status)
	}
	if len(u.StateHistory) != 2 || u.StateHistory[1].State != types.StatusSpecifying {
		t.Errorf("history = %+v, want specifying appended", u.StateHistory)
	}
	if len(doc.States[types.StatusBacklog]) != 0 {
		t.Errorf("backlog bucket still holds %v", doc.States[types.StatusBacklog])
	}
	if len(doc.States[types.StatusSpecifying]) != 1 {
		t.Errorf("specifying bucket = %v", doc.States[types.StatusSpecifying])
	}
	if issues := doc.CheckIntegrity(); len(issues) != 0 {
		t.Errorf("integrity issues after transition: %v", issues)
	}
}

func TestSameStatusIsNoOp(t *testing.T) {
	doc := newDoc(t, unit("AUTH-001", types.StatusBacklog))
	before := len(doc.Get("AUTH-001").StateHistory)

	res, err := Transition(doc, "AUTH-001", types.StatusBacklog, emptyOpts(t))
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if !res.NoOp {
		t.Error("expected NoOp result")
	}
	if got := len(doc.Get("AUTH-001").StateHistory); got != before {
		t.Errorf("history grew on no-op: %d -> %d", before, got)
	}
}

func TestBlockedCannotBeRequested(t *testing.T) {
	doc := newDoc(t, unit("AUTH-001", types.StatusBacklog))

	_, err := Transition(doc, "AUTH-001", types.StatusBlocked, emptyOpts(t))
	var ge *GuardError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *GuardError", err)
	}
	if doc.Get("AUTH-001").Status != types.StatusBacklog {
		t.Error("status changed despite rejected transition")
	}
}

func TestBlockedExitIsUnconditional(t *testing.T) {
	u := unit("AUTH-001", types.StatusBlocked)
	u.BlockedBy = []string{"AUTH-002"}
	u.BlockedReason = "Blocked by AUTH-002"
	blocker := unit("AUTH-002", types.StatusBacklog)
	blocker.Blocks = []string{"AUTH-001"}
	doc := newDoc(t, u, blocker)

	res, err := Transition(doc, "AUTH-001", types.StatusBacklog, emptyOpts(t))
	if err != nil {
		t.Fatalf("Transition out of blocked: %v", err)
	}
	if res.From != types.StatusBlocked {
		t.Errorf("From = %s, want blocked", res.From)
	}
	got := doc.Get("AUTH-001")
	if got.BlockedReason != "" {
		t.Errorf("BlockedReason = %q, want cleared", got.BlockedReason)
	}
	// The relationship itself survives; only the status moves.
	if len(got.BlockedBy) != 1 {
		t.Errorf("BlockedBy = %v, want kept", got.BlockedBy)
	}
}

func TestTestingGuardRequiresExampleMapping(t *testing.T) {
	doc := newDoc(t, unit("AUTH-001", types.StatusSpecifying))

	_, err := Transition(doc, "AUTH-001", types.StatusTesting, emptyOpts(t))
	var ge *GuardError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *GuardError", err)
	}
	if !strings.Contains(ge.Message, "Example Mapping is incomplete") {
		t.Errorf("message = %q", ge.Message)
	}
	if doc.Get("AUTH-001").Status != types.StatusSpecifying {
		t.Error("status changed despite guard failure")
	}
}

func TestTestingGuardRequiresArchitectureNoteAndASTResearch(t *testing.T) {
	u := specified("AUTH-001")
	u.ArchitectureNotes = nil
	doc := newDoc(t, u)

	_, err := Transition(doc, "AUTH-001", types.StatusTesting, emptyOpts(t))
	var ge *GuardError
	if !errors.As(err, &ge) || !strings.Contains(ge.Message, "architecture notes") {
		t.Fatalf("error = %v, want architecture-notes guard", err)
	}

	u2 := specified("AUTH-002")
	u2.Attachments = nil
	doc2 := newDoc(t, u2)

	_, err = Transition(doc2, "AUTH-002", types.StatusTesting, emptyOpts(t))
	if !errors.As(err, &ge) || !strings.Contains(ge.Message, "AST research") {
		t.Fatalf("error = %v, want AST-research guard", err)
	}
}

func TestBugSkipsTestingGuards(t *testing.T) {
	u := unit("AUTH-001", types.StatusSpecifying)
	u.Type = types.TypeBug
	doc := newDoc(t, u)

	if _, err := Transition(doc, "AUTH-001", types.StatusTesting, emptyOpts(t)); err != nil {
		t.Fatalf("bug transition to testing: %v", err)
	}
}

func TestTemporalGuardOnTestingAndSkipFlag(t *testing.T) {
	dir := t.TempDir()
	u := specified("AUTH-001")
	enteredSpec := u.StateHistory[0].Timestamp

	stale := enteredSpec.Add(-30 * time.Minute)
	path := filepath.Join(dir, "spec", "auth.feature")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("@AUTH-001\nFeature: Login\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatal(err)
	}

	doc := newDoc(t, u)
	opts := Options{Cwd: dir, SpecDir: t.TempDir()}

	_, err := Transition(doc, "AUTH-001", types.StatusTesting, opts)
	var ov *temporal.OrderingViolation
	if !errors.As(err, &ov) {
		t.Fatalf("error = %v, want *OrderingViolation", err)
	}
	if doc.Get("AUTH-001").Status != types.StatusSpecifying {
		t.Error("status changed despite temporal violation")
	}

	opts.SkipTemporalValidation = true
	if _, err := Transition(doc, "AUTH-001", types.StatusTesting, opts); err != nil {
		t.Fatalf("skip flag did not bypass temporal guard: %v", err)
	}
}

func TestTaskSkipsImplementingTemporalGuard(t *testing.T) {
	dir := t.TempDir()
	u := unit("TASK-001", types.StatusTesting)
	u.Type = types.TypeTask
	entered := u.StateHistory[0].Timestamp

	stale := entered.Add(-10 * time.Minute)
	path := filepath.Join(dir, "task_test.go")
	if err := os.WriteFile(path, []byte("// TASK-001\npackage x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatal(err)
	}

	doc := newDoc(t, u)
	opts := Options{Cwd: dir, SpecDir: t.TempDir()}
	if _, err := Transition(doc, "TASK-001", types.StatusImplementing, opts); err != nil {
		t.Fatalf("task transition to implementing: %v", err)
	}
}

func TestCoverageGuardBlocksValidating(t *testing.T) {
	specDir := t.TempDir()
	covPath := filepath.Join(specDir, "login.feature.coverage.json")
	uncoveredDoc := `{
  "feature": "login",
  "scenarios": [
    {"name": "locked account", "workUnitIds": ["AUTH-001"],
     "testMappings": [{"file": "lockout_test.go"}]}
  ]
}`
	if err := os.WriteFile(covPath, []byte(uncoveredDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	u := unit("AUTH-001", types.StatusImplementing)
	doc := newDoc(t, u)
	opts := Options{Cwd: t.TempDir(), SpecDir: specDir, SkipTemporalValidation: true}

	_, err := Transition(doc, "AUTH-001", types.StatusValidating, opts)
	var ge *GuardError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *GuardError", err)
	}
	if !strings.Contains(ge.Message, "implementation coverage is incomplete") {
		t.Errorf("message = %q, want coverage wording", ge.Message)
	}
	if doc.Get("AUTH-001").Status != types.StatusImplementing {
		t.Error("unit left implementing despite coverage guard")
	}

	// The coverage guard ignores the skip flag and applies to bugs too.
	bug := unit("AUTH-002", types.StatusImplementing)
	bug.Type = types.TypeBug
	covered := strings.Replace(uncoveredDoc, "AUTH-001", "AUTH-002", 1)
	if err := os.WriteFile(covPath, []byte(covered), 0o644); err != nil {
		t.Fatal(err)
	}
	doc2 := newDoc(t, bug)
	if _, err := Transition(doc2, "AUTH-002", types.StatusValidating, opts); err == nil {
		t.Fatal("coverage guard skipped for bug")
	}
}

func TestCoverageGuardPassesWhenComplete(t *testing.T) {
	specDir := t.TempDir()
	covered := `{
  "feature": "login",
  "scenarios": [
    {"name": "locked account", "workUnitIds": ["AUTH-001"],
     "testMappings": [{"file": "lockout_test.go", "implMappings": ["lockout.go"]}]}
  ]
}`
	if err := os.WriteFile(filepath.Join(specDir, "login.feature.coverage.json"), []byte(covered), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := newDoc(t, unit("AUTH-001", types.StatusImplementing))
	opts := Options{Cwd: t.TempDir(), SpecDir: specDir}
	if _, err := Transition(doc, "AUTH-001", types.StatusValidating, opts); err != nil {
		t.Fatalf("Transition: %v", err)
	}
}

func TestDoneEmitsNotificationForBlockedDependents(t *testing.T) {
	blocker := unit("AUTH-001", types.StatusValidating)
	blocker.Blocks = []string{"AUTH-002"}
	dep := unit("AUTH-002", types.StatusBlocked)
	dep.BlockedBy = []string{"AUTH-001"}
	dep.BlockedReason = "Blocked by AUTH-001"
	doc := newDoc(t, blocker, dep)

	res, err := Transition(doc, "AUTH-001", types.StatusDone, emptyOpts(t))
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if len(res.Notifications) != 1 || !strings.Contains(res.Notifications[0], "AUTH-002") {
		t.Errorf("notifications = %v", res.Notifications)
	}
	if doc.Get("AUTH-002").Status != types.StatusBlocked {
		t.Error("dependent auto-unblocked; it must stay blocked")
	}
}

func TestSoftDependencyWarnings(t *testing.T) {
	u := specified("AUTH-002")
	u.DependsOn = []string{"AUTH-001"}
	other := unit("AUTH-001", types.StatusImplementing)
	doc := newDoc(t, u, other)

	opts := emptyOpts(t)
	opts.SkipTemporalValidation = true
	res, err := Transition(doc, "AUTH-002", types.StatusTesting, opts)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "AUTH-001") {
		t.Errorf("warnings = %v, want unmet soft dependency", res.Warnings)
	}
}

func TestUnknownUnitAndInvalidStatus(t *testing.T) {
	doc := newDoc(t)
	if _, err := Transition(doc, "NOPE-001", types.StatusDone, emptyOpts(t)); err == nil {
		t.Error("missing unit accepted")
	}

	doc2 := newDoc(t, unit("AUTH-001", types.StatusBacklog))
	if _, err := Transition(doc2, "AUTH-001", types.Status("archived"), emptyOpts(t)); err == nil {
		t.Error("invalid status accepted")
	}
}

func TestRemindersAndBlockFormat(t *testing.T) {
	res := &Result{ID: "AUTH-001", From: types.StatusBacklog, To: types.StatusSpecifying,
		Warnings: []string{"soft dependency AUTH-000 is backlog, not done"}}

	lines := Reminders(res)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want guidance + warning", len(lines))
	}
	block := FormatReminderBlock(lines)
	if !strings.HasPrefix(block, "<system-reminder>\n") || !strings.HasSuffix(block, "\n</system-reminder>") {
		t.Errorf("block delimiters wrong:\n%s", block)
	}
	if !strings.Contains(block, "\n\n") {
		t.Error("multiple reminders not separated by a blank line")
	}

	if got := FormatReminderBlock(nil); got != "" {
		t.Errorf("empty block = %q", got)
	}
	if got := Reminders(&Result{NoOp: true, To: types.StatusDone}); got != nil {
		t.Errorf("no-op reminders = %v, want none", got)
	}
}
