package types

import (
	"encoding/json"
	"testing"
	"time"
)

func addUnit(t *testing.T, d *WorkUnitsData, id string, status Status) *WorkUnit {
	t.Helper()
	u := &WorkUnit{
		ID: id, Title: "unit " + id, Status: status, Type: TypeStory,
		StateHistory: []StateEntry{{State: status, Timestamp: time.Now()}},
	}
	if err := d.AddUnit(u); err != nil {
		t.Fatalf("AddUnit(%s): %v", id, err)
	}
	return u
}

func TestNewWorkUnitsDataHasAllBuckets(t *testing.T) {
	d := NewWorkUnitsData()
	if d.Meta.Version != DocumentVersion {
		t.Errorf("version = %q", d.Meta.Version)
	}
	for _, s := range AllStatuses {
		if _, ok := d.States[s]; !ok {
			t.Errorf("bucket %s missing", s)
		}
	}
}

func TestAddUnitRejectsDuplicates(t *testing.T) {
	d := NewWorkUnitsData()
	addUnit(t, d, "AUTH-001", StatusBacklog)
	if err := d.AddUnit(&WorkUnit{ID: "AUTH-001", Title: "dup", Status: StatusBacklog, Type: TypeStory}); err == nil {
		t.Error("duplicate ID accepted")
	}
}

func TestSortedIDsOrdersByPrefixThenNumber(t *testing.T) {
	d := NewWorkUnitsData()
	for _, id := range []string{"PAY-010", "AUTH-002", "PAY-002", "AUTH-001"} {
		addUnit(t, d, id, StatusBacklog)
	}
	got := d.SortedIDs()
	want := []string{"AUTH-001", "AUTH-002", "PAY-002", "PAY-010"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedIDs = %v, want %v", got, want)
		}
	}
}

func TestAllocateIDResumesAfterExisting(t *testing.T) {
	d := NewWorkUnitsData()
	addUnit(t, d, "AUTH-007", StatusBacklog)

	if got := d.AllocateID("AUTH"); got != "AUTH-008" {
		t.Errorf("AllocateID = %s, want AUTH-008", got)
	}
	if got := d.AllocateID("AUTH"); got != "AUTH-009" {
		t.Errorf("second AllocateID = %s, want AUTH-009", got)
	}
	if got := d.AllocateID("PAY"); got != "PAY-001" {
		t.Errorf("fresh prefix AllocateID = %s, want PAY-001", got)
	}
}

func TestMoveToBucketAndRemoveUnit(t *testing.T) {
	d := NewWorkUnitsData()
	u := addUnit(t, d, "AUTH-001", StatusBacklog)

	d.MoveToBucket("AUTH-001", StatusBacklog, StatusSpecifying)
	u.Status = StatusSpecifying
	u.StateHistory = append(u.StateHistory, StateEntry{State: StatusSpecifying, Timestamp: time.Now()})

	if len(d.States[StatusBacklog]) != 0 || len(d.States[StatusSpecifying]) != 1 {
		t.Errorf("buckets after move: backlog=%v specifying=%v",
			d.States[StatusBacklog], d.States[StatusSpecifying])
	}

	d.RemoveUnit("AUTH-001")
	if d.Get("AUTH-001") != nil || len(d.States[StatusSpecifying]) != 0 {
		t.Error("RemoveUnit left traces")
	}
}

func TestCheckIntegrityFlagsInconsistencies(t *testing.T) {
	d := NewWorkUnitsData()
	a := addUnit(t, d, "AUTH-001", StatusBacklog)
	addUnit(t, d, "AUTH-002", StatusBacklog)

	if problems := d.CheckIntegrity(); len(problems) != 0 {
		t.Fatalf("clean document reported problems: %v", problems)
	}

	// One-sided blocks edge.
	a.Blocks = []string{"AUTH-002"}
	problems := d.CheckIntegrity()
	if len(problems) != 1 {
		t.Fatalf("problems = %v, want missing inverse", problems)
	}

	// Dangling reference.
	a.Blocks = []string{"GHOST-001"}
	if problems := d.CheckIntegrity(); len(problems) != 1 {
		t.Errorf("problems = %v, want dangling reference", problems)
	}

	// Bucket/status mismatch.
	a.Blocks = nil
	a.Status = StatusSpecifying
	a.StateHistory = append(a.StateHistory, StateEntry{State: StatusSpecifying, Timestamp: time.Now()})
	if problems := d.CheckIntegrity(); len(problems) == 0 {
		t.Error("bucket/status mismatch not flagged")
	}
}

func TestDocumentRoundTripKeepsBuckets(t *testing.T) {
	d := NewWorkUnitsData()
	addUnit(t, d, "AUTH-001", StatusBacklog)
	d.AllocateID("AUTH")

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back WorkUnitsData
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Get("AUTH-001") == nil {
		t.Fatal("unit lost in round trip")
	}
	if problems := back.CheckIntegrity(); len(problems) != 0 {
		t.Errorf("round-tripped document inconsistent: %v", problems)
	}
	if back.NextIDs["AUTH"] == 0 {
		t.Error("nextIds not persisted")
	}
}
