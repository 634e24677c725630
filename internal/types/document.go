package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DocumentVersion is the current work-units.json schema version.
const DocumentVersion = "1.0"

// Meta holds document housekeeping fields.
type Meta struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// WorkUnitsData is the persisted work-units document. Every work unit ID
// appears in exactly one states bucket, matching its Status field; the two
// are updated together inside a transaction.
type WorkUnitsData struct {
	Meta      Meta                 `json:"meta"`
	WorkUnits map[string]*WorkUnit `json:"workUnits"`
	States    map[Status][]string  `json:"states"`
	NextIDs   map[string]int       `json:"nextIds,omitempty"`
}

// NewWorkUnitsData returns an empty document with all state buckets present.
func NewWorkUnitsData() *WorkUnitsData {
	states := make(map[Status][]string, len(AllStatuses))
	for _, s := range AllStatuses {
		states[s] = []string{}
	}
	return &WorkUnitsData{
		Meta:      Meta{Version: DocumentVersion},
		WorkUnits: make(map[string]*WorkUnit),
		States:    states,
		NextIDs:   make(map[string]int),
	}
}

// Get returns the work unit with the given ID, or nil.
func (d *WorkUnitsData) Get(id string) *WorkUnit {
	return d.WorkUnits[id]
}

// SortedIDs returns all work unit IDs in prefix-then-number order.
func (d *WorkUnitsData) SortedIDs() []string {
	ids := make([]string, 0, len(d.WorkUnits))
	for id := range d.WorkUnits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		pi, ni := SplitID(ids[i])
		pj, nj := SplitID(ids[j])
		if pi != pj {
			return pi < pj
		}
		return ni < nj
	})
	return ids
}

// SplitID splits a work unit ID into prefix and numeric suffix.
// Returns ("", -1) for malformed IDs.
func SplitID(id string) (string, int) {
	idx := strings.LastIndex(id, "-")
	if idx <= 0 {
		return "", -1
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return "", -1
	}
	return id[:idx], n
}

// FormatID builds a work unit ID from a prefix and number, zero-padded to
// three digits to match the <PREFIX>-001 convention.
func FormatID(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// AddUnit inserts a new work unit and places it in the bucket for its
// status. Fails if the ID is already taken.
func (d *WorkUnitsData) AddUnit(u *WorkUnit) error {
	if _, exists := d.WorkUnits[u.ID]; exists {
		return fmt.Errorf("work unit %s already exists", u.ID)
	}
	if d.WorkUnits == nil {
		d.WorkUnits = make(map[string]*WorkUnit)
	}
	if d.States == nil {
		d.States = make(map[Status][]string)
	}
	d.WorkUnits[u.ID] = u
	d.States[u.Status] = append(d.States[u.Status], u.ID)
	return nil
}

// RemoveUnit deletes a work unit and removes it from its states bucket.
func (d *WorkUnitsData) RemoveUnit(id string) {
	u, ok := d.WorkUnits[id]
	if !ok {
		return
	}
	d.States[u.Status] = removeString(d.States[u.Status], id)
	delete(d.WorkUnits, id)
}

// MoveToBucket moves a unit's ID from its current states bucket to the
// bucket for newStatus. The unit's Status field is not touched here; the
// caller updates both together.
func (d *WorkUnitsData) MoveToBucket(id string, from, to Status) {
	d.States[from] = removeString(d.States[from], id)
	d.States[to] = append(d.States[to], id)
}

// Touch updates the document and unit bookkeeping timestamps.
func (d *WorkUnitsData) Touch(u *WorkUnit, now time.Time) {
	u.UpdatedAt = now
	d.Meta.LastUpdated = now
	if d.Meta.Version == "" {
		d.Meta.Version = DocumentVersion
	}
}

// AllocateID reserves the next ID for a prefix.
func (d *WorkUnitsData) AllocateID(prefix string) string {
	if d.NextIDs == nil {
		d.NextIDs = make(map[string]int)
	}
	next := d.NextIDs[prefix]
	if next == 0 {
		next = 1
		// Resume after the highest existing number for the prefix, so
		// documents written before nextIds tracking keep allocating
		// unique IDs.
		for id := range d.WorkUnits {
			if p, n := SplitID(id); p == prefix && n >= next {
				next = n + 1
			}
		}
	}
	d.NextIDs[prefix] = next + 1
	return FormatID(prefix, next)
}

// CheckIntegrity verifies the cross-field invariants that every committed
// transaction must preserve: bucket membership matches unit status, blocks
// and relatesTo inverses are present, no self-edges, and state history is
// monotone with its last entry matching the current status. Violations are
// returned as messages; an empty slice means the document is consistent.
func (d *WorkUnitsData) CheckIntegrity() []string {
	var problems []string

	seen := make(map[string]Status)
	for status, ids := range d.States {
		for _, id := range ids {
			if prev, dup := seen[id]; dup {
				problems = append(problems, fmt.Sprintf("%s appears in both %s and %s buckets", id, prev, status))
			}
			seen[id] = status
			u, ok := d.WorkUnits[id]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s is in the %s bucket but has no work unit record", id, status))
				continue
			}
			if u.Status != status {
				problems = append(problems, fmt.Sprintf("%s has status %s but sits in the %s bucket", id, u.Status, status))
			}
		}
	}

	for id, u := range d.WorkUnits {
		if _, ok := seen[id]; !ok {
			problems = append(problems, fmt.Sprintf("%s is missing from every states bucket", id))
		}

		for _, other := range u.Blocks {
			if other == id {
				problems = append(problems, fmt.Sprintf("%s lists itself in blocks", id))
				continue
			}
			o := d.WorkUnits[other]
			if o == nil {
				problems = append(problems, fmt.Sprintf("%s blocks unknown work unit %s", id, other))
			} else if !containsString(o.BlockedBy, id) {
				problems = append(problems, fmt.Sprintf("%s blocks %s but %s is missing the blockedBy inverse", id, other, other))
			}
		}
		for _, other := range u.BlockedBy {
			if other == id {
				problems = append(problems, fmt.Sprintf("%s lists itself in blockedBy", id))
				continue
			}
			o := d.WorkUnits[other]
			if o == nil {
				problems = append(problems, fmt.Sprintf("%s is blockedBy unknown work unit %s", id, other))
			} else if !containsString(o.Blocks, id) {
				problems = append(problems, fmt.Sprintf("%s is blockedBy %s but %s is missing the blocks inverse", id, other, other))
			}
		}
		for _, other := range u.RelatesTo {
			if other == id {
				problems = append(problems, fmt.Sprintf("%s lists itself in relatesTo", id))
				continue
			}
			o := d.WorkUnits[other]
			if o == nil {
				problems = append(problems, fmt.Sprintf("%s relatesTo unknown work unit %s", id, other))
			} else if !containsString(o.RelatesTo, id) {
				problems = append(problems, fmt.Sprintf("%s relatesTo %s but the relation is not mutual", id, other))
			}
		}
		for _, other := range u.DependsOn {
			if other == id {
				problems = append(problems, fmt.Sprintf("%s lists itself in dependsOn", id))
			} else if d.WorkUnits[other] == nil {
				problems = append(problems, fmt.Sprintf("%s dependsOn unknown work unit %s", id, other))
			}
		}

		if len(u.StateHistory) > 0 {
			last := u.StateHistory[len(u.StateHistory)-1]
			if last.State != u.Status {
				problems = append(problems, fmt.Sprintf("%s status is %s but last history entry is %s", id, u.Status, last.State))
			}
			for i := 1; i < len(u.StateHistory); i++ {
				if u.StateHistory[i].Timestamp.Before(u.StateHistory[i-1].Timestamp) {
					problems = append(problems, fmt.Sprintf("%s state history is not monotonically ordered at entry %d", id, i))
					break
				}
			}
		}
	}

	sort.Strings(problems)
	return problems
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// Contains reports whether list contains s. Exported for the graph and
// lifecycle packages, which share the relationship slices.
func Contains(list []string, s string) bool {
	return containsString(list, s)
}

// Remove returns list without s, preserving order.
func Remove(list []string, s string) []string {
	if !containsString(list, s) {
		return list
	}
	out := make([]string, 0, len(list)-1)
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
