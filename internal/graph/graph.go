// Package graph maintains the work-unit relationship graph: mutual
// blocks/blockedBy edges, one-directional dependsOn edges, and symmetric
// relatesTo edges. All operations run against the in-memory document
// inside a store transaction; a returned error aborts the transaction so
// no partial edge is ever persisted.
package graph

import (
	"fmt"
	"time"

	"github.com/fspec-dev/fspec/internal/types"
)

// AddRelationship records a relationship of the given kind from fromID to
// toID, enforcing existence, self-edge, duplicate, and (for blocking
// edges) acyclicity invariants. Blocking edges force the blocked unit's
// status to blocked as a side effect; this is the only code path that
// enters the blocked state.
func AddRelationship(doc *types.WorkUnitsData, fromID, toID string, kind types.RelationshipType) error {
	from := doc.Get(fromID)
	if from == nil {
		return &UnknownWorkUnitError{ID: fromID}
	}
	to := doc.Get(toID)
	if to == nil {
		return &UnknownWorkUnitError{ID: toID}
	}
	if fromID == toID {
		return &SelfDependencyError{ID: fromID}
	}

	switch kind {
	case types.RelBlocks:
		return addBlocking(doc, from, to)
	case types.RelBlockedBy:
		// A blockedBy B is the same edge as B blocks A.
		return addBlocking(doc, to, from)
	case types.RelDependsOn:
		if types.Contains(from.DependsOn, toID) || types.Contains(to.DependsOn, fromID) {
			return &DuplicateDependencyError{FromID: fromID, ToID: toID, Kind: kind}
		}
		from.DependsOn = append(from.DependsOn, toID)
		doc.Touch(from, time.Now())
		return nil
	case types.RelRelatesTo:
		if types.Contains(from.RelatesTo, toID) || types.Contains(to.RelatesTo, fromID) {
			return &DuplicateDependencyError{FromID: fromID, ToID: toID, Kind: kind}
		}
		from.RelatesTo = append(from.RelatesTo, toID)
		to.RelatesTo = append(to.RelatesTo, fromID)
		now := time.Now()
		doc.Touch(from, now)
		doc.Touch(to, now)
		return nil
	default:
		return fmt.Errorf("unknown relationship type: %s", kind)
	}
}

// addBlocking records blocker.Blocks += blocked and the blockedBy inverse,
// then forces the blocked unit into the blocked state.
func addBlocking(doc *types.WorkUnitsData, blocker, blocked *types.WorkUnit) error {
	// Only the same logical edge is a duplicate; the blockedBy spelling
	// already normalizes to it in AddRelationship. The reverse edge is a
	// two-node cycle and falls through to the cycle check below.
	if types.Contains(blocker.Blocks, blocked.ID) {
		return &DuplicateDependencyError{FromID: blocker.ID, ToID: blocked.ID, Kind: types.RelBlocks}
	}

	// Reject before writing anything: if blocked can already reach blocker
	// through blocks edges, the new edge closes a cycle.
	if path := findPath(doc, blocked.ID, blocker.ID); path != nil {
		return &CircularDependencyError{Path: append([]string{blocker.ID}, path...)}
	}

	blocker.Blocks = append(blocker.Blocks, blocked.ID)
	blocked.BlockedBy = append(blocked.BlockedBy, blocker.ID)

	now := time.Now()
	doc.Touch(blocker, now)
	doc.Touch(blocked, now)

	// Any non-empty blockedBy forces blocked status, independent of the
	// blocker's own status.
	blocked.BlockedReason = "Blocked by " + blocker.ID
	if blocked.Status != types.StatusBlocked {
		doc.MoveToBucket(blocked.ID, blocked.Status, types.StatusBlocked)
		blocked.Status = types.StatusBlocked
		blocked.StateHistory = append(blocked.StateHistory, types.StateEntry{
			State:     types.StatusBlocked,
			Timestamp: now,
		})
	}
	return nil
}

// RemoveRelationship removes the relationship of the given kind from
// fromID to toID, symmetrically to how AddRelationship recorded it.
// Removing the last blockedBy entry does not revert status out of
// blocked; unblocking requires an explicit status transition.
func RemoveRelationship(doc *types.WorkUnitsData, fromID, toID string, kind types.RelationshipType) error {
	from := doc.Get(fromID)
	if from == nil {
		return &UnknownWorkUnitError{ID: fromID}
	}
	to := doc.Get(toID)
	if to == nil {
		return &UnknownWorkUnitError{ID: toID}
	}

	switch kind {
	case types.RelBlocks:
		return removeBlocking(doc, from, to)
	case types.RelBlockedBy:
		return removeBlocking(doc, to, from)
	case types.RelDependsOn:
		if !types.Contains(from.DependsOn, toID) {
			return &MissingRelationshipError{FromID: fromID, ToID: toID, Kind: kind}
		}
		from.DependsOn = types.Remove(from.DependsOn, toID)
		doc.Touch(from, time.Now())
		return nil
	case types.RelRelatesTo:
		if !types.Contains(from.RelatesTo, toID) {
			return &MissingRelationshipError{FromID: fromID, ToID: toID, Kind: kind}
		}
		from.RelatesTo = types.Remove(from.RelatesTo, toID)
		to.RelatesTo = types.Remove(to.RelatesTo, fromID)
		now := time.Now()
		doc.Touch(from, now)
		doc.Touch(to, now)
		return nil
	default:
		return fmt.Errorf("unknown relationship type: %s", kind)
	}
}

func removeBlocking(doc *types.WorkUnitsData, blocker, blocked *types.WorkUnit) error {
	if !types.Contains(blocker.Blocks, blocked.ID) {
		return &MissingRelationshipError{FromID: blocker.ID, ToID: blocked.ID, Kind: types.RelBlocks}
	}
	blocker.Blocks = types.Remove(blocker.Blocks, blocked.ID)
	blocked.BlockedBy = types.Remove(blocked.BlockedBy, blocker.ID)
	now := time.Now()
	doc.Touch(blocker, now)
	doc.Touch(blocked, now)
	return nil
}

// ClearAll removes every relationship on the unit, with bidirectional
// teardown on every counterpart. The confirm flag must be set explicitly.
func ClearAll(doc *types.WorkUnitsData, id string, confirm bool) error {
	u := doc.Get(id)
	if u == nil {
		return &UnknownWorkUnitError{ID: id}
	}
	if !confirm {
		return fmt.Errorf("clearing all relationships on %s requires confirmation", id)
	}

	now := time.Now()
	for _, other := range u.Blocks {
		if o := doc.Get(other); o != nil {
			o.BlockedBy = types.Remove(o.BlockedBy, id)
			doc.Touch(o, now)
		}
	}
	for _, other := range u.BlockedBy {
		if o := doc.Get(other); o != nil {
			o.Blocks = types.Remove(o.Blocks, id)
			doc.Touch(o, now)
		}
	}
	for _, other := range u.RelatesTo {
		if o := doc.Get(other); o != nil {
			o.RelatesTo = types.Remove(o.RelatesTo, id)
			doc.Touch(o, now)
		}
	}

	u.Blocks = nil
	u.BlockedBy = nil
	u.DependsOn = nil
	u.RelatesTo = nil
	doc.Touch(u, now)
	return nil
}

// CascadeDelete removes id from every other unit's relationship fields in
// preparation for deleting the unit itself, and returns warnings
// describing the downstream impact.
func CascadeDelete(doc *types.WorkUnitsData, id string) ([]string, error) {
	u := doc.Get(id)
	if u == nil {
		return nil, &UnknownWorkUnitError{ID: id}
	}

	var warnings []string
	if n := len(u.Blocks); n > 0 {
		warnings = append(warnings, fmt.Sprintf("blocks %d work %s", n, pluralUnit(n)))
	}
	if n := len(u.BlockedBy); n > 0 {
		warnings = append(warnings, fmt.Sprintf("blocked by %d work %s", n, pluralUnit(n)))
	}

	dependents := 0
	now := time.Now()
	for _, other := range doc.WorkUnits {
		if other.ID == id {
			continue
		}
		changed := false
		if types.Contains(other.Blocks, id) {
			other.Blocks = types.Remove(other.Blocks, id)
			changed = true
		}
		if types.Contains(other.BlockedBy, id) {
			other.BlockedBy = types.Remove(other.BlockedBy, id)
			changed = true
		}
		if types.Contains(other.DependsOn, id) {
			other.DependsOn = types.Remove(other.DependsOn, id)
			dependents++
			changed = true
		}
		if types.Contains(other.RelatesTo, id) {
			other.RelatesTo = types.Remove(other.RelatesTo, id)
			changed = true
		}
		if changed {
			doc.Touch(other, now)
		}
	}
	if dependents > 0 {
		warnings = append(warnings, fmt.Sprintf("%d work %s depended on it", dependents, pluralUnit(dependents)))
	}

	u.Blocks = nil
	u.BlockedBy = nil
	u.DependsOn = nil
	u.RelatesTo = nil
	doc.Touch(u, now)
	return warnings, nil
}

func pluralUnit(n int) string {
	if n == 1 {
		return "unit"
	}
	return "units"
}
