package graph

import (
	"fmt"
	"time"

	"github.com/fspec-dev/fspec/internal/types"
)

// Repair re-derives missing inverse edges and re-buckets units whose
// states entry disagrees with their status field. It is the out-of-band
// recovery pass for invariant violations that the normal guards make
// unreachable; returns a description of every fix applied.
func Repair(doc *types.WorkUnitsData) []string {
	var fixes []string
	now := time.Now()

	for _, id := range doc.SortedIDs() {
		u := doc.Get(id)

		for _, other := range u.Blocks {
			o := doc.Get(other)
			if o == nil || types.Contains(o.BlockedBy, id) {
				continue
			}
			o.BlockedBy = append(o.BlockedBy, id)
			doc.Touch(o, now)
			fixes = append(fixes, fmt.Sprintf("restored %s.blockedBy entry for %s", other, id))
		}
		for _, other := range u.BlockedBy {
			o := doc.Get(other)
			if o == nil || types.Contains(o.Blocks, id) {
				continue
			}
			o.Blocks = append(o.Blocks, id)
			doc.Touch(o, now)
			fixes = append(fixes, fmt.Sprintf("restored %s.blocks entry for %s", other, id))
		}
		for _, other := range u.RelatesTo {
			o := doc.Get(other)
			if o == nil || types.Contains(o.RelatesTo, id) {
				continue
			}
			o.RelatesTo = append(o.RelatesTo, id)
			doc.Touch(o, now)
			fixes = append(fixes, fmt.Sprintf("restored %s.relatesTo entry for %s", other, id))
		}

		// Drop dangling references to deleted units.
		for _, field := range []struct {
			name string
			list *[]string
		}{
			{"blocks", &u.Blocks},
			{"blockedBy", &u.BlockedBy},
			{"dependsOn", &u.DependsOn},
			{"relatesTo", &u.RelatesTo},
		} {
			for _, other := range *field.list {
				if doc.Get(other) == nil {
					*field.list = types.Remove(*field.list, other)
					doc.Touch(u, now)
					fixes = append(fixes, fmt.Sprintf("dropped dangling %s.%s reference to %s", id, field.name, other))
				}
			}
		}
	}

	// Re-bucket units whose states entry disagrees with their status.
	inBucket := make(map[string]types.Status)
	for status, ids := range doc.States {
		for _, id := range ids {
			inBucket[id] = status
		}
	}
	for _, id := range doc.SortedIDs() {
		u := doc.Get(id)
		bucket, ok := inBucket[id]
		if !ok {
			doc.States[u.Status] = append(doc.States[u.Status], id)
			fixes = append(fixes, fmt.Sprintf("placed %s into the %s bucket", id, u.Status))
			continue
		}
		if bucket != u.Status {
			doc.MoveToBucket(id, bucket, u.Status)
			fixes = append(fixes, fmt.Sprintf("moved %s from the %s bucket to %s", id, bucket, u.Status))
		}
	}
	for status, ids := range doc.States {
		for _, id := range ids {
			if doc.Get(id) == nil {
				doc.States[status] = types.Remove(doc.States[status], id)
				fixes = append(fixes, fmt.Sprintf("removed deleted unit %s from the %s bucket", id, status))
			}
		}
	}

	return fixes
}
