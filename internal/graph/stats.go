package graph

import "github.com/fspec-dev/fspec/internal/types"

// Stats aggregates relationship counts across the document.
type Stats struct {
	WorkUnitsBlockingOthers       int     `json:"workUnitsBlockingOthers"`
	WorkUnitsWithBlockers         int     `json:"workUnitsWithBlockers"`
	WorkUnitsWithSoftDependencies int     `json:"workUnitsWithSoftDependencies"`
	AverageRelationships          float64 `json:"averageRelationships"`
	LongestChain                  int     `json:"longestChain"`
}

// ComputeStats walks the document once and derives the aggregate counts,
// plus the longest directed chain in the blocking graph. The chain length
// counts work units, so A blocks B blocks C is a chain of 3. Longest-path
// is well-defined because cycles are rejected at insertion time.
func ComputeStats(doc *types.WorkUnitsData) Stats {
	var s Stats
	total := 0
	for _, u := range doc.WorkUnits {
		if len(u.Blocks) > 0 {
			s.WorkUnitsBlockingOthers++
		}
		if len(u.BlockedBy) > 0 {
			s.WorkUnitsWithBlockers++
		}
		if len(u.DependsOn) > 0 {
			s.WorkUnitsWithSoftDependencies++
		}
		total += u.RelationshipCount()
	}
	if n := len(doc.WorkUnits); n > 0 {
		s.AverageRelationships = float64(total) / float64(n)
	}
	s.LongestChain = longestChain(doc)
	return s
}

// longestChain returns the node count of the longest directed path over
// blocks edges, memoized per node.
func longestChain(doc *types.WorkUnitsData) int {
	memo := make(map[string]int)

	var depth func(id string) int
	depth = func(id string) int {
		if d, ok := memo[id]; ok {
			return d
		}
		best := 1
		u := doc.Get(id)
		if u != nil {
			for _, next := range u.Blocks {
				if d := depth(next) + 1; d > best {
					best = d
				}
			}
		}
		memo[id] = best
		return best
	}

	longest := 0
	for id := range doc.WorkUnits {
		if d := depth(id); d > longest {
			longest = d
		}
	}
	return longest
}
