package graph

import "github.com/fspec-dev/fspec/internal/types"

// findPath runs a depth-first search over the blocks edges and returns
// the path from start to target inclusive, or nil when target is not
// reachable. Callers use it both for cycle rejection (is the blocked unit
// already upstream of the blocker?) and for reporting the offending path.
func findPath(doc *types.WorkUnitsData, start, target string) []string {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var stack []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		stack = append(stack, id)
		if id == target {
			return true
		}
		visiting[id] = true
		u := doc.Get(id)
		if u != nil {
			for _, next := range u.Blocks {
				if visited[next] || visiting[next] {
					continue
				}
				if dfs(next) {
					return true
				}
			}
		}
		visiting[id] = false
		visited[id] = true
		stack = stack[:len(stack)-1]
		return false
	}

	if dfs(start) {
		return stack
	}
	return nil
}

// DetectCycles scans the whole blocks graph and returns every distinct
// cycle found, each as a closed path. The insertion-time guard keeps
// committed documents acyclic, so a non-empty result indicates an
// externally corrupted document.
func DetectCycles(doc *types.WorkUnitsData) [][]string {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)
	color := make(map[string]int)
	var stack []string
	var cycles [][]string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		u := doc.Get(id)
		if u != nil {
			for _, next := range u.Blocks {
				switch color[next] {
				case white:
					dfs(next)
				case gray:
					// Back edge: the cycle is the stack suffix from next.
					for i, v := range stack {
						if v == next {
							cycle := append([]string{}, stack[i:]...)
							cycle = append(cycle, next)
							cycles = append(cycles, cycle)
							break
						}
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, id := range doc.SortedIDs() {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}
