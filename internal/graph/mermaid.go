package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/fspec-dev/fspec/internal/types"
)

// StatusSymbol returns a compact indicator for a status, used in diagram
// and tree labels.
func StatusSymbol(status types.Status) string {
	switch status {
	case types.StatusBacklog:
		return "☐" // Ballot Box
	case types.StatusSpecifying, types.StatusTesting, types.StatusImplementing, types.StatusValidating:
		return "◧" // Square Left Half Black
	case types.StatusBlocked:
		return "⚠" // Warning Sign
	case types.StatusDone:
		return "☑" // Ballot Box with Check
	default:
		return "?"
	}
}

// WriteMermaid renders the relationship graph as a Mermaid.js flowchart.
// Blocking edges are solid arrows, soft dependencies dotted arrows, and
// relatesTo links undirected lines (emitted once per pair).
func WriteMermaid(doc *types.WorkUnitsData, w io.Writer) error {
	ids := doc.SortedIDs()

	if _, err := fmt.Fprintln(w, "flowchart TD"); err != nil {
		return err
	}
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "  empty[\"No work units\"]")
		return err
	}

	for _, id := range ids {
		u := doc.Get(id)
		label := fmt.Sprintf("%s %s: %s", StatusSymbol(u.Status), u.ID, u.Title)
		label = strings.ReplaceAll(label, "\\", "\\\\")
		label = strings.ReplaceAll(label, "\"", "\\\"")
		if _, err := fmt.Fprintf(w, "  %s[\"%s\"]\n", nodeID(id), label); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	seenRelates := make(map[string]bool)
	for _, id := range ids {
		u := doc.Get(id)
		for _, other := range u.Blocks {
			if _, err := fmt.Fprintf(w, "  %s -->|blocks| %s\n", nodeID(id), nodeID(other)); err != nil {
				return err
			}
		}
		for _, other := range u.DependsOn {
			if _, err := fmt.Fprintf(w, "  %s -.->|depends on| %s\n", nodeID(id), nodeID(other)); err != nil {
				return err
			}
		}
		for _, other := range u.RelatesTo {
			key := pairKey(id, other)
			if seenRelates[key] {
				continue
			}
			seenRelates[key] = true
			if _, err := fmt.Fprintf(w, "  %s --- %s\n", nodeID(id), nodeID(other)); err != nil {
				return err
			}
		}
	}
	return nil
}

// nodeID makes a work unit ID safe as a Mermaid node identifier.
func nodeID(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}
