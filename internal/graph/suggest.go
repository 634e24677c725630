package graph

import (
	"fmt"
	"strings"

	"github.com/fspec-dev/fspec/internal/types"
)

// Suggestion proposes a likely dependsOn edge. Suggestions are purely
// advisory; nothing is mutated and the caller decides whether to apply.
type Suggestion struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	Reason string `json:"reason"`
}

// Title keywords hinting that a unit's work follows another's output.
var followerKeywords = []string{"test", "verify", "validate"}
var producerKeywords = []string{"build", "implement", "create", "add"}

// Suggest proposes likely dependsOn edges from ID and naming patterns:
// a unit whose numeric suffix directly follows another in the same prefix
// probably builds on it, and "test X" units probably follow "build X"
// units. A pair is never suggested in both directions, and pairs that
// already have any relationship are skipped.
func Suggest(doc *types.WorkUnitsData) []Suggestion {
	var out []Suggestion
	proposed := make(map[string]bool)

	propose := func(fromID, toID, reason string) {
		if fromID == toID {
			return
		}
		key := fromID + "->" + toID
		reverse := toID + "->" + fromID
		if proposed[key] || proposed[reverse] {
			return
		}
		from := doc.Get(fromID)
		to := doc.Get(toID)
		if from == nil || to == nil {
			return
		}
		if related(from, toID) || related(to, fromID) {
			return
		}
		proposed[key] = true
		out = append(out, Suggestion{FromID: fromID, ToID: toID, Reason: reason})
	}

	ids := doc.SortedIDs()

	// Sequential numeric suffixes within a prefix.
	for _, id := range ids {
		prefix, n := types.SplitID(id)
		if n <= 1 {
			continue
		}
		prev := types.FormatID(prefix, n-1)
		if doc.Get(prev) != nil {
			propose(id, prev, fmt.Sprintf("%s directly follows %s in the %s sequence", id, prev, prefix))
		}
	}

	// Follower/producer title keywords within the same prefix.
	for _, id := range ids {
		u := doc.Get(id)
		if !titleContainsAny(u.Title, followerKeywords) {
			continue
		}
		prefix, _ := types.SplitID(id)
		for _, otherID := range ids {
			if otherID == id {
				continue
			}
			if p, _ := types.SplitID(otherID); p != prefix {
				continue
			}
			other := doc.Get(otherID)
			if titleContainsAny(other.Title, producerKeywords) {
				propose(id, otherID, fmt.Sprintf("%q looks like follow-up work for %q", u.Title, other.Title))
			}
		}
	}

	return out
}

func related(u *types.WorkUnit, otherID string) bool {
	return types.Contains(u.Blocks, otherID) ||
		types.Contains(u.BlockedBy, otherID) ||
		types.Contains(u.DependsOn, otherID) ||
		types.Contains(u.RelatesTo, otherID)
}

func titleContainsAny(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
