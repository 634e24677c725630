// Package types defines core data structures for the fspec work-unit store.
package types

import (
	"fmt"
	"regexp"
	"time"
)

// WorkUnit represents one trackable unit of work
type WorkUnit struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Type        UnitType `json:"type"`

	// Relationship fields. Blocks/BlockedBy are maintained as mutual
	// inverses; DependsOn is one-directional; RelatesTo is symmetric.
	Blocks    []string `json:"blocks,omitempty"`
	BlockedBy []string `json:"blockedBy,omitempty"`
	DependsOn []string `json:"dependsOn,omitempty"`
	RelatesTo []string `json:"relatesTo,omitempty"`

	// BlockedReason is set when status becomes blocked via a relationship.
	BlockedReason string `json:"blockedReason,omitempty"`

	// StateHistory is append-only, one entry per transition, oldest first.
	StateHistory []StateEntry `json:"stateHistory,omitempty"`

	// Example Mapping fields, owned by collaborator commands but consumed
	// by the transition guards.
	Rules             []Rule       `json:"rules,omitempty"`
	Examples          []Example    `json:"examples,omitempty"`
	Questions         []Question   `json:"questions,omitempty"`
	ArchitectureNotes []string     `json:"architectureNotes,omitempty"`
	Attachments       []Attachment `json:"attachments,omitempty"`

	NextRuleID     int `json:"nextRuleId,omitempty"`
	NextExampleID  int `json:"nextExampleId,omitempty"`
	NextQuestionID int `json:"nextQuestionId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StateEntry records when a work unit entered a state.
type StateEntry struct {
	State     Status    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// Rule is an Example Mapping business rule.
type Rule struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Example is an Example Mapping concrete example illustrating a rule.
type Example struct {
	ID     int    `json:"id"`
	RuleID int    `json:"ruleId,omitempty"`
	Text   string `json:"text"`
}

// Question is an open Example Mapping question.
type Question struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Answered bool   `json:"answered,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// Attachment records research material attached to a work unit,
// e.g. AST research output gathered before test writing.
type Attachment struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttachmentKindASTResearch marks attachments produced by AST research.
const AttachmentKindASTResearch = "ast-research"

// Status represents the lifecycle state of a work unit
type Status string

// Work unit status constants
const (
	StatusBacklog      Status = "backlog"
	StatusSpecifying   Status = "specifying"
	StatusTesting      Status = "testing"
	StatusImplementing Status = "implementing"
	StatusValidating   Status = "validating"
	StatusDone         Status = "done"
	StatusBlocked      Status = "blocked"
)

// AllStatuses lists every status in lifecycle order, blocked last.
// The states-bucket map is keyed by these values.
var AllStatuses = []Status{
	StatusBacklog,
	StatusSpecifying,
	StatusTesting,
	StatusImplementing,
	StatusValidating,
	StatusDone,
	StatusBlocked,
}

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusBacklog, StatusSpecifying, StatusTesting, StatusImplementing,
		StatusValidating, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// UnitType categorizes the kind of work
type UnitType string

// Work unit type constants
const (
	TypeStory UnitType = "story"
	TypeTask  UnitType = "task"
	TypeBug   UnitType = "bug"
)

// IsValid checks if the unit type value is valid
func (t UnitType) IsValid() bool {
	switch t {
	case TypeStory, TypeTask, TypeBug:
		return true
	}
	return false
}

// RelationshipType categorizes a relationship between work units
type RelationshipType string

// Relationship type constants
const (
	RelBlocks    RelationshipType = "blocks"
	RelBlockedBy RelationshipType = "blockedBy"
	RelDependsOn RelationshipType = "dependsOn"
	RelRelatesTo RelationshipType = "relatesTo"
)

// AllRelationshipTypes lists every relationship kind.
var AllRelationshipTypes = []RelationshipType{
	RelBlocks, RelBlockedBy, RelDependsOn, RelRelatesTo,
}

// IsValid checks if the relationship type value is valid
func (r RelationshipType) IsValid() bool {
	switch r {
	case RelBlocks, RelBlockedBy, RelDependsOn, RelRelatesTo:
		return true
	}
	return false
}

var idPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*-\d+$`)

// ValidateID checks that a work unit ID has the <PREFIX>-<number> form.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid work unit id %q: expected <PREFIX>-<number> (e.g. AUTH-001)", id)
	}
	return nil
}

// Validate checks if the work unit has valid field values
func (w *WorkUnit) Validate() error {
	if err := ValidateID(w.ID); err != nil {
		return err
	}
	if len(w.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if !w.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", w.Status)
	}
	if !w.Type.IsValid() {
		return fmt.Errorf("invalid work unit type: %s", w.Type)
	}
	// Blocked units must record why; the graph side effect always sets this.
	if w.Status == StatusBlocked && w.BlockedReason == "" {
		return fmt.Errorf("blocked work units must have a blockedReason")
	}
	return nil
}

// CurrentStateEntry returns the most recent state history entry, or nil.
func (w *WorkUnit) CurrentStateEntry() *StateEntry {
	if len(w.StateHistory) == 0 {
		return nil
	}
	return &w.StateHistory[len(w.StateHistory)-1]
}

// StateEnteredAt returns the timestamp of the most recent entry into the
// given state, searching newest-first. The second return is false if the
// unit has never entered that state.
func (w *WorkUnit) StateEnteredAt(state Status) (time.Time, bool) {
	for i := len(w.StateHistory) - 1; i >= 0; i-- {
		if w.StateHistory[i].State == state {
			return w.StateHistory[i].Timestamp, true
		}
	}
	return time.Time{}, false
}

// RelationshipCount returns the total number of relationship entries on
// the unit across all four fields.
func (w *WorkUnit) RelationshipCount() int {
	return len(w.Blocks) + len(w.BlockedBy) + len(w.DependsOn) + len(w.RelatesTo)
}

// HasRelationships reports whether any relationship field is non-empty.
func (w *WorkUnit) HasRelationships() bool {
	return w.RelationshipCount() > 0
}
