package graph

import (
	"fmt"
	"strings"

	"github.com/fspec-dev/fspec/internal/types"
)

// UnknownWorkUnitError names the work unit that a relationship operation
// referenced but which does not exist in the document.
type UnknownWorkUnitError struct {
	ID string
}

func (e *UnknownWorkUnitError) Error() string {
	return fmt.Sprintf("work unit %s does not exist", e.ID)
}

// SelfDependencyError is returned when a work unit would relate to itself.
type SelfDependencyError struct {
	ID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("work unit %s cannot have a relationship with itself", e.ID)
}

// DuplicateDependencyError is returned when the relationship already
// exists in either direction for the given kind.
type DuplicateDependencyError struct {
	FromID string
	ToID   string
	Kind   types.RelationshipType
}

func (e *DuplicateDependencyError) Error() string {
	return fmt.Sprintf("%s relationship between %s and %s already exists", e.Kind, e.FromID, e.ToID)
}

// MissingRelationshipError is returned when a removal targets a
// relationship that is not recorded.
type MissingRelationshipError struct {
	FromID string
	ToID   string
	Kind   types.RelationshipType
}

func (e *MissingRelationshipError) Error() string {
	return fmt.Sprintf("no %s relationship from %s to %s", e.Kind, e.FromID, e.ToID)
}

// CircularDependencyError carries the full cycle path that the rejected
// edge would have closed, e.g. AUTH-002 -> AUTH-001 -> AUTH-002.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}
