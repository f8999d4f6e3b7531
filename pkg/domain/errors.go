package domain

import (
	"fmt"
	"sort"
	"strings"
)

// NotFoundError is returned when an operation references an unknown record.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// InvalidTransitionError is returned when a status change is not permitted by
// the entity's lifecycle.
type InvalidTransitionError struct {
	Entity EntityType
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %q to %q", e.Entity, e.ID, e.From, e.To)
}

// Reference roles reported by MissingReferenceError.
const (
	RoleProfileRef   = "profile"
	RoleGlassRef     = "glass"
	RoleHardwareRef  = "hardware"
	RoleInventoryRef = "inventory item"
)

// MissingReferenceError is returned when a costing or stock operation names an
// inventory item that does not exist.
type MissingReferenceError struct {
	Role string
	ID   string
}

func (e *MissingReferenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("missing %s reference", e.Role)
	}
	return fmt.Sprintf("missing %s reference %q", e.Role, e.ID)
}

// PersistenceError wraps a failed durable write. The in-memory state is not
// changed when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// InsufficientStockError is returned when a consumption would drive an item negative.
type InsufficientStockError struct {
	ItemID    string
	Available float64
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory item %s has %g available, %g requested", e.ItemID, e.Available, e.Requested)
}

// ValidationError reports rejected input fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
