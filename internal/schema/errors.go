package schema

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an execution failure so the planning layer can choose
// an automatic recovery action.
type ErrorKind string

const (
	ErrInvalidAction ErrorKind = "invalid_action" // malformed or unknown step; log and skip
	ErrCooldown      ErrorKind = "cooldown"       // ability not ready; retry silently next tick
	ErrLosBlocked    ErrorKind = "los_blocked"    // no line of sight; reposition next cycle
	ErrNoPath        ErrorKind = "no_path"        // unreachable target; substitute wait/scan
	ErrResource      ErrorKind = "resource"       // required resource absent; surface to caller
)

// EngineError is a classified execution failure carrying enough context
// (the offending name or value) to drive recovery.
type EngineError struct {
	Kind   ErrorKind
	Name   string // offending ability/resource/step name
	Detail string
}

func (e *EngineError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Name)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

// NewEngineError builds an error of the given kind.
func NewEngineError(kind ErrorKind, name string) *EngineError {
	return &EngineError{Kind: kind, Name: name}
}

// InvalidActionError reports a malformed or unknown step.
func InvalidActionError(detail string) *EngineError {
	return &EngineError{Kind: ErrInvalidAction, Detail: detail}
}

// CooldownError reports that the named ability has cooldown remaining.
func CooldownError(ability string) *EngineError {
	return &EngineError{Kind: ErrCooldown, Name: ability}
}

// LosBlockedError reports a blocked line of sight.
func LosBlockedError() *EngineError {
	return &EngineError{Kind: ErrLosBlocked}
}

// NoPathError reports an unreachable target cell.
func NoPathError() *EngineError {
	return &EngineError{Kind: ErrNoPath}
}

// ResourceError reports a missing required resource.
func ResourceError(resource string) *EngineError {
	return &EngineError{Kind: ErrResource, Name: resource}
}

// ErrorKindOf extracts the kind from an error chain, or "" when the chain
// holds no EngineError.
func ErrorKindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}
