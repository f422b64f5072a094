package inline

import (
	"fmt"

	"github.com/viant/selfie/layout"
)

// MismatchMessage starts every inline mismatch failure
const MismatchMessage = "Inline literal did not match the actual value"

// AssertionMismatchError is returned when a pinned literal differs and nothing permits a rewrite
type AssertionMismatchError struct {
	Call     layout.CallLocation
	Expected Literal
	Actual   Literal
}

func (e *AssertionMismatchError) Error() string {
	return fmt.Sprintf("%s\nexpected: %v\nactual:   %v\nat %v", MismatchMessage, e.Expected, e.Actual, e.Call)
}

// ConflictError is returned when two rewrites in one run target overlapping source spans
type ConflictError struct {
	Path string
	Line int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting rewrites of %v:%d, the same call site produced different values", e.Path, e.Line)
}

// CallNotFoundError is returned when no recognized call exists on the call line
type CallNotFoundError struct {
	Path   string
	Line   int
	Family Family
}

func (e *CallNotFoundError) Error() string {
	kind := "toBe"
	if e.Family == FamilyDisk {
		kind = "toMatchDisk"
	}
	return fmt.Sprintf("could not find a %v call at %v:%d", kind, e.Path, e.Line)
}
