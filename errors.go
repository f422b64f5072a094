package selfie

import (
	"fmt"
	"strings"

	"github.com/viant/selfie/layout"
	"github.com/viant/selfie/snapshot"
)

const (
	noSuchSnapshot   = "No such snapshot"
	snapshotMismatch = "Snapshot mismatch"
)

// DiskMismatchError is returned in read mode when the stored snapshot is missing or differs
type DiskMismatchError struct {
	Call     layout.CallLocation
	Key      snapshot.Key
	Expected *snapshot.Snapshot // nil when missing
	Actual   snapshot.Snapshot // empty for a memo, it is not computed in read mode
}

// IsMissing returns true when no snapshot was stored
func (e *DiskMismatchError) IsMissing() bool {
	return e.Expected == nil
}

func (e *DiskMismatchError) Error() string {
	builder := strings.Builder{}
	if e.IsMissing() {
		builder.WriteString(noSuchSnapshot)
	} else {
		builder.WriteString(snapshotMismatch)
	}
	builder.WriteString(fmt.Sprintf(" %v at %v", e.Key, e.Call))
	if e.Expected != nil {
		builder.WriteString("\nexpected:\n")
		builder.WriteString(e.Expected.String())
	}
	if actual := e.Actual.String(); actual != "" {
		builder.WriteString("\nactual:\n")
		builder.WriteString(actual)
	}
	builder.WriteString("\nre-run in write mode (SELFIE_MODE=write) or add a // selfieonce comment to the call to record it")
	return builder.String()
}

func (e *DiskMismatchError) Unwrap() error {
	if e.IsMissing() {
		return snapshot.ErrNotFound
	}
	return nil
}
