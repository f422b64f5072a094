package layout

import (
	"fmt"
	"strings"
)

// SourceNotFoundError is returned when no source file under the configured roots matches a call
type SourceNotFoundError struct {
	Call  CallLocation
	Roots []string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("could not find source file for %v, looked in {%s}, maybe there are other source roots?",
		e.Call, strings.Join(e.Roots, ", "))
}
