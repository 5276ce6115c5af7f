package encode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alharthydev/compresspro/internal/types"
)

var (
	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrUnsupportedFormat is returned when the input cannot be read as video.
	ErrUnsupportedFormat = errors.New("unsupported input format")
	// ErrInsufficientDiskSpace is returned when the output volume lacks room.
	ErrInsufficientDiskSpace = errors.New("insufficient disk space for output")
)

// AllFailedError aggregates the diagnostics of every failed candidate
// attempt. It is returned only when no candidate could be opened,
// including the software fallback.
type AllFailedError struct {
	Attempts []types.AttemptResult
}

func (e *AllFailedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "all %d encoder candidates failed:", len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&sb, " [%s: %s]", a.Candidate.Encoder, a.Diagnostic)
	}
	return sb.String()
}
