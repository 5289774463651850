package core

import (
	"errors"
	"fmt"

	"github.com/kilupskalvis/cfgmerge/internal/models"
)

// Sentinel errors for errors.Is checks. Use errors.As with the typed
// errors below for the input name and path.
var (
	ErrCircularReference = errors.New("circular reference")
	ErrMaxDepthExceeded  = errors.New("maximum depth exceeded")
)

// CircularReferenceError is returned when an input document refers back to
// one of its own ancestors. It is raised before any diffing starts.
type CircularReferenceError struct {
	Input string      // "base", "local", "remote", or "" for a standalone diff
	Path  models.Path // Where the cycle closes
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference in %s at %s", inputName(e.Input), pathName(e.Path))
}

func (e *CircularReferenceError) Is(target error) bool {
	return target == ErrCircularReference
}

// MaxDepthExceededError is returned when the diff recursion bound is hit
type MaxDepthExceededError struct {
	Input string
	Path  models.Path
	Limit int
}

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("maximum depth %d exceeded in %s at %s", e.Limit, inputName(e.Input), pathName(e.Path))
}

func (e *MaxDepthExceededError) Is(target error) bool {
	return target == ErrMaxDepthExceeded
}

func inputName(input string) string {
	if input == "" {
		return "document"
	}
	return input + " document"
}

func pathName(p models.Path) string {
	if p.IsRoot() {
		return "(root)"
	}
	return p.String()
}
