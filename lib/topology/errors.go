package topology

import (
	"errors"
	"fmt"
)

// --- Sentinel Errors ---
var (
	ErrDuplicateDeclaration = errors.New("node already declared")
	ErrUnknownBoundary      = errors.New("security boundary not declared")
	ErrUnknownDependency    = errors.New("dependency not declared")
)

// ConfigurationError reports an invalid or missing build option. It is raised
// before anything is declared.
type ConfigurationError struct {
	// Field is the option name as it appears in options files.
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// ResolutionError reports that the network-interface lookup for a security
// boundary returned no private address.
type ResolutionError struct {
	BoundaryID string
	Reason     string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve private address for boundary %s: %s", e.BoundaryID, e.Reason)
}
