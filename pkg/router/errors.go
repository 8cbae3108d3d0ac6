package router

import (
	"errors"
	"fmt"
)

// Configuration error codes. They match the codes registered in the CLI's
// error registry so startup failures print with a hint.
const (
	CodeDuplicateName    = "R101"
	CodeAmbiguousPattern = "R102"
	CodeMalformedPattern = "R103"
	CodeInvalidView      = "R104"
	CodeSealed           = "R105"
	CodeEmptyName        = "R106"
)

// ConfigurationError reports a malformed or conflicting route registration.
// It is fatal: the application must not start with a broken route table.
type ConfigurationError struct {
	// Code identifies the kind of problem (CodeDuplicateName, ...).
	Code string

	// Route is the name of the offending entry.
	Route string

	// Pattern is the path pattern of the offending entry.
	Pattern string

	// Err describes the problem.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	switch {
	case e.Route != "" && e.Pattern != "":
		return fmt.Sprintf("route %q (%s): %v", e.Route, e.Pattern, e.Err)
	case e.Pattern != "":
		return fmt.Sprintf("route %s: %v", e.Pattern, e.Err)
	case e.Route != "":
		return fmt.Sprintf("route %q: %v", e.Route, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// LoadError reports that a lazy view loader failed.
// It only affects the navigation that triggered the load.
type LoadError struct {
	// Route is the name of the route whose view failed to load.
	Route string

	// Err is the loader's error.
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load view for route %q: %v", e.Route, e.Err)
}

// Unwrap returns the loader's error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

var (
	// ErrNavigationCancelled is returned by Navigate when a later navigation
	// superseded it before its result could be published.
	ErrNavigationCancelled = errors.New("navigation cancelled by a newer navigation")

	// ErrNoHistory is returned by Back and Forward at either end of history.
	ErrNoHistory = errors.New("no history entry in that direction")

	// ErrUnknownRoute is returned by URL for an unregistered route name.
	ErrUnknownRoute = errors.New("unknown route")
)

// IsConfigurationError reports whether err is a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cerr *ConfigurationError
	return errors.As(err, &cerr)
}
