// Package faults defines the error kinds shared across the configuration,
// credential, and cache subsystems, plus a helper for tagging errors with
// component context. Callers classify failures with errors.Is against the
// exported sentinels; the CLI boundary maps them to exit codes.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKey indicates a path lookup for a key the resolver does not know.
	ErrUnknownKey = errors.New("unknown path key")
	// ErrCorruptConfig indicates a configuration file that exists but cannot be
	// parsed. Distinct from an absent file, which resolves to defaults.
	ErrCorruptConfig = errors.New("corrupt configuration")
	// ErrNotFound indicates a named entity that is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID indicates a registration collision.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrDanglingReference indicates a pipeline or content list that names a
	// service or source missing from the loaded provider document.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrProviderUnavailable indicates the remote auth provider could not be reached.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrSessionExpired indicates the device authorization window has closed.
	ErrSessionExpired = errors.New("session expired")
	// ErrAuthorizationDenied indicates the user rejected the device authorization.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrStorageIO indicates an embedded database failure, propagated uninterpreted.
	ErrStorageIO = errors.New("storage io error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStorageIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "subsystem failure"
	}
	return strings.Join(parts, ": ")
}
