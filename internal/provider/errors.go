package provider

import (
	"fmt"
	"strings"

	"github.com/communisaas/resolver-cli/internal/model"
)

// CapabilityMismatchError means no registered provider can serve a
// request's class. Fatal; surfaced immediately.
type CapabilityMismatchError struct {
	Class      model.TargetClass
	Registered []string
}

func (e *CapabilityMismatchError) Error() string {
	return fmt.Sprintf("no provider available for class %q (registered: %s)",
		e.Class, strings.Join(e.Registered, ", "))
}

// BackendFailureError means a provider's resolve call raised or timed out.
// Recoverable via router fallback when enabled, otherwise fatal.
type BackendFailureError struct {
	Provider string
	Err      error
}

func (e *BackendFailureError) Error() string {
	return fmt.Sprintf("provider %s failed: %v", e.Provider, e.Err)
}

func (e *BackendFailureError) Unwrap() error { return e.Err }

// AllProvidersFailedError means fallback exhausted every eligible provider.
type AllProvidersFailedError struct {
	Attempted []string
	Last      error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("All providers failed (attempted: %s): %v",
		strings.Join(e.Attempted, ", "), e.Last)
}

func (e *AllProvidersFailedError) Unwrap() error { return e.Last }

// ToolLoopExhaustedError means a reasoning-backend tool-call loop hit its
// iteration cap. Fatal for that call; no partial results are returned.
type ToolLoopExhaustedError struct {
	Iterations int
}

func (e *ToolLoopExhaustedError) Error() string {
	return fmt.Sprintf("tool-call loop exhausted after %d iterations", e.Iterations)
}
