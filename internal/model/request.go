package model

import "context"

// TargetClass identifies what kind of decision-making body a request is
// aimed at. It is deliberately an open string: new classes can be routed
// without code changes. Strategy selection branches only on the well-known
// values below; unknown classes fall through to whatever provider accepts
// them.
type TargetClass string

// Well-known target classes.
const (
	ClassLegislative    TargetClass = "legislative"
	ClassMunicipal      TargetClass = "municipal"
	ClassRegulatory     TargetClass = "regulatory"
	ClassOrganizational TargetClass = "organizational"
	ClassCorporate      TargetClass = "corporate"
	ClassEducational    TargetClass = "educational"
	ClassHealthcare     TargetClass = "healthcare"
)

// RequiresEntity reports whether resolution for this class needs a named
// target entity (the entity-extraction strategies cannot run without one).
func (c TargetClass) RequiresEntity() bool {
	switch c {
	case ClassOrganizational, ClassCorporate, ClassEducational, ClassHealthcare:
		return true
	default:
		return false
	}
}

// ResolutionRequest describes one "who can act on this" question.
//
// Class is always present. EntityName is required only for classes where
// RequiresEntity is true; the router does not enforce this globally,
// providers reject requests they cannot serve via CanResolve.
type ResolutionRequest struct {
	Class      TargetClass `json:"class"`
	EntityName string      `json:"entity_name,omitempty"`
	EntityURL  string      `json:"entity_url,omitempty"`
	Subject    string      `json:"subject,omitempty"`
	Message    string      `json:"message,omitempty"`
	Topics     []string    `json:"topics,omitempty"`
	Scope      string      `json:"scope,omitempty"` // geographic scope, free text

	// Ctx carries the caller's cancellation signal into provider calls.
	// Providers must consult it before each backend call.
	Ctx context.Context `json:"-"`

	// Sink receives thought events during resolution. Nil is valid: events
	// are dropped.
	Sink ThoughtSink `json:"-"`
}

// Context returns the request's cancellation context, defaulting to
// context.Background when the caller did not set one.
func (r *ResolutionRequest) Context() context.Context {
	if r.Ctx != nil {
		return r.Ctx
	}
	return context.Background()
}
