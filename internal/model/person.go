package model

// PowerLevel classifies how much authority a resolved person holds over the
// issue at hand.
type PowerLevel string

const (
	PowerPrimary   PowerLevel = "primary"
	PowerSecondary PowerLevel = "secondary"
	PowerSupport   PowerLevel = "support"
)

// ResolvedPerson is one contactable decision-maker candidate.
type ResolvedPerson struct {
	Name         string     `json:"name"`
	Title        string     `json:"title"`
	Organization string     `json:"organization"`
	Email        string     `json:"email,omitempty"`
	Reasoning    string     `json:"reasoning,omitempty"`
	Source       string     `json:"source,omitempty"`
	Confidence   float64    `json:"confidence"`
	Power        PowerLevel `json:"power,omitempty"`

	// Provenance is an append-only trail of the stages that produced or
	// adjusted this candidate. Stages append; they never rewrite history.
	Provenance []string `json:"provenance,omitempty"`
}

// AppendProvenance records a stage note on the candidate's trail.
func (p *ResolvedPerson) AppendProvenance(note string) {
	p.Provenance = append(p.Provenance, note)
}

// ClampConfidence forces the confidence score into [0,1].
func (p *ResolvedPerson) ClampConfidence() {
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
}
