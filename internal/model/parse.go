package model

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// parsedPerson is the JSON shape research backends are asked to emit.
type parsedPerson struct {
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Organization string  `json:"organization"`
	Email        string  `json:"email"`
	Reasoning    string  `json:"reasoning"`
	Source       string  `json:"source"`
	Confidence   float64 `json:"confidence"`
	Power        string  `json:"power"`
}

// ParsePeople extracts a candidate array from research-backend output,
// tolerating code fences and surrounding prose. Entries without a name are
// dropped; confidence scores are clamped into [0,1].
func ParsePeople(text string) ([]ResolvedPerson, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.Errorf("model: no candidate array in response: %.120s", text)
	}

	var parsed []parsedPerson
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, eris.Wrap(err, "model: parse candidates")
	}

	people := make([]ResolvedPerson, 0, len(parsed))
	for _, p := range parsed {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		person := ResolvedPerson{
			Name:         p.Name,
			Title:        p.Title,
			Organization: p.Organization,
			Email:        p.Email,
			Reasoning:    p.Reasoning,
			Source:       p.Source,
			Confidence:   p.Confidence,
			Power:        parsePower(p.Power, p.Title),
		}
		person.ClampConfidence()
		people = append(people, person)
	}
	return people, nil
}

// parsePower maps a backend-supplied power label to a PowerLevel, falling
// back to a title heuristic when absent or unrecognized.
func parsePower(label, title string) PowerLevel {
	switch PowerLevel(strings.ToLower(label)) {
	case PowerPrimary, PowerSecondary, PowerSupport:
		return PowerLevel(strings.ToLower(label))
	}
	return PowerFromTitle(title)
}

// PowerFromTitle guesses authority from a job title.
func PowerFromTitle(title string) PowerLevel {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "ceo"),
		strings.Contains(t, "president"),
		strings.Contains(t, "chair"),
		strings.Contains(t, "executive director"),
		strings.Contains(t, "superintendent"),
		strings.Contains(t, "mayor"),
		strings.Contains(t, "commissioner"):
		return PowerPrimary
	case strings.Contains(t, "vice"),
		strings.Contains(t, "deputy"),
		strings.Contains(t, "chief"),
		strings.Contains(t, "director"),
		strings.Contains(t, "head of"):
		return PowerSecondary
	default:
		return PowerSupport
	}
}
