package composite

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/communisaas/resolver-cli/internal/model"
)

// foldCaser performs Unicode case folding for candidate name dedup.
var foldCaser = cases.Fold()

// foldName normalizes a person name for case-insensitive dedup. Two
// distinct people sharing a folded name collapse to the first seen.
func foldName(name string) string {
	return foldCaser.String(strings.TrimSpace(name))
}

// describeCandidate renders a candidate for thought-stream content.
func describeCandidate(p model.ResolvedPerson) string {
	s := p.Name
	if p.Title != "" {
		s += ", " + p.Title
	}
	if p.Organization != "" {
		s += " (" + p.Organization + ")"
	}
	return s
}
