package composite

import (
	"fmt"
	"strings"

	"github.com/communisaas/resolver-cli/internal/model"
)

// researchPrompt renders the primary-strategy research prompt. The model is
// asked for a JSON array in the parsedPerson shape so parsePeople can read
// it back.
func researchPrompt(req *model.ResolutionRequest) string {
	var b strings.Builder

	b.WriteString("Identify the people with real decision-making authority for the issue below. ")
	b.WriteString("Use current, citable sources. Respond with a JSON array only, one object per person: ")
	b.WriteString(`[{"name":"","title":"","organization":"","email":"","reasoning":"","source":"","confidence":0.0,"power":"primary|secondary|support"}]`)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Target classification: %s\n", req.Class)
	if req.EntityName != "" {
		fmt.Fprintf(&b, "Target entity: %s\n", req.EntityName)
	}
	if req.Scope != "" {
		fmt.Fprintf(&b, "Geographic scope: %s\n", req.Scope)
	}
	if req.Subject != "" {
		fmt.Fprintf(&b, "Issue: %s\n", req.Subject)
	}
	if len(req.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(req.Topics, ", "))
	}
	if req.Message != "" {
		fmt.Fprintf(&b, "\nConstituent message:\n%s\n", req.Message)
	}
	return b.String()
}

// extractionPrompt steers the extraction backend toward leadership and
// contact records for the named entity.
func extractionPrompt(req *model.ResolutionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract the leadership team and key decision-makers of %s: ", req.EntityName)
	b.WriteString("name, title, organization, and email where published. ")
	b.WriteString("Prefer leadership, about, and team pages.")
	if req.Subject != "" {
		fmt.Fprintf(&b, " Prioritize roles with authority over: %s.", req.Subject)
	}
	return b.String()
}
