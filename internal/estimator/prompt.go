package estimator

import (
	"fmt"
	"strings"

	"github.com/joelkehle/jobcost/internal/project"
)

const estimatePrompt = `You are an experienced general contractor preparing a cost estimate for a client.

Project type: %s
Project address: %s
Project description: %s

Estimate the total cost and timeline for this project. Consider:
- Current material and labor pricing for 2024-2026
- Regional cost variation for the project address
- A typical contractor profit margin of 15-20%%
- Permits, disposal, and site preparation where relevant

Respond with a single JSON object and nothing else, using exactly these fields:
{
  "total_cost": <number, USD>,
  "materials_cost": <number, USD>,
  "labor_cost": <number, USD>,
  "timeline_days": <integer>,
  "reasoning": "<2-3 sentences explaining the estimate>",
  "risk_factors": ["<risk 1>", "<risk 2>", "<risk 3>"],
  "recommendations": ["<recommendation 1>", "<recommendation 2>", "<recommendation 3>"]
}`

// BuildPrompt renders the estimation prompt. Output depends only on the
// arguments.
func BuildPrompt(t project.Type, address, description string) string {
	return fmt.Sprintf(estimatePrompt, t.Label(), orNotSpecified(address), orNotSpecified(description))
}

func orNotSpecified(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Not specified"
	}
	return s
}
