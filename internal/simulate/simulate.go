// Package simulate produces heuristic cost estimates without calling any
// external service. All randomness comes from the *rand.Rand handed to New,
// so identical seeds give identical estimates.
package simulate

import (
	"math"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joelkehle/jobcost/internal/project"
)

const (
	MaterialsShare = 0.6
	LaborShare     = 0.4

	maxMultiplier    = 1.5
	highComplexity   = 1.2
	mediumComplexity = 1.1
	maxListLen       = 3
)

var (
	highComplexityKeywords   = []string{"custom", "luxury", "high-end", "complex", "intricate", "detailed"}
	mediumComplexityKeywords = []string{"upgrade", "modern", "new", "replace"}
)

var commonRisks = []string{
	"Material price fluctuations may affect the final cost",
	"Weather delays could extend the project timeline",
	"Hidden structural issues may be discovered once work begins",
	"Permit approval times vary by municipality",
}

var typeRisks = map[project.Type][]string{
	project.Kitchen: {
		"Existing plumbing may need updating to meet current code",
		"Electrical work may require a panel upgrade",
	},
	project.Bathroom: {
		"Existing plumbing may need updating to meet current code",
		"Electrical work may require a panel upgrade",
	},
	project.Roofing: {
		"Rain or high wind can halt tear-off and installation",
		"Roof deck damage may be found after the old roofing is removed",
	},
	project.Painting: {
		"Damaged surfaces may need extra preparation before painting",
		"Color matching may require additional coats",
	},
}

var recommendationPool = []string{
	"Schedule a pre-construction meeting to confirm scope and timeline",
	"Obtain 2-3 competitive bids before committing",
	"Verify contractor licensing and insurance coverage",
	"Get a signed contract that details scope, cost and payment schedule",
}

var printer = message.NewPrinter(language.English)

// Engine draws estimates from a single random source. It is not safe for
// concurrent use; build one per estimate.
type Engine struct {
	rng *rand.Rand
}

func New(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// BaselineCost draws uniformly from the cost range of t.
func (e *Engine) BaselineCost(t project.Type) float64 {
	r := t.Range().Cost
	return r[0] + e.rng.Float64()*(r[1]-r[0])
}

// TimelineDays draws uniformly from the inclusive day range of t.
func (e *Engine) TimelineDays(t project.Type) int {
	r := t.Range().Days
	return r[0] + e.rng.IntN(r[1]-r[0]+1)
}

// ComplexityMultiplier scales cost by keywords found in the description.
// Each keyword counts once; the result never exceeds 1.5.
func ComplexityMultiplier(description string) float64 {
	text := strings.ToLower(description)
	m := 1.0
	for _, k := range highComplexityKeywords {
		if strings.Contains(text, k) {
			m *= highComplexity
		}
	}
	for _, k := range mediumComplexityKeywords {
		if strings.Contains(text, k) {
			m *= mediumComplexity
		}
	}
	return math.Min(m, maxMultiplier)
}

// Breakdown splits a total into materials and labor at a fixed 60/40 ratio.
func Breakdown(total float64) (materials, labor float64) {
	return total * MaterialsShare, total * LaborShare
}

// Reasoning explains how a simulated estimate was reached.
func Reasoning(t project.Type, baseline, adjusted, multiplier float64) string {
	var sb strings.Builder
	sb.WriteString(printer.Sprintf("Based on typical %s projects, the baseline estimate is $%d.", t.Noun(), int64(math.Round(baseline))))
	switch {
	case multiplier > 1.15:
		pct := int(math.Round((adjusted - baseline) / baseline * 100))
		sb.WriteString(printer.Sprintf(" The estimate was adjusted upward by %d%% due to complexity factors in the project description.", pct))
	case multiplier > 1.0:
		sb.WriteString(" Minor adjustments were made for project-specific requirements.")
	}
	sb.WriteString(" The cost breakdown allocates materials (60%) and labor (40%) based on industry standards.")
	return sb.String()
}

// RiskFactors picks up to three risks from the common pool plus any
// risks specific to t.
func (e *Engine) RiskFactors(t project.Type) []string {
	pool := make([]string, 0, len(commonRisks)+2)
	pool = append(pool, commonRisks...)
	pool = append(pool, typeRisks[t]...)
	return e.pick(pool)
}

// Recommendations picks three of the generic recommendations.
func (e *Engine) Recommendations() []string {
	return e.pick(recommendationPool)
}

func (e *Engine) pick(pool []string) []string {
	out := make([]string, len(pool))
	copy(out, pool)
	e.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > maxListLen {
		out = out[:maxListLen]
	}
	return out
}

// Estimate runs the full simulation for one request.
func (e *Engine) Estimate(t project.Type, description string) project.Estimate {
	baseline := e.BaselineCost(t)
	multiplier := ComplexityMultiplier(description)
	adjusted := baseline * multiplier
	materials, labor := Breakdown(adjusted)
	return project.Estimate{
		EstimatedCost:     adjusted,
		MaterialsCost:     materials,
		LaborCost:         labor,
		Reasoning:         Reasoning(t, baseline, adjusted, multiplier),
		SuggestedTimeline: e.TimelineDays(t),
		RiskFactors:       e.RiskFactors(t),
		Recommendations:   e.Recommendations(),
		Source:            project.SourceSimulation,
	}
}
