package project

import (
	"fmt"
	"sort"
	"strings"
)

// Type identifies the kind of contractor job being estimated.
type Type string

const (
	Kitchen         Type = "kitchen"
	Bathroom        Type = "bathroom"
	Roofing         Type = "roofing"
	Painting        Type = "painting"
	Flooring        Type = "flooring"
	Fencing         Type = "fencing"
	Landscaping     Type = "landscaping"
	Plumbing        Type = "plumbing"
	Electrical      Type = "electrical"
	HVAC            Type = "hvac"
	Remodeling      Type = "remodeling"
	HomeImprovement Type = "homeImprovement"
)

// Range holds the published low/high bounds for a project type.
type Range struct {
	Cost [2]float64 `json:"cost_usd"`
	Days [2]int     `json:"days"`
}

var ranges = map[Type]Range{
	Kitchen:         {Cost: [2]float64{22000, 32000}, Days: [2]int{21, 45}},
	Bathroom:        {Cost: [2]float64{12000, 18000}, Days: [2]int{14, 28}},
	Roofing:         {Cost: [2]float64{10000, 16000}, Days: [2]int{7, 14}},
	Painting:        {Cost: [2]float64{3500, 6500}, Days: [2]int{3, 7}},
	Flooring:        {Cost: [2]float64{6000, 12000}, Days: [2]int{5, 10}},
	Fencing:         {Cost: [2]float64{4500, 8000}, Days: [2]int{3, 7}},
	Landscaping:     {Cost: [2]float64{3000, 7000}, Days: [2]int{7, 14}},
	Plumbing:        {Cost: [2]float64{2500, 5000}, Days: [2]int{2, 5}},
	Electrical:      {Cost: [2]float64{3000, 6000}, Days: [2]int{2, 7}},
	HVAC:            {Cost: [2]float64{6000, 12000}, Days: [2]int{3, 7}},
	Remodeling:      {Cost: [2]float64{25000, 45000}, Days: [2]int{30, 90}},
	HomeImprovement: {Cost: [2]float64{8000, 15000}, Days: [2]int{7, 21}},
}

var labels = map[Type]string{
	Kitchen:         "Kitchen",
	Bathroom:        "Bathroom",
	Roofing:         "Roofing",
	Painting:        "Painting",
	Flooring:        "Flooring",
	Fencing:         "Fencing",
	Landscaping:     "Landscaping",
	Plumbing:        "Plumbing",
	Electrical:      "Electrical",
	HVAC:            "HVAC",
	Remodeling:      "Remodeling",
	HomeImprovement: "Home Improvement",
}

// All returns every project type in declaration order.
func All() []Type {
	return []Type{
		Kitchen, Bathroom, Roofing, Painting, Flooring, Fencing,
		Landscaping, Plumbing, Electrical, HVAC, Remodeling, HomeImprovement,
	}
}

// Valid reports whether t is one of the known project types.
func (t Type) Valid() bool {
	_, ok := ranges[t]
	return ok
}

// Range returns the cost and day bounds for t. Unknown types get the
// home improvement range so callers never see a zero range.
func (t Type) Range() Range {
	if r, ok := ranges[t]; ok {
		return r
	}
	return ranges[HomeImprovement]
}

// Label is the display name, e.g. "Home Improvement".
func (t Type) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// Noun is the label as it reads inside a sentence ("kitchen", "HVAC").
func (t Type) Noun() string {
	if t == HVAC {
		return labels[HVAC]
	}
	return strings.ToLower(t.Label())
}

// Parse resolves a project type identifier. Matching ignores case, and
// underscores, hyphens and spaces are accepted as word separators.
func Parse(s string) (Type, error) {
	key := normalize(s)
	for _, t := range All() {
		if normalize(string(t)) == key {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown project type %q (known: %s)", s, strings.Join(names(), ", "))
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

func names() []string {
	out := make([]string, 0, len(ranges))
	for t := range ranges {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

// Request is the input to a single estimate.
type Request struct {
	ProjectType Type   `json:"project_type"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// Source records which path produced an Estimate.
type Source string

const (
	SourceAPI        Source = "api"
	SourceSimulation Source = "simulation"
	SourceFallback   Source = "fallback"
)

// Estimate is the structured cost and timeline result.
type Estimate struct {
	EstimatedCost     float64  `json:"estimated_cost"`
	MaterialsCost     float64  `json:"materials_cost"`
	LaborCost         float64  `json:"labor_cost"`
	Reasoning         string   `json:"reasoning"`
	SuggestedTimeline int      `json:"suggested_timeline_days"`
	RiskFactors       []string `json:"risk_factors"`
	Recommendations   []string `json:"recommendations"`
	Source            Source   `json:"source"`
}
