package pipeline

import "strings"

const (
	maxRoleScore         = 20
	maxIndustryScore     = 20
	maxCompletenessScore = 10
	maxRuleScore         = 50
)

var (
	decisionMakerTitles = []string{"ceo", "cto", "vp", "director", "head", "founder"}
	influencerTitles    = []string{"manager", "lead", "senior"}

	primaryIndustries   = []string{"saas", "software", "tech"}
	secondaryIndustries = []string{"business", "sales"}
)

// RuleBreakdown holds the capped sub-scores that make up the rule score.
type RuleBreakdown struct {
	Role         int
	Industry     int
	Completeness int
}

// Total returns the sum of the sub-scores, clamped to 50.
func (b RuleBreakdown) Total() int {
	return clampScore(b.Role+b.Industry+b.Completeness, 0, maxRuleScore)
}

// RuleScore returns the deterministic rule score of a lead in [0,50].
func RuleScore(lead Lead) int {
	return Breakdown(lead).Total()
}

// Breakdown computes the three rule sub-scores.
func Breakdown(lead Lead) RuleBreakdown {
	return RuleBreakdown{
		Role:         scoreRole(lead.Role),
		Industry:     scoreIndustry(lead.Industry),
		Completeness: scoreCompleteness(lead),
	}
}

func scoreRole(role string) int {
	role = strings.ToLower(role)
	switch {
	case containsAny(role, decisionMakerTitles):
		return maxRoleScore
	case containsAny(role, influencerTitles):
		return 10
	default:
		return 0
	}
}

func scoreIndustry(industry string) int {
	industry = strings.ToLower(industry)
	switch {
	case containsAny(industry, primaryIndustries):
		return maxIndustryScore
	case containsAny(industry, secondaryIndustries):
		return 10
	default:
		return 0
	}
}

func scoreCompleteness(lead Lead) int {
	filled := 0
	for _, field := range []string{lead.Name, lead.Role, lead.Company, lead.Industry, lead.Location} {
		if strings.TrimSpace(field) != "" {
			filled++
		}
	}
	switch {
	case filled == 5:
		return maxCompletenessScore
	case filled >= 3:
		return 5
	default:
		return 0
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clampScore(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
