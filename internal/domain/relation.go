package domain

import "strings"

// RelationType is the closed set of logical relations the LLM Analyzer
// classifies a market pair into. Dispatch must switch on this type, never
// on free-form analyzer text (spec.md §9).
type RelationType string

const (
	RelationImpliesAB    RelationType = "IMPLIES_AB"
	RelationImpliesBA    RelationType = "IMPLIES_BA"
	RelationEquivalent   RelationType = "EQUIVALENT"
	RelationMutualExcl   RelationType = "MUTUAL_EXCLUSIVE"
	RelationExhaustive   RelationType = "EXHAUSTIVE"
	RelationIndependent  RelationType = "INDEPENDENT"
)

// ValidRelationTypes lists every member of the closed set, for parsing an
// LLM response into the enum.
var ValidRelationTypes = map[RelationType]struct{}{
	RelationImpliesAB:   {},
	RelationImpliesBA:   {},
	RelationEquivalent:  {},
	RelationMutualExcl:  {},
	RelationExhaustive:  {},
	RelationIndependent: {},
}

// ParseRelationType maps free-form text to the closed enum, collapsing any
// unrecognized value to INDEPENDENT.
func ParseRelationType(s string) RelationType {
	r := RelationType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := ValidRelationTypes[r]; ok {
		return r
	}
	return RelationIndependent
}

// RelationshipAnalysis is the LLM Analyzer's structured output (spec.md §3).
type RelationshipAnalysis struct {
	Relation             RelationType
	Confidence           float64
	Reasoning             string
	EdgeCases             []string
	ResolutionCompatible bool
}

// contradictionKeywords maps a keyword found in Reasoning to the relation
// it asserts; used by the consistency check in spec.md §4.4.
var contradictionKeywords = map[string]RelationType{
	"mutually exclusive": RelationMutualExcl,
	"mutual exclusive":   RelationMutualExcl,
	"are equivalent":     RelationEquivalent,
	"independent":        RelationIndependent,
}

// EnforceConsistency implements spec.md §4.4's invariant: if Reasoning
// contains an explicit contradictory assertion against Relation, the
// record is rewritten to (INDEPENDENT, 0.0) with the contradiction noted
// in EdgeCases.
func (r *RelationshipAnalysis) EnforceConsistency() {
	lower := strings.ToLower(r.Reasoning)
	for phrase, asserted := range contradictionKeywords {
		if !strings.Contains(lower, phrase) {
			continue
		}
		if asserted == r.Relation {
			continue
		}
		// Reasoning asserts something other than the declared relation.
		r.EdgeCases = append(r.EdgeCases, "reasoning asserts \""+phrase+"\" but relation was "+string(r.Relation))
		r.Relation = RelationIndependent
		r.Confidence = 0.0
		return
	}
}
