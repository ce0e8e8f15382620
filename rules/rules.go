package rules

// Policy rules are user-defined: operators and conditions arrive from
// storage as data, not code. The interpreter in eval.go matches them against
// content field documents.

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpRegexMatch  Operator = "regex_match"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpInList      Operator = "in_list"
	OpNotInList   Operator = "not_in_list"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// One predicate over a dotted content field path. The zero CaseSensitive
// value (false) lower-cases both operands before string comparison.
type Condition struct {
	Field         string
	Operator      Operator
	Value         any
	CaseSensitive bool
}

// A stored policy rule. Conditions are evaluated in order with AND
// semantics: the rule is violated only when every condition holds.
type Rule struct {
	ID           string
	Name         string
	Conditions   []Condition
	Priority     int
	Severity     Severity
	ContentTypes map[string]bool
	Active       bool
}

// Whether the rule applies to the given content type. An empty set means
// the rule applies to everything.
func (r *Rule) AppliesTo(contentType string) bool {
	if len(r.ContentTypes) == 0 {
		return true
	}
	return r.ContentTypes[contentType]
}

// Rule matches are reported with a fixed confidence; rule authors assert the
// conditions, the engine does not second-guess them.
const ViolationConfidence = 0.9

type Violation struct {
	RuleID     string
	RuleName   string
	Severity   Severity
	Confidence float64
}
