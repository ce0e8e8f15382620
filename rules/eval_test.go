package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func listingFields(title, description string) map[string]any {
	return map[string]any{
		"title":       title,
		"description": description,
		"seller": map[string]any{
			"region": "eu-west",
			"rating": 4.2,
		},
	}
}

func TestContainsCaseInsensitive(t *testing.T) {
	assert := assert.New(t)

	rule := Rule{
		ID:       "r1",
		Severity: SeverityMedium,
		Active:   true,
		Conditions: []Condition{
			{Field: "title", Operator: OpContains, Value: "spam", CaseSensitive: false},
		},
	}
	v := Evaluate(&rule, listingFields("SPAM deal", ""))
	assert.NotNil(v)
	assert.Equal("r1", v.RuleID)
	assert.Equal(ViolationConfidence, v.Confidence)

	rule.Conditions[0].CaseSensitive = true
	assert.Nil(Evaluate(&rule, listingFields("SPAM deal", "")))
}

func TestAndSemantics(t *testing.T) {
	assert := assert.New(t)

	rule := Rule{
		ID:     "r2",
		Active: true,
		Conditions: []Condition{
			{Field: "title", Operator: OpContains, Value: "deal"},
			{Field: "description", Operator: OpContains, Value: "crypto"},
		},
	}
	assert.Nil(Evaluate(&rule, listingFields("hot deal", "plain text")))
	assert.NotNil(Evaluate(&rule, listingFields("hot deal", "buy crypto now")))
}

func TestUndefinedFieldTruthTable(t *testing.T) {
	assert := assert.New(t)
	fields := listingFields("a title", "")

	positive := []Operator{OpEquals, OpContains, OpStartsWith, OpEndsWith, OpRegexMatch, OpGreaterThan, OpLessThan, OpInList}
	for _, op := range positive {
		rule := Rule{ID: "r3", Active: true, Conditions: []Condition{
			{Field: "no.such.field", Operator: op, Value: "x"},
		}}
		assert.Nil(Evaluate(&rule, fields), "operator %s should be false on undefined field", op)
	}

	for _, op := range []Operator{OpNotEquals, OpNotContains} {
		rule := Rule{ID: "r4", Active: true, Conditions: []Condition{
			{Field: "no.such.field", Operator: op, Value: "x"},
		}}
		assert.NotNil(Evaluate(&rule, fields), "operator %s should be true on undefined field", op)
	}
}

func TestDottedPathAndNumericOps(t *testing.T) {
	assert := assert.New(t)
	fields := listingFields("t", "d")

	rule := Rule{ID: "r5", Active: true, Conditions: []Condition{
		{Field: "seller.rating", Operator: OpLessThan, Value: 4.5},
	}}
	assert.NotNil(Evaluate(&rule, fields))

	rule.Conditions[0].Operator = OpGreaterThan
	assert.Nil(Evaluate(&rule, fields))

	// numeric comparison against a string operand still works
	rule.Conditions[0] = Condition{Field: "seller.rating", Operator: OpGreaterThan, Value: "4.0"}
	assert.NotNil(Evaluate(&rule, fields))
}

func TestRegexOps(t *testing.T) {
	assert := assert.New(t)
	fields := listingFields("Contact me at example@test.com", "")

	rule := Rule{ID: "r6", Active: true, Conditions: []Condition{
		{Field: "title", Operator: OpRegexMatch, Value: `[\w.]+@[\w.]+`},
	}}
	assert.NotNil(Evaluate(&rule, fields))

	// malformed regex degrades to false instead of erroring
	rule.Conditions[0].Value = `[unclosed`
	assert.Nil(Evaluate(&rule, fields))
}

func TestListOps(t *testing.T) {
	assert := assert.New(t)
	fields := map[string]any{"seller": map[string]any{"region": "EU-West"}}

	rule := Rule{ID: "r7", Active: true, Conditions: []Condition{
		{Field: "seller.region", Operator: OpInList, Value: []string{"eu-west", "eu-north"}},
	}}
	assert.NotNil(Evaluate(&rule, fields))

	rule.Conditions[0].Operator = OpNotInList
	assert.Nil(Evaluate(&rule, fields))

	rule.Conditions[0] = Condition{Field: "seller.region", Operator: OpInList, Value: []string{"eu-west"}, CaseSensitive: true}
	assert.Nil(Evaluate(&rule, fields))
}

func TestEvaluateAllFiltersAndContinues(t *testing.T) {
	assert := assert.New(t)

	ruleset := []Rule{
		{ID: "inactive", Active: false, Conditions: []Condition{
			{Field: "title", Operator: OpContains, Value: "deal"},
		}},
		{ID: "wrong-type", Active: true, ContentTypes: map[string]bool{"review": true}, Conditions: []Condition{
			{Field: "title", Operator: OpContains, Value: "deal"},
		}},
		{ID: "broken-regex", Active: true, Conditions: []Condition{
			{Field: "title", Operator: OpRegexMatch, Value: `(`},
		}},
		{ID: "matches", Active: true, Severity: SeverityHigh, Conditions: []Condition{
			{Field: "title", Operator: OpContains, Value: "deal"},
		}},
	}
	violations := EvaluateAll(ruleset, "listing", listingFields("daily deal", ""))
	assert.Len(violations, 1)
	assert.Equal("matches", violations[0].RuleID)
}

func TestStartsEndsWith(t *testing.T) {
	assert := assert.New(t)
	fields := listingFields("URGENT: act now", "")

	rule := Rule{ID: "r8", Active: true, Conditions: []Condition{
		{Field: "title", Operator: OpStartsWith, Value: "urgent"},
	}}
	assert.NotNil(Evaluate(&rule, fields))

	rule.Conditions[0] = Condition{Field: "title", Operator: OpEndsWith, Value: "NOW"}
	assert.NotNil(Evaluate(&rule, fields))

	rule.Conditions[0].CaseSensitive = true
	assert.Nil(Evaluate(&rule, fields))
}
