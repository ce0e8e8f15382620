package rules

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Evaluates a rule against a content field document (dotted paths over
// nested maps). Returns a violation when ALL conditions hold, nil otherwise.
//
// A malformed condition (eg, a bad regex) evaluates false and is logged, so
// one broken rule definition can never block moderation of other content.
func Evaluate(rule *Rule, fields map[string]any) *Violation {
	for _, cond := range rule.Conditions {
		if !evalCondition(&cond, fields, rule.ID) {
			return nil
		}
	}
	return &Violation{
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		Severity:   rule.Severity,
		Confidence: ViolationConfidence,
	}
}

// Evaluates every active rule applicable to the content type, in the order
// given (callers pass rules sorted by priority descending). Rules evaluate
// independently; a failure in one never aborts the rest.
func EvaluateAll(ruleset []Rule, contentType string, fields map[string]any) []Violation {
	var out []Violation
	for i := range ruleset {
		r := &ruleset[i]
		if !r.Active || !r.AppliesTo(contentType) {
			continue
		}
		if v := Evaluate(r, fields); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Resolves a dotted path against nested string-keyed maps. A missing path
// returns (nil, false): the "undefined" value in the operator truth table.
func resolveField(fields map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = fields
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func evalCondition(cond *Condition, fields map[string]any, ruleID string) bool {
	val, defined := resolveField(fields, cond.Field)

	// undefined fields fail every operator except the negative ones, which
	// hold vacuously: an absent field does not equal (or contain) anything
	if !defined {
		return cond.Operator == OpNotEquals || cond.Operator == OpNotContains
	}

	switch cond.Operator {
	case OpEquals:
		return stringEq(val, cond.Value, cond.CaseSensitive)
	case OpNotEquals:
		return !stringEq(val, cond.Value, cond.CaseSensitive)
	case OpContains:
		return stringContains(val, cond.Value, cond.CaseSensitive)
	case OpNotContains:
		return !stringContains(val, cond.Value, cond.CaseSensitive)
	case OpStartsWith:
		a, b := fold(asString(val), cond.CaseSensitive), fold(asString(cond.Value), cond.CaseSensitive)
		return strings.HasPrefix(a, b)
	case OpEndsWith:
		a, b := fold(asString(val), cond.CaseSensitive), fold(asString(cond.Value), cond.CaseSensitive)
		return strings.HasSuffix(a, b)
	case OpRegexMatch:
		pattern := asString(cond.Value)
		if !cond.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			slog.Warn("skipping condition with malformed regex",
				"rule", ruleID, "field", cond.Field, "err", err)
			return false
		}
		return re.MatchString(asString(val))
	case OpGreaterThan:
		a, aok := asNumber(val)
		b, bok := asNumber(cond.Value)
		return aok && bok && a > b
	case OpLessThan:
		a, aok := asNumber(val)
		b, bok := asNumber(cond.Value)
		return aok && bok && a < b
	case OpInList:
		return inList(val, cond.Value, cond.CaseSensitive)
	case OpNotInList:
		return !inList(val, cond.Value, cond.CaseSensitive)
	default:
		slog.Warn("skipping condition with unknown operator",
			"rule", ruleID, "operator", string(cond.Operator))
		return false
	}
}

func fold(s string, caseSensitive bool) string {
	if caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringEq(a, b any, caseSensitive bool) bool {
	return fold(asString(a), caseSensitive) == fold(asString(b), caseSensitive)
}

func stringContains(haystack, needle any, caseSensitive bool) bool {
	return strings.Contains(fold(asString(haystack), caseSensitive), fold(asString(needle), caseSensitive))
}

func inList(val, list any, caseSensitive bool) bool {
	target := fold(asString(val), caseSensitive)
	switch l := list.(type) {
	case []string:
		for _, item := range l {
			if fold(item, caseSensitive) == target {
				return true
			}
		}
	case []any:
		for _, item := range l {
			if fold(asString(item), caseSensitive) == target {
				return true
			}
		}
	}
	return false
}
