package filters

import (
	"fmt"
	"strings"
)

// Operator is a SQL comparison operator as rendered into a WHERE clause.
type Operator string

const (
	// Comparison

	OperatorEq  Operator = "="
	OperatorNe  Operator = "!="
	OperatorLt  Operator = "<"
	OperatorGt  Operator = ">"
	OperatorLte Operator = "<="
	OperatorGte Operator = ">="

	// Pattern matching

	OperatorLike     Operator = "LIKE"
	OperatorILike    Operator = "ILIKE"
	OperatorNotLike  Operator = "NOT LIKE"
	OperatorNotILike Operator = "NOT ILIKE"

	// Postfix

	OperatorIsNull    Operator = "IS NULL"
	OperatorIsNotNull Operator = "IS NOT NULL"
)

// caseInsensitiveOperators maps frontend filter verbs to SQL when text
// comparisons should ignore case.
var caseInsensitiveOperators = map[string]Operator{
	"contains":         OperatorILike,
	"does not contain": OperatorNotILike,
	"is empty":         OperatorIsNull,
	"is not empty":     OperatorIsNotNull,
	"=":                OperatorEq,
	"!=":               OperatorNe,
	"<":                OperatorLt,
	">":                OperatorGt,
	"<=":               OperatorLte,
	">=":               OperatorGte,
}

var caseSensitiveOperators = map[string]Operator{
	"contains":         OperatorLike,
	"does not contain": OperatorNotLike,
	"is empty":         OperatorIsNull,
	"is not empty":     OperatorIsNotNull,
	"=":                OperatorEq,
	"!=":               OperatorNe,
	"<":                OperatorLt,
	">":                OperatorGt,
	"<=":               OperatorLte,
	">=":               OperatorGte,
}

// ConvertOperator translates a frontend filter verb to its SQL operator.
// Unknown verbs fall back to a fuzzy match (ILIKE) in case-insensitive mode
// and to plain equality otherwise.
func ConvertOperator(operator string, caseInsensitive bool) Operator {
	table := caseSensitiveOperators
	fallback := OperatorEq
	if caseInsensitive {
		table = caseInsensitiveOperators
		fallback = OperatorILike
	}

	if op, ok := table[operator]; ok {
		return op
	}
	return fallback
}

// Condition is a single column filter coming from the frontend.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
}

// Compile renders conditions into an AND-joined SQL fragment with positional
// placeholders starting at startIndex (1 when zero or negative). Postfix
// operators take no parameter; pattern operators wrap the value in
// %...% wildcards.
func Compile(conditions []Condition, startIndex int) (string, []any) {
	if startIndex < 1 {
		startIndex = 1
	}

	parts := make([]string, 0, len(conditions))
	params := make([]any, 0, len(conditions))

	for _, c := range conditions {
		switch c.Operator {
		case OperatorIsNull, OperatorIsNotNull:
			parts = append(parts, fmt.Sprintf("%s %s", c.Column, c.Operator))
		case OperatorLike, OperatorILike, OperatorNotLike, OperatorNotILike:
			parts = append(parts, fmt.Sprintf("%s %s $%d", c.Column, c.Operator, startIndex+len(params)))
			params = append(params, fmt.Sprintf("%%%v%%", c.Value))
		default:
			parts = append(parts, fmt.Sprintf("%s %s $%d", c.Column, c.Operator, startIndex+len(params)))
			params = append(params, c.Value)
		}
	}

	return strings.Join(parts, " AND "), params
}
