// internal/health/dsl.go
// A _very_ small expression language for single-comparison health rules.
// Its goal is to evaluate boolean conditions over the most recent gateway
// health metrics (e.g., subscriber count, dropped-chunk rate) with minimal
// allocations and zero third-party dependencies.
//
// DSL grammar (EBNF):
//
//	Expr   = Ident Sp? Op Sp? Number .
//	Ident  = letter { letter | '_' } ;
//	Op     = '>' | '>=' | '<' | '<=' | '==' | '!=' ;
//	Number = [0-9]+ ;
//	Sp     = { ' ' | '\t' } ;
//
// Example:
//
//	subscriber_count > 150
//	dropped_chunks_total >= 1000
//
// The parser returns a compiled predicate func(map[string]int64) bool. The
// health Engine (engine.go) does not use it: its rules are compiled with
// Compile from expr.go.
package health

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SimplePredicate evaluates to true when the health condition is met.
type SimplePredicate func(sample map[string]int64) bool

var (
    errEmptyExpr   = errors.New("empty expression")
    errInvalidExpr = errors.New("invalid expression")
)

// CompileSimple parses s and returns a SimplePredicate or error.
func CompileSimple(s string) (SimplePredicate, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return nil, errEmptyExpr
    }

    // Scan identifier.
    i := 0
    for i < len(s) && (unicode.IsLetter(rune(s[i])) || s[i] == '_') {
        i++
    }
    if i == 0 {
        return nil, errInvalidExpr
    }
    ident := strings.TrimSpace(s[:i])
    rest := strings.TrimSpace(s[i:])

    // Parse operator.
    opTable := []string{">=", "<=", "!=", "==", ">", "<"}
    var op string
    for _, candidate := range opTable {
        if strings.HasPrefix(rest, candidate) {
            op = candidate
            rest = strings.TrimSpace(rest[len(candidate):])
            break
        }
    }
    if op == "" {
        return nil, fmt.Errorf("%w: missing operator", errInvalidExpr)
    }

    // Number.
    if rest == "" {
        return nil, fmt.Errorf("%w: missing number", errInvalidExpr)
    }
    num, err := strconv.ParseInt(rest, 10, 64)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", errInvalidExpr, err)
    }

    switch op {
    case ">":
        return func(m map[string]int64) bool { return m[ident] > num }, nil
    case ">=":
        return func(m map[string]int64) bool { return m[ident] >= num }, nil
    case "<":
        return func(m map[string]int64) bool { return m[ident] < num }, nil
    case "<=":
        return func(m map[string]int64) bool { return m[ident] <= num }, nil
    case "==":
        return func(m map[string]int64) bool { return m[ident] == num }, nil
    case "!=":
        return func(m map[string]int64) bool { return m[ident] != num }, nil
    default:
        return nil, errInvalidExpr
    }
}
