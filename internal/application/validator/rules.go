package validator

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// transitionEnv is the evaluation environment for a compiled utility
// compatibility rule: (fromUtility, toUtility).
type transitionEnv struct {
	From int `expr:"from"`
	To   int `expr:"to"`
}

// CompatibilityTable is the Validator's configurable utility-compatibility
// rule table (spec §4.F check 2, §9 "leaves the concrete transition matrix
// as a deployment input"). Each rule is an expr-lang expression over `from`
// and `to` returning a bool; the first matching rule wins. An empty table
// treats every transition as compatible, matching the source's empty
// `_utility_compatibility_cache`.
type CompatibilityTable struct {
	programs []*vm.Program
}

// NewCompatibilityTable compiles a list of expr-lang rule expressions, e.g.
// []string{"from == to", "from == 0 || to == 0"}.
func NewCompatibilityTable(rules []string) (*CompatibilityTable, error) {
	t := &CompatibilityTable{programs: make([]*vm.Program, 0, len(rules))}
	for _, r := range rules {
		p, err := expr.Compile(r, expr.Env(transitionEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile compatibility rule %q: %w", r, err)
		}
		t.programs = append(t.programs, p)
	}
	return t, nil
}

// Compatible reports whether the transition (from -> to) is allowed. With no
// rules configured, every transition is compatible.
func (t *CompatibilityTable) Compatible(from, to int) (bool, error) {
	if len(t.programs) == 0 {
		return true, nil
	}
	env := transitionEnv{From: from, To: to}
	for _, p := range t.programs {
		out, err := expr.Run(p, env)
		if err != nil {
			return false, err
		}
		if ok, _ := out.(bool); ok {
			return true, nil
		}
	}
	return false, nil
}
