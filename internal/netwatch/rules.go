package netwatch

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// RuleConfig is one user-supplied filter rule. When is an expr expression
// over RuleEnv; Action is "keep" or "drop".
type RuleConfig struct {
	Name   string `yaml:"name"`
	When   string `yaml:"when"`
	Action string `yaml:"action"`
}

// RuleEnv is the environment a rule expression is evaluated against.
type RuleEnv struct {
	Method       string
	URL          string
	ResourceType string
	Status       int
}

type rule struct {
	name    string
	program *vm.Program
	keep    bool
}

// compileRules compiles all rules up front so a bad expression is a startup
// error, never a runtime one.
func compileRules(cfgs []RuleConfig) ([]rule, error) {
	rules := make([]rule, 0, len(cfgs))
	for _, rc := range cfgs {
		var keep bool
		switch rc.Action {
		case "keep":
			keep = true
		case "drop":
			keep = false
		default:
			return nil, fmt.Errorf("netwatch: rule %q: unknown action %q (want keep or drop)", rc.Name, rc.Action)
		}

		program, err := expr.Compile(rc.When, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("netwatch: rule %q: compile: %w", rc.Name, err)
		}

		rules = append(rules, rule{name: rc.Name, program: program, keep: keep})
	}
	return rules, nil
}

// decide returns whether an event with this environment should be logged.
// The first matching rule wins; with no match the event is kept.
func decide(rules []rule, env RuleEnv) bool {
	for _, r := range rules {
		out, err := expr.Run(r.program, env)
		if err != nil {
			// Compiled with AsBool, so this only happens on runtime
			// errors inside the expression; treat as no match.
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return r.keep
		}
	}
	return true
}
