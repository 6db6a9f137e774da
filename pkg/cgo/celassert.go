package cgo

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// celAssertEnv is the shared CEL environment for adversarial fixtures'
// optional assert_expr: it sees the failed operation's structured payload
// (reason_code, message, subsystem) alongside the case's own declared
// fields, for pass conditions richer than substring+reason-code matching
// (SPEC_FULL.md §3). Grounded on the teacher's
// pkg/governance/policy_evaluator_cel.go CELPolicyEvaluator — same
// cel.NewEnv(cel.Variable(...)) setup and compiled-program cache, adapted
// from module-activation policy to adversarial-case assertion evaluation.
var celAssertEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("reason_code", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("subsystem", cel.StringType),
		cel.Variable("case_id", cel.StringType),
		cel.Variable("severity", cel.StringType),
	)
})

var (
	celProgCacheMu sync.Mutex
	celProgCache   = map[string]cel.Program{}
)

// evaluateAssertExpr compiles (and caches) expr, then evaluates it against
// the failure payload. A non-boolean result or a compile/eval error is
// always treated as assertion failure (fail-closed), matching the
// teacher's evaluateExpr contract.
func evaluateAssertExpr(expr string, input map[string]any) (bool, error) {
	env, err := celAssertEnv()
	if err != nil {
		return false, fmt.Errorf("create CEL environment: %w", err)
	}

	celProgCacheMu.Lock()
	prg, hit := celProgCache[expr]
	celProgCacheMu.Unlock()

	if !hit {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return false, fmt.Errorf("compile assert_expr %q: %w", expr, issues.Err())
		}
		p, err := env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
		if err != nil {
			return false, fmt.Errorf("build CEL program for %q: %w", expr, err)
		}
		celProgCacheMu.Lock()
		celProgCache[expr] = p
		celProgCacheMu.Unlock()
		prg = p
	}

	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval assert_expr %q: %w", expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("assert_expr %q did not evaluate to a bool", expr)
	}
	return result, nil
}
