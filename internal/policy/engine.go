// Package policy evaluates tool-invocation requests coming from the
// reasoning engine. The engine's output is untrusted input: the registry
// allowlist is the closed set, and this guard is the configurable layer on
// top of it (argument constraints, operational blocks).
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares the given rego policy for evaluation.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.task_policy.decision"),
		rego.Module("task_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Engine{query: query}, nil
}

// Evaluate checks one invocation request. Input carries tool_name, user_id
// and the decoded args. Returns "allow" or "block" plus a reason.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy must define a default; treat silence as a block so a
		// broken policy fails closed.
		return "block", "no policy decision", nil
	}

	val := results[0].Expressions[0].Value
	if s, ok := val.(string); ok {
		if s == "allow" {
			return "allow", "", nil
		}
		return s, "blocked by policy", nil
	}
	return "block", "unexpected policy result type", nil
}

// DefaultPolicy allows exactly the task tools and blocks everything else.
const DefaultPolicy = `
package task_policy

import rego.v1

allowed := {"add_task", "list_tasks", "complete_task", "update_task", "delete_task"}

default decision := "block"

decision := "allow" if input.tool_name in allowed
`
