package security

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// MovementRule is an optional tenant-wide boolean expression evaluated after
// the fixed role policy. Variables: type, reason (string), quantity (int),
// roles (list of string). Example:
//
//	!(reason == "LOSS" && quantity > 100) || "ADMIN" in roles
type MovementRule struct {
	expr    string
	program cel.Program
}

// MovementFacts is the input of a MovementRule evaluation.
type MovementFacts struct {
	Type     string
	Reason   string
	Quantity int64
	Roles    []string
}

// CompileMovementRule parses and type-checks expr. An empty expr yields nil.
func CompileMovementRule(expr string) (*MovementRule, error) {
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("reason", cel.StringType),
		cel.Variable("quantity", cel.IntType),
		cel.Variable("roles", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile movement rule: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("movement rule must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build movement rule program: %w", err)
	}

	return &MovementRule{expr: expr, program: prg}, nil
}

// Allows evaluates the rule. A nil rule allows everything.
func (r *MovementRule) Allows(f MovementFacts) (bool, error) {
	if r == nil {
		return true, nil
	}

	roles := f.Roles
	if roles == nil {
		roles = []string{}
	}

	out, _, err := r.program.Eval(map[string]any{
		"type":     f.Type,
		"reason":   f.Reason,
		"quantity": f.Quantity,
		"roles":    roles,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate movement rule: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("movement rule returned %T", out.Value())
	}
	return allowed, nil
}

// String returns the source expression.
func (r *MovementRule) String() string {
	if r == nil {
		return ""
	}
	return r.expr
}
