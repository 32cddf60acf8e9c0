package policy

import (
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// maxOrderQuantity bounds an expression result so it converts to int exactly.
const maxOrderQuantity = math.MaxInt32

// exprBuiltins are the only functions an expression may call.
var exprBuiltins = []string{"max", "min", "abs", "ceil", "floor", "round"}

// exprEnv declares the variables visible to an expression. Values are
// replaced per call; the types fix what the compiler accepts.
func exprEnv(node string, inventory, demand int) map[string]any {
	return map[string]any{
		"node":      node,
		"inventory": inventory,
		"demand":    demand,
	}
}

// Expression evaluates an arithmetic formula over node, inventory and demand,
// e.g. "max(0, 120 - inventory) + demand" or
// `node == "brewery" ? demand : max(0, 150 - inventory)`.
// The environment holds plain values only, so an expression cannot reach
// outside its inputs.
type Expression struct {
	source  string
	program *vm.Program
}

// NewExpression compiles source against the policy environment.
func NewExpression(source string) (*Expression, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("policy %q requires a non-empty expression", NameExpression)
	}
	opts := []expr.Option{
		expr.Env(exprEnv("", 0, 0)),
		expr.DisableAllBuiltins(),
	}
	for _, name := range exprBuiltins {
		opts = append(opts, expr.EnableBuiltin(name))
	}
	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, fmt.Errorf("compiling policy expression %q: %w", source, err)
	}
	return &Expression{source: source, program: program}, nil
}

func (p *Expression) Name() string { return NameExpression + "(" + p.source + ")" }

// Source returns the expression text.
func (p *Expression) Source() string { return p.source }

// OrderQuantity evaluates the expression. Results must be finite integers;
// sign is checked by the simulator.
func (p *Expression) OrderQuantity(node string, inventory, demand int) (int, error) {
	out, err := expr.Run(p.program, exprEnv(node, inventory, demand))
	if err != nil {
		return 0, fmt.Errorf("evaluating %q: %w", p.source, err)
	}
	var f float64
	switch v := out.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return 0, fmt.Errorf("expression %q returned non-numeric %T", p.source, out)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expression %q returned non-finite %v", p.source, f)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expression %q returned non-integer %v", p.source, f)
	}
	if math.Abs(f) > maxOrderQuantity {
		return 0, fmt.Errorf("expression %q returned %v, outside [-%d, %d]", p.source, f, maxOrderQuantity, maxOrderQuantity)
	}
	return int(f), nil
}
