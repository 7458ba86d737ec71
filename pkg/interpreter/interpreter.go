package interpreter

import (
	"fmt"
	"strconv"

	"cardity/runtime-go/pkg/ast"
	"cardity/runtime-go/pkg/state"
)

// Interpreter drives evaluation of CPL trees. It holds no state of its own;
// each call borrows a Context for variable resolution and event emission.
type Interpreter struct{}

// New returns an interpreter.
func New() *Interpreter {
	return &Interpreter{}
}

// Execute runs a statement sequence. The result is the value of the last
// expression statement (assignments, conditionals, and emits do not
// contribute), or empty text when there is none.
func (i *Interpreter) Execute(block *ast.Block, ctx *Context) (string, error) {
	var last string
	for _, stmt := range block.Statements {
		value, contributes, err := i.executeStatement(stmt, ctx)
		if err != nil {
			return "", err
		}
		if contributes {
			last = value
		}
	}
	return last, nil
}

func (i *Interpreter) executeStatement(stmt ast.Statement, ctx *Context) (string, bool, error) {
	switch n := stmt.(type) {
	case *ast.Assign:
		value, err := i.Evaluate(n.Value, ctx)
		if err != nil {
			return "", false, err
		}
		ctx.Assign(n.Target, value)
		return value, false, nil
	case *ast.If:
		guard, err := i.Evaluate(n.Cond, ctx)
		if err != nil {
			return "", false, err
		}
		if state.Truthy(guard) {
			if _, err := i.Execute(n.Body, ctx); err != nil {
				return "", false, err
			}
		}
		return "", false, nil
	case *ast.Emit:
		if err := i.executeEmit(n, ctx); err != nil {
			return "", false, err
		}
		return "", false, nil
	case ast.Expression:
		value, err := i.Evaluate(n, ctx)
		if err != nil {
			return "", false, err
		}
		return value, true, nil
	default:
		return "", false, fmt.Errorf("unsupported statement type: %s", stmt.NodeType())
	}
}

// executeEmit appends an event record through the context's sink. The
// event's declared parameter list drives the argument count: positions the
// source supplies are evaluated, the rest resolve the declared parameter
// name through the current scope. Events without a declaration emit the
// source arguments as written.
func (i *Interpreter) executeEmit(emit *ast.Emit, ctx *Context) error {
	if ctx.Events == nil {
		return nil
	}
	declared, ok := ctx.EventParams[emit.Event]
	if !ok {
		values := make([]string, 0, len(emit.Args))
		for _, arg := range emit.Args {
			v, err := i.Evaluate(arg, ctx)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		ctx.Events.Emit(emit.Event, values)
		return nil
	}
	values := make([]string, len(declared))
	for pos, param := range declared {
		if pos < len(emit.Args) {
			v, err := i.Evaluate(emit.Args[pos], ctx)
			if err != nil {
				return err
			}
			values[pos] = v
			continue
		}
		values[pos] = ctx.Resolve(&ast.VarRef{Scope: ast.ScopeAuto, Name: param})
	}
	ctx.Events.Emit(emit.Event, values)
	return nil
}

// Evaluate reduces an expression to its text value.
func (i *Interpreter) Evaluate(expr ast.Expression, ctx *Context) (string, error) {
	switch n := expr.(type) {
	case *ast.Literal:
		return n.Value, nil
	case *ast.VarRef:
		return ctx.Resolve(n), nil
	case *ast.UnaryOp:
		operand, err := i.Evaluate(n.Operand, ctx)
		if err != nil {
			return "", err
		}
		return evaluateUnary(n.Op, operand)
	case *ast.BinaryOp:
		left, err := i.Evaluate(n.Left, ctx)
		if err != nil {
			return "", err
		}
		right, err := i.Evaluate(n.Right, ctx)
		if err != nil {
			return "", err
		}
		return evaluateBinary(n.Op, left, right)
	default:
		return "", fmt.Errorf("unsupported expression type: %s", expr.NodeType())
	}
}

func evaluateUnary(op, operand string) (string, error) {
	switch op {
	case "!":
		return state.FormatBool(!state.Truthy(operand)), nil
	case "-":
		return state.FormatFloat(-state.ToFloat(operand)), nil
	default:
		return "", fmt.Errorf("unsupported unary operator %q", op)
	}
}

// evaluateBinary applies CPL operator semantics. Arithmetic coerces both
// sides to float (unparsable text reads as 0); division by a zero-valued
// right operand saturates to "0" instead of failing. `%` works on integers.
// `==` and `!=` compare the raw text so string equality works; the ordering
// comparisons compare numerically.
func evaluateBinary(op, left, right string) (string, error) {
	switch op {
	case "+":
		return state.FormatFloat(state.ToFloat(left) + state.ToFloat(right)), nil
	case "-":
		return state.FormatFloat(state.ToFloat(left) - state.ToFloat(right)), nil
	case "*":
		return state.FormatFloat(state.ToFloat(left) * state.ToFloat(right)), nil
	case "/":
		divisor := state.ToFloat(right)
		if divisor == 0 {
			return "0", nil
		}
		return state.FormatFloat(state.ToFloat(left) / divisor), nil
	case "%":
		divisor := state.ToInt(right)
		if divisor == 0 {
			return "0", nil
		}
		return strconv.FormatInt(state.ToInt(left)%divisor, 10), nil
	case "==":
		return state.FormatBool(left == right), nil
	case "!=":
		return state.FormatBool(left != right), nil
	case "<":
		return state.FormatBool(state.ToFloat(left) < state.ToFloat(right)), nil
	case ">":
		return state.FormatBool(state.ToFloat(left) > state.ToFloat(right)), nil
	case "<=":
		return state.FormatBool(state.ToFloat(left) <= state.ToFloat(right)), nil
	case ">=":
		return state.FormatBool(state.ToFloat(left) >= state.ToFloat(right)), nil
	case "&&":
		return state.FormatBool(state.Truthy(left) && state.Truthy(right)), nil
	case "||":
		return state.FormatBool(state.Truthy(left) || state.Truthy(right)), nil
	default:
		return "", fmt.Errorf("unsupported binary operator %q", op)
	}
}
