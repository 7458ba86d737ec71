// Package interpreter evaluates CPL statement and expression trees against a
// per-call resolution context. All evaluation happens on the language's
// single runtime value representation: text with an implicit numeric and
// boolean reading (see pkg/state for the coercion rules).
package interpreter

import (
	"cardity/runtime-go/pkg/ast"
	"cardity/runtime-go/pkg/state"
)

// EventSink receives events emitted during a call.
type EventSink interface {
	Emit(name string, values []string)
}

// Context is the variable-resolution context borrowed by the interpreter for
// the duration of one method call. Params is the transient call scope and is
// discarded after the call; State outlives it.
type Context struct {
	State  *state.Store
	Params map[string]string

	// EventParams maps declared event names to their ordered parameter
	// lists; the declared list drives emit argument counts.
	EventParams map[string][]string
	Events      EventSink
}

// Resolve reads a variable reference. Bare identifiers check the call's
// bound parameters first and fall back to state; unknown names read as
// empty text.
func (c *Context) Resolve(ref *ast.VarRef) string {
	switch ref.Scope {
	case ast.ScopeParams:
		return c.Params[ref.Name]
	case ast.ScopeState:
		return c.stateText(ref.Name)
	default:
		if v, ok := c.Params[ref.Name]; ok {
			return v
		}
		return c.stateText(ref.Name)
	}
}

// Assign writes through a variable reference. Writes land in state unless
// the target is params-qualified.
func (c *Context) Assign(ref *ast.VarRef, value string) {
	if ref.Scope == ast.ScopeParams {
		if c.Params == nil {
			c.Params = make(map[string]string)
		}
		c.Params[ref.Name] = value
		return
	}
	if c.State != nil {
		c.State.SetText(ref.Name, value)
	}
}

func (c *Context) stateText(name string) string {
	if c.State == nil {
		return ""
	}
	return c.State.Get(name).Text
}
