// Package ast defines the statement and expression tree for CPL method
// bodies. Nodes are produced by pkg/parser and consumed by pkg/interpreter.
package ast

// Node is implemented by every CPL syntax tree node.
type Node interface {
	NodeType() string
}

// Statement is a single entry in a method body program.
type Statement interface {
	Node
	statementNode()
}

// Expression is a statement that yields a value.
type Expression interface {
	Statement
	expressionNode()
}

// Scope qualifies how a variable reference is resolved.
type Scope uint8

const (
	// ScopeAuto resolves against bound call parameters first, then state.
	ScopeAuto Scope = iota
	// ScopeState resolves against persistent protocol state.
	ScopeState
	// ScopeParams resolves against the transient per-call parameter scope.
	ScopeParams
)

func (s Scope) String() string {
	switch s {
	case ScopeState:
		return "state"
	case ScopeParams:
		return "params"
	default:
		return "auto"
	}
}

// Literal is a quoted string, a number, or a boolean keyword. The value is
// stored in the language's canonical text form with quotes already removed.
type Literal struct {
	Value string
}

func (*Literal) NodeType() string { return "Literal" }
func (*Literal) statementNode()   {}
func (*Literal) expressionNode()  {}

// VarRef reads a variable through the call's resolution context.
type VarRef struct {
	Scope Scope
	Name  string
}

func (*VarRef) NodeType() string { return "VarRef" }
func (*VarRef) statementNode()   {}
func (*VarRef) expressionNode()  {}

// UnaryOp applies `!` or unary `-` to an operand.
type UnaryOp struct {
	Op      string
	Operand Expression
}

func (*UnaryOp) NodeType() string { return "UnaryOp" }
func (*UnaryOp) statementNode()   {}
func (*UnaryOp) expressionNode()  {}

// BinaryOp applies an arithmetic, comparison, or logical operator.
type BinaryOp struct {
	Op    string
	Left  Expression
	Right Expression
}

func (*BinaryOp) NodeType() string { return "BinaryOp" }
func (*BinaryOp) statementNode()   {}
func (*BinaryOp) expressionNode()  {}

// Assign writes the evaluated value to the target reference. Targets with
// ScopeAuto or ScopeState write persistent state; ScopeParams targets update
// only the transient call scope.
type Assign struct {
	Target *VarRef
	Value  Expression
}

func (*Assign) NodeType() string { return "Assign" }
func (*Assign) statementNode()   {}

// If executes Body when the guard expression is truthy.
type If struct {
	Cond Expression
	Body *Block
}

func (*If) NodeType() string { return "If" }
func (*If) statementNode()   {}

// Emit appends an event record to the runtime's log.
type Emit struct {
	Event string
	Args  []Expression
}

func (*Emit) NodeType() string { return "Emit" }
func (*Emit) statementNode()   {}

// Block is a `;`-separated statement sequence (a method body or an if body).
type Block struct {
	Statements []Statement
}

func (*Block) NodeType() string { return "Block" }
func (*Block) statementNode()   {}
