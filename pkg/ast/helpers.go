package ast

// Construction helpers, primarily for building trees in tests.

func Lit(value string) *Literal { return &Literal{Value: value} }

func Ref(name string) *VarRef { return &VarRef{Scope: ScopeAuto, Name: name} }

func StateRef(name string) *VarRef { return &VarRef{Scope: ScopeState, Name: name} }

func ParamRef(name string) *VarRef { return &VarRef{Scope: ScopeParams, Name: name} }

func Un(op string, operand Expression) *UnaryOp { return &UnaryOp{Op: op, Operand: operand} }

func Bin(op string, left, right Expression) *BinaryOp {
	return &BinaryOp{Op: op, Left: left, Right: right}
}

func Set(target *VarRef, value Expression) *Assign { return &Assign{Target: target, Value: value} }

func Cond(cond Expression, body ...Statement) *If {
	return &If{Cond: cond, Body: &Block{Statements: body}}
}

func Evt(event string, args ...Expression) *Emit { return &Emit{Event: event, Args: args} }

func Prog(stmts ...Statement) *Block { return &Block{Statements: stmts} }
