package parser

import (
	"cardity/runtime-go/pkg/ast"
)

// Parse parses a full CPL statement sequence (a method body).
func Parse(src string) (*ast.Block, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	block, err := p.parseProgram(false)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, errorf(tok.pos, "unexpected %q after statement", tok.text)
	}
	return block, nil
}

// ParseExpression parses a single CPL expression.
func ParseExpression(src string) (ast.Expression, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, errorf(tok.pos, "unexpected %q after expression", tok.text)
	}
	return expr, nil
}

type parser struct {
	tokens []token
	index  int
}

func (p *parser) peek() token {
	return p.tokens[p.index]
}

func (p *parser) peekAt(offset int) token {
	i := p.index + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[i]
}

func (p *parser) advance() token {
	tok := p.tokens[p.index]
	if tok.kind != tokenEOF {
		p.index++
	}
	return tok
}

func (p *parser) expectPunct(text string) (token, error) {
	tok := p.peek()
	if tok.kind != tokenPunct || tok.text != text {
		return token{}, errorf(tok.pos, "expected %q, found %q", text, tok.text)
	}
	return p.advance(), nil
}

func (p *parser) atPunct(text string) bool {
	tok := p.peek()
	return tok.kind == tokenPunct && tok.text == text
}

// parseProgram parses statements separated by ';' until EOF, or until a
// closing '}' when inBody is set. Empty statements are tolerated.
func (p *parser) parseProgram(inBody bool) (*ast.Block, error) {
	block := &ast.Block{}
	for {
		for p.atPunct(";") {
			p.advance()
		}
		tok := p.peek()
		if tok.kind == tokenEOF || (inBody && p.atPunct("}")) {
			return block, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
		tok = p.peek()
		if tok.kind == tokenEOF || (inBody && p.atPunct("}")) {
			return block, nil
		}
		if !p.atPunct(";") {
			return nil, errorf(tok.pos, "expected \";\" between statements, found %q", tok.text)
		}
	}
}

func (p *parser) parseStatement() (ast.Statement, error) {
	tok := p.peek()
	if tok.kind == tokenIdent {
		switch tok.text {
		case "if":
			return p.parseIf()
		case "emit":
			return p.parseEmit()
		}
	}
	if target, ok := p.peekAssignTarget(); ok {
		p.advanceAssignTarget(target)
		p.advance() // '='
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Target: target.ref, Value: value}, nil
	}
	return p.parseExpression()
}

type assignTarget struct {
	ref    *ast.VarRef
	tokens int
}

// peekAssignTarget recognises `lvalue =` without consuming input. The '='
// must be a single equals sign; `==` stays an expression.
func (p *parser) peekAssignTarget() (assignTarget, bool) {
	first := p.peek()
	if first.kind != tokenIdent || first.text == "true" || first.text == "false" {
		return assignTarget{}, false
	}
	consumed := 1
	ref := &ast.VarRef{Scope: ast.ScopeAuto, Name: first.text}
	if (first.text == "state" || first.text == "params") && p.peekAt(1).kind == tokenPunct && p.peekAt(1).text == "." {
		name := p.peekAt(2)
		if name.kind != tokenIdent {
			return assignTarget{}, false
		}
		if first.text == "state" {
			ref = &ast.VarRef{Scope: ast.ScopeState, Name: name.text}
		} else {
			ref = &ast.VarRef{Scope: ast.ScopeParams, Name: name.text}
		}
		consumed = 3
	}
	eq := p.peekAt(consumed)
	if eq.kind != tokenOperator || eq.text != "=" {
		return assignTarget{}, false
	}
	return assignTarget{ref: ref, tokens: consumed}, true
}

func (p *parser) advanceAssignTarget(target assignTarget) {
	for i := 0; i < target.tokens; i++ {
		p.advance()
	}
}

func (p *parser) parseIf() (ast.Statement, error) {
	p.advance() // if
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	body, err := p.parseProgram(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.If{Cond: cond, Body: body}, nil
}

func (p *parser) parseEmit() (ast.Statement, error) {
	p.advance() // emit
	name := p.peek()
	if name.kind != tokenIdent {
		return nil, errorf(name.pos, "expected event name after emit, found %q", name.text)
	}
	p.advance()
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	emit := &ast.Emit{Event: name.text}
	if !p.atPunct(")") {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			emit.Args = append(emit.Args, arg)
			if !p.atPunct(",") {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return emit, nil
}

// Binary operator levels, loosest first.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", ">", "<=", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) parseExpression() (ast.Expression, error) {
	return p.parseBinary(0)
}

func (p *parser) parseBinary(level int) (ast.Expression, error) {
	if level >= len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenOperator || !contains(binaryLevels[level], tok.text) {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: tok.text, Left: left, Right: right}
	}
}

func contains(ops []string, op string) bool {
	for _, candidate := range ops {
		if candidate == op {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (ast.Expression, error) {
	tok := p.peek()
	if tok.kind == tokenOperator && (tok.text == "!" || tok.text == "-") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: tok.text, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenString:
		p.advance()
		return &ast.Literal{Value: tok.text}, nil
	case tokenNumber:
		p.advance()
		return &ast.Literal{Value: tok.text}, nil
	case tokenIdent:
		return p.parseVarRef()
	case tokenPunct:
		if tok.text == "(" {
			p.advance()
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
	}
	return nil, errorf(tok.pos, "expected expression, found %q", tok.text)
}

func (p *parser) parseVarRef() (ast.Expression, error) {
	tok := p.advance()
	switch tok.text {
	case "true", "false":
		return &ast.Literal{Value: tok.text}, nil
	case "state", "params":
		if p.atPunct(".") {
			p.advance()
			name := p.peek()
			if name.kind != tokenIdent {
				return nil, errorf(name.pos, "expected identifier after %q, found %q", tok.text+".", name.text)
			}
			p.advance()
			if tok.text == "state" {
				return &ast.VarRef{Scope: ast.ScopeState, Name: name.text}, nil
			}
			return &ast.VarRef{Scope: ast.ScopeParams, Name: name.text}, nil
		}
	}
	if p.atPunct(".") {
		return nil, errorf(p.peek().pos, "only state and params references may be qualified")
	}
	return &ast.VarRef{Scope: ast.ScopeAuto, Name: tok.text}, nil
}
