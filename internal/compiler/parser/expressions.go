package parser

import (
	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/compiler/lexer"
)

// parseExpression is the entry point of the precedence-climbing chain:
//
//	ternary -> ?? -> || -> && -> equality -> relational -> range ->
//	additive -> multiplicative -> unary -> postfix -> primary
func (p *Parser) parseExpression() ast.Expr {
	return p.parseTernary()
}

func (p *Parser) parseTernary() ast.Expr {
	loc := p.loc()
	cond := p.parseNullCoalesce()
	if p.match(lexer.TOKEN_QUESTION) {
		then := p.parseExpression()
		p.expect(lexer.TOKEN_COLON, "expected ':' in ternary expression")
		elseExpr := p.parseExpression()
		return &ast.TernaryExpr{Cond: cond, Then: then, Else: elseExpr, Loc: loc}
	}
	return cond
}

func (p *Parser) parseNullCoalesce() ast.Expr {
	loc := p.loc()
	left := p.parseOr()
	for p.match(lexer.TOKEN_QUESTION_QUESTION) {
		right := p.parseOr()
		left = &ast.NullCoalesceExpr{Left: left, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseOr() ast.Expr {
	loc := p.loc()
	left := p.parseAnd()
	for p.match(lexer.TOKEN_OR_OR) {
		right := p.parseAnd()
		left = &ast.BinaryExpr{Op: "||", Left: left, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	loc := p.loc()
	left := p.parseEquality()
	for p.match(lexer.TOKEN_AND_AND) {
		right := p.parseEquality()
		left = &ast.BinaryExpr{Op: "&&", Left: left, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	loc := p.loc()
	left := p.parseRelational()
	for p.check(lexer.TOKEN_EQ_EQ) || p.check(lexer.TOKEN_BANG_EQ) {
		op := p.advance()
		right := p.parseRelational()
		left = &ast.BinaryExpr{Op: opLexeme(op.Type), Left: left, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	loc := p.loc()
	left := p.parseRange()
	for p.check(lexer.TOKEN_LT) || p.check(lexer.TOKEN_LT_EQ) ||
		p.check(lexer.TOKEN_GT) || p.check(lexer.TOKEN_GT_EQ) {
		op := p.advance()
		right := p.parseRange()
		left = &ast.BinaryExpr{Op: opLexeme(op.Type), Left: left, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseRange() ast.Expr {
	loc := p.loc()
	left := p.parseAdditive()
	if p.check(lexer.TOKEN_DOT_DOT) || p.check(lexer.TOKEN_DOT_DOT_EQ) {
		inclusive := p.peek().Type == lexer.TOKEN_DOT_DOT_EQ
		p.advance()
		right := p.parseAdditive()
		return &ast.RangeExpr{Start: left, End: right, Inclusive: inclusive, Loc: loc}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	loc := p.loc()
	left := p.parseMultiplicative()
	for p.check(lexer.TOKEN_PLUS) || p.check(lexer.TOKEN_MINUS) {
		op := p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{Op: opLexeme(op.Type), Left: left, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	loc := p.loc()
	left := p.parseUnary()
	for p.check(lexer.TOKEN_STAR) || p.check(lexer.TOKEN_SLASH) || p.check(lexer.TOKEN_PERCENT) {
		op := p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: opLexeme(op.Type), Left: left, Right: right, Loc: loc}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	loc := p.loc()
	if p.check(lexer.TOKEN_BANG) || p.check(lexer.TOKEN_MINUS) {
		op := p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{Op: opLexeme(op.Type), Operand: operand, Loc: loc}
	}
	if p.check(lexer.TOKEN_AWAIT) {
		p.advance()
		operand := p.parseUnary()
		return &ast.AwaitExpr{Operand: operand, Loc: loc}
	}
	return p.parsePostfix()
}

// parsePostfix chains call/index/field/optional-field suffixes onto a
// primary expression: `a(b)[c].d?.e(f)`.
func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		loc := p.loc()
		switch {
		case p.match(lexer.TOKEN_LPAREN):
			args := p.parseArgList()
			expr = &ast.CallExpr{Callee: expr, Args: args, Loc: loc}
		case p.match(lexer.TOKEN_LBRACKET):
			index := p.parseExpression()
			p.expect(lexer.TOKEN_RBRACKET, "expected ']' to close index expression")
			expr = &ast.IndexExpr{Target: expr, Index: index, Loc: loc}
		case p.match(lexer.TOKEN_DOT):
			name := p.expect(lexer.TOKEN_IDENT, "expected field/method name after '.'")
			expr = &ast.FieldExpr{Target: expr, Field: name.Lexeme, Loc: loc}
		case p.match(lexer.TOKEN_QUESTION_DOT):
			name := p.expect(lexer.TOKEN_IDENT, "expected field/method name after '?.'")
			expr = &ast.FieldExpr{Target: expr, Field: name.Lexeme, Optional: true, Loc: loc}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgList() []ast.Expr {
	var args []ast.Expr
	for !p.check(lexer.TOKEN_RPAREN) && !p.isAtEnd() {
		args = append(args, p.parseExpression())
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}
	p.expect(lexer.TOKEN_RPAREN, "expected ')' to close argument list")
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	loc := p.loc()
	switch {
	case p.match(lexer.TOKEN_INT), p.match(lexer.TOKEN_FLOAT):
		tok := p.previous()
		return &ast.LiteralExpr{Value: tok.Literal, Loc: loc}
	case p.match(lexer.TOKEN_TRUE):
		return &ast.LiteralExpr{Value: true, Loc: loc}
	case p.match(lexer.TOKEN_FALSE):
		return &ast.LiteralExpr{Value: false, Loc: loc}
	case p.match(lexer.TOKEN_NIL):
		return &ast.LiteralExpr{Value: nil, Loc: loc}
	case p.match(lexer.TOKEN_RAW_STRING):
		tok := p.previous()
		s, _ := tok.Literal.(string)
		return &ast.RawStringExpr{Value: s, Loc: loc}
	case p.check(lexer.TOKEN_STRING):
		tok := p.advance()
		s, _ := tok.Literal.(string)
		return &ast.LiteralExpr{Value: s, Loc: loc}
	case p.check(lexer.TOKEN_STR_PART):
		return p.parseInterpString()
	case p.match(lexer.TOKEN_IDENT):
		tok := p.previous()
		return &ast.IdentExpr{Name: tok.Lexeme, Loc: loc}
	case p.match(lexer.TOKEN_LPAREN):
		expr := p.parseExpression()
		p.expect(lexer.TOKEN_RPAREN, "expected ')' to close parenthesized expression")
		return expr
	case p.check(lexer.TOKEN_LBRACKET):
		return p.parseListExpr()
	case p.check(lexer.TOKEN_LBRACE):
		return p.parseMapExpr()
	case p.check(lexer.TOKEN_FN):
		return p.parseFuncLitExpr()
	case p.check(lexer.TOKEN_MATCH):
		return p.parseMatchExpr()
	default:
		p.reportError("expected an expression")
		p.advance()
		return &ast.LiteralExpr{Value: nil, Loc: loc}
	}
}

// parseInterpString consumes the STR_PART (INTERP_START expr INTERP_END
// STR_PART)* STR_END sequence the lexer produces for `"...${...}..."`.
func (p *Parser) parseInterpString() ast.Expr {
	loc := p.loc()
	expr := &ast.InterpStringExpr{Loc: loc}

	first := p.advance() // STR_PART
	if s, ok := first.Literal.(string); ok {
		expr.Parts = append(expr.Parts, s)
	} else {
		expr.Parts = append(expr.Parts, "")
	}

	for p.match(lexer.TOKEN_INTERP_START) {
		sub := p.parseExpression()
		expr.Exprs = append(expr.Exprs, sub)
		p.expect(lexer.TOKEN_INTERP_END, "expected '}' to close interpolated expression")
		part := p.expect(lexer.TOKEN_STR_PART, "expected string text after interpolated expression")
		if s, ok := part.Literal.(string); ok {
			expr.Parts = append(expr.Parts, s)
		} else {
			expr.Parts = append(expr.Parts, "")
		}
	}
	p.expect(lexer.TOKEN_STR_END, "expected end of interpolated string")
	return expr
}

func (p *Parser) parseListExpr() ast.Expr {
	loc := p.loc()
	p.advance() // [
	list := &ast.ListExpr{Loc: loc}
	for !p.check(lexer.TOKEN_RBRACKET) && !p.isAtEnd() {
		list.Elements = append(list.Elements, p.parseExpression())
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}
	p.expect(lexer.TOKEN_RBRACKET, "expected ']' to close list literal")
	return list
}

func (p *Parser) parseMapExpr() ast.Expr {
	loc := p.loc()
	p.advance() // {
	m := &ast.MapExpr{Loc: loc}
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		var key string
		if p.check(lexer.TOKEN_STRING) {
			tok := p.advance()
			key, _ = tok.Literal.(string)
		} else {
			tok := p.expect(lexer.TOKEN_IDENT, "expected map key")
			key = tok.Lexeme
		}
		p.expect(lexer.TOKEN_COLON, "expected ':' after map key")
		value := p.parseExpression()
		m.Entries = append(m.Entries, ast.MapEntry{Key: key, Value: value})
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}
	p.expect(lexer.TOKEN_RBRACE, "expected '}' to close map literal")
	return m
}

func (p *Parser) parseFuncLitExpr() ast.Expr {
	loc := p.loc()
	p.advance() // fn
	name := ""
	if p.check(lexer.TOKEN_IDENT) {
		name = p.advance().Lexeme
	}
	params := p.parseParamList()
	body := p.parseBlock()
	return &ast.FuncLitExpr{Name: name, Params: params, Body: body, Loc: loc}
}

func (p *Parser) parseMatchExpr() ast.Expr {
	loc := p.loc()
	p.advance() // match
	p.expect(lexer.TOKEN_LPAREN, "expected '(' after 'match'")
	subject := p.parseExpression()
	p.expect(lexer.TOKEN_RPAREN, "expected ')' after match subject")
	p.expect(lexer.TOKEN_LBRACE, "expected '{' to start match body")

	match := &ast.MatchExpr{Subject: subject, Loc: loc}
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		var c ast.MatchCase
		p.match(lexer.TOKEN_CASE) // the leading `case` keyword is optional
		if p.match(lexer.TOKEN_DEFAULT) {
			c.Pattern = nil
		} else {
			c.Pattern = p.parseMatchPattern()
		}
		if p.match(lexer.TOKEN_IF) {
			c.Guard = p.parseExpression()
		}
		if !p.match(lexer.TOKEN_COLON) {
			p.expect(lexer.TOKEN_FAT_ARROW, "expected '=>' after match pattern")
		}
		c.Value = p.parseExpression()
		match.Cases = append(match.Cases, c)
		if !p.match(lexer.TOKEN_COMMA) && !p.match(lexer.TOKEN_SEMICOLON) {
			if p.check(lexer.TOKEN_RBRACE) {
				break
			}
		}
	}
	p.expect(lexer.TOKEN_RBRACE, "expected '}' to close match body")
	return match
}

// parseMatchPattern extends parseBindingPattern with literal patterns,
// since match arms (unlike let-bindings) may match against concrete values.
func (p *Parser) parseMatchPattern() ast.Pattern {
	loc := p.loc()
	switch {
	case p.check(lexer.TOKEN_LBRACKET), p.check(lexer.TOKEN_LBRACE), p.check(lexer.TOKEN_WILDCARD):
		return p.parseBindingPattern()
	case p.check(lexer.TOKEN_INT), p.check(lexer.TOKEN_FLOAT), p.check(lexer.TOKEN_STRING),
		p.check(lexer.TOKEN_TRUE), p.check(lexer.TOKEN_FALSE), p.check(lexer.TOKEN_NIL),
		p.check(lexer.TOKEN_MINUS):
		value := p.parseUnary()
		return &ast.LiteralPattern{Value: value, Loc: loc}
	default:
		name := p.expect(lexer.TOKEN_IDENT, "expected a pattern")
		return &ast.IdentPattern{Name: name.Lexeme, Loc: loc}
	}
}

func opLexeme(t lexer.TokenType) string {
	switch t {
	case lexer.TOKEN_EQ_EQ:
		return "=="
	case lexer.TOKEN_BANG_EQ:
		return "!="
	case lexer.TOKEN_LT:
		return "<"
	case lexer.TOKEN_LT_EQ:
		return "<="
	case lexer.TOKEN_GT:
		return ">"
	case lexer.TOKEN_GT_EQ:
		return ">="
	case lexer.TOKEN_PLUS:
		return "+"
	case lexer.TOKEN_MINUS:
		return "-"
	case lexer.TOKEN_STAR:
		return "*"
	case lexer.TOKEN_SLASH:
		return "/"
	case lexer.TOKEN_PERCENT:
		return "%"
	case lexer.TOKEN_BANG:
		return "!"
	}
	return ""
}
