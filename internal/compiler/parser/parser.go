package parser

import (
	"github.com/frankischilling/cupidscript/internal/compiler/ast"
	"github.com/frankischilling/cupidscript/internal/compiler/lexer"
)

// Parser is a recursive-descent parser over a flat token stream produced
// by lexer.Lexer.ScanTokens. The caller owns the returned *ast.Program.
//
// Thread Safety: a Parser is single-use and NOT thread-safe.
type Parser struct {
	tokens []lexer.Token
	pos    int
	errors []*ParseError
	source string
}

// New creates a Parser over an already-scanned token stream.
func New(tokens []lexer.Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// ParseProgram parses the whole token stream. Parsing is total: it always
// returns a *ast.Program (possibly partial on error) plus any errors. Only
// the first error is authoritative per spec §4.2; the parser keeps
// producing a best-effort AST afterwards so the caller can free it
// cleanly, which also lets tests assert recovery behavior.
func (p *Parser) ParseProgram() (*ast.Program, []*ParseError) {
	prog := &ast.Program{Loc: ast.SourceLocation{Line: 1, Column: 1}}
	for !p.isAtEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}
	return prog, p.errors
}

// FirstError returns the first parse error encountered, or nil.
func (p *Parser) FirstError() *ParseError {
	if len(p.errors) == 0 {
		return nil
	}
	return p.errors[0]
}

// ---- token stream primitives ----

func (p *Parser) isAtEnd() bool { return p.peek().Type == lexer.TOKEN_EOF }

func (p *Parser) peek() lexer.Token { return p.tokens[p.pos] }

func (p *Parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) previous() lexer.Token { return p.tokens[p.pos-1] }

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(t lexer.TokenType) bool {
	return !p.isAtEnd() && p.peek().Type == t
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	p.reportError(msg)
	return p.peek()
}

func (p *Parser) reportError(msg string) {
	p.errors = append(p.errors, newParseError(msg, p.peek()))
}

func (p *Parser) loc() ast.SourceLocation {
	t := p.peek()
	return ast.SourceLocation{Line: t.Line, Column: t.Column}
}

// synchronize skips tokens until a likely statement boundary so the
// parser can keep producing a best-effort AST after an error instead of
// looping or aborting.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Type == lexer.TOKEN_SEMICOLON || p.previous().Type == lexer.TOKEN_RBRACE {
			return
		}
		switch p.peek().Type {
		case lexer.TOKEN_LET, lexer.TOKEN_CONST, lexer.TOKEN_FN, lexer.TOKEN_IF,
			lexer.TOKEN_WHILE, lexer.TOKEN_FOR, lexer.TOKEN_RETURN, lexer.TOKEN_THROW,
			lexer.TOKEN_TRY, lexer.TOKEN_SWITCH, lexer.TOKEN_IMPORT, lexer.TOKEN_EXPORT:
			return
		}
		p.advance()
	}
}

func (p *Parser) skipSemicolon() {
	p.match(lexer.TOKEN_SEMICOLON)
}

// ---- statements ----

func (p *Parser) parseStatement() (stmt ast.Stmt) {
	startErrors := len(p.errors)
	defer func() {
		if len(p.errors) > startErrors && stmt == nil {
			p.synchronize()
		}
	}()

	switch {
	case p.check(lexer.TOKEN_LET), p.check(lexer.TOKEN_CONST):
		return p.parseLetStmt()
	case p.check(lexer.TOKEN_FN) && p.peekAt(1).Type == lexer.TOKEN_IDENT:
		return p.parseFnDeclStmt()
	case p.check(lexer.TOKEN_IF):
		return p.parseIfStmt()
	case p.check(lexer.TOKEN_WHILE):
		return p.parseWhileStmt()
	case p.check(lexer.TOKEN_FOR):
		return p.parseForStmt()
	case p.check(lexer.TOKEN_RETURN):
		return p.parseReturnStmt()
	case p.check(lexer.TOKEN_BREAK):
		loc := p.loc()
		p.advance()
		p.skipSemicolon()
		return &ast.BreakStmt{Loc: loc}
	case p.check(lexer.TOKEN_CONTINUE):
		loc := p.loc()
		p.advance()
		p.skipSemicolon()
		return &ast.ContinueStmt{Loc: loc}
	case p.check(lexer.TOKEN_SWITCH):
		return p.parseSwitchStmt()
	case p.check(lexer.TOKEN_DEFER):
		return p.parseDeferStmt()
	case p.check(lexer.TOKEN_THROW):
		return p.parseThrowStmt()
	case p.check(lexer.TOKEN_TRY):
		return p.parseTryStmt()
	case p.check(lexer.TOKEN_IMPORT):
		return p.parseImportStmt()
	case p.check(lexer.TOKEN_EXPORT):
		return p.parseExportStmt()
	case p.check(lexer.TOKEN_LBRACE):
		return p.parseBlock()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseLetStmt() ast.Stmt {
	loc := p.loc()
	isConst := p.peek().Type == lexer.TOKEN_CONST
	p.advance() // let | const

	pattern := p.parseBindingPattern()
	p.expect(lexer.TOKEN_EQ, "expected '=' in let/const declaration (an initializer is required)")
	value := p.parseExpression()
	p.skipSemicolon()
	return &ast.LetStmt{Pattern: pattern, IsConst: isConst, Value: value, Loc: loc}
}

// parseBindingPattern parses the left-hand side of `let`/`const`: a plain
// identifier, `[a, b]`, or `{k, k2: local}`.
func (p *Parser) parseBindingPattern() ast.Pattern {
	loc := p.loc()
	switch {
	case p.check(lexer.TOKEN_LBRACKET):
		p.advance()
		var elems []ast.Pattern
		for !p.check(lexer.TOKEN_RBRACKET) && !p.isAtEnd() {
			elems = append(elems, p.parseBindingPattern())
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
		p.expect(lexer.TOKEN_RBRACKET, "expected ']' to close list pattern")
		return &ast.ListPattern{Elements: elems, Loc: loc}
	case p.check(lexer.TOKEN_LBRACE):
		p.advance()
		var fields []ast.MapPatternField
		for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
			key := p.expect(lexer.TOKEN_IDENT, "expected field name in map pattern")
			local := key.Lexeme
			if p.match(lexer.TOKEN_COLON) {
				localTok := p.expect(lexer.TOKEN_IDENT, "expected binding name after ':' in map pattern")
				local = localTok.Lexeme
			}
			fields = append(fields, ast.MapPatternField{Key: key.Lexeme, Local: local})
			if !p.match(lexer.TOKEN_COMMA) {
				break
			}
		}
		p.expect(lexer.TOKEN_RBRACE, "expected '}' to close map pattern")
		return &ast.MapPattern{Fields: fields, Loc: loc}
	case p.check(lexer.TOKEN_WILDCARD):
		p.advance()
		return &ast.WildcardPattern{Loc: loc}
	default:
		name := p.expect(lexer.TOKEN_IDENT, "expected identifier")
		return &ast.IdentPattern{Name: name.Lexeme, Loc: loc}
	}
}

func (p *Parser) parseFnDeclStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // fn
	name := p.expect(lexer.TOKEN_IDENT, "expected function name")
	params := p.parseParamList()
	body := p.parseBlock()
	return &ast.FnDeclStmt{Name: name.Lexeme, Params: params, Body: body, Loc: loc}
}

func (p *Parser) parseParamList() []string {
	p.expect(lexer.TOKEN_LPAREN, "expected '(' to start parameter list")
	var params []string
	for !p.check(lexer.TOKEN_RPAREN) && !p.isAtEnd() {
		tok := p.expect(lexer.TOKEN_IDENT, "expected parameter name")
		params = append(params, tok.Lexeme)
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}
	p.expect(lexer.TOKEN_RPAREN, "expected ')' to close parameter list")
	return params
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	loc := p.loc()
	p.expect(lexer.TOKEN_LBRACE, "expected '{' to start block")
	block := &ast.BlockStmt{Loc: loc}
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	p.expect(lexer.TOKEN_RBRACE, "expected '}' to close block")
	return block
}

func (p *Parser) parseIfStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // if
	p.expect(lexer.TOKEN_LPAREN, "expected '(' after 'if'")
	cond := p.parseExpression()
	p.expect(lexer.TOKEN_RPAREN, "expected ')' after if condition")
	then := p.parseBlock()
	var elseStmt ast.Stmt
	if p.match(lexer.TOKEN_ELSE) {
		if p.check(lexer.TOKEN_IF) {
			elseStmt = p.parseIfStmt()
		} else {
			elseStmt = p.parseBlock()
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseStmt, Loc: loc}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // while
	p.expect(lexer.TOKEN_LPAREN, "expected '(' after 'while'")
	cond := p.parseExpression()
	p.expect(lexer.TOKEN_RPAREN, "expected ')' after while condition")
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Loc: loc}
}

func (p *Parser) parseForStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // for

	// `for name in iterable { ... }` has no parens before the binding name.
	if p.check(lexer.TOKEN_IDENT) && p.peekAt(1).Type == lexer.TOKEN_IN {
		name := p.advance()
		p.advance() // in
		iterable := p.parseExpression()
		body := p.parseBlock()
		return &ast.ForInStmt{Name: name.Lexeme, Iterable: iterable, Body: body, Loc: loc}
	}

	p.expect(lexer.TOKEN_LPAREN, "expected '(' after 'for'")
	var initStmt ast.Stmt
	if !p.check(lexer.TOKEN_SEMICOLON) {
		initStmt = p.parseForClauseStmt()
	}
	p.expect(lexer.TOKEN_SEMICOLON, "expected ';' after for-loop initializer")

	var cond ast.Expr
	if !p.check(lexer.TOKEN_SEMICOLON) {
		cond = p.parseExpression()
	}
	p.expect(lexer.TOKEN_SEMICOLON, "expected ';' after for-loop condition")

	var incrStmt ast.Stmt
	if !p.check(lexer.TOKEN_RPAREN) {
		incrStmt = p.parseForClauseStmt()
	}
	p.expect(lexer.TOKEN_RPAREN, "expected ')' after for-loop clauses")
	body := p.parseBlock()
	return &ast.ForStmt{Init: initStmt, Cond: cond, Incr: incrStmt, Body: body, Loc: loc}
}

// parseForClauseStmt parses a for-loop init/incr clause without consuming
// a trailing semicolon (the caller does that).
func (p *Parser) parseForClauseStmt() ast.Stmt {
	if p.check(lexer.TOKEN_LET) || p.check(lexer.TOKEN_CONST) {
		loc := p.loc()
		isConst := p.peek().Type == lexer.TOKEN_CONST
		p.advance()
		pattern := p.parseBindingPattern()
		p.expect(lexer.TOKEN_EQ, "expected '=' in let/const declaration")
		value := p.parseExpression()
		return &ast.LetStmt{Pattern: pattern, IsConst: isConst, Value: value, Loc: loc}
	}
	loc := p.loc()
	expr := p.parseExpression()
	if target, ok := expr.(ast.AssignTarget); ok && p.isAssignOp(p.peek().Type) {
		op := p.advance()
		value := p.parseExpression()
		return &ast.AssignStmt{Target: target, Op: assignOpLexeme(op.Type), Value: value, Loc: loc}
	}
	return &ast.ExprStmt{Expr: expr, Loc: loc}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // return
	var value ast.Expr
	if !p.check(lexer.TOKEN_SEMICOLON) && !p.check(lexer.TOKEN_RBRACE) {
		value = p.parseExpression()
	}
	p.skipSemicolon()
	return &ast.ReturnStmt{Value: value, Loc: loc}
}

func (p *Parser) parseSwitchStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // switch
	p.expect(lexer.TOKEN_LPAREN, "expected '(' after 'switch'")
	subject := p.parseExpression()
	p.expect(lexer.TOKEN_RPAREN, "expected ')' after switch subject")
	p.expect(lexer.TOKEN_LBRACE, "expected '{' to start switch body")

	stmt := &ast.SwitchStmt{Subject: subject, Loc: loc}
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		switch {
		case p.match(lexer.TOKEN_CASE):
			var values []ast.Expr
			values = append(values, p.parseExpression())
			for p.match(lexer.TOKEN_COMMA) {
				values = append(values, p.parseExpression())
			}
			p.expect(lexer.TOKEN_COLON, "expected ':' after case value(s)")
			body := p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, ast.SwitchCase{Values: values, Body: body})
		case p.match(lexer.TOKEN_DEFAULT):
			p.expect(lexer.TOKEN_COLON, "expected ':' after 'default'")
			body := p.parseCaseBody()
			stmt.Cases = append(stmt.Cases, ast.SwitchCase{IsDefault: true, Body: body})
		default:
			p.reportError("expected 'case' or 'default' in switch body")
			p.advance()
		}
	}
	p.expect(lexer.TOKEN_RBRACE, "expected '}' to close switch body")
	return stmt
}

func (p *Parser) parseCaseBody() []ast.Stmt {
	var body []ast.Stmt
	for !p.check(lexer.TOKEN_CASE) && !p.check(lexer.TOKEN_DEFAULT) && !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	return body
}

func (p *Parser) parseDeferStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // defer
	call := p.parseExpression()
	p.skipSemicolon()
	return &ast.DeferStmt{Call: call, Loc: loc}
}

func (p *Parser) parseThrowStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // throw
	value := p.parseExpression()
	p.skipSemicolon()
	return &ast.ThrowStmt{Value: value, Loc: loc}
}

func (p *Parser) parseTryStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // try
	body := p.parseBlock()
	stmt := &ast.TryStmt{Body: body, Loc: loc}

	if p.match(lexer.TOKEN_CATCH) {
		stmt.HasCatch = true
		p.expect(lexer.TOKEN_LPAREN, "expected '(' after 'catch'")
		name := p.expect(lexer.TOKEN_IDENT, "expected bound name in catch clause")
		stmt.CatchName = name.Lexeme
		p.expect(lexer.TOKEN_RPAREN, "expected ')' after catch binding")
		stmt.Catch = p.parseBlock()
	}
	if p.match(lexer.TOKEN_FINALLY) {
		stmt.HasFinally = true
		stmt.Finally = p.parseBlock()
	}
	if !stmt.HasCatch && !stmt.HasFinally {
		p.reportError("'try' requires at least one of 'catch' or 'finally'")
	}
	return stmt
}

func (p *Parser) parseImportSpecList() []ast.ImportSpec {
	p.expect(lexer.TOKEN_LBRACE, "expected '{' to start import list")
	var specs []ast.ImportSpec
	for !p.check(lexer.TOKEN_RBRACE) && !p.isAtEnd() {
		name := p.expect(lexer.TOKEN_IDENT, "expected identifier in import list")
		alias := name.Lexeme
		if p.match(lexer.TOKEN_AS) {
			aliasTok := p.expect(lexer.TOKEN_IDENT, "expected alias identifier after 'as'")
			alias = aliasTok.Lexeme
		}
		specs = append(specs, ast.ImportSpec{Name: name.Lexeme, Alias: alias})
		if !p.match(lexer.TOKEN_COMMA) {
			break
		}
	}
	p.expect(lexer.TOKEN_RBRACE, "expected '}' to close import list")
	return specs
}

func (p *Parser) parseImportStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // import
	stmt := &ast.ImportStmt{Loc: loc}
	if p.check(lexer.TOKEN_LBRACE) {
		stmt.Named = p.parseImportSpecList()
	} else {
		name := p.expect(lexer.TOKEN_IDENT, "expected import binding name")
		stmt.Default = name.Lexeme
	}
	p.expect(lexer.TOKEN_FROM, "expected 'from' in import statement")
	pathTok := p.expect(lexer.TOKEN_STRING, "expected module path string")
	if s, ok := pathTok.Literal.(string); ok {
		stmt.Path = s
	}
	p.skipSemicolon()
	return stmt
}

func (p *Parser) parseExportStmt() ast.Stmt {
	loc := p.loc()
	p.advance() // export
	stmt := &ast.ExportStmt{Loc: loc}
	if p.check(lexer.TOKEN_LBRACE) {
		stmt.Named = p.parseImportSpecList()
	} else {
		name := p.expect(lexer.TOKEN_IDENT, "expected exported name")
		stmt.Name = name.Lexeme
		p.expect(lexer.TOKEN_EQ, "expected '=' in export declaration")
		stmt.Value = p.parseExpression()
	}
	p.skipSemicolon()
	return stmt
}

func (p *Parser) isAssignOp(t lexer.TokenType) bool {
	switch t {
	case lexer.TOKEN_EQ, lexer.TOKEN_PLUS_EQ, lexer.TOKEN_MINUS_EQ, lexer.TOKEN_STAR_EQ, lexer.TOKEN_SLASH_EQ:
		return true
	}
	return false
}

func assignOpLexeme(t lexer.TokenType) string {
	switch t {
	case lexer.TOKEN_EQ:
		return "="
	case lexer.TOKEN_PLUS_EQ:
		return "+="
	case lexer.TOKEN_MINUS_EQ:
		return "-="
	case lexer.TOKEN_STAR_EQ:
		return "*="
	case lexer.TOKEN_SLASH_EQ:
		return "/="
	}
	return "="
}

// parseExprOrAssignStmt disambiguates assignment (a statement, never an
// expression, per spec §4.2) from a plain expression statement.
func (p *Parser) parseExprOrAssignStmt() ast.Stmt {
	loc := p.loc()
	expr := p.parseExpression()
	if target, ok := expr.(ast.AssignTarget); ok && p.isAssignOp(p.peek().Type) {
		op := p.advance()
		value := p.parseExpression()
		p.skipSemicolon()
		return &ast.AssignStmt{Target: target, Op: assignOpLexeme(op.Type), Value: value, Loc: loc}
	}
	p.skipSemicolon()
	return &ast.ExprStmt{Expr: expr, Loc: loc}
}
