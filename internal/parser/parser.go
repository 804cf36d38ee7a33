// Package parser implements a Pratt-style recursive-descent parser over
// the token stream produced by internal/lexer, following the precedence
// table from spec.md §6.
package parser

import (
	"fmt"

	"github.com/sunholo/picocaml/internal/ast"
	"github.com/sunholo/picocaml/internal/lexer"
)

// Precedence levels, low to high, matching spec.md §6.
const (
	LOWEST int = iota
	CONSPREC
	COMPARE
	SUM
	PRODUCT
	APPLY
)

var precedences = map[lexer.Kind]int{
	lexer.LT:    COMPARE,
	lexer.PLUS:  SUM,
	lexer.MINUS: SUM,
	lexer.STAR:  PRODUCT,
	lexer.CONS:  CONSPREC,
}

// ParseError reports a syntax error with source position.
type ParseError struct {
	Msg  string
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: parse error: %s", e.Line, e.Col, e.Msg)
}

type (
	prefixParseFn func() (ast.Expr, error)
	infixParseFn  func(ast.Expr) (ast.Expr, error)
)

// Parser consumes a token stream and builds an ast.Expr tree.
type Parser struct {
	l *lexer.Lexer

	cur  lexer.Token
	peek lexer.Token

	prefixFns map[lexer.Kind]prefixParseFn
	infixFns  map[lexer.Kind]infixParseFn
}

// New constructs a Parser over l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixFns = map[lexer.Kind]prefixParseFn{
		lexer.INT:      p.parseInt,
		lexer.TRUE:     p.parseBool,
		lexer.FALSE:    p.parseBool,
		lexer.IDENT:    p.parseVar,
		lexer.LPAREN:   p.parseGrouped,
		lexer.LBRACKET: p.parseNil,
		lexer.MINUS:    p.parseNegative,
		lexer.IF:       p.parseIf,
		lexer.LET:      p.parseLet,
		lexer.FUN:      p.parseFun,
		lexer.MATCH:    p.parseMatch,
	}

	p.infixFns = map[lexer.Kind]infixParseFn{
		lexer.PLUS:  p.parseBinOp,
		lexer.MINUS: p.parseBinOp,
		lexer.STAR:  p.parseBinOp,
		lexer.LT:    p.parseLt,
		lexer.CONS:  p.parseCons,
	}

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos { return ast.Pos{Line: p.cur.Line, Column: p.cur.Column} }

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Line: p.cur.Line, Col: p.cur.Column}
}

func (p *Parser) expect(kind lexer.Kind) error {
	if p.cur.Kind != kind {
		return p.errorf("expected %s, got %s (%q)", kind, p.cur.Kind, p.cur.Literal)
	}
	p.nextToken()
	return nil
}

// ParseExpression parses a single top-level expression.
func ParseExpression(input string) (ast.Expr, error) {
	p := New(lexer.New(input))
	expr, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.EOF {
		return nil, p.errorf("unexpected trailing token %s (%q)", p.cur.Kind, p.cur.Literal)
	}
	return expr, nil
}

func (p *Parser) parseExpr(precedence int) (ast.Expr, error) {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		return nil, p.errorf("unexpected token %s (%q)", p.cur.Kind, p.cur.Literal)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	// Function application is left-associative and binds tighter than
	// every infix operator: an atom-starting token (integer, identifier,
	// boolean, '(' or '[') directly following an expression is read as an
	// application argument.
	for p.canStartApplicationArg() {
		left, err = p.parseApp(left)
		if err != nil {
			return nil, err
		}
	}

	for precedence < p.peekPrecedence() && p.infixFns[p.cur.Kind] != nil {
		infix := p.infixFns[p.cur.Kind]
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
		for p.canStartApplicationArg() {
			left, err = p.parseApp(left)
			if err != nil {
				return nil, err
			}
		}
	}

	return left, nil
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.cur.Kind]; ok {
		return prec
	}
	return LOWEST
}

// canStartApplicationArg reports whether the current token could begin an
// application argument (a tighter-than-everything-else atom).
func (p *Parser) canStartApplicationArg() bool {
	switch p.cur.Kind {
	case lexer.INT, lexer.IDENT, lexer.TRUE, lexer.FALSE, lexer.LPAREN, lexer.LBRACKET:
		return true
	default:
		return false
	}
}

func (p *Parser) parseApp(fn ast.Expr) (ast.Expr, error) {
	pos := p.pos()
	arg, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return &ast.App{Fn: fn, Arg: arg, Pos: pos}, nil
}

// parseAtom parses a single application-tight atom, without consuming
// further application arguments itself (parseExpr's application loop does
// that).
func (p *Parser) parseAtom() (ast.Expr, error) {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		return nil, p.errorf("unexpected token %s (%q)", p.cur.Kind, p.cur.Literal)
	}
	return prefix()
}

func (p *Parser) parseInt() (ast.Expr, error) {
	pos := p.pos()
	lit := p.cur.Literal
	n := 0
	for _, ch := range lit {
		n = n*10 + int(ch-'0')
	}
	p.nextToken()
	return &ast.Int{Value: n, Pos: pos}, nil
}

func (p *Parser) parseNegative() (ast.Expr, error) {
	pos := p.pos()
	p.nextToken()
	operand, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return &ast.BinOp{Op: ast.Sub, Left: &ast.Int{Value: 0, Pos: pos}, Right: operand, Pos: pos}, nil
}

func (p *Parser) parseBool() (ast.Expr, error) {
	pos := p.pos()
	val := p.cur.Kind == lexer.TRUE
	p.nextToken()
	return &ast.Bool{Value: val, Pos: pos}, nil
}

func (p *Parser) parseVar() (ast.Expr, error) {
	pos := p.pos()
	name := p.cur.Literal
	p.nextToken()
	return &ast.Var{Name: name, Pos: pos}, nil
}

func (p *Parser) parseGrouped() (ast.Expr, error) {
	p.nextToken() // consume '('
	expr, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseNil() (ast.Expr, error) {
	pos := p.pos()
	if err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.Nil{Pos: pos}, nil
}

func (p *Parser) parseBinOp(left ast.Expr) (ast.Expr, error) {
	pos := p.pos()
	var op ast.BinOpKind
	switch p.cur.Kind {
	case lexer.PLUS:
		op = ast.Add
	case lexer.MINUS:
		op = ast.Sub
	case lexer.STAR:
		op = ast.Mul
	}
	precedence := precedences[p.cur.Kind]
	p.nextToken()
	right, err := p.parseExpr(precedence)
	if err != nil {
		return nil, err
	}
	return &ast.BinOp{Op: op, Left: left, Right: right, Pos: pos}, nil
}

func (p *Parser) parseLt(left ast.Expr) (ast.Expr, error) {
	pos := p.pos()
	p.nextToken()
	right, err := p.parseExpr(COMPARE)
	if err != nil {
		return nil, err
	}
	return &ast.Lt{Left: left, Right: right, Pos: pos}, nil
}

func (p *Parser) parseCons(left ast.Expr) (ast.Expr, error) {
	pos := p.pos()
	p.nextToken()
	// `::` is right-associative: parse the right side at one precedence
	// level below CONSPREC so a chained `a :: b :: c` nests as
	// `a :: (b :: c)`.
	right, err := p.parseExpr(CONSPREC - 1)
	if err != nil {
		return nil, err
	}
	return &ast.Cons{Car: left, Cdr: right, Pos: pos}, nil
}

func (p *Parser) parseIf() (ast.Expr, error) {
	pos := p.pos()
	p.nextToken() // consume 'if'
	cond, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.THEN); err != nil {
		return nil, err
	}
	then, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.ELSE); err != nil {
		return nil, err
	}
	els, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.If{Cond: cond, Then: then, Else: els, Pos: pos}, nil
}

func (p *Parser) parseLet() (ast.Expr, error) {
	pos := p.pos()
	p.nextToken() // consume 'let'

	if p.cur.Kind == lexer.REC {
		return p.parseLetRec(pos)
	}

	if p.cur.Kind != lexer.IDENT {
		return nil, p.errorf("expected identifier after 'let', got %s", p.cur.Kind)
	}
	name := p.cur.Literal
	p.nextToken()

	if err := p.expect(lexer.EQ); err != nil {
		return nil, err
	}
	bound, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.IN); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.Let{Name: name, Bound: bound, Body: body, Pos: pos}, nil
}

func (p *Parser) parseLetRec(pos ast.Pos) (ast.Expr, error) {
	p.nextToken() // consume 'rec'

	if p.cur.Kind != lexer.IDENT {
		return nil, p.errorf("expected identifier after 'let rec', got %s", p.cur.Kind)
	}
	name := p.cur.Literal
	p.nextToken()

	if err := p.expect(lexer.EQ); err != nil {
		return nil, err
	}

	fnExpr, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	fn, ok := fnExpr.(*ast.Fun)
	if !ok {
		return nil, p.errorf("'let rec %s =' must bind a 'fun', got %s", name, fnExpr)
	}

	if err := p.expect(lexer.IN); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.LetRec{Name: name, Fn: fn, Body: body, Pos: pos}, nil
}

func (p *Parser) parseFun() (ast.Expr, error) {
	pos := p.pos()
	p.nextToken() // consume 'fun'

	if p.cur.Kind != lexer.IDENT {
		return nil, p.errorf("expected parameter name after 'fun', got %s", p.cur.Kind)
	}
	param := p.cur.Literal
	p.nextToken()

	if err := p.expect(lexer.ARROW); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.Fun{Param: param, Body: body, Pos: pos}, nil
}

func (p *Parser) parseMatch() (ast.Expr, error) {
	pos := p.pos()
	p.nextToken() // consume 'match'

	scrutinee, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.WITH); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.ARROW); err != nil {
		return nil, err
	}
	nilCase, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.PIPE); err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.IDENT {
		return nil, p.errorf("expected head variable in cons pattern, got %s", p.cur.Kind)
	}
	hd := p.cur.Literal
	p.nextToken()
	if err := p.expect(lexer.CONS); err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.IDENT {
		return nil, p.errorf("expected tail variable in cons pattern, got %s", p.cur.Kind)
	}
	tl := p.cur.Literal
	p.nextToken()
	if err := p.expect(lexer.ARROW); err != nil {
		return nil, err
	}
	consCase, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}

	return &ast.Match{
		Scrutinee: scrutinee,
		NilCase:   nilCase,
		HdName:    hd,
		TlName:    tl,
		ConsCase:  consCase,
		Pos:       pos,
	}, nil
}
