// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"
	"strings"
)

//
// exprOp
//

type exprOp byte

const (
	// unary operations
	opUnaryMinus exprOp = iota
	opLogicalNot
	opLowByte
	opHighByte

	// binary operations
	opMultiply
	opDivide
	opModulo
	opAdd
	opSubtract
	opShiftLeft
	opShiftRight
	opLess
	opLessEqual
	opGreater
	opGreaterEqual
	opEqual
	opNotEqual
	opBitwiseAND
	opBitwiseXOR
	opBitwiseOR
)

type opdata struct {
	precedence byte // 1 binds loosest; unary operations bind tighter than all
	binary     bool
	symbol     string
}

const (
	maxPrecedence   = 5
	unaryPrecedence = maxPrecedence + 1
)

var ops = []opdata{
	{unaryPrecedence, false, "-"}, // uminus
	{unaryPrecedence, false, "!"}, // not
	{unaryPrecedence, false, "<"}, // low byte
	{unaryPrecedence, false, ">"}, // high byte
	{5, true, "*"},                // multiply
	{5, true, "/"},                // divide
	{5, true, "%"},                // modulo
	{4, true, "+"},                // add
	{4, true, "-"},                // subtract
	{3, true, "<<"},               // shift_left
	{3, true, ">>"},               // shift_right
	{2, true, "<"},                // less
	{2, true, "<="},               // less_equal
	{2, true, ">"},                // greater
	{2, true, ">="},               // greater_equal
	{2, true, "=="},               // equal
	{2, true, "!="},               // not_equal
	{1, true, "&"},                // and
	{1, true, "^"},                // xor
	{1, true, "|"},                // or
}

func (op exprOp) symbol() string {
	return ops[op].symbol
}

// Find the binary operation at precedence level 'prec' matching the token.
func binaryOp(t Token, prec byte) (exprOp, bool) {
	if t.Type != TokenOp {
		return 0, false
	}
	for i, o := range ops {
		if o.binary && o.precedence == prec && o.symbol == t.Text {
			return exprOp(i), true
		}
	}
	return 0, false
}

// Find the unary operation matching the token.
func unaryOp(t Token) (exprOp, bool) {
	if t.Type != TokenOp {
		return 0, false
	}
	for i, o := range ops {
		if !o.binary && o.symbol == t.Text {
			return exprOp(i), true
		}
	}
	return 0, false
}

//
// Expr
//

type stepKind byte

const (
	stepConst  stepKind = iota // push a constant
	stepSymbol                 // push a symbol's value
	stepHere                   // push the location counter at line start
	stepUnary                  // apply a unary operation
	stepBinary                 // apply a binary operation
)

type step struct {
	kind  stepKind
	value int
	name  string
	op    exprOp
}

// An Expr is a compiled expression stored as a postfix program. It is
// built once and may be evaluated any number of times, typically once per
// assembler pass.
type Expr struct {
	steps []step
}

// Return the expression in postfix notation.
func (e *Expr) String() string {
	var parts []string
	for _, s := range e.steps {
		switch s.kind {
		case stepConst:
			parts = append(parts, strconv.Itoa(s.value))
		case stepSymbol:
			parts = append(parts, s.name)
		case stepHere:
			parts = append(parts, "*")
		case stepUnary:
			parts = append(parts, "["+s.op.symbol()+"]")
		case stepBinary:
			parts = append(parts, s.op.symbol())
		}
	}
	return strings.Join(parts, " ")
}

// A Value is the result of evaluating an expression. When the expression
// references a symbol without a value, the evaluation substitutes 1 for the
// symbol, marks the value undefined, and remembers the first missing name.
type Value struct {
	N       int
	Defined bool
	Missing string
}

// An Env supplies everything an expression may refer to.
type Env struct {
	Symbols *SymbolTable
	Scope   string // current global scope, used to qualify local symbols
	Here    int    // location counter at the start of the current line

	// By default a zero left operand of '*' is treated as 1. Set
	// StrictMultiply to use ordinary multiplication.
	StrictMultiply bool
}

// Eval runs the expression's postfix program against the environment.
// References to undefined symbols are not errors; they produce an undefined
// Value.
func (e *Expr) Eval(env *Env) (Value, error) {
	v := Value{Defined: true}
	stack := make([]int, 0, 8)

	pop := func() int {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n
	}

	for _, s := range e.steps {
		switch s.kind {
		case stepConst:
			stack = append(stack, s.value)

		case stepHere:
			stack = append(stack, env.Here)

		case stepSymbol:
			n, ok, err := env.Symbols.Lookup(env.Scope, s.name)
			if err != nil {
				return v, err
			}
			if !ok {
				n = 1
				if v.Defined {
					v.Defined, v.Missing = false, s.name
				}
			}
			stack = append(stack, n)

		case stepUnary:
			stack = append(stack, evalUnary(s.op, pop()))

		case stepBinary:
			b, a := pop(), pop()
			n, err := env.evalBinary(s.op, a, b, !v.Defined)
			if err != nil {
				return v, err
			}
			stack = append(stack, n)
		}
	}

	if len(stack) != 1 {
		return v, newError(ErrExpression, "malformed expression")
	}
	v.N = stack[0]
	return v, nil
}

func evalUnary(op exprOp, a int) int {
	switch op {
	case opUnaryMinus:
		return -a
	case opLogicalNot:
		return boolToInt(a == 0)
	case opLowByte:
		return a & 0xff
	default:
		return (a >> 8) & 0xff
	}
}

// Apply a binary operation. When 'placeholder' is set the operands may be
// derived from undefined symbols, so arithmetic faults produce 0 instead of
// an error.
func (env *Env) evalBinary(op exprOp, a, b int, placeholder bool) (int, error) {
	switch op {
	case opMultiply:
		if a == 0 && !env.StrictMultiply {
			a = 1
		}
		return a * b, nil
	case opDivide, opModulo:
		if b == 0 {
			if placeholder {
				return 0, nil
			}
			return 0, newError(ErrExpression, "division by zero")
		}
		if op == opDivide {
			return a / b, nil
		}
		return a % b, nil
	case opAdd:
		return a + b, nil
	case opSubtract:
		return a - b, nil
	case opShiftLeft, opShiftRight:
		if b < 0 {
			if placeholder {
				return 0, nil
			}
			return 0, newError(ErrExpression, "negative shift count %d", b)
		}
		if b > 63 {
			b = 63
		}
		if op == opShiftLeft {
			return a << uint(b), nil
		}
		return a >> uint(b), nil
	case opLess:
		return boolToInt(a < b), nil
	case opLessEqual:
		return boolToInt(a <= b), nil
	case opGreater:
		return boolToInt(a > b), nil
	case opGreaterEqual:
		return boolToInt(a >= b), nil
	case opEqual:
		return boolToInt(a == b), nil
	case opNotEqual:
		return boolToInt(a != b), nil
	case opBitwiseAND:
		return a & b, nil
	case opBitwiseXOR:
		return a ^ b, nil
	case opBitwiseOR:
		return a | b, nil
	}
	panic("invalid binary operation")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

//
// exprParser
//

// An exprParser is a cursor over the tokens of one line. Expressions are
// compiled by precedence climbing, appending steps in postfix order.
type exprParser struct {
	tokens []Token
	pos    int
}

func newExprParser(tokens []Token) *exprParser {
	return &exprParser{tokens: tokens}
}

func (p *exprParser) peek() Token {
	return p.tokens[p.pos]
}

func (p *exprParser) next() Token {
	t := p.tokens[p.pos]
	if t.Type != TokenEnd {
		p.pos++
	}
	return t
}

func (p *exprParser) atEnd() bool {
	return p.peek().Type == TokenEnd
}

// Report whether the string at the cursor stands alone as a data item, i.e.
// it is followed by ',' or the end of the line.
func (p *exprParser) stringItem() bool {
	if p.atEnd() {
		return false
	}
	next := p.tokens[p.pos+1]
	return next.is(",") || next.Type == TokenEnd
}

// Reset the cursor to a previously saved position.
func (p *exprParser) rewind(pos int) {
	p.pos = pos
}

// Parse an expression starting at the cursor, stopping at the first token
// that cannot continue it.
func (p *exprParser) parse() (*Expr, error) {
	e := &Expr{}
	if err := p.parseBinary(e, 1); err != nil {
		return nil, err
	}
	return e, nil
}

// Parse a complete expression that must run to the end of the line.
func (p *exprParser) parseAll() (*Expr, error) {
	e, err := p.parse()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return e, nil
}

// Fail unless the cursor is at the end of the line.
func (p *exprParser) expectEnd() error {
	t := p.peek()
	switch {
	case t.Type == TokenEnd:
		return nil
	case t.is(")"):
		return newError(ErrExpression, "unbalanced parentheses")
	default:
		return newError(ErrSyntax, "unexpected %s after expression", t)
	}
}

func (p *exprParser) parseBinary(e *Expr, prec byte) error {
	if prec > maxPrecedence {
		return p.parseUnary(e)
	}
	if err := p.parseBinary(e, prec+1); err != nil {
		return err
	}
	for {
		op, ok := binaryOp(p.peek(), prec)
		if !ok {
			return nil
		}
		p.next()
		if err := p.parseBinary(e, prec+1); err != nil {
			return err
		}
		e.steps = append(e.steps, step{kind: stepBinary, op: op})
	}
}

func (p *exprParser) parseUnary(e *Expr) error {
	if op, ok := unaryOp(p.peek()); ok {
		p.next()
		if err := p.parseUnary(e); err != nil {
			return err
		}
		e.steps = append(e.steps, step{kind: stepUnary, op: op})
		return nil
	}
	return p.parseTerm(e)
}

func (p *exprParser) parseTerm(e *Expr) error {
	t := p.next()
	switch {
	case t.Type == TokenNumber:
		e.steps = append(e.steps, step{kind: stepConst, value: t.Value})

	case t.Type == TokenSymbol:
		e.steps = append(e.steps, step{kind: stepSymbol, name: t.Text})

	case t.Type == TokenString:
		if len(t.Text) != 1 {
			return newError(ErrExpression, "string %s used as a value must be one character", t)
		}
		e.steps = append(e.steps, step{kind: stepConst, value: int(t.Text[0])})

	case t.is("*"):
		e.steps = append(e.steps, step{kind: stepHere})

	case t.is("("):
		if err := p.parseBinary(e, 1); err != nil {
			return err
		}
		if !p.peek().is(")") {
			return newError(ErrExpression, "unbalanced parentheses")
		}
		p.next()

	case t.Type == TokenEnd:
		return newError(ErrExpression, "missing operand at end of expression")

	case t.is(")"):
		return newError(ErrExpression, "unbalanced parentheses")

	default:
		return newError(ErrExpression, "unexpected %s in expression", t)
	}
	return nil
}

// ParseExpr compiles a string into an expression.
func ParseExpr(s string) (*Expr, error) {
	_, tokens, err := Tokenize(s)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 {
		return nil, newError(ErrExpression, "empty expression")
	}
	return newExprParser(tokens).parseAll()
}

// Return a short description of a value for log output.
func (v Value) String() string {
	if !v.Defined {
		return fmt.Sprintf("$%X (undefined: %s)", v.N, v.Missing)
	}
	return fmt.Sprintf("$%X", v.N)
}
