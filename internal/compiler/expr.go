package compiler

import (
	"strconv"

	"awkvm/internal/bytecode"
	"awkvm/internal/token"
	"awkvm/internal/value"
)

// buildRules constructs the single dispatch table driving the parse: a
// map keyed by token kind yielding prefix/infix handlers, precedence,
// and associativity. Built once per Compiler so handlers can close over
// c without a second dispatch layer.
func (c *Compiler) buildRules() map[token.Kind]parseRule {
	r := map[token.Kind]parseRule{}

	r[token.Number] = parseRule{prefix: c.number, precedence: PrecNone}
	r[token.String] = parseRule{prefix: c.string, precedence: PrecNone}
	r[token.Identifier] = parseRule{prefix: c.identifier, precedence: PrecNone}
	r[token.LeftParen] = parseRule{prefix: c.grouping, precedence: PrecNone}
	r[token.Sigil] = parseRule{prefix: c.field, precedence: PrecNone}

	r[token.Plus] = parseRule{prefix: c.unary, infix: c.binary, precedence: PrecTerm}
	r[token.Minus] = parseRule{prefix: c.unary, infix: c.binary, precedence: PrecTerm}
	r[token.Bang] = parseRule{prefix: c.unary, precedence: PrecNone}

	r[token.Star] = parseRule{infix: c.binary, precedence: PrecFactor}
	r[token.Slash] = parseRule{infix: c.binary, precedence: PrecFactor}
	r[token.Modulus] = parseRule{infix: c.binary, precedence: PrecFactor}

	r[token.Caret] = parseRule{infix: c.binary, precedence: PrecExponent, rightAssoc: true}

	r[token.GreaterThan] = parseRule{infix: c.binary, precedence: PrecComparison}
	r[token.GreaterEqual] = parseRule{infix: c.binary, precedence: PrecComparison}
	r[token.LessThan] = parseRule{infix: c.binary, precedence: PrecComparison}
	r[token.LessEqual] = parseRule{infix: c.binary, precedence: PrecComparison}
	r[token.DoubleEqual] = parseRule{infix: c.binary, precedence: PrecComparison}
	r[token.NotEqual] = parseRule{infix: c.binary, precedence: PrecComparison}

	r[token.StringConcat] = parseRule{infix: c.concat, precedence: PrecConcat}

	r[token.And] = parseRule{infix: c.and, precedence: PrecAnd}
	r[token.Or] = parseRule{infix: c.or, precedence: PrecOr}

	r[token.Question] = parseRule{infix: c.ternary, precedence: PrecConditional, rightAssoc: true}

	r[token.Equals] = parseRule{infix: c.assign, precedence: PrecAssignment, rightAssoc: true}
	r[token.AddAssign] = parseRule{infix: c.compoundAssign, precedence: PrecAssignment, rightAssoc: true}
	r[token.SubAssign] = parseRule{infix: c.compoundAssign, precedence: PrecAssignment, rightAssoc: true}
	r[token.MulAssign] = parseRule{infix: c.compoundAssign, precedence: PrecAssignment, rightAssoc: true}
	r[token.DivAssign] = parseRule{infix: c.compoundAssign, precedence: PrecAssignment, rightAssoc: true}
	r[token.ModAssign] = parseRule{infix: c.compoundAssign, precedence: PrecAssignment, rightAssoc: true}
	r[token.PowAssign] = parseRule{infix: c.compoundAssign, precedence: PrecAssignment, rightAssoc: true}

	return r
}

// --- prefix handlers ---

func (c *Compiler) number(canAssign bool) {
	tok := c.previous()
	n, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		c.errorAt(tok, "Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func (c *Compiler) string(canAssign bool) {
	c.emitConstant(value.String(c.previous().Lexeme))
}

// identifier compiles a bare global reference, or — when an '=' or a
// compound-assign operator follows — an assignment to that global.
// Assignment binds here, in the prefix handler, NOT gated on canAssign:
// the assignment must stay part of whatever subexpression the identifier
// begins, so that `1 || foo = 2` compiles `foo = 2` into the
// short-circuited right-hand side (where the jump skips it) instead of
// reporting a dangling '='. '=' after any non-identifier operand is
// still rejected via the Equals infix rule.
func (c *Compiler) identifier(canAssign bool) {
	name := c.previous().Lexeme
	idx := c.chunk.AddName(name)

	if c.check(token.Equals) {
		c.advance()
		c.expression()
		c.emitOperand(bytecode.OpSetGlobal, idx)
		return
	}
	if isCompoundAssignOp(c.peek().Kind) {
		op := c.advance()
		c.emitOperand(bytecode.OpGetGlobal, idx)
		c.expression()
		c.emit(compoundOp(op.Kind))
		c.emitOperand(bytecode.OpSetGlobal, idx)
		return
	}
	c.emitOperand(bytecode.OpGetGlobal, idx)
}

func isCompoundAssignOp(k token.Kind) bool {
	switch k {
	case token.AddAssign, token.SubAssign, token.MulAssign, token.DivAssign, token.ModAssign, token.PowAssign:
		return true
	}
	return false
}

func compoundOp(k token.Kind) bytecode.OpCode {
	switch k {
	case token.AddAssign:
		return bytecode.OpAdd
	case token.SubAssign:
		return bytecode.OpSubtract
	case token.MulAssign:
		return bytecode.OpMultiply
	case token.DivAssign:
		return bytecode.OpDivide
	case token.ModAssign:
		return bytecode.OpModulus
	case token.PowAssign:
		return bytecode.OpExponentiation
	}
	panic("unreachable")
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

// field compiles `$expr`. The index parses at FieldVariable precedence,
// so `$i+1` parses as `($i)+1`, not `$(i+1)`.
func (c *Compiler) field(canAssign bool) {
	c.parseExpression(PrecField)
	c.emit(bytecode.OpGetFieldVariable)
}

func (c *Compiler) unary(canAssign bool) {
	op := c.previous().Kind
	c.parseExpression(PrecUnary)
	switch op {
	case token.Plus:
		c.emit(bytecode.OpUnaryPlus)
	case token.Minus:
		c.emit(bytecode.OpUnaryMinus)
	case token.Bang:
		c.emit(bytecode.OpLogicalNot)
	}
}

// --- infix handlers ---

// binary looks up its own operator's precedence/associativity from the
// rule table to decide the right-hand side's minimum precedence: one
// level higher for left-associative operators, unchanged for
// right-associative ones. Comparison operators are non-associative:
// chaining them is a syntax error rather than a silent left-grouping.
func (c *Compiler) binary(canAssign bool) {
	opTok := c.previous().Kind
	rule := c.getRule(opTok)
	if rule.rightAssoc {
		c.parseExpression(rule.precedence)
	} else {
		c.parseExpression(rule.precedence + 1)
	}
	c.emit(binaryOp(opTok))

	if isComparisonOp(opTok) && isComparisonOp(c.peek().Kind) {
		c.errorAt(c.peek(), "Comparison operators are non-associative.")
	}
}

func isComparisonOp(k token.Kind) bool {
	switch k {
	case token.GreaterThan, token.GreaterEqual, token.LessThan, token.LessEqual, token.DoubleEqual, token.NotEqual:
		return true
	}
	return false
}

func binaryOp(k token.Kind) bytecode.OpCode {
	switch k {
	case token.Plus:
		return bytecode.OpAdd
	case token.Minus:
		return bytecode.OpSubtract
	case token.Star:
		return bytecode.OpMultiply
	case token.Slash:
		return bytecode.OpDivide
	case token.Modulus:
		return bytecode.OpModulus
	case token.Caret:
		return bytecode.OpExponentiation
	case token.GreaterThan:
		return bytecode.OpGreater
	case token.GreaterEqual:
		return bytecode.OpGreaterEqual
	case token.LessThan:
		return bytecode.OpLess
	case token.LessEqual:
		return bytecode.OpLessEqual
	case token.DoubleEqual:
		return bytecode.OpDoubleEqual
	case token.NotEqual:
		return bytecode.OpNotEqual
	}
	panic("unreachable")
}

func (c *Compiler) concat(canAssign bool) {
	c.parseExpression(PrecConcat + 1)
	c.emit(bytecode.OpConcatenate)
}

// and/or compile short-circuit evaluation: a conditional jump over the
// right-hand side, with a Pop clearing the left value on the
// fall-through path.
func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.parseExpression(PrecAnd + 1)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfTrue)
	c.emit(bytecode.OpPop)
	c.parseExpression(PrecOr + 1)
	c.patchJump(endJump)
}

// ternary compiles `c ? a : b`.
func (c *Compiler) ternary(canAssign bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.parseExpression(PrecConditional)
	endJump := c.emitJump(bytecode.OpJump)

	c.patchJump(elseJump)
	c.emit(bytecode.OpPop)
	c.consume(token.Colon, "Expect ':' in ternary expression.")
	c.parseExpression(PrecConditional)
	c.patchJump(endJump)
}

// assign fires when '=' follows anything other than a bare identifier
// (identifier() consumes its own '='): a literal, a grouping, a field
// reference. None of those are assignable, so this is always an error;
// the right-hand side is still consumed to resynchronize cleanly.
func (c *Compiler) assign(canAssign bool) {
	c.errorAt(c.previous(), "Invalid assignment target.")
	c.expression()
}

func (c *Compiler) compoundAssign(canAssign bool) {
	c.errorAt(c.previous(), "Invalid assignment target.")
	c.expression()
}
