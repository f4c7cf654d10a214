// Package compiler is a single-pass Pratt (precedence-climbing) compiler:
// it consumes a token stream and emits a bytecode.Chunk directly, with no
// intermediate AST. Parsing is driven by a token-kind-keyed table of
// prefix/infix handlers; control flow compiles through forward jumps with
// placeholder offsets that are patched once their target is known.
package compiler

import (
	"awkvm/internal/bytecode"
	"awkvm/internal/errors"
	"awkvm/internal/token"
	"awkvm/internal/value"

	"golang.org/x/exp/slices"
)

// Precedence levels, lowest to highest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment        // = += -= *= /= %= ^=
	PrecConditional       // ?:
	PrecOr                // ||
	PrecAnd               // &&
	PrecComparison        // < <= > >= == !=
	PrecConcat            // juxtaposition
	PrecTerm              // + -
	PrecFactor            // * / %
	PrecUnary             // unary + - !
	PrecExponent          // ^
	PrecField             // $
	PrecPrimary
)

type parseRule struct {
	prefix     func(canAssign bool)
	infix      func(canAssign bool)
	precedence Precedence
	rightAssoc bool
}

// loopContext tracks the patch sites of break/continue inside one
// enclosing loop.
type loopContext struct {
	breakJumps     []int
	continueJumps  []int
	continueTarget int // patched once known (loopStart for while, stepStart for for)
}

// Compiler holds the parse state: feed it tokens, get back a populated
// chunk and a had-errors flag.
type Compiler struct {
	tokens  []token.Token
	current int

	chunk *bytecode.Chunk

	rules map[token.Kind]parseRule

	errs      []*errors.AwkError
	panicMode bool
	hadError  bool

	loops []*loopContext
}

func New(tokens []token.Token) *Compiler {
	c := &Compiler{
		tokens: tokens,
		chunk:  bytecode.New(),
	}
	c.rules = c.buildRules()
	return c
}

// outputFieldSep joins print's comma-separated operands. Baked in at
// compile time as an OpConstant between operands.
const outputFieldSep = " "

// Compile runs the full grammar and returns the populated chunk together
// with whether compilation succeeded.
func Compile(tokens []token.Token) (*bytecode.Chunk, bool, []*errors.AwkError) {
	c := New(tokens)
	c.program()
	line := 1
	if c.current > 0 {
		line = c.previous().Line
	}
	c.chunk.Emit(bytecode.OpReturn, line)
	return c.chunk, !c.hadError, c.errs
}

// --- token stream helpers ---

func (c *Compiler) peek() token.Token     { return c.tokens[c.current] }
func (c *Compiler) previous() token.Token { return c.tokens[c.current-1] }
func (c *Compiler) isAtEnd() bool         { return c.peek().Kind == token.Eof }

func (c *Compiler) advance() token.Token {
	if !c.isAtEnd() {
		c.current++
	}
	tok := c.previous()
	if tok.Kind == token.Error {
		c.errorAt(tok, tok.Lexeme)
	}
	return tok
}

func (c *Compiler) check(k token.Kind) bool {
	return c.peek().Kind == k
}

// checkNext reports whether the token after the lookahead has kind k. Used
// for the one two-token decision in the grammar: distinguishing the
// `name = expr ;` assignment statement from an expression statement that
// merely starts with an identifier.
func (c *Compiler) checkNext(k token.Kind) bool {
	if c.isAtEnd() || c.current+1 >= len(c.tokens) {
		return false
	}
	return c.tokens[c.current+1].Kind == k
}

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, message string) token.Token {
	if c.check(k) {
		return c.advance()
	}
	c.errorAt(c.peek(), message)
	return c.peek()
}

// --- error reporting / panic mode ---

func (c *Compiler) errorAt(tok token.Token, message string) {
	c.hadError = true
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errs = append(c.errs, errors.New(errors.CompileError, errors.Pos{Line: tok.Line, Column: tok.Column}, "Error at '%s'. %s", tok.String(), message))
}

// syncKinds are the structural keywords panic-mode recovery stops at.
var syncKinds = []token.Kind{
	token.If, token.While, token.For, token.Print, token.Printf,
	token.Break, token.Continue, token.LeftCurly, token.RightCurly,
}

// synchronize resynchronizes at the next statement boundary: a semicolon,
// or a structural keyword that can start a new statement.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for !c.isAtEnd() {
		if c.previous().Kind == token.Semicolon {
			return
		}
		if slices.Contains(syncKinds, c.peek().Kind) {
			return
		}
		c.advance()
	}
}

// --- emission helpers ---

func (c *Compiler) emit(op bytecode.OpCode) int {
	return c.chunk.Emit(op, c.previous().Line)
}

func (c *Compiler) emitOperand(op bytecode.OpCode, operand int) int {
	return c.chunk.EmitOperand(op, operand, c.previous().Line)
}

func (c *Compiler) emitConstant(v value.Value) {
	c.chunk.EmitConstant(v, c.previous().Line)
}

func (c *Compiler) emitJump(op bytecode.OpCode) int {
	return c.chunk.EmitOperand(op, 0, c.previous().Line)
}

func (c *Compiler) patchJump(offset int) {
	c.chunk.PatchJump(offset)
}

// --- Pratt engine ---

func (c *Compiler) getRule(k token.Kind) parseRule {
	if r, ok := c.rules[k]; ok {
		return r
	}
	return parseRule{precedence: PrecNone}
}

// parseExpression compiles one expression. Every expression pushes
// exactly one value at runtime and every statement is net-zero; that
// discipline is what lets the record-boundary stack-empty check catch
// compiler bugs.
func (c *Compiler) parseExpression(minPrec Precedence) {
	c.advance()
	prefix := c.getRule(c.previous().Kind).prefix
	if prefix == nil {
		c.errorAt(c.previous(), "Expect expression.")
		return
	}
	canAssign := minPrec <= PrecAssignment
	prefix(canAssign)

	for !c.isAtEnd() && minPrec <= c.getRule(c.peek().Kind).precedence {
		rule := c.getRule(c.peek().Kind)
		c.advance()
		rule.infix(canAssign)
	}
}

func (c *Compiler) expression() {
	c.parseExpression(PrecAssignment)
}

// --- loop context stack ---

func (c *Compiler) pushLoop() *loopContext {
	lc := &loopContext{}
	c.loops = append(c.loops, lc)
	return lc
}

func (c *Compiler) popLoop() *loopContext {
	lc := c.loops[len(c.loops)-1]
	c.loops = c.loops[:len(c.loops)-1]
	return lc
}

func (c *Compiler) currentLoop() *loopContext {
	if len(c.loops) == 0 {
		return nil
	}
	return c.loops[len(c.loops)-1]
}

// finishLoop patches every break jump to the current chunk position and
// every continue jump to lc.continueTarget.
func (c *Compiler) finishLoop(lc *loopContext) {
	for _, offset := range lc.breakJumps {
		c.chunk.PatchJump(offset)
	}
	for _, offset := range lc.continueJumps {
		c.chunk.Instructions[offset].Operand = lc.continueTarget - offset - 1
	}
}
