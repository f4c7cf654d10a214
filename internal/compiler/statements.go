package compiler

import (
	"awkvm/internal/bytecode"
	"awkvm/internal/token"
	"awkvm/internal/value"
)

// emitFieldZero pushes $0 (the whole record) onto the stack: a zero
// constant followed by a field-variable lookup, the same sequence the
// compiler emits for any `$expr` in source (internal/compiler/expr.go's
// field handler).
func (c *Compiler) emitFieldZero() {
	c.chunk.EmitConstant(value.Number(0), c.previous().Line)
	c.chunk.Emit(bytecode.OpGetFieldVariable, c.previous().Line)
}

// program compiles the top-level `pattern? action?` rule sequence. Every
// rule is independent: AWK evaluates each rule against the current record
// regardless of whether an earlier rule matched, so rules compile as
// successive if-without-else blocks over the same implicit per-record
// entry point rather than an else-if chain.
func (c *Compiler) program() {
	for !c.isAtEnd() {
		c.rule()
		if c.panicMode {
			c.synchronize()
		}
	}
}

// rule compiles one `pattern? action?` unit. A bare pattern with no
// action defaults to `{ print }`; a bare action with no pattern always
// runs. BEGIN and END are scanned as keywords but have no codegen: a
// program using them fails with "Expect expression" at the keyword —
// running their body once per record would be wrong, so until they are
// implemented they fail the same way any other unhandled prefix position
// does.
func (c *Compiler) rule() {
	if c.check(token.LeftCurly) {
		c.block()
		return
	}

	// Expression pattern, optionally followed by an action block.
	c.expression()
	skip := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)

	if c.check(token.LeftCurly) {
		c.block()
	} else {
		c.emitFieldZero()
		c.emit(bytecode.OpPrint)
	}

	end := c.emitJump(bytecode.OpJump)
	c.patchJump(skip)
	c.emit(bytecode.OpPop)
	c.patchJump(end)
}

func (c *Compiler) block() {
	c.consume(token.LeftCurly, "Expect '{'.")
	for !c.check(token.RightCurly) && !c.isAtEnd() {
		c.statement()
		if c.panicMode {
			c.synchronize()
		}
	}
	c.consume(token.RightCurly, "Expect '}' after block.")
}

func (c *Compiler) statement() {
	switch c.peek().Kind {
	case token.LeftCurly:
		c.block()
		return
	case token.Print:
		c.advance()
		c.printStatement()
		return
	case token.If:
		c.advance()
		c.ifStatement()
		return
	case token.While:
		c.advance()
		c.whileStatement()
		return
	case token.For:
		c.advance()
		c.forStatement()
		return
	case token.Break:
		c.advance()
		c.breakStatement()
		return
	case token.Continue:
		c.advance()
		c.continueStatement()
		return
	case token.Semicolon:
		c.advance()
		return
	case token.Identifier:
		// `name = expr ;` at statement level compiles through
		// DefineGlobal so the statement is net-zero on the stack without
		// a separate Pop. Anything else starting with an identifier is
		// an ordinary expression statement.
		if c.checkNext(token.Equals) {
			c.assignStatement()
			return
		}
	}
	c.expressionStatement()
}

// assignStatement compiles `name = expr ;` as a statement: the value is
// written and popped in one DefineGlobal, unlike expression-position
// assignment where SetGlobal leaves the value available.
func (c *Compiler) assignStatement() {
	name := c.advance().Lexeme
	idx := c.chunk.AddName(name)
	c.consume(token.Equals, "Expect '=' in assignment.")
	c.expression()
	c.emitOperand(bytecode.OpDefineGlobal, idx)
	c.consume(token.Semicolon, "Expect ';' at the end of a statement.")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.emit(bytecode.OpPop)
	c.consume(token.Semicolon, "Expect ';' at the end of a statement.")
}

// printStatement compiles `print e1, e2, ... ;`. An empty argument list
// prints $0. Successive operands are joined at compile time by an
// OFS-constant-and-Concatenate pair, so the VM's OpPrint pops exactly one
// already-joined value.
func (c *Compiler) printStatement() {
	if c.check(token.Semicolon) || c.check(token.RightCurly) || c.isAtEnd() {
		c.emitFieldZero()
	} else {
		c.expression()
		for c.match(token.Comma) {
			c.emitConstant(value.String(outputFieldSep))
			c.emit(bytecode.OpConcatenate)
			c.expression()
			c.emit(bytecode.OpConcatenate)
		}
	}
	c.emit(bytecode.OpPrint)
	c.consume(token.Semicolon, "Expect ';' at the end of a statement.")
}

// ifStatement implements the classic forward-jump-then-patch idiom:
// compile the condition, jump-if-false over the then branch, optionally
// jump over an else branch at the end of then.
func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emit(bytecode.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

// whileStatement compiles a condition-checked-first loop, with break
// jumps patched to just past the loop and continue jumps patched back to
// the condition re-check.
func (c *Compiler) whileStatement() {
	loopStart := c.chunk.Len()
	lc := c.pushLoop()
	lc.continueTarget = loopStart

	c.consume(token.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop)
	c.statement()
	c.chunk.EmitLoop(loopStart, c.previous().Line)

	c.patchJump(exitJump)
	c.emit(bytecode.OpPop)

	c.finishLoop(c.popLoop())
}

// forStatement compiles the three-clause C-style for loop. AWK's
// `for (k in arr)` form needs an array type this value model does not
// have.
func (c *Compiler) forStatement() {
	c.consume(token.LeftParen, "Expect '(' after 'for'.")

	if c.match(token.Semicolon) {
		// no init
	} else {
		c.expressionStatement()
	}

	loopStart := c.chunk.Len()
	exitJump := -1
	if !c.check(token.Semicolon) {
		c.expression()
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emit(bytecode.OpPop)
	}
	c.consume(token.Semicolon, "Expect ';' after loop condition.")

	bodyJump := c.emitJump(bytecode.OpJump)
	stepStart := c.chunk.Len()
	lc := c.pushLoop()
	lc.continueTarget = stepStart

	if !c.check(token.RightParen) {
		c.expression()
		c.emit(bytecode.OpPop)
	}
	c.consume(token.RightParen, "Expect ')' after for clauses.")
	c.chunk.EmitLoop(loopStart, c.previous().Line)

	c.patchJump(bodyJump)
	c.statement()
	c.chunk.EmitLoop(stepStart, c.previous().Line)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emit(bytecode.OpPop)
	}

	c.finishLoop(c.popLoop())
}

func (c *Compiler) breakStatement() {
	lc := c.currentLoop()
	if lc == nil {
		c.errorAt(c.previous(), "'break' outside of loop.")
	} else {
		lc.breakJumps = append(lc.breakJumps, c.emitJump(bytecode.OpJump))
	}
	c.consume(token.Semicolon, "Expect ';' after 'break'.")
}

func (c *Compiler) continueStatement() {
	lc := c.currentLoop()
	if lc == nil {
		c.errorAt(c.previous(), "'continue' outside of loop.")
	} else {
		lc.continueJumps = append(lc.continueJumps, c.emitJump(bytecode.OpJump))
	}
	c.consume(token.Semicolon, "Expect ';' after 'continue'.")
}
