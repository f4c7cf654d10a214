package compiler_test

// Codegen-shape tests: assert the exact opcode sequences the compiler
// emits for each control-flow skeleton, independent of execution.

import (
	"testing"

	"awkvm/internal/bytecode"
	"awkvm/internal/compiler"
	"awkvm/internal/scanner"
)

func compileOps(t *testing.T, source string) *bytecode.Chunk {
	t.Helper()
	tokens := scanner.New(source).Scan()
	chunk, ok, errs := compiler.Compile(tokens)
	if !ok {
		t.Fatalf("compile failed: %v", errs)
	}
	return chunk
}

func assertOps(t *testing.T, chunk *bytecode.Chunk, want []bytecode.OpCode) {
	t.Helper()
	if len(chunk.Instructions) != len(want) {
		t.Fatalf("got %d instructions, want %d:\n%v", len(chunk.Instructions), len(want), opNames(chunk))
	}
	for i, instr := range chunk.Instructions {
		if instr.Op != want[i] {
			t.Fatalf("instruction %d: got %s, want %s:\n%v", i, instr.Op, want[i], opNames(chunk))
		}
	}
}

func opNames(chunk *bytecode.Chunk) []string {
	names := make([]string, len(chunk.Instructions))
	for i, instr := range chunk.Instructions {
		names[i] = instr.Op.String()
	}
	return names
}

func TestCodegenExpressionStatement(t *testing.T) {
	chunk := compileOps(t, "{1 + 2;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpConstant, bytecode.OpAdd,
		bytecode.OpPop,
		bytecode.OpReturn,
	})
}

func TestCodegenAssignmentStatementUsesDefineGlobal(t *testing.T) {
	chunk := compileOps(t, "{x = 1;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpDefineGlobal,
		bytecode.OpReturn,
	})
}

func TestCodegenExpressionAssignmentUsesSetGlobal(t *testing.T) {
	chunk := compileOps(t, "{print x = 1;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpSetGlobal,
		bytecode.OpPrint,
		bytecode.OpReturn,
	})
}

func TestCodegenCompoundAssignment(t *testing.T) {
	chunk := compileOps(t, "{x += 1;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpGetGlobal, bytecode.OpConstant, bytecode.OpAdd, bytecode.OpSetGlobal,
		bytecode.OpPop,
		bytecode.OpReturn,
	})
}

func TestCodegenLogicalAnd(t *testing.T) {
	// LHS; JumpIfFalse over; Pop; RHS.
	chunk := compileOps(t, "{1 && 2;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant,
		bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpConstant,
		bytecode.OpPop,
		bytecode.OpReturn,
	})
}

func TestCodegenLogicalOr(t *testing.T) {
	chunk := compileOps(t, "{1 || 2;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant,
		bytecode.OpJumpIfTrue, bytecode.OpPop,
		bytecode.OpConstant,
		bytecode.OpPop,
		bytecode.OpReturn,
	})
}

func TestCodegenTernary(t *testing.T) {
	// cond; JumpIfFalse else; Pop; a; Jump end; (else) Pop; b.
	chunk := compileOps(t, "{x = 1 ? 2 : 3;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant,
		bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpConstant,
		bytecode.OpJump, bytecode.OpPop,
		bytecode.OpConstant,
		bytecode.OpDefineGlobal,
		bytecode.OpReturn,
	})
}

func TestCodegenIfElse(t *testing.T) {
	chunk := compileOps(t, "{if (1) 2; else 3;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant,
		bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpConstant, bytecode.OpPop, // then branch, statement Pop
		bytecode.OpJump, bytecode.OpPop,
		bytecode.OpConstant, bytecode.OpPop, // else branch
		bytecode.OpReturn,
	})
}

func TestCodegenWhile(t *testing.T) {
	// cond; JumpIfFalse exit; Pop; body; Loop; (exit) Pop.
	chunk := compileOps(t, "{while (1) 2;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant,
		bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpConstant, bytecode.OpPop,
		bytecode.OpLoop,
		bytecode.OpPop,
		bytecode.OpReturn,
	})
}

func TestCodegenFor(t *testing.T) {
	// init; (loop) cond; JumpIfFalse exit; Pop; Jump body; (step) step,
	// Pop; Loop loop; (body) body; Loop step; (exit) Pop.
	chunk := compileOps(t, "{for (x = 0; 1; x = 2) 3;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpSetGlobal, bytecode.OpPop, // init
		bytecode.OpConstant, // cond
		bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpJump,
		bytecode.OpConstant, bytecode.OpSetGlobal, bytecode.OpPop, // step
		bytecode.OpLoop,
		bytecode.OpConstant, bytecode.OpPop, // body
		bytecode.OpLoop,
		bytecode.OpPop,
		bytecode.OpReturn,
	})
}

func TestCodegenPrintListInterleavesSeparator(t *testing.T) {
	// e1; OFS-constant; Concatenate; e2; Concatenate; OpPrint.
	chunk := compileOps(t, "{print 1, 2;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant,
		bytecode.OpConstant, bytecode.OpConcatenate,
		bytecode.OpConstant, bytecode.OpConcatenate,
		bytecode.OpPrint,
		bytecode.OpReturn,
	})
}

func TestCodegenBarePatternPrintsRecord(t *testing.T) {
	// pattern; JumpIfFalse skip; Pop; $0; OpPrint; Jump end; (skip) Pop.
	chunk := compileOps(t, "1")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant,
		bytecode.OpJumpIfFalse, bytecode.OpPop,
		bytecode.OpConstant, bytecode.OpGetFieldVariable, bytecode.OpPrint,
		bytecode.OpJump, bytecode.OpPop,
		bytecode.OpReturn,
	})
}

func TestCodegenFieldAccess(t *testing.T) {
	chunk := compileOps(t, "{print $1;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpGetFieldVariable,
		bytecode.OpPrint,
		bytecode.OpReturn,
	})
}

func TestCodegenUnary(t *testing.T) {
	chunk := compileOps(t, "{!-+1;}")
	assertOps(t, chunk, []bytecode.OpCode{
		bytecode.OpConstant,
		bytecode.OpUnaryPlus, bytecode.OpUnaryMinus, bytecode.OpLogicalNot,
		bytecode.OpPop,
		bytecode.OpReturn,
	})
}

// TestCodegenJumpTargets pins the patched offsets of the && skeleton: the
// JumpIfFalse must land exactly past the right-hand side.
func TestCodegenJumpTargets(t *testing.T) {
	chunk := compileOps(t, "{1 && 2;}")
	jump := chunk.Instructions[1]
	if jump.Op != bytecode.OpJumpIfFalse {
		t.Fatalf("instruction 1 is %s, want JumpIfFalse", jump.Op)
	}
	// Offsets are relative to the instruction after the jump: 1 (the
	// jump) + 1 + operand must land on the statement's Pop at offset 4.
	if target := 1 + 1 + jump.Operand; target != 4 {
		t.Errorf("JumpIfFalse lands at %d, want 4:\n%v", target, opNames(chunk))
	}
}
