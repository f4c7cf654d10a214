package bytecode

import (
	"testing"

	"awkvm/internal/value"
)

func TestEmitReturnsOffsets(t *testing.T) {
	c := New()
	if off := c.Emit(OpPop, 1); off != 0 {
		t.Errorf("first Emit offset = %d, want 0", off)
	}
	if off := c.EmitConstant(value.Number(1), 1); off != 1 {
		t.Errorf("second Emit offset = %d, want 1", off)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestAddNameInternsDuplicates(t *testing.T) {
	c := New()
	a := c.AddName("x")
	b := c.AddName("y")
	if a == b {
		t.Fatalf("distinct names share a slot")
	}
	if again := c.AddName("x"); again != a {
		t.Errorf("AddName(%q) = %d on reuse, want %d", "x", again, a)
	}
	if len(c.Constants) != 2 {
		t.Errorf("constant pool has %d entries, want 2", len(c.Constants))
	}
}

// TestPatchJumpLandsOnNextEmit: a patched forward jump, applied to the
// instruction pointer after the jump decodes, lands exactly on the
// instruction emitted right after patching.
func TestPatchJumpLandsOnNextEmit(t *testing.T) {
	c := New()
	c.EmitConstant(value.Number(1), 1)
	jump := c.EmitOperand(OpJumpIfFalse, 0, 1)
	c.Emit(OpPop, 1)
	c.EmitConstant(value.Number(2), 1)
	c.PatchJump(jump)
	target := c.Emit(OpPrint, 1)

	// ip sits past the jump (jump+1) when the offset is applied.
	if got := jump + 1 + c.Instructions[jump].Operand; got != target {
		t.Errorf("patched jump lands at %d, want %d", got, target)
	}
}

// TestEmitLoopTargetsLoopStart: the backward jump's offset, subtracted
// from the instruction pointer after the Loop decodes, returns to start.
func TestEmitLoopTargetsLoopStart(t *testing.T) {
	c := New()
	c.EmitConstant(value.Number(1), 1)
	start := c.Len()
	c.Emit(OpPop, 1)
	c.Emit(OpPop, 1)
	c.EmitLoop(start, 1)

	loopOff := c.Len() - 1
	if got := loopOff + 1 - c.Instructions[loopOff].Operand; got != start {
		t.Errorf("loop jump lands at %d, want %d", got, start)
	}
}

func TestOpCodeNames(t *testing.T) {
	if OpConstant.String() != "OpConstant" {
		t.Errorf("OpConstant renders as %q", OpConstant.String())
	}
	if OpGetFieldVariable.String() != "GetFieldVariable" {
		t.Errorf("OpGetFieldVariable renders as %q", OpGetFieldVariable.String())
	}
	if OpCode(200).String() != "Unknown" {
		t.Errorf("out-of-range opcode renders as %q", OpCode(200).String())
	}
}
