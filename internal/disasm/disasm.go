// Package disasm renders a compiled bytecode.Chunk as human-readable
// text, for the CLI's -d/--dump debug flag: one line per instruction,
// with the operand resolved to what it means for that opcode — a
// constant value, a global's name, a jump's absolute target offset.
package disasm

import (
	"fmt"
	"io"

	"github.com/kr/pretty"

	"awkvm/internal/bytecode"
)

// Dump writes one line per instruction in chunk to w.
func Dump(w io.Writer, name string, chunk *bytecode.Chunk) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset, instr := range chunk.Instructions {
		fmt.Fprintf(w, "%04d line %-4d %-16s", offset, instr.Line, instr.Op)
		switch instr.Op {
		case bytecode.OpConstant:
			fmt.Fprintf(w, "%# v\n", pretty.Formatter(instr.Val))
		case bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpDefineGlobal:
			name := "<out of range>"
			if instr.Operand >= 0 && instr.Operand < len(chunk.Constants) {
				name = chunk.Constants[instr.Operand]
			}
			fmt.Fprintf(w, "%d '%s'\n", instr.Operand, name)
		case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpJumpIfTrue:
			fmt.Fprintf(w, "-> %d\n", offset+1+instr.Operand)
		case bytecode.OpLoop:
			fmt.Fprintf(w, "-> %d\n", offset+1-instr.Operand)
		default:
			fmt.Fprintln(w)
		}
	}
	if len(chunk.Constants) > 0 {
		fmt.Fprintf(w, "-- names (%d) --\n", len(chunk.Constants))
		for i, name := range chunk.Constants {
			fmt.Fprintf(w, "%4d '%s'\n", i, name)
		}
	}
}
