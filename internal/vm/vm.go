// Package vm executes a compiled bytecode.Chunk against one input record
// at a time: fetch the current instruction, switch on its opcode, mutate
// a flat value stack. There are no call frames and no heap objects —
// just the stack and one global-variable map.
package vm

import (
	"bufio"
	"fmt"
	"math"

	"awkvm/internal/bytecode"
	"awkvm/internal/errors"
	"awkvm/internal/record"
	"awkvm/internal/value"
)

// builtin global variable names.
const (
	globalNF  = "NF"
	globalNR  = "NR"
	globalFS  = "FS"
	globalOFS = "OFS"
	globalORS = "ORS"
)

// VM runs one compiled chunk repeatedly, once per input record, reusing
// its global-variable table and output writer across records the way a
// real AWK run keeps state (NR, user globals) alive for the whole input.
type VM struct {
	chunk *bytecode.Chunk
	ip    int
	stack []value.Value

	globals map[string]value.Value
	rec     record.Record

	out *bufio.Writer
}

// New creates a VM bound to chunk and writing printed output to out.
func New(chunk *bytecode.Chunk, out *bufio.Writer) *VM {
	vm := &VM{
		chunk:   chunk,
		globals: map[string]value.Value{},
		out:     out,
	}
	vm.globals[globalFS] = value.String(" ")
	vm.globals[globalOFS] = value.String(" ")
	vm.globals[globalORS] = value.String("\n")
	vm.globals[globalNR] = value.Number(0)
	vm.globals[globalNF] = value.Number(0)
	return vm
}

// SetFieldSeparator pre-seeds FS before the first record, for the CLI's
// -F flag. FS is an ordinary global afterward; a program that assigns to
// it takes effect starting with the next record.
func (vm *VM) SetFieldSeparator(sep string) {
	vm.globals[globalFS] = value.String(sep)
}

// RunRecord executes the chunk once against line, resetting the
// instruction pointer and enforcing the stack-empty invariant at
// OpReturn.
func (vm *VM) RunRecord(line string) error {
	rec, err := record.Split(line, vm.globals[globalFS].Str())
	if err != nil {
		return err
	}
	vm.rec = rec
	vm.globals[globalNF] = value.Number(float64(rec.NF()))
	vm.globals[globalNR] = value.Number(vm.globals[globalNR].Num() + 1)

	vm.ip = 0
	vm.stack = vm.stack[:0]
	return vm.run()
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	n := len(vm.stack)
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) peek() value.Value {
	return vm.stack[len(vm.stack)-1]
}

func (vm *VM) runtimeErr(line int, format string, args ...interface{}) error {
	return errors.New(errors.RuntimeError, errors.Pos{Line: line}, format, args...)
}

// require guards the pops an opcode is about to perform: the stack must
// be at least n deep, or execution halts with a diagnosed underflow.
func (vm *VM) require(n, line int) error {
	if len(vm.stack) < n {
		return vm.runtimeErr(line, "stack underflow: need %d value(s), have %d", n, len(vm.stack))
	}
	return nil
}

// stackNeed is the number of operands each opcode pops. Opcodes absent from
// the table pop nothing.
var stackNeed = map[bytecode.OpCode]int{
	bytecode.OpPop:              1,
	bytecode.OpAdd:              2,
	bytecode.OpSubtract:         2,
	bytecode.OpMultiply:         2,
	bytecode.OpDivide:           2,
	bytecode.OpModulus:          2,
	bytecode.OpExponentiation:   2,
	bytecode.OpUnaryPlus:        1,
	bytecode.OpUnaryMinus:       1,
	bytecode.OpLogicalNot:       1,
	bytecode.OpConcatenate:      2,
	bytecode.OpGreater:          2,
	bytecode.OpGreaterEqual:     2,
	bytecode.OpLess:             2,
	bytecode.OpLessEqual:        2,
	bytecode.OpDoubleEqual:      2,
	bytecode.OpNotEqual:         2,
	bytecode.OpJumpIfFalse:      1,
	bytecode.OpJumpIfTrue:       1,
	bytecode.OpDefineGlobal:     1,
	bytecode.OpSetGlobal:        1,
	bytecode.OpGetFieldVariable: 1,
	bytecode.OpPrint:            1,
}

func (vm *VM) run() error {
	for {
		instr := vm.chunk.Instructions[vm.ip]
		vm.ip++

		if need := stackNeed[instr.Op]; need > 0 {
			if err := vm.require(need, instr.Line); err != nil {
				return err
			}
		}

		switch instr.Op {
		case bytecode.OpConstant:
			vm.push(instr.Val)

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpAdd:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Number(a.Num() + b.Num()))

		case bytecode.OpSubtract:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Number(a.Num() - b.Num()))

		case bytecode.OpMultiply:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Number(a.Num() * b.Num()))

		case bytecode.OpDivide:
			b, a := vm.pop(), vm.pop()
			if b.Num() == 0 {
				return vm.runtimeErr(instr.Line, "Division by zero")
			}
			vm.push(value.Number(a.Num() / b.Num()))

		case bytecode.OpModulus:
			b, a := vm.pop(), vm.pop()
			if b.Num() == 0 {
				return vm.runtimeErr(instr.Line, "Mod by zero")
			}
			vm.push(value.Number(math.Mod(a.Num(), b.Num())))

		case bytecode.OpExponentiation:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Number(math.Pow(a.Num(), b.Num())))

		case bytecode.OpUnaryPlus:
			a := vm.pop()
			vm.push(value.Number(+a.Num()))

		case bytecode.OpUnaryMinus:
			a := vm.pop()
			vm.push(value.Number(-a.Num()))

		case bytecode.OpLogicalNot:
			a := vm.pop()
			vm.push(boolValue(!a.Truthy()))

		case bytecode.OpConcatenate:
			b, a := vm.pop(), vm.pop()
			vm.push(value.String(a.Str() + b.Str()))

		case bytecode.OpGreater:
			b, a := vm.pop(), vm.pop()
			vm.push(boolValue(value.Compare(a, b) > 0))

		case bytecode.OpGreaterEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(boolValue(value.Compare(a, b) >= 0))

		case bytecode.OpLess:
			b, a := vm.pop(), vm.pop()
			vm.push(boolValue(value.Compare(a, b) < 0))

		case bytecode.OpLessEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(boolValue(value.Compare(a, b) <= 0))

		case bytecode.OpDoubleEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(boolValue(value.Compare(a, b) == 0))

		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(boolValue(value.Compare(a, b) != 0))

		case bytecode.OpJumpIfFalse:
			// Peeks, never pops: the compiler emits the Pop that removes
			// the short-circuited operand on the fall-through path.
			if !vm.peek().Truthy() {
				vm.ip += instr.Operand
			}

		case bytecode.OpJumpIfTrue:
			// A taken JumpIfTrue replaces the operand with Number(1): the
			// result of a short-circuited || is boolean, not the raw
			// left-hand value.
			if vm.peek().Truthy() {
				vm.pop()
				vm.push(value.Number(1))
				vm.ip += instr.Operand
			}

		case bytecode.OpJump:
			vm.ip += instr.Operand

		case bytecode.OpLoop:
			vm.ip -= instr.Operand

		case bytecode.OpDefineGlobal:
			name := vm.chunk.Constants[instr.Operand]
			vm.globals[name] = vm.pop()

		case bytecode.OpGetGlobal:
			name := vm.chunk.Constants[instr.Operand]
			v, ok := vm.globals[name]
			if !ok {
				v = value.String("")
			}
			vm.push(v)

		case bytecode.OpSetGlobal:
			name := vm.chunk.Constants[instr.Operand]
			vm.globals[name] = vm.peek()

		case bytecode.OpGetFieldVariable:
			n := vm.pop()
			idx, err := record.FieldIndex(n.Num())
			if err != nil {
				return err
			}
			vm.push(value.StrNum(vm.rec.Field(idx)))

		case bytecode.OpPrint:
			v := vm.pop()
			fmt.Fprint(vm.out, v.Str())
			fmt.Fprint(vm.out, vm.globals[globalORS].Str())

		case bytecode.OpReturn:
			if len(vm.stack) != 0 {
				return vm.runtimeErr(instr.Line, "internal error: %d value(s) left on stack at record boundary", len(vm.stack))
			}
			return nil

		default:
			return vm.runtimeErr(instr.Line, "unhandled opcode %s", instr.Op)
		}
	}
}

func boolValue(b bool) value.Value {
	if b {
		return value.Number(1)
	}
	return value.Number(0)
}
