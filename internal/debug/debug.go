// Package debug implements lumen's bytecode disassembler: the optional
// instruction-level trace ("print stack contents, then decode the current
// instruction"), grounded on the structure of
// kristofer/smog's pkg/vm/debugger.go but rendering straight to an
// io.Writer instead of driving an interactive breakpoint session — lumen
// has no REPL-attached stepper, only the LUMEN_TRACE firehose.
package debug

import (
	"fmt"
	"io"

	"github.com/kristofer/lumen/internal/runtime"
)

// TraceStack prints the current value stack bottom-to-top, one bracketed
// value per slot, the first half of the disassembly trace.
func TraceStack(w io.Writer, stack []runtime.Value) {
	fmt.Fprint(w, "          ")
	for _, v := range stack {
		fmt.Fprintf(w, "[ %s ]", v.String())
	}
	fmt.Fprintln(w)
}

// DisassembleChunk prints every instruction in chunk under a named header.
func DisassembleChunk(w io.Writer, chunk *runtime.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(w, chunk, offset)
	}
}

// DisassembleInstruction prints the instruction at offset and returns the
// offset of the next one.
func DisassembleInstruction(w io.Writer, chunk *runtime.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.Lines[offset])
	}

	op := runtime.OpCode(chunk.Code[offset])
	switch op {
	case runtime.OpConstant:
		return constantInstruction(w, op, chunk, offset)
	case runtime.OpGetLocal, runtime.OpSetLocal, runtime.OpCall:
		return byteInstruction(w, op, chunk, offset)
	case runtime.OpGetGlobal, runtime.OpSetGlobal, runtime.OpDefineGlobal,
		runtime.OpGetProperty, runtime.OpSetProperty, runtime.OpGetSuper,
		runtime.OpClass, runtime.OpMethod:
		return constantInstruction(w, op, chunk, offset)
	case runtime.OpGetUpvalue, runtime.OpSetUpvalue:
		return byteInstruction(w, op, chunk, offset)
	case runtime.OpInvoke, runtime.OpSuperInvoke:
		return invokeInstruction(w, op, chunk, offset)
	case runtime.OpJump, runtime.OpJumpIfFalse:
		return jumpInstruction(w, op, 1, chunk, offset)
	case runtime.OpLoop:
		return jumpInstruction(w, op, -1, chunk, offset)
	case runtime.OpClosure:
		return closureInstruction(w, chunk, offset)
	default:
		fmt.Fprintln(w, op.String())
		return offset + 1
	}
}

func constantInstruction(w io.Writer, op runtime.OpCode, chunk *runtime.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-18s %4d '%s'\n", op.String(), idx, chunk.Constants[idx].String())
	return offset + 2
}

func byteInstruction(w io.Writer, op runtime.OpCode, chunk *runtime.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-18s %4d\n", op.String(), slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, op runtime.OpCode, sign int, chunk *runtime.Chunk, offset int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	fmt.Fprintf(w, "%-18s %4d -> %d\n", op.String(), offset, offset+3+sign*jump)
	return offset + 3
}

// invokeInstruction reads the method-name constant and argument count from
// their own successive bytes, unlike an earlier disassembler revision that
// read both fields from the same byte.
func invokeInstruction(w io.Writer, op runtime.OpCode, chunk *runtime.Chunk, offset int) int {
	constant := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	fmt.Fprintf(w, "%-18s (%d args) %4d '%s'\n", op.String(), argCount, constant, chunk.Constants[constant].String())
	return offset + 3
}

func closureInstruction(w io.Writer, chunk *runtime.Chunk, offset int) int {
	offset++
	constant := chunk.Code[offset]
	offset++
	fmt.Fprintf(w, "%-18s %4d '%s'\n", runtime.OpClosure.String(), constant, chunk.Constants[constant].String())

	fn := chunk.Constants[constant].AsFunction()
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		offset++
		index := chunk.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}
