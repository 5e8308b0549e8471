// Package vm implements lumen's stack-based bytecode interpreter: the call
// frame stack, the value stack, globals, open upvalues, and the mark-sweep
// collector that shares the compiler's heap (gc.go). Its interpreter loop
// and call-frame model are grounded on kristofer/smog's pkg/vm/vm.go, with
// smog's message-send dispatch replaced by lumen's simpler direct-call and
// method-table dispatch.
package vm

import (
	"fmt"
	"io"

	"github.com/kristofer/lumen/internal/compiler"
	"github.com/kristofer/lumen/internal/debug"
	"github.com/kristofer/lumen/internal/runtime"
)

const (
	maxFrames = 64
	stackMax  = maxFrames * 256
)

// VM is one interpreter instance: its own heap, value stack, call frames,
// globals and open-upvalue list. Nothing about it is safe for concurrent
// use from more than one goroutine.
type VM struct {
	heap   *runtime.Heap
	out    io.Writer
	trace  bool

	stack      []runtime.Value
	frames     []callFrame
	frameCount int

	globals      *runtime.Table
	openUpvalues *runtime.UpvalueObject

	grayStack         []runtime.Object
	markCompilerRoots func(mark func(runtime.Object))
}

// New returns a VM that writes `print` output to out and, if trace is true,
// disassembles each instruction to out before executing it (the
// LUMEN_TRACE mode described in SPEC_FULL.md, grounded on smog's optional
// Debugger field).
func New(out io.Writer, trace bool) *VM {
	vm := &VM{
		heap:    runtime.NewHeap(),
		out:     out,
		trace:   trace,
		globals: runtime.NewTable(),
		stack:   make([]runtime.Value, 0, stackMax),
		frames:  make([]callFrame, maxFrames),
	}
	vm.heap.OnAllocate = vm.collectGarbage
	vm.defineNatives()
	return vm
}

// Interpret compiles and runs one top-level unit of source. A compile
// failure returns a compiler.Errors; a runtime failure returns a
// *RuntimeError. Either way, the stack and frame count are reset before
// Interpret returns, leaving the VM ready for the next top-level input.
func (vm *VM) Interpret(source string) error {
	c := compiler.New(vm.heap, source)
	vm.markCompilerRoots = c.MarkRoots
	fn, err := c.Run()
	vm.markCompilerRoots = nil
	if err != nil {
		return err
	}

	closure := vm.heap.NewClosure(fn)
	vm.push(runtime.ObjVal(closure))
	if err := vm.callValue(runtime.ObjVal(closure), 0); err != nil {
		vm.resetStack()
		return err
	}

	runErr := vm.run()
	vm.resetStack()
	return runErr
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v runtime.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() runtime.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distance int) runtime.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentFrame() *callFrame { return &vm.frames[vm.frameCount-1] }

// run executes bytecode in the current top frame until it returns to the
// top level (frameCount drops to zero) or a runtime error is raised.
func (vm *VM) run() error {
	frame := vm.currentFrame()

	for {
		if vm.trace {
			debug.TraceStack(vm.out, vm.stack)
			debug.DisassembleInstruction(vm.out, frame.chunk(), frame.ip)
		}

		op := runtime.OpCode(frame.readByte())
		switch op {
		case runtime.OpConstant:
			vm.push(frame.readConstant())

		case runtime.OpNil:
			vm.push(runtime.Nil)
		case runtime.OpTrue:
			vm.push(runtime.Bool(true))
		case runtime.OpFalse:
			vm.push(runtime.Bool(false))
		case runtime.OpPop:
			vm.pop()

		case runtime.OpGetLocal:
			slot := frame.readByte()
			vm.push(vm.stack[frame.slots+int(slot)])
		case runtime.OpSetLocal:
			slot := frame.readByte()
			vm.stack[frame.slots+int(slot)] = vm.peek(0)

		case runtime.OpGetGlobal:
			name := frame.readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case runtime.OpSetGlobal:
			name := frame.readString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
		case runtime.OpDefineGlobal:
			name := frame.readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case runtime.OpGetUpvalue:
			slot := frame.readByte()
			vm.push(*frame.closure.Upvalues[slot].Location)
		case runtime.OpSetUpvalue:
			slot := frame.readByte()
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case runtime.OpGetProperty:
			if !vm.peek(0).IsInstance() {
				return vm.runtimeError("Only instances have properties.")
			}
			inst := vm.peek(0).AsInstance()
			name := frame.readString()
			if v, ok := inst.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if err := vm.bindMethod(inst.Class, name); err != nil {
				return err
			}
		case runtime.OpSetProperty:
			if !vm.peek(1).IsInstance() {
				return vm.runtimeError("Only instances have fields.")
			}
			inst := vm.peek(1).AsInstance()
			name := frame.readString()
			inst.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)
		case runtime.OpGetSuper:
			name := frame.readString()
			superclass := vm.pop().AsClass()
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case runtime.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(runtime.Bool(a.Equal(b)))
		case runtime.OpGreater:
			if err := vm.binaryNumeric(func(a, b float64) runtime.Value { return runtime.Bool(a > b) }); err != nil {
				return err
			}
		case runtime.OpLess:
			if err := vm.binaryNumeric(func(a, b float64) runtime.Value { return runtime.Bool(a < b) }); err != nil {
				return err
			}

		case runtime.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case runtime.OpSubtract:
			if err := vm.binaryNumeric(func(a, b float64) runtime.Value { return runtime.Number(a - b) }); err != nil {
				return err
			}
		case runtime.OpMultiply:
			if err := vm.binaryNumeric(func(a, b float64) runtime.Value { return runtime.Number(a * b) }); err != nil {
				return err
			}
		case runtime.OpDivide:
			if err := vm.binaryNumeric(func(a, b float64) runtime.Value { return runtime.Number(a / b) }); err != nil {
				return err
			}

		case runtime.OpNot:
			vm.push(runtime.Bool(!vm.pop().Truthy()))
		case runtime.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(runtime.Number(-vm.pop().AsNumber()))

		case runtime.OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())

		case runtime.OpJump:
			offset := frame.readShort()
			frame.ip += offset
		case runtime.OpJumpIfFalse:
			offset := frame.readShort()
			if !vm.peek(0).Truthy() {
				frame.ip += offset
			}
		case runtime.OpLoop:
			offset := frame.readShort()
			frame.ip -= offset

		case runtime.OpCall:
			argCount := int(frame.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case runtime.OpInvoke:
			method := frame.readString()
			argCount := int(frame.readByte())
			if err := vm.invoke(method, argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case runtime.OpSuperInvoke:
			method := frame.readString()
			argCount := int(frame.readByte())
			superclass := vm.pop().AsClass()
			if err := vm.invokeFromClass(superclass, method, argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case runtime.OpClosure:
			fn := frame.readConstant().AsFunction()
			closure := vm.heap.NewClosure(fn)
			vm.push(runtime.ObjVal(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := frame.readByte()
				index := frame.readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case runtime.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case runtime.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stack = vm.stack[:frame.slots]
			vm.push(result)
			frame = vm.currentFrame()

		case runtime.OpClass:
			name := frame.readString()
			vm.push(runtime.ObjVal(vm.heap.NewClass(name)))

		case runtime.OpInherit:
			superVal := vm.peek(1)
			if !superVal.IsClass() {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsClass()
			subclass.Methods.AddAllFrom(superVal.AsClass().Methods)
			vm.pop() // subclass

		case runtime.OpMethod:
			vm.defineMethod(frame.readString())

		default:
			return vm.runtimeError("unknown opcode %d", byte(op))
		}
	}
}

// add implements OP_ADD's dual string/number overload.
func (vm *VM) add() error {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(runtime.Number(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		// Both operands stay rooted on the stack across the intern call
		// so a collection triggered by InternString can't free them; only pop
		// once the new
		// string is safely referenced by the pushed Value.
		concatenated := a.AsString().Chars + b.AsString().Chars
		result := vm.heap.InternString(concatenated)
		vm.pop()
		vm.pop()
		vm.push(runtime.ObjVal(result))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) binaryNumeric(op func(a, b float64) runtime.Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return nil
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	trace := make([]stackFrame, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		fn := f.closure.Function
		sf := stackFrame{line: f.line()}
		if fn.Name == nil {
			sf.script = true
		} else {
			sf.name = fn.Name.Chars
		}
		trace = append(trace, sf)
	}
	return newRuntimeError(message, trace)
}
