package vm

import "github.com/kristofer/lumen/internal/runtime"

// callValue dispatches OP_CALL's callee: Closure, Native, Class, or
// BoundMethod. Anything else is a runtime error.
func (vm *VM) callValue(callee runtime.Value, argCount int) error {
	if !callee.IsObj() {
		return vm.runtimeError("Can only call functions and classes.")
	}
	switch callee.AsObj().Kind() {
	case runtime.ObjClosure:
		return vm.call(callee.AsClosure(), argCount)
	case runtime.ObjNative:
		return vm.callNative(callee.AsNative(), argCount)
	case runtime.ObjClass:
		class := callee.AsClass()
		instance := vm.heap.NewInstance(class)
		vm.stack[len(vm.stack)-1-argCount] = runtime.ObjVal(instance)
		if initVal, ok := class.Methods.Get(vm.heap.InternString("init")); ok {
			return vm.call(initVal.AsClosure(), argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil
	case runtime.ObjBoundMethod:
		bound := callee.AsBoundMethod()
		vm.stack[len(vm.stack)-1-argCount] = bound.Receiver
		return vm.call(bound.Method, argCount)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

func (vm *VM) callNative(native *runtime.NativeObject, argCount int) error {
	if argCount != native.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
	}
	base := len(vm.stack) - argCount
	args := vm.stack[base:]
	result, err := native.Fn(args)
	if err != nil {
		return vm.runtimeError("%s", err.Error())
	}
	vm.stack = vm.stack[:base-1]
	vm.push(result)
	return nil
}

// call pushes a new call frame for closure, verifying arity and the
// 64-frame call-depth limit.
func (vm *VM) call(closure *runtime.ClosureObject, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == maxFrames {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames[vm.frameCount] = callFrame{
		closure: closure,
		ip:      0,
		slots:   len(vm.stack) - argCount - 1,
	}
	vm.frameCount++
	return nil
}

// invoke implements OP_INVOKE: `receiver.name(args)` without materializing
// an intermediate BoundMethod. A field holding a callable still works — it
// falls back to a normal call on that field's value.
func (vm *VM) invoke(name *runtime.StringObject, argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsInstance() {
		return vm.runtimeError("Only instances have methods.")
	}
	inst := receiver.AsInstance()
	if field, ok := inst.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-1-argCount] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *runtime.ClassObject, name *runtime.StringObject, argCount int) error {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(methodVal.AsClosure(), argCount)
}

// bindMethod looks up name on class and, if found, replaces the receiver on
// top of the stack with a BoundMethod pairing it with the method closure.
func (vm *VM) bindMethod(class *runtime.ClassObject, name *runtime.StringObject) error {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.heap.NewBoundMethod(vm.peek(0), methodVal.AsClosure())
	vm.pop()
	vm.push(runtime.ObjVal(bound))
	return nil
}

// defineMethod pops a just-compiled closure off the stack and installs it
// in the class sitting just below it (OP_METHOD always follows a CLOSURE
// whose owning class is one slot down).
func (vm *VM) defineMethod(name *runtime.StringObject) {
	method := vm.peek(0)
	class := vm.peek(1).AsClass()
	class.Methods.Set(name, method)
	vm.pop()
}

// captureUpvalue finds or creates the UpvalueObject for the stack slot at
// absolute index slot, keeping the VM's open-upvalue list sorted by
// descending slot address.
func (vm *VM) captureUpvalue(slot int) *runtime.UpvalueObject {
	var prev *runtime.UpvalueObject
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}

	created := vm.heap.NewUpvalue(&vm.stack[slot], slot)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above absolute stack index
// boundary, copying the value out of the stack so it survives the slot
// being reused or popped.
func (vm *VM) closeUpvalues(boundary int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= boundary {
		uv := vm.openUpvalues
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.NextOpen
	}
}
