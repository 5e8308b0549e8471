package vm

import (
	"time"

	"github.com/kristofer/lumen/internal/runtime"
)

// defineNatives registers the VM's built-in native functions as globals.
// clock, which returns the current time in seconds, is the only native
// registered by default.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", 0, func(args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(float64(time.Now().UnixNano()) / 1e9), nil
	})
}

func (vm *VM) defineNative(name string, arity int, fn runtime.NativeFn) {
	// Root both the name and the native across the two allocations and the
	// table insert, so a collection triggered mid-registration can't free them.
	vm.push(runtime.ObjVal(vm.heap.InternString(name)))
	vm.push(runtime.ObjVal(vm.heap.NewNative(name, arity, fn)))
	nameVal := vm.stack[len(vm.stack)-2]
	fnVal := vm.stack[len(vm.stack)-1]
	vm.globals.Set(nameVal.AsString(), fnVal)
	vm.pop()
	vm.pop()
}
