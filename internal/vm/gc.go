package vm

import "github.com/kristofer/lumen/internal/runtime"

// collectGarbage runs one full mark-sweep pass. It is wired as
// heap.OnAllocate, so it fires synchronously from inside whatever
// allocation pushed BytesAllocated past NextGC — including allocations made
// by the compiler, which is why markCompilerRoots exists alongside the VM's
// own roots.
func (vm *VM) collectGarbage() {
	vm.markRoots()
	vm.traceReferences()
	vm.heap.Strings.RemoveWhite()
	vm.sweep()
	vm.heap.NextGC = vm.heap.BytesAllocated * runtime.GrowFactor
}

func (vm *VM) markRoots() {
	for _, v := range vm.stack {
		vm.markValue(v)
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		vm.markObject(uv)
	}
	vm.markTable(vm.globals)

	// Allocations made while the compiler is still assembling a Function
	// that isn't reachable from the VM yet.
	if vm.markCompilerRoots != nil {
		vm.markCompilerRoots(vm.markObject)
	}
}

func (vm *VM) markValue(v runtime.Value) {
	if v.IsObj() {
		vm.markObject(v.AsObj())
	}
}

func (vm *VM) markTable(t *runtime.Table) {
	t.Each(func(key *runtime.StringObject, value runtime.Value) {
		vm.markObject(key)
		vm.markValue(value)
	})
}

// markObject marks o grey (adds it to the to-be-scanned worklist) unless it
// is already marked. It returns early only for a nil interface; a nil
// concrete pointer (an unset FunctionObject.Name, a closure upvalue slot not
// yet filled) must be checked by the caller.
func (vm *VM) markObject(o runtime.Object) {
	if o == nil || o.Marked() {
		return
	}
	o.SetMarked(true)
	vm.grayStack = append(vm.grayStack, o)
}

// traceReferences repeatedly pops the grey set and blackens each object by
// marking whatever it references, until the set is empty.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		o := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(o)
	}
}

func (vm *VM) blacken(o runtime.Object) {
	switch obj := o.(type) {
	case *runtime.StringObject:
		// leaf: no outgoing references
	case *runtime.NativeObject:
		// leaf
	case *runtime.FunctionObject:
		// obj.Name is nil for the implicit top-level script function; passing
		// a nil *StringObject through the Object interface would not compare
		// equal to a nil interface, so markObject's nil guard can't catch it.
		if obj.Name != nil {
			vm.markObject(obj.Name)
		}
		for _, c := range obj.Chunk.Constants {
			vm.markValue(c)
		}
	case *runtime.ClosureObject:
		vm.markObject(obj.Function)
		for _, uv := range obj.Upvalues {
			// OP_CLOSURE fills these one at a time, and capturing one may
			// trigger a collection while later slots are still nil.
			if uv != nil {
				vm.markObject(uv)
			}
		}
	case *runtime.UpvalueObject:
		vm.markValue(obj.Closed)
	case *runtime.ClassObject:
		vm.markObject(obj.Name)
		vm.markTable(obj.Methods)
	case *runtime.InstanceObject:
		vm.markObject(obj.Class)
		vm.markTable(obj.Fields)
	case *runtime.BoundMethodObject:
		vm.markValue(obj.Receiver)
		vm.markObject(obj.Method)
	}
}

// sweep walks the heap's intrusive object list, unlinking and discarding
// every object left white (unreached), and clears the mark bit on every
// survivor so the next collection starts from a clean slate.
func (vm *VM) sweep() {
	var prev runtime.Object
	cur := vm.heap.Objects
	freed := 0
	for cur != nil {
		if cur.Marked() {
			cur.SetMarked(false)
			prev = cur
			cur = cur.NextObj()
			continue
		}
		unreached := cur
		cur = cur.NextObj()
		if prev == nil {
			vm.heap.Objects = cur
		} else {
			prev.SetNextObj(cur)
		}
		freed += runtime.ApproxSize(unreached.Kind())
	}
	vm.heap.BytesAllocated -= freed
	if vm.heap.BytesAllocated < 0 {
		vm.heap.BytesAllocated = 0
	}
}
