package vm

import "github.com/kristofer/lumen/internal/runtime"

// callFrame is one activation record: the closure being run, its
// instruction pointer into that closure's chunk, and the index into the
// VM's value stack where this frame's locals (slot 0 = receiver or the
// closure itself) begin.
type callFrame struct {
	closure *runtime.ClosureObject
	ip      int
	slots   int
}

func (f *callFrame) chunk() *runtime.Chunk { return f.closure.Function.Chunk }

func (f *callFrame) readByte() byte {
	b := f.chunk().Code[f.ip]
	f.ip++
	return b
}

func (f *callFrame) readShort() int {
	hi := f.chunk().Code[f.ip]
	lo := f.chunk().Code[f.ip+1]
	f.ip += 2
	return int(hi)<<8 | int(lo)
}

func (f *callFrame) readConstant() runtime.Value {
	return f.chunk().Constants[f.readByte()]
}

func (f *callFrame) readString() *runtime.StringObject {
	return f.readConstant().AsString()
}

func (f *callFrame) line() int {
	if f.ip-1 < len(f.chunk().Lines) && f.ip-1 >= 0 {
		return f.chunk().Lines[f.ip-1]
	}
	return 0
}
