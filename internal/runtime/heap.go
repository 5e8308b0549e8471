package runtime

// approxSize is a coarse, intentionally approximate per-kind allocation
// cost used only to decide when to run a collection. lumen doesn't track
// exact byte counts the way the C original does with sizeof(); Go's own
// allocator already accounts real memory, so this is purely a knob for
// triggering our own mark-sweep pass at a reasonable cadence.
func approxSize(k ObjKind) int {
	switch k {
	case ObjString:
		return 40
	case ObjFunction:
		return 96
	case ObjNative:
		return 48
	case ObjClosure:
		return 64
	case ObjUpvalue:
		return 32
	case ObjClass:
		return 64
	case ObjInstance:
		return 64
	case ObjBoundMethod:
		return 48
	default:
		return 32
	}
}

// ApproxSize exposes approxSize to package vm's sweep phase, which needs to
// subtract a freed object's estimated cost from Heap.BytesAllocated.
func ApproxSize(k ObjKind) int { return approxSize(k) }

// GrowFactor is the multiplier applied to BytesAllocated to compute the
// next collection threshold after a sweep.
const GrowFactor = 2

// initialNextGC is the threshold for the very first collection, chosen
// small enough that tests exercise the collector without a huge heap.
const initialNextGC = 1 << 14

// Heap owns every live Object, lumen's string-intern table, and the
// allocation-triggered-collection bookkeeping. The compiler and the VM both
// hold a reference to the same Heap, so
// that objects allocated during compilation (string and Function literals)
// and objects allocated at runtime (closures, instances...) live on one
// list the collector can sweep uniformly.
type Heap struct {
	Objects        Object
	Strings        *Table
	BytesAllocated int
	NextGC         int

	// OnAllocate is invoked after every allocation that pushes
	// BytesAllocated past NextGC. The VM sets this once, to its own
	// collectGarbage method, once it and any compiler using this heap are
	// ready to have their roots walked. It is nil during the construction
	// of the Heap itself, and tests that don't need GC pressure simply
	// leave it nil.
	OnAllocate func()
}

// NewHeap returns an empty heap, ready to allocate once OnAllocate is wired
// up by its owner.
func NewHeap() *Heap {
	return &Heap{
		Strings: NewTable(),
		NextGC:  initialNextGC,
	}
}

func (h *Heap) track(o Object) {
	h.BytesAllocated += approxSize(o.Kind())
	// Collect before linking o in: nothing references o yet, so a sweep that
	// saw it on the list would unlink it while it is still in use.
	if h.BytesAllocated >= h.NextGC && h.OnAllocate != nil {
		h.OnAllocate()
	}
	o.SetNextObj(h.Objects)
	h.Objects = o
}

// hashFNV1a computes the 32-bit FNV-1a hash of s, matching the constant
// pool's cached String hash.
func hashFNV1a(s string) uint32 {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// InternString returns the single StringObject for chars, allocating it
// only the first time this byte sequence is seen (invariant (ii):
// byte-equal strings share one handle).
func (h *Heap) InternString(chars string) *StringObject {
	hash := hashFNV1a(chars)
	if existing := h.Strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := &StringObject{Chars: chars, Hash: hash}
	s.kind = ObjString
	h.track(s)
	// Record s in the intern table. The table is weak (RemoveWhite evicts
	// unmarked keys), so this does not root s; Set may grow the table but
	// never allocates heap Objects, so no collection runs before s returns.
	h.Strings.Set(s, Bool(true))
	return s
}

// NewFunction allocates a fresh, empty FunctionObject for the compiler to
// fill in as it compiles a function body.
func (h *Heap) NewFunction(name *StringObject) *FunctionObject {
	f := &FunctionObject{Name: name, Chunk: NewChunk()}
	f.kind = ObjFunction
	h.track(f)
	return f
}

// NewNative wraps a host Go function as a callable lumen value.
func (h *Heap) NewNative(name string, arity int, fn NativeFn) *NativeObject {
	n := &NativeObject{Name: name, Arity: arity, Fn: fn}
	n.kind = ObjNative
	h.track(n)
	return n
}

// NewClosure allocates a closure over fn with space for its upvalues; the
// caller fills Upvalues[i] in as each is captured or re-captured.
func (h *Heap) NewClosure(fn *FunctionObject) *ClosureObject {
	c := &ClosureObject{Function: fn, Upvalues: make([]*UpvalueObject, fn.UpvalueCount)}
	c.kind = ObjClosure
	h.track(c)
	return c
}

// NewUpvalue allocates an open upvalue pointing at the stack slot with
// absolute index slotIndex.
func (h *Heap) NewUpvalue(slot *Value, slotIndex int) *UpvalueObject {
	u := &UpvalueObject{Location: slot, Slot: slotIndex}
	u.kind = ObjUpvalue
	h.track(u)
	return u
}

// NewClass allocates an empty class named name.
func (h *Heap) NewClass(name *StringObject) *ClassObject {
	c := &ClassObject{Name: name, Methods: NewTable()}
	c.kind = ObjClass
	h.track(c)
	return c
}

// NewInstance allocates a fresh instance of class, with an empty field
// table.
func (h *Heap) NewInstance(class *ClassObject) *InstanceObject {
	i := &InstanceObject{Class: class, Fields: NewTable()}
	i.kind = ObjInstance
	h.track(i)
	return i
}

// NewBoundMethod allocates a bound method pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *ClosureObject) *BoundMethodObject {
	b := &BoundMethodObject{Receiver: receiver, Method: method}
	b.kind = ObjBoundMethod
	h.track(b)
	return b
}
