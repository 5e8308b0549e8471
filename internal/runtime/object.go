package runtime

import "fmt"

// ObjKind discriminates the heap object variants of §3 of the design. The
// VM's GC switches on this (via a type switch on Object) to decide how to
// blacken an object without needing a virtual "mark children" method on
// every type.
type ObjKind byte

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjNative
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
)

// Object is the common interface every heap object satisfies. Go has no
// struct inheritance, so rather than downcast a shared header (the
// repository's approach in C), each concrete type embeds objHeader and the
// GC/heap code works through this interface plus type switches where it
// needs a variant's payload. Identity is the embedded pointer itself: two
// Objects are the same object iff they compare `==` as interface values.
type Object interface {
	Kind() ObjKind
	Marked() bool
	String() string

	// SetMarked and NextObj/SetNextObj are exported, despite being internal
	// bookkeeping, because the GC (package vm) walks and mutates the heap's
	// object list and mark bits directly — see Heap.Objects in heap.go.
	SetMarked(bool)
	NextObj() Object
	SetNextObj(Object)
}

// objHeader is embedded by every concrete object type. link chains the
// object into the heap's linked list of all live objects (invariant (i));
// marked is the GC's mark bit, set during mark and cleared by sweep.
type objHeader struct {
	kind   ObjKind
	marked bool
	link   Object
}

func (h *objHeader) Kind() ObjKind        { return h.kind }
func (h *objHeader) Marked() bool         { return h.marked }
func (h *objHeader) SetMarked(m bool)     { h.marked = m }
func (h *objHeader) NextObj() Object      { return h.link }
func (h *objHeader) SetNextObj(o Object)  { h.link = o }

// StringObject is a heap-allocated, interned byte string. The hash is
// computed once at creation and cached so table lookups never rehash.
type StringObject struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *StringObject) String() string { return s.Chars }

// FunctionObject is produced by the compiler: one per top-level script and
// one per `fun` declaration or expression. It owns its Chunk.
type FunctionObject struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *StringObject // nil for the implicit top-level "script" function
}

func (f *FunctionObject) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is the signature the embedding host implements. It receives the
// evaluated argument values and returns a Value or an error; it may not
// stash a reference to args beyond the call, and it may not invoke the VM
// recursively.
type NativeFn func(args []Value) (Value, error)

// NativeObject wraps a host-provided Go function so it can be called like
// any other lumen callable.
type NativeObject struct {
	objHeader
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *NativeObject) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// UpvalueObject is the indirection a closure uses to share a captured local.
// While Location points inside a live VM stack slice the upvalue is OPEN;
// closing it copies the value into Closed and repoints Location at it.
type UpvalueObject struct {
	objHeader
	Location *Value
	Closed   Value
	NextOpen *UpvalueObject // VM's open-upvalue list, sorted by descending slot address

	// Slot is the absolute value-stack index Location points at while this
	// upvalue is open. Go gives no portable way to recover an index from a
	// raw pointer into a slice, so the VM tracks it explicitly instead of
	// doing pointer arithmetic; it's meaningless once the upvalue is closed.
	Slot int
}

func (u *UpvalueObject) String() string { return "<upvalue>" }

// ClosureObject pairs a FunctionObject with the upvalues captured at its
// creation site.
type ClosureObject struct {
	objHeader
	Function *FunctionObject
	Upvalues []*UpvalueObject
}

func (c *ClosureObject) String() string { return c.Function.String() }

// ClassObject is a single-inheritance class: a name and a method table
// mapping selector name (interned StringObject) to a ClosureObject value.
type ClassObject struct {
	objHeader
	Name    *StringObject
	Methods *Table
}

func (c *ClassObject) String() string { return c.Name.Chars }

// InstanceObject is a live object of some ClassObject, carrying its own
// field table.
type InstanceObject struct {
	objHeader
	Class  *ClassObject
	Fields *Table
}

func (i *InstanceObject) String() string { return i.Class.Name.Chars + " instance" }

// BoundMethodObject pairs a receiver with the method closure looked up on
// it, so that `obj.method` can be passed around and later called without
// re-resolving the receiver.
type BoundMethodObject struct {
	objHeader
	Receiver Value
	Method   *ClosureObject
}

func (b *BoundMethodObject) String() string { return b.Method.String() }

// The As* helpers below assume the caller already checked Kind (or Value's
// Is* predicate); they panic via a failed type assertion otherwise, which
// is the correct behavior for a VM bug rather than a user-facing error.

func (v Value) AsString() *StringObject           { return v.obj.(*StringObject) }
func (v Value) AsFunction() *FunctionObject       { return v.obj.(*FunctionObject) }
func (v Value) AsNative() *NativeObject           { return v.obj.(*NativeObject) }
func (v Value) AsClosure() *ClosureObject         { return v.obj.(*ClosureObject) }
func (v Value) AsUpvalue() *UpvalueObject         { return v.obj.(*UpvalueObject) }
func (v Value) AsClass() *ClassObject             { return v.obj.(*ClassObject) }
func (v Value) AsInstance() *InstanceObject       { return v.obj.(*InstanceObject) }
func (v Value) AsBoundMethod() *BoundMethodObject { return v.obj.(*BoundMethodObject) }

func (v Value) IsString() bool      { return v.IsObjKind(ObjString) }
func (v Value) IsFunction() bool    { return v.IsObjKind(ObjFunction) }
func (v Value) IsNative() bool      { return v.IsObjKind(ObjNative) }
func (v Value) IsClosure() bool     { return v.IsObjKind(ObjClosure) }
func (v Value) IsClass() bool       { return v.IsObjKind(ObjClass) }
func (v Value) IsInstance() bool    { return v.IsObjKind(ObjInstance) }
func (v Value) IsBoundMethod() bool { return v.IsObjKind(ObjBoundMethod) }
