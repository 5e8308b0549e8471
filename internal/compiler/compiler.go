// Package compiler implements lumen's single-pass, Pratt-style compiler:
// it consumes tokens from a lexer.Scanner and emits a runtime.FunctionObject
// (owning a runtime.Chunk) directly, with no intermediate AST. This mirrors
// kristofer/smog's recursive-descent parser/compiler split (pkg/parser +
// pkg/compiler), collapsed into one pass because lumen's grammar needs a
// single Pratt precedence climb shared between expression compiling and
// codegen.
package compiler

import (
	"strconv"

	"github.com/kristofer/lumen/internal/lexer"
	"github.com/kristofer/lumen/internal/runtime"
)

type functionType int

const (
	typeFunction functionType = iota
	typeScript
	typeMethod
	typeInitializer
)

type local struct {
	name       string
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcState is one frame of the compiler's function stack. A new one is
// pushed for every `fun` and method body and for the implicit top-level
// script.
type funcState struct {
	enclosing *funcState
	function  *runtime.FunctionObject
	fnType    functionType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// classState tracks the innermost enclosing class, for resolving `this`
// and `super` and for rejecting both outside of any class.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler drives one Pratt-parser pass over a token stream, producing
// bytecode into the funcState stack's current function.
type Compiler struct {
	heap    *runtime.Heap
	scanner *lexer.Scanner

	previous lexer.Token
	current  lexer.Token

	errs      Errors
	hadError  bool
	panicMode bool

	fs *funcState
	cs *classState
}

const maxLocals = 256
const maxUpvalues = 256
const maxArity = 255

// New prepares a Compiler over source without running it, so a caller (the
// VM) can install MarkRoots as its GC hook before compilation proper starts
// allocating. New itself allocates only the empty script function.
func New(heap *runtime.Heap, source string) *Compiler {
	c := &Compiler{heap: heap, scanner: lexer.New(source)}
	c.pushFunc(typeScript, "")
	return c
}

// Run compiles the source New was given into the implicit top-level
// "script" function. If any compile error occurred, it returns nil and the
// accumulated Errors; otherwise the Function is ready to be wrapped in a
// closure and run.
func (c *Compiler) Run() (*runtime.FunctionObject, error) {
	c.advance()
	for !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.consume(lexer.TokenEOF, "Expect end of expression.")

	fn := c.endFunc()
	if c.hadError {
		return nil, c.errs
	}
	return fn, nil
}

// Compile is the one-shot convenience form for callers (tests, mostly) that
// don't need to hook GC roots mid-compile.
func Compile(heap *runtime.Heap, source string) (*runtime.FunctionObject, error) {
	return New(heap, source).Run()
}

// MarkRoots marks every FunctionObject currently under construction along
// this compiler's frame chain: the collector may fire while the compiler
// holds functions not yet reachable from the VM.
func (c *Compiler) MarkRoots(mark func(runtime.Object)) {
	if c == nil {
		return
	}
	for fs := c.fs; fs != nil; fs = fs.enclosing {
		mark(fs.function)
	}
}

// --- token stream plumbing -------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.NextToken()
		if c.current.Kind != lexer.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind lexer.TokenKind) bool { return c.current.Kind == kind }

func (c *Compiler) match(kind lexer.TokenKind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind lexer.TokenKind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok lexer.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	c.errs = append(c.errs, Error{
		Line:    tok.Line,
		Lexeme:  tok.Lexeme,
		AtEOF:   tok.Kind == lexer.TokenEOF,
		Message: message,
	})
}

// synchronize discards tokens until it finds one that plausibly starts a
// new statement, so one error doesn't cascade into a wall of spurious ones.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != lexer.TokenEOF {
		if c.previous.Kind == lexer.TokenSemicolon {
			return
		}
		switch c.current.Kind {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		c.advance()
	}
}

// --- bytecode emission ------------------------------------------------------

func (c *Compiler) chunk() *runtime.Chunk { return c.fs.function.Chunk }

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op runtime.OpCode) { c.chunk().WriteOp(op, c.previous.Line) }
func (c *Compiler) emitOpByte(op runtime.OpCode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	if c.fs.fnType == typeInitializer {
		c.emitOp(runtime.OpGetLocal)
		c.emitByte(0)
	} else {
		c.emitOp(runtime.OpNil)
	}
	c.emitOp(runtime.OpReturn)
}

// makeConstant appends v to the current chunk's constant pool and returns
// its index, reporting a compile error instead of silently truncating if
// the 256-entry limit (invariant (vi)) is exceeded.
func (c *Compiler) makeConstant(v runtime.Value) byte {
	idx, err := c.chunk().AddConstant(v)
	if err != nil {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitConstant(v runtime.Value) {
	c.emitOpByte(runtime.OpConstant, c.makeConstant(v))
}

func (c *Compiler) emitJump(op runtime.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
		return
	}
	code := c.chunk().Code
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump & 0xff)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(runtime.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xff))
}

// --- function/scope frame management -----------------------------------

func (c *Compiler) pushFunc(fnType functionType, name string) {
	var nameObj *runtime.StringObject
	if name != "" {
		nameObj = c.heap.InternString(name)
	}
	fs := &funcState{
		enclosing: c.fs,
		function:  c.heap.NewFunction(nameObj),
		fnType:    fnType,
	}
	// Slot 0 is reserved: for methods/initializers it holds the receiver
	// ("this"); for plain functions and the script it holds the called
	// closure itself and is never referenced by name.
	reserved := local{depth: 0}
	if fnType == typeMethod || fnType == typeInitializer {
		reserved.name = "this"
	}
	fs.locals = append(fs.locals, reserved)
	c.fs = fs
}

func (c *Compiler) endFunc() *runtime.FunctionObject {
	c.emitReturn()
	fn := c.fs.function
	fn.UpvalueCount = len(c.fs.upvalues)
	c.fs = c.fs.enclosing
	return fn
}

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

func (c *Compiler) endScope() {
	c.fs.scopeDepth--
	locals := c.fs.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fs.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			c.emitOp(runtime.OpCloseUpvalue)
		} else {
			c.emitOp(runtime.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	c.fs.locals = locals
}

// --- declarations -----------------------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(lexer.TokenClass):
		c.classDeclaration()
	case c.match(lexer.TokenFun):
		c.funDeclaration()
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(lexer.TokenIdentifier, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className.Lexeme)
	c.declareVariable(className.Lexeme)

	c.emitOpByte(runtime.OpClass, nameConstant)
	c.defineVariable(nameConstant, className.Lexeme)

	cs := &classState{enclosing: c.cs}
	c.cs = cs

	if c.match(lexer.TokenLess) {
		c.consume(lexer.TokenIdentifier, "Expect superclass name.")
		superName := c.previous
		c.variableNamed(superName, false)
		if superName.Lexeme == className.Lexeme {
			c.error("A class can't inherit from itself.")
		}
		c.beginScope()
		c.addLocal("super")
		c.markInitialized()
		c.variableNamed(className, false)
		c.emitOp(runtime.OpInherit)
		cs.hasSuperclass = true
	}

	c.variableNamed(className, false)
	c.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.method()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after class body.")
	c.emitOp(runtime.OpPop) // pop the class itself

	if cs.hasSuperclass {
		c.endScope()
	}
	c.cs = cs.enclosing
}

func (c *Compiler) method() {
	c.consume(lexer.TokenIdentifier, "Expect method name.")
	name := c.previous.Lexeme
	nameConstant := c.identifierConstant(name)

	fnType := typeMethod
	if name == "init" {
		fnType = typeInitializer
	}
	c.function(fnType, name)
	c.emitOpByte(runtime.OpMethod, nameConstant)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	name := c.previous.Lexeme
	c.markInitialized()
	c.function(typeFunction, name)
	c.defineVariable(global, name)
}

func (c *Compiler) function(fnType functionType, name string) {
	c.pushFunc(fnType, name)
	c.beginScope()

	c.consume(lexer.TokenLeftParen, "Expect '(' after function name.")
	if !c.check(lexer.TokenRightParen) {
		for {
			c.fs.function.Arity++
			if c.fs.function.Arity > maxArity {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConst := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConst, c.previous.Lexeme)
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after parameters.")
	c.consume(lexer.TokenLeftBrace, "Expect '{' before function body.")
	c.block()

	upvalues := c.fs.upvalues
	fn := c.endFunc()

	idx := c.makeConstant(runtime.ObjVal(fn))
	c.emitOpByte(runtime.OpClosure, idx)
	for _, uv := range upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	name := c.previous.Lexeme
	if c.match(lexer.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(runtime.OpNil)
	}
	c.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global, name)
}

// --- statements --------------------------------------------------------

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TokenPrint):
		c.printStatement()
	case c.match(lexer.TokenIf):
		c.ifStatement()
	case c.match(lexer.TokenReturn):
		c.returnStatement()
	case c.match(lexer.TokenWhile):
		c.whileStatement()
	case c.match(lexer.TokenFor):
		c.forStatement()
	case c.match(lexer.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(lexer.TokenRightBrace) && !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.consume(lexer.TokenRightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after value.")
	c.emitOp(runtime.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	c.emitOp(runtime.OpPop)
}

func (c *Compiler) returnStatement() {
	if c.fs.fnType == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(lexer.TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.fs.fnType == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(lexer.TokenSemicolon, "Expect ';' after return value.")
	c.emitOp(runtime.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(runtime.OpJumpIfFalse)
	c.emitOp(runtime.OpPop)
	c.statement()

	elseJump := c.emitJump(runtime.OpJump)
	c.patchJump(thenJump)
	c.emitOp(runtime.OpPop)

	if c.match(lexer.TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(runtime.OpJumpIfFalse)
	c.emitOp(runtime.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(runtime.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(lexer.TokenLeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(lexer.TokenSemicolon):
		// no initializer
	case c.match(lexer.TokenVar):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(lexer.TokenSemicolon) {
		c.expression()
		c.consume(lexer.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(runtime.OpJumpIfFalse)
		c.emitOp(runtime.OpPop)
	}

	if !c.match(lexer.TokenRightParen) {
		bodyJump := c.emitJump(runtime.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(runtime.OpPop)
		c.consume(lexer.TokenRightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(runtime.OpPop)
	}

	c.endScope()
}

// --- variables ---------------------------------------------------------

func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(runtime.ObjVal(c.heap.InternString(name)))
}

// parseVariable consumes an identifier, declares it if we're in a local
// scope, and returns the constant-pool index to use for OP_DEFINE_GLOBAL
// (0 and ignored for locals).
func (c *Compiler) parseVariable(message string) byte {
	c.consume(lexer.TokenIdentifier, message)
	name := c.previous.Lexeme
	c.declareVariable(name)
	if c.fs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) declareVariable(name string) {
	if c.fs.scopeDepth == 0 {
		return
	}
	for i := len(c.fs.locals) - 1; i >= 0; i-- {
		l := c.fs.locals[i]
		if l.depth != -1 && l.depth < c.fs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.fs.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: -1})
}

func (c *Compiler) markInitialized() {
	if c.fs.scopeDepth == 0 {
		return
	}
	c.fs.locals[len(c.fs.locals)-1].depth = c.fs.scopeDepth
}

func (c *Compiler) defineVariable(global byte, name string) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(runtime.OpDefineGlobal, global)
}

// resolveLocal searches fs's locals from the top down; returns the slot
// index, or -1 if name isn't a local of fs.
func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively searches enclosing frames for name, adding an
// upvalue plan to every intermediate frame in the chain.
func (c *Compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if localIdx := resolveLocal(fs.enclosing, name); localIdx != -1 {
		fs.enclosing.locals[localIdx].isCaptured = true
		return c.addUpvalue(fs, byte(localIdx), true)
	}
	if upIdx := c.resolveUpvalue(fs.enclosing, name); upIdx != -1 {
		return c.addUpvalue(fs, byte(upIdx), false)
	}
	return -1
}

func (c *Compiler) addUpvalue(fs *funcState, index byte, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}

// --- expressions ---------------------------------------------------------

func (c *Compiler) expression() { c.parsePrecedence(PrecAssignment) }

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := c.getRule(c.previous.Kind)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for prec <= c.getRule(c.current.Kind).precedence {
		c.advance()
		infix := c.getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(_ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(runtime.Number(n))
}

func (c *Compiler) stringLit(_ bool) {
	lex := c.previous.Lexeme
	raw := lex[1 : len(lex)-1] // strip surrounding quotes
	c.emitConstant(runtime.ObjVal(c.heap.InternString(raw)))
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(lexer.TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary(_ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(PrecUnary)
	switch opKind {
	case lexer.TokenMinus:
		c.emitOp(runtime.OpNegate)
	case lexer.TokenBang:
		c.emitOp(runtime.OpNot)
	}
}

func (c *Compiler) binary(_ bool) {
	opKind := c.previous.Kind
	rule := c.getRule(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case lexer.TokenBangEqual:
		c.emitOp(runtime.OpEqual)
		c.emitOp(runtime.OpNot)
	case lexer.TokenEqualEqual:
		c.emitOp(runtime.OpEqual)
	case lexer.TokenGreater:
		c.emitOp(runtime.OpGreater)
	case lexer.TokenGreaterEqual:
		c.emitOp(runtime.OpLess)
		c.emitOp(runtime.OpNot)
	case lexer.TokenLess:
		c.emitOp(runtime.OpLess)
	case lexer.TokenLessEqual:
		c.emitOp(runtime.OpGreater)
		c.emitOp(runtime.OpNot)
	case lexer.TokenPlus:
		c.emitOp(runtime.OpAdd)
	case lexer.TokenMinus:
		c.emitOp(runtime.OpSubtract)
	case lexer.TokenStar:
		c.emitOp(runtime.OpMultiply)
	case lexer.TokenSlash:
		c.emitOp(runtime.OpDivide)
	}
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Kind {
	case lexer.TokenFalse:
		c.emitOp(runtime.OpFalse)
	case lexer.TokenTrue:
		c.emitOp(runtime.OpTrue)
	case lexer.TokenNil:
		c.emitOp(runtime.OpNil)
	}
}

func (c *Compiler) and(_ bool) {
	endJump := c.emitJump(runtime.OpJumpIfFalse)
	c.emitOp(runtime.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(runtime.OpJumpIfFalse)
	endJump := c.emitJump(runtime.OpJump)
	c.patchJump(elseJump)
	c.emitOp(runtime.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitOpByte(runtime.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(lexer.TokenRightParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRightParen, "Expect ')' after arguments.")
	return byte(count)
}

func (c *Compiler) dot(canAssign bool) {
	c.consume(lexer.TokenIdentifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(lexer.TokenEqual):
		c.expression()
		c.emitOpByte(runtime.OpSetProperty, name)
	case c.match(lexer.TokenLeftParen):
		argCount := c.argumentList()
		c.emitOpByte(runtime.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(runtime.OpGetProperty, name)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.variableNamed(c.previous, canAssign)
}

func (c *Compiler) variableNamed(tok lexer.Token, canAssign bool) {
	var getOp, setOp runtime.OpCode
	var arg int

	if idx := resolveLocal(c.fs, tok.Lexeme); idx != -1 {
		getOp, setOp, arg = runtime.OpGetLocal, runtime.OpSetLocal, idx
	} else if idx := c.resolveUpvalue(c.fs, tok.Lexeme); idx != -1 {
		getOp, setOp, arg = runtime.OpGetUpvalue, runtime.OpSetUpvalue, idx
	} else {
		arg = int(c.identifierConstant(tok.Lexeme))
		getOp, setOp = runtime.OpGetGlobal, runtime.OpSetGlobal
	}

	if canAssign && c.match(lexer.TokenEqual) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}

func (c *Compiler) this(_ bool) {
	if c.cs == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variableNamed(c.previous, false)
}

func (c *Compiler) super(_ bool) {
	if c.cs == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.cs.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(lexer.TokenDot, "Expect '.' after 'super'.")
	c.consume(lexer.TokenIdentifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous.Lexeme)

	c.variableNamed(lexer.Token{Kind: lexer.TokenThis, Lexeme: "this", Line: c.previous.Line}, false)
	if c.match(lexer.TokenLeftParen) {
		argCount := c.argumentList()
		c.variableNamed(lexer.Token{Kind: lexer.TokenSuper, Lexeme: "super", Line: c.previous.Line}, false)
		c.emitOpByte(runtime.OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.variableNamed(lexer.Token{Kind: lexer.TokenSuper, Lexeme: "super", Line: c.previous.Line}, false)
		c.emitOpByte(runtime.OpGetSuper, name)
	}
}
