package compiler

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/lumen/internal/runtime"
)

func compileOK(t *testing.T, source string) *runtime.FunctionObject {
	t.Helper()
	fn, err := Compile(runtime.NewHeap(), source)
	require.NoError(t, err)
	require.NotNil(t, fn)
	return fn
}

func TestCompileArithmeticEndsInReturn(t *testing.T) {
	fn := compileOK(t, "print 1 + 2 * 3;")
	code := fn.Chunk.Code
	require.NotEmpty(t, code)
	require.Equal(t, runtime.OpReturn, runtime.OpCode(code[len(code)-1]))
}

func TestCompileReturnAtTopLevelIsError(t *testing.T) {
	_, err := Compile(runtime.NewHeap(), "return 1;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can't return from top-level code.")
}

func TestCompileThisOutsideClassIsError(t *testing.T) {
	_, err := Compile(runtime.NewHeap(), "print this;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can't use 'this' outside of a class.")
}

func TestCompileSuperWithoutSuperclassIsError(t *testing.T) {
	_, err := Compile(runtime.NewHeap(), "class A { m() { super.m(); } }")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can't use 'super' in a class with no superclass.")
}

func TestCompileClassInheritingFromItselfIsError(t *testing.T) {
	_, err := Compile(runtime.NewHeap(), "class A < A {}")
	require.Error(t, err)
	require.Contains(t, err.Error(), "A class can't inherit from itself.")
}

func TestCompileErrorMessageFormat(t *testing.T) {
	_, err := Compile(runtime.NewHeap(), "var;")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "[line 1] Error at ';':"))
}

func TestCompile256LocalsOK257Errors(t *testing.T) {
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < 256; i++ {
		b.WriteString("var v")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	_, err := Compile(runtime.NewHeap(), b.String())
	require.NoError(t, err)

	b.Reset()
	b.WriteString("{\n")
	for i := 0; i < 257; i++ {
		b.WriteString("var v")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	_, err = Compile(runtime.NewHeap(), b.String())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Too many local variables in function.")
}

func TestCompileArity255OK256Errors(t *testing.T) {
	var params strings.Builder
	for i := 0; i < 255; i++ {
		if i > 0 {
			params.WriteString(", ")
		}
		params.WriteString("p")
		params.WriteString(strconv.Itoa(i))
	}
	_, err := Compile(runtime.NewHeap(), "fun f("+params.String()+") {}")
	require.NoError(t, err)

	params.WriteString(", extra")
	_, err = Compile(runtime.NewHeap(), "fun f("+params.String()+") {}")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can't have more than 255 parameters.")
}
