package vm

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	machine := New(&out, false)
	err := machine.Interpret(source)
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3;")
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	require.Equal(t, "foobar\n", out)
}

func TestClosureCapturesUpvalue(t *testing.T) {
	out, err := run(t, `
fun make(x) {
  fun get() {
    return x;
  }
  return get;
}
var g = make(7);
print g();
`)
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestClosureSharesMutableUpvalue(t *testing.T) {
	out, err := run(t, `
fun outer() {
  var x = 1;
  fun inner() {
    x = x + 1;
    return x;
  }
  return inner;
}
var f = outer();
print f();
print f();
`)
	require.NoError(t, err)
	require.Equal(t, "2\n3\n", out)
}

func TestClassInheritanceAndSuper(t *testing.T) {
	out, err := run(t, `
class Animal {
  greet() {
    print "hi, I'm an animal";
  }
}
class Dog < Animal {
  greet() {
    super.greet();
    print "and also a dog";
  }
}
Dog().greet();
`)
	require.NoError(t, err)
	require.Equal(t, "hi, I'm an animal\nand also a dog\n", out)
}

func TestWhileLoopPrintsEachIteration(t *testing.T) {
	out, err := run(t, `
var i = 0;
while (i < 3) {
  print i;
  i = i + 1;
}
`)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestRecursiveFactorial(t *testing.T) {
	out, err := run(t, `
fun fact(n) {
  if (n <= 1) return 1;
  return n * fact(n - 1);
}
print fact(10);
`)
	require.NoError(t, err)
	require.Equal(t, "3628800\n", out)
}

// recurse builds a program whose function r counts n down to its base case
// at 0, so r(depth) nests depth+1 frames of r on top of the script frame
// before either returning (all fit under maxFrames) or overflowing.
func recurse(depth int) string {
	var b strings.Builder
	b.WriteString("fun r(n) { if (n == 0) return 0; return r(n - 1); } print r(")
	b.WriteString(strconv.Itoa(depth))
	b.WriteString(");")
	return b.String()
}

func TestCallDepth63Succeeds(t *testing.T) {
	// One frame is already consumed by the top-level script, so the deepest
	// call chain that still fits under maxFrames (64) recurses 62 more times.
	out, err := run(t, recurse(62))
	require.NoError(t, err)
	require.Equal(t, "0\n", out)
}

func TestCallDepth64Overflows(t *testing.T) {
	_, err := run(t, recurse(63))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Stack overflow.")
}

func TestAddStringAndNumberIsRuntimeError(t *testing.T) {
	_, err := run(t, `print "a" + 1;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Operands must be two numbers or two strings.")
	require.Contains(t, err.Error(), "[line 1] in script")
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print missing;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable 'missing'.")
}

func TestRuntimeErrorTraceNamesEnclosingFunctions(t *testing.T) {
	_, err := run(t, `
fun inner() {
  return 1 + "x";
}
fun outer() {
  return inner();
}
outer();
`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "[line 3] in inner()")
	require.Contains(t, err.Error(), "[line 6] in outer()")
	require.Contains(t, err.Error(), "[line 8] in script")
}

func TestFieldsAndMethods(t *testing.T) {
	out, err := run(t, `
class Counter {
  init() {
    this.n = 0;
  }
  increment() {
    this.n = this.n + 1;
    return this.n;
  }
}
var c = Counter();
print c.increment();
print c.increment();
`)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n", out)
}

func TestInterpretResetsStateAfterError(t *testing.T) {
	var out bytes.Buffer
	machine := New(&out, false)
	err := machine.Interpret(`print 1 + "ok";`)
	require.Error(t, err)

	require.NoError(t, machine.Interpret(`print 1;`))
	require.Equal(t, "1\n", out.String())
}
