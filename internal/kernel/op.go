package kernel

import "fmt"

// Op is the elementwise operation injected into the strided kernel. Body is
// one or more WGSL statements executed once per logical element, with the
// operand buffers in scope as buf0, buf1, ... and the resolved element
// offsets as offsets[0], offsets[1], .... The body performs the actual
// read-compute-write; the kernel makes no assumption about which operands
// it reads or writes.
type Op struct {
	Name string
	Body string
}

// Binary builds a three-operand op: buf2 = buf0 <operator> buf1.
func Binary(name, operator string) Op {
	return Op{
		Name: name,
		Body: fmt.Sprintf("buf2[offsets[2]] = buf0[offsets[0]] %s buf1[offsets[1]];", operator),
	}
}

// Unary builds a two-operand op: buf1 = expr(x) where x is buf0's element.
func Unary(name, expr string) Op {
	return Op{
		Name: name,
		Body: fmt.Sprintf("let x = buf0[offsets[0]];\n        buf1[offsets[1]] = %s;", expr),
	}
}

// Stock elementwise operations.
var (
	Add = Binary("add", "+")
	Sub = Binary("sub", "-")
	Mul = Binary("mul", "*")
	Div = Binary("div", "/")

	Copy = Unary("copy", "x")
	Neg  = Unary("neg", "-x")
	Relu = Unary("relu", "max(x, 0.0)")
)
