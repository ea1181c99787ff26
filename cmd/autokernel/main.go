// Package main provides the autokernel CLI: inspect generated WGSL for a
// given specialization, or self-check the CPU engine against a two-pass
// reference.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/halcyon-ml/autokernel/backend/cpu"
	"github.com/halcyon-ml/autokernel/kernel"
)

const version = "v0.1.0-dev"

var stockOps = map[string]struct {
	op       kernel.Op
	cpuOp    cpu.Op
	operands int
	outputs  []int
}{
	"add":  {kernel.Add, cpu.Add, 3, []int{2}},
	"sub":  {kernel.Sub, cpu.Sub, 3, []int{2}},
	"mul":  {kernel.Mul, cpu.Mul, 3, []int{2}},
	"div":  {kernel.Div, cpu.Div, 3, []int{2}},
	"copy": {kernel.Copy, cpu.Copy, 2, []int{1}},
	"neg":  {kernel.Neg, cpu.Neg, 2, []int{1}},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("autokernel %s\n", version)
	case "elementwise":
		err = runElementwise(os.Args[2:])
	case "layernorm":
		err = runLayerNorm(os.Args[2:])
	case "check":
		err = runCheck()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "autokernel:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("autokernel - runtime-specialized WGSL compute kernels")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  elementwise -shape 2,3 -op add    Print the specialized elementwise shader")
	fmt.Println("  layernorm -rows 4 -norm 16        Print the specialized layer-norm shader")
	fmt.Println("  check                             Self-check the CPU engine")
	fmt.Println("  version                           Show version")
}

func runElementwise(args []string) error {
	fs := flag.NewFlagSet("elementwise", flag.ExitOnError)
	shapeArg := fs.String("shape", "1024", "comma-separated iteration-space dimensions")
	opArg := fs.String("op", "add", "stock op: add, sub, mul, div, copy, neg")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := parseShape(*shapeArg)
	if err != nil {
		return err
	}
	stock, ok := stockOps[*opArg]
	if !ok {
		return fmt.Errorf("unknown op %q", *opArg)
	}

	spec := kernel.Contiguous(s, stock.operands, stock.outputs)
	src, err := spec.Specialize(stock.op)
	if err != nil {
		return err
	}

	fmt.Printf("// key: %s\n// workgroups: %d x %d threads\n%s", src.Key, src.Workgroups, src.WorkgroupSize, src.WGSL)
	return nil
}

func runLayerNorm(args []string) error {
	fs := flag.NewFlagSet("layernorm", flag.ExitOnError)
	rows := fs.Int("rows", 4, "number of independent rows")
	norm := fs.Int("norm", 16, "elements per row")
	if err := fs.Parse(args); err != nil {
		return err
	}

	spec := kernel.ContiguousLayerNorm(*rows, *norm)
	src, err := spec.Specialize()
	if err != nil {
		return err
	}

	fmt.Printf("// key: %s\n// workgroups: %d x %d threads\n%s", src.Key, src.Workgroups, src.WorkgroupSize, src.WGSL)
	return nil
}

// runCheck exercises the CPU engine on small known inputs and compares
// layer-norm statistics against gonum's two-pass reference.
func runCheck() error {
	engine := cpu.New()

	// Elementwise: [1..4] + [10..40] with contiguous strides.
	a := []float32{1, 2, 3, 4}
	b := []float32{10, 20, 30, 40}
	out := make([]float32, 4)
	spec := kernel.Contiguous(kernel.Shape{4}, 3, []int{2})
	if err := engine.Elementwise(spec, cpu.Add, [][]float32{a, b, out}); err != nil {
		return err
	}
	want := []float32{11, 22, 33, 44}
	for i := range want {
		if out[i] != want[i] {
			return fmt.Errorf("elementwise add: got %v, want %v", out, want)
		}
	}
	fmt.Println("elementwise add: ok")

	// Layer norm: row statistics must match a two-pass reference.
	input := []float32{1, 2, 3, 4}
	output := make([]float32, 4)
	lnSpec := kernel.ContiguousLayerNorm(1, 4)
	if err := engine.LayerNorm(lnSpec, input, output, 0); err != nil {
		return err
	}

	ref := make([]float64, len(input))
	for i, x := range input {
		ref[i] = float64(x)
	}
	mean := stat.Mean(ref, nil)
	variance := stat.PopVariance(ref, nil)
	expected := make([]float64, len(ref))
	for i, x := range ref {
		expected[i] = (x - mean) / math.Sqrt(variance)
	}
	got := make([]float64, len(output))
	for i, x := range output {
		got[i] = float64(x)
	}
	if !floats.EqualApprox(got, expected, 1e-5) {
		return fmt.Errorf("layernorm: got %v, want %v", got, expected)
	}
	fmt.Println("layernorm: ok")

	return nil
}

func parseShape(arg string) (kernel.Shape, error) {
	parts := strings.Split(arg, ",")
	s := make(kernel.Shape, 0, len(parts))
	for _, p := range parts {
		dim, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid shape %q: %w", arg, err)
		}
		s = append(s, dim)
	}
	return s, nil
}
