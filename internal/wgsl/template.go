// Package wgsl fills WGSL shader templates by textual substitution.
// Kernel templates carry $NAME$ placeholders for constants that are baked
// in at specialization time (rank, sizes, stride tables, the elementwise
// operation body). Substitution is strict in both directions: every
// replacement key must occur in the source, and no $ may survive.
package wgsl

import (
	"fmt"
	"strconv"
	"strings"
)

// Replacement is a single $KEY$ -> value substitution.
type Replacement struct {
	Key   string
	Value string
}

// Fill applies the replacements in order and returns the finished source.
// It fails if a key is missing from the source or if any placeholder
// marker remains afterwards.
func Fill(src string, replacements []Replacement) (string, error) {
	for _, r := range replacements {
		if !strings.Contains(src, r.Key) {
			return "", fmt.Errorf("wgsl: source does not contain key %s", r.Key)
		}
		src = strings.ReplaceAll(src, r.Key, r.Value)
	}

	if i := strings.IndexByte(src, '$'); i >= 0 {
		end := i + 24
		if end > len(src) {
			end = len(src)
		}
		return "", fmt.Errorf("wgsl: unsubstituted placeholder near %q", src[i:end])
	}

	return src, nil
}

// Int renders an integer literal.
func Int(v int) string {
	return strconv.Itoa(v)
}

// ArrayLit renders a WGSL array constructor, e.g. array(4, 2, 1).
func ArrayLit(values []int) string {
	var b strings.Builder
	b.WriteString("array(")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteString(")")
	return b.String()
}

// NestedArrayLit renders a WGSL array-of-arrays constructor,
// e.g. array(array(3, 1), array(0, 1)).
func NestedArrayLit(values [][]int) string {
	var b strings.Builder
	b.WriteString("array(")
	for i, inner := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ArrayLit(inner))
	}
	b.WriteString(")")
	return b.String()
}
