package shape

import "testing"

func TestNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{4}, 4},
		{Shape{2, 3}, 6},
		{Shape{2, 3, 4}, 24},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("NumElements(%v) = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestDenseStrides(t *testing.T) {
	tests := []struct {
		shape Shape
		want  []int
	}{
		{Shape{4}, []int{1}},
		{Shape{2, 3}, []int{3, 1}},
		{Shape{2, 3, 4}, []int{12, 4, 1}},
	}

	for _, tt := range tests {
		got := tt.shape.DenseStrides()
		if len(got) != len(tt.want) {
			t.Fatalf("DenseStrides(%v) = %v, want %v", tt.shape, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("DenseStrides(%v) = %v, want %v", tt.shape, got, tt.want)
				break
			}
		}
	}
}

// Dense strides must decompose every flat index into axis indices that
// recombine to exactly that index: no overlap, no gap.
func TestDenseStridesDecomposition(t *testing.T) {
	s := Shape{3, 4, 5}
	dense := s.DenseStrides()

	seen := make(map[int]bool)
	for flat := 0; flat < s.NumElements(); flat++ {
		left := flat
		recombined := 0
		for axis := range dense {
			index := left / dense[axis]
			left = left % dense[axis]
			recombined += index * dense[axis]
			if index < 0 || index >= s[axis] {
				t.Fatalf("flat %d: axis %d index %d out of range", flat, axis, index)
			}
		}
		if recombined != flat {
			t.Errorf("flat %d recombined to %d", flat, recombined)
		}
		if seen[recombined] {
			t.Errorf("flat %d decomposed twice", recombined)
		}
		seen[recombined] = true
	}
}

func TestIsContiguous(t *testing.T) {
	s := Shape{2, 3}
	if !s.IsContiguous([]int{3, 1}) {
		t.Error("dense strides should be contiguous")
	}
	if s.IsContiguous([]int{1, 2}) {
		t.Error("transposed strides should not be contiguous")
	}
	if s.IsContiguous([]int{3}) {
		t.Error("wrong rank should not be contiguous")
	}
}

func TestValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("zero dimension accepted")
	}
	if err := (Shape{-1}).Validate(); err == nil {
		t.Error("negative dimension accepted")
	}
}

func TestBroadcastStrides(t *testing.T) {
	// Row vector (1, 5) broadcast over (3, 5): leading axis gets stride 0.
	got, err := BroadcastStrides(Shape{3, 5}, Shape{1, 5}, []int{5, 1})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("got %v, want [0 1]", got)
	}

	// Missing leading axis gets stride 0.
	got, err = BroadcastStrides(Shape{3, 5}, Shape{5}, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("got %v, want [0 1]", got)
	}

	// Incompatible dimension.
	if _, err := BroadcastStrides(Shape{3, 5}, Shape{4}, []int{1}); err == nil {
		t.Error("incompatible broadcast accepted")
	}

	// Rank/stride mismatch.
	if _, err := BroadcastStrides(Shape{3, 5}, Shape{5}, []int{1, 1}); err == nil {
		t.Error("stride count mismatch accepted")
	}
}
