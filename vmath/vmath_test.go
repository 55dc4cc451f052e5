package vmath

import (
	"math"
	"testing"
)

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{7, 2, 3},
		{-7, 2, -4},
		{-8, 2, -4},
		{0, 5, 0},
		{-1, 100, -1},
		{1, 100, 0},
		{7, -2, -4},
	}
	for _, tt := range tests {
		if got := FloorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("FloorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTruncatingDivision(t *testing.T) {
	// Integrator relies on Go's truncation toward zero for gravity / sps²
	if got := int64(-10) / 4; got != -2 {
		t.Fatalf("-10/4 = %d, want -2", got)
	}
}

func TestSqrt(t *testing.T) {
	for _, x := range []int64{0, 1, 2, 3, 4, 15, 16, 17, 99, 100, 1 << 40, (1 << 60) - 1, math.MaxInt64} {
		r := Sqrt(x)
		if r*r > x {
			t.Errorf("Sqrt(%d) = %d, square exceeds input", x, r)
		}
		next := r + 1
		if next*next <= x && next*next > 0 {
			t.Errorf("Sqrt(%d) = %d, not the floor", x, r)
		}
	}
	if Sqrt(-5) != 0 {
		t.Error("Sqrt of negative should be 0")
	}
}

func TestMulDiv(t *testing.T) {
	tests := []struct {
		a, b, c, want int64
	}{
		{6, 4, 8, 3},
		{-6, 4, 8, -3},
		{-7, 3, 2, -10},
		{1 << 40, 1 << 40, 1 << 50, 1 << 30},
		{5, 5, 0, 0},
	}
	for _, tt := range tests {
		if got := MulDiv(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("MulDiv(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
	if got := MulDiv(math.MaxInt64, 4, 1); got != math.MaxInt64 {
		t.Errorf("MulDiv overflow = %d, want saturation", got)
	}
}

func TestScaleTo(t *testing.T) {
	x, y := ScaleTo(3000, 4000, 10)
	if x != 6 || y != 8 {
		t.Errorf("ScaleTo = (%d, %d), want (6, 8)", x, y)
	}
	x, y = ScaleTo(0, 0, 10)
	if x != 0 || y != 0 {
		t.Errorf("ScaleTo zero = (%d, %d)", x, y)
	}
}

func TestProject(t *testing.T) {
	if got := Project(5, 7, 1, 0); got != 5 {
		t.Errorf("Project onto X = %d, want 5", got)
	}
	if got := Project(5, 7, 0, -3); got != -7 {
		t.Errorf("Project onto -Y = %d, want -7", got)
	}
}

func TestFastRandDeterministic(t *testing.T) {
	a, b := NewFastRand(42), NewFastRand(42)
	for i := 0; i < 100; i++ {
		if a.Next() != b.Next() {
			t.Fatal("same seed produced different sequences")
		}
	}
	r := NewFastRand(7)
	for i := 0; i < 1000; i++ {
		v := r.Int64Range(-5, 5)
		if v < -5 || v > 5 {
			t.Fatalf("Int64Range out of range: %d", v)
		}
	}
}
