package domain

import (
	"math"
	"testing"
)

func TestFloatLess(t *testing.T) {
	tests := []struct {
		a, b     float64
		expected bool
	}{
		{1.0, 2.0, true},
		{2.0, 1.0, false},
		{1.0, 1.0, false},
		{1.0, 1.0 + Epsilon/2, false}, // within epsilon
		{1.0, 1.0 + Epsilon*2, true},
	}

	for _, tt := range tests {
		if got := FloatLess(tt.a, tt.b); got != tt.expected {
			t.Errorf("FloatLess(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestFloatGreater(t *testing.T) {
	tests := []struct {
		a, b     float64
		expected bool
	}{
		{2.0, 1.0, true},
		{1.0, 2.0, false},
		{1.0, 1.0, false},
		{1.0 + Epsilon/2, 1.0, false}, // within epsilon
		{1.0 + Epsilon*2, 1.0, true},
	}

	for _, tt := range tests {
		if got := FloatGreater(tt.a, tt.b); got != tt.expected {
			t.Errorf("FloatGreater(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestIsNegative(t *testing.T) {
	tests := []struct {
		v        float64
		expected bool
	}{
		{-1.0, true},
		{-Epsilon * 2, true},
		{-Epsilon / 2, false},
		{0, false},
		{1.0, false},
	}

	for _, tt := range tests {
		if got := IsNegative(tt.v); got != tt.expected {
			t.Errorf("IsNegative(%v) = %v, want %v", tt.v, got, tt.expected)
		}
	}
}

func TestIsInfinite(t *testing.T) {
	tests := []struct {
		v        float64
		expected bool
	}{
		{Infinity, true},
		{math.Inf(1), true},
		{0, false},
		{1e300, false},
		{math.Inf(-1), false},
	}

	for _, tt := range tests {
		if got := IsInfinite(tt.v); got != tt.expected {
			t.Errorf("IsInfinite(%v) = %v, want %v", tt.v, got, tt.expected)
		}
	}
}

func TestClampNonNegative(t *testing.T) {
	tests := []struct {
		v, expected float64
	}{
		{-Epsilon / 2, 0},
		{-1.0, -1.0},
		{0, 0},
		{2.5, 2.5},
	}

	for _, tt := range tests {
		if got := ClampNonNegative(tt.v); got != tt.expected {
			t.Errorf("ClampNonNegative(%v) = %v, want %v", tt.v, got, tt.expected)
		}
	}
}

func TestRelativeGap(t *testing.T) {
	tests := []struct {
		lb, ub, expected float64
	}{
		{4, 5, 0.2},
		{5, 5, 0},
		{6, 5, 0},
		{-1, 0, 1},
		{math.Inf(1), 5, 0},
	}

	for _, tt := range tests {
		if got := RelativeGap(tt.lb, tt.ub); math.Abs(got-tt.expected) > Epsilon {
			t.Errorf("RelativeGap(%v, %v) = %v, want %v", tt.lb, tt.ub, got, tt.expected)
		}
	}

	if got := RelativeGap(1, Infinity); !math.IsInf(got, 1) {
		t.Errorf("RelativeGap with unbounded UB = %v, want +Inf", got)
	}
}

func TestConstants(t *testing.T) {
	if Epsilon <= 0 {
		t.Error("Epsilon should be positive")
	}
	if Infinity != math.MaxFloat64 {
		t.Error("Infinity should equal MaxFloat64")
	}
	if NegativeInfinity != -math.MaxFloat64 {
		t.Error("NegativeInfinity should equal -MaxFloat64")
	}
	if DualTolerance <= Epsilon {
		t.Error("DualTolerance should be coarser than Epsilon")
	}
}
