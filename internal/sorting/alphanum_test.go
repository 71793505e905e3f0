package sorting

import (
	"slices"
	"testing"
)

func TestCompareAlphanumeric(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"track2", "track10", -1},
		{"track10", "track2", 1},
		{"b1", "b1", 0},
		{"a", "b", -1},
		{"abc", "ab", 1},
		{"2", "10", -1},
		{"007", "7", -1},
		{"a07b", "a7c", -1},
		{"disc 1 track 9", "disc 1 track 10", -1},
		{"x9y", "x9z", -1},
		{"Ähm", "Zoo", 1},
		{"", "a", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := CompareAlphanumeric(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareAlphanumeric(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareAlphanumericSort(t *testing.T) {
	names := []string{"b10", "b2", "b1", "a100", "a20"}
	slices.SortFunc(names, CompareAlphanumeric)
	want := []string{"a20", "a100", "b1", "b2", "b10"}
	if !slices.Equal(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}
}
