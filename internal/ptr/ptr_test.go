package ptr_test

import (
	"testing"

	"github.com/myrjola/tatugym/internal/ptr"
)

func TestRef(t *testing.T) {
	goal := "Hipertrofia"
	p := ptr.Ref(goal)
	goal = "Emagrecimento"
	if *p != "Hipertrofia" {
		t.Errorf("Ref() should copy the value, got %q", *p)
	}
}

func TestDeref(t *testing.T) {
	tests := []struct {
		name     string
		p        *int
		fallback int
		want     int
	}{
		{name: "nil uses fallback", p: nil, fallback: 20, want: 20},
		{name: "zero value is kept", p: ptr.Ref(0), fallback: 20, want: 0},
		{name: "value", p: ptr.Ref(31), fallback: 20, want: 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ptr.Deref(tt.p, tt.fallback); got != tt.want {
				t.Errorf("Deref() = %d, want %d", got, tt.want)
			}
		})
	}
}
