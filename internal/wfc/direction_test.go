package wfc

import "testing"

func TestDirectionOpposite(t *testing.T) {
	tests := []struct {
		dir  Direction
		want Direction
	}{
		{North, South},
		{South, North},
		{East, West},
		{West, East},
		{Top, Bottom},
		{Bottom, Top},
	}
	for _, tt := range tests {
		if got := tt.dir.Opposite(); got != tt.want {
			t.Errorf("%v.Opposite() = %v, want %v", tt.dir, got, tt.want)
		}
	}
}

func TestDirectionIsHorizontal(t *testing.T) {
	for _, d := range []Direction{North, East, South, West} {
		if !d.IsHorizontal() {
			t.Errorf("%v.IsHorizontal() = false, want true", d)
		}
	}
	for _, d := range []Direction{Top, Bottom} {
		if d.IsHorizontal() {
			t.Errorf("%v.IsHorizontal() = true, want false", d)
		}
	}
}

func TestRotatedFace(t *testing.T) {
	tests := []struct {
		dir      Direction
		rotation int
		want     Direction
	}{
		{North, 0, North},
		{North, 1, West},
		{North, 2, South},
		{North, 3, East},
		{East, 1, North},
		{South, 1, East},
		{West, 1, South},
		{West, 2, East},
		{South, 3, West},
		{Top, 2, Top},
		{Bottom, 3, Bottom},
	}
	for _, tt := range tests {
		if got := rotatedFace(tt.dir, tt.rotation); got != tt.want {
			t.Errorf("rotatedFace(%v, %d) = %v, want %v", tt.dir, tt.rotation, got, tt.want)
		}
	}
}

func TestPositionStep(t *testing.T) {
	p := Position{3, 5}
	tests := []struct {
		dir  Direction
		want Position
	}{
		{North, Position{3, 4}},
		{South, Position{3, 6}},
		{East, Position{4, 5}},
		{West, Position{2, 5}},
	}
	for _, tt := range tests {
		if got := p.Step(tt.dir); got != tt.want {
			t.Errorf("%v.Step(%v) = %v, want %v", p, tt.dir, got, tt.want)
		}
	}
}
