package geometry

import (
	"errors"
	"math"
	"testing"
)

func TestRectangle_Contains(t *testing.T) {
	r := RectFromCorners(Point{0, 0}, Point{10, 10})
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Point{5, 5}, true},
		{"min corner", Point{0, 0}, true},
		{"max corner", Point{10, 10}, true},
		{"on edge", Point{10, 3}, true},
		{"left of", Point{-0.001, 5}, false},
		{"below", Point{5, 10.001}, false},
		{"NaN", Point{math.NaN(), 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.p); got != tt.want {
				t.Errorf("%s.Contains(%v) = %v; want %v", r, tt.p, got, tt.want)
			}
		})
	}
}

func TestRectangle_Intersects(t *testing.T) {
	r := RectFromCorners(Point{0, 0}, Point{10, 10})
	tests := []struct {
		name  string
		other Rectangle
		want  bool
	}{
		{"overlapping", RectFromCorners(Point{5, 5}, Point{15, 15}), true},
		{"contained", RectFromCorners(Point{2, 2}, Point{3, 3}), true},
		{"containing", RectFromCorners(Point{-5, -5}, Point{15, 15}), true},
		{"touching edge", RectFromCorners(Point{10, 0}, Point{20, 10}), true},
		{"touching corner", RectFromCorners(Point{10, 10}, Point{20, 20}), true},
		{"disjoint on x", RectFromCorners(Point{11, 0}, Point{20, 10}), false},
		{"disjoint on y", RectFromCorners(Point{0, -5}, Point{10, -0.5}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Intersects(tt.other); got != tt.want {
				t.Errorf("%s.Intersects(%s) = %v; want %v", r, tt.other, got, tt.want)
			}
			if got := tt.other.Intersects(r); got != tt.want {
				t.Errorf("Intersects is not symmetric for %s", tt.other)
			}
		})
	}
}

func TestRectangle_Constructors(t *testing.T) {
	r := NewRectangle(Point{5, 5}, -2, 3)
	if r.Min != (Point{3, 2}) || r.Max != (Point{7, 8}) {
		t.Errorf("NewRectangle folded extents wrong: %s", r)
	}
	if r.Width() != 4 || r.Height() != 6 {
		t.Errorf("size = %v x %v; want 4 x 6", r.Width(), r.Height())
	}
	if got := r.Center(); got != (Point{5, 5}) {
		t.Errorf("Center() = %v; want (5, 5)", got)
	}
	if r.Width() != 4 || r.Height() != 6 {
		t.Errorf("Width/Height = %v/%v; want 4/6", r.Width(), r.Height())
	}

	sq := SquareAround(Point{10, 10}, 5)
	if sq.Min != (Point{5, 5}) || sq.Max != (Point{15, 15}) {
		t.Errorf("SquareAround = %s; want [(5,5)-(15,15)]", sq)
	}

	c := RectFromCorners(Point{4, -1}, Point{-2, 7})
	if c.Min != (Point{-2, -1}) || c.Max != (Point{4, 7}) {
		t.Errorf("RectFromCorners did not order corners: %s", c)
	}
}

func TestRectangle_Quadrants(t *testing.T) {
	r := RectFromCorners(Point{0, 0}, Point{0.3, 0.7})
	qs := r.Quadrants()
	c := r.Center()

	// children share the parent's split line exactly
	if qs[NorthWest].Max != c || qs[SouthEast].Min != c {
		t.Fatalf("split line is not shared exactly: %v", qs)
	}
	if qs[NorthEast].Min.X != c.X || qs[SouthWest].Max.X != c.X {
		t.Errorf("vertical split mismatch: %v", qs)
	}

	points := []Point{
		{0, 0}, {0.3, 0.7}, c, {c.X, 0}, {0, c.Y}, {0.1, 0.6}, {0.29, 0.01},
	}
	for _, p := range points {
		q := r.QuadrantOf(p)
		if !qs[q].Contains(p) {
			t.Errorf("QuadrantOf(%v) = %d whose bounds %s do not contain it", p, q, qs[q])
		}
	}
	if q := r.QuadrantOf(c); q != SouthEast {
		t.Errorf("center should fall in SouthEast, got %d", q)
	}
}

func TestRectangle_Clamp(t *testing.T) {
	r := RectFromCorners(Point{0, 0}, Point{10, 10})
	tests := []struct {
		p, want Point
	}{
		{Point{5, 5}, Point{5, 5}},
		{Point{-3, 5}, Point{0, 5}},
		{Point{12, -1}, Point{10, 0}},
	}
	for _, tt := range tests {
		if got := r.Clamp(tt.p); got != tt.want {
			t.Errorf("Clamp(%v) = %v; want %v", tt.p, got, tt.want)
		}
	}
}

func TestRectangle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       Rectangle
		wantErr bool
	}{
		{"valid", RectFromCorners(Point{0, 0}, Point{1, 1}), false},
		{"zero width", RectFromCorners(Point{0, 0}, Point{0, 1}), true},
		{"inverted", Rectangle{Min: Point{1, 1}, Max: Point{0, 0}}, true},
		{"NaN", Rectangle{Min: Point{math.NaN(), 0}, Max: Point{1, 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v; wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrDegenerateRectangle) {
				t.Errorf("Validate() error %v does not wrap ErrDegenerateRectangle", err)
			}
		})
	}
}
