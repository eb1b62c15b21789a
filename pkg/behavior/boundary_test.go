package behavior

import (
	"testing"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
)

func TestApplyBoundary(t *testing.T) {
	bounds := geometry.RectFromCorners(geometry.Point{}, geometry.Point{X: 100, Y: 50})
	tests := []struct {
		name   string
		policy Boundary
		p      geometry.Point
		v      geometry.Vector2D
		wantP  geometry.Point
		wantV  geometry.Vector2D
	}{
		{"inside untouched", BoundaryReflect, geometry.Point{X: 10, Y: 10}, geometry.Vector2D{X: 1, Y: 1}, geometry.Point{X: 10, Y: 10}, geometry.Vector2D{X: 1, Y: 1}},
		{"wrap right", BoundaryWrap, geometry.Point{X: 103, Y: 10}, geometry.Vector2D{X: 1}, geometry.Point{X: 3, Y: 10}, geometry.Vector2D{X: 1}},
		{"wrap negative", BoundaryWrap, geometry.Point{X: 10, Y: -2}, geometry.Vector2D{Y: -1}, geometry.Point{X: 10, Y: 48}, geometry.Vector2D{Y: -1}},
		{"wrap max edge goes to min", BoundaryWrap, geometry.Point{X: 100, Y: 5}, geometry.Vector2D{X: 1}, geometry.Point{X: 0, Y: 5}, geometry.Vector2D{X: 1}},
		{"clamp right", BoundaryClamp, geometry.Point{X: 104, Y: 10}, geometry.Vector2D{X: 2, Y: 1}, geometry.Point{X: 100, Y: 10}, geometry.Vector2D{X: 0, Y: 1}},
		{"clamp top", BoundaryClamp, geometry.Point{X: 10, Y: -1}, geometry.Vector2D{X: 1, Y: -3}, geometry.Point{X: 10, Y: 0}, geometry.Vector2D{X: 1, Y: 0}},
		{"reflect right", BoundaryReflect, geometry.Point{X: 104, Y: 10}, geometry.Vector2D{X: 2, Y: 1}, geometry.Point{X: 96, Y: 10}, geometry.Vector2D{X: -2, Y: 1}},
		{"reflect bottom", BoundaryReflect, geometry.Point{X: 10, Y: 51}, geometry.Vector2D{Y: 4}, geometry.Point{X: 10, Y: 49}, geometry.Vector2D{Y: -4}},
		{"reflect overshoot clamped", BoundaryReflect, geometry.Point{X: -250, Y: 10}, geometry.Vector2D{X: -300}, geometry.Point{X: 100, Y: 10}, geometry.Vector2D{X: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotP, gotV := ApplyBoundary(tt.policy, bounds, tt.p, tt.v)
			if !near(gotP, tt.wantP) || !near(gotV, tt.wantV) {
				t.Errorf("ApplyBoundary(%s, %v, %v) = %v, %v; want %v, %v",
					tt.policy, tt.p, tt.v, gotP, gotV, tt.wantP, tt.wantV)
			}
		})
	}
}

func TestParseBoundary(t *testing.T) {
	for _, s := range []string{"wrap", "clamp", "reflect"} {
		if b, err := ParseBoundary(s); err != nil || string(b) != s {
			t.Errorf("ParseBoundary(%q) = %q, %v", s, b, err)
		}
	}
	if _, err := ParseBoundary("bounce"); err == nil {
		t.Error("ParseBoundary(bounce) should fail")
	}
}
