package neighbor

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-swarm-quadtree/pkg/quadtree"
)

var world = geometry.RectFromCorners(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 100, Y: 100})

func buildService(t testing.TB, items []quadtree.Item) *Service {
	t.Helper()
	q, err := quadtree.New(world, quadtree.Config{MaxItems: 4, MaxDepth: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Rebuild(items); err != nil {
		t.Fatal(err)
	}
	return NewService(q)
}

func sortedHandles(set Set) []quadtree.Handle {
	hs := make([]quadtree.Handle, len(set))
	for i, it := range set {
		hs[i] = it.Handle
	}
	slices.Sort(hs)
	return hs
}

func bruteForce(items []quadtree.Item, center geometry.Point, radius float64) []quadtree.Handle {
	var out Set
	for _, it := range items {
		if it.Position.DistanceSquaredTo(center) <= radius*radius {
			out = append(out, it)
		}
	}
	return sortedHandles(out)
}

func TestService_ThreeAgents(t *testing.T) {
	items := []quadtree.Item{
		{Handle: 1, Position: geometry.Point{X: 10, Y: 10}},
		{Handle: 2, Position: geometry.Point{X: 10, Y: 11}},
		{Handle: 3, Position: geometry.Point{X: 90, Y: 90}},
	}
	s := buildService(t, items)
	center := items[0].Position

	if got := sortedHandles(s.FindWithinRadius(center, 5)); !slices.Equal(got, []quadtree.Handle{1, 2}) {
		t.Errorf("FindWithinRadius = %v; want [1 2]", got)
	}
	if got := sortedHandles(s.FindNeighbors(1, center, 5)); !slices.Equal(got, []quadtree.Handle{2}) {
		t.Errorf("FindNeighbors = %v; want [2]", got)
	}
	n, _ := s.CountWithinRadius(nil, 1, center, 5)
	if n != 1 {
		t.Errorf("CountWithinRadius = %d; want 1", n)
	}
}

func TestService_RadiusEdgeCases(t *testing.T) {
	items := []quadtree.Item{
		{Handle: 1, Position: geometry.Point{X: 50, Y: 50}},
		{Handle: 2, Position: geometry.Point{X: 53, Y: 54}}, // exactly 5 away
		{Handle: 3, Position: geometry.Point{X: 55.1, Y: 50}},
	}
	s := buildService(t, items)
	center := geometry.Point{X: 50, Y: 50}

	tests := []struct {
		name   string
		radius float64
		want   []quadtree.Handle
	}{
		{"on the circle", 5, []quadtree.Handle{1, 2}},
		{"zero radius keeps coincident", 0, []quadtree.Handle{1}},
		{"negative radius", -1, []quadtree.Handle{}},
		{"NaN radius", math.NaN(), []quadtree.Handle{}},
		{"huge radius", 1e6, []quadtree.Handle{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sortedHandles(s.FindWithinRadius(center, tt.radius))
			if !slices.Equal(got, tt.want) {
				t.Errorf("FindWithinRadius(r=%v) = %v; want %v", tt.radius, got, tt.want)
			}
		})
	}
}

func TestService_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 22))
	items := make([]quadtree.Item, 1000)
	for i := range items {
		items[i] = quadtree.Item{
			Handle:   quadtree.Handle(i),
			Position: geometry.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100},
		}
	}
	s := buildService(t, items)

	for i := 0; i < 500; i++ {
		center := geometry.Point{X: rng.Float64()*110 - 5, Y: rng.Float64()*110 - 5}
		radius := rng.Float64() * 20
		got := sortedHandles(s.FindWithinRadius(center, radius))
		want := bruteForce(items, center, radius)
		if !slices.Equal(got, want) {
			t.Fatalf("center %v r %.3f: index found %d, brute force %d", center, radius, len(got), len(want))
		}
	}
}

func TestService_AppendKeepsPrefix(t *testing.T) {
	items := []quadtree.Item{
		{Handle: 1, Position: geometry.Point{X: 10, Y: 10}},
		{Handle: 2, Position: geometry.Point{X: 12, Y: 10}},
		{Handle: 3, Position: geometry.Point{X: 80, Y: 80}},
	}
	s := buildService(t, items)
	prefix := Set{{Handle: 99}}
	got := s.AppendWithinRadius(prefix, 1, geometry.Point{X: 10, Y: 10}, 3, true)
	if len(got) != 2 || got[0].Handle != 99 || got[1].Handle != 2 {
		t.Errorf("AppendWithinRadius = %v; want prefix 99 then handle 2", got)
	}
}

func BenchmarkFindNeighbors(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 1))
	items := make([]quadtree.Item, 5000)
	for i := range items {
		items[i] = quadtree.Item{
			Handle:   quadtree.Handle(i),
			Position: geometry.Point{X: rng.Float64() * 100, Y: rng.Float64() * 100},
		}
	}
	s := buildService(b, items)
	var buf Set
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it := items[i%len(items)]
		buf = s.AppendWithinRadius(buf[:0], it.Handle, it.Position, 4, true)
	}
}
