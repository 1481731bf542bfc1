package pathfind

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"eco-route-planner/pkg/graph"
)

// DefaultMaxKmPerMinute is a speed no link of the reference network beats
// in a straight line.
const DefaultMaxKmPerMinute = 4.0

// GreatCircleHeuristic bounds the remaining cost by the straight-line
// distance to the goal driven at maxKmPerMinute. Only the time term is
// bounded, since emissions are never negative. Locations without a
// coordinate get zero. It stays admissible as long as no link is faster than
// maxKmPerMinute along the great circle and traffic factors are at least 1.
func GreatCircleHeuristic(g *graph.Graph, maxKmPerMinute float64) Heuristic {
	if maxKmPerMinute <= 0 {
		maxKmPerMinute = DefaultMaxKmPerMinute
	}
	points := make(map[string]orb.Point, g.LocationCount())
	for _, loc := range g.Locations() {
		if loc.Coord != nil {
			points[loc.ID] = orb.Point{loc.Coord.Lng, loc.Coord.Lat}
		}
	}
	return func(from, goal string, _ float64) float64 {
		a, ok := points[from]
		if !ok {
			return 0
		}
		b, ok := points[goal]
		if !ok {
			return 0
		}
		km := geo.DistanceHaversine(a, b) / 1000
		return km / maxKmPerMinute
	}
}
