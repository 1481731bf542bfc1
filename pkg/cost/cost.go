// Package cost holds the pure cost and scoring functions shared by the search
// and the diversity strategy. Everything here is stateless.
package cost

import (
	"fmt"
	"math"

	"eco-route-planner/pkg/graph"
)

const (
	// EmissionsPerMinuteBase is the baseline CO2 output in grams per minute of
	// driving before a link's multiplier is applied.
	EmissionsPerMinuteBase = 100.0

	// EmissionsCostUnit converts grams into the unit alpha weighs against
	// minutes: one baseline minute of driving.
	EmissionsCostUnit = EmissionsPerMinuteBase

	MinScore = 0
	MaxScore = 150

	baseScore        = 100
	emissionsPenalty = 50
	timePenalty      = 30
)

// TimeCost is the traffic-adjusted travel time of l in minutes.
func TimeCost(l graph.Link) float64 {
	return l.TimeMinutes * l.Traffic()
}

// EmissionsCost is the estimated CO2 of l in grams. It uses the base time, not
// the traffic-adjusted one.
func EmissionsCost(l graph.Link) float64 {
	return l.TimeMinutes * EmissionsPerMinuteBase * l.EmissionsMultiplier
}

// CombinedCost is the scalar edge weight the search minimises.
func CombinedCost(l graph.Link, alpha float64) float64 {
	return TimeCost(l) + alpha*EmissionsCost(l)/EmissionsCostUnit
}

// GreenPoints scores a route from its aggregate emissions (g) and time (min).
func GreenPoints(totalEmissions, totalTime float64) int {
	score := baseScore -
		math.Min(emissionsPenalty, math.Max(0, totalEmissions)/100) -
		math.Min(timePenalty, math.Max(0, totalTime)/10)
	return ClampScore(int(math.Floor(score)))
}

// ClampScore bounds a score to [MinScore, MaxScore].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Totals are the aggregate metrics of a traversed path.
type Totals struct {
	TimeMinutes    float64 `json:"total_time"`
	DistanceKm     float64 `json:"total_distance"`
	EmissionsGrams float64 `json:"total_emissions"`
}

func (t Totals) GreenPoints() int {
	return GreenPoints(t.EmissionsGrams, t.TimeMinutes)
}

// Add accumulates one link.
func (t Totals) Add(l graph.Link) Totals {
	t.TimeMinutes += TimeCost(l)
	t.DistanceKm += l.DistanceKm
	t.EmissionsGrams += EmissionsCost(l)
	return t
}

// Round trims the totals to two decimals for presentation.
func (t Totals) Round() Totals {
	return Totals{
		TimeMinutes:    round2(t.TimeMinutes),
		DistanceKm:     round2(t.DistanceKm),
		EmissionsGrams: round2(t.EmissionsGrams),
	}
}

// LinkTotals sums the metrics of an explicit link sequence.
func LinkTotals(links []graph.Link) Totals {
	var t Totals
	for _, l := range links {
		t = t.Add(l)
	}
	return t
}

// PathLinks resolves every consecutive pair of path to a link. Where parallel
// links exist the one with the lowest combined cost at alpha is used, first in
// load order on a tie.
func PathLinks(g *graph.Graph, path graph.Path, alpha float64) ([]graph.Link, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("cost.PathLinks: %w: empty", graph.ErrInvalidPath)
	}
	links := make([]graph.Link, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		l, ok := CheapestLink(g, path[i-1], path[i], alpha)
		if !ok {
			return nil, fmt.Errorf("cost.PathLinks: %w: no link %s->%s", graph.ErrInvalidPath, path[i-1], path[i])
		}
		links = append(links, l)
	}
	return links, nil
}

// PathTotals resolves path against g and sums its metrics.
func PathTotals(g *graph.Graph, path graph.Path, alpha float64) (Totals, error) {
	links, err := PathLinks(g, path, alpha)
	if err != nil {
		return Totals{}, err
	}
	return LinkTotals(links), nil
}

// CheapestLink picks the lowest combined-cost link a->b.
func CheapestLink(g *graph.Graph, a, b string, alpha float64) (graph.Link, bool) {
	var (
		best   graph.Link
		found  bool
		lowest float64
	)
	for _, l := range g.LinksBetween(a, b) {
		c := CombinedCost(l, alpha)
		if !found || c < lowest {
			best, lowest, found = l, c, true
		}
	}
	return best, found
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
