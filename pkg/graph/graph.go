// Package graph holds the static road network the optimizer routes over:
// named locations and directed, weighted links between them.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownLocation = errors.New("link references unknown location")
var ErrDuplicateLocation = errors.New("duplicate location id")
var ErrInvalidLink = errors.New("invalid link")
var ErrInvalidID = errors.New("invalid location id")

// idSeparator joins ids in path and link keys, so ids may not contain it.
const idSeparator = ">"

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Location is a node of the graph.
type Location struct {
	ID    string      `json:"id" yaml:"id"`
	Name  string      `json:"name" yaml:"name"`
	Coord *Coordinate `json:"coord,omitempty" yaml:"coord,omitempty"`
}

// Link is a directed road segment. A two-way road is two Link records.
type Link struct {
	From                string  `json:"from" yaml:"from"`
	To                  string  `json:"to" yaml:"to"`
	TimeMinutes         float64 `json:"time_minutes" yaml:"time_minutes"`
	DistanceKm          float64 `json:"distance_km" yaml:"distance_km"`
	EmissionsMultiplier float64 `json:"emissions_multiplier" yaml:"emissions_multiplier"`
	EcoPriority         bool    `json:"eco_priority" yaml:"eco_priority"`
	// TrafficFactor scales TimeMinutes; zero means 1.0.
	TrafficFactor float64 `json:"traffic_factor,omitempty" yaml:"traffic_factor,omitempty"`
	RoadType      string  `json:"road_type,omitempty" yaml:"road_type,omitempty"`
}

// Traffic returns the effective traffic factor of the link.
func (l Link) Traffic() float64 {
	if l.TrafficFactor <= 0 {
		return 1.0
	}
	return l.TrafficFactor
}

// Graph is an immutable adjacency structure keyed by source location.
// It is safe for concurrent reads.
type Graph struct {
	locations map[string]Location
	order     []string
	adj       map[string][]Link
	linkCount int
}

// New validates the tables and builds the graph. Any link that references
// a location outside the table is a configuration error.
func New(locations []Location, links []Link) (*Graph, error) {
	g := &Graph{
		locations: make(map[string]Location, len(locations)),
		order:     make([]string, 0, len(locations)),
		adj:       make(map[string][]Link),
	}
	for _, loc := range locations {
		if loc.ID == "" {
			return nil, fmt.Errorf("graph.New: location %q: %w: empty", loc.Name, ErrInvalidID)
		}
		if strings.Contains(loc.ID, idSeparator) {
			return nil, fmt.Errorf("graph.New: location %q: %w: %q contains %q", loc.Name, ErrInvalidID, loc.ID, idSeparator)
		}
		if _, dup := g.locations[loc.ID]; dup {
			return nil, fmt.Errorf("graph.New: %w: %s", ErrDuplicateLocation, loc.ID)
		}
		g.locations[loc.ID] = loc
		g.order = append(g.order, loc.ID)
	}
	for i, l := range links {
		if _, ok := g.locations[l.From]; !ok {
			return nil, fmt.Errorf("graph.New: link %d %s->%s: %w: %s", i, l.From, l.To, ErrUnknownLocation, l.From)
		}
		if _, ok := g.locations[l.To]; !ok {
			return nil, fmt.Errorf("graph.New: link %d %s->%s: %w: %s", i, l.From, l.To, ErrUnknownLocation, l.To)
		}
		if l.From == l.To {
			return nil, fmt.Errorf("graph.New: link %d: %w: self loop on %s", i, ErrInvalidLink, l.From)
		}
		if l.TimeMinutes < 0 || l.DistanceKm < 0 || l.EmissionsMultiplier < 0 || l.TrafficFactor < 0 {
			return nil, fmt.Errorf("graph.New: link %d %s->%s: %w: negative weight", i, l.From, l.To, ErrInvalidLink)
		}
		g.adj[l.From] = append(g.adj[l.From], l)
		g.linkCount++
	}
	return g, nil
}

// Neighbors returns the outgoing links of id in load order. The slice must
// not be modified by the caller.
func (g *Graph) Neighbors(id string) []Link {
	return g.adj[id]
}

// LinkBetween returns the first direct link a->b in load order, if any.
func (g *Graph) LinkBetween(a, b string) (Link, bool) {
	for _, l := range g.adj[a] {
		if l.To == b {
			return l, true
		}
	}
	return Link{}, false
}

// LinksBetween returns every parallel link a->b in load order.
func (g *Graph) LinksBetween(a, b string) []Link {
	var out []Link
	for _, l := range g.adj[a] {
		if l.To == b {
			out = append(out, l)
		}
	}
	return out
}

func (g *Graph) Has(id string) bool {
	_, ok := g.locations[id]
	return ok
}

func (g *Graph) Location(id string) (Location, bool) {
	loc, ok := g.locations[id]
	return loc, ok
}

// Locations returns every location in load order.
func (g *Graph) Locations() []Location {
	out := make([]Location, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.locations[id])
	}
	return out
}

func (g *Graph) LocationCount() int { return len(g.order) }

func (g *Graph) LinkCount() int { return g.linkCount }

// WithTrafficFactor returns a copy of the graph whose link traffic factors
// are multiplied by f. The receiver is left untouched.
func (g *Graph) WithTrafficFactor(f float64) *Graph {
	if f <= 0 || f == 1 {
		return g
	}
	out := &Graph{
		locations: g.locations,
		order:     g.order,
		adj:       make(map[string][]Link, len(g.adj)),
		linkCount: g.linkCount,
	}
	for from, links := range g.adj {
		scaled := make([]Link, len(links))
		for i, l := range links {
			l.TrafficFactor = l.Traffic() * f
			scaled[i] = l
		}
		out.adj[from] = scaled
	}
	return out
}

// Bidirectional returns links plus the opposing record of every link, with
// the same weights. Reverse records follow their forward record.
func Bidirectional(links []Link) []Link {
	out := make([]Link, 0, 2*len(links))
	for _, l := range links {
		rev := l
		rev.From, rev.To = l.To, l.From
		out = append(out, l, rev)
	}
	return out
}
