// Package diversity turns single-alpha searches into a small set of labelled,
// pairwise distinct routes: a fast one, an eco one and one at the caller's
// own trade-off.
package diversity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"eco-route-planner/pkg/cost"
	"eco-route-planner/pkg/graph"
	"eco-route-planner/pkg/pathfind"
)

// Route types.
const (
	TypeFast        = "fast"
	TypeEco         = "eco"
	TypeBalanced    = "rl-optimized"
	TypeOptimal     = "optimal"
	alternativeType = "alternative-"
)

var ErrSameEndpoints = errors.New("start and end are the same location")

// IsAlternative reports whether a route type was produced by detour synthesis.
func IsAlternative(routeType string) bool {
	return len(routeType) > len(alternativeType) && routeType[:len(alternativeType)] == alternativeType
}

// Config tunes the strategy. Zero fields fall back to DefaultConfig.
type Config struct {
	FastAlpha     float64
	EcoAlpha      float64
	PerturbFactor float64
	// LinkPenalties are tried in order against links already used by an
	// accepted route. A last attempt always excludes those links.
	LinkPenalties []float64
	MaxRoutes     int

	FastBonus     int
	EcoBonus      int
	BalancedBonus int

	MaxExpansions int
	Heuristic     pathfind.Heuristic
}

func DefaultConfig() Config {
	return Config{
		FastAlpha:     0.1,
		EcoAlpha:      2.0,
		PerturbFactor: 5,
		LinkPenalties: []float64{2, 5},
		MaxRoutes:     3,
		FastBonus:     0,
		EcoBonus:      20,
		BalancedBonus: 10,
		MaxExpansions: pathfind.DefaultMaxExpansions,
	}
}

// Route is one labelled result of Plan.
type Route struct {
	Path        graph.Path   `json:"path"`
	Links       []graph.Link `json:"-"`
	Totals      cost.Totals  `json:"totals"`
	GreenPoints int          `json:"green_points_score"`
	Type        string       `json:"route_type"`
	// Cost is the unpenalised combined cost at Alpha.
	Cost  float64 `json:"cost"`
	Alpha float64 `json:"alpha"`
}

// Strategy is safe for concurrent use; it holds only configuration.
type Strategy struct {
	cfg Config
}

func New(cfg Config) *Strategy {
	def := DefaultConfig()
	if cfg.FastAlpha <= 0 {
		cfg.FastAlpha = def.FastAlpha
	}
	if cfg.EcoAlpha <= 0 {
		cfg.EcoAlpha = def.EcoAlpha
	}
	if cfg.PerturbFactor <= 1 {
		cfg.PerturbFactor = def.PerturbFactor
	}
	if cfg.LinkPenalties == nil {
		cfg.LinkPenalties = def.LinkPenalties
	}
	if cfg.MaxRoutes <= 0 {
		cfg.MaxRoutes = def.MaxRoutes
	}
	if cfg.MaxExpansions <= 0 {
		cfg.MaxExpansions = def.MaxExpansions
	}
	return &Strategy{cfg: cfg}
}

func (s *Strategy) Config() Config { return s.cfg }

type regime struct {
	label string
	alpha float64
	bonus int
	// perturb pushes alpha further from the regime that produced collidedWith.
	perturb func(alpha float64, collidedWith string) float64
}

// plan is the per-request working state.
type plan struct {
	s        *Strategy
	g        *graph.Graph
	start    string
	end      string
	accepted []Route
	seen     map[string]bool
	used     map[string]bool
	alts     int
}

// Plan returns up to MaxRoutes pairwise distinct routes from start to end,
// sorted by green points, highest first. It never pads the list with a
// duplicate: when the graph has fewer distinct paths, fewer routes come back.
// An unreachable end yields an empty list and a nil error.
func (s *Strategy) Plan(g *graph.Graph, start, end string, alpha float64) ([]Route, error) {
	if start == end {
		return nil, fmt.Errorf("diversity.Plan: %w: %s", ErrSameEndpoints, start)
	}
	p := &plan{
		s:     s,
		g:     g,
		start: start,
		end:   end,
		seen:  make(map[string]bool),
		used:  make(map[string]bool),
	}
	f := s.cfg.PerturbFactor
	regimes := []regime{
		{TypeFast, s.cfg.FastAlpha, s.cfg.FastBonus, func(a float64, _ string) float64 { return a / f }},
		{TypeEco, s.cfg.EcoAlpha, s.cfg.EcoBonus, func(a float64, _ string) float64 { return a * f }},
		{TypeBalanced, alpha, s.cfg.BalancedBonus, func(a float64, hit string) float64 {
			if hit == TypeEco {
				return a / f
			}
			return a * f
		}},
	}

	for _, r := range regimes {
		if len(p.accepted) >= s.cfg.MaxRoutes {
			break
		}
		found, err := p.run(r)
		if err != nil {
			return nil, err
		}
		if !found {
			// end is unreachable; no other regime can do better
			return []Route{}, nil
		}
	}

	// top up with detours of what we already have when more routes were asked for
	for i := 0; len(p.accepted) < s.cfg.MaxRoutes && i < len(p.accepted); i++ {
		base := p.accepted[i]
		if rt, ok := p.detour(base.Path, base.Alpha); ok {
			p.accept(rt)
		}
	}

	out := p.accepted
	sort.SliceStable(out, func(i, j int) bool { return out[i].GreenPoints > out[j].GreenPoints })
	return out, nil
}

// run executes one regime, falling back through perturbation, link
// penalties and detour synthesis when the plain search repeats an accepted
// path. found is false only when no path exists at all.
func (p *plan) run(r regime) (found bool, err error) {
	res, ok, err := p.search(r.alpha, nil)
	if err != nil || !ok {
		return false, err
	}
	if !p.seen[res.Path.Key()] {
		p.accept(p.route(res, r.label, r.alpha, r.bonus))
		return true, nil
	}
	collidedWith := p.owner(res.Path)

	perturbed := r.perturb(r.alpha, collidedWith)
	if res2, ok, err := p.search(perturbed, nil); err != nil {
		return true, err
	} else if ok && !p.seen[res2.Path.Key()] {
		p.accept(p.route(res2, r.label, perturbed, r.bonus))
		return true, nil
	}

	// escalate link penalties, finishing with the used links removed outright
	for _, factor := range append(append([]float64(nil), p.s.cfg.LinkPenalties...), math.Inf(1)) {
		res3, ok, err := p.search(r.alpha, p.penalty(factor))
		if err != nil {
			return true, err
		}
		if ok && !p.seen[res3.Path.Key()] {
			p.accept(p.route(res3, r.label, r.alpha, r.bonus))
			return true, nil
		}
	}

	if rt, ok := p.detour(res.Path, r.alpha); ok {
		p.accept(rt)
	}
	return true, nil
}

func (p *plan) search(alpha float64, penalty func(graph.Link) float64) (pathfind.Result, bool, error) {
	return pathfind.Search(p.g, p.start, p.end, alpha, pathfind.Options{
		Heuristic:     p.s.cfg.Heuristic,
		MaxExpansions: p.s.cfg.MaxExpansions,
		Penalty:       penalty,
	})
}

// penalty weighs links of accepted routes by factor.
func (p *plan) penalty(factor float64) func(graph.Link) float64 {
	return func(l graph.Link) float64 {
		if p.used[graph.LinkKey(l.From, l.To)] {
			return factor
		}
		return 1
	}
}

// detour inserts one location into base, between two consecutive stops that
// it links to and from, and returns the cheapest such variation that is not
// already accepted. Positions are scanned from the middle of the path
// outwards so equal-cost ties favour a central detour.
func (p *plan) detour(base graph.Path, alpha float64) (Route, bool) {
	var (
		best     graph.Path
		bestLink []graph.Link
		bestCost float64
	)
	for _, i := range middleOut(len(base) - 1) {
		a, b := base[i], base[i+1]
		for _, loc := range p.g.Locations() {
			if base.Contains(loc.ID) {
				continue
			}
			if len(p.g.LinksBetween(a, loc.ID)) == 0 || len(p.g.LinksBetween(loc.ID, b)) == 0 {
				continue
			}
			cand := make(graph.Path, 0, len(base)+1)
			cand = append(cand, base[:i+1]...)
			cand = append(cand, loc.ID)
			cand = append(cand, base[i+1:]...)
			if p.seen[cand.Key()] {
				continue
			}
			links, err := cost.PathLinks(p.g, cand, alpha)
			if err != nil {
				continue
			}
			c := combined(links, alpha)
			if best == nil || c < bestCost {
				best, bestLink, bestCost = cand, links, c
			}
		}
	}
	if best == nil {
		return Route{}, false
	}
	p.alts++
	rt := p.route(pathfind.Result{Path: best, Links: bestLink}, fmt.Sprintf("%s%d", alternativeType, p.alts), alpha, 0)
	return rt, true
}

func (p *plan) route(res pathfind.Result, label string, alpha float64, bonus int) Route {
	totals := res.Totals()
	return Route{
		Path:        res.Path.Clone(),
		Links:       res.Links,
		Totals:      totals.Round(),
		GreenPoints: cost.ClampScore(totals.GreenPoints() + bonus),
		Type:        label,
		Cost:        combined(res.Links, alpha),
		Alpha:       alpha,
	}
}

func (p *plan) accept(rt Route) {
	p.accepted = append(p.accepted, rt)
	p.seen[rt.Path.Key()] = true
	for _, l := range rt.Links {
		p.used[graph.LinkKey(l.From, l.To)] = true
	}
}

// owner returns the type of the accepted route with the given path.
func (p *plan) owner(path graph.Path) string {
	for _, rt := range p.accepted {
		if rt.Path.Equal(path) {
			return rt.Type
		}
	}
	return ""
}

// Best runs a single search at alpha and labels the result optimal.
func (s *Strategy) Best(g *graph.Graph, start, end string, alpha float64) (Route, bool, error) {
	if start == end {
		return Route{}, false, fmt.Errorf("diversity.Best: %w: %s", ErrSameEndpoints, start)
	}
	res, ok, err := pathfind.Search(g, start, end, alpha, pathfind.Options{
		Heuristic:     s.cfg.Heuristic,
		MaxExpansions: s.cfg.MaxExpansions,
	})
	if err != nil || !ok {
		return Route{}, false, err
	}
	p := &plan{s: s, g: g}
	return p.route(res, TypeOptimal, alpha, 0), true, nil
}

func combined(links []graph.Link, alpha float64) float64 {
	var c float64
	for _, l := range links {
		c += cost.CombinedCost(l, alpha)
	}
	return c
}

// middleOut lists 0..n-1 starting at the centre and alternating outwards.
func middleOut(n int) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	mid := (n - 1) / 2
	out = append(out, mid)
	for d := 1; len(out) < n; d++ {
		if mid+d < n {
			out = append(out, mid+d)
		}
		if mid-d >= 0 {
			out = append(out, mid-d)
		}
	}
	return out
}
