// Package pathfind implements the weighted best-first search that finds the
// minimum combined-cost path between two locations for one alpha.
package pathfind

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"eco-route-planner/pkg/cost"
	"eco-route-planner/pkg/graph"
)

// DefaultMaxExpansions bounds a single search when Options leaves it unset.
const DefaultMaxExpansions = 10000

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrSearchExhausted = errors.New("search exhausted expansion budget")
)

// Heuristic estimates the remaining combined cost from a location to the
// goal. It must never overestimate.
type Heuristic func(from, goal string, alpha float64) float64

// ZeroHeuristic turns the search into Dijkstra's algorithm.
func ZeroHeuristic(string, string, float64) float64 { return 0 }

// Options tune a single search. The zero value is usable.
type Options struct {
	Heuristic     Heuristic
	MaxExpansions int
	// Penalty multiplies the combined cost of a link. Values below 1 are
	// treated as 1 so the heuristic stays admissible; +Inf removes the link.
	Penalty func(graph.Link) float64
}

// Result is a found path with the links it traversed and its accumulated
// (penalised) cost.
type Result struct {
	Path       graph.Path
	Links      []graph.Link
	Cost       float64
	Expansions int
}

type node struct {
	id  string
	g   float64
	f   float64
	seq int
}

type frontier []node

func (q frontier) Len() int { return len(q) }

func (q frontier) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].g != q[j].g {
		return q[i].g < q[j].g
	}
	return q[i].seq < q[j].seq
}

func (q frontier) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *frontier) Push(x any) { *q = append(*q, x.(node)) }

func (q *frontier) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Search finds the minimum combined-cost path from start to end. It returns
// ok=false with a nil error when end is unreachable. When two predecessors
// reach a location at the same cost the cheaper predecessor wins, then the
// one whose own path sorts first by id. The choice depends only on the
// graph, so any consistent heuristic returns the same path as Dijkstra.
func Search(g *graph.Graph, start, end string, alpha float64, opts Options) (Result, bool, error) {
	if !g.Has(start) {
		return Result{}, false, fmt.Errorf("pathfind.Search: %w: %s", ErrUnknownLocation, start)
	}
	if !g.Has(end) {
		return Result{}, false, fmt.Errorf("pathfind.Search: %w: %s", ErrUnknownLocation, end)
	}
	h := opts.Heuristic
	if h == nil {
		h = ZeroHeuristic
	}
	budget := opts.MaxExpansions
	if budget <= 0 {
		budget = DefaultMaxExpansions
	}

	best := map[string]float64{start: 0}
	parent := make(map[string]graph.Link)
	closed := make(map[string]bool)

	seq := 0
	pq := &frontier{}
	heap.Init(pq)
	heap.Push(pq, node{id: start, g: 0, f: h(start, end, alpha), seq: seq})

	expansions := 0
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(node)
		if closed[cur.id] {
			continue
		}
		if cur.id == end {
			res := reconstruct(parent, start, end)
			res.Cost = cur.g
			res.Expansions = expansions
			return res, true, nil
		}
		closed[cur.id] = true

		expansions++
		if expansions > budget {
			return Result{}, false, fmt.Errorf("pathfind.Search %s->%s: %w (%d)", start, end, ErrSearchExhausted, budget)
		}

		for _, l := range g.Neighbors(cur.id) {
			if closed[l.To] {
				continue
			}
			w := cost.CombinedCost(l, alpha)
			if opts.Penalty != nil {
				p := opts.Penalty(l)
				if math.IsInf(p, 1) {
					continue
				}
				if p > 1 {
					w *= p
				}
			}
			ng := cur.g + w
			if old, seen := best[l.To]; seen {
				if ng == old && precedes(best, parent, start, cur.id, parent[l.To].From) {
					parent[l.To] = l
				}
				if ng >= old {
					continue
				}
			}
			best[l.To] = ng
			parent[l.To] = l
			seq++
			heap.Push(pq, node{id: l.To, g: ng, f: ng + h(l.To, end, alpha), seq: seq})
		}
	}
	return Result{Expansions: expansions}, false, nil
}

// precedes reports whether predecessor a beats b on a tie. Both are closed,
// so their costs and paths are final.
func precedes(best map[string]float64, parent map[string]graph.Link, start, a, b string) bool {
	if best[a] != best[b] {
		return best[a] < best[b]
	}
	pa, pb := pathTo(parent, start, a), pathTo(parent, start, b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			return pa[i] < pb[i]
		}
	}
	return len(pa) < len(pb)
}

func pathTo(parent map[string]graph.Link, start, id string) graph.Path {
	var rev graph.Path
	for at := id; ; at = parent[at].From {
		rev = append(rev, at)
		if at == start {
			break
		}
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

func reconstruct(parent map[string]graph.Link, start, end string) Result {
	var links []graph.Link
	for at := end; at != start; {
		l := parent[at]
		links = append(links, l)
		at = l.From
	}
	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
	}
	path := make(graph.Path, 0, len(links)+1)
	path = append(path, start)
	for _, l := range links {
		path = append(path, l.To)
	}
	return Result{Path: path, Links: links}
}

// Totals sums the unpenalised metrics of the traversed links.
func (r Result) Totals() cost.Totals {
	return cost.LinkTotals(r.Links)
}
