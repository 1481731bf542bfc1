package graph

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPath = errors.New("invalid path")

// Path is an ordered sequence of location ids.
type Path []string

// Equal reports whether p and o visit the same locations in the same order.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Key is a stable string form of the path, usable as a map key. It is
// unambiguous because New rejects ids containing the separator.
func (p Path) Key() string {
	return strings.Join(p, idSeparator)
}

// LinkKey identifies the directed pair from->to.
func LinkKey(from, to string) string {
	return from + idSeparator + to
}

func (p Path) Contains(id string) bool {
	for _, v := range p {
		if v == id {
			return true
		}
	}
	return false
}

func (p Path) String() string {
	return strings.Join(p, " -> ")
}

// Clone returns a copy that does not share backing storage with p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// ValidatePath checks that path is a simple path from start to end made of
// existing links.
func (g *Graph) ValidatePath(path Path, start, end string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if path[0] != start || path[len(path)-1] != end {
		return fmt.Errorf("%w: %s does not run %s to %s", ErrInvalidPath, path, start, end)
	}
	seen := make(map[string]struct{}, len(path))
	for i, id := range path {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s revisits %s", ErrInvalidPath, path, id)
		}
		seen[id] = struct{}{}
		if i == 0 {
			continue
		}
		if _, ok := g.LinkBetween(path[i-1], id); !ok {
			return fmt.Errorf("%w: no link %s->%s", ErrInvalidPath, path[i-1], id)
		}
	}
	return nil
}
