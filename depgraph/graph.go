// Package depgraph implements a read-after-write dependency graph: pending
// writes plus the edges later queries hold against them. It is a small
// in-memory table of nodes plus an adjacency map, with DFS closure and
// guarded removal, kept plain, lock-free, and single-owner.
package depgraph

import (
	"fmt"
	"sort"

	"github.com/mpalomo/wlsim"
)

// node is a Query augmented with a monotonically increasing id and the set
// of ids it read-after-write depends on.
type node struct {
	id   uint64
	q    wlsim.Query
	deps map[uint64]struct{}
}

// Graph is the dependency graph. Ids are local to one Graph and must not be
// persisted across runs.
type Graph struct {
	nodes  map[uint64]*node
	nextID uint64
}

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{nodes: make(map[uint64]*node)}
}

// Add appends query as a new node with a fresh id, scanning every existing
// node for a qualifying RAW edge: prev.Kind != select, prev has a
// write_table, new and prev share a db_instance_id, new.Timestamp is later,
// and prev.WriteTable is among new's read_tables.
func (g *Graph) Add(q wlsim.Query) uint64 {
	id := g.nextID
	g.nextID++

	deps := make(map[uint64]struct{})
	for _, prev := range g.nodes {
		if qualifiesAsDependency(q, prev.q) {
			deps[prev.id] = struct{}{}
		}
	}

	g.nodes[id] = &node{id: id, q: q, deps: deps}
	return id
}

func qualifiesAsDependency(newQ, prev wlsim.Query) bool {
	if !prev.Kind.IsWrite() || !prev.HasWriteTable() {
		return false
	}
	if newQ.DBInstanceID != prev.DBInstanceID {
		return false
	}
	if !newQ.Timestamp.After(prev.Timestamp) {
		return false
	}
	return newQ.ReadsTable(prev.WriteTable)
}

// Get returns the query stored under id.
func (g *Graph) Get(id uint64) (wlsim.Query, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return wlsim.Query{}, false
	}
	return n.q, true
}

// Len returns the number of nodes currently in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// TransitiveDeps returns the depth-first closure of ids that id depends on,
// excluding id itself.
func (g *Graph) TransitiveDeps(id uint64) map[uint64]struct{} {
	visited := make(map[uint64]struct{})
	g.dfs(id, visited)
	return visited
}

func (g *Graph) dfs(id uint64, visited map[uint64]struct{}) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for dep := range n.deps {
		if _, seen := visited[dep]; !seen {
			visited[dep] = struct{}{}
			g.dfs(dep, visited)
		}
	}
}

// Remove deletes id, failing if any other node still depends on it.
func (g *Graph) Remove(id uint64) error {
	if _, ok := g.nodes[id]; !ok {
		return nil
	}
	for otherID, n := range g.nodes {
		if otherID == id {
			continue
		}
		if _, dependsOnID := n.deps[id]; dependsOnID {
			return fmt.Errorf("%w: node %d still has incoming edges", wlsim.ErrGraphMisuse, id)
		}
	}
	delete(g.nodes, id)
	return nil
}

// RemoveWithDeps removes id and every node in its transitive closure,
// purging all edges that referenced any of them. It never fails: anything
// depending solely on nodes inside the removed set is consistent once they
// are all gone together.
func (g *Graph) RemoveWithDeps(id uint64) {
	toRemove := g.TransitiveDeps(id)
	toRemove[id] = struct{}{}

	for removed := range toRemove {
		delete(g.nodes, removed)
	}
	for _, n := range g.nodes {
		for removed := range toRemove {
			delete(n.deps, removed)
		}
	}
}

// Dependent is a node's query paired with its id, used where callers need
// a deterministically ordered view of pending nodes.
type Dependent struct {
	ID    uint64
	Query wlsim.Query
}

// Closure returns the queries for a set of ids, ordered by timestamp
// ascending — the order dependency rows are emitted in when a read or write
// flushes its closure.
func (g *Graph) Closure(ids map[uint64]struct{}) []Dependent {
	out := make([]Dependent, 0, len(ids))
	for id := range ids {
		if n, ok := g.nodes[id]; ok {
			out = append(out, Dependent{ID: id, Query: n.q})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Query.Timestamp.Equal(out[j].Query.Timestamp) {
			return out[i].Query.Timestamp.Before(out[j].Query.Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PendingWritesOrdered returns every node currently in the graph, ordered by
// (hour asc, id asc) — the deterministic selection order the Hybrid model's
// drain loop uses.
func (g *Graph) PendingWritesOrdered() []Dependent {
	out := make([]Dependent, 0, len(g.nodes))
	for id, n := range g.nodes {
		out = append(out, Dependent{ID: id, Query: n.q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Query.Hour != out[j].Query.Hour {
			return out[i].Query.Hour < out[j].Query.Hour
		}
		return out[i].ID < out[j].ID
	})
	return out
}
