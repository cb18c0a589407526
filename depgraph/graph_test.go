package depgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpalomo/wlsim"
)

func at(seconds int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(seconds) * time.Second)
}

func readQuery(dbInstance int64, ts time.Time, tables ...string) wlsim.Query {
	rt := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		rt[t] = struct{}{}
	}
	return wlsim.Query{Kind: wlsim.Select, DBInstanceID: dbInstance, Timestamp: ts, ReadTables: rt}
}

func writeQuery(dbInstance int64, ts time.Time, table string) wlsim.Query {
	return wlsim.Query{Kind: wlsim.Insert, DBInstanceID: dbInstance, Timestamp: ts, WriteTable: table}
}

func TestAddCreatesRAWEdge(t *testing.T) {
	g := New()

	wID := g.Add(writeQuery(1, at(0), "orders"))
	rID := g.Add(readQuery(1, at(10), "orders"))

	deps := g.TransitiveDeps(rID)
	assert.Contains(t, deps, wID)
}

func TestAddIgnoresDifferentInstance(t *testing.T) {
	g := New()

	g.Add(writeQuery(1, at(0), "orders"))
	rID := g.Add(readQuery(2, at(10), "orders"))

	assert.Empty(t, g.TransitiveDeps(rID))
}

func TestAddIgnoresEarlierRead(t *testing.T) {
	g := New()

	g.Add(writeQuery(1, at(10), "orders"))
	rID := g.Add(readQuery(1, at(0), "orders"))

	assert.Empty(t, g.TransitiveDeps(rID))
}

func TestTransitiveDepsIsTransitive(t *testing.T) {
	g := New()

	w1 := g.Add(writeQuery(1, at(0), "orders"))
	// w2 reads what w1 wrote and writes a second table, so r reaches w1
	// only through w2.
	w2q := writeQuery(1, at(5), "shipments")
	w2q.ReadTables = map[string]struct{}{"orders": {}}
	w2 := g.Add(w2q)
	r := g.Add(readQuery(1, at(10), "shipments"))

	deps := g.TransitiveDeps(r)
	assert.Contains(t, deps, w1)
	assert.Contains(t, deps, w2)
}

func TestRemoveFailsWithIncomingEdges(t *testing.T) {
	g := New()

	w := g.Add(writeQuery(1, at(0), "orders"))
	g.Add(readQuery(1, at(10), "orders"))

	err := g.Remove(w)
	require.Error(t, err)
	assert.ErrorIs(t, err, wlsim.ErrGraphMisuse)
}

func TestRemoveWithDepsClearsEverything(t *testing.T) {
	g := New()

	w := g.Add(writeQuery(1, at(0), "orders"))
	r := g.Add(readQuery(1, at(10), "orders"))

	g.RemoveWithDeps(r)

	assert.Equal(t, 0, g.Len())
	_, ok := g.Get(w)
	assert.False(t, ok)
}

func TestPendingWritesOrderedByHourThenID(t *testing.T) {
	g := New()

	w2 := writeQuery(1, at(3600), "orders")
	w2.Hour = 2
	w1 := writeQuery(1, at(0), "orders")
	w1.Hour = 1

	idB := g.Add(w2)
	idA := g.Add(w1)

	order := g.PendingWritesOrdered()
	require.Len(t, order, 2)
	assert.Equal(t, idA, order[0].ID)
	assert.Equal(t, idB, order[1].ID)
}
