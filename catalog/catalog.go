// Package catalog resolves dataset references to a source schema — the
// one piece of "where do column identities come from" the Binder (§4.H)
// depends on. The catalog is read-only after startup (spec §5), so it is
// safe to share across concurrent queries without per-query locking.
package catalog

import (
	"sync"

	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/ids"
	"github.com/vectorq/vectorq/morsel"
)

// Dataset describes one resolvable table/view: its schema and the blob
// path(s) backing it. Real catalogs (Hive metastore, Tarchia, Iceberg,
// Glue, …) are external collaborators; this package only defines the
// lookup contract plus a simple in-memory implementation.
type Dataset struct {
	Name   string
	Schema morsel.Schema
	Blobs  []string
}

// Catalog resolves a dataset name to its Dataset.
type Catalog interface {
	Lookup(name string) (*Dataset, error)
	NextColumnID() ids.ColumnID
}

// Memory is the reference in-memory Catalog implementation used by tests
// and simple embedders. It is read-only after Register calls finish at
// startup, per the read-only-after-startup rule in spec §5.
type Memory struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	nextID   ids.ColumnID
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{datasets: make(map[string]*Dataset)}
}

// Register adds (or replaces) a dataset definition.
func (m *Memory) Register(ds *Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[ds.Name] = ds
}

// Lookup resolves name, returning errkind.DatasetNotFound if absent.
func (m *Memory) Lookup(name string) (*Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasets[name]
	if !ok {
		return nil, errkind.Newf(errkind.DatasetNotFound, "dataset %q not found", name)
	}
	return ds, nil
}

// NextColumnID hands out the next stable column identity. Binders call
// this once per newly-seen column (e.g. when a dataset is first bound, or
// when a projection/aggregate introduces a computed column).
func (m *Memory) NextColumnID() ids.ColumnID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID
}
