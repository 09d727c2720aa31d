package catalog

import (
	"bytes"
	"encoding/gob"

	"github.com/pingcap/goleveldb/leveldb"
	"github.com/vectorq/vectorq/errkind"
)

// PersistentMemory wraps Memory with optional on-disk persistence of
// registered dataset definitions, backed by github.com/pingcap/goleveldb
// (a teacher dependency). This is a test-fixture convenience — production
// catalogs are external collaborators — so a query engine embedded in a
// notebook or test harness can reload a fixed set of dataset definitions
// across process restarts without re-registering them by hand.
type PersistentMemory struct {
	*Memory
	db *leveldb.DB
}

// OpenPersistent opens (creating if absent) a goleveldb-backed store at
// dir and loads any previously-registered datasets into memory.
func OpenPersistent(dir string) (*PersistentMemory, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errkind.Annotate(err, errkind.DatasetNotFound, "opening catalog store at "+dir)
	}
	pm := &PersistentMemory{Memory: NewMemory(), db: db}
	if err := pm.loadAll(); err != nil {
		db.Close()
		return nil, err
	}
	return pm, nil
}

func (pm *PersistentMemory) loadAll() error {
	iter := pm.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		var ds Dataset
		dec := gob.NewDecoder(bytes.NewReader(iter.Value()))
		if err := dec.Decode(&ds); err != nil {
			return errkind.Annotate(err, errkind.DecodeError, "decoding persisted dataset")
		}
		pm.Memory.Register(&ds)
	}
	return iter.Error()
}

// Register persists ds in addition to registering it in memory.
func (pm *PersistentMemory) Register(ds *Dataset) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ds); err != nil {
		return errkind.Annotate(err, errkind.DecodeError, "encoding dataset")
	}
	if err := pm.db.Put([]byte(ds.Name), buf.Bytes(), nil); err != nil {
		return errkind.Annotate(err, errkind.ResourceExhausted, "persisting dataset")
	}
	pm.Memory.Register(ds)
	return nil
}

// Close releases the underlying goleveldb handle.
func (pm *PersistentMemory) Close() error {
	return pm.db.Close()
}
