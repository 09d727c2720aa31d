package catalog

import (
	"path/filepath"
	"testing"

	"github.com/vectorq/vectorq/morsel"
)

func testDataset(name string) *Dataset {
	return &Dataset{
		Name: name,
		Schema: morsel.Schema{Fields: []morsel.Field{
			{ID: 1, Name: "id", Type: morsel.Int64},
		}},
		Blobs: []string{"s3://bucket/" + name + "/part-0.parquet"},
	}
}

// TestOpenPersistentRegisterReload covers the goleveldb-backed round trip:
// a dataset registered through one PersistentMemory handle is readable
// from a fresh handle opened against the same directory, the way a
// notebook or test harness reloads catalog state across process restarts.
func TestOpenPersistentRegisterReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "catalog")

	pm, err := OpenPersistent(dir)
	if err != nil {
		t.Fatalf("OpenPersistent(%q) error: %v", dir, err)
	}
	if err := pm.Register(testDataset("planets")); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := pm.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	reopened, err := OpenPersistent(dir)
	if err != nil {
		t.Fatalf("re-OpenPersistent(%q) error: %v", dir, err)
	}
	defer reopened.Close()

	ds, err := reopened.Lookup("planets")
	if err != nil {
		t.Fatalf("Lookup(planets) after reload error: %v", err)
	}
	if len(ds.Schema.Fields) != 1 || ds.Schema.Fields[0].Name != "id" {
		t.Fatalf("reloaded dataset schema = %+v, want one field named id", ds.Schema)
	}
	if len(ds.Blobs) != 1 || ds.Blobs[0] != "s3://bucket/planets/part-0.parquet" {
		t.Fatalf("reloaded dataset blobs = %v, want the registered blob path", ds.Blobs)
	}
}

// TestPersistentMemoryLookupMissing confirms the in-memory Lookup
// contract (errkind.DatasetNotFound) still holds through PersistentMemory.
func TestPersistentMemoryLookupMissing(t *testing.T) {
	pm, err := OpenPersistent(filepath.Join(t.TempDir(), "catalog"))
	if err != nil {
		t.Fatalf("OpenPersistent error: %v", err)
	}
	defer pm.Close()

	if _, err := pm.Lookup("nope"); err == nil {
		t.Fatalf("Lookup(nope) = nil error, want DatasetNotFound")
	}
}
