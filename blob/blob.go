// Package blob defines the BlobReader contract (spec §6): storage
// connectors are external collaborators, so this package only carries the
// interface and a small local-disk reference implementation used by tests
// — never a cloud SDK. Grounded on spec §6's "read_blob(path) -> bytes"
// contract with OS hints.
package blob

import (
	"io"
	"os"

	"github.com/pingcap/errors"
	"github.com/vectorq/vectorq/errkind"
)

// Hint is an optional OS-level access pattern hint a caller may pass to
// Reader.Read, mirroring posix_fadvise-style hints without committing the
// interface to any one OS.
type Hint int

const (
	HintNone Hint = iota
	HintSequential
	HintWillNeed
	HintDropAfter
)

// Reader is the one contract the execution core depends on for bytes.
// Real connector implementations (S3, GCS, Azure Blob, local disk, …) are
// external collaborators and live outside this module.
type Reader interface {
	// ReadBlob returns the full contents of path. Implementations should
	// return a zero-copy view when possible. A missing object must be
	// reported as errkind.DatasetNotFound (wrapping the underlying cause),
	// not a bare I/O error, so callers can distinguish "not found" from a
	// transient failure warranting the DecodeError retry-once policy.
	ReadBlob(path string, hints ...Hint) ([]byte, error)
}

// LocalDisk is a minimal reference Reader over the local filesystem, used
// by tests and examples; it is not a supported production connector.
type LocalDisk struct{}

// ReadBlob reads path from local disk. HintSequential/HintWillNeed are
// accepted but not acted upon (no portable fadvise in the stdlib); they
// exist so the interface shape matches what a production connector needs.
func (LocalDisk) ReadBlob(path string, _ ...Hint) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errkind.Annotate(err, errkind.DatasetNotFound, "blob not found: "+path)
		}
		return nil, errors.Trace(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}
