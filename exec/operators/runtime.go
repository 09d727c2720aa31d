// Package operators implements the physical operators spec §4.L-§4.O name
// — Scan, the five join variants, Aggregate/Distinct, and
// Filter/Project/Limit/Sort — against the executor.Operator push-model
// contract. Grounded on the teacher's executor package (table_reader.go's
// row-group-batch read loop, distsql.go's requestBuilder) for the Scan
// operator's shape, and generalized to spec.md's morsel-driven execution
// model rather than the teacher's pull-based `Next(ctx, req *chunk.Chunk)`
// iterator.
package operators

import (
	"github.com/vectorq/vectorq/blob"
	"github.com/vectorq/vectorq/catalog"
	"github.com/vectorq/vectorq/decode"
	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/expression"
	"github.com/vectorq/vectorq/filter/bloom"
	"github.com/vectorq/vectorq/pool/bufferpool"
	"github.com/vectorq/vectorq/pool/mempool"
)

// Runtime bundles the shared, process-wide collaborators every operator
// needs: the blob reader and decoders (spec §1's format/storage
// boundary), the catalog (to resolve a Scan's dataset to its blob list),
// and the two memory subsystems (spec §4.A/§4.B) every operator that
// materializes or evicts column data draws on.
type Runtime struct {
	Catalog   catalog.Catalog
	Blobs     blob.Reader
	Decoders  map[string]decode.Decoder // keyed by format name, e.g. "parquet"
	BufferPool *bufferpool.Pool
	MemPool    *mempool.Pool
	State      *executor.RunState
	Eval       *expression.Evaluator

	// BloomBuildThreshold is the minimum estimated build-side row count
	// before a HashJoin bothers constructing a Bloom prefilter (spec §4.E);
	// below it, the flathash probe alone is cheap enough that a filter
	// would only add overhead.
	BloomBuildThreshold int
}

// NewRuntime returns a Runtime with sane defaults (BloomBuildThreshold
// spec.md doesn't pin a number for, so this picks a conservative one: large
// enough that small dimension-table builds skip the filter entirely).
func NewRuntime(cat catalog.Catalog, blobs blob.Reader, decoders map[string]decode.Decoder, bp *bufferpool.Pool, mp *mempool.Pool, state *executor.RunState, eval *expression.Evaluator) *Runtime {
	return &Runtime{
		Catalog: cat, Blobs: blobs, Decoders: decoders,
		BufferPool: bp, MemPool: mp, State: state, Eval: eval,
		BloomBuildThreshold: bloom.DefaultBuildThreshold,
	}
}
