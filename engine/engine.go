// Package engine lifts the process-wide mutable state spec.md §9's design
// note calls out ("global mutable state for caches, loggers, configs ->
// lift into an Engine context object passed to every query") into a
// single struct: the buffer pool, memory pool, catalog, blob reader,
// decoders and function registry every query shares, plus the Options a
// query is run with. Grounded on the teacher's domain.Domain (the one
// process-wide object holding the session pool, stats handle, and DDL
// lease manager that every tidb.Session is built against) generalized to
// this engine's read-only, single-process shape.
package engine

import (
	"context"
	"time"

	"github.com/ngaut/pools"
	_ "go.uber.org/automaxprocs" // side-effect import: sets GOMAXPROCS from the cgroup quota at process init, same as the teacher's binaries
	"go.uber.org/zap"

	"github.com/vectorq/vectorq/blob"
	"github.com/vectorq/vectorq/catalog"
	"github.com/vectorq/vectorq/decode"
	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/exec/operators"
	"github.com/vectorq/vectorq/expression"
	"github.com/vectorq/vectorq/log"
	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/plan/optimizer"
	"github.com/vectorq/vectorq/plan/physical"
	"github.com/vectorq/vectorq/pool/bufferpool"
	"github.com/vectorq/vectorq/pool/mempool"
)

// Options configures one Engine instance (spec §5 "memory policy"/§6
// "per-query wall-clock timeout"). Loading these from a file or
// environment is an external-collaborator concern (the CLI facade, out of
// scope per spec.md §1) — an embedder builds Options programmatically.
type Options struct {
	// MorselSize (M) is the morsel row-count setting (typ. 10,000-65,536).
	// Running a query does not read it: a Scan emits one morsel per decoded
	// blob, whatever that blob's row count.
	MorselSize int
	// BufferPoolK is the LRU-K order of the blob cache (spec §4.A).
	// BufferPoolCapacity is not passed to the cache, which has no size
	// limit of its own and drops entries only through Pool.Evict.
	BufferPoolCapacity int
	BufferPoolK        int
	// MemPoolCapacity sizes the morsel arena (spec §4.B).
	MemPoolCapacity int
	// BlockingOperatorMemoryLimit is a memory threshold setting for the
	// blocking operators (hash-join build, aggregate, distinct, sort). No
	// operator reads it: they buffer their whole input without a limit and
	// never fail with errkind.ResourceExhausted.
	BlockingOperatorMemoryLimit int64
	// QueryTimeout is the per-query wall-clock timeout (spec §5); zero
	// means no timeout.
	QueryTimeout time.Duration
	// WorkerPoolSize is the small fixed worker pool's capacity (spec §4.K
	// "a small worker pool"). Zero defaults to 4.
	WorkerPoolSize int
	// BloomBuildThreshold is the HashJoin build-side row-count floor
	// before a Bloom prefilter is built (spec §4.E).
	BloomBuildThreshold int
}

// DefaultOptions returns the engine's out-of-the-box tuning.
func DefaultOptions() Options {
	return Options{
		MorselSize:                  10000,
		BufferPoolCapacity:          256 << 20, // 256MiB
		BufferPoolK:                 2,
		MemPoolCapacity:             64 << 20, // 64MiB
		BlockingOperatorMemoryLimit: 512 << 20,
		QueryTimeout:                0,
		WorkerPoolSize:              4,
		BloomBuildThreshold:         1000,
	}
}

// Engine is the process-wide context every query is run against: the
// shared caches (spec §5 "Buffer pool and memory pool are process-wide...
// safe under contention but not designed for many concurrent writers"),
// the read-only-after-startup catalog and function registry, and the
// storage/format collaborators (spec §1's external-collaborator
// boundary: BlobReader and Decoder implementations are supplied by the
// embedder, not this package).
type Engine struct {
	Options  Options
	Catalog  catalog.Catalog
	Blobs    blob.Reader
	Decoders map[string]decode.Decoder
	Registry expression.Registry

	bufferPool *bufferpool.Pool
	memPool    *mempool.Pool
}

// New wires a fresh Engine from opts and the external collaborators spec
// §1/§6 name: a catalog, a blob reader, a set of format decoders (keyed by
// format name, e.g. "parquet"), and a function registry for the binder
// and expression evaluator.
func New(opts Options, cat catalog.Catalog, blobs blob.Reader, decoders map[string]decode.Decoder, registry expression.Registry) *Engine {
	return &Engine{
		Options:    opts,
		Catalog:    cat,
		Blobs:      blobs,
		Decoders:   decoders,
		Registry:   registry,
		bufferPool: bufferpool.New(opts.BufferPoolK),
		memPool:    mempool.New(opts.MemPoolCapacity),
	}
}

// BufferPool returns the engine's process-wide LRU-K blob cache.
func (e *Engine) BufferPool() *bufferpool.Pool { return e.bufferPool }

// MemPool returns the engine's process-wide morsel arena.
func (e *Engine) MemPool() *mempool.Pool { return e.memPool }

// Query is one compiled, ready-to-run statement: the optimized logical
// plan, its lowered physical plan, and the optimizer's firing counters
// (spec §6 "optimizer counters" in the statistics output).
type Query struct {
	Logical  logical.Node
	Physical physical.Node
	Counters *optimizer.Counters
}

// Plan binds parameters into root (already produced by a Binder — SQL
// parsing is an external collaborator, spec §1), runs the optimizer
// pipeline, and lowers the result to a physical plan. root must already
// carry any per-dataset visibility filter (spec §6: "applied after
// binding but before the optimizer") — the Binder attaches that.
func (e *Engine) Plan(root logical.Node, pipeline []optimizer.Rule) *Query {
	if pipeline == nil {
		pipeline = optimizer.DefaultPipeline()
	}
	optimized, counters := optimizer.Optimize(root, pipeline)
	return &Query{
		Logical:  optimized,
		Physical: physical.Lower(optimized),
		Counters: counters,
	}
}

// Run executes q's physical plan to completion, pushing every produced
// morsel to collect (spec §4.K). It wires a fresh RunState (cancellation
// flag + per-operator-kind stats) and a fixed-size worker pool sized from
// Options.WorkerPoolSize, honoring Options.QueryTimeout as a cooperative
// cancellation deadline (spec §5 "Timeouts... set the cancellation flag").
func (e *Engine) Run(ctx context.Context, q *Query, collect executor.Emit) (*executor.RunState, error) {
	workers := e.Options.WorkerPoolSize
	if workers <= 0 {
		workers = 4
	}
	wp := pools.NewResourcePool(noopFactory, workers, workers, time.Minute)
	defer wp.Close()

	state := executor.NewRunState(wp)
	if e.Options.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Options.QueryTimeout)
		defer cancel()
		go func() {
			<-ctx.Done()
			state.Cancel()
		}()
	}

	eval := expression.New(e.Registry)
	rt := operators.NewRuntime(e.Catalog, e.Blobs, e.Decoders, e.bufferPool, e.memPool, state, eval)
	rt.BloomBuildThreshold = e.Options.BloomBuildThreshold

	root, err := operators.Build(q.Physical, rt)
	if err != nil {
		return state, errkind.Annotate(err, errkind.ExecutionFailed, "building operator tree")
	}

	if err := executor.Run(ctx, root, collect); err != nil {
		log.L().Warn("query execution failed", zap.Error(err))
		return state, err
	}
	return state, nil
}

// noopFactory backs the worker ResourcePool with resources that do no
// real work of their own — per spec §4.K the executor drives every
// operator inline on the calling goroutine, so there is no independent
// unit of execution to hand a resource to. What the pool bounds is
// concurrent access to the output side of the pipeline: RunState.Observe
// checks a resource out of wp for every morsel (and the terminal EOS) an
// operator pushes downstream and returns it once the push completes,
// so a WorkerPoolSize of N caps how many operators' pushes can be
// in flight downstream at once, mirroring the teacher's sessionPool
// checkout-per-unit-of-work shape (a bounded resource count gating
// concurrent access, not a thread pool work is dispatched onto).
func noopFactory() (pools.Resource, error) { return noopResource{}, nil }

type noopResource struct{}

func (noopResource) Close() {}
