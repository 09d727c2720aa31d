// Package executor implements the morsel-driven push-based execution model
// spec §4.K/§9 requires, in place of the teacher's Volcano-style pull
// iterators (executor/distsql.go's `Next(ctx, req)` generator chain): each
// operator drives its own children inside Open, pushing every morsel it
// produces straight to the downstream callback it was given, instead of a
// parent calling Next on a child. A "blocking" operator (a hash join's
// build side, Sort, HashAggregate) fully drains its child inside Open
// before it ever calls downstream; a "streaming" operator (Filter,
// Project, a hash join's probe side) forwards each morsel as soon as it
// is transformed. Grounded on the teacher's executor package for session
// wiring and the worker-pool shape of domain.Domain's sessionPool
// (ngaut/pools.ResourcePool), reworked around spec.md §9's redesign note:
// "the pull (Volcano) model the teacher uses does not fit... model
// execution as morsels pushed through a DAG of operators instead".
package executor

import (
	"context"
	"sync/atomic"

	"github.com/ngaut/pools"
	"github.com/pingcap/failpoint"

	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/morsel"
)

// Emit is how an operator pushes a completed morsel to its downstream
// consumer. Pushing morsel.EOS signals this operator has no more output.
type Emit func(*morsel.Morsel) error

// Operator is the push-model contract every physical operator implements.
// Open both initializes the operator and drives it to completion: by the
// time Open returns, downstream has already received every morsel this
// operator will ever produce, terminated by morsel.EOS. This collapses
// the usual open/next/close iterator protocol into two calls because
// there is no pull-based Next for a caller to interleave with other work —
// morsel-driven push execution runs a pipeline to completion end to end,
// per spec §4.K.
type Operator interface {
	Open(ctx context.Context, downstream Emit) error
	Close() error
}

// Cancellable is implemented by operators whose inner loop checks
// cooperative cancellation (Scan's row-group loop, a join's probe loop).
type Cancellable interface {
	Cancelled() bool
}

// RunState carries cross-cutting execution concerns every operator in one
// query shares: cooperative cancellation and per-operator-kind stats.
// Grounded on the teacher's sessionPool/failpoint wiring in domain.Domain,
// reshaped from session-pool checkout semantics to a single query's
// cancellation flag plus an observability counter map (spec §6).
type RunState struct {
	cancelled int32
	Stats     map[string]*Stats
	Pool      *pools.ResourcePool
}

// Stats aggregates one operator kind's runtime counters for EXPLAIN
// ANALYZE (spec §6).
type Stats struct {
	RowsIn     int64
	RowsOut    int64
	MorselsIn  int64
	MorselsOut int64
}

// NewRunState returns a RunState, optionally backed by a worker resource
// pool (nil runs everything on the calling goroutine).
func NewRunState(pool *pools.ResourcePool) *RunState {
	return &RunState{Stats: map[string]*Stats{}, Pool: pool}
}

// Cancel requests cooperative cancellation; operators check Cancelled()
// between morsels and stop once it is true, returning errkind.Cancelled
// rather than silently truncating results.
func (r *RunState) Cancel() { atomic.StoreInt32(&r.cancelled, 1) }

// Cancelled reports whether Cancel has been called.
func (r *RunState) Cancelled() bool { return atomic.LoadInt32(&r.cancelled) != 0 }

// For returns the Stats bucket for kind, creating it on first use.
func (r *RunState) For(kind string) *Stats {
	st, ok := r.Stats[kind]
	if !ok {
		st = &Stats{}
		r.Stats[kind] = st
	}
	return st
}

// CheckCancelled returns errkind.Cancelled if r has been cancelled, else
// nil — called at the top of every operator's per-morsel loop body.
func (r *RunState) CheckCancelled() error {
	if r.Cancelled() {
		return errkind.New(errkind.Cancelled, "query execution cancelled")
	}
	return nil
}

// Observe wraps downstream so every morsel (and the terminal EOS) passing
// through it updates kind's Stats and, when r.Pool is set, checks out a
// worker-pool resource for the duration of the push downstream before
// releasing it — the "small worker pool" bound of spec §4.K applied at
// the one point every operator's output funnels through, mirroring the
// teacher's sessionPool checkout-per-unit-of-work shape.
func (r *RunState) Observe(kind string, downstream Emit) Emit {
	st := r.For(kind)
	return func(m *morsel.Morsel) error {
		st.MorselsOut++
		if m != morsel.EOS {
			st.RowsOut += int64(m.RowCount)
		}
		if r.Pool == nil {
			return downstream(m)
		}
		res, err := r.Pool.Get()
		if err != nil {
			return errkind.Annotate(err, errkind.ResourceExhausted, "acquiring worker pool resource")
		}
		defer r.Pool.Put(res)
		return downstream(m)
	}
}

// Run opens root (which, per the Operator contract, drives the whole
// pipeline to completion synchronously) and wires its output straight to
// collect, injecting an open-failure fault point the way the teacher's
// domain.Init does around failpoint.Inject("MockReplaceDDL", ...).
func Run(ctx context.Context, root Operator, collect Emit) (runErr error) {
	failpoint.Inject("executorOpenFailure", func(val failpoint.Value) {
		if msg, ok := val.(string); ok {
			runErr = errkind.Newf(errkind.ExecutionFailed, "injected open failure: %s", msg)
		}
	})
	if runErr != nil {
		return runErr
	}
	if err := root.Open(ctx, collect); err != nil {
		closeErr := root.Close()
		if closeErr != nil {
			return errkind.Annotate(err, errkind.ExecutionFailed, "operator open (close also failed: "+closeErr.Error()+")")
		}
		return errkind.Annotate(err, errkind.ExecutionFailed, "operator open")
	}
	return root.Close()
}
