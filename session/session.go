// Package session implements the DB-API-style cursor surface spec §6
// names: a query's result set exposed as fetchone/fetchmany/fetchall plus
// a direct Arrow() materialization, row-count, schema description, and the
// warnings list non-fatal issues (ambiguous-but-resolved hints,
// unrecognized settings) accumulate on without failing the query (spec §7
// "Warnings... accumulate on the cursor's messages list without failing
// the query"). Grounded on tinysql/session/tidb.go's Session/recordset
// shape (Execute returns a RecordSet the caller iterates via Next), here
// generalized from the teacher's single in-process chunk iterator to the
// morsel-buffered cursor spec §6's fetchone/fetchmany/fetchall/arrow
// surface requires.
package session

import (
	"context"

	"github.com/vectorq/vectorq/arrowio"
	"github.com/vectorq/vectorq/binder"
	"github.com/vectorq/vectorq/engine"
	"github.com/vectorq/vectorq/errkind"
	"github.com/vectorq/vectorq/exec/executor"
	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/explain"
	"github.com/vectorq/vectorq/plan/logical"
	"github.com/vectorq/vectorq/plan/optimizer"
)

// Session is a single embedder's handle onto an Engine: it owns no state
// of its own beyond a reference to the shared Engine (spec §5: "Per-query
// state... is owned by the query and never shared", the Engine itself
// being the one thing every Session and Cursor hold in common).
type Session struct {
	Engine *engine.Engine
}

// New returns a Session against eng.
func New(eng *engine.Engine) *Session {
	return &Session{Engine: eng}
}

// Prepare binds positional/named parameters into root (an already-bound
// logical plan — SQL lexing/parsing is an external collaborator per spec
// §1, so root is the Binder's output, not raw SQL text) and compiles it
// into a runnable Cursor. Missing or extra parameters fail immediately
// with errkind.ParameterError per spec §7.
func (s *Session) Prepare(root logical.Node, positional []interface{}, named map[string]interface{}) (*Cursor, error) {
	bound, err := binder.BindParameters(root, positional, named)
	if err != nil {
		return nil, err
	}
	q := s.Engine.Plan(bound, nil)
	return &Cursor{session: s, query: q}, nil
}

// Cursor is one compiled query's result handle. A Cursor is single-use:
// Execute runs the physical plan exactly once, buffering every morsel it
// produces (excluding EOS) for subsequent fetch calls.
type Cursor struct {
	session *Session

	query    *engine.Query
	morsels  []*morsel.Morsel
	state    *executor.RunState
	Messages []string

	executed  bool
	morselIdx int
	rowIdx    int
}

// Explain renders the cursor's physical plan as the textual DAG spec §6
// requires. EXPLAIN ANALYZE (analyze=true) runs the query first, so Stats
// is populated afterwards; the rendered text is the plan shape in both
// cases and carries no operator statistics.
func (c *Cursor) Explain(ctx context.Context, analyze bool) (string, error) {
	if analyze && !c.executed {
		if err := c.Execute(ctx); err != nil {
			return "", err
		}
	}
	return explain.Render(c.query.Physical), nil
}

// Execute runs the cursor's physical plan to completion, per spec §4.K's
// push model: by the time Execute returns, every morsel the plan will
// ever produce has already been buffered. Calling Execute twice is a
// no-op returning the first run's result, since a Cursor is single-use.
func (c *Cursor) Execute(ctx context.Context) error {
	if c.executed {
		return nil
	}
	c.executed = true
	state, err := c.session.Engine.Run(ctx, c.query, func(m *morsel.Morsel) error {
		if m.IsEOS() {
			return nil
		}
		c.morsels = append(c.morsels, m)
		return nil
	})
	c.state = state
	return err
}

// Schema returns the cursor's output schema (spec §6 "schema
// description"), valid whether or not Execute has run yet.
func (c *Cursor) Schema() morsel.Schema {
	return *c.query.Physical.Schema()
}

// RowCount returns the number of buffered rows remaining to be fetched.
func (c *Cursor) RowCount() int {
	total := 0
	for i := c.morselIdx; i < len(c.morsels); i++ {
		if i == c.morselIdx {
			total += c.morsels[i].RowCount - c.rowIdx
		} else {
			total += c.morsels[i].RowCount
		}
	}
	return total
}

// Stats returns the per-query statistics bag (per-operator-kind rows and
// morsels in/out) — nil until Execute has run. Optimizer firing counts
// come from OptimizerCounters.
func (c *Cursor) Stats() *executor.RunState { return c.state }

// OptimizerCounters returns the named optimization counters (spec §6/§8,
// e.g. "predicate_compaction", "optimization_inner_join_
// correlated_filter") that fired while compiling this cursor's query.
func (c *Cursor) OptimizerCounters() map[string]int {
	return c.query.Counters.Snapshot()
}

// FetchOne returns the next row, or ok=false once the result set is
// exhausted. Must be called after Execute.
func (c *Cursor) FetchOne() (row []interface{}, ok bool, err error) {
	if !c.executed {
		return nil, false, errkind.New(errkind.ExecutionFailed, "fetch called before Execute")
	}
	for c.morselIdx < len(c.morsels) {
		m := c.morsels[c.morselIdx]
		if c.rowIdx >= m.RowCount {
			c.morselIdx++
			c.rowIdx = 0
			continue
		}
		r := rowAt(m, c.rowIdx)
		c.rowIdx++
		return r, true, nil
	}
	return nil, false, nil
}

// FetchMany returns up to n rows (fewer at end of stream).
func (c *Cursor) FetchMany(n int) ([][]interface{}, error) {
	rows := make([][]interface{}, 0, n)
	for i := 0; i < n; i++ {
		r, ok, err := c.FetchOne()
		if err != nil {
			return rows, err
		}
		if !ok {
			break
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// FetchAll drains every remaining row.
func (c *Cursor) FetchAll() ([][]interface{}, error) {
	var rows [][]interface{}
	for {
		r, ok, err := c.FetchOne()
		if err != nil {
			return rows, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, r)
	}
}

// Arrow materializes every remaining buffered row as a single Arrow
// record (spec §6: "an Arrow table directly, batched, single IPC batch
// per call"), consuming them the same way FetchAll does.
func (c *Cursor) Arrow() (interface{}, error) {
	if !c.executed {
		return nil, errkind.New(errkind.ExecutionFailed, "Arrow called before Execute")
	}
	remaining := c.morsels[c.morselIdx:]
	if len(remaining) > 0 && c.rowIdx > 0 {
		first := remaining[0].Columns
		indices := make([]int, remaining[0].RowCount-c.rowIdx)
		for i := range indices {
			indices[i] = c.rowIdx + i
		}
		cols := make([]*morsel.Column, len(first))
		for i, col := range first {
			cols[i] = col.Take(indices)
		}
		remaining = append([]*morsel.Morsel{morsel.New(c.Schema(), cols)}, remaining[1:]...)
	}
	c.morselIdx = len(c.morsels)
	c.rowIdx = 0
	combined := morsel.Concat(c.Schema(), remaining)
	return arrowio.Record(combined)
}

// rowAt extracts row i of m as a slice of Go values, nil standing in for
// SQL NULL — the shape FetchOne/FetchMany/FetchAll hand back to callers
// per the DB-API convention spec §6 describes.
func rowAt(m *morsel.Morsel, i int) []interface{} {
	row := make([]interface{}, len(m.Columns))
	for ci, c := range m.Columns {
		if c.IsNull(i) {
			row[ci] = nil
			continue
		}
		row[ci] = valueAt(c, i)
	}
	return row
}

func valueAt(c *morsel.Column, i int) interface{} {
	switch c.Field.Type {
	case morsel.Bool:
		return c.Bools[i]
	case morsel.Int8:
		return c.Int8s[i]
	case morsel.Int16:
		return c.Int16s[i]
	case morsel.Int32, morsel.Date32:
		return c.Int32s[i]
	case morsel.Int64, morsel.TimestampMicros, morsel.IntervalMonthDayNano:
		return c.Int64s[i]
	case morsel.Uint8:
		return c.Uint8s[i]
	case morsel.Uint16:
		return c.Uint16s[i]
	case morsel.Uint32:
		return c.Uint32s[i]
	case morsel.Uint64:
		return c.Uint64s[i]
	case morsel.Float32:
		return c.Float32s[i]
	case morsel.Float64:
		return c.Float64s[i]
	case morsel.Utf8, morsel.Binary, morsel.FixedSizeBinary, morsel.Decimal, morsel.JSONB:
		return c.Strings[i]
	default:
		return c.Any[i]
	}
}

// DefaultPipeline re-exports the optimizer's fixed rule order so embedders
// configuring a non-default Session don't need a separate import just to
// reference the default.
func DefaultPipeline() []optimizer.Rule { return optimizer.DefaultPipeline() }
