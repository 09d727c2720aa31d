package morsel

import "github.com/vectorq/vectorq/stats"

// Morsel is a unit of work: a batch of rows in columnar form plus the
// schema they claim to satisfy. Morsels are immutable once produced —
// operators yield new Morsels rather than mutating one in place.
type Morsel struct {
	Schema     Schema
	Columns    []*Column
	RowCount   int
	SchemaHash uint64
	Stats      *stats.RelationStatistics // optional, per-column stats carried from a scan
}

// New builds a Morsel from columns, deriving RowCount/SchemaHash.
func New(schema Schema, columns []*Column) *Morsel {
	rc := 0
	if len(columns) > 0 {
		rc = columns[0].Len()
	}
	return &Morsel{
		Schema:     schema,
		Columns:    columns,
		RowCount:   rc,
		SchemaHash: schema.Fingerprint(),
	}
}

// ColumnByID returns the column with the given identity, or nil.
func (m *Morsel) ColumnByID(id ColumnID) *Column {
	if m == nil {
		return nil
	}
	i := m.Schema.IndexOf(id)
	if i < 0 || i >= len(m.Columns) {
		return nil
	}
	return m.Columns[i]
}

// IsEOS reports whether m is the end-of-stream sentinel. EOS is a distinct
// value from an empty morsel (zero rows but a valid schema): a scan that
// has been statistics-pruned emits one empty morsel with the correct
// schema, then EOS — two different signals downstream operators must not
// confuse.
func (m *Morsel) IsEOS() bool { return m == EOS }

// EOS is the single shared end-of-stream sentinel value. Operators compare
// against this pointer, not against RowCount == 0.
var EOS = &Morsel{}
