// Package ids holds the engine's stable-identity types shared by morsel,
// stats, and the planner. Split out as its own leaf package so that morsel
// (row data) and stats (column bounds) can both reference a column's
// identity without importing one another.
package ids

// ColumnID is a stable 64-bit identity assigned to a column during
// binding. It survives renames/aliases, unlike a column name, and is the
// key every statistics and hash-join structure in the engine uses.
type ColumnID uint64
