package operators

import "github.com/vectorq/vectorq/morsel"

// concatMorsels materializes every row buffered across ms into one morsel,
// used by blocking operators (Sort, HashAggregate, Distinct, Union, joins) that
// must see the whole input before producing any output. Delegates to
// morsel.Concat, which the session package's fetch-all/Arrow() paths also
// share — the same "flatten buffered morsels into one batch" need, so it
// lives on the Morsel type itself rather than duplicated per caller.
func concatMorsels(schema morsel.Schema, ms []*morsel.Morsel) *morsel.Morsel {
	return morsel.Concat(schema, ms)
}
