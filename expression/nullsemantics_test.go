package expression

import (
	"testing"

	"github.com/vectorq/vectorq/morsel"
	"github.com/vectorq/vectorq/plan/logical"
)

// oneRow is a minimal morsel sufficient for evaluating Literal/And/Or/Not
// trees, which only read RowCount (Column lookups aren't exercised here).
func oneRow() *morsel.Morsel { return &morsel.Morsel{RowCount: 1} }

func evalBool(t *testing.T, ev *Evaluator, e logical.Expr) (val bool, isNull bool) {
	t.Helper()
	c, err := ev.Eval(e, oneRow())
	if err != nil {
		t.Fatalf("Eval(%#v) error: %v", e, err)
	}
	if c.IsNull(0) {
		return false, true
	}
	return c.Bools[0], false
}

func litBool(v bool) logical.Literal { return logical.Literal{Value: v} }
func litNull() logical.Literal       { return logical.Literal{Value: nil} }

// TestThreeValuedAnd covers SQL's three-valued AND table: FALSE dominates
// even alongside NULL; otherwise a NULL operand propagates.
func TestThreeValuedAnd(t *testing.T) {
	ev := New(nil)

	if v, isNull := evalBool(t, ev, logical.And{Terms: []logical.Expr{litNull(), litBool(false)}}); isNull || v != false {
		t.Errorf("NULL AND FALSE = (%v, null=%v), want (false, null=false)", v, isNull)
	}
	if _, isNull := evalBool(t, ev, logical.And{Terms: []logical.Expr{litNull(), litBool(true)}}); !isNull {
		t.Errorf("NULL AND TRUE should be NULL")
	}
	if v, isNull := evalBool(t, ev, logical.And{Terms: []logical.Expr{litBool(true), litBool(true)}}); isNull || !v {
		t.Errorf("TRUE AND TRUE = (%v, null=%v), want (true, null=false)", v, isNull)
	}
}

// TestThreeValuedOr covers SQL's three-valued OR table: TRUE dominates
// even alongside NULL.
func TestThreeValuedOr(t *testing.T) {
	ev := New(nil)

	if v, isNull := evalBool(t, ev, logical.Or{Terms: []logical.Expr{litNull(), litBool(true)}}); isNull || !v {
		t.Errorf("NULL OR TRUE = (%v, null=%v), want (true, null=false)", v, isNull)
	}
	if _, isNull := evalBool(t, ev, logical.Or{Terms: []logical.Expr{litNull(), litBool(false)}}); !isNull {
		t.Errorf("NULL OR FALSE should be NULL")
	}
	if v, isNull := evalBool(t, ev, logical.Or{Terms: []logical.Expr{litBool(false), litBool(false)}}); isNull || v {
		t.Errorf("FALSE OR FALSE = (%v, null=%v), want (false, null=false)", v, isNull)
	}
}

// TestNotPropagatesNull confirms NOT NULL is NULL, and NOT otherwise
// inverts normally.
func TestNotPropagatesNull(t *testing.T) {
	ev := New(nil)

	if _, isNull := evalBool(t, ev, logical.Not{Term: litNull()}); !isNull {
		t.Errorf("NOT NULL should be NULL")
	}
	if v, isNull := evalBool(t, ev, logical.Not{Term: litBool(false)}); isNull || !v {
		t.Errorf("NOT FALSE = (%v, null=%v), want (true, null=false)", v, isNull)
	}
}
