// Package flowcheck implements the Definite-Assignment Analyzer (C8):
// a forward data-flow pass over a lowered method body checking that
// every non-defaulted field is assigned before a constructor's
// (implicit or explicit) super call, and that every method with a
// declared non-`none` return type returns on every path.
//
// Grounded in the original source's definite.cc: the merge rule at a
// branch join is "a variable undefined on one side but not the other
// becomes partially-defined", loops mark everything but the loop
// variable partially-defined before the body runs since it may run
// zero or many times, and a try body's does_return survives into the
// merged state while the finally handler is evaluated from the
// pre-try state.
//
// This Go IR does not model Toit's `x := ?` forward-declared-without-
// value local (internal/lang's grammar always requires an initializer
// on `:=`), so the locals half of definite.cc's State never actually
// observes an Undefined local in practice here; the State type still
// carries that generality for fields, which genuinely can start
// Undefined in a constructor.
package flowcheck

import (
	"fmt"

	"github.com/embedlang/emlangc/internal/classir"
	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/ir"
	"github.com/embedlang/emlangc/internal/methodres"
)

type fieldState int

const (
	undefined fieldState = iota
	partiallyDefined
)

// state is definite.cc's State, narrowed to the field-index namespace:
// an absent entry means "fully defined".
type state struct {
	fields     map[int]fieldState
	doesReturn bool
}

func newState() state { return state{fields: map[int]fieldState{}} }

func (s state) clone() state {
	out := state{fields: make(map[int]fieldState, len(s.fields)), doesReturn: s.doesReturn}
	for k, v := range s.fields {
		out.fields[k] = v
	}
	return out
}

func (s state) defined(idx int) bool {
	_, ok := s.fields[idx]
	return !ok
}

func (s *state) markDefined(idx int) { delete(s.fields, idx) }

// markAllPartiallyDefined implements the loop-entry rule: every
// currently-undefined field becomes partially-defined since the body
// might not execute at all.
func (s *state) markAllPartiallyDefined() {
	for k := range s.fields {
		s.fields[k] = partiallyDefined
	}
}

// merge implements definite.cc's State::merge: a field undefined in
// this state but absent (defined) in other becomes partially-defined,
// and vice versa; does_return is the conjunction of both branches.
func merge(a, b state) state {
	out := a.clone()
	for k, v := range out.fields {
		if v == undefined {
			if _, ok := b.fields[k]; !ok {
				out.fields[k] = partiallyDefined
			}
		}
	}
	for k, v := range b.fields {
		if v == partiallyDefined {
			out.fields[k] = partiallyDefined
		} else if _, ok := out.fields[k]; !ok {
			out.fields[k] = partiallyDefined
		}
	}
	out.doesReturn = a.doesReturn && b.doesReturn
	return out
}

// Check runs C8 over every constructor (field definite-assignment) and
// every method/global body (return-on-all-paths), returning the
// resulting diagnostics.
func Check(cp *classir.Program, prog *methodres.Program) []*errcode.Report {
	var diags []*errcode.Report
	for _, c := range cp.Classes {
		for _, m := range c.Methods {
			body, ok := prog.Bodies[m]
			if !ok || body == nil {
				continue
			}
			if m.Variant == classir.MethodConstructor {
				diags = append(diags, checkConstructor(m, body)...)
				continue
			}
			if m.Decl != nil {
				diags = append(diags, checkReturns(m.Name, m.Decl.ReturnType, body)...)
			}
		}
	}
	for decl, body := range prog.Globals {
		diags = append(diags, checkReturns(decl.Name, decl.ReturnType, body)...)
	}
	return diags
}

func checkConstructor(m *classir.Method, body *ir.Block) []*errcode.Report {
	st := newState()
	for _, f := range m.Owner.Fields {
		if f.Decl != nil && f.Decl.Default != nil {
			continue // a default initializer always defines the field
		}
		st.fields[f.Index] = undefined
	}

	var diags []*errcode.Report
	sawSuper := false
	final := walkBlock(st, body, func(atSuper state) {
		sawSuper = true
		diags = append(diags, reportUndefinedFields(m.Owner, atSuper, true)...)
	})
	if !sawSuper {
		diags = append(diags, reportUndefinedFields(m.Owner, final, false)...)
	}
	return diags
}

func reportUndefinedFields(owner *classir.Class, st state, beforeSuper bool) []*errcode.Report {
	var diags []*errcode.Report
	for _, f := range owner.Fields {
		fs, ok := st.fields[f.Index]
		if !ok {
			continue
		}
		var code, detail string
		switch fs {
		case undefined:
			code = errcode.DEF003
			if beforeSuper {
				detail = fmt.Sprintf("field %q is not initialized before the super constructor call", f.Name)
			} else {
				detail = fmt.Sprintf("field %q is not initialized in constructor", f.Name)
			}
		case partiallyDefined:
			code = errcode.DEF002
			detail = fmt.Sprintf("field %q is not initialized on all paths", f.Name)
		}
		diags = append(diags, errcode.New(code, "error", detail))
	}
	return diags
}

// checkReturns enforces spec.md §4.8's "methods whose declared return
// is not none must return on every path" rule.
func checkReturns(name, returnType string, body *ir.Block) []*errcode.Report {
	if returnType == "none" {
		return nil
	}
	st := newState()
	final := walkBlock(st, body, nil)
	if final.doesReturn {
		return nil
	}
	return []*errcode.Report{errcode.New(errcode.DEF004, "error",
		fmt.Sprintf("%q does not return a value on all paths", name))}
}

// walkBlock threads state through a statement list, invoking onSuper
// (if non-nil) with the state observed exactly at an explicit `super`
// constructor-chain call.
func walkBlock(st state, b *ir.Block, onSuper func(state)) state {
	if b == nil {
		return st
	}
	for _, e := range b.Body {
		st = walkExpr(st, e, onSuper)
	}
	return st
}

func walkExpr(st state, e ir.Expr, onSuper func(state)) state {
	switch n := e.(type) {
	case *ir.FieldStore:
		if _, ok := n.Receiver.(*ir.ReferenceLocal); ok {
			st.markDefined(n.Index)
		}
		return st
	case *ir.CallStatic:
		if _, ok := n.Receiver.(*ir.SuperRef); ok && onSuper != nil {
			onSuper(st.clone())
		}
		return st
	case *ir.Sequence:
		for _, sub := range n.Exprs {
			st = walkExpr(st, sub, onSuper)
		}
		return st
	case *ir.Block:
		return walkBlock(st, n, onSuper)
	case *ir.If:
		thenSt := walkBlock(st.clone(), n.Then, onSuper)
		elseSt := st.clone()
		if n.Else != nil {
			elseSt = walkBlock(elseSt, n.Else, onSuper)
		}
		return merge(thenSt, elseSt)
	case *ir.While:
		pre := st.clone()
		pre.markAllPartiallyDefined()
		bodySt := walkBlock(pre, n.Body, onSuper)
		// The loop may run zero or many times: the observable exit
		// state is the merge of "never entered" (st) and "ran at least
		// once" (bodySt), except a `while true` with no break never
		// falls through and is treated as non-terminating.
		if isAlwaysTrue(n.Cond) {
			bodySt.doesReturn = true
			return bodySt
		}
		return merge(st, bodySt)
	case *ir.TryFinally:
		bodySt := walkBlock(st.clone(), n.Body, onSuper)
		handlerSt := walkBlock(st.clone(), n.Handler, onSuper)
		handlerSt.doesReturn = bodySt.doesReturn
		return handlerSt
	case *ir.Return:
		st.doesReturn = true
		return st
	case *ir.LogicalBinary:
		st = walkExpr(st, n.Left, onSuper)
		return walkExpr(st, n.Right, onSuper)
	case *ir.Not:
		return walkExpr(st, n.Operand, onSuper)
	case *ir.Typecheck:
		return walkExpr(st, n.Operand, onSuper)
	default:
		return st
	}
}

func isAlwaysTrue(cond ir.Expr) bool {
	b, ok := cond.(*ir.BoolLit)
	return ok && b.Value
}
