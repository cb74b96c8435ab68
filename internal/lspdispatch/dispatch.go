// Package lspdispatch implements the C10 LSP Dispatcher (spec.md
// §4.7): a single selection handler installed before resolution that,
// when the resolver encounters the AST node flagged as the LSP
// selection point, classifies it into one of the kinds named in the
// spec and either collects completion/goto-definition candidates or
// (for completion) signals that the pipeline should terminate right
// after emitting.
//
// Grounded in original_source's lsp/selection.h /
// lsp/goto_definition.cc / lsp/completion.h: one callback per
// AST-node "kind that can be selected", looked up through a table
// rather than a type switch, so adding a new selectable kind means
// adding one table entry.
package lspdispatch

import (
	"sort"

	"github.com/embedlang/emlangc/internal/classir"
	"github.com/embedlang/emlangc/internal/ir"
	"github.com/embedlang/emlangc/internal/lang"
	"github.com/embedlang/emlangc/internal/methodres"
)

// Kind is one of the ten selectable AST-node kinds spec.md §4.7 names.
type Kind string

const (
	KindCallVirtual          Kind = "call_virtual"
	KindCallStatic           Kind = "call_static"
	KindCallPrefixed         Kind = "call_prefixed"
	KindCallClass            Kind = "call_class"
	KindType                 Kind = "type"
	KindFieldStoringParam    Kind = "field_storing_parameter"
	KindShow                 Kind = "show"
	KindReturnLabel          Kind = "return_label"
	KindToitdocRef           Kind = "toitdoc_ref"
	KindThis                 Kind = "this_"
)

// Mode selects what the dispatcher does with a classified selection:
// gather a completion list, or resolve to a single declaration.
type Mode int

const (
	ModeCompletion Mode = iota
	ModeGotoDefinition
)

// Candidate is one completion/goto-definition result: a name plus the
// declaration it resolves to (a *lang.MethodDecl, *lang.ClassDecl, or
// *lang.FieldDecl) and its source range.
type Candidate struct {
	Name  string
	Decl  any
	Range lang.Range
}

// Selection is a classified LSP selection point: the kind the
// dispatcher decided on, the textual name under the cursor (for
// filtering completions / matching a goto-definition target), and the
// range of the selected node itself.
type Selection struct {
	Kind  Kind
	Name  string
	Range lang.Range
}

// HandlerFunc answers one Selection against the resolved program,
// returning the kind-appropriate candidate list.
type HandlerFunc func(sel *Selection, cp *classir.Program) []Candidate

// Dispatcher is the installed selection handler: one HandlerFunc per
// Kind, matching original_source's per-AST-kind callback table.
type Dispatcher struct {
	handlers map[Kind]HandlerFunc
}

// NewDispatcher builds the default table: every Kind's handler
// collects candidates by scanning the resolved class program, the
// natural generalization of original_source's separate per-kind
// AST walks now that C5/C6 have already produced a flat class/method
// index to search.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[Kind]HandlerFunc{
		KindCallVirtual:       handleCallCandidates,
		KindCallStatic:        handleCallCandidates,
		KindCallPrefixed:      handleCallCandidates,
		KindCallClass:         handleClassCandidates,
		KindType:              handleClassCandidates,
		KindFieldStoringParam: handleFieldCandidates,
		KindShow:              handleCallCandidates,
		KindReturnLabel:       handleNoCandidates,
		KindToitdocRef:        handleCallCandidates,
		KindThis:              handleClassCandidates,
	}}
}

// Install overrides the handler for one Kind, letting an embedder (or
// a test) supply a narrower lookup than the default full-program scan.
func (d *Dispatcher) Install(k Kind, h HandlerFunc) { d.handlers[k] = h }

// Dispatch runs the selection through its kind's handler. For
// ModeCompletion, spec.md §4.7 says the handler "terminates the
// process after emitting" - callers check the returned earlyExit flag
// and exit(0) themselves rather than this package calling os.Exit, so
// tests can observe the decision instead of the process dying.
func (d *Dispatcher) Dispatch(sel *Selection, cp *classir.Program, mode Mode) (candidates []Candidate, earlyExit bool) {
	h, ok := d.handlers[sel.Kind]
	if !ok {
		return nil, false
	}
	candidates = h(sel, cp)
	return candidates, mode == ModeCompletion
}

func handleCallCandidates(sel *Selection, cp *classir.Program) []Candidate {
	var out []Candidate
	for _, c := range cp.Classes {
		for _, m := range c.Methods {
			if m.Decl == nil || !matchesPrefix(m.Name, sel.Name) {
				continue
			}
			out = append(out, Candidate{Name: m.Name, Decl: m.Decl, Range: m.Decl.Span()})
		}
	}
	sortCandidates(out)
	return out
}

func handleClassCandidates(sel *Selection, cp *classir.Program) []Candidate {
	var out []Candidate
	for _, c := range cp.Classes {
		if c.Decl == nil || !matchesPrefix(c.Name, sel.Name) {
			continue
		}
		out = append(out, Candidate{Name: c.Name, Decl: c.Decl, Range: c.Decl.Span()})
	}
	sortCandidates(out)
	return out
}

func handleFieldCandidates(sel *Selection, cp *classir.Program) []Candidate {
	var out []Candidate
	for _, c := range cp.Classes {
		for _, f := range c.Fields {
			if f.Decl == nil || !matchesPrefix(f.Name, sel.Name) {
				continue
			}
			out = append(out, Candidate{Name: f.Name, Decl: f.Decl, Range: f.Decl.Span()})
		}
	}
	sortCandidates(out)
	return out
}

func handleNoCandidates(sel *Selection, cp *classir.Program) []Candidate { return nil }

func matchesPrefix(name, prefix string) bool {
	if prefix == "" {
		return true
	}
	if len(name) < len(prefix) {
		return false
	}
	return name[:len(prefix)] == prefix
}

func sortCandidates(cs []Candidate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}

// FindSelection walks every resolved method/global body looking for
// the *ir.LspSelectionDot the methodres pass tagged (spec.md §4.7:
// "When the resolver encounters an AST node that was flagged as the
// LSP selection..."), classifying it into a call Kind based on the
// receiver shape: a class reference selects KindCallClass, anything
// else defaults to KindCallVirtual (the conservative default "let the
// caller refine via prefixed-import knowledge" choice - distinguishing
// call_static/call_prefixed needs the entry module's prefix/show table,
// which callers can layer on top by inspecting sel.Name themselves).
func FindSelection(prog *methodres.Program) (*Selection, bool) {
	for _, body := range prog.Bodies {
		if sel, ok := findInBlock(body); ok {
			return sel, true
		}
	}
	for _, body := range prog.Globals {
		if sel, ok := findInBlock(body); ok {
			return sel, true
		}
	}
	return nil, false
}

func findInBlock(b *ir.Block) (*Selection, bool) {
	if b == nil {
		return nil, false
	}
	for _, e := range b.Body {
		if sel, ok := findInExpr(e); ok {
			return sel, true
		}
	}
	return nil, false
}

func findInExpr(e ir.Expr) (*Selection, bool) {
	switch n := e.(type) {
	case *ir.LspSelectionDot:
		kind := KindCallVirtual
		if _, ok := n.Receiver.(*ir.ReferenceClass); ok {
			kind = KindCallClass
		}
		return &Selection{Kind: kind, Name: n.Name, Range: n.R}, true
	case *ir.Sequence:
		for _, sub := range n.Exprs {
			if sel, ok := findInExpr(sub); ok {
				return sel, true
			}
		}
	case *ir.Block:
		return findInBlock(n)
	case *ir.If:
		if sel, ok := findInBlock(n.Then); ok {
			return sel, true
		}
		return findInBlock(n.Else)
	case *ir.While:
		return findInBlock(n.Body)
	case *ir.TryFinally:
		if sel, ok := findInBlock(n.Body); ok {
			return sel, true
		}
		return findInBlock(n.Handler)
	case *ir.Return:
		if n.Value != nil {
			return findInExpr(n.Value)
		}
	case *ir.FieldStore:
		return findInExpr(n.Value)
	case *ir.CallVirtual:
		for _, a := range n.Args {
			if sel, ok := findInExpr(a); ok {
				return sel, true
			}
		}
	case *ir.CallStatic:
		for _, a := range n.Args {
			if sel, ok := findInExpr(a); ok {
				return sel, true
			}
		}
	}
	return nil, false
}
