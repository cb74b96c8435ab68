// Package conform implements Abstract/Interface Conformance (C7):
// verifying that every non-abstract class implements every selector
// required by its supers and interfaces. Grounded in the teacher's
// internal/iface builtin-freeze conformance pass, generalized to
// spec.md §4.5's abstract_methods table and
// ResolutionShape.is_fully_shadowed_by rule.
package conform

import (
	"fmt"

	"github.com/embedlang/emlangc/internal/classir"
	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/lang"
	"github.com/embedlang/emlangc/internal/shape"
)

// Selector identifies an overload family by name; every concrete
// overload sharing a name is grouped under the same selector, since
// a class may define several overloads (differing arity/blocks) that
// jointly satisfy one abstract selector.
type Selector = string

// AbstractMethods maps each class to the selectors it still leaves
// unimplemented after accounting for its own and inherited overrides
// — spec.md §4.5's `abstract_methods[class] = selector -> method`.
type AbstractMethods map[*classir.Class]map[Selector][]*classir.Method

// Build computes AbstractMethods for every class in p, in inheritance
// order so each class's table can be derived from its already-computed
// super table.
func Build(p *classir.Program) AbstractMethods {
	table := AbstractMethods{}
	for _, c := range p.Classes {
		table[c] = computeAbstracts(c, table)
	}
	return table
}

func computeAbstracts(c *classir.Class, table AbstractMethods) map[Selector][]*classir.Method {
	abstracts := map[Selector][]*classir.Method{}
	if c.Super != nil {
		if supTable, ok := table[c.Super]; ok {
			for sel, ms := range supTable {
				abstracts[sel] = append(abstracts[sel], ms...)
			}
		}
	}

	overridesBySelector := map[Selector][]*classir.Method{}
	for _, m := range c.Methods {
		if m.Variant != classir.MethodInstance && m.Variant != classir.MethodMonitorMethod {
			continue
		}
		overridesBySelector[m.Name] = append(overridesBySelector[m.Name], m)
		if m.IsAbstract {
			abstracts[m.Name] = append(abstracts[m.Name], m)
		}
	}

	// Any selector with a concrete override in this class is removed
	// from the inherited-abstract set only to the extent the override
	// set fully shadows it; Check reports partial shadowing instead of
	// silently dropping the selector here, so keep both sides around
	// and let Check make the shadowed/missing distinction.
	for sel := range abstracts {
		if _, hasOverride := overridesBySelector[sel]; hasOverride {
			abstracts[sel] = mergeNonAbstract(abstracts[sel], overridesBySelector[sel])
		}
	}
	return abstracts
}

func mergeNonAbstract(existing, overrides []*classir.Method) []*classir.Method {
	var out []*classir.Method
	for _, m := range existing {
		if m.IsAbstract {
			out = append(out, m)
		}
	}
	return append(out, overrides...)
}

// Finding is one unimplemented-selector report for a concrete class.
type Finding struct {
	Class            *classir.Class
	Selector         Selector
	FullyMissing     bool // true: no override at all; false: partially shadowed
	MissingCallShape *shape.CallShape
}

// Check walks every non-abstract class and, for each selector still
// surviving in its abstract_methods table, determines via
// ResolutionShape.is_fully_shadowed_by whether it is entirely missing
// or only partially covered by optional-argument overloads.
func Check(p *classir.Program, table AbstractMethods) []*errcode.Report {
	var diags []*errcode.Report
	for _, c := range p.Classes {
		if c.IsAbstract || c.Kind == lang.ClassKindInterface {
			continue
		}
		abstracts := table[c]
		overridesBySelector := map[Selector][]*classir.Method{}
		for _, m := range c.Methods {
			if (m.Variant == classir.MethodInstance || m.Variant == classir.MethodMonitorMethod) && !m.IsAbstract {
				overridesBySelector[m.Name] = append(overridesBySelector[m.Name], m)
			}
		}

		for sel, abstractMethods := range abstracts {
			if !anyAbstract(abstractMethods) {
				continue
			}
			abstractShape := methodShape(abstractMethods[0])
			var overrideShapes []shape.ResolutionShape
			for _, m := range overridesBySelector[sel] {
				overrideShapes = append(overrideShapes, methodShape(m))
			}
			shadowed, missing := shape.IsFullyShadowedBy(abstractShape, overrideShapes)
			if shadowed {
				continue
			}
			fullyMissing := len(overrideShapes) == 0
			msg := fmt.Sprintf("class %q does not implement %q", c.Name, sel)
			if !fullyMissing {
				msg = fmt.Sprintf("class %q only partially implements %q", c.Name, sel)
			}
			diags = append(diags, errcode.New(errcode.CLS003, "error", msg))
			_ = Finding{Class: c, Selector: sel, FullyMissing: fullyMissing, MissingCallShape: missing}
		}
	}
	return diags
}

func anyAbstract(ms []*classir.Method) bool {
	for _, m := range ms {
		if m.IsAbstract {
			return true
		}
	}
	return false
}

func methodShape(m *classir.Method) shape.ResolutionShape {
	if m.Decl == nil {
		return shape.ResolutionShape{}
	}
	return shape.FromParams(m.Decl.Params, true)
}
