// Package shape implements the CallShape/ResolutionShape model from
// spec.md §3: the arity/named-arg/block-position description used by
// the Method Resolver (C6) to pick an overload and by Abstract/
// Interface Conformance (C7) to decide whether an abstract selector
// survives. Grounded in the teacher's internal/elaborate candidate-
// shape matching, generalized to this language's optional/named/block
// parameter forms.
package shape

import "github.com/embedlang/emlangc/internal/lang"

// CallShape describes one call site: how many positional arguments it
// passes, which named arguments, and how many trailing block
// arguments.
type CallShape struct {
	Arity         int
	NamedArgNames []string
	BlockCount    int
}

// ResolutionShape describes one candidate (a method/constructor/
// factory signature): the acceptable positional-arity range (covering
// optional parameters), the set of parameter names available for
// named-argument calls, how many block parameters it declares, and
// whether it has an implicit `this` receiver.
type ResolutionShape struct {
	MinArity        int
	MaxArity        int
	ParamNames      []string
	BlockCount      int
	HasImplicitThis bool
}

// FromParams builds the ResolutionShape a method/constructor declares,
// per spec.md §4.6: every parameter with no DefaultValue is required;
// block-typed parameters count separately from positional arity.
func FromParams(params []lang.Param, hasImplicitThis bool) ResolutionShape {
	s := ResolutionShape{HasImplicitThis: hasImplicitThis}
	for _, p := range params {
		if p.IsBlock {
			s.BlockCount++
			continue
		}
		s.ParamNames = append(s.ParamNames, p.Name)
		s.MaxArity++
		if p.DefaultValue == nil {
			s.MinArity++
		}
	}
	return s
}

// Accepts reports whether call is a valid invocation of a candidate
// with this shape: arity within range, every named argument names a
// declared parameter, and block-argument count matches.
func (s ResolutionShape) Accepts(call CallShape) bool {
	if call.Arity < s.MinArity || call.Arity > s.MaxArity {
		return false
	}
	if call.BlockCount != s.BlockCount {
		return false
	}
	for _, name := range call.NamedArgNames {
		if !s.hasParam(name) {
			return false
		}
	}
	return true
}

func (s ResolutionShape) hasParam(name string) bool {
	for _, n := range s.ParamNames {
		if n == name {
			return true
		}
	}
	return false
}

// IsFullyShadowedBy reports whether every call shape the abstract
// selector accepts is also accepted by at least one shape in
// overrides — i.e. the abstract is completely covered by the
// overriding overload set. When not fully shadowed, it returns one
// representative uncovered shape as missing, per spec.md §4.5's
// `ResolutionShape.is_fully_shadowed_by(list, &missing_shape)`.
func IsFullyShadowedBy(abstractShape ResolutionShape, overrides []ResolutionShape) (shadowed bool, missing *CallShape) {
	for arity := abstractShape.MinArity; arity <= abstractShape.MaxArity; arity++ {
		call := CallShape{Arity: arity, BlockCount: abstractShape.BlockCount}
		covered := false
		for _, o := range overrides {
			if o.Accepts(call) {
				covered = true
				break
			}
		}
		if !covered {
			c := call
			return false, &c
		}
	}
	return true, nil
}
