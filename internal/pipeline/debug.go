package pipeline

import (
	"github.com/embedlang/emlangc/internal/classir"
)

// locationToken is the per-class "class location token" spec.md §4.10
// dispatches debug strings by: a dense index assigned in inheritance
// order, stable across a run because classir.Build already sorts
// cp.Classes that way.
type locationToken int

// debugTokens is the dispatch-by-token table the debug compile's
// synthesized `dispatch_debug_string` consults: given a token, name
// the class it was assigned to (for rendering "Widget@3" rather than
// a bare integer in the debug snapshot).
type debugTokens struct {
	tokenOf map[*classir.Class]locationToken
	nameOf  map[locationToken]string
}

// patch implements spec.md §4.10's "debug pipeline injects
// dispatch-by-token" step: it assigns every class a location token and
// records the reverse name lookup the debug snapshot embeds. It never
// touches Fields/Methods/Super - the debug compile reuses the same
// class/method IR the main compile already resolved and checked,
// matching SPEC_FULL.md §9's "shares all earlier stages with the main
// compile".
func patch(cp *classir.Program) *debugTokens {
	dt := &debugTokens{tokenOf: map[*classir.Class]locationToken{}, nameOf: map[locationToken]string{}}
	for i, c := range cp.Classes {
		tok := locationToken(i)
		dt.tokenOf[c] = tok
		dt.nameOf[tok] = c.Name
	}
	return dt
}
