package resolve

import (
	"github.com/embedlang/emlangc/internal/lang"
	"github.com/embedlang/emlangc/internal/loader"
)

// Module is the per-unit product of C4: the parsed Unit plus the
// scope and (once export resolution runs) the exported-identifiers
// map spec.md §3 calls out.
type Module struct {
	Unit                   *loader.Unit
	AST                    *lang.Unit
	Classes                []*lang.ClassDecl
	Globals                []*lang.MethodDecl
	ImportedModules        []*Module // in import order, including prefixed ones
	ExportAll              bool
	ExportedIdentifiers    map[string]bool // explicit `export X` names
	Scope                  *ModuleScope
	ExportedIdentifiersMap map[string]lang.Declaration // filled by ResolveExports
}

// ResolveIdent resolves a bare identifier the way an expression or a
// super/implements reference would: first this module's own scope
// (declarations, explicit shows, prefixes), then — per spec.md §4.4's
// "non-prefixed imported" bucket — each unprefixed import's own scope,
// in import order. The first hit wins; no attempt is made to detect
// ambiguity across non-prefixed imports, matching the teacher's
// single-pass iface lookup.
func (m *Module) ResolveIdent(name string) (*ResolutionEntry, bool) {
	if e, ok := m.Scope.Lookup(name); ok {
		return e, true
	}
	for _, imp := range m.Scope.NonPrefixedImports {
		if e, ok := imp.Scope.Lookup(name); ok && e.IsSingle() {
			return e, true
		}
	}
	return nil, false
}

func declName(d lang.Declaration) string {
	switch v := d.(type) {
	case *lang.ClassDecl:
		return v.Name
	case *lang.MethodDecl:
		return v.Name
	default:
		return ""
	}
}
