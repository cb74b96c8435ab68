// Package resolve implements the Module & Scope Builder (C4): builds
// per-module scopes from loaded units, resolves show/export clauses,
// and detects export cycles. Grounded in the teacher's internal/iface
// (export-table shape) and internal/link (environment resolution),
// generalized to spec.md §3/§4.4's ModuleScope/ResolutionEntry model.
package resolve

import "github.com/embedlang/emlangc/internal/lang"

// EntryKind tags a ResolutionEntry's variant.
type EntryKind int

const (
	EntryEmpty EntryKind = iota
	EntryNodes
	EntryPrefix
	EntryAmbiguous
)

// ResolutionEntry is the tagged union from spec.md §3: a symbol names
// either a list of declarations (usually one, several for overloaded
// methods), a prefix scope, several conflicting bindings, or nothing.
type ResolutionEntry struct {
	Kind   EntryKind
	Nodes  []lang.Declaration
	Prefix *PrefixScope
}

func (e *ResolutionEntry) IsClass() bool {
	if e.Kind != EntryNodes || len(e.Nodes) != 1 {
		return false
	}
	_, ok := e.Nodes[0].(*lang.ClassDecl)
	return ok
}

func (e *ResolutionEntry) IsSingle() bool { return e.Kind == EntryNodes && len(e.Nodes) == 1 }
func (e *ResolutionEntry) IsPrefix() bool { return e.Kind == EntryPrefix }

// PrefixScope is the namespace introduced by `import ... as prefix`.
type PrefixScope struct {
	Name   string
	Module *Module
}

// ModuleScope is the flat top-level scope built during C4: module
// symbol -> ResolutionEntry, plus the prefix table and the bucket of
// modules imported without a prefix (consulted for unqualified lookups
// the local scope can't satisfy).
type ModuleScope struct {
	Symbols            map[string]*ResolutionEntry
	Prefixes           map[string]*PrefixScope
	NonPrefixedImports []*Module
}

func newModuleScope() *ModuleScope {
	return &ModuleScope{Symbols: map[string]*ResolutionEntry{}, Prefixes: map[string]*PrefixScope{}}
}

// Lookup resolves a bare identifier against this module's own scope
// only (declarations, shows, prefixes) — it does not recurse into
// non-prefixed imports; that fallback is the caller's responsibility,
// matching spec.md §3's ModuleScope/LocalScope split.
func (s *ModuleScope) Lookup(name string) (*ResolutionEntry, bool) {
	e, ok := s.Symbols[name]
	return e, ok
}

func (s *ModuleScope) bindNodes(name string, decl lang.Declaration) {
	s.Symbols[name] = &ResolutionEntry{Kind: EntryNodes, Nodes: []lang.Declaration{decl}}
}

func (s *ModuleScope) bindPrefix(name string, ps *PrefixScope) {
	s.Symbols[name] = &ResolutionEntry{Kind: EntryPrefix, Prefix: ps}
}
