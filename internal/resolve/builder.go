package resolve

import (
	"fmt"

	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/lang"
	"github.com/embedlang/emlangc/internal/loader"
)

// Program is the set of built modules, indexed in loader order (so
// Program.Modules[set.EntryID] is the entry module).
type Program struct {
	Modules []*Module
	byUnit  map[*loader.Unit]*Module
}

func (p *Program) ModuleOf(u *loader.Unit) *Module { return p.byUnit[u] }

// BuildModules runs C4 to completion: per-module scopes with show
// resolution (pass one), followed by export resolution with cycle
// detection (pass two), per spec.md §4.4's "ordering guarantee".
func BuildModules(set *loader.Set) (*Program, []*errcode.Report) {
	prog := &Program{byUnit: map[*loader.Unit]*Module{}}
	var diags []*errcode.Report

	astToModule := map[*lang.Unit]*Module{}
	for _, u := range set.Units {
		m := &Module{Unit: u, AST: u.AST, Scope: newModuleScope(), ExportedIdentifiers: map[string]bool{}}
		for _, decl := range u.AST.Declarations {
			switch v := decl.(type) {
			case *lang.ClassDecl:
				m.Classes = append(m.Classes, v)
			case *lang.MethodDecl:
				m.Globals = append(m.Globals, v)
			}
			if name := declName(decl); name != "" {
				m.Scope.bindNodes(name, decl)
			}
		}
		for _, ex := range u.AST.Exports {
			if ex.ExportAll {
				m.ExportAll = true
			} else {
				m.ExportedIdentifiers[ex.Name] = true
			}
		}
		prog.Modules = append(prog.Modules, m)
		prog.byUnit[u] = m
		astToModule[u.AST] = m
	}

	// Pass one: bind imports (prefixed -> PrefixScope, unprefixed ->
	// non-prefixed bucket) and explicit `show` identifiers, with clash
	// detection against declarations/other-shows/prefixes.
	showSource := map[*Module]map[string]*Module{}
	for _, m := range prog.Modules {
		showSource[m] = map[string]*Module{}
		for _, imp := range m.AST.Imports {
			if imp.ResolvedUnit == nil {
				continue
			}
			target, ok := astToModule[imp.ResolvedUnit]
			if !ok {
				continue // error unit, already diagnosed by the loader
			}
			m.ImportedModules = append(m.ImportedModules, target)

			if imp.Prefix != "" {
				diags = append(diags, bindPrefix(m, imp.Prefix, target)...)
				continue
			}
			m.Scope.NonPrefixedImports = append(m.Scope.NonPrefixedImports, target)

			if imp.ShowAll {
				continue // resolved lazily through the non-prefixed bucket
			}
			for _, name := range imp.ShowIdentifiers {
				if d := bindShow(m, name, target, showSource[m]); d != nil {
					diags = append(diags, d)
				}
			}
		}
	}

	// Pass two: export resolution, DFS with an in-progress stack to
	// detect cycles (spec.md §4.4 "Export resolution").
	state := map[*Module]int{} // 0=unvisited, 1=in-progress, 2=done
	var stack []*Module
	var resolve func(m *Module) []*errcode.Report
	resolve = func(m *Module) []*errcode.Report {
		if state[m] == 2 {
			return nil
		}
		if state[m] == 1 {
			return reportExportCycle(stack, m)
		}
		state[m] = 1
		stack = append(stack, m)

		m.ExportedIdentifiersMap = map[string]lang.Declaration{}
		var out []*errcode.Report
		names := m.ExportedIdentifiers
		if m.ExportAll {
			for name, entry := range m.Scope.Symbols {
				if entry.IsSingle() {
					m.ExportedIdentifiersMap[name] = entry.Nodes[0]
				}
			}
		}
		for name := range names {
			decl, ok, sub := resolveExportName(m, name, resolve)
			out = append(out, sub...)
			if ok {
				m.ExportedIdentifiersMap[name] = decl
			}
		}

		stack = stack[:len(stack)-1]
		state[m] = 2
		return out
	}
	for _, m := range prog.Modules {
		diags = append(diags, resolve(m)...)
	}

	return prog, diags
}

// bindPrefix registers target under name as a PrefixScope, erroring if
// the name clashes with an existing declaration or show binding.
func bindPrefix(m *Module, name string, target *Module) []*errcode.Report {
	if existing, ok := m.Scope.Lookup(name); ok {
		if existing.IsPrefix() {
			return nil // importing the same module twice under the same prefix
		}
		return []*errcode.Report{errcode.New(errcode.MOD003, "error", fmt.Sprintf("prefix %q clashes with an existing binding", name))}
	}
	m.Scope.bindPrefix(name, &PrefixScope{Name: name, Module: target})
	return nil
}

// bindShow binds `show X` at module level, per spec.md §4.4's clash
// rules: error against a declaration, error against another show from
// a *different* source module, error against an existing prefix.
func bindShow(m *Module, name string, source *Module, sources map[string]*Module) *errcode.Report {
	if existing, ok := m.Scope.Lookup(name); ok {
		if existing.IsPrefix() {
			return errcode.New(errcode.MOD003, "error", fmt.Sprintf("show %q clashes with an import prefix", name))
		}
		if prior, wasShow := sources[name]; wasShow {
			if prior != source {
				return errcode.New(errcode.MOD002, "error", fmt.Sprintf("show %q is ambiguous between two imported modules", name))
			}
			return nil
		}
		return errcode.New(errcode.MOD001, "error", fmt.Sprintf("show %q clashes with a declaration", name))
	}
	decl, ok := lookupExported(source, name)
	if !ok {
		return nil // unresolved identifier reported later, in internal/classir/internal/methodres
	}
	m.Scope.bindNodes(name, decl)
	sources[name] = source
	return nil
}

// lookupExported resolves name against a module's own declarations
// (export resolution for the imported module may not have run yet, so
// this only consults local declarations — matching spec.md §4.4's
// resolution order for a `show`, which binds straight from the source
// module's top-level scope).
func lookupExported(m *Module, name string) (lang.Declaration, bool) {
	entry, ok := m.Scope.Lookup(name)
	if !ok || !entry.IsSingle() {
		return nil, false
	}
	return entry.Nodes[0], true
}

// resolveExportName implements spec.md §4.4's three-step export
// resolution order: local declarations, explicit show, then
// transitively through imported modules' own exports.
func resolveExportName(m *Module, name string, recurse func(*Module) []*errcode.Report) (lang.Declaration, bool, []*errcode.Report) {
	if entry, ok := m.Scope.Lookup(name); ok && entry.IsSingle() {
		return entry.Nodes[0], true, nil
	}
	var diags []*errcode.Report
	for _, imp := range m.ImportedModules {
		diags = append(diags, recurse(imp)...)
		if decl, ok := imp.ExportedIdentifiersMap[name]; ok {
			return decl, true, diags
		}
	}
	return nil, false, diags
}

func reportExportCycle(stack []*Module, closing *Module) []*errcode.Report {
	var names []string
	start := 0
	for i, m := range stack {
		if m == closing {
			start = i
			break
		}
	}
	for _, m := range stack[start:] {
		names = append(names, m.AST.SourcePath)
	}
	names = append(names, closing.AST.SourcePath)

	var out []*errcode.Report
	for _, m := range stack[start:] {
		rep := errcode.New(errcode.MOD005, "error", fmt.Sprintf("export cycle: %v", names))
		rep.Path = m.AST.SourcePath
		out = append(out, rep)
	}
	return out
}
