package classir

import (
	"fmt"

	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/graph"
	"github.com/embedlang/emlangc/internal/lang"
	"github.com/embedlang/emlangc/internal/resolve"
)

// Program is the full set of classes built from a resolve.Program,
// including the two synthesized roots.
type Program struct {
	Classes    []*Class // sorted by inheritance after Build
	Object     *Class
	InterfaceR *Class
	Monitor    *Class
	byClass    map[*lang.ClassDecl]*Class
}

func (p *Program) ClassOf(decl *lang.ClassDecl) *Class { return p.byClass[decl] }

func newRoot(name string, kind lang.ClassKind) *Class {
	return &Class{Name: name, Kind: kind, isRoot: true}
}

// Build runs C5 to completion over every class in every module of
// rp: super/implements resolution with defaults, cycle detection and
// snapping, skeleton member generation, and interface flattening.
func Build(rp *resolve.Program) (*Program, []*errcode.Report) {
	p := &Program{
		Object:     newRoot(RootObjectName, lang.ClassKindClass),
		InterfaceR: newRoot(RootInterfaceName, lang.ClassKindInterface),
		Monitor:    newRoot(RootMonitorName, lang.ClassKindMonitor),
		byClass:    map[*lang.ClassDecl]*Class{},
	}
	var diags []*errcode.Report

	// Phase 1: one Class skeleton per declaration, recording the
	// declared (unresolved) super/implements names.
	moduleOf := map[*Class]*resolve.Module{}
	for _, m := range rp.Modules {
		for _, decl := range m.Classes {
			c := &Class{
				Name: decl.Name, Kind: decl.Kind, IsAbstract: decl.IsAbstract,
				Module: m, Decl: decl, declaredSuperName: decl.Super, declaredImplementsNames: decl.Implements,
			}
			p.Classes = append(p.Classes, c)
			p.byClass[decl] = c
			moduleOf[c] = m
		}
	}

	// Phase 2: resolve super/implements to *Class, applying defaults.
	lookup := func(m *resolve.Module, name string) *Class {
		switch name {
		case RootObjectName:
			return p.Object
		case RootInterfaceName:
			return p.InterfaceR
		case RootMonitorName:
			return p.Monitor
		}
		if entry, ok := m.ResolveIdent(name); ok && entry.IsSingle() {
			if cd, ok := entry.Nodes[0].(*lang.ClassDecl); ok {
				return p.byClass[cd]
			}
		}
		return nil
	}

	for _, c := range p.Classes {
		m := moduleOf[c]
		switch c.Kind {
		case lang.ClassKindMonitor:
			if c.declaredSuperName != "" {
				diags = append(diags, errcode.New(errcode.CLS002, "error", fmt.Sprintf("monitor %q declares an explicit super", c.Name)))
			}
			c.Super = p.Monitor
		case lang.ClassKindInterface:
			if c.declaredSuperName == "" {
				c.Super = p.InterfaceR
			} else if sup := lookup(m, c.declaredSuperName); sup != nil {
				c.Super = sup
			} else {
				diags = append(diags, unresolvedSuper(c))
				c.Super = p.InterfaceR
			}
		default:
			if c.declaredSuperName == "" {
				c.Super = p.Object
			} else if sup := lookup(m, c.declaredSuperName); sup != nil {
				c.Super = sup
			} else {
				diags = append(diags, unresolvedSuper(c))
				c.Super = p.Object
			}
		}

		for _, name := range c.declaredImplementsNames {
			if iface := lookup(m, name); iface != nil {
				c.Interfaces = append(c.Interfaces, iface)
			} else {
				diags = append(diags, errcode.New(errcode.CLS003, "error", fmt.Sprintf("unresolved interface %q on class %q", name, c.Name)))
			}
		}
	}

	// Phase 3: inheritance-cycle detection via DFS; on cycle, snap
	// every participant back to its default super and clear interfaces.
	diags = append(diags, detectAndSnapCycles(p)...)

	// Phase 4: skeleton members (field stubs, method variants, default
	// constructor), field-index assignment, and interface flattening.
	for _, c := range p.Classes {
		buildSkeleton(c)
	}
	assignFieldIndices(p)
	for _, c := range p.Classes {
		c.Interfaces = flattenInterfaces(c)
	}

	p.Classes = sortClasses(p)
	return p, diags
}

func unresolvedSuper(c *Class) *errcode.Report {
	return errcode.New(errcode.CLS003, "error", fmt.Sprintf("unresolved super %q on class %q", c.declaredSuperName, c.Name))
}

// detectAndSnapCycles builds a graph over declared (not yet
// cycle-checked) super edges among non-root classes and snaps every
// cycle participant's super to its kind-appropriate default.
func detectAndSnapCycles(p *Program) []*errcode.Report {
	g := graph.New()
	byName := map[string]*Class{}
	for _, c := range p.Classes {
		g.AddNode(c.Name)
		byName[c.Name] = c
	}
	for _, c := range p.Classes {
		if c.Super != nil && !c.Super.isRoot {
			g.AddEdge(c.Name, c.Super.Name)
		}
	}

	var diags []*errcode.Report
	seenCycle := map[string]bool{}
	for _, cyc := range g.AllCycles() {
		var edges []string
		for _, name := range cyc.Nodes {
			if seenCycle[name] {
				continue
			}
			seenCycle[name] = true
			c := byName[name]
			switch c.Kind {
			case lang.ClassKindInterface:
				c.Super = p.InterfaceR
			case lang.ClassKindMonitor:
				c.Super = p.Monitor
			default:
				c.Super = p.Object
			}
			c.Interfaces = nil
			edges = append(edges, name)
		}
		if len(edges) == 0 {
			continue
		}
		rep := errcode.New(errcode.CLS001, "error", fmt.Sprintf("inheritance cycle: %v", cyc.Nodes))
		for _, name := range edges {
			r := *rep
			r.Path = byName[name].Name
			diags = append(diags, &r)
		}
	}
	return diags
}

// buildSkeleton synthesizes getter/setter FieldStubs, wraps each
// declared method in its Method variant, and synthesizes a default
// constructor when the class declares none and isn't an interface.
func buildSkeleton(c *Class) {
	for _, fd := range c.Decl.Fields {
		f := &Field{Name: fd.Name, Type: fd.Type, IsFinal: fd.IsFinal, Decl: fd}
		f.Getter = &Method{Name: fd.Name, Variant: MethodFieldStub, Owner: c, IsGetter: true, Field: f, Synthesized: true}
		f.Setter = &Method{Name: fd.Name, Variant: MethodFieldStub, Owner: c, IsGetter: false, Field: f, Synthesized: true}
		c.Fields = append(c.Fields, f)
		c.Methods = append(c.Methods, f.Getter, f.Setter)
	}

	hasConstructor := false
	for _, md := range c.Decl.Methods {
		variant, abstract := methodVariant(md)
		if variant == MethodConstructor {
			hasConstructor = true
		}
		c.Methods = append(c.Methods, &Method{Name: md.Name, Variant: variant, Decl: md, Owner: c, IsAbstract: abstract})
	}

	if !hasConstructor && c.Kind != lang.ClassKindInterface {
		c.Methods = append(c.Methods, &Method{Name: c.Name, Variant: MethodConstructor, Owner: c, Synthesized: true})
	}
}

func methodVariant(md *lang.MethodDecl) (MethodVariant, bool) {
	switch md.Kind {
	case lang.MethodKindConstructor:
		return MethodConstructor, false
	case lang.MethodKindFactory, lang.MethodKindStatic:
		return MethodFactory, false
	case lang.MethodKindMonitorMethod:
		return MethodMonitorMethod, md.IsAbstract
	case lang.MethodKindGlobal:
		return MethodGlobal, false
	default:
		return MethodInstance, md.IsAbstract
	}
}

// assignFieldIndices assigns dense field indices in inheritance order,
// so every class's fields occupy [super.TotalFieldCount(), c.totalFieldCount).
func assignFieldIndices(p *Program) {
	var assign func(c *Class) int
	done := map[*Class]bool{}
	assign = func(c *Class) int {
		if done[c] {
			return c.totalFieldCount
		}
		base := 0
		if c.Super != nil && !c.Super.isRoot {
			base = assign(c.Super)
		}
		for i, f := range c.Fields {
			f.Index = base + i
		}
		c.totalFieldCount = base + len(c.Fields)
		done[c] = true
		return c.totalFieldCount
	}
	for _, c := range p.Classes {
		assign(c)
	}
}

// flattenInterfaces computes the transitive closure of declared
// implements plus interfaces inherited via super.
func flattenInterfaces(c *Class) []*Class {
	seen := map[*Class]bool{}
	var out []*Class
	var add func(*Class)
	add = func(i *Class) {
		if i == nil || i.isRoot || seen[i] {
			return
		}
		seen[i] = true
		out = append(out, i)
		for _, parent := range i.Interfaces {
			add(parent)
		}
	}
	for _, i := range c.Interfaces {
		add(i)
	}
	if c.Super != nil && !c.Super.isRoot {
		for _, i := range c.Super.Interfaces {
			add(i)
		}
	}
	return out
}

// sortClasses returns classes in a DFS order of the subclass tree so
// every class appears after its super, per spec.md §3's
// `_sorted_by_inheritance` invariant.
func sortClasses(p *Program) []*Class {
	children := map[*Class][]*Class{}
	var roots []*Class
	for _, c := range p.Classes {
		if c.Super == nil || c.Super.isRoot {
			roots = append(roots, c)
		} else {
			children[c.Super] = append(children[c.Super], c)
		}
	}
	var out []*Class
	var visit func(*Class)
	visit = func(c *Class) {
		out = append(out, c)
		for _, ch := range children[c] {
			visit(ch)
		}
	}
	for _, r := range roots {
		visit(r)
	}
	return out
}
