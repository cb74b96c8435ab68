// Package classir implements the Class Skeleton & Inheritance builder
// (C5): resolving super/implements references, detecting inheritance
// cycles, synthesizing field/method skeletons, and flattening
// interface sets. Grounded in the teacher's internal/elaborate (method
// skeleton shapes) and internal/link's module linker (root-class
// seeding), generalized to spec.md §4.5's Class/Field/Method IR.
package classir

import (
	"github.com/embedlang/emlangc/internal/lang"
	"github.com/embedlang/emlangc/internal/resolve"
)

// MethodVariant enumerates the Method IR variants spec.md §3 names
// that originate in C5 (the rest — Reference/Call/etc. — are built by
// C6 inside method bodies).
type MethodVariant int

const (
	MethodConstructor MethodVariant = iota
	MethodFactory
	MethodStatic
	MethodInstance
	MethodMonitorMethod
	MethodGlobal
	MethodFieldStub
	MethodAdapterStub
	MethodIsInterfaceStub
)

// Method is a skeleton method record; C6 fills in its resolved body.
type Method struct {
	Name        string
	Variant     MethodVariant
	Decl        *lang.MethodDecl // nil for synthesized members
	Owner       *Class
	IsAbstract  bool
	IsGetter    bool // true for a FieldStub getter, false for its setter
	Field       *Field
	Synthesized bool
}

// Field is an instance field, with its dense index assigned once the
// inheritance order is known (spec.md §3 invariant: "Field indices are
// dense within [super.total_field_count, self.total_field_count)").
type Field struct {
	Name    string
	Type    string
	IsFinal bool
	Index   int
	Getter  *Method
	Setter  *Method
	Decl    *lang.FieldDecl // carries the source default initializer, if any
}

// Class is the C5 skeleton for a class/interface/monitor declaration,
// or one of the two synthesized roots.
type Class struct {
	Name       string
	Kind       lang.ClassKind
	IsAbstract bool
	Module     *resolve.Module // nil for synthesized roots
	Decl       *lang.ClassDecl // nil for synthesized roots
	Super      *Class          // nil only for the two roots
	Interfaces []*Class        // flattened transitive closure
	Fields     []*Field
	Methods    []*Method

	declaredSuperName       string
	declaredImplementsNames []string
	totalFieldCount         int
	isRoot                  bool
}

// TotalFieldCount is the field-index upper bound: super's count plus
// this class's own field count.
func (c *Class) TotalFieldCount() int { return c.totalFieldCount }

// IsSortedByInheritance reports whether classes is ordered so every
// class appears after its super (spec.md §3's `_sorted_by_inheritance`
// predicate).
func IsSortedByInheritance(classes []*Class) bool {
	seen := map[*Class]bool{}
	for _, c := range classes {
		if c.Super != nil && !c.Super.isRoot && !seen[c.Super] {
			return false
		}
		seen[c] = true
	}
	return true
}

// RootObjectName, RootInterfaceName, and RootMonitorName are the
// synthesized default super/implements targets spec.md §4.5 names.
const (
	RootObjectName    = "Object"
	RootInterfaceName = "Interface_"
	RootMonitorName   = "__Monitor__"
)
