// Package ir defines the resolved intermediate representation that
// the Method Resolver (C6) rewrites method bodies into, per spec.md
// §3's "IR" sum type. Unlike the teacher's ANF Core IR
// (internal/ir/core_ref.go, kept alongside for reference), this tree
// is not purely functional: it mirrors the source language's
// statement/expression split and its Call/Assignment/Reference
// variants are resolved against a concrete target rather than left as
// free variables, since C6's job is exactly that resolution.
package ir

import "github.com/embedlang/emlangc/internal/lang"

// Expr is the common interface for every resolved IR expression node.
type Expr interface {
	Span() lang.Range
	irExpr()
}

type Node struct{ R lang.Range }

func (n Node) Span() lang.Range { return n.R }

// ---- Literals and atoms ----------------------------------------------

type IntLit struct {
	Node
	Value int64
}

func (*IntLit) irExpr() {}

type FloatLit struct {
	Node
	Value float64
}

func (*FloatLit) irExpr() {}

type BoolLit struct {
	Node
	Value bool
}

func (*BoolLit) irExpr() {}

type StringLit struct {
	Node
	Value string
}

func (*StringLit) irExpr() {}

type NullLit struct{ Node }

func (*NullLit) irExpr() {}

// Local is a read of a resolved local variable, identified by the
// slot index the enclosing method assigns it during lowering.
type Local struct {
	Node
	Name string
	Slot int
}

func (*Local) irExpr() {}

// Parameter is a read of a resolved formal parameter.
type Parameter struct {
	Node
	Name  string
	Index int
}

func (*Parameter) irExpr() {}

// ---- Control flow ------------------------------------------------------

type Block struct {
	Node
	Body []Expr
}

func (*Block) irExpr() {}

// Sequence is two or more expressions evaluated for effect, with the
// value of the last one — the Core-IR "Let"-chain flattened into a
// single node since this IR is not ANF.
type Sequence struct {
	Node
	Exprs []Expr
}

func (*Sequence) irExpr() {}

type If struct {
	Node
	Cond       Expr
	Then, Else *Block
}

func (*If) irExpr() {}

type While struct {
	Node
	Cond Expr
	Body *Block
	// LoopVarEffectivelyFinal records spec.md §4.6's loop-variable
	// finality flag: true when the induction variable named by
	// LoopVar is never reassigned outside the header.
	LoopVar                 string
	LoopVarEffectivelyFinal bool
}

func (*While) irExpr() {}

type TryFinally struct {
	Node
	Body    *Block
	Handler *Block
}

func (*TryFinally) irExpr() {}

type LogicalBinary struct {
	Node
	Op          string // "and" | "or"
	Left, Right Expr
}

func (*LogicalBinary) irExpr() {}

type Not struct {
	Node
	Operand Expr
}

func (*Not) irExpr() {}

type Return struct {
	Node
	Value Expr // nil for bare `return`
}

func (*Return) irExpr() {}

type LoopBranch struct {
	Node
	IsBreak bool
	Label   string
}

func (*LoopBranch) irExpr() {}

// Code wraps a block passed as a first-class value (e.g. the
// rewritten `assert` body, spec.md §4.6), as distinct from a Lambda
// which closes over its environment.
type Code struct {
	Node
	Body *Block
}

func (*Code) irExpr() {}

// Lambda is a block literal with parameters, resolved to capture the
// free variables found during lowering.
type Lambda struct {
	Node
	Params  []lang.Param
	Body    *Block
	Capture []string
}

func (*Lambda) irExpr() {}

// ---- Field / member access ---------------------------------------------

type FieldLoad struct {
	Node
	Receiver Expr
	Field    string
	Index    int
}

func (*FieldLoad) irExpr() {}

type FieldStore struct {
	Node
	Receiver Expr
	Field    string
	Index    int
	Value    Expr
}

func (*FieldStore) irExpr() {}

// Dot is an as-yet-unresolved member access retained when the
// resolver cannot determine a concrete target (e.g. dynamic dispatch
// through `any`); it is resolved to a CallVirtual at the call site
// instead when it appears as a call target.
type Dot struct {
	Node
	Receiver Expr
	Name     string
}

func (*Dot) irExpr() {}

// LspSelectionDot marks the Dot node flagged by the parser as the LSP
// selection point (spec.md §4.7); the dispatcher intercepts it instead
// of letting the resolver treat it as an ordinary member access.
type LspSelectionDot struct {
	Node
	Receiver Expr
	Name     string
}

func (*LspSelectionDot) irExpr() {}

type SuperRef struct{ Node }

func (*SuperRef) irExpr() {}

// ---- References ---------------------------------------------------------

type ReferenceLocal struct {
	Node
	Slot int
}

func (*ReferenceLocal) irExpr() {}

type ReferenceMethod struct {
	Node
	Selector string
}

func (*ReferenceMethod) irExpr() {}

type ReferenceGlobal struct {
	Node
	GlobalID int
}

func (*ReferenceGlobal) irExpr() {}

type ReferenceBlock struct {
	Node
	Slot int
}

func (*ReferenceBlock) irExpr() {}

type ReferenceClass struct {
	Node
	ClassName string
}

func (*ReferenceClass) irExpr() {}

// ---- Calls ----------------------------------------------------------------

// CallStatic is a statically-bound call: a top-level global, a
// factory/static method, or a resolved `super` call (with the
// receiver prepended as the first argument per spec.md §4.6).
type CallStatic struct {
	Node
	Selector string
	Receiver Expr // non-nil only for rewritten super calls
	Args     []Expr
}

func (*CallStatic) irExpr() {}

// CallVirtual is a dynamically dispatched instance-method call.
type CallVirtual struct {
	Node
	Receiver Expr
	Selector string
	Args     []Expr
}

func (*CallVirtual) irExpr() {}

// CallConstructor invokes a class's constructor/factory candidate
// chosen by ResolutionShape.accepts.
type CallConstructor struct {
	Node
	ClassName string
	Selector  string
	Args      []Expr
}

func (*CallConstructor) irExpr() {}

// CallBlock invokes a block/lambda value.
type CallBlock struct {
	Node
	Target Expr
	Args   []Expr
}

func (*CallBlock) irExpr() {}

// CallBuiltin invokes a primitive the resolver recognizes directly
// (e.g. rewritten `assert` → `_assert`, string interpolation helpers).
type CallBuiltin struct {
	Node
	Name string
	Args []Expr
}

func (*CallBuiltin) irExpr() {}

// ---- Assignment -------------------------------------------------------------

type AssignmentLocal struct {
	Node
	Slot  int
	Value Expr
}

func (*AssignmentLocal) irExpr() {}

type AssignmentGlobal struct {
	Node
	GlobalID int
	Value    Expr
}

func (*AssignmentGlobal) irExpr() {}

// AssignmentDefine introduces a new local (`:=`), returning the slot
// the lowering assigned it.
type AssignmentDefine struct {
	Node
	Name  string
	Slot  int
	Value Expr
}

func (*AssignmentDefine) irExpr() {}

// ---- Misc -----------------------------------------------------------------

type Typecheck struct {
	Node
	Operand Expr
	Type    string
	IsCast  bool
}

func (*Typecheck) irExpr() {}

// PrimitiveInvocation calls directly into a named runtime primitive
// bypassing ordinary method dispatch, e.g. field accessors synthesized
// for FieldStub methods.
type PrimitiveInvocation struct {
	Node
	Module string
	Name   string
	Args   []Expr
}

func (*PrimitiveInvocation) irExpr() {}

// Error is a resolution-failure placeholder: lowering continues past
// the failing subexpression instead of aborting the whole method.
type Error struct {
	Node
	Message  string
	Children []Expr
}

func (*Error) irExpr() {}

type Nop struct{ Node }

func (*Nop) irExpr() {}
