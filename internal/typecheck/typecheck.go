// Package typecheck implements the Type & Deprecation Checker (C9): a
// bottom-up type propagation pass over the resolved IR plus the
// toitdoc-driven deprecation-reference check from spec.md §4.9.
//
// Heavily trimmed from the teacher's internal/types (a full
// Hindley-Milner inference engine for a functional language with row-
// polymorphic effects): this is a nominal, nullable-aware nominal-type
// lattice over a small fixed set of primitive types plus declared
// classes, propagated bottom-up with no unification or generalization,
// matching spec.md §4.9's much narrower rule set (any/none, nullable
// T?, int/float arithmetic promotion, and deprecation references).
// The scoped parent-chain TypeEnv shape is grounded in internal/types'
// env.go.
package typecheck

import (
	"fmt"
	"strings"

	"github.com/embedlang/emlangc/internal/classir"
	"github.com/embedlang/emlangc/internal/errcode"
	"github.com/embedlang/emlangc/internal/ir"
	"github.com/embedlang/emlangc/internal/methodres"
)

// Type is a nominal type lattice element: one of the sentinel names
// (Any, None) or a declared class/primitive name, plus a nullable bit
// for the `T?` form spec.md §4.9 names.
type Type struct {
	Name     string
	Nullable bool
}

const (
	Any   = "any"
	None  = "none"
	Int   = "int"
	Float = "float"
	Bool  = "bool"
	Str   = "string"
	Null  = "Null_" // the type of the literal `null` itself
)

// parseTypeName splits a declared type string's optional `?` suffix
// into the base name and the nullable flag. "" (inferred) maps to Any.
func parseTypeName(s string) Type {
	if s == "" {
		return Type{Name: Any}
	}
	if strings.HasSuffix(s, "?") {
		return Type{Name: strings.TrimSuffix(s, "?"), Nullable: true}
	}
	return Type{Name: s}
}

func (t Type) String() string {
	if t.Nullable {
		return t.Name + "?"
	}
	return t.Name
}

// Conforms reports whether a value of type v may flow into a context
// expecting type expected, per spec.md §4.9's rules: any accepts
// anything and produces anything; none can never be read; nullable
// accepts null, non-nullable does not.
func Conforms(v, expected Type) bool {
	if expected.Name == Any || v.Name == Any {
		return true
	}
	if v.Name == None {
		return false // a none-producing expression has no value to offer
	}
	if v.Name == Null {
		return expected.Nullable
	}
	if expected.Name != v.Name {
		return false
	}
	return true
}

// conforms extends Conforms with nominal subclassing: a value of a
// declared class type also conforms to any of that class's
// (transitive) supertypes, per ordinary object-oriented substitution.
func (c *checker) conforms(v, expected Type) bool {
	if Conforms(v, expected) {
		return true
	}
	cls, ok := c.table.classes[v.Name]
	if !ok {
		return false
	}
	for cur := cls.Super; cur != nil; cur = cur.Super {
		if cur.Name == expected.Name {
			return true
		}
	}
	for _, i := range cls.Interfaces {
		if i.Name == expected.Name {
			return true
		}
	}
	return false
}

// TypeEnv is a scoped name->Type table, grounded in the teacher's
// internal/types parent-chain TypeEnv.
type TypeEnv struct {
	bindings map[string]Type
	parent   *TypeEnv
}

func NewTypeEnv(parent *TypeEnv) *TypeEnv {
	return &TypeEnv{bindings: map[string]Type{}, parent: parent}
}

func (e *TypeEnv) Bind(name string, t Type) { e.bindings[name] = t }

func (e *TypeEnv) Lookup(name string) (Type, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if t, ok := cur.bindings[name]; ok {
			return t, true
		}
	}
	return Type{}, false
}

// declTable indexes classir output by name for cross-reference during
// both type propagation (resolving a call's static return type) and
// deprecation checking.
type declTable struct {
	classes    map[string]*classir.Class
	methods    map[string]*classir.Method // by selector, global/static dispatch table
	deprecated map[string]string          // qualified name -> warning message
}

func buildTable(cp *classir.Program) *declTable {
	t := &declTable{classes: map[string]*classir.Class{}, methods: map[string]*classir.Method{}, deprecated: map[string]string{}}
	for _, c := range cp.Classes {
		t.classes[c.Name] = c
		if c.Decl != nil {
			if msg, ok := deprecationMessage(c.Decl.Toitdoc); ok {
				t.deprecated["class:"+c.Name] = msg
			}
		}
		for _, m := range c.Methods {
			if m.Decl == nil {
				continue
			}
			t.methods[m.Name] = m
			if msg, ok := deprecationMessage(m.Decl.Toitdoc); ok {
				t.deprecated["method:"+m.Name] = msg
			}
		}
	}
	return t
}

// deprecationMessage implements deprecation.cc's paragraph-prefix
// convention: a toitdoc beginning with "Deprecated." or "Deprecated:"
// carries a deprecation warning, trimmed of the marker and any
// trailing period.
func deprecationMessage(doc string) (string, bool) {
	doc = strings.TrimSpace(doc)
	var rest string
	switch {
	case strings.HasPrefix(doc, "Deprecated."):
		rest = doc[len("Deprecated."):]
	case strings.HasPrefix(doc, "Deprecated:"):
		rest = doc[len("Deprecated:"):]
	default:
		return "", false
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(rest, ".")
	return rest, true
}

// Check runs C9 over every constructed method/global body.
func Check(cp *classir.Program, prog *methodres.Program) []*errcode.Report {
	table := buildTable(cp)
	var diags []*errcode.Report

	for _, c := range cp.Classes {
		for _, m := range c.Methods {
			body, ok := prog.Bodies[m]
			if !ok || m.Decl == nil {
				continue
			}
			env := NewTypeEnv(nil)
			for _, p := range m.Decl.Params {
				env.Bind(p.Name, parseTypeName(p.Type))
			}
			ck := &checker{table: table, env: env, owner: c}
			ck.walkBlock(body)
			declared := parseTypeName(m.Decl.ReturnType)
			for _, r := range ck.returns {
				if !ck.conforms(r, declared) {
					ck.diags = append(ck.diags, errcode.New(errcode.TYP001, "error",
						fmt.Sprintf("%s: cannot return %s where %s is expected", m.Name, r, declared)))
				}
			}
			diags = append(diags, ck.diags...)
		}
	}
	for decl, body := range prog.Globals {
		env := NewTypeEnv(nil)
		for _, p := range decl.Params {
			env.Bind(p.Name, parseTypeName(p.Type))
		}
		ck := &checker{table: table, env: env}
		ck.walkBlock(body)
		declared := parseTypeName(decl.ReturnType)
		for _, r := range ck.returns {
			if !ck.conforms(r, declared) {
				ck.diags = append(ck.diags, errcode.New(errcode.TYP001, "error",
					fmt.Sprintf("%s: cannot return %s where %s is expected", decl.Name, r, declared)))
			}
		}
		diags = append(diags, ck.diags...)
	}
	return diags
}

type checker struct {
	table   *declTable
	env     *TypeEnv
	owner   *classir.Class
	returns []Type
	diags   []*errcode.Report
}

func (c *checker) walkBlock(b *ir.Block) {
	if b == nil {
		return
	}
	for _, e := range b.Body {
		c.infer(e)
	}
}

// infer propagates types bottom-up, reporting mismatches at every
// context spec.md §4.9 names an expected type for (field store,
// return, arithmetic).
func (c *checker) infer(e ir.Expr) Type {
	switch n := e.(type) {
	case *ir.IntLit:
		return Type{Name: Int}
	case *ir.FloatLit:
		return Type{Name: Float}
	case *ir.BoolLit:
		return Type{Name: Bool}
	case *ir.StringLit:
		return Type{Name: Str}
	case *ir.NullLit:
		return Type{Name: Null}
	case *ir.Local:
		if t, ok := c.env.Lookup(n.Name); ok {
			return t
		}
		return Type{Name: Any}
	case *ir.Parameter:
		if t, ok := c.env.Lookup(n.Name); ok {
			return t
		}
		return Type{Name: Any}
	case *ir.FieldLoad:
		c.infer(n.Receiver)
		if c.owner != nil {
			if f := fieldByIndex(c.owner, n.Index); f != nil {
				return parseTypeName(f.Type)
			}
		}
		return Type{Name: Any}
	case *ir.FieldStore:
		c.infer(n.Receiver)
		vt := c.infer(n.Value)
		if c.owner != nil {
			if f := fieldByIndex(c.owner, n.Index); f != nil {
				ft := parseTypeName(f.Type)
				if !c.conforms(vt, ft) {
					code := errcode.TYP001
					if vt.Name == Null {
						code = errcode.TYP002
					}
					c.diags = append(c.diags, errcode.New(code, "error",
						fmt.Sprintf("field %q: cannot store %s where %s is expected", f.Name, vt, ft)))
				}
			}
		}
		return Type{Name: None}
	case *ir.AssignmentDefine:
		vt := c.infer(n.Value)
		c.env.Bind(n.Name, vt)
		return vt
	case *ir.AssignmentLocal:
		return c.infer(n.Value)
	case *ir.If:
		c.infer(n.Cond)
		c.walkBlock(n.Then)
		c.walkBlock(n.Else)
		return Type{Name: Any}
	case *ir.While:
		c.infer(n.Cond)
		c.walkBlock(n.Body)
		return Type{Name: Any}
	case *ir.TryFinally:
		c.walkBlock(n.Body)
		c.walkBlock(n.Handler)
		return Type{Name: Any}
	case *ir.Sequence:
		var last Type
		for _, sub := range n.Exprs {
			last = c.infer(sub)
		}
		return last
	case *ir.Block:
		var last Type
		for _, sub := range n.Body {
			last = c.infer(sub)
		}
		return last
	case *ir.Return:
		if n.Value != nil {
			c.returns = append(c.returns, c.infer(n.Value))
		} else {
			c.returns = append(c.returns, Type{Name: None})
		}
		return Type{Name: None}
	case *ir.LogicalBinary:
		c.infer(n.Left)
		c.infer(n.Right)
		return Type{Name: Bool}
	case *ir.Not:
		c.infer(n.Operand)
		return Type{Name: Bool}
	case *ir.Typecheck:
		c.infer(n.Operand)
		return parseTypeName(n.Type)
	case *ir.CallBuiltin:
		return c.inferBuiltinCall(n)
	case *ir.CallStatic:
		for _, a := range n.Args {
			c.infer(a)
		}
		if n.Receiver != nil {
			c.infer(n.Receiver)
		}
		c.checkDeprecatedReference("method:" + n.Selector)
		if m, ok := c.table.methods[n.Selector]; ok && m.Decl != nil {
			return parseTypeName(m.Decl.ReturnType)
		}
		return Type{Name: Any}
	case *ir.CallVirtual:
		recv := c.infer(n.Receiver)
		var argTypes []Type
		for _, a := range n.Args {
			argTypes = append(argTypes, c.infer(a))
		}
		if t, ok := arithmeticResult(n.Selector, recv, argTypes); ok {
			return t
		}
		c.checkDeprecatedReference("method:" + n.Selector)
		if m, ok := c.table.methods[n.Selector]; ok && m.Decl != nil {
			return parseTypeName(m.Decl.ReturnType)
		}
		return Type{Name: Any}
	case *ir.CallConstructor:
		for _, a := range n.Args {
			c.infer(a)
		}
		c.checkDeprecatedClassReference(n.ClassName)
		return Type{Name: n.ClassName}
	case *ir.CallBlock:
		c.infer(n.Target)
		for _, a := range n.Args {
			c.infer(a)
		}
		return Type{Name: Any}
	case *ir.ReferenceClass:
		c.checkDeprecatedClassReference(n.ClassName)
		return Type{Name: Any}
	case *ir.Lambda:
		inner := NewTypeEnv(c.env)
		for _, p := range n.Params {
			inner.Bind(p.Name, parseTypeName(p.Type))
		}
		sub := &checker{table: c.table, env: inner, owner: c.owner}
		sub.walkBlock(n.Body)
		c.diags = append(c.diags, sub.diags...)
		return Type{Name: Any}
	case *ir.Code:
		c.walkBlock(n.Body)
		return Type{Name: Any}
	default:
		return Type{Name: Any}
	}
}

// inferBuiltinCall applies spec.md §4.9's arithmetic promotion rule to
// the rewritten compound-assignment/increment builtins (`_binary_op`).
func (c *checker) inferBuiltinCall(n *ir.CallBuiltin) Type {
	var argTypes []Type
	for _, a := range n.Args {
		argTypes = append(argTypes, c.infer(a))
	}
	if !strings.HasPrefix(n.Name, "_binary_") || len(argTypes) != 2 {
		return Type{Name: Any}
	}
	op := strings.TrimPrefix(n.Name, "_binary_")
	if t, ok := arithmeticResult(op, argTypes[0], argTypes[1:]); ok {
		return t
	}
	return Type{Name: Any}
}

// arithmeticResult implements spec.md §4.9's int×int -> int,
// int×float / float×int -> float (commuted) promotion rule for the
// ordinary binary-operator selectors ("+", "<", "==", ...), whether
// they arrive as a desugared virtual call (`a.+(b)`) or a rewritten
// `_binary_` builtin. ok is false for any non-operator selector, so
// callers fall back to ordinary method-call type resolution.
func arithmeticResult(selector string, recv Type, args []Type) (Type, bool) {
	if len(args) != 1 {
		return Type{}, false
	}
	a, b := recv, args[0]
	switch selector {
	case "+", "-", "*", "/", "%":
		if a.Name == Float || b.Name == Float {
			return Type{Name: Float}, true
		}
		if a.Name == Int && b.Name == Int {
			return Type{Name: Int}, true
		}
		return Type{}, false
	case "<", ">", "<=", ">=", "==", "!=":
		if (a.Name == Int || a.Name == Float) && (b.Name == Int || b.Name == Float) {
			return Type{Name: Bool}, true
		}
		return Type{}, false
	default:
		return Type{}, false
	}
}

func (c *checker) checkDeprecatedReference(key string) {
	if msg, ok := c.table.deprecated[key]; ok {
		c.diags = append(c.diags, errcode.New(errcode.TYP003, "warning", deprecationWarning(key, msg)))
	}
}

// checkDeprecatedClassReference prefers the class's own deprecation
// message over a deprecated constructor's, per spec.md §4.9.
func (c *checker) checkDeprecatedClassReference(className string) {
	if msg, ok := c.table.deprecated["class:"+className]; ok {
		c.diags = append(c.diags, errcode.New(errcode.TYP003, "warning", deprecationWarning("class:"+className, msg)))
		return
	}
}

func deprecationWarning(key, msg string) string {
	name := strings.SplitN(key, ":", 2)[1]
	if msg == "" {
		return fmt.Sprintf("%q is deprecated", name)
	}
	return fmt.Sprintf("%q is deprecated. %s", name, msg)
}

func fieldByIndex(c *classir.Class, idx int) *classir.Field {
	for cur := c; cur != nil; cur = cur.Super {
		for _, f := range cur.Fields {
			if f.Index == idx {
				return f
			}
		}
	}
	return nil
}
