// Package types implements the Hindley–Milner type system: types, type
// schemes, the equation store/unifier, the type environment, and the
// constraint-generating inferencer that drives them.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the tagged variant of picocaml types: base, list, variable, or
// function. Types are structurally hashable via String and comparable via
// Equals.
type Type interface {
	String() string
	Equals(Type) bool
	// FreeVars adds every type-variable name occurring in the type to set.
	FreeVars(set map[string]bool)
	// Substitute rewrites variable occurrences named in sub.
	Substitute(sub Substitution) Type
}

// BaseKind distinguishes the two base types.
type BaseKind int

const (
	IntKind BaseKind = iota
	BoolKind
)

func (k BaseKind) String() string {
	if k == BoolKind {
		return "Bool"
	}
	return "Int"
}

// TBase is a base (non-decomposable) type.
type TBase struct {
	Kind BaseKind
}

func (t *TBase) String() string                         { return t.Kind.String() }
func (t *TBase) FreeVars(map[string]bool)                {}
func (t *TBase) Substitute(Substitution) Type            { return t }
func (t *TBase) Equals(other Type) bool {
	o, ok := other.(*TBase)
	return ok && o.Kind == t.Kind
}

// TInt and TBool are the two base type singletons.
var (
	TInt  = &TBase{Kind: IntKind}
	TBool = &TBase{Kind: BoolKind}
)

// TVar is a type variable.
type TVar struct {
	Name string
}

func (t *TVar) String() string { return t.Name }

func (t *TVar) Equals(other Type) bool {
	o, ok := other.(*TVar)
	return ok && o.Name == t.Name
}

func (t *TVar) FreeVars(set map[string]bool) { set[t.Name] = true }

func (t *TVar) Substitute(sub Substitution) Type {
	if repl, ok := sub[t.Name]; ok {
		if repl == t {
			return t
		}
		return repl.Substitute(sub)
	}
	return t
}

// TList is a homogeneous list type.
type TList struct {
	Elem Type
}

func (t *TList) String() string { return fmt.Sprintf("[%s]", t.Elem.String()) }

func (t *TList) Equals(other Type) bool {
	o, ok := other.(*TList)
	return ok && t.Elem.Equals(o.Elem)
}

func (t *TList) FreeVars(set map[string]bool) { t.Elem.FreeVars(set) }

func (t *TList) Substitute(sub Substitution) Type {
	return &TList{Elem: t.Elem.Substitute(sub)}
}

// TFunc is a one-argument function type.
type TFunc struct {
	Domain Type
	Range  Type
}

func (t *TFunc) String() string {
	domain := t.Domain.String()
	if _, ok := t.Domain.(*TFunc); ok {
		domain = "(" + domain + ")"
	}
	return fmt.Sprintf("%s -> %s", domain, t.Range.String())
}

func (t *TFunc) Equals(other Type) bool {
	o, ok := other.(*TFunc)
	return ok && t.Domain.Equals(o.Domain) && t.Range.Equals(o.Range)
}

func (t *TFunc) FreeVars(set map[string]bool) {
	t.Domain.FreeVars(set)
	t.Range.FreeVars(set)
}

func (t *TFunc) Substitute(sub Substitution) Type {
	return &TFunc{Domain: t.Domain.Substitute(sub), Range: t.Range.Substitute(sub)}
}

// TypeScheme is a type closed over a set of quantified variable names. A
// monomorphic scheme quantifies nothing.
type TypeScheme struct {
	Quantified []string
	Body       Type
}

func (s *TypeScheme) String() string {
	if len(s.Quantified) == 0 {
		return s.Body.String()
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(s.Quantified, " "), s.Body.String())
}

// Monomorphic wraps t in a scheme that quantifies nothing.
func Monomorphic(t Type) *TypeScheme {
	return &TypeScheme{Body: t}
}

// Polymorphic wraps t in a scheme quantifying the given variable names.
func Polymorphic(vars []string, t Type) *TypeScheme {
	quantified := make([]string, len(vars))
	copy(quantified, vars)
	sort.Strings(quantified)
	return &TypeScheme{Quantified: quantified, Body: t}
}

// Instantiate produces a fresh copy of the scheme's body, replacing every
// quantified variable with a freshly generated one.
func (s *TypeScheme) Instantiate(gen SymbolGenerator) Type {
	if len(s.Quantified) == 0 {
		return s.Body
	}
	sub := make(Substitution, len(s.Quantified))
	for _, name := range s.Quantified {
		sub[name] = &TVar{Name: gen.Next()}
	}
	return s.Body.Substitute(sub)
}

// freeVars returns the set of free type-variable names in t.
func freeVars(t Type) map[string]bool {
	set := make(map[string]bool)
	t.FreeVars(set)
	return set
}
