package types

// Substitution maps type-variable names to their resolved types.
type Substitution map[string]Type

// ApplySubstitution is a convenience wrapper around Type.Substitute.
func ApplySubstitution(sub Substitution, t Type) Type {
	if len(sub) == 0 {
		return t
	}
	return t.Substitute(sub)
}

// Equation is a single required type equality (T1, T2).
type Equation struct {
	T1, T2 Type
}

// EquationStore is a persistent collection of required type equalities.
// Add never mutates the receiver; it returns a new store.
type EquationStore struct {
	equations []Equation
}

// NewEquationStore returns an empty store.
func NewEquationStore() *EquationStore {
	return &EquationStore{}
}

// Add inserts an equation, returning a new store. Idempotent on set
// equality of pairs: adding the same (T1, T2) twice has no further effect.
func (s *EquationStore) Add(t1, t2 Type) *EquationStore {
	for _, eq := range s.equations {
		if (eq.T1.Equals(t1) && eq.T2.Equals(t2)) || (eq.T1.Equals(t2) && eq.T2.Equals(t1)) {
			return s
		}
	}
	next := make([]Equation, len(s.equations), len(s.equations)+1)
	copy(next, s.equations)
	next = append(next, Equation{T1: t1, T2: t2})
	return &EquationStore{equations: next}
}

// Equations exposes the pending equation list (used by the REPL's verbose
// diagnostics and by tests).
func (s *EquationStore) Equations() []Equation {
	return s.equations
}

// Unify solves the store's equations into a substitution, or fails with
// *Error of kind UnificationImpossible or CircularReference.
//
// Work-list driven, as spec.md §4.2 describes: repeatedly pop one pending
// equation and dispatch on shape. Decomposition steps shrink a syntactic
// size measure; variable-elimination steps remove a variable that can
// never reappear (occurs-check guarantees that), so the loop terminates.
func (s *EquationStore) Unify() (Substitution, error) {
	pending := make([]Equation, len(s.equations))
	copy(pending, s.equations)

	sub := make(Substitution)

	for len(pending) > 0 {
		eq := pending[0]
		pending = pending[1:]

		t1 := ApplySubstitution(sub, eq.T1)
		t2 := ApplySubstitution(sub, eq.T2)

		if t1.Equals(t2) {
			continue
		}

		switch left := t1.(type) {
		case *TVar:
			if err := bindVar(left.Name, t2, &sub, &pending); err != nil {
				return nil, err
			}
			continue
		}

		switch right := t2.(type) {
		case *TVar:
			if err := bindVar(right.Name, t1, &sub, &pending); err != nil {
				return nil, err
			}
			continue
		}

		switch left := t1.(type) {
		case *TFunc:
			right, ok := t2.(*TFunc)
			if !ok {
				return nil, newError(UnificationImpossible, "cannot unify %s with %s", t1, t2)
			}
			pending = append(pending, Equation{left.Domain, right.Domain}, Equation{left.Range, right.Range})
			continue
		case *TList:
			right, ok := t2.(*TList)
			if !ok {
				return nil, newError(UnificationImpossible, "cannot unify %s with %s", t1, t2)
			}
			pending = append(pending, Equation{left.Elem, right.Elem})
			continue
		case *TBase:
			right, ok := t2.(*TBase)
			if !ok || right.Kind != left.Kind {
				return nil, newError(UnificationImpossible, "cannot unify %s with %s", t1, t2)
			}
			continue
		}

		return nil, newError(UnificationImpossible, "cannot unify %s with %s", t1, t2)
	}

	return sub, nil
}

// bindVar performs the occurs check, then substitutes name -> replacement
// into every pending equation and the accumulated substitution, recording
// the new binding.
func bindVar(name string, replacement Type, sub *Substitution, pending *[]Equation) error {
	if occurs(name, replacement) {
		return newError(CircularReference, "%s occurs in %s", name, replacement)
	}

	step := Substitution{name: replacement}
	for k, v := range *sub {
		(*sub)[k] = v.Substitute(step)
	}
	(*sub)[name] = replacement

	for i, eq := range *pending {
		(*pending)[i] = Equation{
			T1: eq.T1.Substitute(step),
			T2: eq.T2.Substitute(step),
		}
	}
	return nil
}

// occurs reports whether varName appears anywhere inside t.
func occurs(varName string, t Type) bool {
	set := make(map[string]bool)
	t.FreeVars(set)
	return set[varName]
}

// Lookup walks chains of variable equalities in a solved substitution and
// returns the representative type for v; returns v itself if no equation
// mentions it.
func Lookup(sub Substitution, v Type) Type {
	tv, ok := v.(*TVar)
	if !ok {
		return v
	}
	seen := make(map[string]bool)
	cur := tv
	for {
		if seen[cur.Name] {
			return cur
		}
		seen[cur.Name] = true
		repl, ok := sub[cur.Name]
		if !ok {
			return cur
		}
		next, ok := repl.(*TVar)
		if !ok {
			return repl
		}
		cur = next
	}
}

// Normalize produces a fully resolved type with no stray variables that
// have representatives in sub.
//
// A type variable with no representative is promoted to a free
// polymorphic type variable rather than rejected — the "real ML
// variants" alternative spec.md §9 names (see DESIGN.md's Open Question
// log for the rationale).
func Normalize(sub Substitution, t Type) (Type, error) {
	return normalizeVisit(sub, t, make(map[string]bool))
}

func normalizeVisit(sub Substitution, t Type, onStack map[string]bool) (Type, error) {
	switch ty := t.(type) {
	case *TVar:
		if onStack[ty.Name] {
			return nil, newError(UnresolvedType, "cyclic type reference at %s", ty.Name)
		}
		repl, ok := sub[ty.Name]
		if !ok {
			return ty, nil
		}
		onStack[ty.Name] = true
		resolved, err := normalizeVisit(sub, repl, onStack)
		delete(onStack, ty.Name)
		return resolved, err
	case *TList:
		elem, err := normalizeVisit(sub, ty.Elem, onStack)
		if err != nil {
			return nil, err
		}
		return &TList{Elem: elem}, nil
	case *TFunc:
		domain, err := normalizeVisit(sub, ty.Domain, onStack)
		if err != nil {
			return nil, err
		}
		rng, err := normalizeVisit(sub, ty.Range, onStack)
		if err != nil {
			return nil, err
		}
		return &TFunc{Domain: domain, Range: rng}, nil
	default:
		return t, nil
	}
}
