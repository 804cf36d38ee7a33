package types

// TypeEnv maps object-language names to type schemes and carries the
// equation store accumulated while inferring the current expression. Like
// eval.Env, it is persistent: every mutating-looking operation returns a
// new TypeEnv and leaves the receiver untouched.
type TypeEnv struct {
	bindings map[string]*TypeScheme
	store    *EquationStore
	gen      SymbolGenerator
}

// NewTypeEnv returns an empty environment using gen for fresh type
// variables.
func NewTypeEnv(gen SymbolGenerator) *TypeEnv {
	return &TypeEnv{
		bindings: make(map[string]*TypeScheme),
		store:    NewEquationStore(),
		gen:      gen,
	}
}

// Lookup returns a freshly instantiated type for name, or an
// UndefinedVariable *Error if name is unbound.
func (e *TypeEnv) Lookup(name string) (Type, error) {
	scheme, ok := e.bindings[name]
	if !ok {
		return nil, newError(UndefinedVariable, "%s", name)
	}
	return scheme.Instantiate(e.gen), nil
}

// Extend returns a new environment with name bound to scheme; shadowing
// is permitted.
func (e *TypeEnv) Extend(name string, scheme *TypeScheme) *TypeEnv {
	next := make(map[string]*TypeScheme, len(e.bindings)+1)
	for k, v := range e.bindings {
		next[k] = v
	}
	next[name] = scheme
	return &TypeEnv{bindings: next, store: e.store, gen: e.gen}
}

// AddEquation returns a new environment with one more pending equation.
func (e *TypeEnv) AddEquation(t1, t2 Type) *TypeEnv {
	return &TypeEnv{bindings: e.bindings, store: e.store.Add(t1, t2), gen: e.gen}
}

// UnifyEquations runs unification over the pending equations, returning a
// new environment whose equation store is replaced by the resulting
// substitution (re-expressed as a solved equation set, var = resolved
// type, so :type's verbose diagnostics can still walk it via Store()).
func (e *TypeEnv) UnifyEquations() (*TypeEnv, Substitution, error) {
	sub, err := e.store.Unify()
	if err != nil {
		return nil, nil, err
	}
	solved := NewEquationStore()
	for name, resolved := range sub {
		solved = solved.Add(&TVar{Name: name}, resolved)
	}
	return &TypeEnv{bindings: e.bindings, store: solved, gen: e.gen}, sub, nil
}

// rebind returns a TypeEnv combining base's bindings with storeSource's
// equation store. Used by the inferencer to keep equation accumulation
// global while scoping bindings the way each rule in spec.md §4.6
// requires (sibling subexpressions and Fun/Match bodies must not leak
// their local bindings to the rest of the expression).
func rebind(base, storeSource *TypeEnv) *TypeEnv {
	return &TypeEnv{bindings: base.bindings, store: storeSource.store, gen: base.gen}
}

// Normalize applies §4.2 normalization against the given solved
// substitution.
func (e *TypeEnv) Normalize(sub Substitution, t Type) (Type, error) {
	return Normalize(sub, t)
}

// FreeVariables returns the subset of candidate names that are not
// mentioned by any scheme currently bound in e — the set eligible for
// generalization at a let/let-rec boundary.
func (e *TypeEnv) FreeVariables(candidates map[string]bool) map[string]bool {
	bound := make(map[string]bool)
	for _, scheme := range e.bindings {
		quantified := make(map[string]bool, len(scheme.Quantified))
		for _, q := range scheme.Quantified {
			quantified[q] = true
		}
		free := freeVars(scheme.Body)
		for name := range free {
			if !quantified[name] {
				bound[name] = true
			}
		}
	}

	result := make(map[string]bool)
	for name := range candidates {
		if !bound[name] {
			result[name] = true
		}
	}
	return result
}

// Gen exposes the environment's symbol generator to the inferencer.
func (e *TypeEnv) Gen() SymbolGenerator { return e.gen }

// Store exposes the pending equation store (used by the REPL's verbose
// diagnostics).
func (e *TypeEnv) Store() *EquationStore { return e.store }

// Bindings exposes the name -> scheme map for REPL `:env` display.
func (e *TypeEnv) Bindings() map[string]*TypeScheme {
	return e.bindings
}
