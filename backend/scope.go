package backend

import (
	"github.com/isaacev/mathvm/frontend"
	"github.com/isaacev/mathvm/source"
)

// symbolKind separates the two kinds of names a block can declare
type symbolKind int

const (
	symbolVariable symbolKind = iota
	symbolFunction
)

// Symbol is a declared name. Variables are addressed by the (context, slot)
// pair where context is the id of the function owning the slot
type Symbol struct {
	Kind     symbolKind
	Name     string
	Type     frontend.Type
	Context  FuncID
	Slot     SlotID
	Function *Function
	Declared source.Span
}

// Scope represents the names available at a point in a program's AST. Every
// block opens a new Scope. All scopes (except the entry function's outermost
// scope) have a parent scope for non-local symbol lookup, including scopes of
// enclosing functions
type Scope struct {
	Parent  *Scope
	symbols map[string]*Symbol
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		Parent:  parent,
		symbols: make(map[string]*Symbol),
	}
}

// lookupLocal only searches this scope, it is used to detect redeclarations
func (s *Scope) lookupLocal(name string) (sym *Symbol) {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}

	return nil
}

// lookup searches this scope and then every enclosing scope
func (s *Scope) lookup(name string) (sym *Symbol) {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym := scope.lookupLocal(name); sym != nil {
			return sym
		}
	}

	return nil
}

func (s *Scope) register(sym *Symbol) {
	s.symbols[sym.Name] = sym
}
