package backend

import (
	"fmt"
	"math"

	"github.com/isaacev/mathvm/frontend"
)

// FuncID identifies a function in the FunctionTable. Id 0 is always the entry
// function holding the top-level statements
type FuncID uint16

// SlotID indexes a variable slot inside a Frame
type SlotID uint16

// EntryName is the name given to the function holding top-level statements
const EntryName = "main"

// Function stores static information about a compiled function: its
// signature, how many variable slots an invocation needs and the raw bytecode
// instructions to execute. Functions are registered before their bodies are
// emitted and are never modified once translation completes
type Function struct {
	ID     FuncID
	Name   string
	Params []frontend.Type
	Return frontend.Type
	Slots  int
	Zeros  []Value // typed zero of every slot, copied into each new Frame
	Code   *Bytecode
}

func (fn *Function) String() string {
	return fmt.Sprintf("%s#%d", fn.Name, fn.ID)
}

// FunctionTable holds every Function of a program indexed by FuncID
type FunctionTable struct {
	funcs []*Function
}

// NewFunctionTable returns an empty table
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{}
}

// Add registers a new function and assigns it the next free id
func (t *FunctionTable) Add(name string, params []frontend.Type, ret frontend.Type) (*Function, error) {
	if len(t.funcs) > math.MaxUint16 {
		return nil, fmt.Errorf("too many functions (limit is %d)", math.MaxUint16+1)
	}

	fn := &Function{
		ID:     FuncID(len(t.funcs)),
		Name:   name,
		Params: params,
		Return: ret,
		Code:   &Bytecode{},
	}

	t.funcs = append(t.funcs, fn)
	return fn, nil
}

// Get returns the function registered under an id
func (t *FunctionTable) Get(id FuncID) (*Function, bool) {
	if int(id) >= len(t.funcs) {
		return nil, false
	}

	return t.funcs[id], true
}

// Len returns the number of registered functions
func (t *FunctionTable) Len() int {
	return len(t.funcs)
}

// All returns the registered functions ordered by id
func (t *FunctionTable) All() []*Function {
	return t.funcs
}

// Program is the output of translation and the input of the Interpreter
type Program struct {
	Functions *FunctionTable
	Constants *ConstantPool
	Entry     FuncID
	Warnings  []TranslationWarning
}
