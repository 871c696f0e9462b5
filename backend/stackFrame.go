package backend

import (
	"errors"
)

var (
	errStackUnderflow = errors.New("operand stack underflow")
	errCallDepth      = errors.New("maximum call depth exceeded")
)

// Frame is the activation record of a single function invocation. Its slot
// array starts out zeroed and lives until the invocation returns
type Frame struct {
	Function      *Function
	Slots         []Value
	ReturnAddress int    // ip to resume at in the caller
	Caller        FuncID // function id of the calling frame
}

// Environment is the call stack of live frames with the active frame on top
type Environment struct {
	frames   []*Frame
	maxDepth int
}

// NewEnvironment returns an empty call stack that refuses to grow beyond
// maxDepth frames. A maxDepth of 0 means unlimited
func NewEnvironment(maxDepth int) *Environment {
	return &Environment{maxDepth: maxDepth}
}

// Push creates a fresh frame for fn
func (env *Environment) Push(fn *Function, returnAddress int) (*Frame, error) {
	if env.maxDepth > 0 && len(env.frames) >= env.maxDepth {
		return nil, errCallDepth
	}

	frame := &Frame{
		Function:      fn,
		Slots:         make([]Value, fn.Slots),
		ReturnAddress: returnAddress,
	}

	// Slots without a recorded zero keep the invalid value and trap when read
	copy(frame.Slots, fn.Zeros)

	if top := env.Top(); top != nil {
		frame.Caller = top.Function.ID
	}

	env.frames = append(env.frames, frame)
	return frame, nil
}

// Pop destroys the active frame and returns it
func (env *Environment) Pop() (*Frame, bool) {
	if len(env.frames) == 0 {
		return nil, false
	}

	frame := env.frames[len(env.frames)-1]
	env.frames[len(env.frames)-1] = nil
	env.frames = env.frames[:len(env.frames)-1]
	return frame, true
}

// Top returns the active frame or nil if the stack is empty
func (env *Environment) Top() *Frame {
	if len(env.frames) == 0 {
		return nil
	}

	return env.frames[len(env.frames)-1]
}

// Depth returns the number of live frames
func (env *Environment) Depth() int {
	return len(env.frames)
}

// Lookup walks the call stack from the top and returns the first frame
// executing the given function
func (env *Environment) Lookup(id FuncID) (*Frame, bool) {
	for i := len(env.frames) - 1; i >= 0; i-- {
		if env.frames[i].Function.ID == id {
			return env.frames[i], true
		}
	}

	return nil, false
}

// OperandStack holds the intermediate values of expression evaluation. It is
// shared by every frame: arguments and return values pass through it
type OperandStack struct {
	values []Value
}

// Push appends a value to the top of the stack
func (s *OperandStack) Push(v Value) {
	s.values = append(s.values, v)
}

// Pop removes and returns the top value
func (s *OperandStack) Pop() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, errStackUnderflow
	}

	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// Swap exchanges the two topmost values
func (s *OperandStack) Swap() error {
	n := len(s.values)
	if n < 2 {
		return errStackUnderflow
	}

	s.values[n-1], s.values[n-2] = s.values[n-2], s.values[n-1]
	return nil
}

// Len returns the current stack height
func (s *OperandStack) Len() int {
	return len(s.values)
}
