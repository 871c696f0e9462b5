package backend

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// DefaultMaxCallDepth bounds the call stack unless WithMaxCallDepth says
// otherwise
const DefaultMaxCallDepth = 1024

// RuntimeError is returned by Execute when the program traps. It records the
// function and the byte offset of the instruction that failed
type RuntimeError struct {
	Message      string
	FunctionID   FuncID
	FunctionName string
	Offset       int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s (in function %s#%d at offset %d)", e.Message, e.FunctionName, e.FunctionID, e.Offset)
}

// Step describes one executed instruction. It is handed to the hook installed
// with WithStepHook after the instruction completes
type Step struct {
	Opcode      Opcode
	FunctionID  FuncID
	Offset      int
	Depth       int // call depth before the instruction ran
	StackBefore int
	StackAfter  int
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithOutput sets the destination of PRINT and NEWLINE. Defaults to stdout
func WithOutput(w io.Writer) Option {
	return func(inter *Interpreter) {
		inter.out = w
	}
}

// WithMaxSteps stops execution with a RuntimeError once more than n
// instructions have executed. 0 means unlimited
func WithMaxSteps(n int) Option {
	return func(inter *Interpreter) {
		inter.maxSteps = n
	}
}

// WithMaxCallDepth limits the number of simultaneously live frames. 0 means
// unlimited
func WithMaxCallDepth(n int) Option {
	return func(inter *Interpreter) {
		inter.maxDepth = n
	}
}

// WithLogger sets the logger used for per-instruction trace output and
// call/return debug output
func WithLogger(log zerolog.Logger) Option {
	return func(inter *Interpreter) {
		inter.log = log
	}
}

// WithStepHook installs a function called after every executed instruction
func WithStepHook(hook func(Step)) Option {
	return func(inter *Interpreter) {
		inter.hook = hook
	}
}

// Execute is a simple wrapper around the `Interpreter` creation and execution.
// A nil result means the program ran to completion
func Execute(prog *Program, opts ...Option) error {
	return NewInterpreter(prog, opts...).Run()
}

// Interpreter represents the state of a "virtual machine" running a program.
// This includes the instruction pointer (`ip`) into the active frame's
// function, the shared operand stack and the call stack of all live frames
// with the active frame at the top
type Interpreter struct {
	prog     *Program
	stack    *OperandStack
	env      *Environment
	ip       int
	out      io.Writer
	maxSteps int
	maxDepth int
	steps    int
	log      zerolog.Logger
	hook     func(Step)

	// position of the instruction being executed, used for error reporting
	fn    *Function
	start int
}

// NewInterpreter prepares an Interpreter for a Program. The program is only
// read, never modified
func NewInterpreter(prog *Program, opts ...Option) *Interpreter {
	inter := &Interpreter{
		prog:     prog,
		stack:    &OperandStack{},
		out:      os.Stdout,
		maxDepth: DefaultMaxCallDepth,
		log:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(inter)
	}

	inter.env = NewEnvironment(inter.maxDepth)
	return inter
}

// trap builds a RuntimeError for the instruction currently executing
func (inter *Interpreter) trap(format string, args ...interface{}) error {
	err := &RuntimeError{
		Message: fmt.Sprintf(format, args...),
		Offset:  inter.start,
	}

	if inter.fn != nil {
		err.FunctionID = inter.fn.ID
		err.FunctionName = inter.fn.Name
	}

	inter.log.Debug().
		Str("function", err.FunctionName).
		Int("ip", err.Offset).
		Msg(err.Message)

	return err
}

// Run executes the program from the start of its entry function until STOP,
// a RETURN from the entry frame or a runtime error
func (inter *Interpreter) Run() error {
	entry, ok := inter.prog.Functions.Get(inter.prog.Entry)
	if !ok {
		return inter.trap("unknown entry function %d", inter.prog.Entry)
	}

	inter.fn = entry

	if _, err := inter.env.Push(entry, 0); err != nil {
		return inter.trap("%v", err)
	}

	for {
		frame := inter.env.Top()
		inter.fn = frame.Function
		inter.start = inter.ip

		if inter.ip < 0 || inter.ip >= frame.Function.Code.Len() {
			return inter.trap("instruction pointer out of bounds")
		}

		inter.steps++
		if inter.maxSteps > 0 && inter.steps > inter.maxSteps {
			return inter.trap("step limit of %d exceeded", inter.maxSteps)
		}

		opcode := inter.readOpcode()
		before := inter.stack.Len()
		depth := inter.env.Depth()

		inter.log.Trace().
			Str("function", frame.Function.Name).
			Int("ip", inter.start).
			Str("op", opcode.String()).
			Int("stack", before).
			Msg("step")

		halt, err := inter.execute(opcode, frame)
		if err != nil {
			return err
		}

		if inter.hook != nil {
			inter.hook(Step{
				Opcode:      opcode,
				FunctionID:  frame.Function.ID,
				Offset:      inter.start,
				Depth:       depth,
				StackBefore: before,
				StackAfter:  inter.stack.Len(),
			})
		}

		if halt {
			return nil
		}
	}
}

// execute runs a single decoded opcode. The returned flag is true once the
// program has terminated normally
func (inter *Interpreter) execute(opcode Opcode, frame *Frame) (halt bool, err error) {
	switch opcode {
	case OpcodeStop:
		return true, nil
	case OpcodePushInt:
		b, err := inter.readOperand(bytesInInt64)
		if err != nil {
			return false, err
		}

		inter.stack.Push(IntValue(bytesToInt64(b)))
	case OpcodePushDouble:
		b, err := inter.readOperand(bytesInInt64)
		if err != nil {
			return false, err
		}

		inter.stack.Push(DoubleValue(bytesToFloat64(b)))
	case OpcodePushStr:
		id, err := inter.readUint16()
		if err != nil {
			return false, err
		}

		if _, ok := inter.prog.Constants.Get(ConstID(id)); !ok {
			return false, inter.trap("unknown string constant %d", id)
		}

		inter.stack.Push(StringValue(ConstID(id)))
	case OpcodePushZero:
		inter.stack.Push(IntValue(0))
	case OpcodePushOne:
		inter.stack.Push(IntValue(1))
	case OpcodePushMinusOne:
		inter.stack.Push(IntValue(-1))
	case OpcodePop:
		if _, err := inter.stack.Pop(); err != nil {
			return false, inter.trap("%v", err)
		}
	case OpcodeSwap:
		if err := inter.stack.Swap(); err != nil {
			return false, inter.trap("%v", err)
		}
	case OpcodeI2D:
		i, err := inter.popInt()
		if err != nil {
			return false, err
		}

		inter.stack.Push(DoubleValue(float64(i)))
	case OpcodeD2I:
		d, err := inter.popDouble()
		if err != nil {
			return false, err
		}

		inter.stack.Push(IntValue(doubleToInt(d)))
	case OpcodeIAdd, OpcodeISub, OpcodeIMul, OpcodeIDiv, OpcodeIMod, OpcodeICmp:
		right, err := inter.popInt()
		if err != nil {
			return false, err
		}

		left, err := inter.popInt()
		if err != nil {
			return false, err
		}

		var result int64

		switch opcode {
		case OpcodeIAdd:
			result = left + right
		case OpcodeISub:
			result = left - right
		case OpcodeIMul:
			result = left * right
		case OpcodeIDiv:
			if right == 0 {
				return false, inter.trap("integer division by zero")
			}

			result = left / right
		case OpcodeIMod:
			if right == 0 {
				return false, inter.trap("integer modulo by zero")
			}

			result = left % right
		case OpcodeICmp:
			result = compareInts(left, right)
		}

		inter.stack.Push(IntValue(result))
	case OpcodeINeg:
		i, err := inter.popInt()
		if err != nil {
			return false, err
		}

		inter.stack.Push(IntValue(-i))
	case OpcodeDAdd, OpcodeDSub, OpcodeDMul, OpcodeDDiv:
		right, err := inter.popDouble()
		if err != nil {
			return false, err
		}

		left, err := inter.popDouble()
		if err != nil {
			return false, err
		}

		var result float64

		switch opcode {
		case OpcodeDAdd:
			result = left + right
		case OpcodeDSub:
			result = left - right
		case OpcodeDMul:
			result = left * right
		case OpcodeDDiv:
			result = left / right
		}

		inter.stack.Push(DoubleValue(result))
	case OpcodeDNeg:
		d, err := inter.popDouble()
		if err != nil {
			return false, err
		}

		inter.stack.Push(DoubleValue(-d))
	case OpcodeDCmp:
		right, err := inter.popDouble()
		if err != nil {
			return false, err
		}

		left, err := inter.popDouble()
		if err != nil {
			return false, err
		}

		inter.stack.Push(IntValue(compareDoubles(left, right)))
	case OpcodeLoad:
		slot, err := inter.readUint16()
		if err != nil {
			return false, err
		}

		return false, inter.load(frame, SlotID(slot))
	case OpcodeStore:
		slot, err := inter.readUint16()
		if err != nil {
			return false, err
		}

		return false, inter.store(frame, SlotID(slot))
	case OpcodeLoadCtx, OpcodeStoreCtx:
		ctx, err := inter.readUint16()
		if err != nil {
			return false, err
		}

		slot, err := inter.readUint16()
		if err != nil {
			return false, err
		}

		owner, ok := inter.env.Lookup(FuncID(ctx))
		if !ok {
			return false, inter.trap("no live frame for function %d", ctx)
		}

		if opcode == OpcodeLoadCtx {
			return false, inter.load(owner, SlotID(slot))
		}

		return false, inter.store(owner, SlotID(slot))
	case OpcodeGoto:
		offset, err := inter.readInt16()
		if err != nil {
			return false, err
		}

		inter.ip += int(offset)
	case OpcodeIfEq, OpcodeIfNe, OpcodeIfLt, OpcodeIfLe, OpcodeIfGt, OpcodeIfGe:
		offset, err := inter.readInt16()
		if err != nil {
			return false, err
		}

		test, err := inter.popInt()
		if err != nil {
			return false, err
		}

		var taken bool

		switch opcode {
		case OpcodeIfEq:
			taken = test == 0
		case OpcodeIfNe:
			taken = test != 0
		case OpcodeIfLt:
			taken = test < 0
		case OpcodeIfLe:
			taken = test <= 0
		case OpcodeIfGt:
			taken = test > 0
		case OpcodeIfGe:
			taken = test >= 0
		}

		if taken {
			inter.ip += int(offset)
		}
	case OpcodeCall:
		id, err := inter.readUint16()
		if err != nil {
			return false, err
		}

		callee, ok := inter.prog.Functions.Get(FuncID(id))
		if !ok {
			return false, inter.trap("unknown function %d", id)
		}

		// The callee frame remembers where to resume in the caller. Arguments
		// stay on the operand stack for the callee's prologue to store
		if _, err := inter.env.Push(callee, inter.ip); err != nil {
			return false, inter.trap("%v calling %s", err, callee.Name)
		}

		inter.log.Debug().
			Str("caller", frame.Function.Name).
			Str("callee", callee.Name).
			Int("depth", inter.env.Depth()).
			Msg("call")

		inter.ip = 0
	case OpcodeReturn:
		// Returning from the entry frame ends the program
		if inter.env.Depth() == 1 {
			return true, nil
		}

		returning, _ := inter.env.Pop()
		inter.ip = returning.ReturnAddress

		caller, _ := inter.prog.Functions.Get(returning.Caller)
		inter.log.Debug().
			Str("callee", returning.Function.Name).
			Str("caller", caller.Name).
			Int("depth", inter.env.Depth()).
			Msg("return")
	case OpcodePrint:
		v, err := inter.popValue()
		if err != nil {
			return false, err
		}

		if err := inter.write(inter.format(v)); err != nil {
			return false, err
		}
	case OpcodeNewline:
		if err := inter.write("\n"); err != nil {
			return false, err
		}
	default:
		return false, inter.trap("unknown opcode 0x%02x", uint8(opcode))
	}

	return false, nil
}

func (inter *Interpreter) load(frame *Frame, slot SlotID) error {
	if int(slot) >= len(frame.Slots) {
		return inter.trap("slot %d out of range in function %s", slot, frame.Function.Name)
	}

	v := frame.Slots[slot]
	if v.Kind == KindInvalid {
		return inter.trap("read of uninitialized slot %d in function %s", slot, frame.Function.Name)
	}

	inter.stack.Push(v)
	return nil
}

func (inter *Interpreter) store(frame *Frame, slot SlotID) error {
	if int(slot) >= len(frame.Slots) {
		return inter.trap("slot %d out of range in function %s", slot, frame.Function.Name)
	}

	v, err := inter.popValue()
	if err != nil {
		return err
	}

	frame.Slots[slot] = v
	return nil
}

func (inter *Interpreter) format(v Value) string {
	switch v.Kind {
	case KindInt:
		return formatInt(v.Int)
	case KindDouble:
		return formatDouble(v.Double)
	default:
		s, _ := inter.prog.Constants.Get(v.Const)
		return s
	}
}

func (inter *Interpreter) write(s string) error {
	if _, err := io.WriteString(inter.out, s); err != nil {
		return inter.trap("write failed: %v", err)
	}

	return nil
}

// popValue pops any initialized value
func (inter *Interpreter) popValue() (Value, error) {
	v, err := inter.stack.Pop()
	if err != nil {
		return v, inter.trap("%v", err)
	}

	if v.Kind == KindInvalid {
		return v, inter.trap("read of invalid value")
	}

	return v, nil
}

func (inter *Interpreter) popInt() (int64, error) {
	v, err := inter.popValue()
	if err != nil {
		return 0, err
	}

	if v.Kind != KindInt {
		return 0, inter.trap("expected int on the stack, found %s", v.Kind)
	}

	return v.Int, nil
}

func (inter *Interpreter) popDouble() (float64, error) {
	v, err := inter.popValue()
	if err != nil {
		return 0, err
	}

	if v.Kind != KindDouble {
		return 0, inter.trap("expected double on the stack, found %s", v.Kind)
	}

	return v.Double, nil
}

func (inter *Interpreter) readOpcode() Opcode {
	b := inter.fn.Code.Bytes[inter.ip]
	inter.ip++
	return Opcode(b)
}

// readOperand returns the next n bytes of the active function and advances the
// instruction pointer past them
func (inter *Interpreter) readOperand(n int) ([]byte, error) {
	code := inter.fn.Code.Bytes

	if inter.ip+n > len(code) {
		return nil, inter.trap("truncated operand")
	}

	b := code[inter.ip : inter.ip+n]
	inter.ip += n
	return b, nil
}

func (inter *Interpreter) readUint16() (uint16, error) {
	b, err := inter.readOperand(bytesInInt16)
	if err != nil {
		return 0, err
	}

	return bytesToUint16(b), nil
}

func (inter *Interpreter) readInt16() (int16, error) {
	b, err := inter.readOperand(bytesInInt16)
	if err != nil {
		return 0, err
	}

	return bytesToInt16(b), nil
}
