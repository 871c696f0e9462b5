package backend

import "fmt"

// Opcode is the first byte of every encoded instruction
type Opcode uint8

const (
	// Basic opcodes
	OpcodeStop         Opcode = 0x01
	OpcodePushInt      Opcode = 0x02
	OpcodePushDouble   Opcode = 0x03
	OpcodePushStr      Opcode = 0x04
	OpcodePushZero     Opcode = 0x05
	OpcodePushOne      Opcode = 0x06
	OpcodePushMinusOne Opcode = 0x07
	OpcodePop          Opcode = 0x08
	OpcodeSwap         Opcode = 0x09

	// Conversions (0x10...0x1F)
	OpcodeI2D Opcode = 0x10
	OpcodeD2I Opcode = 0x11

	// Integer manipulation (0x20...0x2F)
	OpcodeIAdd Opcode = 0x20
	OpcodeISub Opcode = 0x21
	OpcodeIMul Opcode = 0x22
	OpcodeIDiv Opcode = 0x23
	OpcodeIMod Opcode = 0x24
	OpcodeINeg Opcode = 0x25
	OpcodeICmp Opcode = 0x26

	// Double manipulation (0x30...0x3F)
	OpcodeDAdd Opcode = 0x30
	OpcodeDSub Opcode = 0x31
	OpcodeDMul Opcode = 0x32
	OpcodeDDiv Opcode = 0x33
	OpcodeDNeg Opcode = 0x34
	OpcodeDCmp Opcode = 0x35

	// Variable access (0x40...0x4F)
	OpcodeLoad     Opcode = 0x40
	OpcodeStore    Opcode = 0x41
	OpcodeLoadCtx  Opcode = 0x42
	OpcodeStoreCtx Opcode = 0x43

	// Control flow (0x50...0x5F), branch offsets are relative to the byte
	// following the offset operand
	OpcodeGoto   Opcode = 0x50
	OpcodeIfEq   Opcode = 0x51
	OpcodeIfNe   Opcode = 0x52
	OpcodeIfLt   Opcode = 0x53
	OpcodeIfLe   Opcode = 0x54
	OpcodeIfGt   Opcode = 0x55
	OpcodeIfGe   Opcode = 0x56
	OpcodeCall   Opcode = 0x57
	OpcodeReturn Opcode = 0x58

	// Output (0x60...0x6F)
	OpcodePrint   Opcode = 0x60
	OpcodeNewline Opcode = 0x61
)

// operandKind describes a fixed-width instruction operand
type operandKind uint8

const (
	operandInt64  operandKind = iota // 8 byte signed integer immediate
	operandDouble                    // 8 byte IEEE-754 immediate
	operandConst                     // 2 byte constant pool id
	operandSlot                      // 2 byte variable slot id
	operandFunc                      // 2 byte function id
	operandOffset                    // 2 byte signed relative branch offset
)

func (k operandKind) width() int {
	switch k {
	case operandInt64, operandDouble:
		return bytesInInt64
	default:
		return bytesInInt16
	}
}

type opcodeInfo struct {
	name     string
	operands []operandKind
	effect   int
}

var opcodeTable = map[Opcode]opcodeInfo{
	OpcodeStop:         {"STOP", nil, 0},
	OpcodePushInt:      {"PUSH_INT", []operandKind{operandInt64}, 1},
	OpcodePushDouble:   {"PUSH_DOUBLE", []operandKind{operandDouble}, 1},
	OpcodePushStr:      {"PUSH_STR", []operandKind{operandConst}, 1},
	OpcodePushZero:     {"PUSH_ZERO", nil, 1},
	OpcodePushOne:      {"PUSH_ONE", nil, 1},
	OpcodePushMinusOne: {"PUSH_MINUS_ONE", nil, 1},
	OpcodePop:          {"POP", nil, -1},
	OpcodeSwap:         {"SWAP", nil, 0},
	OpcodeI2D:          {"I2D", nil, 0},
	OpcodeD2I:          {"D2I", nil, 0},
	OpcodeIAdd:         {"IADD", nil, -1},
	OpcodeISub:         {"ISUB", nil, -1},
	OpcodeIMul:         {"IMUL", nil, -1},
	OpcodeIDiv:         {"IDIV", nil, -1},
	OpcodeIMod:         {"IMOD", nil, -1},
	OpcodeINeg:         {"INEG", nil, 0},
	OpcodeICmp:         {"ICMP", nil, -1},
	OpcodeDAdd:         {"DADD", nil, -1},
	OpcodeDSub:         {"DSUB", nil, -1},
	OpcodeDMul:         {"DMUL", nil, -1},
	OpcodeDDiv:         {"DDIV", nil, -1},
	OpcodeDNeg:         {"DNEG", nil, 0},
	OpcodeDCmp:         {"DCMP", nil, -1},
	OpcodeLoad:         {"LOAD", []operandKind{operandSlot}, 1},
	OpcodeStore:        {"STORE", []operandKind{operandSlot}, -1},
	OpcodeLoadCtx:      {"LOAD_CTX", []operandKind{operandFunc, operandSlot}, 1},
	OpcodeStoreCtx:     {"STORE_CTX", []operandKind{operandFunc, operandSlot}, -1},
	OpcodeGoto:         {"GOTO", []operandKind{operandOffset}, 0},
	OpcodeIfEq:         {"IFEQ", []operandKind{operandOffset}, -1},
	OpcodeIfNe:         {"IFNE", []operandKind{operandOffset}, -1},
	OpcodeIfLt:         {"IFLT", []operandKind{operandOffset}, -1},
	OpcodeIfLe:         {"IFLE", []operandKind{operandOffset}, -1},
	OpcodeIfGt:         {"IFGT", []operandKind{operandOffset}, -1},
	OpcodeIfGe:         {"IFGE", []operandKind{operandOffset}, -1},
	OpcodeCall:         {"CALL", []operandKind{operandFunc}, 0},
	OpcodeReturn:       {"RETURN", nil, 0},
	OpcodePrint:        {"PRINT", nil, -1},
	OpcodeNewline:      {"NEWLINE", nil, 0},
}

// Valid returns true if the opcode is part of the instruction set
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

func (op Opcode) String() string {
	if info, ok := opcodeTable[op]; ok {
		return info.name
	}

	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(op))
}

// Width is the total number of bytes of an encoded instruction including the
// opcode byte itself
func (op Opcode) Width() int {
	width := 1

	for _, kind := range opcodeTable[op].operands {
		width += kind.width()
	}

	return width
}

// StackEffect is the static net change in operand stack height caused by
// executing the instruction. CALL and RETURN are 0: arguments are consumed by
// the callee's parameter stores and a return value is pushed by the callee
// before RETURN executes
func (op Opcode) StackEffect() int {
	return opcodeTable[op].effect
}

// IsBranch returns true for opcodes whose only operand is a relative offset
func (op Opcode) IsBranch() bool {
	operands := opcodeTable[op].operands
	return len(operands) == 1 && operands[0] == operandOffset
}
