package backend

// Instruction is anything that can be encoded into a Bytecode stream
type Instruction interface {
	Generate() []byte
}

// Simple <opcode>
//   - any instruction without operands (arithmetic, comparison, stack
//     shuffling, PRINT, RETURN, STOP...)
type Simple struct {
	Op Opcode
}

// Generate converts this instruction to raw bytes
func (inst Simple) Generate() (blob []byte) {
	return []byte{byte(inst.Op)}
}

// PushInt <64 bit integer value>
type PushInt struct {
	Value int64
}

// Generate converts this instruction to raw bytes
func (inst PushInt) Generate() (blob []byte) {
	blob = append(blob, byte(OpcodePushInt))
	blob = append(blob, int64ToBytes(inst.Value)...)
	return blob
}

// PushDouble <64 bit floating point value>
type PushDouble struct {
	Value float64
}

// Generate converts this instruction to raw bytes
func (inst PushDouble) Generate() (blob []byte) {
	blob = append(blob, byte(OpcodePushDouble))
	blob = append(blob, float64ToBytes(inst.Value)...)
	return blob
}

// PushStr <constant pool index>
type PushStr struct {
	Const ConstID
}

// Generate converts this instruction to raw bytes
func (inst PushStr) Generate() (blob []byte) {
	blob = append(blob, byte(OpcodePushStr))
	blob = append(blob, uint16ToBytes(uint16(inst.Const))...)
	return blob
}

// Load <slot>
//   - pushes the value of a slot in the active frame
type Load struct {
	Slot SlotID
}

// Generate converts this instruction to raw bytes
func (inst Load) Generate() (blob []byte) {
	blob = append(blob, byte(OpcodeLoad))
	blob = append(blob, uint16ToBytes(uint16(inst.Slot))...)
	return blob
}

// Store <slot>
//   - pops a value into a slot of the active frame
type Store struct {
	Slot SlotID
}

// Generate converts this instruction to raw bytes
func (inst Store) Generate() (blob []byte) {
	blob = append(blob, byte(OpcodeStore))
	blob = append(blob, uint16ToBytes(uint16(inst.Slot))...)
	return blob
}

// LoadCtx <function id> <slot>
//   - pushes the value of a slot in the nearest frame of the given function
type LoadCtx struct {
	Context FuncID
	Slot    SlotID
}

// Generate converts this instruction to raw bytes
func (inst LoadCtx) Generate() (blob []byte) {
	blob = append(blob, byte(OpcodeLoadCtx))
	blob = append(blob, uint16ToBytes(uint16(inst.Context))...)
	blob = append(blob, uint16ToBytes(uint16(inst.Slot))...)
	return blob
}

// StoreCtx <function id> <slot>
//   - pops a value into a slot of the nearest frame of the given function
type StoreCtx struct {
	Context FuncID
	Slot    SlotID
}

// Generate converts this instruction to raw bytes
func (inst StoreCtx) Generate() (blob []byte) {
	blob = append(blob, byte(OpcodeStoreCtx))
	blob = append(blob, uint16ToBytes(uint16(inst.Context))...)
	blob = append(blob, uint16ToBytes(uint16(inst.Slot))...)
	return blob
}

// Call <function id>
type Call struct {
	Function FuncID
}

// Generate converts this instruction to raw bytes
func (inst Call) Generate() (blob []byte) {
	blob = append(blob, byte(OpcodeCall))
	blob = append(blob, uint16ToBytes(uint16(inst.Function))...)
	return blob
}

// Branch <16 bit relative offset>
//   - GOTO or one of the IF<rel> family
//   - Offset field MUST BE LAST 2 BYTES OF INSTRUCTION (see bytecode.go @ Finalize)
type Branch struct {
	Op     Opcode
	Offset int16
}

// Generate converts this instruction to raw bytes
func (inst Branch) Generate() (blob []byte) {
	blob = append(blob, byte(inst.Op))
	blob = append(blob, int16ToBytes(inst.Offset)...)
	return blob
}
