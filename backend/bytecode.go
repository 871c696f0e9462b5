package backend

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnboundLabel is returned by Finalize when a label was never bound
var ErrUnboundLabel = errors.New("unbound label")

// Bytecode is an append-only byte-slice of raw compiled instructions. Forward
// and backward branches are written with a zero offset and patched in place
// once every label of the stream has been bound
type Bytecode struct {
	Bytes  []byte
	labels []*Label
}

// Label marks a position in a Bytecode stream that branches can target. A
// label is bound exactly once
type Label struct {
	id         int
	bound      bool
	address    int
	placesHeld []int
}

// Write implements io.Writer for the Bytecode struct so that in the compilation
// stage instructions can more easily write their bytes to the byte buffer
func (b *Bytecode) Write(p []byte) (n int, err error) {
	b.Bytes = append(b.Bytes, p...)
	return len(p), nil
}

// Len returns the number of bytes written so far
func (b *Bytecode) Len() int {
	return len(b.Bytes)
}

// Emit appends an encoded instruction to the stream
func (b *Bytecode) Emit(inst Instruction) {
	b.Write(inst.Generate())
}

// NewLabel creates an unbound label owned by this stream
func (b *Bytecode) NewLabel() *Label {
	label := &Label{id: len(b.labels)}
	b.labels = append(b.labels, label)
	return label
}

// Bind attaches a label to the current end of the stream
func (b *Bytecode) Bind(label *Label) error {
	if label.bound {
		return fmt.Errorf("label L%d bound twice", label.id)
	}

	label.bound = true
	label.address = b.Len()
	return nil
}

// EmitBranch writes a branch instruction whose offset will be resolved to the
// given label during Finalize
func (b *Bytecode) EmitBranch(op Opcode, label *Label) {
	b.Emit(Branch{Op: op})
	label.placesHeld = append(label.placesHeld, b.Len()-bytesInInt16)
}

// Finalize resolves every branch recorded by EmitBranch. Offsets are relative
// to the byte following the offset operand and must fit in 16 bits
func (b *Bytecode) Finalize() error {
	for _, label := range b.labels {
		if !label.bound {
			return fmt.Errorf("%w L%d", ErrUnboundLabel, label.id)
		}

		// Overwrite the empty offset field at each place-held location
		for _, heldAddr := range label.placesHeld {
			offset := label.address - (heldAddr + bytesInInt16)

			if offset < math.MinInt16 || offset > math.MaxInt16 {
				return fmt.Errorf("jump offset %d out of range", offset)
			}

			copy(b.Bytes[heldAddr:], int16ToBytes(int16(offset)))
		}
	}

	return nil
}
