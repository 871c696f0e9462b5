package backend

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Disassemble renders every function of a Program in a more digestable form.
// The output is purely diagnostic and is never read back by the toolchain
func Disassemble(w io.Writer, prog *Program) error {
	if _, err := fmt.Fprintf(w, "constants (%d)\n", prog.Constants.Len()); err != nil {
		return err
	}

	for i := 0; i < prog.Constants.Len(); i++ {
		s, _ := prog.Constants.Get(ConstID(i))
		if _, err := fmt.Fprintf(w, "   #%d %s\n", i, strconv.Quote(s)); err != nil {
			return err
		}
	}

	for _, fn := range prog.Functions.All() {
		if err := DisassembleFunction(w, prog, fn); err != nil {
			return err
		}
	}

	return nil
}

// DisassembleFunction lists each instruction of a function: its starting byte
// offset, its name and any operands it may have. Branch targets are shown as
// absolute offsets and string constants are quoted
func DisassembleFunction(w io.Writer, prog *Program, fn *Function) error {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.String()
	}

	header := fmt.Sprintf("<function %s#%d (%s) %s, slots=%d>\n",
		fn.Name, fn.ID, strings.Join(params, ", "), fn.Return, fn.Slots)

	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	code := fn.Code.Bytes

	for i := 0; i < len(code); {
		line, width := disassembleInstruction(prog, code, i)

		if _, err := fmt.Fprintf(w, "   %4d %s\n", i, line); err != nil {
			return err
		}

		i += width
	}

	return nil
}

// disassembleInstruction converts a single instruction from a series of bytes
// into a printed formatted string and returns the number of bytes consumed.
// Unknown opcodes and truncated operands are rendered rather than rejected
func disassembleInstruction(prog *Program, code []byte, at int) (line string, width int) {
	op := Opcode(code[at])

	if !op.Valid() {
		return op.String(), 1
	}

	if at+op.Width() > len(code) {
		return fmt.Sprintf("%-14s <truncated>", op), len(code) - at
	}

	var args []string
	next := at + 1

	for _, kind := range opcodeTable[op].operands {
		b := code[next : next+kind.width()]
		next += kind.width()

		switch kind {
		case operandInt64:
			args = append(args, "$"+strconv.FormatInt(bytesToInt64(b), 10))
		case operandDouble:
			args = append(args, "$"+formatDouble(bytesToFloat64(b)))
		case operandConst:
			id := ConstID(bytesToUint16(b))
			s, _ := prog.Constants.Get(id)
			args = append(args, fmt.Sprintf("#%d %s", id, strconv.Quote(s)))
		case operandSlot:
			args = append(args, fmt.Sprintf("s%d", bytesToUint16(b)))
		case operandFunc:
			id := FuncID(bytesToUint16(b))
			if fn, ok := prog.Functions.Get(id); ok {
				args = append(args, fn.String())
			} else {
				args = append(args, fmt.Sprintf("f%d", id))
			}
		case operandOffset:
			args = append(args, fmt.Sprintf("-> %d", next+int(bytesToInt16(b))))
		}
	}

	if len(args) == 0 {
		return op.String(), op.Width()
	}

	return fmt.Sprintf("%-14s %s", op, strings.Join(args, ", ")), op.Width()
}
