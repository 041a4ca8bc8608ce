// Package codec implements the J80 wire format: encoding an ir.Instruction
// into its canonical byte sequence and decoding bytes back into an
// ir.Instruction, plus the opcode bit-map and per-opcode length table that
// define that format.
package codec

// Opcode is the 5-bit instruction class occupying the top bits of an
// instruction's first byte. Values are pinned exactly as in
// original_source/src/opcodes.h's `enum Opcode` — this bit-map is the one
// part of the format already baked into files in the wild and must not be
// renumbered.
type Opcode uint8

const (
	OpNOP Opcode = 0b00000
	OpSEXT Opcode = 0b00001
	OpEI   Opcode = 0b00010
	OpDI   Opcode = 0b00011

	OpAluReg  Opcode = 0b00100
	OpAluNN   Opcode = 0b00101
	OpAluNNNN Opcode = 0b00110

	OpLF     Opcode = 0b01000
	OpPush16 Opcode = 0b01001
	OpSF     Opcode = 0b01010
	OpPop16  Opcode = 0b01011

	OpCmpReg  Opcode = 0b01100
	OpCmpNN   Opcode = 0b01101
	OpCmpNNNN Opcode = 0b01110
	OpPop     Opcode = 0b01111

	OpLdRshLsh Opcode = 0b10000
	OpLdRNN    Opcode = 0b10001
	OpLdPNNNN  Opcode = 0b10010
	OpPush     Opcode = 0b10011

	OpLdRPtrNNNN Opcode = 0b10100
	OpLdRPtrPP   Opcode = 0b10101
	OpSdPtrNNNN  Opcode = 0b10110
	OpSdPtrPP    Opcode = 0b10111

	OpJmpcNNNN Opcode = 0b11000
	OpJmpNNNN  Opcode = 0b11001
	OpJmpcPP   Opcode = 0b11010
	OpJmpPP    Opcode = 0b11011

	OpRetc Opcode = 0b11100
	OpRet  Opcode = 0b11101
	OpCallc Opcode = 0b11110
	OpCall  Opcode = 0b11111
)

// lengths is indexed by the 5-bit Opcode value and gives the canonical
// encoded instruction length, grounded in
// original_source/src/vm.cpp's executeInstruction (the length each case
// assigns when the instruction is NOT a taken/untaken branch shortcut —
// conditional branches always occupy their full length in the byte
// stream even though the VM only advances PC by it when the branch isn't
// taken). A zero entry marks an opcode value with no defined instruction.
var lengths = [32]uint16{
	OpNOP: 1, OpSEXT: 1, OpEI: 1, OpDI: 1,
	OpAluReg: 3, OpAluNN: 3, OpAluNNNN: 4,
	OpLF: 1, OpPush16: 1, OpSF: 1, OpPop16: 1,
	OpCmpReg: 2, OpCmpNN: 3, OpCmpNNNN: 4, OpPop: 1,
	OpLdRshLsh: 2, OpLdRNN: 3, OpLdPNNNN: 3, OpPush: 1,
	OpLdRPtrNNNN: 3, OpLdRPtrPP: 3, OpSdPtrNNNN: 3, OpSdPtrPP: 3,
	OpJmpcNNNN: 3, OpJmpNNNN: 3, OpJmpcPP: 2, OpJmpPP: 2,
	OpRetc: 1, OpRet: 1, OpCallc: 3, OpCall: 3,
}

// Length returns the canonical byte length of op, or 0 if op is not a
// defined opcode.
func (op Opcode) Length() uint16 { return lengths[op&0x1F] }

// Valid reports whether op corresponds to a defined instruction.
func (op Opcode) Valid() bool { return lengths[op&0x1F] != 0 }
