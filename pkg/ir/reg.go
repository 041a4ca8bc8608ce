// Package ir defines the intermediate representation the assembler builds
// and the codec encodes: instructions, operand values, and the data/const
// environment used to resolve them.
package ir

// Reg is a 3-bit register index. The same numeric space is reused for two
// different register files depending on which width an instruction
// operates at: as a half register (A, D, F, Y, B, C, E, X) or as a 16-bit
// pair (BA, CD, EF, XY, SP, FP, IX, IY). Which interpretation applies is
// determined by the instruction shape and its ALU extended bit, not by the
// Reg value itself.
type Reg uint8

// Half-register names. BA pairs A (low) with B (high), CD pairs D with C,
// EF pairs F with E, XY pairs Y with X.
const (
	A Reg = iota
	D
	F
	Y
	B
	C
	E
	X
)

// Pair-register names, sharing the same 3-bit numbering as the halves
// above: pair i is composed of half i (low byte) and half i+4 (high byte)
// for i in 0..3; SP/FP/IX/IY have no half decomposition.
const (
	BA Reg = iota
	CD
	EF
	XY
	SP
	FP
	IX
	IY
)

// HighOf returns the register holding the high byte of the pair that reg
// is the low half of (SEXT's reg|0b100 trick).
func HighOf(reg Reg) Reg {
	return reg | 0b100
}

var reg8Names = [8]string{"A", "D", "F", "Y", "B", "C", "E", "X"}
var reg16Names = [8]string{"BA", "CD", "EF", "XY", "SP", "FP", "IX", "IY"}

func (r Reg) Name8() string  { return reg8Names[r&0b111] }
func (r Reg) Name16() string { return reg16Names[r&0b111] }

// ParseReg8 and ParseReg16 invert Name8/Name16, for a text assembler
// reading register operands back out of mnemonic-shaped source lines.
func ParseReg8(name string) (Reg, bool) {
	for i, n := range reg8Names {
		if n == name {
			return Reg(i), true
		}
	}
	return 0, false
}

func ParseReg16(name string) (Reg, bool) {
	for i, n := range reg16Names {
		if n == name {
			return Reg(i), true
		}
	}
	return 0, false
}

// AluOp is the 5-bit ALU sub-field carried by instructions that route
// through the ALU. Bit 0 selects operand width: 0 = 8-bit, 1 = 16-bit,
// except for LF/SF/AddNoFlags/ExtendedBit which stand alone.
type AluOp uint8

const (
	ExtendedBit AluOp = 0b00001

	TransferA8  AluOp = 0b00010
	TransferA16 AluOp = 0b00011

	TransferB8  AluOp = 0b00100
	TransferB16 AluOp = 0b00101

	AddNoFlags AluOp = 0b00111

	LF AluOp = 0b01000
	SF AluOp = 0b01010

	LSH8  AluOp = 0b01100
	LSH16 AluOp = 0b01101
	RSH8  AluOp = 0b01110
	RSH16 AluOp = 0b01111

	ADD8  AluOp = 0b10000
	ADD16 AluOp = 0b10001
	ADC8  AluOp = 0b10010
	ADC16 AluOp = 0b10011
	SUB8  AluOp = 0b10100
	SUB16 AluOp = 0b10101
	SBC8  AluOp = 0b10110
	// SBC16 is 0b10111 here, not the literal 0b101111 carried by the
	// original Alu enum (a 6-bit value that can't fit the 5-bit field and
	// breaks the otherwise-consistent "pair differs only in bit 0"
	// pattern every other ALU op follows). Treated as a typo and fixed.
	SBC16 AluOp = 0b10111

	AND8  AluOp = 0b11000
	AND16 AluOp = 0b11001
	OR8   AluOp = 0b11010
	OR16  AluOp = 0b11011
	XOR8  AluOp = 0b11100
	XOR16 AluOp = 0b11101
	NOT8  AluOp = 0b11110
	NOT16 AluOp = 0b11111
)

// Extended reports whether op operates on 16-bit operands.
func (op AluOp) Extended() bool { return op&ExtendedBit == ExtendedBit }

var aluNames = map[AluOp]string{
	TransferA8: "XFER_A", TransferA16: "XFER_A",
	TransferB8: "XFER_B", TransferB16: "XFER_B",
	ADD8: "ADD", ADD16: "ADD", ADC8: "ADC", ADC16: "ADC",
	SUB8: "SUB", SUB16: "SUB", SBC8: "SBC", SBC16: "SBC",
	AND8: "AND", AND16: "AND", OR8: "OR", OR16: "OR",
	XOR8: "XOR", XOR16: "XOR", NOT8: "NOT", NOT16: "NOT",
	LSH8: "LSH", LSH16: "LSH", RSH8: "RSH", RSH16: "RSH",
	LF: "LF", SF: "SF",
}

func (op AluOp) Name() string {
	if n, ok := aluNames[op]; ok {
		return n
	}
	return "?"
}

// Cond is the 4-bit jump/call/return condition code.
type Cond uint8

const (
	CondCarry     Cond = 0b0000
	CondZero      Cond = 0b0001
	CondSign      Cond = 0b0010
	CondOverflow  Cond = 0b0011
	CondNCarry    Cond = 0b0100
	CondNZero     Cond = 0b0101
	CondNSign     Cond = 0b0110
	CondNOverflow Cond = 0b0111
	CondUncond    Cond = 0b1000
)

var condNames = map[Cond]string{
	CondCarry: "C", CondZero: "Z", CondSign: "S", CondOverflow: "O",
	CondNCarry: "NC", CondNZero: "NZ", CondNSign: "NS", CondNOverflow: "NO",
	CondUncond: "",
}

func (c Cond) Name() string { return condNames[c] }

// ParseCond inverts Name for the condition mnemonics JMPC/CALLC/RETC
// carry (e.g. "Z", "NC"); "" parses as CondUncond so JMP/CALL/RET's bare
// form round-trips too.
func ParseCond(name string) (Cond, bool) {
	if name == "" {
		return CondUncond, true
	}
	for c, n := range condNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// ParseAluName inverts Name for an ALU mnemonic keyword at a given
// width, since the same keyword (e.g. "ADD") maps to either the 8-bit or
// 16-bit member of the pair depending on context.
func ParseAluName(name string, extended bool) (AluOp, bool) {
	for op, n := range aluNames {
		if n == name && op.Extended() == extended {
			return op, true
		}
	}
	return 0, false
}
