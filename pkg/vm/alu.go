package vm

import "github.com/jakz/j80/pkg/ir"

// width is the set of operand widths the ALU operates over, the same
// pattern GVM's vm.go uses for its width-generic numeric constraint,
// narrowed to the two widths J80 actually has.
type width interface{ ~uint8 | ~uint16 }

func isNegative[W width](v W) bool {
	switch any(v).(type) {
	case uint8:
		return v&0x80 != 0
	default:
		return uint16(v)&0x8000 != 0
	}
}

func maxOf[W width](v W) uint64 {
	switch any(v).(type) {
	case uint8:
		return 0xFF
	default:
		return 0xFFFF
	}
}

// alu performs one width-generic ALU operation, writing dest and the
// flags register. Grounded on original_source/src/vm.cpp's VM::alu<W>
// template, with one deliberate correction: that function computes SIGN
// and OVERFLOW from the untruncated wide accumulator (an s32) rather than
// from the width-truncated result, which for ADD/ADC can never go
// negative as a 32-bit value and so can never set SIGN — silently
// disagreeing with the codebase's own (unused) aluFlagsArithmetic
// reference formula, which correctly derives SIGN/OVERFLOW from the
// truncated destination. This implementation follows that second,
// internally-consistent formula: flags are always computed from the
// value actually left in a W-width register, recorded as an Open
// Question resolution in DESIGN.md.
//
// saveResult and saveFlags are independent knobs: saveResult controls
// whether the arithmetic result is actually written to dest (false for
// CMP-class instructions, which must compute flags without mutating
// their operand), saveFlags controls whether ZERO gets updated at all.
// TRANSFER assigns dest and returns before any flag is touched; the
// bitwise and shift ops assign dest directly, whatever saveResult says;
// for the ADD/ADC/SUB/SBC family the truncated result is written to dest
// only when saveResult is set.
func alu[W width](regs *Regs, op ir.AluOp, op1, op2 W, dest *W, saveResult, saveFlags bool) {
	var wide uint64
	arithmetic := false

	switch op &^ 1 {
	case ir.TransferA8 &^ 1, ir.TransferB8 &^ 1:
		*dest = op2
		return
	case ir.ADD8 &^ 1:
		wide = uint64(op1) + uint64(op2)
		arithmetic = true
		regs.SetFlag(FlagCarry, wide > maxOf(op1))
	case ir.ADC8 &^ 1:
		carry := uint64(0)
		if regs.IsFlagSet(FlagCarry) {
			carry = 1
		}
		wide = uint64(op1) + uint64(op2) + carry
		regs.SetFlag(FlagCarry, wide > maxOf(op1))
		arithmetic = true
	case ir.SUB8 &^ 1:
		wide = uint64(op1) - uint64(op2)
		regs.SetFlag(FlagCarry, op1 < op2)
		arithmetic = true
	case ir.SBC8 &^ 1:
		carry := uint64(0)
		if regs.IsFlagSet(FlagCarry) {
			carry = 1
		}
		borrow := uint64(op2) + carry
		regs.SetFlag(FlagCarry, uint64(op1) < borrow)
		wide = uint64(op1) - borrow
		arithmetic = true
	case ir.AND8 &^ 1:
		*dest = op1 & op2
	case ir.OR8 &^ 1:
		*dest = op1 | op2
	case ir.XOR8 &^ 1:
		*dest = op1 ^ op2
	case ir.NOT8 &^ 1:
		*dest = ^op1
	case ir.LSH8 &^ 1:
		regs.SetFlag(FlagCarry, isNegative(op1))
		*dest = op1 << 1
	case ir.RSH8 &^ 1:
		regs.SetFlag(FlagCarry, op1&0x01 != 0)
		*dest = op1 >> 1
	}

	truncated := W(wide)
	if saveResult && arithmetic {
		*dest = truncated
	}

	if arithmetic {
		o1neg, o2neg, rneg := isNegative(op1), isNegative(op2), isNegative(truncated)
		regs.SetFlag(FlagSign, rneg)
		regs.SetFlag(FlagOverflow, (o1neg == o2neg) && (o1neg != rneg))
	}

	if saveFlags {
		if saveResult {
			regs.SetFlag(FlagZero, *dest == 0)
		} else {
			regs.SetFlag(FlagZero, truncated == 0)
		}
	}
}
