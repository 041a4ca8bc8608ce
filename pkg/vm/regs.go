package vm

import "github.com/jakz/j80/pkg/ir"

// Regs is the J80 register file. The eight half registers overlap the
// four 16-bit pairs by construction — there is no separate pair field to
// fall out of sync, the same invariant original_source/src/vm.h enforces
// with C unions: half index i (0..3) is a pair's low byte, half index i+4
// is its high byte, for pair i in 0..3 (BA, CD, EF, XY). SP/FP/IX/IY have
// no half decomposition and live in a separate plain array.
type Regs struct {
	halves [8]uint8
	wide   [4]uint16 // SP, FP, IX, IY
	Flags  uint8
	PC     uint16
}

// Get8 reads an 8-bit half register.
func (r *Regs) Get8(reg ir.Reg) uint8 { return r.halves[reg&0b111] }

// Set8 writes an 8-bit half register.
func (r *Regs) Set8(reg ir.Reg, v uint8) { r.halves[reg&0b111] = v }

// Get16 reads a 16-bit register: a low/high half pair for reg 0..3, or a
// plain word register for reg 4..7.
func (r *Regs) Get16(reg ir.Reg) uint16 {
	i := reg & 0b111
	if i < 4 {
		return uint16(r.halves[i]) | uint16(r.halves[i+4])<<8
	}
	return r.wide[i-4]
}

// Set16 writes a 16-bit register, through the same low/high decomposition
// Get16 reads back.
func (r *Regs) Set16(reg ir.Reg, v uint16) {
	i := reg & 0b111
	if i < 4 {
		r.halves[i] = uint8(v)
		r.halves[i+4] = uint8(v >> 8)
		return
	}
	r.wide[i-4] = v
}

// Reset zeroes the register file. RAM is untouched — resetting the VM
// never clears memory, matching original_source/src/vm.h's reset()
// (memset(&regs, 0, sizeof(Regs)), nothing touching `memory`).
func (r *Regs) Reset() { *r = Regs{} }

// Flag bits, pinned exactly as original_source/src/vm.h's `enum Flag`.
const (
	FlagCarry    uint8 = 0b0001
	FlagZero     uint8 = 0b0010
	FlagSign     uint8 = 0b0100
	FlagOverflow uint8 = 0b1000
)

func (r *Regs) SetFlag(bit uint8, v bool) {
	if v {
		r.Flags |= bit
	} else {
		r.Flags &^= bit
	}
}

func (r *Regs) IsFlagSet(bit uint8) bool { return r.Flags&bit != 0 }

// regsGob mirrors Regs with exported fields, since gob silently drops
// unexported ones — Halves/Wide would otherwise vanish from any
// snapshot taken via pkg/vm's Save/Load.
type regsGob struct {
	Halves [8]uint8
	Wide   [4]uint16
	Flags  uint8
	PC     uint16
}

func (r Regs) GobEncode() ([]byte, error) {
	return gobEncode(regsGob{Halves: r.halves, Wide: r.wide, Flags: r.Flags, PC: r.PC})
}

func (r *Regs) GobDecode(data []byte) error {
	var g regsGob
	if err := gobDecode(data, &g); err != nil {
		return err
	}
	r.halves = g.Halves
	r.wide = g.Wide
	r.Flags = g.Flags
	r.PC = g.PC
	return nil
}

// ConditionTrue evaluates a branch condition against the current flags.
// Grounded on original_source/src/vm.cpp's VM::isConditionTrue.
func (r *Regs) ConditionTrue(cond ir.Cond) bool {
	switch cond {
	case ir.CondCarry:
		return r.IsFlagSet(FlagCarry)
	case ir.CondNCarry:
		return !r.IsFlagSet(FlagCarry)
	case ir.CondZero:
		return r.IsFlagSet(FlagZero)
	case ir.CondNZero:
		return !r.IsFlagSet(FlagZero)
	case ir.CondOverflow:
		return r.IsFlagSet(FlagOverflow)
	case ir.CondNOverflow:
		return !r.IsFlagSet(FlagOverflow)
	case ir.CondSign:
		return r.IsFlagSet(FlagSign)
	case ir.CondNSign:
		return !r.IsFlagSet(FlagSign)
	case ir.CondUncond:
		return true
	default:
		return false
	}
}
