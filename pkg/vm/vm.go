// Package vm executes assembled J80 images: a flat 64 KiB memory space, an
// eight-register file with overlapping 8/16-bit views, a width-generic
// ALU, and a fetch/decode/execute loop built on pkg/codec.Decode.
package vm

import (
	"sync/atomic"

	"github.com/jakz/j80/pkg/codec"
	"github.com/jakz/j80/pkg/ir"
)

// StdOut receives every byte the program writes to the memory-mapped
// output address (0xFFFF). Grounded on original_source/src/vm.h's
// abstract StdOut class.
type StdOut interface {
	Out(value uint8)
}

// StdOutFunc adapts a plain function to StdOut.
type StdOutFunc func(uint8)

func (f StdOutFunc) Out(v uint8) { f(v) }

// VM is one J80 machine: registers, a full 64 KiB RAM array, interrupt
// enable state, a set of breakpoint addresses and an optional stdout sink.
type VM struct {
	Regs   Regs
	RAM    [65536]byte
	StdOut StdOut

	InterruptEnabled bool
	dataSegmentStart uint16

	Breakpoints map[uint16]bool

	// DebugSymbols optionally maps a code address to the source line it
	// came from, populated by the assembler and carried through for a
	// debugger to display. Purely informational; never consulted by Step.
	DebugSymbols map[uint16]string
}

// New creates a VM with zeroed registers and RAM.
func New() *VM {
	return &VM{Breakpoints: make(map[uint16]bool)}
}

// Reset clears the register file only; RAM is left untouched, matching
// original_source/src/vm.h's reset() exactly.
func (v *VM) Reset() { v.Regs.Reset() }

// SetDataSegmentStart records where the data segment begins in RAM, for
// tooling (e.g. a debugger's memory view) that wants to tell code from
// data at a glance. Never consulted by Step/Run.
func (v *VM) SetDataSegmentStart(addr uint16) { v.dataSegmentStart = addr }
func (v *VM) DataSegmentStart() uint16        { return v.dataSegmentStart }

// LoadImage copies code then data into RAM starting at offset, mirroring
// original_source/src/vm.h's copyToRam (a plain memcpy, no bounds
// negotiation beyond what the fixed-size RAM array already enforces).
func (v *VM) LoadImage(code, data []byte, offset uint16) {
	copy(v.RAM[offset:], code)
	copy(v.RAM[int(offset)+len(code):], data)
}

// ramRead reads one byte. Unlike writes, reads are never intercepted —
// address 0xFFFF reads back whatever was last written to RAM there, not
// anything from StdOut. Grounded on VM::ramRead's direct array access.
func (v *VM) ramRead(addr uint16) uint8 { return v.RAM[addr] }

// ramWrite writes one byte, routing address 0xFFFF to StdOut instead of
// RAM when a sink is attached. Grounded on VM::ramWrite.
func (v *VM) ramWrite(addr uint16, value uint8) {
	if addr == 0xFFFF && v.StdOut != nil {
		v.StdOut.Out(value)
		return
	}
	v.RAM[addr] = value
}

// Step decodes and executes exactly one instruction at PC, advancing PC
// by its own effect (either the instruction's length, or a jump/call/ret
// directly assigning a new PC). Grounded line-for-line on
// original_source/src/vm.cpp's executeInstruction.
func (v *VM) Step() error {
	instr, err := codec.Decode(v.RAM[:], v.Regs.PC)
	if err != nil {
		return err
	}

	length := instr.Length()

	switch instr.Shape {
	case ir.ShapeNOP, ir.ShapeEI, ir.ShapeDI, ir.ShapeSEXT:
		switch instr.Shape {
		case ir.ShapeEI:
			v.InterruptEnabled = true
		case ir.ShapeDI:
			v.InterruptEnabled = false
		case ir.ShapeSEXT:
			lo := v.Regs.Get8(instr.Dst)
			hi := ir.HighOf(instr.Dst)
			if lo&0x80 != 0 {
				v.Regs.Set8(hi, 0xFF)
			} else {
				v.Regs.Set8(hi, 0x00)
			}
		}

	case ir.ShapeLdRshLsh:
		if instr.Alu.Extended() {
			op1, op2 := v.Regs.Get16(instr.Dst), v.Regs.Get16(instr.Src)
			dest := op1
			alu(&v.Regs, instr.Alu, op1, op2, &dest, true, true)
			v.Regs.Set16(instr.Dst, dest)
		} else {
			op1, op2 := v.Regs.Get8(instr.Dst), v.Regs.Get8(instr.Src)
			dest := op1
			alu(&v.Regs, instr.Alu, op1, op2, &dest, true, true)
			v.Regs.Set8(instr.Dst, dest)
		}

	case ir.ShapeAluReg:
		if instr.Alu.Extended() {
			op1, op2 := v.Regs.Get16(instr.Src), v.Regs.Get16(instr.Src2)
			var dest uint16
			alu(&v.Regs, instr.Alu, op1, op2, &dest, true, true)
			v.Regs.Set16(instr.Dst, dest)
		} else {
			op1, op2 := v.Regs.Get8(instr.Src), v.Regs.Get8(instr.Src2)
			var dest uint8
			alu(&v.Regs, instr.Alu, op1, op2, &dest, true, true)
			v.Regs.Set8(instr.Dst, dest)
		}

	case ir.ShapeAluNN:
		op1, op2 := v.Regs.Get8(instr.Src), instr.Imm8.Value
		var dest uint8
		alu(&v.Regs, instr.Alu, op1, op2, &dest, true, true)
		v.Regs.Set8(instr.Dst, dest)

	case ir.ShapeAluNNNN:
		op1, op2 := v.Regs.Get16(instr.Src), instr.Imm16.Value
		var dest uint16
		alu(&v.Regs, instr.Alu, op1, op2, &dest, true, true)
		v.Regs.Set16(instr.Dst, dest)

	case ir.ShapeCmpReg:
		if instr.Alu.Extended() {
			op1, op2 := v.Regs.Get16(instr.Dst), v.Regs.Get16(instr.Src)
			alu(&v.Regs, instr.Alu, op1, op2, &op1, false, true)
		} else {
			op1, op2 := v.Regs.Get8(instr.Dst), v.Regs.Get8(instr.Src)
			alu(&v.Regs, instr.Alu, op1, op2, &op1, false, true)
		}

	case ir.ShapeCmpNN:
		op1 := v.Regs.Get8(instr.Dst)
		alu(&v.Regs, instr.Alu, op1, instr.Imm8.Value, &op1, false, true)

	case ir.ShapeCmpNNNN:
		op1 := v.Regs.Get16(instr.Dst)
		alu(&v.Regs, instr.Alu, op1, instr.Imm16.Value, &op1, false, true)

	case ir.ShapeLdRNN:
		v.Regs.Set8(instr.Dst, instr.Imm8.Value)

	case ir.ShapeLdPNNNN:
		v.Regs.Set16(instr.Dst, instr.Imm16.Value)

	case ir.ShapeLdRPtrNNNN:
		v.Regs.Set8(instr.Dst, v.ramRead(instr.Imm16.Value))

	case ir.ShapeLdRPtrPP:
		addr := v.Regs.Get16(instr.Src) + uint16(int16(instr.Offset))
		v.Regs.Set8(instr.Dst, v.ramRead(addr))

	case ir.ShapeSdPtrNNNN:
		v.ramWrite(instr.Imm16.Value, v.Regs.Get8(instr.Dst))

	case ir.ShapeSdPtrPP:
		addr := v.Regs.Get16(instr.Src) + uint16(int16(instr.Offset))
		v.ramWrite(addr, v.Regs.Get8(instr.Dst))

	case ir.ShapeJmp:
		if v.Regs.ConditionTrue(instr.Cond) {
			v.Regs.PC = instr.Target.Value
			length = 0
		}

	case ir.ShapeJmpPP:
		if v.Regs.ConditionTrue(instr.Cond) {
			v.Regs.PC = v.Regs.Get16(instr.Src)
			length = 0
		}

	case ir.ShapePush:
		sp := v.Regs.Get16(ir.SP) - 1
		v.ramWrite(sp, v.Regs.Get8(instr.Dst))
		v.Regs.Set16(ir.SP, sp)

	case ir.ShapePush16:
		r := v.Regs.Get16(instr.Dst)
		sp := v.Regs.Get16(ir.SP)
		sp--
		v.ramWrite(sp, uint8(r))
		sp--
		v.ramWrite(sp, uint8(r>>8))
		v.Regs.Set16(ir.SP, sp)

	case ir.ShapePop:
		sp := v.Regs.Get16(ir.SP)
		v.Regs.Set8(instr.Dst, v.ramRead(sp))
		v.Regs.Set16(ir.SP, sp+1)

	case ir.ShapePop16:
		sp := v.Regs.Get16(ir.SP)
		hi := v.ramRead(sp)
		sp++
		lo := v.ramRead(sp)
		sp++
		v.Regs.Set16(instr.Dst, uint16(hi)<<8|uint16(lo))
		v.Regs.Set16(ir.SP, sp)

	case ir.ShapeRet:
		if v.Regs.ConditionTrue(instr.Cond) {
			sp := v.Regs.Get16(ir.SP)
			hi := v.ramRead(sp)
			sp++
			lo := v.ramRead(sp)
			sp++
			v.Regs.Set16(ir.SP, sp)
			v.Regs.PC = uint16(hi)<<8 | uint16(lo)
			length = 0
		}

	case ir.ShapeCall:
		if v.Regs.ConditionTrue(instr.Cond) {
			ret := v.Regs.PC + 3
			sp := v.Regs.Get16(ir.SP)
			sp--
			v.ramWrite(sp, uint8(ret))
			sp--
			v.ramWrite(sp, uint8(ret>>8))
			v.Regs.Set16(ir.SP, sp)
			v.Regs.PC = instr.Target.Value
			length = 0
		}

	case ir.ShapeLF:
		v.Regs.Flags = 0x0F & v.Regs.Get8(instr.Dst)

	case ir.ShapeSF:
		v.Regs.Set8(instr.Dst, 0x0F&v.Regs.Flags)
	}

	v.Regs.PC += length
	return nil
}

// Run steps the VM until stop reports true (checked once per instruction,
// polled from another goroutine so a host UI can request a pause while
// the VM runs on its own goroutine), or PC lands on a breakpoint, or
// Step returns an error.
func (v *VM) Run(stop *atomic.Bool) error {
	for {
		if stop != nil && stop.Load() {
			return nil
		}
		if v.Breakpoints[v.Regs.PC] {
			return nil
		}
		if err := v.Step(); err != nil {
			return err
		}
	}
}

// SetBreakpoint and ClearBreakpoint manage the address set Run stops at.
func (v *VM) SetBreakpoint(addr uint16)   { v.Breakpoints[addr] = true }
func (v *VM) ClearBreakpoint(addr uint16) { delete(v.Breakpoints, addr) }
