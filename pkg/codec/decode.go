package codec

import (
	"github.com/jakz/j80/pkg/ir"
)

// fetch reads up to 4 bytes starting at pc from mem, treating any index
// past the end as zero. The VM passes its full 64 KiB RAM array, where
// this only matters within 3 bytes of the top of the address space; the
// disassembler passes just the code segment, where it also covers an
// instruction cut off at the end of that slice.
func fetch(mem []byte, pc uint16) [4]byte {
	var d [4]byte
	for i := range d {
		addr := int(pc) + i
		if addr < len(mem) {
			d[i] = mem[addr]
		}
	}
	return d
}

// Decode reads one instruction from mem starting at pc and returns it
// alongside its encoded length. Every operand value in the returned
// instruction is a resolved ir.Literal — Decode is the mathematical
// inverse of Encode, never a parser.
func Decode(mem []byte, pc uint16) (ir.Instruction, error) {
	d := fetch(mem, pc)

	op := Opcode(d[0] >> 3)
	if !op.Valid() {
		return ir.Instruction{}, &ir.InvalidOpcodeError{Opcode: uint8(op), Address: pc}
	}

	reg1 := ir.Reg(d[0] & 0b111)
	reg2 := ir.Reg(d[1] >> 5)
	reg3 := ir.Reg(d[2] >> 5)
	alu := ir.AluOp(d[1] & 0b11111)
	imm8 := d[2]
	offset := int8(d[2])
	// 16-bit immediates for ALU/CMP *_NNNN forms: little-endian, low byte
	// first at d[2], high byte at d[3].
	immLE := uint16(d[2]) | uint16(d[3])<<8
	// Jump/call/load-immediate-address targets: big-endian, high byte at
	// d[1], low byte at d[2] — the one asymmetry in the format, pinned by
	// original_source/src/instruction.h's InstructionJMP_NNNN/CALL_NNNN
	// encoders and src/vm.cpp's executeInstruction decode of `short1`.
	addrBE := uint16(d[1])<<8 | uint16(d[2])

	switch op {
	case OpNOP:
		return ir.Instruction{Shape: ir.ShapeNOP}, nil
	case OpSEXT:
		return ir.Instruction{Shape: ir.ShapeSEXT, Dst: reg1}, nil
	case OpEI:
		return ir.Instruction{Shape: ir.ShapeEI}, nil
	case OpDI:
		return ir.Instruction{Shape: ir.ShapeDI}, nil

	case OpLdRshLsh:
		return ir.Instruction{Shape: ir.ShapeLdRshLsh, Dst: reg1, Src: reg2, Alu: alu}, nil

	case OpAluReg:
		return ir.Instruction{Shape: ir.ShapeAluReg, Dst: reg1, Src: reg2, Src2: reg3, Alu: alu}, nil

	case OpAluNN:
		return ir.Instruction{Shape: ir.ShapeAluNN, Dst: reg1, Src: reg2, Alu: alu, Imm8: ir.LitValue8(imm8)}, nil

	case OpAluNNNN:
		return ir.Instruction{Shape: ir.ShapeAluNNNN, Dst: reg1, Src: reg2, Alu: alu, Imm16: ir.LitValue16(immLE)}, nil

	case OpCmpReg:
		return ir.Instruction{Shape: ir.ShapeCmpReg, Dst: reg1, Src: reg2, Alu: alu}, nil

	case OpCmpNN:
		return ir.Instruction{Shape: ir.ShapeCmpNN, Dst: reg1, Alu: alu, Imm8: ir.LitValue8(imm8)}, nil

	case OpCmpNNNN:
		return ir.Instruction{Shape: ir.ShapeCmpNNNN, Dst: reg1, Alu: alu, Imm16: ir.LitValue16(immLE)}, nil

	case OpLdRNN:
		return ir.Instruction{Shape: ir.ShapeLdRNN, Dst: reg1, Imm8: ir.LitValue8(imm8)}, nil

	case OpLdPNNNN:
		return ir.Instruction{Shape: ir.ShapeLdPNNNN, Dst: reg1, Imm16: ir.LitValue16(addrBE)}, nil

	case OpLdRPtrNNNN:
		return ir.Instruction{Shape: ir.ShapeLdRPtrNNNN, Dst: reg1, Imm16: ir.LitValue16(addrBE)}, nil

	case OpLdRPtrPP:
		return ir.Instruction{Shape: ir.ShapeLdRPtrPP, Dst: reg1, Src: reg2, Offset: offset}, nil

	case OpSdPtrNNNN:
		return ir.Instruction{Shape: ir.ShapeSdPtrNNNN, Dst: reg1, Imm16: ir.LitValue16(addrBE)}, nil

	case OpSdPtrPP:
		return ir.Instruction{Shape: ir.ShapeSdPtrPP, Dst: reg1, Src: reg2, Offset: offset}, nil

	case OpJmpNNNN:
		return ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.CondUncond, Target: ir.LitValue16(addrBE)}, nil
	case OpJmpcNNNN:
		return ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.Cond(d[0] & 0b111), Target: ir.LitValue16(addrBE)}, nil

	case OpJmpPP:
		return ir.Instruction{Shape: ir.ShapeJmpPP, Cond: ir.CondUncond, Src: reg2}, nil
	case OpJmpcPP:
		return ir.Instruction{Shape: ir.ShapeJmpPP, Cond: ir.Cond(d[0] & 0b111), Src: reg2}, nil

	case OpRet:
		return ir.Instruction{Shape: ir.ShapeRet, Cond: ir.CondUncond}, nil
	case OpRetc:
		return ir.Instruction{Shape: ir.ShapeRet, Cond: ir.Cond(d[0] & 0b111)}, nil

	case OpCall:
		return ir.Instruction{Shape: ir.ShapeCall, Cond: ir.CondUncond, Target: ir.LitValue16(addrBE)}, nil
	case OpCallc:
		return ir.Instruction{Shape: ir.ShapeCall, Cond: ir.Cond(d[0] & 0b111), Target: ir.LitValue16(addrBE)}, nil

	case OpPush:
		return ir.Instruction{Shape: ir.ShapePush, Dst: reg1}, nil
	case OpPush16:
		return ir.Instruction{Shape: ir.ShapePush16, Dst: reg1}, nil
	case OpPop:
		return ir.Instruction{Shape: ir.ShapePop, Dst: reg1}, nil
	case OpPop16:
		return ir.Instruction{Shape: ir.ShapePop16, Dst: reg1}, nil

	case OpLF:
		return ir.Instruction{Shape: ir.ShapeLF, Dst: reg1}, nil
	case OpSF:
		return ir.Instruction{Shape: ir.ShapeSF, Dst: reg1}, nil

	default:
		return ir.Instruction{}, &ir.InvalidOpcodeError{Opcode: uint8(op), Address: pc}
	}
}
