package codec

import (
	"fmt"

	"github.com/jakz/j80/pkg/ir"
)

// Encode serializes a fully-resolved ir.Instruction into its canonical
// byte sequence. Every Value8/Value16 the instruction carries must already
// be a Literal (resolve against an ir.Env first); Encode does not attempt
// symbolic resolution itself.
func Encode(i *ir.Instruction) ([]byte, error) {
	if i.MustResolve() {
		return nil, fmt.Errorf("codec: instruction has unresolved operands")
	}

	switch i.Shape {
	case ir.ShapeNOP:
		return []byte{byte(OpNOP) << 3}, nil

	case ir.ShapeSEXT:
		return []byte{byte(OpSEXT)<<3 | byte(i.Dst&0b111)}, nil

	case ir.ShapeEI:
		return []byte{byte(OpEI) << 3}, nil
	case ir.ShapeDI:
		return []byte{byte(OpDI) << 3}, nil

	case ir.ShapeLdRshLsh:
		return []byte{
			byte(OpLdRshLsh)<<3 | byte(i.Dst&0b111),
			byte(i.Src&0b111)<<5 | byte(i.Alu&0b11111),
		}, nil

	case ir.ShapeAluReg:
		return []byte{
			byte(OpAluReg)<<3 | byte(i.Dst&0b111),
			byte(i.Src&0b111)<<5 | byte(i.Alu&0b11111),
			byte(i.Src2&0b111) << 5,
		}, nil

	case ir.ShapeAluNN:
		return []byte{
			byte(OpAluNN)<<3 | byte(i.Dst&0b111),
			byte(i.Src&0b111)<<5 | byte(i.Alu&0b11111),
			i.Imm8.Value,
		}, nil

	case ir.ShapeAluNNNN:
		return []byte{
			byte(OpAluNNNN)<<3 | byte(i.Dst&0b111),
			byte(i.Src&0b111)<<5 | byte(i.Alu&0b11111),
			byte(i.Imm16.Value),      // low byte (non-jump 16-bit immediates are little-endian)
			byte(i.Imm16.Value >> 8), // high byte
		}, nil

	case ir.ShapeCmpReg:
		return []byte{
			byte(OpCmpReg)<<3 | byte(i.Dst&0b111),
			byte(i.Src&0b111)<<5 | byte(i.Alu&0b11111),
		}, nil

	case ir.ShapeCmpNN:
		return []byte{
			byte(OpCmpNN)<<3 | byte(i.Dst&0b111),
			byte(i.Alu & 0b11111),
			i.Imm8.Value,
		}, nil

	case ir.ShapeCmpNNNN:
		return []byte{
			byte(OpCmpNNNN)<<3 | byte(i.Dst&0b111),
			byte(i.Alu & 0b11111),
			byte(i.Imm16.Value),
			byte(i.Imm16.Value >> 8),
		}, nil

	case ir.ShapeLdRNN:
		return []byte{
			byte(OpLdRNN)<<3 | byte(i.Dst&0b111),
			byte(ir.TransferB8),
			i.Imm8.Value,
		}, nil

	case ir.ShapeLdPNNNN:
		return []byte{
			byte(OpLdPNNNN)<<3 | byte(i.Dst&0b111),
			byte(i.Imm16.Value >> 8), // 16-bit load immediates reuse the ALU-field
			byte(i.Imm16.Value),      // byte slot as the high immediate byte: big-endian
		}, nil

	case ir.ShapeLdRPtrNNNN:
		return []byte{
			byte(OpLdRPtrNNNN)<<3 | byte(i.Dst&0b111),
			byte(i.Imm16.Value >> 8), // address, big-endian (matches JMP/CALL convention)
			byte(i.Imm16.Value),
		}, nil

	case ir.ShapeLdRPtrPP:
		return []byte{
			byte(OpLdRPtrPP)<<3 | byte(i.Dst&0b111),
			byte(i.Src&0b111) << 5,
			byte(i.Offset),
		}, nil

	case ir.ShapeSdPtrNNNN:
		return []byte{
			byte(OpSdPtrNNNN)<<3 | byte(i.Dst&0b111),
			byte(i.Imm16.Value >> 8),
			byte(i.Imm16.Value),
		}, nil

	case ir.ShapeSdPtrPP:
		return []byte{
			byte(OpSdPtrPP)<<3 | byte(i.Dst&0b111),
			byte(i.Src&0b111) << 5,
			byte(i.Offset),
		}, nil

	case ir.ShapeJmp:
		op := OpJmpcNNNN
		low := byte(i.Cond & 0b111)
		if i.Cond == ir.CondUncond {
			op, low = OpJmpNNNN, 0
		}
		return []byte{
			byte(op)<<3 | low,
			byte(i.Target.Value >> 8), // jump/call targets are big-endian
			byte(i.Target.Value),
		}, nil

	case ir.ShapeJmpPP:
		op := OpJmpcPP
		low := byte(i.Cond & 0b111)
		if i.Cond == ir.CondUncond {
			op, low = OpJmpPP, 0
		}
		return []byte{
			byte(op)<<3 | low,
			byte(i.Src&0b111) << 5,
		}, nil

	case ir.ShapeCall:
		op := OpCallc
		low := byte(i.Cond & 0b111)
		if i.Cond == ir.CondUncond {
			op, low = OpCall, 0
		}
		return []byte{
			byte(op)<<3 | low,
			byte(i.Target.Value >> 8),
			byte(i.Target.Value),
		}, nil

	case ir.ShapeRet:
		op := OpRetc
		low := byte(i.Cond & 0b111)
		if i.Cond == ir.CondUncond {
			op, low = OpRet, 0
		}
		return []byte{byte(op)<<3 | low}, nil

	case ir.ShapePush:
		return []byte{byte(OpPush)<<3 | byte(i.Dst&0b111)}, nil
	case ir.ShapePush16:
		return []byte{byte(OpPush16)<<3 | byte(i.Dst&0b111)}, nil
	case ir.ShapePop:
		return []byte{byte(OpPop)<<3 | byte(i.Dst&0b111)}, nil
	case ir.ShapePop16:
		return []byte{byte(OpPop16)<<3 | byte(i.Dst&0b111)}, nil

	case ir.ShapeLF:
		return []byte{byte(OpLF)<<3 | byte(i.Dst&0b111)}, nil
	case ir.ShapeSF:
		return []byte{byte(OpSF)<<3 | byte(i.Dst&0b111)}, nil

	case ir.ShapePadding:
		b := make([]byte, i.PadLen)
		for n := range b {
			b[n] = byte(OpNOP) << 3
		}
		return b, nil

	default:
		return nil, fmt.Errorf("codec: shape %d has no encoding", i.Shape)
	}
}
