package codec

import (
	"fmt"

	"github.com/jakz/j80/pkg/ir"
)

func reg(r ir.Reg, extended bool) string {
	if extended {
		return r.Name16()
	}
	return r.Name8()
}

// Mnemonic renders a fully-resolved instruction as assembly text, in the
// same placeholder-substitution spirit as the teacher's
// inst.Catalog.Disassemble (a fixed per-shape template with operands
// appended), generalized to J80's richer operand shapes.
func Mnemonic(i *ir.Instruction) string {
	ext := i.Alu.Extended()
	switch i.Shape {
	case ir.ShapeNOP:
		return "NOP"
	case ir.ShapeSEXT:
		return fmt.Sprintf("SEXT %s", reg(i.Dst, false))
	case ir.ShapeEI:
		return "EI"
	case ir.ShapeDI:
		return "DI"

	case ir.ShapeLdRshLsh:
		switch i.Alu {
		case ir.TransferB8, ir.TransferB16:
			return fmt.Sprintf("LD %s, %s", reg(i.Dst, ext), reg(i.Src, ext))
		case ir.LSH8, ir.LSH16:
			return fmt.Sprintf("LSH %s", reg(i.Dst, ext))
		case ir.RSH8, ir.RSH16:
			return fmt.Sprintf("RSH %s", reg(i.Dst, ext))
		default:
			return fmt.Sprintf("%s %s, %s", i.Alu.Name(), reg(i.Dst, ext), reg(i.Src, ext))
		}

	case ir.ShapeAluReg:
		return fmt.Sprintf("%s %s, %s, %s", i.Alu.Name(), reg(i.Dst, ext), reg(i.Src, ext), reg(i.Src2, ext))
	case ir.ShapeAluNN:
		return fmt.Sprintf("%s %s, %s, %d", i.Alu.Name(), reg(i.Dst, false), reg(i.Src, false), i.Imm8.Value)
	case ir.ShapeAluNNNN:
		return fmt.Sprintf("%s %s, %s, %d", i.Alu.Name(), reg(i.Dst, true), reg(i.Src, true), i.Imm16.Value)

	case ir.ShapeCmpReg:
		return fmt.Sprintf("CMP %s, %s", reg(i.Dst, ext), reg(i.Src, ext))
	case ir.ShapeCmpNN:
		return fmt.Sprintf("CMP %s, %d", reg(i.Dst, false), i.Imm8.Value)
	case ir.ShapeCmpNNNN:
		return fmt.Sprintf("CMP %s, %d", reg(i.Dst, true), i.Imm16.Value)

	case ir.ShapeLdRNN:
		return fmt.Sprintf("LD %s, %d", reg(i.Dst, false), i.Imm8.Value)
	case ir.ShapeLdPNNNN:
		return fmt.Sprintf("LD %s, 0x%04X", reg(i.Dst, true), i.Imm16.Value)
	case ir.ShapeLdRPtrNNNN:
		return fmt.Sprintf("LD %s, [0x%04X]", reg(i.Dst, false), i.Imm16.Value)
	case ir.ShapeLdRPtrPP:
		return fmt.Sprintf("LD %s, [%s%+d]", reg(i.Dst, false), reg(i.Src, true), i.Offset)
	case ir.ShapeSdPtrNNNN:
		return fmt.Sprintf("SD [0x%04X], %s", i.Imm16.Value, reg(i.Dst, false))
	case ir.ShapeSdPtrPP:
		return fmt.Sprintf("SD [%s%+d], %s", reg(i.Src, true), i.Offset, reg(i.Dst, false))

	case ir.ShapeJmp:
		if i.Cond == ir.CondUncond {
			return fmt.Sprintf("JMP 0x%04X", i.Target.Value)
		}
		return fmt.Sprintf("JMPC %s, 0x%04X", i.Cond.Name(), i.Target.Value)
	case ir.ShapeJmpPP:
		if i.Cond == ir.CondUncond {
			return fmt.Sprintf("JMP %s", reg(i.Src, true))
		}
		return fmt.Sprintf("JMPC %s, %s", i.Cond.Name(), reg(i.Src, true))
	case ir.ShapeCall:
		if i.Cond == ir.CondUncond {
			return fmt.Sprintf("CALL 0x%04X", i.Target.Value)
		}
		return fmt.Sprintf("CALLC %s, 0x%04X", i.Cond.Name(), i.Target.Value)
	case ir.ShapeRet:
		if i.Cond == ir.CondUncond {
			return "RET"
		}
		return fmt.Sprintf("RETC %s", i.Cond.Name())

	case ir.ShapePush:
		return fmt.Sprintf("PUSH %s", reg(i.Dst, false))
	case ir.ShapePush16:
		return fmt.Sprintf("PUSH %s", reg(i.Dst, true))
	case ir.ShapePop:
		return fmt.Sprintf("POP %s", reg(i.Dst, false))
	case ir.ShapePop16:
		return fmt.Sprintf("POP %s", reg(i.Dst, true))

	case ir.ShapeLF:
		return fmt.Sprintf("LF %s", reg(i.Dst, false))
	case ir.ShapeSF:
		return fmt.Sprintf("SF %s", reg(i.Dst, false))

	case ir.ShapePadding:
		return fmt.Sprintf("; padding (%d bytes)", i.PadLen)

	default:
		return "???"
	}
}
