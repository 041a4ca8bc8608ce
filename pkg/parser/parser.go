// Package parser reads J80 assembly text into an asm.Assembler. The
// grammar-driven textual parser the original toolchain built around its
// nanoC front-end is explicitly out of scope; this is the minimal
// line-oriented glue the `j80` CLI needs to drive pkg/asm from a plain
// source file — one directive or mnemonic per line, operands split on
// commas, no macros, no expressions.
package parser

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/jakz/j80/pkg/asm"
	"github.com/jakz/j80/pkg/ir"
)

// Error reports a problem with one source line.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }

// Parse reads source and builds an Assembler from it. The returned
// Assembler still needs Assemble() called on it; Parse only populates
// instructions, data, consts, interrupts, stack base and entry point.
func Parse(source string) (*asm.Assembler, error) {
	a := asm.New()
	scanner := bufio.NewScanner(strings.NewReader(source))
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if label, ok := strings.CutSuffix(line, ":"); ok {
			a.Add(ir.NewLabel(strings.TrimSpace(label)))
			continue
		}

		if strings.HasPrefix(line, ".") {
			if err := parseDirective(a, line); err != nil {
				return nil, &Error{Line: lineNo, Message: err.Error()}
			}
			continue
		}

		instr, err := parseInstruction(line)
		if err != nil {
			return nil, &Error{Line: lineNo, Message: err.Error()}
		}
		instr.SourceLine = raw
		a.Add(instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return a, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

func fields(rest string) []string {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseDirective(a *asm.Assembler, line string) error {
	word, rest, _ := strings.Cut(line, " ")
	args := fields(rest)
	// The first argument (a .const/.data name) may also be separated from
	// the rest by whitespace instead of a comma: ".const N 2", ".data msg "hi"".
	if len(args) > 0 {
		if name, value, ok := strings.Cut(args[0], " "); ok {
			args = append([]string{name, strings.TrimSpace(value)}, args[1:]...)
		}
	}

	switch word {
	case ".entry":
		v, err := parseNumber(arg(args, 0))
		if err != nil {
			return err
		}
		a.SetEntryPoint(v)
	case ".stack":
		v, err := parseNumber(arg(args, 0))
		if err != nil {
			return err
		}
		a.SetStackBase(v)
	case ".const":
		if len(args) != 2 {
			return fmt.Errorf(".const needs a name and a value")
		}
		v, err := parseNumber(args[1])
		if err != nil {
			return err
		}
		return a.AddConst(args[0], v)
	case ".interrupt":
		idx, err := strconv.Atoi(arg(args, 0))
		if err != nil {
			return fmt.Errorf(".interrupt needs a slot index: %w", err)
		}
		if err := a.MarkInterrupt(idx); err != nil {
			return err
		}
		// Marks the address immediately following this directive as the
		// handler entry point for the slot, resolved by solveJumps exactly
		// like a label.
		a.Add(ir.NewInterruptEntry(idx))
		return nil
	case ".data":
		if len(args) < 2 {
			return fmt.Errorf(".data needs a name and at least one byte")
		}
		bytes, err := parseDataBytes(args[1:])
		if err != nil {
			return err
		}
		return a.AddData(args[0], bytes)
	default:
		return fmt.Errorf("unknown directive %q", word)
	}
	return nil
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// parseDataBytes accepts either a single double-quoted string literal or
// a comma-separated list of byte values.
func parseDataBytes(args []string) ([]byte, error) {
	if len(args) == 1 && strings.HasPrefix(args[0], `"`) {
		s := strings.Trim(args[0], `"`)
		return []byte(s), nil
	}
	bytes := make([]byte, 0, len(args))
	for _, a := range args {
		v, err := parseNumber(a)
		if err != nil {
			return nil, err
		}
		if v > 0xFF {
			return nil, fmt.Errorf("data byte %q out of range", a)
		}
		bytes = append(bytes, byte(v))
	}
	return bytes, nil
}

func parseNumber(tok string) (uint16, error) {
	v, err := strconv.ParseUint(tok, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", tok)
	}
	return uint16(v), nil
}

// parseInstruction dispatches on the mnemonic keyword, in the same
// vocabulary pkg/codec.Mnemonic renders. Not everything Mnemonic prints
// reads back: a JMP/CALL target is always taken as a label name (so a
// numeric address such as "0x1000" is not accepted), and XFER_A has no
// keyword here.
func parseInstruction(line string) (ir.Instruction, error) {
	word, rest, _ := strings.Cut(line, " ")
	keyword := strings.ToUpper(word)
	args := fields(rest)

	switch keyword {
	case "NOP":
		return ir.Instruction{Shape: ir.ShapeNOP}, nil
	case "EI":
		return ir.Instruction{Shape: ir.ShapeEI}, nil
	case "DI":
		return ir.Instruction{Shape: ir.ShapeDI}, nil
	case "SEXT":
		r, ok := ir.ParseReg8(arg(args, 0))
		if !ok {
			return ir.Instruction{}, fmt.Errorf("SEXT: bad register %q", arg(args, 0))
		}
		return ir.Instruction{Shape: ir.ShapeSEXT, Dst: r}, nil
	case "LF":
		r, ok := ir.ParseReg8(arg(args, 0))
		if !ok {
			return ir.Instruction{}, fmt.Errorf("LF: bad register %q", arg(args, 0))
		}
		return ir.Instruction{Shape: ir.ShapeLF, Dst: r}, nil
	case "SF":
		r, ok := ir.ParseReg8(arg(args, 0))
		if !ok {
			return ir.Instruction{}, fmt.Errorf("SF: bad register %q", arg(args, 0))
		}
		return ir.Instruction{Shape: ir.ShapeSF, Dst: r}, nil
	case "PUSH":
		return parsePushPop(ir.ShapePush, ir.ShapePush16, args)
	case "POP":
		return parsePushPop(ir.ShapePop, ir.ShapePop16, args)
	case "LSH":
		return parseUnaryAlu(ir.LSH8, ir.LSH16, args)
	case "RSH":
		return parseUnaryAlu(ir.RSH8, ir.RSH16, args)
	case "CMP":
		return parseCmp(args)
	case "LD":
		return parseLd(args)
	case "SD":
		return parseSd(args)
	case "JMP":
		return parseJump(ir.CondUncond, args)
	case "JMPC":
		return parseJumpC(args)
	case "CALL":
		return parseCall(ir.CondUncond, args)
	case "CALLC":
		return parseCallC(args)
	case "RET":
		return ir.Instruction{Shape: ir.ShapeRet, Cond: ir.CondUncond}, nil
	case "RETC":
		cond, ok := ir.ParseCond(arg(args, 0))
		if !ok {
			return ir.Instruction{}, fmt.Errorf("RETC: bad condition %q", arg(args, 0))
		}
		return ir.Instruction{Shape: ir.ShapeRet, Cond: cond}, nil
	case "ADD", "ADC", "SUB", "SBC", "AND", "OR", "XOR", "NOT":
		return parseAlu(keyword, args)
	default:
		return ir.Instruction{}, fmt.Errorf("unknown mnemonic %q", word)
	}
}

func parsePushPop(shape8, shape16 ir.Shape, args []string) (ir.Instruction, error) {
	name := arg(args, 0)
	if r, ok := ir.ParseReg16(name); ok {
		return ir.Instruction{Shape: shape16, Dst: r}, nil
	}
	if r, ok := ir.ParseReg8(name); ok {
		return ir.Instruction{Shape: shape8, Dst: r}, nil
	}
	return ir.Instruction{}, fmt.Errorf("bad register %q", name)
}

func parseUnaryAlu(op8, op16 ir.AluOp, args []string) (ir.Instruction, error) {
	name := arg(args, 0)
	if r, ok := ir.ParseReg16(name); ok {
		return ir.Instruction{Shape: ir.ShapeLdRshLsh, Dst: r, Src: r, Alu: op16}, nil
	}
	if r, ok := ir.ParseReg8(name); ok {
		return ir.Instruction{Shape: ir.ShapeLdRshLsh, Dst: r, Src: r, Alu: op8}, nil
	}
	return ir.Instruction{}, fmt.Errorf("bad register %q", name)
}

// parseAlu handles the two-register ("ADD A, B"), three-register
// ("ADD A, B, C") and register-plus-immediate ("ADD A, B, 5") forms,
// dispatching on arity, and for arity 3 on whether the third operand
// names a register or parses as an immediate.
func parseAlu(keyword string, args []string) (ir.Instruction, error) {
	switch len(args) {
	case 2:
		dst, ext, err := parseEitherReg(args[0])
		if err != nil {
			return ir.Instruction{}, err
		}
		src, srcExt, err := parseEitherReg(args[1])
		if err != nil {
			return ir.Instruction{}, err
		}
		if ext != srcExt {
			return ir.Instruction{}, fmt.Errorf("%s: operand width mismatch", keyword)
		}
		op, ok := ir.ParseAluName(keyword, ext)
		if !ok {
			return ir.Instruction{}, fmt.Errorf("unknown ALU op %q", keyword)
		}
		return ir.Instruction{Shape: ir.ShapeLdRshLsh, Dst: dst, Src: src, Alu: op}, nil

	case 3:
		dst, ext, err := parseEitherReg(args[0])
		if err != nil {
			return ir.Instruction{}, err
		}
		src, _, err := parseEitherReg(args[1])
		if err != nil {
			return ir.Instruction{}, err
		}
		op, ok := ir.ParseAluName(keyword, ext)
		if !ok {
			return ir.Instruction{}, fmt.Errorf("unknown ALU op %q", keyword)
		}
		if src2, ok := regOfWidth(args[2], ext); ok {
			return ir.Instruction{Shape: ir.ShapeAluReg, Dst: dst, Src: src, Src2: src2, Alu: op}, nil
		}
		if ext {
			v, err := parseValue16(args[2])
			if err != nil {
				return ir.Instruction{}, err
			}
			return ir.Instruction{Shape: ir.ShapeAluNNNN, Dst: dst, Src: src, Alu: op, Imm16: v}, nil
		}
		v, err := parseValue8(args[2])
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Instruction{Shape: ir.ShapeAluNN, Dst: dst, Src: src, Alu: op, Imm8: v}, nil

	default:
		return ir.Instruction{}, fmt.Errorf("%s: wrong number of operands", keyword)
	}
}

func parseEitherReg(tok string) (r ir.Reg, extended bool, err error) {
	if r, ok := ir.ParseReg16(tok); ok {
		return r, true, nil
	}
	if r, ok := ir.ParseReg8(tok); ok {
		return r, false, nil
	}
	return 0, false, fmt.Errorf("bad register %q", tok)
}

func parseCmp(args []string) (ir.Instruction, error) {
	if len(args) != 2 {
		return ir.Instruction{}, fmt.Errorf("CMP: wrong number of operands")
	}
	dst, ext, err := parseEitherReg(args[0])
	if err != nil {
		return ir.Instruction{}, err
	}
	// CMP always compares via subtraction — original_source/src/assembler.h's
	// assembleCMP_REG/assembleCMP_NN/assembleCMP_NNNN hardcode ALU_SUB8/
	// ALU_SUB16 for every CMP form, so the Alu field here is never chosen
	// by the caller.
	cmpAlu := ir.SUB8
	if ext {
		cmpAlu = ir.SUB16
	}
	if src, ok := regOfWidth(args[1], ext); ok {
		return ir.Instruction{Shape: ir.ShapeCmpReg, Dst: dst, Src: src, Alu: cmpAlu}, nil
	}
	if ext {
		v, err := parseValue16(args[1])
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Instruction{Shape: ir.ShapeCmpNNNN, Dst: dst, Alu: cmpAlu, Imm16: v}, nil
	}
	v, err := parseValue8(args[1])
	if err != nil {
		return ir.Instruction{}, err
	}
	return ir.Instruction{Shape: ir.ShapeCmpNN, Dst: dst, Alu: cmpAlu, Imm8: v}, nil
}

func regOfWidth(tok string, extended bool) (ir.Reg, bool) {
	if extended {
		return ir.ParseReg16(tok)
	}
	return ir.ParseReg8(tok)
}

func parseLd(args []string) (ir.Instruction, error) {
	if len(args) != 2 {
		return ir.Instruction{}, fmt.Errorf("LD: wrong number of operands")
	}
	dstTok, srcTok := args[0], args[1]

	if addr, ok := strings.CutPrefix(srcTok, "["); ok {
		addr = strings.TrimSuffix(addr, "]")
		dst, ok := ir.ParseReg8(dstTok)
		if !ok {
			return ir.Instruction{}, fmt.Errorf("LD: bad destination %q", dstTok)
		}
		if src, off, ok := parsePtrOffset(addr); ok {
			return ir.Instruction{Shape: ir.ShapeLdRPtrPP, Dst: dst, Src: src, Offset: off}, nil
		}
		v, err := parseValue16(addr)
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Instruction{Shape: ir.ShapeLdRPtrNNNN, Dst: dst, Imm16: v}, nil
	}

	if dst16, ok := ir.ParseReg16(dstTok); ok {
		if src, ok := ir.ParseReg16(srcTok); ok {
			return ir.Instruction{Shape: ir.ShapeLdRshLsh, Dst: dst16, Src: src, Alu: ir.TransferB16}, nil
		}
		v, err := parseValue16(srcTok)
		if err != nil {
			return ir.Instruction{}, err
		}
		return ir.Instruction{Shape: ir.ShapeLdPNNNN, Dst: dst16, Imm16: v}, nil
	}

	dst8, ok := ir.ParseReg8(dstTok)
	if !ok {
		return ir.Instruction{}, fmt.Errorf("LD: bad destination %q", dstTok)
	}
	if src, ok := ir.ParseReg8(srcTok); ok {
		return ir.Instruction{Shape: ir.ShapeLdRshLsh, Dst: dst8, Src: src, Alu: ir.TransferB8}, nil
	}
	v, err := parseValue8(srcTok)
	if err != nil {
		return ir.Instruction{}, err
	}
	return ir.Instruction{Shape: ir.ShapeLdRNN, Dst: dst8, Imm8: v}, nil
}

func parseSd(args []string) (ir.Instruction, error) {
	if len(args) != 2 {
		return ir.Instruction{}, fmt.Errorf("SD: wrong number of operands")
	}
	addrTok, srcTok := args[0], args[1]
	addr, ok := strings.CutPrefix(addrTok, "[")
	if !ok {
		return ir.Instruction{}, fmt.Errorf("SD: destination must be [addr] or [reg+off]")
	}
	addr = strings.TrimSuffix(addr, "]")

	src, ok := ir.ParseReg8(srcTok)
	if !ok {
		return ir.Instruction{}, fmt.Errorf("SD: bad source %q", srcTok)
	}

	if base, off, ok := parsePtrOffset(addr); ok {
		return ir.Instruction{Shape: ir.ShapeSdPtrPP, Dst: src, Src: base, Offset: off}, nil
	}
	v, err := parseValue16(addr)
	if err != nil {
		return ir.Instruction{}, err
	}
	return ir.Instruction{Shape: ir.ShapeSdPtrNNNN, Dst: src, Imm16: v}, nil
}

// parsePtrOffset parses "BA+2" / "BA-3" / "BA" forms used by [PP+SS]
// addressing.
func parsePtrOffset(tok string) (ir.Reg, int8, bool) {
	sign := 1
	idx := strings.IndexAny(tok, "+-")
	base := tok
	var offTok string
	if idx > 0 {
		base = tok[:idx]
		offTok = tok[idx:]
		if tok[idx] == '-' {
			sign = -1
		}
	}
	reg, ok := ir.ParseReg16(base)
	if !ok {
		return 0, 0, false
	}
	if offTok == "" {
		return reg, 0, true
	}
	n, err := strconv.Atoi(strings.TrimLeft(offTok, "+-"))
	if err != nil {
		return 0, 0, false
	}
	return reg, int8(sign * n), true
}

// parseJump handles JMP, which has both an absolute-address form and a
// register-indirect ([PP]) form; CALL has no register-indirect form in
// this ISA, so parseCall below never attempts a register parse.
func parseJump(cond ir.Cond, args []string) (ir.Instruction, error) {
	tok := arg(args, 0)
	if r, ok := ir.ParseReg16(tok); ok {
		return ir.Instruction{Shape: ir.ShapeJmpPP, Cond: cond, Src: r}, nil
	}
	return ir.Instruction{Shape: ir.ShapeJmp, Cond: cond, Target: ir.CodeLabel(tok)}, nil
}

func parseJumpC(args []string) (ir.Instruction, error) {
	cond, rest, err := cutCond(args)
	if err != nil {
		return ir.Instruction{}, err
	}
	return parseJump(cond, rest)
}

func parseCall(cond ir.Cond, args []string) (ir.Instruction, error) {
	return ir.Instruction{Shape: ir.ShapeCall, Cond: cond, Target: ir.CodeLabel(arg(args, 0))}, nil
}

func parseCallC(args []string) (ir.Instruction, error) {
	cond, rest, err := cutCond(args)
	if err != nil {
		return ir.Instruction{}, err
	}
	return parseCall(cond, rest)
}

func cutCond(args []string) (ir.Cond, []string, error) {
	if len(args) != 2 {
		return 0, nil, fmt.Errorf("conditional jump/call needs a condition and a target")
	}
	cond, ok := ir.ParseCond(args[0])
	if !ok {
		return 0, nil, fmt.Errorf("bad condition %q", args[0])
	}
	return cond, args[1:], nil
}

// splitNameOffset peels a trailing "+N"/"-N" off a label reference, e.g.
// "msg+3" → ("msg", 3). A name with no +/- suffix returns a zero offset.
func splitNameOffset(tok string) (string, int16, error) {
	if i := strings.IndexAny(tok, "+-"); i > 0 {
		off, err := strconv.ParseInt(tok[i:], 0, 16)
		if err != nil {
			return "", 0, fmt.Errorf("bad offset in %q: %w", tok, err)
		}
		return tok[:i], int16(off), nil
	}
	return tok, 0, nil
}

func parseValue16(tok string) (ir.Value16, error) {
	switch {
	case strings.HasPrefix(tok, "@"):
		name, off, err := splitNameOffset(tok[1:])
		if err != nil {
			return ir.Value16{}, err
		}
		return ir.DataAddress(name).WithOffset(off), nil
	case strings.HasPrefix(tok, "#"):
		name, off, err := splitNameOffset(tok[1:])
		if err != nil {
			return ir.Value16{}, err
		}
		return ir.DataLength(name).WithOffset(off), nil
	}
	if v, err := strconv.ParseUint(tok, 0, 16); err == nil {
		return ir.LitValue16(uint16(v)), nil
	}
	name, off, err := splitNameOffset(tok)
	if err != nil {
		return ir.Value16{}, err
	}
	return ir.ConstValue16(name).WithOffset(off), nil
}

func parseValue8(tok string) (ir.Value8, error) {
	if strings.HasPrefix(tok, "#") {
		name, off, err := splitNameOffset(tok[1:])
		if err != nil {
			return ir.Value8{}, err
		}
		return ir.DataLength8(name).WithOffset(off), nil
	}
	if strings.HasPrefix(tok, "@") {
		return ir.Value8{}, fmt.Errorf("data address %q can't fit an 8-bit immediate", tok)
	}
	if v, err := strconv.ParseUint(tok, 0, 8); err == nil {
		return ir.LitValue8(uint8(v)), nil
	}
	name, off, err := splitNameOffset(tok)
	if err != nil {
		return ir.Value8{}, err
	}
	return ir.ConstValue8(name).WithOffset(off), nil
}
