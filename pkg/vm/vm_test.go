package vm

import (
	"testing"

	"github.com/jakz/j80/pkg/codec"
	"github.com/jakz/j80/pkg/ir"
)

func assemble(t *testing.T, instrs ...ir.Instruction) []byte {
	t.Helper()
	var out []byte
	for _, i := range instrs {
		b, err := codec.Encode(&i)
		if err != nil {
			t.Fatalf("encode %+v: %v", i, err)
		}
		out = append(out, b...)
	}
	return out
}

func TestRegsHalfPairAliasing(t *testing.T) {
	var r Regs
	r.Set8(ir.A, 0x12)
	r.Set8(ir.B, 0x34)
	if got := r.Get16(ir.BA); got != 0x3412 {
		t.Fatalf("BA = %04X, want 3412 (B high, A low)", got)
	}
	r.Set16(ir.BA, 0xBEEF)
	if r.Get8(ir.A) != 0xEF || r.Get8(ir.B) != 0xBE {
		t.Fatalf("Set16 didn't decompose into halves: A=%02X B=%02X", r.Get8(ir.A), r.Get8(ir.B))
	}
}

func TestRegsWideRegistersHaveNoHalves(t *testing.T) {
	var r Regs
	r.Set16(ir.SP, 0x8000)
	if r.Get16(ir.SP) != 0x8000 {
		t.Fatalf("SP = %04X, want 8000", r.Get16(ir.SP))
	}
}

func TestConditionTrue(t *testing.T) {
	var r Regs
	r.SetFlag(FlagZero, true)
	if !r.ConditionTrue(ir.CondZero) {
		t.Fatal("CondZero should be true when ZERO flag is set")
	}
	if r.ConditionTrue(ir.CondNZero) {
		t.Fatal("CondNZero should be false when ZERO flag is set")
	}
	if !r.ConditionTrue(ir.CondUncond) {
		t.Fatal("CondUncond is always true")
	}
}

func TestAluAdd8Overflow(t *testing.T) {
	var r Regs
	var dest uint8
	alu(&r, ir.ADD8, 0x7F, 0x01, &dest, true, true)
	if dest != 0x80 {
		t.Fatalf("dest = %02X, want 80", dest)
	}
	if !r.IsFlagSet(FlagSign) {
		t.Fatal("expected SIGN set (result's top bit is 1)")
	}
	if !r.IsFlagSet(FlagOverflow) {
		t.Fatal("expected OVERFLOW: two positive operands produced a negative result")
	}
	if r.IsFlagSet(FlagCarry) {
		t.Fatal("0x7F+0x01 should not set CARRY")
	}
}

func TestAluAdd8Carry(t *testing.T) {
	var r Regs
	var dest uint8
	alu(&r, ir.ADD8, 0xFF, 0x01, &dest, true, true)
	if dest != 0x00 {
		t.Fatalf("dest = %02X, want 00", dest)
	}
	if !r.IsFlagSet(FlagCarry) {
		t.Fatal("expected CARRY on 0xFF+0x01")
	}
	if !r.IsFlagSet(FlagZero) {
		t.Fatal("expected ZERO on wraparound to 0")
	}
}

func TestAluSub8Borrow(t *testing.T) {
	var r Regs
	var dest uint8
	alu(&r, ir.SUB8, 0x00, 0x01, &dest, true, true)
	if dest != 0xFF {
		t.Fatalf("dest = %02X, want FF", dest)
	}
	if !r.IsFlagSet(FlagCarry) {
		t.Fatal("expected CARRY (borrow) on 0x00-0x01")
	}
}

func TestAluCmpDoesNotWriteDest(t *testing.T) {
	var r Regs
	dest := uint8(0x42)
	alu(&r, ir.SUB8, 0x05, 0x05, &dest, false, true)
	if dest != 0x42 {
		t.Fatalf("CMP-style call must not mutate dest, got %02X", dest)
	}
	if !r.IsFlagSet(FlagZero) {
		t.Fatal("5-5 should set ZERO even when dest isn't written")
	}
}

func TestAluTransferAndBitwise(t *testing.T) {
	var r Regs
	var dest uint8
	alu(&r, ir.TransferB8, 0, 0x99, &dest, true, true)
	if dest != 0x99 {
		t.Fatalf("transfer should copy op2 into dest, got %02X", dest)
	}
	alu(&r, ir.AND8, 0xF0, 0x0F, &dest, true, true)
	if dest != 0x00 {
		t.Fatalf("AND8 0xF0&0x0F should be 0, got %02X", dest)
	}
	if !r.IsFlagSet(FlagZero) {
		t.Fatal("expected ZERO after AND producing 0")
	}
}

func TestStepLoadImmediateAndNOP(t *testing.T) {
	code := assemble(t,
		ir.Instruction{Shape: ir.ShapeLdRNN, Dst: ir.A, Imm8: ir.LitValue8(42)},
		ir.Instruction{Shape: ir.ShapeNOP},
	)
	m := New()
	m.LoadImage(code, nil, 0)

	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs.Get8(ir.A) != 42 {
		t.Fatalf("A = %d, want 42", m.Regs.Get8(ir.A))
	}
	if m.Regs.PC != 3 {
		t.Fatalf("PC = %d, want 3", m.Regs.PC)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs.PC != 4 {
		t.Fatalf("PC = %d, want 4 after NOP", m.Regs.PC)
	}
}

func TestStepUnconditionalJump(t *testing.T) {
	code := assemble(t,
		ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.CondUncond, Target: ir.LitValue16(0x0010)},
	)
	m := New()
	m.LoadImage(code, nil, 0)
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs.PC != 0x0010 {
		t.Fatalf("PC = %04X, want 0010", m.Regs.PC)
	}
}

func TestStepConditionalJumpNotTaken(t *testing.T) {
	code := assemble(t,
		ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.CondZero, Target: ir.LitValue16(0x0010)},
	)
	m := New()
	m.LoadImage(code, nil, 0)
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs.PC != 3 {
		t.Fatalf("PC = %04X, untaken branch should just advance by its length", m.Regs.PC)
	}
}

func TestStepCallAndRet(t *testing.T) {
	code := assemble(t,
		ir.Instruction{Shape: ir.ShapeCall, Cond: ir.CondUncond, Target: ir.LitValue16(0x0010)}, // at 0
		ir.Instruction{Shape: ir.ShapeNOP}, // at 3 (return address)
	)
	m := New()
	m.LoadImage(code, nil, 0)
	m.Regs.Set16(ir.SP, 0x1000)

	if err := m.Step(); err != nil {
		t.Fatalf("Step (CALL): %v", err)
	}
	if m.Regs.PC != 0x0010 {
		t.Fatalf("PC after CALL = %04X, want 0010", m.Regs.PC)
	}
	sp := m.Regs.Get16(ir.SP)
	if sp != 0x0FFE {
		t.Fatalf("SP after CALL = %04X, want 0FFE (two bytes pushed)", sp)
	}

	// Manually place a RET at the call target and step into it.
	retBytes := assemble(t, ir.Instruction{Shape: ir.ShapeRet, Cond: ir.CondUncond})
	copy(m.RAM[0x0010:], retBytes)

	if err := m.Step(); err != nil {
		t.Fatalf("Step (RET): %v", err)
	}
	if m.Regs.PC != 3 {
		t.Fatalf("PC after RET = %04X, want 0003 (the instruction after CALL)", m.Regs.PC)
	}
	if m.Regs.Get16(ir.SP) != 0x1000 {
		t.Fatalf("SP after RET = %04X, want restored to 1000", m.Regs.Get16(ir.SP))
	}
}

func TestStepPushPop16(t *testing.T) {
	code := assemble(t,
		ir.Instruction{Shape: ir.ShapePush16, Dst: ir.BA},
		ir.Instruction{Shape: ir.ShapePop16, Dst: ir.CD},
	)
	m := New()
	m.LoadImage(code, nil, 0)
	m.Regs.Set16(ir.SP, 0x2000)
	m.Regs.Set16(ir.BA, 0xABCD)

	if err := m.Step(); err != nil {
		t.Fatalf("Step (PUSH16): %v", err)
	}
	if m.Regs.Get16(ir.SP) != 0x1FFE {
		t.Fatalf("SP after PUSH16 = %04X, want 1FFE", m.Regs.Get16(ir.SP))
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step (POP16): %v", err)
	}
	if m.Regs.Get16(ir.CD) != 0xABCD {
		t.Fatalf("CD after POP16 = %04X, want ABCD", m.Regs.Get16(ir.CD))
	}
	if m.Regs.Get16(ir.SP) != 0x2000 {
		t.Fatalf("SP after POP16 = %04X, want restored to 2000", m.Regs.Get16(ir.SP))
	}
}

func TestMemoryMappedStdout(t *testing.T) {
	code := assemble(t,
		ir.Instruction{Shape: ir.ShapeSdPtrNNNN, Dst: ir.A, Imm16: ir.LitValue16(0xFFFF)},
	)
	m := New()
	m.LoadImage(code, nil, 0)
	m.Regs.Set8(ir.A, 'x')

	var got byte
	m.StdOut = StdOutFunc(func(b byte) { got = b })

	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got != 'x' {
		t.Fatalf("stdout sink got %q, want 'x'", got)
	}
	if m.RAM[0xFFFF] != 0 {
		t.Fatal("writing to 0xFFFF with a sink attached should not also land in RAM")
	}
}

func TestBreakpointStopsRun(t *testing.T) {
	code := assemble(t,
		ir.Instruction{Shape: ir.ShapeNOP},
		ir.Instruction{Shape: ir.ShapeNOP},
		ir.Instruction{Shape: ir.ShapeNOP},
	)
	m := New()
	m.LoadImage(code, nil, 0)
	m.SetBreakpoint(2)

	if err := m.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Regs.PC != 2 {
		t.Fatalf("PC = %d, want 2 (stopped at breakpoint)", m.Regs.PC)
	}
}

func TestSEXT(t *testing.T) {
	code := assemble(t, ir.Instruction{Shape: ir.ShapeSEXT, Dst: ir.A})
	m := New()
	m.LoadImage(code, nil, 0)
	m.Regs.Set8(ir.A, 0x80)

	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs.Get8(ir.B) != 0xFF {
		t.Fatalf("SEXT of a negative A should fill B with 0xFF, got %02X", m.Regs.Get8(ir.B))
	}
}

func TestSaveLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/snap.gob"

	m := New()
	m.Regs.Set8(ir.A, 7)
	m.Regs.PC = 0x1234
	m.RAM[0x4000] = 0x55
	m.SetBreakpoint(0x10)

	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2 := New()
	if err := m2.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m2.Regs.Get8(ir.A) != 7 || m2.Regs.PC != 0x1234 {
		t.Fatalf("restored regs mismatch: A=%d PC=%04X", m2.Regs.Get8(ir.A), m2.Regs.PC)
	}
	if m2.RAM[0x4000] != 0x55 {
		t.Fatal("restored RAM mismatch")
	}
	if !m2.Breakpoints[0x10] {
		t.Fatal("restored breakpoints mismatch")
	}
}
