package asm

import (
	"testing"

	"github.com/jakz/j80/pkg/ir"
)

func TestAssembleSimpleProgram(t *testing.T) {
	a := New()
	a.Add(ir.NewLabel("main"))
	a.Add(ir.Instruction{Shape: ir.ShapeLdRNN, Dst: ir.A, Imm8: ir.LitValue8(5)})
	a.Add(ir.Instruction{Shape: ir.ShapeNOP})

	if err := a.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(a.Code.Data) != 4 {
		t.Fatalf("expected 4 bytes of code, got %d: %x", len(a.Code.Data), a.Code.Data)
	}
	if a.Data.Offset != uint16(len(a.Code.Data)) {
		t.Fatalf("data offset should follow code segment, got %d", a.Data.Offset)
	}
}

func TestAssembleWithoutMainInsertsLabel(t *testing.T) {
	a := New()
	a.Add(ir.Instruction{Shape: ir.ShapeNOP})

	if err := a.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(a.Code.Data) != 1 {
		t.Fatalf("expected 1 byte of code, got %d", len(a.Code.Data))
	}
}

func TestAssembleStackBaseSplicesLoad(t *testing.T) {
	a := New()
	a.Add(ir.NewLabel("main"))
	a.Add(ir.Instruction{Shape: ir.ShapeNOP})
	a.SetStackBase(0x9000)

	if err := a.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// LD SP, 0x9000 (3 bytes) followed by the NOP (1 byte) = 4 bytes.
	if len(a.Code.Data) != 4 {
		t.Fatalf("expected stack-base load spliced in, got %d bytes: %x", len(a.Code.Data), a.Code.Data)
	}
	if a.Code.Data[0]>>3 != 0b10010 {
		t.Fatalf("expected LD P,NNNN opcode first, got %05b", a.Code.Data[0]>>3)
	}
}

func TestSetStackBaseFirstWriteWins(t *testing.T) {
	a := New()
	if !a.SetStackBase(0x1000) {
		t.Fatal("first SetStackBase should succeed")
	}
	if a.SetStackBase(0x2000) {
		t.Fatal("second SetStackBase should be a no-op returning false")
	}
}

func TestAssembleLabelTarget(t *testing.T) {
	a := New()
	a.Add(ir.NewLabel("main"))
	a.Add(ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.CondUncond, Target: ir.CodeLabel("loop")})
	a.Add(ir.NewLabel("loop"))
	a.Add(ir.Instruction{Shape: ir.ShapeNOP})

	if err := a.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// JMP (3 bytes) targeting the NOP at address 3.
	if a.Code.Data[1] != 0x00 || a.Code.Data[2] != 0x03 {
		t.Fatalf("expected JMP target 0x0003, got %02X%02X", a.Code.Data[1], a.Code.Data[2])
	}
}

func TestAssembleUnresolvedLabelFails(t *testing.T) {
	a := New()
	a.Add(ir.NewLabel("main"))
	a.Add(ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.CondUncond, Target: ir.CodeLabel("nowhere")})

	if err := a.Assemble(); err == nil {
		t.Fatal("expected an unresolved-label error")
	}
}

func TestAssembleDataReference(t *testing.T) {
	a := New()
	a.Add(ir.NewLabel("main"))
	if err := a.AddData("msg", []byte("hi")); err != nil {
		t.Fatalf("AddData: %v", err)
	}
	a.Add(ir.Instruction{Shape: ir.ShapeLdPNNNN, Dst: ir.BA, Imm16: ir.DataAddress("msg")})

	if err := a.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := a.Data.Offset
	got := uint16(a.Code.Data[2]) | uint16(a.Code.Data[1])<<8
	if got != want {
		t.Fatalf("data address not resolved correctly: want %04X got %04X", want, got)
	}
}

func TestAssembleDuplicateDataIsError(t *testing.T) {
	a := New()
	if err := a.AddData("x", []byte{1}); err != nil {
		t.Fatalf("AddData: %v", err)
	}
	if err := a.AddData("x", []byte{2}); err == nil {
		t.Fatal("expected duplicate data name to error")
	}
}

func TestAssembleInterruptVectorTable(t *testing.T) {
	a := New()
	a.Add(ir.NewLabel("main"))
	a.Add(ir.Instruction{Shape: ir.ShapeNOP})
	if err := a.MarkInterrupt(0); err != nil {
		t.Fatalf("MarkInterrupt: %v", err)
	}
	a.Add(ir.NewInterruptEntry(0))
	a.Add(ir.Instruction{Shape: ir.ShapeDI})

	if err := a.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// First byte should be the unconditional JMP opcode (to main).
	if a.Code.Data[0]>>3 != 0b11001 {
		t.Fatalf("expected leading JMP main, got opcode %05b", a.Code.Data[0]>>3)
	}
}

func TestAssembleImageOverflow(t *testing.T) {
	a := New()
	a.Add(ir.NewLabel("main"))
	if err := a.AddData("big", make([]byte, 0x10000)); err != nil {
		t.Fatalf("AddData: %v", err)
	}
	a.Add(ir.Instruction{Shape: ir.ShapeNOP})

	err := a.Assemble()
	if err == nil {
		t.Fatal("expected an image overflow error")
	}
	if _, ok := err.(*ir.ImageOverflowError); !ok {
		t.Fatalf("expected *ir.ImageOverflowError, got %T: %v", err, err)
	}
}
