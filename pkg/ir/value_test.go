package ir

import "testing"

func TestValue16ResolveConst(t *testing.T) {
	env := &Env{Consts: map[string]uint16{"N": 7}}
	v := ConstValue16("N")
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !v.Resolved() || v.Value != 7 {
		t.Fatalf("v = %+v, want resolved literal 7", v)
	}
}

func TestValue16ResolveUnknownConstFails(t *testing.T) {
	env := &Env{Consts: map[string]uint16{}}
	v := ConstValue16("N")
	if err := v.Resolve(env); err == nil {
		t.Fatal("expected an unresolved-const error")
	}
}

func TestValue16ResolveDataAddress(t *testing.T) {
	env := &Env{
		Data:     map[string]*DataEntry{"msg": {Name: "msg", Bytes: []byte("hi"), Offset: 3}},
		DataBase: 100,
	}
	v := DataAddress("msg")
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Value != 103 {
		t.Fatalf("v.Value = %d, want 103 (base 100 + offset 3)", v.Value)
	}
}

func TestValue16ResolveDataLength(t *testing.T) {
	env := &Env{Data: map[string]*DataEntry{"msg": {Name: "msg", Bytes: []byte("hello")}}}
	v := DataLength("msg")
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Value != 5 {
		t.Fatalf("v.Value = %d, want 5", v.Value)
	}
}

func TestValue16ResolveCodeLabel(t *testing.T) {
	env := &Env{Labels: map[string]uint16{"loop": 10}, CodeBase: 0x100}
	v := CodeLabel("loop")
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Value != 0x10A {
		t.Fatalf("v.Value = %04X, want 010A", v.Value)
	}
}

func TestValue16ResolveInterruptVector(t *testing.T) {
	addr := uint16(20)
	env := &Env{Interrupt: [4]*uint16{&addr}, CodeBase: 0x200}
	v := InterruptTarget(0)
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Value != 0x214 {
		t.Fatalf("v.Value = %04X, want 0214", v.Value)
	}
}

func TestValue16ResolveUnresolvedInterruptFails(t *testing.T) {
	env := &Env{Interrupt: [4]*uint16{}}
	v := InterruptTarget(2)
	err := v.Resolve(env)
	if err == nil {
		t.Fatal("expected an unresolved-interrupt error")
	}
	ue, ok := err.(*UnresolvedError)
	if !ok || ue.Kind != KindUnresolvedInterrupt {
		t.Fatalf("expected KindUnresolvedInterrupt, got %v", err)
	}
}

func TestValue8RejectsDataAddress(t *testing.T) {
	v := Value8{Kind: DataLabelAddress, Name: "msg"}
	env := &Env{Data: map[string]*DataEntry{"msg": {Name: "msg", Bytes: []byte{1, 2}}}}
	err := v.Resolve(env)
	if err == nil {
		t.Fatal("an 8-bit slot must reject an address reference")
	}
	// A DataLabelAddress simply isn't a valid Value8 kind (there is no
	// constructor that produces one) — it falls into the generic
	// unsupported-kind error, not OffsetOnLengthRefError, which is
	// reserved for a nonzero offset on a DataLabelLength reference.
	if _, ok := err.(*OffsetOnLengthRefError); ok {
		t.Fatal("OffsetOnLengthRefError is for length refs with a nonzero offset, not address refs in an 8-bit slot")
	}
}

func TestValue16ResolveConstWithOffset(t *testing.T) {
	env := &Env{Consts: map[string]uint16{"N": 7}}
	v := ConstValue16("N").WithOffset(3)
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Value != 10 {
		t.Fatalf("v.Value = %d, want 10 (7+3)", v.Value)
	}
}

func TestValue16ResolveDataAddressWithOffset(t *testing.T) {
	env := &Env{
		Data:     map[string]*DataEntry{"msg": {Name: "msg", Bytes: []byte("hi"), Offset: 3}},
		DataBase: 100,
	}
	v := DataAddress("msg").WithOffset(2)
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Value != 105 {
		t.Fatalf("v.Value = %d, want 105 (base 100 + offset 3 + 2)", v.Value)
	}
}

func TestValue16ResolveDataAddressFallsBackToConst(t *testing.T) {
	env := &Env{
		Data:   map[string]*DataEntry{},
		Consts: map[string]uint16{"PORT": 0x4000},
	}
	v := DataAddress("PORT").WithOffset(1)
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Value != 0x4001 {
		t.Fatalf("v.Value = %04X, want 4001 (const 4000 + offset 1)", v.Value)
	}
}

func TestValue16ResolveDataLengthRejectsNonzeroOffset(t *testing.T) {
	env := &Env{Data: map[string]*DataEntry{"msg": {Name: "msg", Bytes: []byte("hello")}}}
	v := DataLength("msg").WithOffset(1)
	err := v.Resolve(env)
	if _, ok := err.(*OffsetOnLengthRefError); !ok {
		t.Fatalf("expected *OffsetOnLengthRefError, got %v (%T)", err, err)
	}
}

func TestValue8ResolveConstWithOffset(t *testing.T) {
	env := &Env{Consts: map[string]uint16{"N": 7}}
	v := ConstValue8("N").WithOffset(-2)
	if err := v.Resolve(env); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Value != 5 {
		t.Fatalf("v.Value = %d, want 5 (7-2)", v.Value)
	}
}

func TestValue8ResolveConstTooLargeFails(t *testing.T) {
	env := &Env{Consts: map[string]uint16{"BIG": 0x1000}}
	v := ConstValue8("BIG")
	err := v.Resolve(env)
	if err == nil {
		t.Fatal("a const above 0xFF must not fit an 8-bit slot")
	}
	if _, ok := err.(*ValueTooLargeError); !ok {
		t.Fatalf("expected *ValueTooLargeError, got %T", err)
	}
}

func TestInstructionLength(t *testing.T) {
	cases := []struct {
		shape Shape
		want  uint16
	}{
		{ShapeNOP, 1},
		{ShapeLdRshLsh, 2},
		{ShapeLdRNN, 3},
		{ShapeAluNNNN, 4},
		{ShapeLabel, 0},
	}
	for _, c := range cases {
		i := Instruction{Shape: c.shape}
		if got := i.Length(); got != c.want {
			t.Errorf("Shape %d: Length() = %d, want %d", c.shape, got, c.want)
		}
	}
}
