package ir

import "fmt"

// ValueKind tags what a Value8/Value16 still needs before it can be
// encoded: a bare literal, or a symbolic reference that must be looked up
// in an Env.
type ValueKind uint8

const (
	// Literal values need no resolution; they are already the number to
	// encode.
	Literal ValueKind = iota
	// ConstRef names an entry in the assembler's const table.
	ConstRef
	// DataLabelAddress resolves to the address a named data entry was
	// placed at (data segment base + its offset within it).
	DataLabelAddress
	// DataLabelLength resolves to the byte length of a named data entry.
	DataLabelLength
	// CodeLabelAddress resolves to the address a code label was placed
	// at, used by jump/call targets. 16-bit only.
	CodeLabelAddress
	// InterruptVector resolves to the entry address of an interrupt slot.
	// 16-bit only.
	InterruptVector
)

// Env is the environment solveDataReferences/solveJumps resolve Values
// against: the data segment layout, the const table, and the base address
// data labels are relative to.
type Env struct {
	Data      map[string]*DataEntry
	Consts    map[string]uint16
	Labels    map[string]uint16
	Interrupt [4]*uint16
	// DataBase is added to a data entry's own offset to produce its final
	// address: code.offset + code.length.
	DataBase uint16
	// CodeBase is added to a resolved label/interrupt address to produce
	// its final address: code.offset.
	CodeBase uint16
}

// DataEntry is one named blob placed into the data segment.
type DataEntry struct {
	Name   string
	Bytes  []byte
	Offset uint16 // assigned by buildDataSegment, relative to data.offset
}

// Value16 is a 16-bit operand that is either already a literal or must be
// resolved against an Env before encoding.
type Value16 struct {
	Kind           ValueKind
	Value          uint16
	Name           string // ConstRef / DataLabelAddress / DataLabelLength / CodeLabelAddress
	Offset         int16  // ConstRef / DataLabelAddress / DataLabelLength ("name+off" syntax)
	InterruptIndex int    // InterruptVector
}

func LitValue16(v uint16) Value16 { return Value16{Kind: Literal, Value: v} }
func ConstValue16(name string) Value16 {
	return Value16{Kind: ConstRef, Name: name}
}
func DataAddress(name string) Value16 {
	return Value16{Kind: DataLabelAddress, Name: name}
}
func DataLength(name string) Value16 {
	return Value16{Kind: DataLabelLength, Name: name}
}
func CodeLabel(name string) Value16 {
	return Value16{Kind: CodeLabelAddress, Name: name}
}
func InterruptTarget(index int) Value16 {
	return Value16{Kind: InterruptVector, InterruptIndex: index}
}

// WithOffset returns v carrying a signed offset, added once v resolves —
// "name+off" in source text, e.g. a byte into the middle of a data blob.
func (v Value16) WithOffset(offset int16) Value16 {
	v.Offset = offset
	return v
}

// Resolve rewrites v into a Literal in place, consulting env. It is a
// no-op (and always succeeds) for values that are already Literal.
func (v *Value16) Resolve(env *Env) error {
	switch v.Kind {
	case Literal:
		return nil
	case ConstRef:
		val, ok := env.Consts[v.Name]
		if !ok {
			return &UnresolvedError{Kind: KindUnresolvedConst, Name: v.Name}
		}
		v.Value = val + uint16(v.Offset)
	case DataLabelAddress:
		if entry, ok := env.Data[v.Name]; ok {
			v.Value = env.DataBase + entry.Offset + uint16(v.Offset)
		} else if val, ok := env.Consts[v.Name]; ok {
			// A data-address reference that names a const instead of a
			// data entry falls back to the const's value, per spec.md's
			// DATA_LABEL_ADDRESS resolution rule.
			v.Value = val + uint16(v.Offset)
		} else {
			return &UnresolvedError{Kind: KindUnresolvedData, Name: v.Name}
		}
	case DataLabelLength:
		if v.Offset != 0 {
			return &OffsetOnLengthRefError{Name: v.Name}
		}
		entry, ok := env.Data[v.Name]
		if !ok {
			return &UnresolvedError{Kind: KindUnresolvedData, Name: v.Name}
		}
		v.Value = uint16(len(entry.Bytes))
	case CodeLabelAddress:
		addr, ok := env.Labels[v.Name]
		if !ok {
			return &UnresolvedError{Kind: KindUnresolvedLabel, Name: v.Name}
		}
		v.Value = env.CodeBase + addr
	case InterruptVector:
		if v.InterruptIndex < 0 || v.InterruptIndex > 3 || env.Interrupt[v.InterruptIndex] == nil {
			return &UnresolvedError{Kind: KindUnresolvedInterrupt, Name: fmt.Sprintf("%d", v.InterruptIndex)}
		}
		v.Value = env.CodeBase + *env.Interrupt[v.InterruptIndex]
	default:
		return fmt.Errorf("ir: unknown Value16 kind %d", v.Kind)
	}
	v.Kind = Literal
	return nil
}

// Resolved reports whether v is ready to encode.
func (v Value16) Resolved() bool { return v.Kind == Literal }

// Value8 is an 8-bit operand. Only the Literal/ConstRef/DataLabelLength
// kinds make sense at 8 bits; a data or code label's *address* doesn't fit
// an 8-bit slot at all, so Value8 does not expose a DataLabelAddress
// constructor — that is a Value16-only concept.
type Value8 struct {
	Kind   ValueKind
	Value  uint8
	Name   string
	Offset int16 // ConstRef / DataLabelLength ("name+off" syntax)
}

func LitValue8(v uint8) Value8       { return Value8{Kind: Literal, Value: v} }
func ConstValue8(name string) Value8 { return Value8{Kind: ConstRef, Name: name} }
func DataLength8(name string) Value8 { return Value8{Kind: DataLabelLength, Name: name} }

// WithOffset returns v carrying a signed offset, added once v resolves.
func (v Value8) WithOffset(offset int16) Value8 {
	v.Offset = offset
	return v
}

func (v *Value8) Resolve(env *Env) error {
	switch v.Kind {
	case Literal:
		return nil
	case ConstRef:
		val, ok := env.Consts[v.Name]
		if !ok {
			return &UnresolvedError{Kind: KindUnresolvedConst, Name: v.Name}
		}
		sum := int32(val) + int32(v.Offset)
		if sum < 0 || sum > 0xFF {
			return &ValueTooLargeError{Name: v.Name, Value: uint16(int32(val) + int32(v.Offset))}
		}
		v.Value = uint8(sum)
	case DataLabelLength:
		if v.Offset != 0 {
			return &OffsetOnLengthRefError{Name: v.Name}
		}
		entry, ok := env.Data[v.Name]
		if !ok {
			return &UnresolvedError{Kind: KindUnresolvedData, Name: v.Name}
		}
		if len(entry.Bytes) > 0xFF {
			return &ValueTooLargeError{Name: v.Name, Value: uint16(len(entry.Bytes))}
		}
		v.Value = uint8(len(entry.Bytes))
	default:
		return fmt.Errorf("ir: value kind %d not valid in an 8-bit slot", v.Kind)
	}
	v.Kind = Literal
	return nil
}

func (v Value8) Resolved() bool { return v.Kind == Literal }
