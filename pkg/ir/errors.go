package ir

import "fmt"

// ErrorKind classifies a fatal assembly-time error. Every Value resolution
// or encoding failure carries one of these so callers can report the
// exact class of problem, not just a string.
type ErrorKind uint8

const (
	KindParseError ErrorKind = iota
	KindUnresolvedLabel
	KindUnresolvedConst
	KindUnresolvedData
	KindUnresolvedInterrupt
	KindValueTooLarge
	KindOffsetOnLengthRef
	KindInvalidOpcode
	KindImageOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindUnresolvedLabel:
		return "UnresolvedLabel"
	case KindUnresolvedConst:
		return "UnresolvedConst"
	case KindUnresolvedData:
		return "UnresolvedData"
	case KindUnresolvedInterrupt:
		return "UnresolvedInterrupt"
	case KindValueTooLarge:
		return "ValueTooLarge"
	case KindOffsetOnLengthRef:
		return "OffsetOnLengthRef"
	case KindInvalidOpcode:
		return "InvalidOpcode"
	case KindImageOverflow:
		return "ImageOverflow"
	default:
		return "Unknown"
	}
}

// UnresolvedError covers UnresolvedLabel, UnresolvedConst, UnresolvedData
// and UnresolvedInterrupt: a symbolic Value that never got a definition.
type UnresolvedError struct {
	Kind ErrorKind
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Name)
}

func (e *UnresolvedError) ErrorKind() ErrorKind { return e.Kind }

// ValueTooLargeError is raised when a resolved value can't fit the slot
// it was placed into (e.g. a const or data length over 255 used as an
// 8-bit immediate).
type ValueTooLargeError struct {
	Name  string
	Value uint16
}

func (e *ValueTooLargeError) Error() string {
	return fmt.Sprintf("%s: value %d (0x%04X) for %q does not fit", KindValueTooLarge, e.Value, e.Value, e.Name)
}
func (e *ValueTooLargeError) ErrorKind() ErrorKind { return KindValueTooLarge }

// OffsetOnLengthRefError is raised when a DATA_LABEL_LENGTH reference
// carries a nonzero offset — a length is a single resolved number, "the
// length of X, 3 bytes in" has no meaning the way "the address of X, 3
// bytes in" does.
type OffsetOnLengthRefError struct {
	Name string
}

func (e *OffsetOnLengthRefError) Error() string {
	return fmt.Sprintf("%s: %q is a data length reference and cannot carry a nonzero offset", KindOffsetOnLengthRef, e.Name)
}
func (e *OffsetOnLengthRefError) ErrorKind() ErrorKind { return KindOffsetOnLengthRef }

// ParseError wraps a lexer/parser failure with a source location.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", KindParseError, e.Message)
	}
	return fmt.Sprintf("%s: %s:%d:%d: %s", KindParseError, e.File, e.Line, e.Column, e.Message)
}
func (e *ParseError) ErrorKind() ErrorKind { return KindParseError }

// InvalidOpcodeError is raised by the codec when a byte stream's opcode
// field does not correspond to any defined instruction.
type InvalidOpcodeError struct {
	Opcode  uint8
	Address uint16
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("%s: opcode 0b%05b at address 0x%04X", KindInvalidOpcode, e.Opcode, e.Address)
}
func (e *InvalidOpcodeError) ErrorKind() ErrorKind { return KindInvalidOpcode }

// ImageOverflowError is raised when the assembled code+data segments
// don't fit in the 64 KiB address space.
type ImageOverflowError struct {
	Size int
}

func (e *ImageOverflowError) Error() string {
	return fmt.Sprintf("%s: image size %d exceeds 65536 bytes", KindImageOverflow, e.Size)
}
func (e *ImageOverflowError) ErrorKind() ErrorKind { return KindImageOverflow }
