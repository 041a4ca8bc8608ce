// Package asm assembles a sequence of ir.Instruction items into a code and
// data segment, resolving labels, consts and data references and laying
// out the interrupt vector table. The pipeline and its stage order are
// grounded directly on original_source/src/assembler.cpp's assemble():
// prepareSource, buildDataSegment, solveDataReferences, solveJumps,
// buildCodeSegment, then data.offset = code.offset + code.length.
package asm

import (
	"fmt"

	"github.com/jakz/j80/pkg/codec"
	"github.com/jakz/j80/pkg/ir"
)

const maxInterrupts = 4

// interruptVectorBase is the byte address the four interrupt vector slots
// start at; prepareSource pads the program header with NOPs to reach it.
const interruptVectorBase = 0b10000

// Segment is a contiguous byte range of the final image.
type Segment struct {
	Offset uint16
	Data   []byte
}

// Assembler accumulates instructions and named data/const entries, then
// assembles them into Code and Data segments. Construct with New and feed
// it via Add/AddData/AddConst/MarkInterrupt, mirroring
// original_source/src/assembler.h's J80Assembler accumulation API —
// parsing the source text itself is out of scope (spec's "parser is
// upstream" boundary), so callers build the instruction list directly or
// via a front-end that does.
type Assembler struct {
	instructions []ir.Instruction
	data         []*ir.DataEntry
	dataIndex    map[string]*ir.DataEntry
	consts       map[string]uint16
	irqs         [maxInterrupts]bool

	stackBaseSet bool
	stackBase    uint16
	entryPointSet bool
	entryPoint    uint16

	Code Segment
	Data Segment

	// DebugSymbols optionally maps a code address to the source line it
	// was assembled from, for a debugger to show alongside the decoded
	// mnemonic. Populated only when an added Instruction carries
	// SourceLine.
	DebugSymbols map[uint16]string

	Verbose bool
	Log     func(format string, args ...any)
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{
		dataIndex: make(map[string]*ir.DataEntry),
		consts:    make(map[string]uint16),
		Log:       func(string, ...any) {},
	}
}

// Add appends one instruction to the program.
func (a *Assembler) Add(i ir.Instruction) { a.instructions = append(a.instructions, i) }

// AddData registers a named data blob, in insertion order — the same
// order buildDataSegment lays entries out in, matching the original's
// ordered data_map.
func (a *Assembler) AddData(name string, bytes []byte) error {
	if _, exists := a.dataIndex[name]; exists {
		return fmt.Errorf("asm: data %q already defined", name)
	}
	entry := &ir.DataEntry{Name: name, Bytes: bytes}
	a.data = append(a.data, entry)
	a.dataIndex[name] = entry
	return nil
}

// AddConst registers a named constant value.
func (a *Assembler) AddConst(name string, value uint16) error {
	if _, exists := a.consts[name]; exists {
		return fmt.Errorf("asm: const %q already defined", name)
	}
	a.consts[name] = value
	return nil
}

// MarkInterrupt records that interrupt slot index is used by the program,
// so prepareSource reserves and wires its vector table entry.
func (a *Assembler) MarkInterrupt(index int) error {
	if index < 0 || index >= maxInterrupts {
		return fmt.Errorf("asm: interrupt index %d out of range", index)
	}
	a.irqs[index] = true
	return nil
}

// SetStackBase records the stack pointer's initial value. First call
// wins, mirroring Optional<u16>::set's "already set" refusal in the
// original — a second call is a no-op, not an error, matching that type's
// behavior exactly.
func (a *Assembler) SetStackBase(v uint16) bool {
	if a.stackBaseSet {
		return false
	}
	a.stackBaseSet, a.stackBase = true, v
	return true
}

// SetEntryPoint records the code segment's starting offset in the final
// image. First call wins, same semantics as SetStackBase.
func (a *Assembler) SetEntryPoint(v uint16) bool {
	if a.entryPointSet {
		return false
	}
	a.entryPointSet, a.entryPoint = true, v
	return true
}

// Assemble runs the full pipeline and populates Code/Data. It stops and
// returns the first error encountered, exactly as
// original_source/src/assembler.cpp's assemble() short-circuits on the
// first failing Result.
func (a *Assembler) Assemble() error {
	if a.entryPointSet {
		a.Code.Offset = a.entryPoint
	}

	a.prepareSource()
	a.buildDataSegment()

	if err := a.solveDataReferences(); err != nil {
		return err
	}
	if err := a.solveJumps(); err != nil {
		return err
	}
	a.buildCodeSegment()

	a.Data.Offset = a.Code.Offset + uint16(len(a.Code.Data))

	if int(a.Code.Offset)+len(a.Code.Data)+len(a.Data.Data) > 0x10000 {
		return &ir.ImageOverflowError{Size: int(a.Code.Offset) + len(a.Code.Data) + len(a.Data.Data)}
	}

	return nil
}

// prepareSource splices in the implicit program header: an entry label if
// none was given, a stack-base load if one was set, and — only if any
// interrupt is used — a jump-to-main plus a full interrupt vector table.
// Grounded line-for-line on J80Assembler::prepareSource.
func (a *Assembler) prepareSource() {
	hasInterrupt := false
	for _, used := range a.irqs {
		hasInterrupt = hasInterrupt || used
	}

	mainIdx := -1
	for idx, instr := range a.instructions {
		if instr.Shape == ir.ShapeLabel && instr.Label == "main" {
			mainIdx = idx
			break
		}
	}
	if mainIdx == -1 {
		a.instructions = append([]ir.Instruction{ir.NewLabel("main")}, a.instructions...)
		mainIdx = 0
	}

	if a.stackBaseSet {
		ld := ir.Instruction{Shape: ir.ShapeLdPNNNN, Dst: ir.SP, Imm16: ir.LitValue16(a.stackBase)}
		a.instructions = insertAt(a.instructions, mainIdx+1, ld)
	}

	if !hasInterrupt {
		return
	}

	var header []ir.Instruction
	for i := maxInterrupts - 1; i >= 0; i-- {
		if a.irqs[i] {
			header = append(header,
				ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.CondUncond, Target: ir.InterruptTarget(i)},
				ir.Instruction{Shape: ir.ShapeNOP},
			)
		} else {
			header = append(header, ir.NewPadding(4))
		}
	}
	// header was appended in reverse slot order (3,2,1,0); reverse it back
	// so slot 0 comes first, matching repeated push_front in the original.
	reverseInstructions(header)

	nops := make([]ir.Instruction, interruptVectorBase-3)
	for i := range nops {
		nops[i] = ir.Instruction{Shape: ir.ShapeNOP}
	}

	jmpMain := ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.CondUncond, Target: ir.CodeLabel("main")}

	preamble := append([]ir.Instruction{jmpMain}, nops...)
	preamble = append(preamble, header...)
	a.instructions = append(preamble, a.instructions...)
}

func insertAt(s []ir.Instruction, idx int, v ir.Instruction) []ir.Instruction {
	s = append(s, ir.Instruction{})
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func reverseInstructions(s []ir.Instruction) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// buildDataSegment lays out every registered data entry back to back, in
// registration order, recording each entry's offset within the segment.
func (a *Assembler) buildDataSegment() {
	var total int
	for _, entry := range a.data {
		total += len(entry.Bytes)
	}
	a.Log("building data segment, total size: %d bytes", total)

	a.Data.Data = make([]byte, total)
	var offset int
	for _, entry := range a.data {
		copy(a.Data.Data[offset:], entry.Bytes)
		entry.Offset = uint16(offset)
		offset += len(entry.Bytes)
	}
}

// computeDataSegmentOffset returns the byte length of everything preceding
// the data segment: the sum of every instruction's length. This is the
// "base" solveDataReferences resolves DataLabelAddress values against —
// code.offset is added separately inside Env.DataBase when Assemble wires
// the environment, exactly mirroring computeDataSegmentOffset() plus the
// codeSegment.offset term applied by solveJumps for code labels.
func (a *Assembler) computeDataSegmentOffset() uint16 {
	var total uint16
	for i := range a.instructions {
		total += a.instructions[i].Length()
	}
	return total
}

// solveDataReferences resolves every Value8/Value16 carried by every
// instruction against the data/const environment, stopping at the first
// failure — mirroring J80Assembler::solveDataReferences's short-circuit
// over i->solve(env).
func (a *Assembler) solveDataReferences() error {
	base := a.computeDataSegmentOffset()
	a.Log("solving data references, base data offset: 0x%04X", base+a.Code.Offset)

	env := &ir.Env{
		Data:     a.dataIndex,
		Consts:   a.consts,
		DataBase: base + a.Code.Offset,
	}

	for i := range a.instructions {
		if err := a.instructions[i].Resolve(env); err != nil {
			// Target/jump resolution happens in solveJumps, not here; an
			// instruction with only an address target and no data/const
			// operand correctly resolves to nothing at this stage.
			if a.instructions[i].Shape == ir.ShapeJmp || a.instructions[i].Shape == ir.ShapeCall {
				continue
			}
			return err
		}
	}
	return nil
}

// solveJumps computes every label and interrupt-slot address in one pass
// over the (now header-prepended) instruction list, then patches every
// jump/call target in a second pass. Grounded line-for-line on
// J80Assembler::solveJumps, including its label-vs-interrupt fatal/warn
// asymmetry: an unresolved label halts assembly, an unresolved interrupt
// slot only logs.
func (a *Assembler) solveJumps() error {
	labels := make(map[string]uint16)
	var interrupts [maxInterrupts]*uint16

	var address uint16
	for i := range a.instructions {
		instr := &a.instructions[i]
		switch instr.Shape {
		case ir.ShapeLabel:
			addr := address
			labels[instr.Label] = addr
			a.Log("label %s resolved to 0x%04X", instr.Label, addr)
		case ir.ShapeInterruptEntry:
			addr := address
			interrupts[instr.InterruptIndex] = &addr
			a.Log("interrupt %d resolved to 0x%04X", instr.InterruptIndex, addr)
		default:
			address += instr.Length()
		}
	}

	env := &ir.Env{
		Labels:    labels,
		Interrupt: interrupts,
		CodeBase:  a.Code.Offset,
	}

	for i := range a.instructions {
		instr := &a.instructions[i]
		var target *ir.Value16
		switch instr.Shape {
		case ir.ShapeJmp, ir.ShapeCall:
			target = &instr.Target
		default:
			continue
		}
		if target.Resolved() {
			continue
		}
		if err := target.Resolve(env); err != nil {
			if ue, ok := err.(*ir.UnresolvedError); ok && ue.Kind == ir.KindUnresolvedInterrupt {
				a.Log("interrupt entry for %s unresolved", ue.Name)
				continue
			}
			return err
		}
	}

	return nil
}

// buildCodeSegment encodes every real instruction into Code.Data, in
// order, at its running offset within the segment. Code.Data holds only
// the encoded bytes; Code.Offset is added to the addresses recorded in
// DebugSymbols, not to positions in Code.Data.
func (a *Assembler) buildCodeSegment() {
	var total uint16
	var count int
	for i := range a.instructions {
		l := a.instructions[i].Length()
		total += l
		if l != 0 {
			count++
		}
	}
	a.Log("building code segment, total size: %d bytes in %d instructions", total, count)

	a.Code.Data = make([]byte, total)
	var offset uint16
	var address uint16
	for i := range a.instructions {
		instr := &a.instructions[i]
		if !instr.IsReal() {
			continue
		}
		if instr.SourceLine != "" {
			if a.DebugSymbols == nil {
				a.DebugSymbols = make(map[uint16]string)
			}
			a.DebugSymbols[a.Code.Offset+address] = instr.SourceLine
		}
		bytes, err := codec.Encode(instr)
		if err != nil {
			// Every operand was resolved in solveDataReferences/solveJumps
			// before this stage runs; a failure here is a logic error in
			// the assembler itself, not a user-facing condition.
			panic(err)
		}
		copy(a.Code.Data[offset:], bytes)
		offset += uint16(len(bytes))
		address += instr.Length()
	}
}
