// Package disasm renders an assembled image as a human-readable listing:
// address, raw bytes, mnemonic, one instruction per line, followed by a
// hex+ASCII dump of the data segment. Grounded on
// original_source/src/assembler.cpp's printProgram and
// original_source/src/disassembler.cpp's column layout.
package disasm

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jakz/j80/pkg/codec"
)

// Line is one decoded instruction, for JSON output. Bytes is the raw
// encoding as a hex string rather than a byte array so the JSONL output
// stays one compact line per instruction, matching the
// cmd/z80opt verify-jsonl convention of a flat line-oriented record.
type Line struct {
	Addr     uint16 `json:"addr"`
	Bytes    string `json:"bytes"`
	Mnemonic string `json:"mnemonic"`
}

// Listing walks code from address 0 for length bytes, printing one line
// per decoded instruction in the "ADDR: BYTES  MNEMONIC" layout
// printProgram uses (hex bytes in a field wide enough for 4 bytes, mnemonic
// following). An undecodable opcode is printed as "??" and the walk
// resumes at the next byte, rather than aborting the whole dump, since a
// data segment or a stray
// constant pool can legitimately follow code that a flat disassembly
// can't tell apart from more code.
func Listing(w io.Writer, mem []byte, length uint16) error {
	var addr uint16
	for addr < length {
		instr, err := codec.Decode(mem, addr)
		if err != nil {
			fmt.Fprintf(w, "%04X: ??\n", addr)
			addr++
			continue
		}

		n := instr.Length()
		var hex strings.Builder
		for i := uint16(0); i < n; i++ {
			fmt.Fprintf(&hex, "%02X", mem[int(addr)+int(i)])
		}
		for i := n; i < 4; i++ {
			hex.WriteString("  ")
		}

		fmt.Fprintf(w, "%04X: %-8s %s\n", addr, hex.String(), codec.Mnemonic(&instr))

		if n == 0 {
			addr++
		} else {
			addr += n
		}
	}
	return nil
}

// ListingJSON walks code the same way Listing does, but emits one JSON
// object per instruction (JSONL, a stream of independently-parseable
// lines rather than one big array) for tooling to consume.
func ListingJSON(w io.Writer, mem []byte, length uint16) error {
	enc := json.NewEncoder(w)
	var addr uint16
	for addr < length {
		instr, err := codec.Decode(mem, addr)
		if err != nil {
			if err := enc.Encode(Line{Addr: addr, Bytes: "", Mnemonic: "??"}); err != nil {
				return err
			}
			addr++
			continue
		}

		n := instr.Length()
		var hex strings.Builder
		for i := uint16(0); i < n; i++ {
			fmt.Fprintf(&hex, "%02X", mem[int(addr)+int(i)])
		}

		if err := enc.Encode(Line{Addr: addr, Bytes: hex.String(), Mnemonic: codec.Mnemonic(&instr)}); err != nil {
			return err
		}

		if n == 0 {
			addr++
		} else {
			addr += n
		}
	}
	return nil
}

// DataDump prints a conventional hex+ASCII dump of a data segment, 16
// bytes per line, non-printable bytes rendered as '.' in the ASCII
// column.
func DataDump(w io.Writer, base uint16, data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		fmt.Fprintf(w, "%04X: ", base+uint16(off))
		for i := 0; i < 16; i++ {
			if i < len(row) {
				fmt.Fprintf(w, "%02X ", row[i])
			} else {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprint(w, " ")
		for _, b := range row {
			if b >= 0x20 && b < 0x7F {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}
}
