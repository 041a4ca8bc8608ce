// Package image writes assembled code+data segments out in the two
// formats original_source/src/assembler.cpp supports: a raw binary dump
// and a Logisim-compatible hex memory file.
package image

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/jakz/j80/pkg/asm"
)

// WriteBinary writes code then data as a flat binary file, matching
// J80Assembler::saveBinary's two fwrite calls.
func WriteBinary(path string, a *asm.Assembler) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(a.Code.Data); err != nil {
		return err
	}
	_, err = f.Write(a.Data.Data)
	return err
}

// WriteLogisim writes a Logisim "v2.0 raw" memory image: a header line
// followed by one lowercase two-digit hex byte per line, code segment
// first then data segment. Grounded on
// J80Assembler::saveForLogisim.
func WriteLogisim(path string, a *asm.Assembler) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := io.WriteString(w, "v2.0 raw\n"); err != nil {
		return err
	}
	for _, b := range a.Code.Data {
		if _, err := fmt.Fprintf(w, "%02x\n", b); err != nil {
			return err
		}
	}
	for _, b := range a.Data.Data {
		if _, err := fmt.Fprintf(w, "%02x\n", b); err != nil {
			return err
		}
	}
	return w.Flush()
}
