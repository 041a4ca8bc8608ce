// Command j80 builds, runs, disassembles and debugs J80 programs: a
// cobra root command with one subcommand per toolchain stage, each
// owning its own flag set and returning errors through RunE.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jakz/j80/pkg/asm"
	"github.com/jakz/j80/pkg/disasm"
	"github.com/jakz/j80/pkg/image"
	"github.com/jakz/j80/pkg/parser"
	"github.com/jakz/j80/pkg/vm"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "j80",
		Short: "J80 assembler, linker and virtual machine",
	}

	rootCmd.AddCommand(buildCmd(), runCmd(), disasmCmd(), debugCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func assembleFile(path string) (*asm.Assembler, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := parser.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := a.Assemble(); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", path, err)
	}
	return a, nil
}

func buildCmd() *cobra.Command {
	var output string
	var format string

	cmd := &cobra.Command{
		Use:   "build [source.j80]",
		Short: "Assemble a source file into a raw or Logisim image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := assembleFile(args[0])
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(args[0], ".j80") + ".bin"
			}

			switch format {
			case "raw":
				err = image.WriteBinary(output, a)
			case "logisim":
				err = image.WriteLogisim(output, a)
			default:
				return fmt.Errorf("unknown format %q (want raw or logisim)", format)
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s: %d bytes code, %d bytes data -> %s\n",
				args[0], len(a.Code.Data), len(a.Data.Data), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: source with .bin suffix)")
	cmd.Flags().StringVarP(&format, "format", "f", "raw", "Image format: raw or logisim")
	return cmd
}

func runCmd() *cobra.Command {
	var verbose bool
	var maxSteps int

	cmd := &cobra.Command{
		Use:   "run [source.j80]",
		Short: "Assemble and run a program for up to --max-steps instructions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := assembleFile(args[0])
			if err != nil {
				return err
			}

			m := vm.New()
			m.LoadImage(a.Code.Data, a.Data.Data, a.Code.Offset)
			m.Regs.PC = a.Code.Offset
			m.StdOut = vm.StdOutFunc(func(b byte) { fmt.Printf("%c", b) })

			for steps := 0; maxSteps == 0 || steps < maxSteps; steps++ {
				if verbose {
					fmt.Fprintf(os.Stderr, "%04X\n", m.Regs.PC)
				}
				if err := m.Step(); err != nil {
					return fmt.Errorf("step at 0x%04X: %w", m.Regs.PC, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print PC before each step")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 1_000_000, "Stop after this many instructions (0 = unlimited)")
	return cmd
}

func disasmCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "disasm [source.j80]",
		Short: "Assemble a source file and print its disassembly listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := assembleFile(args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return disasm.ListingJSON(os.Stdout, a.Code.Data, uint16(len(a.Code.Data)))
			}

			if err := disasm.Listing(os.Stdout, a.Code.Data, uint16(len(a.Code.Data))); err != nil {
				return err
			}
			if len(a.Data.Data) > 0 {
				fmt.Println("\n; data segment")
				disasm.DataDump(os.Stdout, a.Data.Offset, a.Data.Data)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit one JSON object per instruction instead of a text listing")
	return cmd
}

func debugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug [source.j80]",
		Short: "Assemble a source file and drop into a line-oriented debugger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := assembleFile(args[0])
			if err != nil {
				return err
			}
			m := vm.New()
			m.LoadImage(a.Code.Data, a.Data.Data, a.Code.Offset)
			m.Regs.PC = a.Code.Offset
			m.DebugSymbols = a.DebugSymbols
			m.StdOut = vm.StdOutFunc(func(b byte) { fmt.Printf("%c", b) })

			return debugREPL(m)
		},
	}
	return cmd
}

// debugREPL drives step/continue/regs/peek/break/save/load/quit from
// stdin, the line-oriented substitute for original_source/src/vm/ui.cpp's
// curses renderer: the underlying VM operations it drove (single step,
// run-until-stopped, register dump, breakpoints, RAM peek) are in scope,
// the TUI itself is not.
func debugREPL(m *vm.VM) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("j80 debug — step, continue, regs, peek <addr>, break <addr>, save <file>, load <file>, quit")

	for {
		fmt.Printf("(0x%04X) > ", m.Regs.PC)
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		word, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch word {
		case "step", "s":
			if sym, ok := m.DebugSymbols[m.Regs.PC]; ok {
				fmt.Println(sym)
			}
			if err := m.Step(); err != nil {
				fmt.Println("error:", err)
			}
		case "continue", "c":
			for {
				if m.Breakpoints[m.Regs.PC] {
					fmt.Printf("breakpoint at 0x%04X\n", m.Regs.PC)
					break
				}
				if err := m.Step(); err != nil {
					fmt.Println("error:", err)
					break
				}
			}
		case "regs", "r":
			printRegs(m)
		case "peek", "p":
			addr, err := strconv.ParseUint(rest, 0, 16)
			if err != nil {
				fmt.Println("bad address:", rest)
				continue
			}
			fmt.Printf("0x%04X: 0x%02X\n", addr, m.RAM[uint16(addr)])
		case "break", "b":
			addr, err := strconv.ParseUint(rest, 0, 16)
			if err != nil {
				fmt.Println("bad address:", rest)
				continue
			}
			m.SetBreakpoint(uint16(addr))
		case "save":
			if err := m.Save(rest); err != nil {
				fmt.Println("save failed:", err)
			}
		case "load":
			if err := m.Load(rest); err != nil {
				fmt.Println("load failed:", err)
			}
		case "quit", "q":
			return nil
		default:
			fmt.Println("unknown command:", word)
		}
	}
}

func printRegs(m *vm.VM) {
	fmt.Printf("PC=%04X FLAGS=%04b (O S Z C)\n", m.Regs.PC, m.Regs.Flags)
	fmt.Printf("BA=%04X CD=%04X EF=%04X XY=%04X\n",
		m.Regs.Get16(0), m.Regs.Get16(1), m.Regs.Get16(2), m.Regs.Get16(3))
	fmt.Printf("SP=%04X FP=%04X IX=%04X IY=%04X\n",
		m.Regs.Get16(4), m.Regs.Get16(5), m.Regs.Get16(6), m.Regs.Get16(7))
}
