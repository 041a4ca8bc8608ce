package codec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jakz/j80/pkg/codec"
	"github.com/jakz/j80/pkg/ir"
)

var _ = Describe("Encode", func() {
	It("encodes LD A, 0x42 to the pinned byte sequence", func() {
		i := &ir.Instruction{Shape: ir.ShapeLdRNN, Dst: ir.A, Imm8: ir.LitValue8(0x42)}
		bytes, err := codec.Encode(i)
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes).To(Equal([]byte{0x88, 0x04, 0x42}))
	})

	It("encodes an unconditional JMP target big-endian", func() {
		i := &ir.Instruction{Shape: ir.ShapeJmp, Cond: ir.CondUncond, Target: ir.LitValue16(0x1234)}
		bytes, err := codec.Encode(i)
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes).To(Equal([]byte{0xC8, 0x12, 0x34}))
	})

	It("encodes a 16-bit ALU immediate little-endian", func() {
		i := &ir.Instruction{Shape: ir.ShapeAluNNNN, Dst: ir.BA, Src: ir.CD, Alu: ir.ADD16, Imm16: ir.LitValue16(0x1234)}
		bytes, err := codec.Encode(i)
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes[2]).To(Equal(byte(0x34)))
		Expect(bytes[3]).To(Equal(byte(0x12)))
	})

	It("refuses to encode an instruction with an unresolved operand", func() {
		i := &ir.Instruction{Shape: ir.ShapeLdRNN, Dst: ir.A, Imm8: ir.ConstValue8("N")}
		_, err := codec.Encode(i)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Decode", func() {
	It("is the exact inverse of Encode for every representative shape", func() {
		samples := []ir.Instruction{
			{Shape: ir.ShapeNOP},
			{Shape: ir.ShapeSEXT, Dst: ir.A},
			{Shape: ir.ShapeEI},
			{Shape: ir.ShapeDI},
			{Shape: ir.ShapeLdRshLsh, Dst: ir.A, Src: ir.B, Alu: ir.TransferB8},
			{Shape: ir.ShapeLdRshLsh, Dst: ir.BA, Src: ir.CD, Alu: ir.TransferB16},
			{Shape: ir.ShapeLdRshLsh, Dst: ir.A, Src: ir.B, Alu: ir.LSH8},
			{Shape: ir.ShapeAluReg, Dst: ir.A, Src: ir.B, Src2: ir.C, Alu: ir.ADD8},
			{Shape: ir.ShapeAluReg, Dst: ir.BA, Src: ir.CD, Src2: ir.EF, Alu: ir.XOR16},
			{Shape: ir.ShapeAluNN, Dst: ir.A, Src: ir.B, Alu: ir.ADD8, Imm8: ir.LitValue8(9)},
			{Shape: ir.ShapeAluNNNN, Dst: ir.BA, Src: ir.CD, Alu: ir.SUB16, Imm16: ir.LitValue16(0xBEEF)},
			{Shape: ir.ShapeCmpReg, Dst: ir.A, Src: ir.B, Alu: ir.SUB8},
			{Shape: ir.ShapeCmpNN, Dst: ir.A, Alu: ir.SUB8, Imm8: ir.LitValue8(5)},
			{Shape: ir.ShapeCmpNNNN, Dst: ir.BA, Alu: ir.SUB16, Imm16: ir.LitValue16(0x4242)},
			{Shape: ir.ShapeLdRNN, Dst: ir.A, Imm8: ir.LitValue8(0x42)},
			{Shape: ir.ShapeLdPNNNN, Dst: ir.BA, Imm16: ir.LitValue16(0x1357)},
			{Shape: ir.ShapeLdRPtrNNNN, Dst: ir.A, Imm16: ir.LitValue16(0x2222)},
			{Shape: ir.ShapeLdRPtrPP, Dst: ir.A, Src: ir.BA, Offset: -5},
			{Shape: ir.ShapeSdPtrNNNN, Dst: ir.A, Imm16: ir.LitValue16(0x3333)},
			{Shape: ir.ShapeSdPtrPP, Dst: ir.A, Src: ir.BA, Offset: 7},
			{Shape: ir.ShapeJmp, Cond: ir.CondUncond, Target: ir.LitValue16(0x1000)},
			{Shape: ir.ShapeJmp, Cond: ir.CondZero, Target: ir.LitValue16(0x2000)},
			{Shape: ir.ShapeJmpPP, Cond: ir.CondUncond, Src: ir.BA},
			{Shape: ir.ShapeJmpPP, Cond: ir.CondCarry, Src: ir.SP},
			{Shape: ir.ShapeCall, Cond: ir.CondUncond, Target: ir.LitValue16(0x4000)},
			{Shape: ir.ShapeCall, Cond: ir.CondNSign, Target: ir.LitValue16(0x4444)},
			{Shape: ir.ShapeRet, Cond: ir.CondUncond},
			{Shape: ir.ShapeRet, Cond: ir.CondOverflow},
			{Shape: ir.ShapePush, Dst: ir.A},
			{Shape: ir.ShapePush16, Dst: ir.BA},
			{Shape: ir.ShapePop, Dst: ir.X},
			{Shape: ir.ShapePop16, Dst: ir.IY},
			{Shape: ir.ShapeLF, Dst: ir.A},
			{Shape: ir.ShapeSF, Dst: ir.A},
		}

		for _, want := range samples {
			bytes, err := codec.Encode(&want)
			Expect(err).NotTo(HaveOccurred())

			mem := make([]byte, 65536)
			copy(mem, bytes)

			got, err := codec.Decode(mem, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		}
	})

	It("rejects an undefined opcode", func() {
		mem := make([]byte, 65536)
		mem[0] = 0b00111 << 3 // reserved, no instruction defined
		_, err := codec.Decode(mem, 0)
		Expect(err).To(HaveOccurred())
	})
})
