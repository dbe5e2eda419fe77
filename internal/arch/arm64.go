package arch

import (
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// ARM64Decoder adapts the golang.org/x/arch ARM64 disassembler. Every
// instruction is 4 bytes.
type ARM64Decoder struct {
	r ByteReader
}

func NewARM64Decoder(r ByteReader) *ARM64Decoder {
	return &ARM64Decoder{r: r}
}

func (d *ARM64Decoder) Decode(va uint64) (Instruction, error) {
	data, ok := d.r.ReadBytes(va, 4)
	if !ok {
		return Instruction{}, fmt.Errorf("read 4 bytes at %#x: unmapped", va)
	}
	inst, err := arm64asm.Decode(data)
	if err != nil {
		return Instruction{}, fmt.Errorf("decode at %#x: %w", va, err)
	}

	out := Instruction{Addr: va, Len: 4, Text: strings.ToLower(inst.String())}
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		out.Ops = append(out.Ops, arm64Operand(arg))
	}
	return out, nil
}

// arm64Operand classifies an argument. The decoder does not expose operand
// field boundaries in the fixed-width encoding, so maskable operands are
// reported at offset 1: the ARM policy keeps the first byte literal and
// wildcards the rest.
func arm64Operand(arg arm64asm.Arg) Operand {
	switch arg.(type) {
	case arm64asm.PCRel:
		return Operand{Kind: KindBranch, Off: 1}
	case arm64asm.Imm, arm64asm.Imm64, arm64asm.ImmShift:
		return Operand{Kind: KindImm, Off: 1}
	case arm64asm.MemImmediate, arm64asm.MemExtend:
		return Operand{Kind: KindMem, Off: 1}
	default:
		return Operand{Kind: KindReg}
	}
}
