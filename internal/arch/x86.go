package arch

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

const x86MaxInstLen = 15

// X86Decoder adapts the golang.org/x/arch x86 disassembler.
type X86Decoder struct {
	r    ByteReader
	mode int // 32 or 64
}

func NewX86Decoder(r ByteReader, mode int) *X86Decoder {
	return &X86Decoder{r: r, mode: mode}
}

func (d *X86Decoder) Decode(va uint64) (Instruction, error) {
	// Instructions near the end of a segment may have fewer than 15 bytes
	// available.
	n := x86MaxInstLen
	data, ok := d.r.ReadBytes(va, n)
	for !ok && n > 0 {
		n--
		data, ok = d.r.ReadBytes(va, n)
	}
	if !ok || len(data) == 0 {
		return Instruction{}, fmt.Errorf("read bytes at %#x: unmapped", va)
	}

	inst, err := x86asm.Decode(data, d.mode)
	if err != nil {
		return Instruction{}, fmt.Errorf("decode at %#x: %w", va, err)
	}

	out := Instruction{Addr: va, Len: inst.Len, Text: strings.ToLower(inst.String())}
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		out.Ops = append(out.Ops, x86Operand(inst, arg))
	}
	return out, nil
}

// x86Operand classifies an argument. The decoder only exposes byte geometry
// for the PC-relative displacement (PCRelOff), so that is the one operand
// reported with a known offset; everything else is offset 0, "unknown",
// which the default policy skips.
func x86Operand(inst x86asm.Inst, arg x86asm.Arg) Operand {
	switch a := arg.(type) {
	case x86asm.Rel:
		op := Operand{Kind: KindBranch}
		if inst.PCRel > 0 {
			op.Off = inst.PCRelOff
		}
		return op
	case x86asm.Mem:
		op := Operand{Kind: KindMem}
		if a.Base == x86asm.RIP && inst.PCRel > 0 {
			op.Off = inst.PCRelOff
		}
		return op
	case x86asm.Imm:
		return Operand{Kind: KindImm}
	default:
		return Operand{Kind: KindReg}
	}
}
