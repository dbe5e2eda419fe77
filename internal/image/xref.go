package image

import (
	"debug/elf"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

// buildXrefs decodes every executable segment once and indexes far
// references by target. Origins are recorded in address order, which
// IncomingFarRefs inherits.
func (im *Image) buildXrefs() {
	im.xrefs = make(map[uint64][]uint64)
	for _, l := range im.Loads {
		if l.Flags&elf.PF_X == 0 || l.Filesz == 0 {
			continue
		}
		end := l.Off + l.Filesz
		if end > uint64(len(im.All)) {
			end = uint64(len(im.All))
		}
		data := im.All[l.Off:end]
		switch im.Machine {
		case elf.EM_AARCH64:
			im.scanARM64(l.Vaddr, data)
		case elf.EM_X86_64:
			im.scanX86(l.Vaddr, data, 64)
		case elf.EM_386:
			im.scanX86(l.Vaddr, data, 32)
		default:
			slog.Debug("no cross-reference scanner for machine", "machine", im.Machine.String())
			return
		}
	}
	slog.Debug("cross-reference index built", "targets", len(im.xrefs))
}

func (im *Image) addXref(target, origin uint64) {
	im.xrefs[target] = append(im.xrefs[target], origin)
}

// scanARM64 records branch targets and ADRP-pair data references. The pair
// handling follows the standard adrp/add and adrp/ldr materialization
// sequences; a lone adrp only names a page, not an address, and is skipped.
func (im *Image) scanARM64(base uint64, data []byte) {
	for i := 0; i+4 <= len(data); i += 4 {
		inst, err := arm64asm.Decode(data[i : i+4])
		if err != nil {
			continue
		}
		va := base + uint64(i)

		if inst.Op == arm64asm.ADRP {
			if pcRel, ok := inst.Args[1].(arm64asm.PCRel); ok && i+8 <= len(data) {
				page := (va + uint64(int64(pcRel))) &^ uint64(0xfff)
				if target, ok := adrpPairTarget(inst, data[i+4:i+8], page); ok {
					im.addXref(target, va)
				}
			}
			continue
		}

		for _, arg := range inst.Args {
			if arg == nil {
				break
			}
			if pcRel, ok := arg.(arm64asm.PCRel); ok {
				im.addXref(va+uint64(int64(pcRel)), va)
			}
		}
	}
}

// adrpPairTarget resolves the full target of an adrp followed by an add on
// the same register, the usual two-instruction address materialization.
func adrpPairTarget(adrp arm64asm.Inst, next []byte, page uint64) (uint64, bool) {
	dst, ok := regOf(adrp.Args[0])
	if !ok {
		return 0, false
	}

	inst, err := arm64asm.Decode(next)
	if err != nil || inst.Op != arm64asm.ADD {
		return 0, false
	}
	if len(inst.Args) < 3 || inst.Args[2] == nil {
		return 0, false
	}
	src, ok := regOf(inst.Args[1])
	if !ok || src != dst {
		return 0, false
	}
	imm, ok := addImmediate(inst.Args[2])
	if !ok {
		return 0, false
	}
	return page + imm, true
}

func regOf(arg arm64asm.Arg) (arm64asm.Reg, bool) {
	switch a := arg.(type) {
	case arm64asm.Reg:
		return a, true
	case arm64asm.RegSP:
		return arm64asm.Reg(a), true
	}
	return 0, false
}

// addImmediate extracts the immediate of an add instruction. ImmShift does
// not export its fields, so the rendered form is parsed instead.
func addImmediate(arg arm64asm.Arg) (uint64, bool) {
	switch a := arg.(type) {
	case arm64asm.Imm:
		return uint64(a.Imm), true
	case arm64asm.ImmShift:
		str := a.String()
		if strings.HasPrefix(str, "#0x") {
			if val, err := strconv.ParseUint(str[3:], 16, 64); err == nil {
				return val, true
			}
		} else if strings.HasPrefix(str, "#") {
			if val, err := strconv.ParseInt(str[1:], 10, 64); err == nil {
				return uint64(val), true
			}
		}
	}
	return 0, false
}

// scanX86 records direct branch targets and RIP-relative memory references.
// Decode failures skip a single byte so the scan resynchronizes quickly.
func (im *Image) scanX86(base uint64, data []byte, mode int) {
	for i := 0; i < len(data); {
		inst, err := x86asm.Decode(data[i:], mode)
		if err != nil || inst.Len == 0 {
			i++
			continue
		}
		va := base + uint64(i)
		next := va + uint64(inst.Len)

		for _, arg := range inst.Args {
			if arg == nil {
				break
			}
			switch a := arg.(type) {
			case x86asm.Rel:
				im.addXref(next+uint64(int64(a)), va)
			case x86asm.Mem:
				if a.Base == x86asm.RIP {
					im.addXref(next+uint64(a.Disp), va)
				}
			}
		}
		i += inst.Len
	}
}
