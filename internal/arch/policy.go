package arch

import "debug/elf"

// MaskRange is a byte range within one instruction that may be wildcarded.
type MaskRange struct {
	Off int
	Len int
}

// OperandPolicy maps a decoded instruction to an optional byte range to
// mask. The policy is chosen once per image from the detected machine, not
// branched on inside the builders.
type OperandPolicy interface {
	// MaskableOperand returns the byte range to wildcard, or false if no
	// operand of the instruction qualifies.
	MaskableOperand(ins Instruction) (MaskRange, bool)
}

// PolicyFor selects the operand wildcard policy for an ELF machine.
func PolicyFor(machine elf.Machine) OperandPolicy {
	switch machine {
	case elf.EM_ARM, elf.EM_AARCH64:
		return armPolicy{}
	default:
		return defaultPolicy{}
	}
}

// defaultPolicy handles variable-length encodings (x86 and friends): the
// first operand with a known byte offset is masked through the end of the
// instruction. Offset 0 means the decoder could not place the operand.
type defaultPolicy struct{}

func (defaultPolicy) MaskableOperand(ins Instruction) (MaskRange, bool) {
	for _, op := range ins.Ops {
		if op.Kind == KindVoid {
			continue
		}
		if op.Off == 0 {
			continue
		}
		return MaskRange{Off: op.Off, Len: ins.Len - op.Off}, true
	}
	return MaskRange{}, false
}

// armPolicy handles fixed-width ARM encodings. Only memory, immediate and
// branch-target operands qualify; register-only operands are never masked.
// The operand length is a heuristic on total instruction size because the
// decoder does not expose exact operand field boundaries: 4-byte
// instructions mask their 3 trailing bytes, 8-byte ones (ADRL pairs) mask 7.
// Other sizes have no known rule and are left alone.
type armPolicy struct{}

func (armPolicy) MaskableOperand(ins Instruction) (MaskRange, bool) {
	for _, op := range ins.Ops {
		switch op.Kind {
		case KindMem, KindImm, KindBranch:
		default:
			continue
		}
		switch ins.Len {
		case 4:
			return MaskRange{Off: op.Off, Len: 3}, true
		case 8:
			return MaskRange{Off: op.Off, Len: 7}, true
		}
		return MaskRange{}, false
	}
	return MaskRange{}, false
}
