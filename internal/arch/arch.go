// Package arch defines a common decoded-instruction view over the
// architecture-specific disassemblers, plus the per-architecture policy that
// decides which operand bytes of an instruction may be wildcarded.
package arch

import "fmt"

// OperandKind classifies an operand for the wildcard policy.
type OperandKind int

const (
	KindVoid   OperandKind = iota // no operand
	KindReg                       // register, never maskable
	KindImm                       // immediate value
	KindMem                       // memory reference / displacement
	KindBranch                    // near or far branch target
)

// Operand is one decoded operand. Off is the byte offset of the operand's
// encoding within the instruction; 0 means the offset is unknown or not
// applicable.
type Operand struct {
	Kind OperandKind
	Off  int
}

// Instruction is a simplified decoded instruction.
type Instruction struct {
	Addr uint64
	Len  int
	Text string // formatted disassembly string
	Ops  []Operand
}

// Decoder decodes a single instruction at a virtual address.
type Decoder interface {
	Decode(va uint64) (Instruction, error)
}

// ByteReader supplies raw instruction bytes from the loaded image.
type ByteReader interface {
	ReadBytes(va uint64, n int) ([]byte, bool)
}

func (k OperandKind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindReg:
		return "reg"
	case KindImm:
		return "imm"
	case KindMem:
		return "mem"
	case KindBranch:
		return "branch"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}
