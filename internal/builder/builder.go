// Package builder implements the signature construction algorithms: the
// uniqueness-growing search anchored at one address, the fixed-range
// transcript, and the cross-reference ranker. All collaborators (image,
// decoder, prompts, progress) are injected so the algorithms stay free of UI
// concerns.
package builder

import (
	"errors"
	"fmt"

	"sigmaker/internal/arch"
	"sigmaker/internal/sig"
)

// BadAddr is the "no such address" sentinel. Builders reject it up front.
const BadAddr = ^uint64(0)

var (
	ErrInvalidAddress    = errors.New("invalid address")
	ErrNotCode           = errors.New("address is not executable code")
	ErrDecodeFailed      = errors.New("failed to decode first instruction")
	ErrNotUnique         = errors.New("signature not unique")
	ErrLengthExceeded    = errors.New("signature exceeded maximum length")
	ErrLeftFunctionScope = errors.New("signature left function scope")
	ErrAborted           = errors.New("aborted")
)

// NotUniqueError reports that growth exhausted the available code or the
// user declined to extend. The partial signature is carried for diagnostics.
type NotUniqueError struct {
	Partial sig.Signature
}

func (e *NotUniqueError) Error() string {
	return fmt.Sprintf("%v after %d bytes", ErrNotUnique, len(e.Partial))
}

func (e *NotUniqueError) Unwrap() error { return ErrNotUnique }

// Answer is the reply to an interactive continue prompt.
type Answer int

const (
	AnswerYes Answer = iota
	AnswerNo
	AnswerCancel
)

// ConfirmFunc asks the user whether to keep growing past the length cap.
type ConfirmFunc func(prompt string) Answer

// ProgressFunc reports per-item progress. Advisory only.
type ProgressFunc func(done, total int)

// Target is the loaded binary image as seen by the builders.
type Target interface {
	sig.ByteReader

	// IsCode reports whether va lies in an executable region.
	IsCode(va uint64) bool

	// FindOccurrences scans the whole image for an IDA-dialect pattern and
	// returns every match address in ascending order.
	FindOccurrences(pattern string) []uint64

	// FunctionContaining resolves the enclosing function of va. The start
	// address identifies the function.
	FunctionContaining(va uint64) (start uint64, ok bool)

	// IncomingFarRefs enumerates origins of far references (calls, jumps,
	// far data references) to va.
	IncomingFarRefs(va uint64) []uint64
}

// Builder bundles the collaborators shared by all three algorithms.
type Builder struct {
	Target  Target
	Decoder arch.Decoder
	Policy  arch.OperandPolicy

	// Confirm handles the "signature is getting long, continue?" prompt.
	// nil behaves like a caller that always declines interaction; growth
	// then fails with ErrLengthExceeded at the cap.
	Confirm ConfirmFunc

	// Progress receives per-reference updates during xref ranking. nil is
	// silent.
	Progress ProgressFunc
}

// Options controls the growing search.
type Options struct {
	// WildcardOperands masks operand bytes per the architecture policy.
	WildcardOperands bool

	// ContinueOutsideFunction keeps growing past the enclosing function.
	ContinueOutsideFunction bool

	// MaxLength is the growth cap in bytes; 0 means DefaultMaxLength.
	MaxLength int

	// AskOnOverflow prompts via Confirm at the cap instead of failing.
	AskOnOverflow bool
}

const (
	// DefaultMaxLength caps interactive signature growth.
	DefaultMaxLength = 1000

	// DefaultXrefCap caps per-reference growth during xref ranking.
	DefaultXrefCap = 250
)

func (o Options) maxLength() int {
	if o.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return o.MaxLength
}

// appendInstruction appends one instruction's bytes to s. With a maskable
// operand range the bytes before it stay literal, the range itself is
// wildcarded, and for an operand at offset 0 the operator bytes after it are
// kept literal too.
func (b *Builder) appendInstruction(s *sig.Signature, ins arch.Instruction, wildcardOperands bool) error {
	if wildcardOperands && b.Policy != nil {
		if m, ok := b.Policy.MaskableOperand(ins); ok && m.Len > 0 {
			if !s.AppendFrom(b.Target, ins.Addr, m.Off, false) {
				return fmt.Errorf("%w: %#x", ErrInvalidAddress, ins.Addr)
			}
			if !s.AppendFrom(b.Target, ins.Addr+uint64(m.Off), m.Len, true) {
				return fmt.Errorf("%w: %#x", ErrInvalidAddress, ins.Addr)
			}
			if m.Off == 0 {
				if !s.AppendFrom(b.Target, ins.Addr+uint64(m.Len), ins.Len-m.Len, false) {
					return fmt.Errorf("%w: %#x", ErrInvalidAddress, ins.Addr)
				}
			}
			return nil
		}
	}
	if !s.AppendFrom(b.Target, ins.Addr, ins.Len, false) {
		return fmt.Errorf("%w: %#x", ErrInvalidAddress, ins.Addr)
	}
	return nil
}
