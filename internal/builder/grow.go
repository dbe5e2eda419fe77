package builder

import (
	"context"
	"fmt"
	"log/slog"

	"sigmaker/internal/sig"
)

// GrowUnique builds a signature anchored at anchor and grows it one
// instruction at a time until it matches exactly once in the whole image.
// Growth is monotone: bytes are never edited or removed, and uniqueness is
// re-checked by a full image scan after every step. That re-scan is a
// deliberate simplicity trade-off and part of the observable behavior; the
// search must never return on a prefix that still has multiple matches.
func (b *Builder) GrowUnique(ctx context.Context, anchor uint64, opt Options) (sig.Signature, error) {
	if anchor == BadAddr {
		return nil, fmt.Errorf("%w: %#x", ErrInvalidAddress, anchor)
	}
	if !b.Target.IsCode(anchor) {
		return nil, fmt.Errorf("%w: %#x", ErrNotCode, anchor)
	}

	fn, inFunc := b.Target.FunctionContaining(anchor)
	maxLen := opt.maxLength()

	var signature sig.Signature
	partLen := 0
	cur := anchor
	for {
		if ctx.Err() != nil {
			return nil, ErrAborted
		}

		ins, err := b.Decoder.Decode(cur)
		if err != nil {
			if len(signature) == 0 {
				return nil, fmt.Errorf("%w at %#x: %v", ErrDecodeFailed, cur, err)
			}
			// Ran off the end of decodable code. Report what we have so
			// the caller can still show the partial signature.
			slog.Debug("signature reached end of executable code", "va", fmt.Sprintf("%#x", cur))
			return nil, &NotUniqueError{Partial: signature}
		}

		if partLen > maxLen {
			if !opt.AskOnOverflow || b.Confirm == nil {
				return nil, fmt.Errorf("%w (%d bytes)", ErrLengthExceeded, len(signature))
			}
			switch b.Confirm(fmt.Sprintf("Signature is already at %d bytes. Continue?", len(signature))) {
			case AnswerYes:
				partLen = 0
			case AnswerNo:
				return nil, &NotUniqueError{Partial: signature}
			default:
				return nil, ErrAborted
			}
		}
		partLen += ins.Len

		if err := b.appendInstruction(&signature, ins, opt.WildcardOperands); err != nil {
			return nil, err
		}

		occurrences := b.Target.FindOccurrences(signature.Render(sig.FormatIDA))
		if len(occurrences) == 1 {
			return signature.Trim(), nil
		}

		cur += uint64(ins.Len)
		if !opt.ContinueOutsideFunction && inFunc {
			if nf, ok := b.Target.FunctionContaining(cur); !ok || nf != fn {
				return nil, ErrLeftFunctionScope
			}
		}
	}
}
