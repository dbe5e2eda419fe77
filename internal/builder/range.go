package builder

import (
	"context"
	"fmt"
	"log/slog"

	"sigmaker/internal/sig"
)

// Range produces a transcript of the byte range [start, end) with no
// uniqueness requirement, for copy-out use. Data ranges are copied literally;
// code ranges are appended instruction-wise so operands can be wildcarded.
// The stop condition is purely positional.
func (b *Builder) Range(ctx context.Context, start, end uint64, wildcardOperands bool) (sig.Signature, error) {
	if start == BadAddr || end == BadAddr || start == end {
		return nil, fmt.Errorf("%w: range %#x-%#x", ErrInvalidAddress, start, end)
	}

	var signature sig.Signature

	if !b.Target.IsCode(start) {
		// Data is never wildcarded.
		if !signature.AppendFrom(b.Target, start, int(end-start), false) {
			return nil, fmt.Errorf("%w: range %#x-%#x", ErrInvalidAddress, start, end)
		}
		return signature, nil
	}

	cur := start
	for {
		if ctx.Err() != nil {
			return nil, ErrAborted
		}

		ins, err := b.Decoder.Decode(cur)
		if err != nil {
			if len(signature) == 0 {
				return nil, fmt.Errorf("%w at %#x: %v", ErrDecodeFailed, cur, err)
			}
			// Decode failed mid-range; copy whatever bytes remain.
			slog.Debug("signature reached end of executable code", "va", fmt.Sprintf("%#x", cur))
			if cur < end {
				signature.AppendFrom(b.Target, cur, int(end-cur), false)
			}
			return signature.Trim(), nil
		}

		if err := b.appendInstruction(&signature, ins, wildcardOperands); err != nil {
			return nil, err
		}
		cur += uint64(ins.Len)

		if cur >= end {
			return signature.Trim(), nil
		}
	}
}
