package builder

import (
	"context"
	"sort"

	"sigmaker/internal/sig"
)

// XrefSignature pairs a cross-reference origin with the unique signature
// grown from it.
type XrefSignature struct {
	Origin uint64
	Sig    sig.Signature
}

// RankXrefs grows a unique signature from every code cross-reference to
// target and returns the results sorted ascending by byte length, shortest
// first. Origins that cannot yield a unique signature are dropped silently.
// The first entry is the primary pick for single-value sinks.
//
// Ranking counts raw canonical signature bytes, wildcards included, not
// rendered text length.
func (b *Builder) RankXrefs(ctx context.Context, target uint64, opt Options) ([]XrefSignature, error) {
	if target == BadAddr {
		return nil, ErrInvalidAddress
	}
	if opt.MaxLength <= 0 {
		opt.MaxLength = DefaultXrefCap
	}
	// Ranking is non-interactive; an origin whose signature blows the cap
	// is simply dropped.
	opt.AskOnOverflow = false

	var origins []uint64
	for _, from := range b.Target.IncomingFarRefs(target) {
		if b.Target.IsCode(from) {
			origins = append(origins, from)
		}
	}

	results := make([]XrefSignature, 0, len(origins))
	for i, from := range origins {
		if ctx.Err() != nil {
			return nil, ErrAborted
		}
		if b.Progress != nil {
			b.Progress(i+1, len(origins))
		}

		s, err := b.GrowUnique(ctx, from, opt)
		if err != nil {
			continue
		}
		results = append(results, XrefSignature{Origin: from, Sig: s})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return len(results[i].Sig) < len(results[j].Sig)
	})
	return results, nil
}
