// Package sig defines the canonical byte-pattern signature model and its
// textual formats. A signature is an ordered sequence of bytes where each
// position is either a literal value or a wildcard that matches anything.
package sig

// Byte is one signature position. The original byte value is kept even when
// the position is a wildcard so the signature can be re-rendered literally.
type Byte struct {
	Value    byte
	Wildcard bool
}

// Signature is an append-only sequence of signature bytes.
type Signature []Byte

// ByteReader supplies raw bytes from the loaded binary image.
type ByteReader interface {
	// ReadBytes reads exactly n bytes starting at va. The second return is
	// false if the range is unmapped.
	ReadBytes(va uint64, n int) ([]byte, bool)
}

// AppendFrom reads count bytes at va from r and appends each one with the
// given wildcard flag.
func (s *Signature) AppendFrom(r ByteReader, va uint64, count int, wildcard bool) bool {
	if count <= 0 {
		return true
	}
	data, ok := r.ReadBytes(va, count)
	if !ok {
		return false
	}
	for _, b := range data {
		*s = append(*s, Byte{Value: b, Wildcard: wildcard})
	}
	return true
}

// Trim returns the signature without trailing wildcards. Trailing wildcards
// match anything and carry no discriminating value.
func (s Signature) Trim() Signature {
	end := len(s)
	for end > 0 && s[end-1].Wildcard {
		end--
	}
	return s[:end]
}

// Equal reports whether two signatures have identical byte values and
// wildcard positions.
func (s Signature) Equal(other Signature) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Matches reports whether the signature matches data at offset 0. Wildcard
// positions match any byte.
func (s Signature) Matches(data []byte) bool {
	if len(data) < len(s) {
		return false
	}
	for i, b := range s {
		if !b.Wildcard && data[i] != b.Value {
			return false
		}
	}
	return true
}
