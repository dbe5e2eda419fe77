package sig

import (
	"fmt"
	"strings"
)

// Format selects one of the supported textual signature dialects.
type Format int

const (
	// FormatIDA renders "E8 ? ? ? ? 45 33" style signatures.
	FormatIDA Format = iota
	// FormatX64Dbg renders "E8 ?? ?? ?? ?? 45 33" style signatures.
	FormatX64Dbg
	// FormatCByteArrayMask renders "\xE8\x00\x00\x00\x00\x45\x33 x????xx".
	FormatCByteArrayMask
	// FormatCRawBytesBitmask renders "0xE8, 0x00, ... 0b1100001" with the
	// bitmask in reverse order (first byte = least-significant bit).
	FormatCRawBytesBitmask
)

var formatNames = map[string]Format{
	"ida":     FormatIDA,
	"x64dbg":  FormatX64Dbg,
	"mask":    FormatCByteArrayMask,
	"bitmask": FormatCRawBytesBitmask,
}

// ParseFormat maps a user-facing format name to a Format.
func ParseFormat(name string) (Format, error) {
	f, ok := formatNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown signature format %q (want ida, x64dbg, mask or bitmask)", name)
	}
	return f, nil
}

func (f Format) String() string {
	switch f {
	case FormatIDA:
		return "ida"
	case FormatX64Dbg:
		return "x64dbg"
	case FormatCByteArrayMask:
		return "mask"
	case FormatCRawBytesBitmask:
		return "bitmask"
	}
	return "unknown"
}

// Render converts the signature into the given dialect. Byte order is append
// order.
func (s Signature) Render(f Format) string {
	switch f {
	case FormatIDA:
		return s.renderSpaced("?")
	case FormatX64Dbg:
		return s.renderSpaced("??")
	case FormatCByteArrayMask:
		var sb strings.Builder
		for _, b := range s {
			fmt.Fprintf(&sb, `\x%02X`, b.Value)
		}
		sb.WriteByte(' ')
		for _, b := range s {
			if b.Wildcard {
				sb.WriteByte('?')
			} else {
				sb.WriteByte('x')
			}
		}
		return sb.String()
	case FormatCRawBytesBitmask:
		var sb strings.Builder
		for i, b := range s {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "0x%02X", b.Value)
		}
		sb.WriteByte(' ')
		sb.WriteString("0b")
		// Reverse order: the first signature byte becomes the last bit.
		for i := len(s) - 1; i >= 0; i-- {
			if s[i].Wildcard {
				sb.WriteByte('0')
			} else {
				sb.WriteByte('1')
			}
		}
		return sb.String()
	}
	return ""
}

func (s Signature) renderSpaced(wildcard string) string {
	parts := make([]string, len(s))
	for i, b := range s {
		if b.Wildcard {
			parts[i] = wildcard
		} else {
			parts[i] = fmt.Sprintf("%02X", b.Value)
		}
	}
	return strings.Join(parts, " ")
}
