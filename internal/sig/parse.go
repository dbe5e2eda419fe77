package sig

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnrecognized means no supported dialect could be detected in the input.
var ErrUnrecognized = errors.New("unrecognized signature format")

// ErrMismatch means a mask was detected but could not be paired with bytes.
var ErrMismatch = errors.New("signature mask mismatch")

// MismatchError means a mask was detected but the number of byte tokens in
// the input does not equal the mask length. No partial result is produced.
type MismatchError struct {
	Mask   string
	Tokens int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("detected mask %q but found %d byte tokens, want %d", e.Mask, e.Tokens, len(e.Mask))
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }

var (
	maskRE     = regexp.MustCompile(`x[x?]+`)
	bitmaskRE  = regexp.MustCompile(`0b[01]+`)
	escByteRE  = regexp.MustCompile(`\\x[0-9A-F]{2}`)
	rawByteRE  = regexp.MustCompile(`0x[0-9A-F]{2}`)
	bracketsRE = regexp.MustCompile(`[()\[\]]+`)
	leadingRE  = regexp.MustCompile(`^\s+`)
	trailingRE = regexp.MustCompile(`[? ]+$`)
	doubleQRE  = regexp.MustCompile(`\?\? `)
	directRE   = regexp.MustCompile(`^(?:(?:[A-F0-9]{2}\s+)|(?:\?\s+))+$`)
)

// Parse converts arbitrary pasted text into a canonical signature. Detection
// is layered and first-match-wins: an explicit "xx??x" mask, then a "0b1010"
// bitmask, then the spaced dialects after normalization, then bare byte
// arrays with no wildcards.
func Parse(input string) (Signature, error) {
	mask := maskRE.FindString(input)
	if mask == "" {
		if bits := bitmaskRE.FindString(input); bits != "" {
			// The bitmask is stored in reverse order, least-significant
			// bit first.
			var sb strings.Builder
			for i := len(bits) - 1; i >= 2; i-- {
				if bits[i] == '1' {
					sb.WriteByte('x')
				} else {
					sb.WriteByte('?')
				}
			}
			mask = sb.String()
		}
	}

	if mask != "" {
		return parseMasked(input, mask)
	}

	// No mask found. Fold the spaced dialects into one grammar: strip
	// brackets from marked-up patterns, drop leading whitespace and
	// trailing wildcards, then turn x64Dbg "??" tokens into "?".
	cleaned := bracketsRE.ReplaceAllString(input, "")
	cleaned = leadingRE.ReplaceAllString(cleaned, "")
	cleaned = trailingRE.ReplaceAllString(cleaned, "") + " "
	cleaned = doubleQRE.ReplaceAllString(cleaned, "? ")

	if directRE.MatchString(cleaned) {
		var sig Signature
		for _, tok := range strings.Fields(cleaned) {
			if tok == "?" {
				sig = append(sig, Byte{Wildcard: true})
				continue
			}
			v, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("bad byte token %q: %w", tok, err)
			}
			sig = append(sig, Byte{Value: byte(v)})
		}
		return sig, nil
	}

	// Last resort: byte arrays without any wildcard information.
	for _, re := range []*regexp.Regexp{escByteRE, rawByteRE} {
		tokens := re.FindAllString(input, -1)
		if len(tokens) < 2 {
			continue
		}
		sig := make(Signature, 0, len(tokens))
		for _, tok := range tokens {
			v, _ := strconv.ParseUint(tok[2:], 16, 8)
			sig = append(sig, Byte{Value: byte(v)})
		}
		return sig, nil
	}

	return nil, ErrUnrecognized
}

func parseMasked(input, mask string) (Signature, error) {
	tokens := escByteRE.FindAllString(input, -1)
	if len(tokens) != len(mask) {
		if raw := rawByteRE.FindAllString(input, -1); len(raw) == len(mask) {
			tokens = raw
		} else {
			n := len(tokens)
			if len(raw) > n {
				n = len(raw)
			}
			return nil, &MismatchError{Mask: mask, Tokens: n}
		}
	}
	sig := make(Signature, 0, len(mask))
	for i, tok := range tokens {
		v, _ := strconv.ParseUint(tok[2:], 16, 8)
		sig = append(sig, Byte{Value: byte(v), Wildcard: mask[i] == '?'})
	}
	return sig, nil
}

// ParseIDA parses a strict IDA-dialect pattern: whitespace-separated
// two-digit hex bytes and "?" wildcards. Hex digits are case-insensitive and
// "??" is accepted as a wildcard token so x64Dbg patterns search too.
func ParseIDA(pattern string) (Signature, error) {
	fields := strings.Fields(pattern)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	sig := make(Signature, 0, len(fields))
	for _, tok := range fields {
		if tok == "?" || tok == "??" {
			sig = append(sig, Byte{Wildcard: true})
			continue
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil || len(tok) != 2 {
			return nil, fmt.Errorf("bad pattern token %q", tok)
		}
		sig = append(sig, Byte{Value: byte(v)})
	}
	return sig, nil
}
