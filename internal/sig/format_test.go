package sig

import "testing"

func TestRender(t *testing.T) {
	s := mustSig(lit(0xE8), wild(0x11), lit(0x0F), wild(0x22), lit(0xC3))

	tests := []struct {
		format Format
		want   string
	}{
		{FormatIDA, "E8 ? 0F ? C3"},
		{FormatX64Dbg, "E8 ?? 0F ?? C3"},
		{FormatCByteArrayMask, `\xE8\x11\x0F\x22\xC3 x?x?x`},
		{FormatCRawBytesBitmask, "0xE8, 0x11, 0x0F, 0x22, 0xC3 0b10101"},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := s.Render(tt.format); got != tt.want {
				t.Errorf("Render(%v) = %q, want %q", tt.format, got, tt.want)
			}
		})
	}
}

func TestRenderKeepsOriginalBytesUnderWildcard(t *testing.T) {
	s := mustSig(lit(0x48), wild(0xAB))
	if got := s.Render(FormatCByteArrayMask); got != `\x48\xAB x?` {
		t.Errorf("masked render = %q, want original byte under wildcard", got)
	}
}

func TestRoundTripSpacedDialects(t *testing.T) {
	// Wildcard values are zero because the spaced dialects cannot carry the
	// original byte under a wildcard.
	s := mustSig(lit(0x55), wild(0), wild(0), lit(0x8B), lit(0xEC))
	for _, f := range []Format{FormatIDA, FormatX64Dbg} {
		t.Run(f.String(), func(t *testing.T) {
			parsed, err := Parse(s.Render(f))
			if err != nil {
				t.Fatalf("Parse(Render(%v)) error: %v", f, err)
			}
			if !parsed.Equal(s) {
				t.Errorf("round trip changed signature: %v -> %v", s, parsed)
			}
		})
	}
}

func TestRoundTripMaskedDialects(t *testing.T) {
	// Masked dialects carry the original bytes, so values under wildcards
	// round-trip too.
	s := mustSig(lit(0xDE), wild(0xAD), lit(0xBE), wild(0xEF))
	for _, f := range []Format{FormatCByteArrayMask, FormatCRawBytesBitmask} {
		t.Run(f.String(), func(t *testing.T) {
			parsed, err := Parse(s.Render(f))
			if err != nil {
				t.Fatalf("Parse(Render(%v)) error: %v", f, err)
			}
			if !parsed.Equal(s) {
				t.Errorf("round trip changed signature: %v -> %v", s, parsed)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range formatNames {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseFormat("yara"); err == nil {
		t.Error("ParseFormat accepted unknown name")
	}
}
