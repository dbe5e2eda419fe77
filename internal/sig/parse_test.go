package sig

import (
	"errors"
	"testing"
)

func TestParseMaskDialects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Signature
	}{
		{
			"string mask with escaped bytes",
			`\x00\x11\x22\x33 x?xx`,
			mustSig(lit(0x00), wild(0x11), lit(0x22), lit(0x33)),
		},
		{
			"string mask with raw bytes",
			"0x00, 0x11, 0x22, 0x33 x?xx",
			mustSig(lit(0x00), wild(0x11), lit(0x22), lit(0x33)),
		},
		{
			"bitmask is reversed, lsb first",
			`\x00\x11\x22\x33 0b1010`,
			mustSig(wild(0x00), lit(0x11), wild(0x22), lit(0x33)),
		},
		{
			"bitmask with raw bytes",
			"0xAA, 0xBB 0b01",
			mustSig(lit(0xAA), wild(0xBB)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMaskMismatch(t *testing.T) {
	_, err := Parse(`\x00\x11\x22 x?xx`)
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Parse returned %v, want MismatchError", err)
	}
	if mismatch.Mask != "x?xx" || mismatch.Tokens != 3 {
		t.Errorf("MismatchError = %+v, want mask x?xx and 3 tokens", mismatch)
	}
}

func TestParseSpacedDialects(t *testing.T) {
	want := mustSig(lit(0xE8), wild(0), wild(0), lit(0xC3))

	tests := []struct {
		name  string
		input string
	}{
		{"ida", "E8 ? ? C3"},
		{"x64dbg", "E8 ?? ?? C3"},
		{"leading whitespace", "   E8 ? ? C3"},
		{"trailing wildcards stripped", "E8 ? ? C3 ? ?"},
		{"bracket markers removed", "E8 [? ?] (C3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if !got.Equal(want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestParseBareByteArrays(t *testing.T) {
	want := mustSig(lit(0x48), lit(0x89), lit(0x5C))

	for _, input := range []string{
		`unsigned char sig[] = "\x48\x89\x5C";`,
		"BYTE pattern[] = { 0x48, 0x89, 0x5C };",
	} {
		got, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", input, err)
		}
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseUnrecognized(t *testing.T) {
	for _, input := range []string{
		"",
		"hello world",
		"0x41",   // single byte is not enough for the bare-array fallback
		`\x41 z`, // not a mask, single escaped byte
	} {
		if _, err := Parse(input); !errors.Is(err, ErrUnrecognized) {
			t.Errorf("Parse(%q) error = %v, want ErrUnrecognized", input, err)
		}
	}
}

func TestParseIDA(t *testing.T) {
	got, err := ParseIDA("e8 ?? 0f ? C3")
	if err != nil {
		t.Fatalf("ParseIDA error: %v", err)
	}
	want := mustSig(lit(0xE8), wild(0), lit(0x0F), wild(0), lit(0xC3))
	if !got.Equal(want) {
		t.Errorf("ParseIDA = %v, want %v", got, want)
	}

	for _, bad := range []string{"", "GG 00", "1 2 3"} {
		if _, err := ParseIDA(bad); err == nil {
			t.Errorf("ParseIDA(%q) accepted invalid pattern", bad)
		}
	}
}
