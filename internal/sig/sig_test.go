package sig

import "testing"

func mustSig(bytes ...Byte) Signature { return Signature(bytes) }

func lit(v byte) Byte  { return Byte{Value: v} }
func wild(v byte) Byte { return Byte{Value: v, Wildcard: true} }

func TestTrim(t *testing.T) {
	tests := []struct {
		name string
		in   Signature
		want int
	}{
		{"no wildcards", mustSig(lit(0x48), lit(0x8B)), 2},
		{"trailing wildcards", mustSig(lit(0x48), wild(0x11), wild(0x22)), 1},
		{"all wildcards", mustSig(wild(1), wild(2), wild(3)), 0},
		{"interior wildcard kept", mustSig(lit(0xE8), wild(0), lit(0xC3)), 3},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Trim()
			if len(got) != tt.want {
				t.Errorf("Trim() length = %d, want %d", len(got), tt.want)
			}
			for i := range got {
				if got[i] != tt.in[i] {
					t.Errorf("Trim() changed byte %d: %v != %v", i, got[i], tt.in[i])
				}
			}
		})
	}
}

func TestTrimIdempotent(t *testing.T) {
	s := mustSig(lit(0x55), lit(0x8B), wild(0xAA), wild(0xBB))
	once := s.Trim()
	twice := once.Trim()
	if !once.Equal(twice) {
		t.Errorf("trim not idempotent: %v != %v", once, twice)
	}
	if len(once) != 2 {
		t.Errorf("trim removed %d bytes, want 2", len(s)-len(once))
	}
}

func TestMatches(t *testing.T) {
	s := mustSig(lit(0xE8), wild(0), wild(0), lit(0xC3))
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"exact", []byte{0xE8, 0x12, 0x34, 0xC3}, true},
		{"wildcards differ", []byte{0xE8, 0xFF, 0x00, 0xC3}, true},
		{"literal differs", []byte{0xE9, 0x12, 0x34, 0xC3}, false},
		{"too short", []byte{0xE8, 0x12, 0x34}, false},
		{"longer data ok", []byte{0xE8, 0x12, 0x34, 0xC3, 0x90}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Matches(tt.data); got != tt.want {
				t.Errorf("Matches(%x) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

type sliceReader []byte

func (r sliceReader) ReadBytes(va uint64, n int) ([]byte, bool) {
	if va+uint64(n) > uint64(len(r)) {
		return nil, false
	}
	return r[va : va+uint64(n)], true
}

func TestAppendFrom(t *testing.T) {
	r := sliceReader{0x10, 0x20, 0x30, 0x40}

	var s Signature
	if !s.AppendFrom(r, 0, 2, false) {
		t.Fatal("AppendFrom failed on mapped range")
	}
	if !s.AppendFrom(r, 2, 2, true) {
		t.Fatal("AppendFrom failed on mapped range")
	}
	want := mustSig(lit(0x10), lit(0x20), wild(0x30), wild(0x40))
	if !s.Equal(want) {
		t.Errorf("got %v, want %v", s, want)
	}

	// Original byte values must survive under the wildcard flag.
	if s[2].Value != 0x30 || s[3].Value != 0x40 {
		t.Error("wildcard append dropped original byte values")
	}

	if s.AppendFrom(r, 3, 2, false) {
		t.Error("AppendFrom succeeded past end of image")
	}
	if len(s) != 4 {
		t.Error("failed AppendFrom mutated the signature")
	}
}
