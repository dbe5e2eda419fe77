package image

import (
	"debug/elf"
	"testing"
)

// synthetic builds an image over an in-memory buffer mapped at vaddr, so the
// address translation and scanning paths run without a real file.
func synthetic(machine elf.Machine, vaddr uint64, data []byte, flags elf.ProgFlag) *Image {
	return &Image{
		All:     data,
		Machine: machine,
		Loads: []Seg{
			{Vaddr: vaddr, Off: 0, Filesz: uint64(len(data)), Flags: flags},
		},
	}
}

func TestVA2Off(t *testing.T) {
	im := synthetic(elf.EM_AARCH64, 0x1000, make([]byte, 64), elf.PF_R|elf.PF_X)

	tests := []struct {
		va     uint64
		off    uint64
		mapped bool
	}{
		{0x1000, 0, true},
		{0x103f, 0x3f, true},
		{0x1040, 0, false},
		{0xfff, 0, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		off, ok := im.VA2Off(tt.va)
		if ok != tt.mapped || off != tt.off {
			t.Errorf("VA2Off(%#x) = (%#x, %v), want (%#x, %v)", tt.va, off, ok, tt.off, tt.mapped)
		}
	}
}

func TestReadBytes(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44}
	im := synthetic(elf.EM_AARCH64, 0x1000, data, elf.PF_R)

	got, ok := im.ReadBytes(0x1001, 2)
	if !ok || len(got) != 2 || got[0] != 0x22 || got[1] != 0x33 {
		t.Errorf("ReadBytes(0x1001, 2) = (%x, %v), want (2233, true)", got, ok)
	}
	if _, ok := im.ReadBytes(0x1003, 2); ok {
		t.Error("ReadBytes past segment end succeeded")
	}
	if got, ok := im.ReadBytes(0x1000, 0); !ok || len(got) != 0 {
		t.Errorf("ReadBytes(.., 0) = (%x, %v), want empty ok", got, ok)
	}
}

func TestIsCode(t *testing.T) {
	im := &Image{
		All: make([]byte, 32),
		Loads: []Seg{
			{Vaddr: 0x1000, Off: 0, Filesz: 16, Flags: elf.PF_R | elf.PF_X},
			{Vaddr: 0x2000, Off: 16, Filesz: 16, Flags: elf.PF_R | elf.PF_W},
		},
	}
	if !im.IsCode(0x1008) {
		t.Error("IsCode(0x1008) = false inside executable segment")
	}
	if im.IsCode(0x2008) {
		t.Error("IsCode(0x2008) = true inside data segment")
	}
	if im.IsCode(0x3000) {
		t.Error("IsCode(0x3000) = true for unmapped address")
	}
}

func TestFindOccurrences(t *testing.T) {
	data := []byte{0xE8, 0x00, 0xC3, 0x90, 0xE8, 0x11, 0xC3, 0x90}
	im := synthetic(elf.EM_X86_64, 0x400000, data, elf.PF_R|elf.PF_X)

	tests := []struct {
		pattern string
		want    []uint64
	}{
		{"E8 ? C3", []uint64{0x400000, 0x400004}},
		{"E8 00 C3", []uint64{0x400000}},
		{"90 E8", []uint64{0x400003}},
		{"FF FF", nil},
		{"not a pattern", nil},
	}
	for _, tt := range tests {
		got := im.FindOccurrences(tt.pattern)
		if len(got) != len(tt.want) {
			t.Errorf("FindOccurrences(%q) = %#x, want %#x", tt.pattern, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("FindOccurrences(%q) = %#x, want %#x", tt.pattern, got, tt.want)
				break
			}
		}
	}
}

func TestFunctionContaining(t *testing.T) {
	im := &Image{
		Funcs: []Func{
			{Name: "first", Start: 0x1000, Size: 0x20},
			{Name: "second", Start: 0x1040, Size: 0}, // zero size, bounded by next
			{Name: "third", Start: 0x1080, Size: 0x10},
		},
	}

	tests := []struct {
		va    uint64
		start uint64
		ok    bool
	}{
		{0x1000, 0x1000, true},
		{0x101f, 0x1000, true},
		{0x1020, 0, false}, // gap between first and second
		{0x1040, 0x1040, true},
		{0x107f, 0x1040, true}, // zero-size extends to next start
		{0x1085, 0x1080, true},
		{0x1090, 0, false},
		{0xfff, 0, false},
	}
	for _, tt := range tests {
		start, ok := im.FunctionContaining(tt.va)
		if ok != tt.ok || (ok && start != tt.start) {
			t.Errorf("FunctionContaining(%#x) = (%#x, %v), want (%#x, %v)",
				tt.va, start, ok, tt.start, tt.ok)
		}
	}
}

func TestIncomingFarRefsARM64(t *testing.T) {
	// 0x1000: bl 0x1010
	// 0x1004: b  0x1010
	// 0x1008: adrp x0, 0x2000 ; add x0, x0, #0x10 -> 0x2010
	code := []byte{
		0x04, 0x00, 0x00, 0x94, // bl +16
		0x03, 0x00, 0x00, 0x14, // b +12
		0x00, 0x00, 0x00, 0xB0, // adrp x0, +1 page
		0x00, 0x40, 0x00, 0x91, // add x0, x0, #0x10
		0x1F, 0x20, 0x03, 0xD5, // nop
		0x1F, 0x20, 0x03, 0xD5, // nop
	}
	im := synthetic(elf.EM_AARCH64, 0x1000, code, elf.PF_R|elf.PF_X)

	refs := im.IncomingFarRefs(0x1010)
	if len(refs) != 2 || refs[0] != 0x1000 || refs[1] != 0x1004 {
		t.Errorf("IncomingFarRefs(0x1010) = %#x, want [0x1000 0x1004]", refs)
	}

	refs = im.IncomingFarRefs(0x2010)
	if len(refs) != 1 || refs[0] != 0x1008 {
		t.Errorf("IncomingFarRefs(0x2010) = %#x, want [0x1008]", refs)
	}

	if refs := im.IncomingFarRefs(0x1234); refs != nil {
		t.Errorf("IncomingFarRefs(0x1234) = %#x, want none", refs)
	}
}

func TestIncomingFarRefsX86(t *testing.T) {
	// 0x1000: call 0x100a
	// 0x1005: lea rax, [rip+0x10] -> 0x101c
	// 0x100c: ret
	code := []byte{
		0xE8, 0x05, 0x00, 0x00, 0x00, // call +5
		0x48, 0x8D, 0x05, 0x10, 0x00, 0x00, 0x00, // lea rax, [rip+0x10]
		0xC3,
	}
	im := synthetic(elf.EM_X86_64, 0x1000, code, elf.PF_R|elf.PF_X)

	refs := im.IncomingFarRefs(0x100a)
	if len(refs) != 1 || refs[0] != 0x1000 {
		t.Errorf("IncomingFarRefs(0x100a) = %#x, want [0x1000]", refs)
	}
	refs = im.IncomingFarRefs(0x101c)
	if len(refs) != 1 || refs[0] != 0x1005 {
		t.Errorf("IncomingFarRefs(0x101c) = %#x, want [0x1005]", refs)
	}
}

func TestNewDecoder(t *testing.T) {
	for _, machine := range []elf.Machine{elf.EM_AARCH64, elf.EM_X86_64, elf.EM_386} {
		im := synthetic(machine, 0x1000, make([]byte, 16), elf.PF_R|elf.PF_X)
		if _, err := im.NewDecoder(); err != nil {
			t.Errorf("NewDecoder for %v: %v", machine, err)
		}
	}
	im := synthetic(elf.EM_RISCV, 0x1000, make([]byte, 16), elf.PF_R|elf.PF_X)
	if _, err := im.NewDecoder(); err == nil {
		t.Error("NewDecoder for unsupported machine succeeded")
	}
}
