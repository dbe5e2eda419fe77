// Package image opens ELF binaries and exposes the views signature building
// needs: byte access by virtual address, executable region checks, whole-image
// pattern scanning, function lookup, and a cross-reference index.
package image

import (
	"debug/elf"
	"fmt"
	"os"
	"sort"
	"sync"
	"syscall"

	"sigmaker/internal/arch"
	"sigmaker/internal/sig"
)

type Image struct {
	Path    string
	File    *elf.File
	All     []byte
	Loads   []Seg
	Machine elf.Machine
	Funcs   []Func

	xrefOnce sync.Once
	xrefs    map[uint64][]uint64

	f *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

// Func is a function-typed symbol. Size may be zero for stripped or
// hand-written assembly symbols; the next function start bounds it then.
type Func struct {
	Name        string
	Start, Size uint64
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, Machine: f.Machine, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  uint64(p.Vaddr),
			Off:    uint64(p.Off),
			Filesz: uint64(p.Filesz),
			Flags:  p.Flags,
		})
	}

	im.loadFunctions()
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.All != nil {
		err1 = syscall.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		err3 := im.File.Close()
		if err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// loadFunctions collects function symbols from both symbol tables, static
// first so stripped binaries still get their dynamic exports.
func (im *Image) loadFunctions() {
	seen := make(map[uint64]bool)
	add := func(syms []elf.Symbol) {
		for _, s := range syms {
			if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Value == 0 {
				continue
			}
			if seen[s.Value] {
				continue
			}
			seen[s.Value] = true
			im.Funcs = append(im.Funcs, Func{Name: s.Name, Start: s.Value, Size: s.Size})
		}
	}
	if syms, err := im.File.Symbols(); err == nil {
		add(syms)
	}
	if dyns, err := im.File.DynamicSymbols(); err == nil {
		add(dyns)
	}
	sort.Slice(im.Funcs, func(i, j int) bool { return im.Funcs[i].Start < im.Funcs[j].Start })
}

// VA2Off translates a virtual address into a file offset
// using PT_LOAD segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// SliceVA returns a subslice of the mapped file for the virtual address
// range [va, va+size). It returns (nil, false) if the VA is unmapped or the
// range runs past the file.
func (im *Image) SliceVA(va uint64, size uint64) ([]byte, bool) {
	off, ok := im.VA2Off(va)
	if !ok {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	end := off + size
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off:end], true
}

// ReadBytes reads exactly n bytes starting at va. Returns false if the VA is
// unmapped or the read extends beyond file bounds.
func (im *Image) ReadBytes(va uint64, n int) ([]byte, bool) {
	if n <= 0 {
		return []byte{}, true
	}
	return im.SliceVA(va, uint64(n))
}

// IsCode reports whether va lies inside an executable PT_LOAD segment.
func (im *Image) IsCode(va uint64) bool {
	for _, l := range im.Loads {
		if l.Flags&elf.PF_X != 0 && va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return true
		}
	}
	return false
}

// FindOccurrences scans every loaded segment for an IDA-dialect pattern and
// returns the match addresses in ascending order. A malformed pattern
// matches nothing.
func (im *Image) FindOccurrences(pattern string) []uint64 {
	s, err := sig.ParseIDA(pattern)
	if err != nil || len(s) == 0 {
		return nil
	}
	var out []uint64
	for _, l := range im.Loads {
		end := l.Off + l.Filesz
		if end > uint64(len(im.All)) {
			end = uint64(len(im.All))
		}
		data := im.All[l.Off:end]
		for i := 0; i+len(s) <= len(data); i++ {
			if s.Matches(data[i:]) {
				out = append(out, l.Vaddr+uint64(i))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FunctionContaining resolves the function enclosing va. A zero-size symbol
// extends to the next function start.
func (im *Image) FunctionContaining(va uint64) (uint64, bool) {
	i := sort.Search(len(im.Funcs), func(i int) bool { return im.Funcs[i].Start > va })
	if i == 0 {
		return 0, false
	}
	fn := im.Funcs[i-1]
	end := fn.Start + fn.Size
	if fn.Size == 0 {
		if i < len(im.Funcs) {
			end = im.Funcs[i].Start
		} else {
			end = ^uint64(0)
		}
	}
	if va >= end {
		return 0, false
	}
	return fn.Start, true
}

// FuncAt returns the function symbol starting exactly at va.
func (im *Image) FuncAt(va uint64) (Func, bool) {
	i := sort.Search(len(im.Funcs), func(i int) bool { return im.Funcs[i].Start >= va })
	if i < len(im.Funcs) && im.Funcs[i].Start == va {
		return im.Funcs[i], true
	}
	return Func{}, false
}

// IncomingFarRefs returns the origin addresses of far references (direct
// branches, calls, and PC-relative data references) to va. The index over
// the whole image is built on first use.
func (im *Image) IncomingFarRefs(va uint64) []uint64 {
	im.xrefOnce.Do(im.buildXrefs)
	return im.xrefs[va]
}

// NewDecoder returns the instruction decoder for the image's machine.
func (im *Image) NewDecoder() (arch.Decoder, error) {
	switch im.Machine {
	case elf.EM_AARCH64:
		return arch.NewARM64Decoder(im), nil
	case elf.EM_X86_64:
		return arch.NewX86Decoder(im, 64), nil
	case elf.EM_386:
		return arch.NewX86Decoder(im, 32), nil
	default:
		return nil, fmt.Errorf("unsupported machine %v", im.Machine)
	}
}

// Policy returns the operand wildcard policy for the image's machine.
func (im *Image) Policy() arch.OperandPolicy {
	return arch.PolicyFor(im.Machine)
}
