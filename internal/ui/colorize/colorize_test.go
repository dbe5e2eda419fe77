package colorize

import (
	"strings"
	"testing"
)

func TestIsWildcardToken(t *testing.T) {
	tests := []struct {
		tok  string
		want bool
	}{
		{"?", true},
		{"??", true},
		{"?,", true},
		{"E8", false},
		{"0xE8,", false},
		{"x?x?", true}, // string-mask word
		{"xxx", false},
		{"0b1010", false},
	}
	for _, tt := range tests {
		if got := isWildcardToken(tt.tok); got != tt.want {
			t.Errorf("isWildcardToken(%q) = %v, want %v", tt.tok, got, tt.want)
		}
	}
}

func TestColorizeSignatureRespectsNoColor(t *testing.T) {
	t.Setenv("SIGMAKER_NO_COLOR", "1")
	in := "E8 ? ? C3"
	if got := ColorizeSignature(in); got != in {
		t.Errorf("ColorizeSignature with colors disabled = %q, want input unchanged", got)
	}
}

func TestColorizeInstructionLine(t *testing.T) {
	t.Setenv("SIGMAKER_NO_COLOR", "")
	line := "401000  mov eax, 0x10"

	got := ColorizeInstructionLine(line)
	if !strings.Contains(got, "\033[38;2;79;79;79m401000") {
		t.Errorf("address not dimmed in %q", got)
	}
	if StripANSI(got) != line {
		t.Errorf("colorization altered the text: %q", StripANSI(got))
	}

	t.Setenv("SIGMAKER_NO_COLOR", "1")
	if got := ColorizeInstructionLine(line); got != line {
		t.Errorf("ColorizeInstructionLine with colors disabled = %q, want input unchanged", got)
	}
}

func TestColorizeAssemblyPreservesText(t *testing.T) {
	t.Setenv("SIGMAKER_NO_COLOR", "")
	block := "401000  nop\n401001  ret"

	got, err := ColorizeAssembly(block)
	if err != nil {
		t.Fatal(err)
	}
	if StripANSI(got) != block {
		t.Errorf("colorization altered the block: %q", StripANSI(got))
	}
}

func TestStripANSI(t *testing.T) {
	in := "\033[38;2;255;95;135m?\033[0m E8"
	if got := StripANSI(in); got != "? E8" {
		t.Errorf("StripANSI = %q, want %q", got, "? E8")
	}
}
