package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// getAssemblyLexer returns an appropriate assembly lexer with fallbacks
func getAssemblyLexer() chroma.Lexer {
	// Try lexers in order of preference (ARM assembly first)
	candidates := []string{"armasm", "gas", "GAS", "Gas", "nasm"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getDisasmStyle returns the disassembly style with fallbacks
func getDisasmStyle() *chroma.Style {
	// Try our custom style first, then fallbacks
	candidates := []string{"disasm-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	// Try high-color first, then fallback
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeAssembly applies syntax highlighting to disassembly context shown
// around a signature anchor.
func ColorizeAssembly(code string) (string, error) {
	if os.Getenv("SIGMAKER_NO_COLOR") != "" {
		return code, nil
	}

	lexer := getAssemblyLexer()
	if lexer == nil {
		// Return plain text if no assembly lexer available
		return code, nil
	}

	style := getDisasmStyle()
	formatter := getTerminalFormatter()

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code, err
	}

	return buf.String(), nil
}

// ColorizeInstructionLine colorizes a single instruction line while
// preserving formatting. The expected shape is "address  mnemonic operands".
func ColorizeInstructionLine(line string) string {
	if os.Getenv("SIGMAKER_NO_COLOR") != "" {
		return line
	}

	parts := strings.SplitN(line, " ", 2)
	if len(parts) < 2 {
		return colorizeFullLine(line)
	}

	// Only treat the first field as an address if it is all hex digits.
	for i := 0; i < len(parts[0]); i++ {
		if !isHexChar(parts[0][i]) {
			return colorizeFullLine(line)
		}
	}

	// Address in gray, the rest through chroma.
	addrColored := fmt.Sprintf("\033[38;2;79;79;79m%s\033[0m", parts[0])
	return fmt.Sprintf("%s %s", addrColored, colorizeFullLine(parts[1]))
}

// ColorizeSignature highlights a rendered signature: wildcard tokens in pink,
// literal bytes in the default text color.
func ColorizeSignature(sig string) string {
	if os.Getenv("SIGMAKER_NO_COLOR") != "" {
		return sig
	}

	fields := strings.Fields(sig)
	out := make([]string, len(fields))
	for i, f := range fields {
		if isWildcardToken(f) {
			out[i] = fmt.Sprintf("\033[38;2;255;95;135m%s\033[0m", f)
		} else {
			out[i] = f
		}
	}
	return strings.Join(out, " ")
}

func isWildcardToken(tok string) bool {
	t := strings.TrimSuffix(tok, ",")
	switch t {
	case "?", "??":
		return true
	}
	// The C mask dialects carry the wildcard marks in the trailing mask
	// word, which mixes x and ? characters.
	if strings.ContainsRune(t, '?') && strings.Trim(t, "x?") == "" {
		return true
	}
	return false
}

func isHexChar(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// colorizeFullLine uses Chroma to colorize an assembly line
func colorizeFullLine(line string) string {
	if os.Getenv("SIGMAKER_NO_COLOR") != "" {
		return line
	}

	lexer := lexers.Get("nasm")
	if lexer == nil {
		lexer = lexers.Get("armasm")
		if lexer == nil {
			return line
		}
	}

	_ = DisasmDark // Force registration

	style := getDisasmStyle()
	formatter := getTerminalFormatter()

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return buf.String()
}

// StripANSI removes ANSI escape codes, for clipboard copies of colorized
// output.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
