package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// DisasmDark is the style used for disassembly context windows. The number
// color matches the pink ColorizeSignature uses for wildcard tokens, and the
// register teal keeps operands readable against the dark background.
var DisasmDark = styles.Register(chroma.MustNewStyle("disasm-dark", chroma.StyleEntries{
	chroma.Text:       "#FFFFFF",
	chroma.Background: "bg:#1e1e1e",

	// Mnemonics come through as keywords or function names depending on
	// the lexer.
	chroma.Keyword:       "#FFFFFF",
	chroma.KeywordPseudo: "#FFFFFF",
	chroma.NameFunction:  "#FFFFFF",

	// Registers.
	chroma.Name:         "#7C9C9D",
	chroma.NameBuiltin:  "#7C9C9D",
	chroma.NameVariable: "#7C9C9D",

	// Immediates and displacements, same pink as wildcard bytes.
	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberBin:     "#FF5F87",
	chroma.LiteralNumberOct:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",
	chroma.LiteralNumberFloat:   "#FF5F87",

	chroma.NameLabel: "#FFD700",
	chroma.String:    "#EACD53",

	chroma.Operator:       "#FFFFFF",
	chroma.Punctuation:    "#FFFFFF",
	chroma.Comment:        "#FFFFFF",
	chroma.CommentPreproc: "#FFFFFF",
}))
