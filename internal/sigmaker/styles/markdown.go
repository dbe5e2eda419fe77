package styles

import (
	"github.com/charmbracelet/glamour"
)

// Helper functions for style pointers
func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
func uintPtr(u uint) *uint       { return &u }

// GetMarkdownRenderer returns a glamour TermRenderer for signature reports
func GetMarkdownRenderer(width int) *glamour.TermRenderer {
	r, _ := glamour.NewTermRenderer(
		glamour.WithStyles(GetVSCodeDarkStyle()),
		// Enable word wrap for prose text
		// Code blocks are preserved by glamour
		glamour.WithWordWrap(width),
	)
	return r
}
