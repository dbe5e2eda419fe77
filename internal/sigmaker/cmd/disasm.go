package cmd

import (
	"fmt"
	"strings"

	"sigmaker/internal/image"
	"sigmaker/internal/ui/colorize"
)

// disasmContext decodes up to count instructions starting at va and formats
// them as "address  text" lines. A decode failure ends the window early.
func disasmContext(img *image.Image, va uint64, count int) []string {
	dec, err := img.NewDecoder()
	if err != nil {
		return nil
	}

	var lines []string
	cur := va
	for i := 0; i < count; i++ {
		inst, err := dec.Decode(cur)
		if err != nil {
			break
		}
		lines = append(lines, fmt.Sprintf("%x  %s", cur, inst.Text))
		cur += uint64(inst.Len)
	}
	return lines
}

// printDisasmContext prints the instruction window at va as one colorized
// block.
func printDisasmContext(img *image.Image, va uint64, count int) {
	lines := disasmContext(img, va, count)
	if len(lines) == 0 {
		return
	}
	block := strings.Join(lines, "\n")
	colored, err := colorize.ColorizeAssembly(block)
	if err != nil {
		colored = block
	}
	fmt.Println(colored)
}
