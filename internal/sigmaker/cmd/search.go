package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sigmaker/internal/sig"
)

var searchCmd = &cobra.Command{
	Use:   "search <binary> <signature>",
	Short: "Find all occurrences of a signature",
	Long: `Parse a signature in any supported dialect (IDA, x64dbg, C byte array
with string mask, or C byte array with bitmask) and list every address in
the binary where it matches.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Unquoted signatures arrive as several args; stitch them back.
		input := strings.Join(args[1:], " ")

		s, err := sig.Parse(input)
		if err != nil {
			if errors.Is(err, sig.ErrMismatch) {
				return fmt.Errorf("signature mask does not fit its bytes: %v", err)
			}
			return fmt.Errorf("unrecognized signature format")
		}

		img, _, err := openTarget(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		matches := img.FindOccurrences(s.Render(sig.FormatIDA))
		if len(matches) == 0 {
			fmt.Println("no matches")
			return nil
		}

		for _, va := range matches {
			name := originName(img, va)
			fmt.Printf("%#x %s\n", va, name)
		}
		fmt.Printf("%d match(es)\n", len(matches))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
