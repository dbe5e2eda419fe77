package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rangeCmd = &cobra.Command{
	Use:   "range <binary> <start> <end>",
	Short: "Transcribe a byte range into a signature",
	Long: `Produce a signature covering exactly the bytes from start up to end,
without any uniqueness requirement. Code ranges can have operands
wildcarded; data ranges are copied literally.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, format, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		start, err := parseAddr(args[1])
		if err != nil {
			return err
		}
		end, err := parseAddr(args[2])
		if err != nil {
			return err
		}
		if end < start {
			return fmt.Errorf("end %#x before start %#x", end, start)
		}

		img, b, err := openTarget(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		wildcard := cfg.WildcardOperands
		if cmd.Flags().Changed("wildcard-operands") {
			wildcard, _ = cmd.Flags().GetBool("wildcard-operands")
		}

		ctx, cancel := signalContext()
		defer cancel()

		s, err := b.Range(ctx, start, end, wildcard)
		if err != nil {
			return describeBuildError(err, format)
		}

		copyOut, _ := cmd.Flags().GetBool("copy")
		return printSignature(s, format, copyOut)
	},
}

func init() {
	rangeCmd.Flags().BoolP("wildcard-operands", "w", true, "Wildcard operand bytes in code ranges")
	rangeCmd.Flags().BoolP("copy", "c", false, "Copy the signature to the clipboard")
	rootCmd.AddCommand(rangeCmd)
}
