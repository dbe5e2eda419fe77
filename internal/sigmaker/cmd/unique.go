package cmd

import (
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"sigmaker/internal/builder"
)

var uniqueCmd = &cobra.Command{
	Use:   "unique <binary> <address>",
	Short: "Build a unique signature anchored at an address",
	Long: `Build a signature starting at the given code address and grow it one
instruction at a time until it matches exactly once in the whole binary.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, format, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		anchor, err := parseAddr(args[1])
		if err != nil {
			return err
		}

		img, b, err := openTarget(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		opt := builder.Options{
			WildcardOperands:        cfg.WildcardOperands,
			ContinueOutsideFunction: cfg.ContinueOutsideFunction,
			MaxLength:               cfg.MaxLength,
			AskOnOverflow:           term.IsTerminal(os.Stdin.Fd()),
		}
		if cmd.Flags().Changed("wildcard-operands") {
			opt.WildcardOperands, _ = cmd.Flags().GetBool("wildcard-operands")
		}
		if cmd.Flags().Changed("continue-outside-function") {
			opt.ContinueOutsideFunction, _ = cmd.Flags().GetBool("continue-outside-function")
		}
		if cmd.Flags().Changed("max-length") {
			opt.MaxLength, _ = cmd.Flags().GetInt("max-length")
		}
		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			opt.AskOnOverflow = true
			b.Confirm = func(string) builder.Answer { return builder.AnswerYes }
		}

		ctx, cancel := signalContext()
		defer cancel()

		s, err := b.GrowUnique(ctx, anchor, opt)
		if err != nil {
			return describeBuildError(err, format)
		}
		slog.Debug("unique signature built", "bytes", len(s))

		if n, _ := cmd.Flags().GetInt("context"); n > 0 {
			printDisasmContext(img, anchor, n)
		}

		copyOut, _ := cmd.Flags().GetBool("copy")
		return printSignature(s, format, copyOut)
	},
}

func init() {
	uniqueCmd.Flags().BoolP("wildcard-operands", "w", true, "Wildcard operand bytes")
	uniqueCmd.Flags().Bool("continue-outside-function", false, "Keep growing past the enclosing function")
	uniqueCmd.Flags().Int("max-length", 0, "Growth cap in bytes (default from config)")
	uniqueCmd.Flags().Int("context", 0, "Show this many disassembled instructions at the anchor")
	uniqueCmd.Flags().Bool("yes", false, "Keep growing past the length cap without prompting")
	uniqueCmd.Flags().BoolP("copy", "c", false, "Copy the signature to the clipboard")
	rootCmd.AddCommand(uniqueCmd)
}
