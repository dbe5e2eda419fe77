package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	pathpkg "path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"sigmaker/internal/builder"
	"sigmaker/internal/config"
	"sigmaker/internal/image"
	"sigmaker/internal/logging"
	"sigmaker/internal/sig"
	"sigmaker/internal/sigmaker/log"
)

var rootCmd = &cobra.Command{
	Use:   "sigmaker",
	Short: "Byte-pattern signature generator for binaries",
	Long: `Sigmaker builds unique byte-pattern signatures for locations in ELF
binaries and parses signatures in the common text dialects. Signatures grow
one instruction at a time until they match exactly once in the whole image,
with operand bytes optionally wildcarded so relocated builds still match.`,
	Example: `
# Build a unique signature for the code at 0x4012a0
sigmaker unique ./libgame.so 0x4012a0

# Rank signatures for the callers of a function
sigmaker xref ./libgame.so 0x4012a0 --top 5

# Find where a signature matches
sigmaker search ./libgame.so "E8 ? ? ? ? 45 33 F6 66 44 89 34 33"
  `,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.Setup(debug || logging.IsDebug())
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			os.Setenv("SIGMAKER_NO_COLOR", "1")
		}
		if !term.IsTerminal(os.Stdout.Fd()) {
			os.Setenv("SIGMAKER_NO_COLOR", "1")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug logging")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output dialect: ida, x64dbg, mask or bitmask")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}

// loadConfig merges the config file with the --format override.
func loadConfig(cmd *cobra.Command) (config.Config, sig.Format, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, sig.FormatIDA, err
	}
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		cfg.Format = f
	}
	format, err := cfg.OutputFormat()
	if err != nil {
		return cfg, sig.FormatIDA, err
	}
	return cfg, format, nil
}

// openTarget opens the binary and wires a builder for its architecture.
func openTarget(path string) (*image.Image, *builder.Builder, error) {
	absPath, err := pathpkg.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve path: %v", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, nil, fmt.Errorf("cannot access file: %v", err)
	}

	img, err := image.Open(absPath)
	if err != nil {
		return nil, nil, err
	}
	dec, err := img.NewDecoder()
	if err != nil {
		img.Close()
		return nil, nil, err
	}

	lg := logging.NewLogger()
	defer lg.Close()
	lg.Debug("opened binary",
		"path", absPath,
		"machine", img.Machine.String(),
		"segments", len(img.Loads),
		"functions", len(img.Funcs))

	b := &builder.Builder{
		Target:  img,
		Decoder: dec,
		Policy:  img.Policy(),
		Confirm: promptConfirm,
	}
	return img, b, nil
}

// promptConfirm asks on the terminal whether to keep growing. Non-terminal
// stdin declines, matching non-interactive runs.
func promptConfirm(prompt string) builder.Answer {
	if !term.IsTerminal(os.Stdin.Fd()) {
		return builder.AnswerNo
	}
	fmt.Fprintf(os.Stderr, "%s [y/N/c] ", prompt)
	var reply string
	if _, err := fmt.Fscanln(os.Stdin, &reply); err != nil {
		return builder.AnswerNo
	}
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes":
		return builder.AnswerYes
	case "c", "cancel":
		return builder.AnswerCancel
	default:
		return builder.AnswerNo
	}
}

// parseAddr accepts hex with or without the 0x prefix, or decimal.
func parseAddr(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		return strconv.ParseUint(rest, 16, 64)
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	return strconv.ParseUint(s, 16, 64)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func Execute() {
	// fang renders help as markdown, which garbles piped output; fall back
	// to plain cobra there.
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
