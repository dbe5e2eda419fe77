package cmd

import (
	"fmt"
	"os"

	"github.com/ianlancetaylor/demangle"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"sigmaker/internal/builder"
	"sigmaker/internal/config"
	"sigmaker/internal/image"
	"sigmaker/internal/ui/colorize"
)

var xrefCmd = &cobra.Command{
	Use:   "xref <binary> <address>",
	Short: "Rank signatures built from cross-references to an address",
	Long: `Find every code location that references the given address, build a
unique signature from each one, and print them shortest first. The shortest
signature is the primary pick.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, format, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		target, err := parseAddr(args[1])
		if err != nil {
			return err
		}

		img, b, err := openTarget(args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		b.Progress = func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rBuilding signatures %d/%d", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}

		opt := xrefOptions(cmd, cfg)

		ctx, cancel := signalContext()
		defer cancel()

		results, err := b.RankXrefs(ctx, target, opt)
		if err != nil {
			return describeBuildError(err, format)
		}
		if len(results) == 0 {
			return fmt.Errorf("no usable cross-references to %#x", target)
		}

		top := cfg.TopCount
		if cmd.Flags().Changed("top") {
			top, _ = cmd.Flags().GetInt("top")
		}
		if top > len(results) {
			top = len(results)
		}

		for i := 0; i < top; i++ {
			r := results[i]
			fmt.Printf("%#x %s\n    %s\n", r.Origin, originName(img, r.Origin),
				colorize.ColorizeSignature(r.Sig.Render(format)))
		}
		fmt.Printf("%d of %d cross-references yielded a signature\n", len(results), len(img.IncomingFarRefs(target)))

		if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
			printXrefStats(results)
		}

		if copyOut, _ := cmd.Flags().GetBool("copy"); copyOut {
			return printSignature(results[0].Sig, format, true)
		}
		return nil
	},
}

// xrefOptions merges the config defaults with the flag overrides for the
// per-reference builds.
func xrefOptions(cmd *cobra.Command, cfg config.Config) builder.Options {
	opt := builder.Options{
		WildcardOperands:        cfg.WildcardOperands,
		ContinueOutsideFunction: cfg.ContinueOutsideFunction,
		MaxLength:               cfg.XrefCapLength,
	}
	if cmd.Flags().Changed("continue-outside-function") {
		opt.ContinueOutsideFunction, _ = cmd.Flags().GetBool("continue-outside-function")
	}
	if cmd.Flags().Changed("cap") {
		opt.MaxLength, _ = cmd.Flags().GetInt("cap")
	}
	return opt
}

// originName renders the enclosing function of an origin, demangled, with
// the offset into it.
func originName(img *image.Image, origin uint64) string {
	start, ok := img.FunctionContaining(origin)
	if !ok {
		return "(no function)"
	}
	name := fmt.Sprintf("sub_%x", start)
	if fn, ok := img.FuncAt(start); ok && fn.Name != "" {
		name = demangle.Filter(fn.Name, demangle.NoClones)
	}
	if origin == start {
		return name
	}
	return fmt.Sprintf("%s+%#x", name, origin-start)
}

// printXrefStats summarizes the byte lengths of the ranked signatures.
func printXrefStats(results []builder.XrefSignature) {
	lengths := make([]float64, len(results))
	for i, r := range results {
		lengths[i] = float64(len(r.Sig))
	}
	mean, _ := stats.Mean(lengths)
	median, _ := stats.Median(lengths)
	min, _ := stats.Min(lengths)
	max, _ := stats.Max(lengths)
	fmt.Printf("length bytes: min %.0f, median %.0f, mean %.1f, max %.0f\n", min, median, mean, max)
}

func init() {
	xrefCmd.Flags().Int("top", 0, "How many ranked signatures to show (default from config)")
	xrefCmd.Flags().Int("cap", 0, "Growth cap in bytes per reference (default from config)")
	xrefCmd.Flags().Bool("continue-outside-function", false, "Let signatures grow past the referencing function")
	xrefCmd.Flags().Bool("stats", false, "Show summary statistics of signature lengths")
	xrefCmd.Flags().BoolP("copy", "c", false, "Copy the shortest signature to the clipboard")
	rootCmd.AddCommand(xrefCmd)
}
