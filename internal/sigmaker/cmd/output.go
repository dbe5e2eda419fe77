package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"

	"sigmaker/internal/builder"
	"sigmaker/internal/sig"
	"sigmaker/internal/ui/colorize"
)

// printSignature renders s in the requested dialect, prints it, and
// optionally puts the plain text on the clipboard.
func printSignature(s sig.Signature, format sig.Format, copyOut bool) error {
	colored := colorize.ColorizeSignature(s.Render(format))
	fmt.Println(colored)

	if copyOut {
		if err := clipboard.WriteAll(colorize.StripANSI(colored)); err != nil {
			// Headless machines have no clipboard; the signature is on
			// stdout either way.
			slog.Debug("clipboard write failed", "error", err)
			return nil
		}
		fmt.Fprintln(os.Stderr, "Copied to clipboard.")
	}
	return nil
}

// printSignatureToClipboard renders s and puts it on the clipboard without
// touching stdout, for the TUI copy binding.
func printSignatureToClipboard(s sig.Signature, format sig.Format) error {
	return clipboard.WriteAll(s.Render(format))
}

// describeBuildError turns builder failures into user-facing messages, with
// the partial signature shown when one exists.
func describeBuildError(err error, format sig.Format) error {
	var nu *builder.NotUniqueError
	if errors.As(err, &nu) {
		partial := nu.Partial.Trim()
		return fmt.Errorf("no unique signature found; best effort after %d bytes: %s",
			len(nu.Partial), partial.Render(format))
	}
	switch {
	case errors.Is(err, builder.ErrNotCode):
		return errors.New("address is not in executable code")
	case errors.Is(err, builder.ErrInvalidAddress):
		return errors.New("invalid address")
	case errors.Is(err, builder.ErrDecodeFailed):
		return fmt.Errorf("cannot decode instruction: %v", err)
	case errors.Is(err, builder.ErrLeftFunctionScope):
		return errors.New("signature reached the end of the function; rerun with --continue-outside-function to keep growing")
	case errors.Is(err, builder.ErrLengthExceeded):
		return fmt.Errorf("%v", err)
	case errors.Is(err, builder.ErrAborted):
		return errors.New("aborted")
	}
	return err
}
