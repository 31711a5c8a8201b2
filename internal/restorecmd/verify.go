package restorecmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/config"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/media"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/sidecar"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/verify"
)

func executeVerify(ctx context.Context, root string, cfg *config.Config, showAll bool) error {
	slog.Info("Starting verification", "root", root, "timezone", cfg.Timezone)

	files, err := media.Collect(root)
	if err != nil {
		return fmt.Errorf("failed to collect media: %w", err)
	}

	verifier, err := verify.New(cfg.ExifToolPath, sidecar.NewResolver(cfg.MinTruncatedStem), cfg.Location)
	if err != nil {
		return err
	}
	defer func() {
		if err := verifier.Close(); err != nil {
			slog.Warn("Failed to stop exiftool", "error", err)
		}
	}()

	checks, err := verifier.Verify(ctx, files)
	printChecks(os.Stdout, checks, showAll)
	if err != nil {
		return fmt.Errorf("verification stopped: %w", err)
	}
	return nil
}

func printChecks(w io.Writer, checks []verify.Check, showAll bool) {
	counts := map[verify.State]int{}
	fileTimeOff := 0
	for _, c := range checks {
		counts[c.State]++
		off := c.FileTimeOff()
		if off {
			fileTimeOff++
		}
		if !showAll && c.State == verify.Match && !off {
			continue
		}
		switch c.State {
		case verify.Mismatch:
			fmt.Fprintf(w, "MISMATCH  %s\n  %s: expected %s, found %q\n", c.Path, c.Tag, c.Expected, c.Actual)
		case verify.Unreadable:
			fmt.Fprintf(w, "ERROR     %s\n  %s\n", c.Path, c.Reason)
		case verify.NoSidecar:
			fmt.Fprintf(w, "NO JSON   %s\n", c.Path)
		default:
			fmt.Fprintf(w, "OK        %s (%s %s)\n", c.Path, c.Tag, c.Actual)
		}
		if off {
			fmt.Fprintf(w, "  file time: expected %s, found %s\n",
				c.Taken.In(c.ModTime.Location()).Format(time.RFC3339), c.ModTime.Format(time.RFC3339))
		}
	}

	fmt.Fprintln(w, "\n========================================")
	fmt.Fprintln(w, "Verification Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Checked:     %d\n", len(checks))
	fmt.Fprintf(w, "Match:       %d\n", counts[verify.Match])
	fmt.Fprintf(w, "Mismatch:    %d\n", counts[verify.Mismatch])
	fmt.Fprintf(w, "No sidecar:  %d\n", counts[verify.NoSidecar])
	fmt.Fprintf(w, "Unreadable:  %d\n", counts[verify.Unreadable])
	fmt.Fprintf(w, "File time off: %d\n", fileTimeOff)
	fmt.Fprintln(w, "========================================")
}
