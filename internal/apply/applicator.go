package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/media"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/sidecar"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/tools"
)

// Outcome describes what Apply did to a file
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeUnchanged
	OutcomeDryRun
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeDryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// Recoverable exiftool failures
const (
	errOtherImageStart = "Error reading OtherImageStart"
	errMissingEOI      = "JPEG EOI marker not found"
)

// Options configures an Applicator
type Options struct {
	ExifTool string
	FFmpeg   string
	Location *time.Location
	DryRun   bool
}

// Applicator writes sidecar metadata into media files with exiftool and ffmpeg
type Applicator struct {
	runner   tools.Runner
	exiftool string
	ffmpeg   string
	loc      *time.Location
	dryRun   bool
}

// New creates an Applicator that runs tools through runner
func New(runner tools.Runner, opts Options) *Applicator {
	a := &Applicator{
		runner:   runner,
		exiftool: opts.ExifTool,
		ffmpeg:   opts.FFmpeg,
		loc:      opts.Location,
		dryRun:   opts.DryRun,
	}
	if a.exiftool == "" {
		a.exiftool = "exiftool"
	}
	if a.ffmpeg == "" {
		a.ffmpeg = "ffmpeg"
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	return a
}

// Apply writes rec into f. Images go through exiftool, videos through ffmpeg.
func (a *Applicator) Apply(ctx context.Context, f media.File, rec *sidecar.Record) (Outcome, error) {
	switch f.Kind {
	case media.Image:
		return a.applyImage(ctx, f.Path, rec)
	case media.Video:
		return a.applyVideo(ctx, f.Path, rec)
	default:
		return 0, fmt.Errorf("%s: %w", f.Path, media.ErrUnsupported)
	}
}

func (a *Applicator) applyImage(ctx context.Context, path string, rec *sidecar.Record) (Outcome, error) {
	if alreadyApplied(path, rec.PhotoTakenTime, a.loc) {
		slog.Debug("Metadata already present", "path", path)
		return OutcomeUnchanged, nil
	}

	args := ExifToolArgs(rec, path, a.loc)
	if a.dryRun {
		slog.Info("Dry run", "tool", a.exiftool, "args", args)
		return OutcomeDryRun, nil
	}

	_, err := a.runner.Run(ctx, a.exiftool, args...)
	if err == nil {
		return OutcomeApplied, nil
	}

	stderr := tools.Stderr(err)
	switch {
	case strings.Contains(stderr, errOtherImageStart):
		slog.Warn("Stripping corrupt metadata before retry", "path", path)
		if _, err := a.runner.Run(ctx, a.exiftool, stripArgs(path)...); err != nil {
			return 0, fmt.Errorf("failed to strip metadata from %s: %w", path, err)
		}
	case strings.Contains(stderr, errMissingEOI):
		slog.Warn("Repairing truncated JPEG before retry", "path", path)
		if err := a.repairJPEG(ctx, path); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("exiftool failed on %s: %w", path, err)
	}

	if _, err := a.runner.Run(ctx, a.exiftool, args...); err != nil {
		return 0, fmt.Errorf("exiftool failed on %s after repair: %w", path, err)
	}
	return OutcomeApplied, nil
}

func (a *Applicator) applyVideo(ctx context.Context, path string, rec *sidecar.Record) (Outcome, error) {
	tmp := tempPath(path, "restore-tmp")
	args := FFmpegArgs(rec, path, tmp)
	if a.dryRun {
		slog.Info("Dry run", "tool", a.ffmpeg, "args", args)
		return OutcomeDryRun, nil
	}

	if _, err := a.runner.Run(ctx, a.ffmpeg, args...); err != nil {
		removeQuietly(tmp)
		return 0, fmt.Errorf("ffmpeg failed on %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		removeQuietly(tmp)
		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}

	taken := rec.PhotoTakenTime
	if err := os.Chtimes(path, taken, taken); err != nil {
		return 0, fmt.Errorf("failed to set file times on %s: %w", path, err)
	}
	return OutcomeApplied, nil
}

// repairJPEG re-encodes path in place with ffmpeg
func (a *Applicator) repairJPEG(ctx context.Context, path string) error {
	tmp := tempPath(path, "repaired")
	if _, err := a.runner.Run(ctx, a.ffmpeg, repairArgs(path, tmp)...); err != nil {
		removeQuietly(tmp)
		return fmt.Errorf("failed to repair %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		removeQuietly(tmp)
		return fmt.Errorf("failed to replace repaired %s: %w", path, err)
	}
	slog.Info("Repaired JPEG", "path", path)
	return nil
}

// ConvertAVI re-encodes an AVI file to MP4 and removes the original.
// It returns the path of the new file.
func (a *Applicator) ConvertAVI(ctx context.Context, path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".avi") {
		return path, nil
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp4"
	if _, err := os.Stat(out); err == nil {
		return path, fmt.Errorf("cannot convert %s: %s already exists", path, out)
	} else if !errors.Is(err, os.ErrNotExist) {
		return path, fmt.Errorf("failed to stat %s: %w", out, err)
	}

	if a.dryRun {
		slog.Info("Dry run", "tool", a.ffmpeg, "args", convertArgs(path, out))
		return path, nil
	}

	if _, err := a.runner.Run(ctx, a.ffmpeg, convertArgs(path, out)...); err != nil {
		removeQuietly(out)
		return path, fmt.Errorf("failed to convert %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil {
		return out, fmt.Errorf("converted %s but failed to remove it: %w", path, err)
	}

	slog.Info("Converted AVI", "from", filepath.Base(path), "to", filepath.Base(out))
	return out, nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove temporary file", "path", path, "error", err)
	}
}
