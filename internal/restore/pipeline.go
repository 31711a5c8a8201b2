package restore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/apply"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/media"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/sidecar"
)

// ErrFailuresPresent is returned by DeleteSidecars when a run was not clean
var ErrFailuresPresent = errors.New("run had failures or was interrupted")

// Applier writes a sidecar record into a media file
type Applier interface {
	Apply(ctx context.Context, f media.File, rec *sidecar.Record) (apply.Outcome, error)
	ConvertAVI(ctx context.Context, path string) (string, error)
}

// Options controls per-file behaviour of a Pipeline
type Options struct {
	FileTimeout   time.Duration
	ConvertAVI    bool
	FixExtensions bool
	DryRun        bool
}

// Pipeline restores metadata for every media file under a root, one at a time
type Pipeline struct {
	applier  Applier
	resolver *sidecar.Resolver
	opts     Options
}

// NewPipeline creates a Pipeline
func NewPipeline(applier Applier, resolver *sidecar.Resolver, opts Options) *Pipeline {
	if resolver == nil {
		resolver = sidecar.NewResolver(sidecar.DefaultMinTruncatedStem)
	}
	if opts.FileTimeout <= 0 {
		opts.FileTimeout = 2 * time.Minute
	}
	return &Pipeline{applier: applier, resolver: resolver, opts: opts}
}

// Run processes root. Per-file problems are recorded in the summary; only a
// root that cannot be walked returns an error. When ctx is cancelled the
// remaining files are recorded as interrupted.
func (p *Pipeline) Run(ctx context.Context, root string) (*Summary, error) {
	summary := NewSummary(root)

	if !p.opts.DryRun {
		if _, err := media.CleanupTemp(root); err != nil {
			slog.Warn("Failed to clean temporary files", "root", root, "error", err)
		}
	}

	files, err := media.Collect(root)
	if err != nil {
		return nil, fmt.Errorf("failed to collect media: %w", err)
	}
	slog.Info("Collected media", "root", root, "files", len(files))

	for i, f := range files {
		if ctx.Err() != nil {
			for _, rest := range files[i:] {
				summary.Add(Result{Path: rest.Path, Kind: rest.Kind.String(), Status: StatusSkipped, Reason: ReasonInterrupted})
			}
			slog.Warn("Run interrupted", "remaining", len(files)-i)
			break
		}

		slog.Debug("Processing file", "path", f.Path, "progress", fmt.Sprintf("%d/%d", i+1, len(files)))
		summary.Add(p.process(ctx, f))
	}

	summary.Finish()
	return summary, nil
}

func (p *Pipeline) process(ctx context.Context, f media.File) Result {
	start := time.Now()
	res := p.processFile(ctx, f)
	res.Duration = time.Since(start)
	return res
}

func (p *Pipeline) processFile(ctx context.Context, f media.File) Result {
	res := Result{Path: f.Path, Kind: f.Kind.String()}

	if f.Kind == media.Unsupported {
		res.Status = StatusSkipped
		res.Reason = ReasonUnsupported
		return res
	}

	// The sidecar is keyed on the name as exported, so resolve before any rename
	rec, sidecarPath, err := p.resolver.Find(f.Path)
	res.Sidecar = sidecarPath
	switch {
	case errors.Is(err, sidecar.ErrNotFound):
		slog.Warn("No sidecar found", "path", f.Path)
		res.Status = StatusSkipped
		res.Reason = ReasonNoSidecar
		return res
	case err != nil:
		slog.Warn("Unusable sidecar", "path", f.Path, "sidecar", sidecarPath, "error", err)
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}

	fileCtx, cancel := context.WithTimeout(ctx, p.opts.FileTimeout)
	defer cancel()

	if !p.opts.DryRun {
		if p.opts.FixExtensions && f.Kind == media.Image {
			fixed, err := media.FixExtension(f.Path)
			if err != nil {
				slog.Warn("Failed to fix extension", "path", f.Path, "error", err)
			} else if fixed != f.Path {
				f = media.NewFile(fixed)
			}
		}
		if p.opts.ConvertAVI && f.Ext() == ".avi" {
			converted, err := p.applier.ConvertAVI(fileCtx, f.Path)
			if err != nil {
				return p.fail(ctx, fileCtx, res, err)
			}
			f = media.NewFile(converted)
		}
	}
	res.Path = f.Path

	outcome, err := p.applier.Apply(fileCtx, f, rec)
	if err != nil {
		return p.fail(ctx, fileCtx, res, err)
	}

	switch outcome {
	case apply.OutcomeUnchanged:
		res.Status = StatusUnchanged
	case apply.OutcomeDryRun:
		res.Status = StatusSkipped
		res.Reason = ReasonDryRun
	default:
		res.Status = StatusSucceeded
	}
	slog.Info("Processed file", "path", f.Path, "status", res.Status)
	return res
}

func (p *Pipeline) fail(ctx, fileCtx context.Context, res Result, err error) Result {
	switch {
	case ctx.Err() != nil:
		res.Status = StatusSkipped
		res.Reason = ReasonInterrupted
		return res
	case errors.Is(fileCtx.Err(), context.DeadlineExceeded):
		res.Reason = fmt.Sprintf("timed out after %s", p.opts.FileTimeout)
	default:
		res.Reason = strings.TrimSpace(err.Error())
	}
	slog.Warn("Failed to process file", "path", res.Path, "error", err)
	res.Status = StatusFailed
	return res
}

// DeleteSidecars removes the sidecars of succeeded and unchanged files.
// Nothing is deleted unless the run finished with no failures.
func DeleteSidecars(s *Summary) (int, error) {
	if s.Failed > 0 || s.Interrupted {
		return 0, ErrFailuresPresent
	}

	used := map[string]bool{}
	deleted := 0
	for _, r := range s.Results {
		if r.Sidecar == "" || used[r.Sidecar] {
			continue
		}
		if r.Status != StatusSucceeded && r.Status != StatusUnchanged {
			continue
		}
		used[r.Sidecar] = true
		if err := os.Remove(r.Sidecar); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return deleted, fmt.Errorf("failed to delete sidecar: %w", err)
		}
		deleted++
	}

	if remaining, err := media.SidecarFiles(s.Root); err == nil && len(remaining) > 0 {
		slog.Info("Sidecars left in place", "count", len(remaining))
	}
	return deleted, nil
}
