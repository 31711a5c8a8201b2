package restorecmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/apply"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/config"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/report"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/restore"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/sidecar"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/tools"
)

func executeRestore(ctx context.Context, root string, cfg *config.Config, reportKey, parquetPath string) error {
	slog.Info("Starting restore", "root", root, "timezone", cfg.Timezone, "timeout", cfg.FileTimeout, "dry_run", cfg.DryRun)

	if !cfg.DryRun {
		if err := tools.CheckAvailable(cfg.ExifToolPath, cfg.FFmpegPath); err != nil {
			return err
		}
	}

	applicator := apply.New(tools.ExecRunner{}, apply.Options{
		ExifTool: cfg.ExifToolPath,
		FFmpeg:   cfg.FFmpegPath,
		Location: cfg.Location,
		DryRun:   cfg.DryRun,
	})
	pipeline := restore.NewPipeline(applicator, sidecar.NewResolver(cfg.MinTruncatedStem), restore.Options{
		FileTimeout:   cfg.FileTimeout,
		ConvertAVI:    cfg.ConvertAVI,
		FixExtensions: cfg.FixExtensions,
		DryRun:        cfg.DryRun,
	})

	summary, err := pipeline.Run(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to restore %s: %w", root, err)
	}

	rep := report.FromSummary(summary, cfg)
	if err := report.Print(os.Stdout, rep, report.FormatText); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}
	fmt.Printf("\nElapsed: %s\n", summary.Elapsed().Round(time.Millisecond))

	if cfg.DeleteJSON && !cfg.DryRun {
		deleted, err := restore.DeleteSidecars(summary)
		switch {
		case errors.Is(err, restore.ErrFailuresPresent):
			fmt.Println("\nSidecars kept because the run was not clean.")
		case err != nil:
			slog.Error("Failed to delete sidecars", "error", err)
		default:
			fmt.Printf("\nDeleted %d sidecar files.\n", deleted)
		}
	}

	// Save the report with a fresh context so an interrupted run still records its results
	if cfg.ReportURI != "" {
		if reportKey == "" {
			reportKey = report.DefaultKey(summary.Started)
		}
		if err := report.Save(context.WithoutCancel(ctx), cfg.ReportURI, reportKey, rep); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Printf("\nReport saved to: %s (%s)\n", cfg.ReportURI, reportKey)
	}

	if parquetPath != "" {
		if err := report.WriteParquet(parquetPath, rep); err != nil {
			return err
		}
		fmt.Printf("Results written to: %s\n", parquetPath)
	}

	if summary.Interrupted {
		return fmt.Errorf("restore interrupted: %w", context.Cause(ctx))
	}
	return nil
}

func executeReport(ctx context.Context, w io.Writer, uri, key, parquetPath, format string) error {
	var rep *report.Report
	if parquetPath != "" {
		rows, err := report.ReadParquet(parquetPath)
		if err != nil {
			return err
		}
		rep = report.FromEntries(rows)
	} else {
		var err error
		rep, err = report.Load(ctx, uri, key)
		if err != nil {
			return fmt.Errorf("failed to load report: %w", err)
		}
	}

	return report.Print(w, rep, format)
}
