package restorecmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/config"
)

// NewRestoreCmd creates the restore command
func NewRestoreCmd() *cobra.Command {
	var timeout time.Duration
	var timezone string
	var deleteJSON bool
	var convertAVI bool
	var fixExtensions bool
	var dryRun bool
	var reportURI string
	var reportKey string
	var parquetPath string

	cmd := &cobra.Command{
		Use:   "restore [dir]",
		Short: "Write sidecar dates, locations and descriptions back into media files",
		Long: `Restore walks a Google Photos Takeout export and writes the metadata held in
each JSON sidecar back into the photo or video it describes.

Images are updated with exiftool (DateTimeOriginal, CreateDate, GPS, description,
people as keywords). Videos are remuxed with ffmpeg without re-encoding to set
creation_time, location and description. Files are processed one at a time.

If dir is omitted you are prompted for it.`,
		Example: `  # Restore a takeout export in place
  takeout-restore restore ~/Takeout/Google\ Photos

  # See what would change without touching any file
  takeout-restore restore ~/Takeout --dry-run

  # Convert AVI clips, remove sidecars after a clean run and keep a report
  takeout-restore restore ~/Takeout --convert-avi --delete-json --report-uri file:///tmp/reports`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("timeout") {
				cfg.FileTimeout = timeout
			}
			if flags.Changed("timezone") {
				if err := cfg.SetTimezone(timezone); err != nil {
					return err
				}
			}
			if flags.Changed("report-uri") {
				cfg.ReportURI = reportURI
			}
			if flags.Changed("fix-extensions") {
				cfg.FixExtensions = fixExtensions
			}
			cfg.DeleteJSON = deleteJSON
			cfg.ConvertAVI = convertAVI
			cfg.DryRun = dryRun

			if err := cfg.Validate(); err != nil {
				return err
			}

			root, err := resolveRoot(args, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}

			return executeRestore(cmd.Context(), root, cfg, reportKey, parquetPath)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Maximum time to spend on a single file (env TAKEOUT_FILE_TIMEOUT)")
	cmd.Flags().StringVar(&timezone, "timezone", "Local", "Timezone for EXIF dates, e.g. Europe/Paris (env TAKEOUT_TIMEZONE)")
	cmd.Flags().BoolVar(&deleteJSON, "delete-json", false, "Delete sidecars of restored files when the run has no failures")
	cmd.Flags().BoolVar(&convertAVI, "convert-avi", false, "Convert AVI files to MP4 (the AVI is deleted)")
	cmd.Flags().BoolVar(&fixExtensions, "fix-extensions", true, "Rename HEIC files that are really JPEG or PNG")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve sidecars and print tool commands without changing files")
	cmd.Flags().StringVar(&reportURI, "report-uri", "", "Bucket URI to save a YAML report to, e.g. file:///tmp/reports (env TAKEOUT_REPORT_URI)")
	cmd.Flags().StringVar(&reportKey, "report-key", "", "Report object key (defaults to a timestamped name)")
	cmd.Flags().StringVar(&parquetPath, "parquet", "", "Also write per-file results to this parquet file")

	return cmd
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var timezone string
	var showAll bool

	cmd := &cobra.Command{
		Use:   "verify [dir]",
		Short: "Compare embedded timestamps with sidecars",
		Long: `Verify reads the timestamps embedded in each media file with exiftool and
compares them with photoTakenTime from the matching sidecar. No file is modified.`,
		Example: `  # Check a restored export
  takeout-restore verify ~/Takeout

  # List every file, not just mismatches
  takeout-restore verify ~/Takeout --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timezone") {
				if err := cfg.SetTimezone(timezone); err != nil {
					return err
				}
			}

			root, err := resolveRoot(args, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}

			return executeVerify(cmd.Context(), root, cfg, showAll)
		},
	}

	cmd.Flags().StringVar(&timezone, "timezone", "Local", "Timezone the EXIF dates were written in (env TAKEOUT_TIMEZONE)")
	cmd.Flags().BoolVar(&showAll, "all", false, "Print every file, not just problems")

	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var uri string
	var key string
	var parquetPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a saved restore report",
		Long: `Print a report saved by a previous restore run, either the YAML report from a
bucket or the per-file parquet export.`,
		Example: `  # Print a YAML report from a local bucket
  takeout-restore report --uri file:///tmp/reports --key restore_2024-05-01_10-00-00.yaml

  # Export the parquet results as CSV
  takeout-restore report --parquet results.parquet --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if parquetPath == "" && key == "" {
				return fmt.Errorf("either --key or --parquet is required")
			}
			if uri == "" {
				uri = os.Getenv("TAKEOUT_REPORT_URI")
			}
			if parquetPath == "" && uri == "" {
				return fmt.Errorf("--uri is required when reading a YAML report")
			}

			return executeReport(cmd.Context(), os.Stdout, uri, key, parquetPath, format)
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Bucket URI holding the report (env TAKEOUT_REPORT_URI)")
	cmd.Flags().StringVar(&key, "key", "", "Report object key")
	cmd.Flags().StringVar(&parquetPath, "parquet", "", "Read results from a parquet export instead")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, or csv)")

	return cmd
}
