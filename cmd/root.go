package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/restorecmd"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "takeout-restore",
		Short: "Restore Google Photos Takeout metadata into your photos and videos",
		Long: `takeout-restore puts the dates, locations, descriptions and people that Google
Photos Takeout exports as JSON sidecars back into the media files themselves.

Requires exiftool and ffmpeg on PATH (or TAKEOUT_EXIFTOOL / TAKEOUT_FFMPEG).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(restorecmd.NewRestoreCmd())
	cmd.AddCommand(restorecmd.NewVerifyCmd())
	cmd.AddCommand(restorecmd.NewReportCmd())

	return cmd
}
