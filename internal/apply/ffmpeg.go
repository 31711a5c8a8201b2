package apply

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/sidecar"
)

// containerTimeLayout is what ffmpeg expects for creation_time
const containerTimeLayout = "2006-01-02T15:04:05.000000Z"

// FFmpegArgs builds a stream-copy remux of in to out that sets container
// and per-stream metadata from rec. Streams are never re-encoded. Data
// streams (timed metadata tracks from phone cameras) are dropped since the
// MP4 and MOV muxers cannot copy them.
func FFmpegArgs(rec *sidecar.Record, in, out string) []string {
	created := "creation_time=" + rec.PhotoTakenTime.UTC().Format(containerTimeLayout)
	args := []string{
		"-y",
		"-i", in,
		"-map", "0:v",
		"-map", "0:a?",
		"-map", "0:s?",
		"-c", "copy",
		"-map_metadata", "0",
		"-metadata", created,
		"-metadata:s", created,
	}

	if rec.Geo != nil {
		args = append(args, "-metadata", "location="+ISO6709(rec.Geo))
	}
	if rec.Description != "" {
		args = append(args, "-metadata", "description="+rec.Description)
	}

	// Motion photo companions have an extension ffmpeg cannot map to a muxer
	if strings.EqualFold(filepath.Ext(out), ".mp") {
		args = append(args, "-f", "mp4")
	}

	return append(args, out)
}

// ISO6709 formats a position the way QuickTime location atoms store it
func ISO6709(g *sidecar.Geo) string {
	return fmt.Sprintf("%+08.4f%+09.4f/", g.Latitude, g.Longitude)
}

// tempPath returns a sibling of path that keeps its extension
func tempPath(path, tag string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + tag + ext
}

// convertArgs re-encodes an AVI into an H.264/AAC MP4
func convertArgs(in, out string) []string {
	return []string{
		"-y",
		"-i", in,
		"-c:v", "libx264",
		"-preset", "slow",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		out,
	}
}

// repairArgs re-encodes a JPEG whose stream is truncated
func repairArgs(in, out string) []string {
	return []string{
		"-y",
		"-i", in,
		"-vf", "scale=iw:ih",
		"-c:v", "mjpeg",
		"-q:v", "2",
		"-frames:v", "1",
		out,
	}
}
