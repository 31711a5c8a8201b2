package media

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionFor maps detected content types to the extension the file should carry
var extensionFor = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// FixExtension renames HEIC files whose content is really JPEG or PNG.
// It returns the path the file now lives at.
func FixExtension(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".heic" && ext != ".heif" {
		return path, nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return path, fmt.Errorf("failed to detect type of %s: %w", path, err)
	}

	var want string
	for mime, e := range extensionFor {
		if mtype.Is(mime) {
			want = e
			break
		}
	}
	if want == "" {
		return path, nil
	}

	target := strings.TrimSuffix(path, filepath.Ext(path)) + want
	if _, err := os.Stat(target); err == nil {
		return path, fmt.Errorf("cannot rename %s: %s already exists", path, target)
	}

	if err := os.Rename(path, target); err != nil {
		return path, fmt.Errorf("failed to rename %s: %w", path, err)
	}

	slog.Info("Renamed mislabelled file", "from", filepath.Base(path), "to", filepath.Base(target), "type", mtype.String())
	return target, nil
}
