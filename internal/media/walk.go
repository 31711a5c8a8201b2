package media

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
)

const exiftoolTempSuffix = "_exiftool_tmp"

// Collect walks root and returns every candidate file sorted by path.
// Sidecars, album metadata and AppleDouble stubs are left out. Unsupported
// files are kept so callers can record them as skipped.
func Collect(root string) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []File
	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			name := de.Name()
			if de.IsDir() {
				if path != root && IsAppleDouble(name) {
					return godirwalk.SkipThis
				}
				return nil
			}
			if !de.IsRegular() || IsAppleDouble(name) {
				return nil
			}
			lower := strings.ToLower(name)
			if strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, exiftoolTempSuffix) {
				return nil
			}
			files = append(files, NewFile(path))
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	slog.Debug("Collected files", "root", root, "count", len(files))
	return files, nil
}

// CleanupTemp removes exiftool leftovers from an earlier interrupted run
func CleanupTemp(root string) (int, error) {
	removed := 0
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(de.Name(), exiftoolTempSuffix) {
				return nil
			}
			if err := os.Remove(path); err != nil {
				slog.Warn("Failed to remove temporary file", "path", path, "error", err)
				return nil
			}
			slog.Info("Removed temporary file", "path", path)
			removed++
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean temporary files: %w", err)
	}
	return removed, nil
}

// SidecarFiles lists every .json file under root except album metadata
func SidecarFiles(root string) ([]string, error) {
	var paths []string
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			name := de.Name()
			if de.IsDir() || IsAppleDouble(name) {
				return nil
			}
			if strings.EqualFold(filepath.Ext(name), ".json") && name != "metadata.json" {
				paths = append(paths, path)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sidecars: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
