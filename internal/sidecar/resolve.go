package sidecar

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/tidwall/gjson"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/media"
)

// ErrNotFound is returned when no sidecar matches a media file
var ErrNotFound = errors.New("sidecar not found")

const (
	metadataSuffix = ".supplemental-metadata"
	jsonExt        = ".json"

	// DefaultMinTruncatedStem is the shortest truncated sidecar stem accepted
	// when it is also shorter than the media name itself.
	DefaultMinTruncatedStem = 40
)

// editSuffixes are appended by the photo editor to edited copies. The
// sidecar keeps the original name. Longer suffixes come first.
var editSuffixes = []string{
	"-EFFECTS-edited",
	"-edited",
	"-EFFECTS",
	"-ANIMATION",
	"-edi",
}

var numberedRe = regexp.MustCompile(`^(.*)(\(\d+\))$`)

// Resolver finds the sidecar belonging to a media file
type Resolver struct {
	MinTruncatedStem int
}

// NewResolver returns a Resolver. A non-positive minStem uses the default.
func NewResolver(minStem int) *Resolver {
	if minStem <= 0 {
		minStem = DefaultMinTruncatedStem
	}
	return &Resolver{MinTruncatedStem: minStem}
}

var defaultResolver = NewResolver(DefaultMinTruncatedStem)

// Resolve finds the sidecar for mediaPath using the default resolver
func Resolve(mediaPath string) (string, error) {
	return defaultResolver.Resolve(mediaPath)
}

// Find resolves and loads the sidecar for mediaPath using the default resolver
func Find(mediaPath string) (*Record, string, error) {
	return defaultResolver.Find(mediaPath)
}

// Find resolves and loads the sidecar for mediaPath. The sidecar path is
// returned alongside ErrMalformed so callers can report it.
func (r *Resolver) Find(mediaPath string) (*Record, string, error) {
	path, err := r.Resolve(mediaPath)
	if err != nil {
		return nil, "", err
	}
	rec, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return rec, path, nil
}

// candidate is one spelling of the media name a sidecar may be keyed on
type candidate struct {
	name      string // full name, e.g. IMG_1(1).jpg
	base      string // name with any (n) removed, e.g. IMG_1.jpg
	num       string // "(n)" or empty
	stemNoExt string // name without extension, e.g. IMG_1(1)
}

func newCandidate(name string) candidate {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	c := candidate{name: name, base: name, stemNoExt: stem}
	if m := numberedRe.FindStringSubmatch(stem); m != nil && m[1] != "" {
		c.base = m[1] + ext
		c.num = m[2]
	}
	return c
}

// candidates returns the media name and, for edited copies, the original name
func candidates(name string) []candidate {
	out := []candidate{newCandidate(name)}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for _, suffix := range editSuffixes {
		if strings.HasSuffix(stem, suffix) && len(stem) > len(suffix) {
			out = append(out, newCandidate(strings.TrimSuffix(stem, suffix)+ext))
			break
		}
	}
	return out
}

// exactNames lists sidecar names the exporter writes when nothing is truncated
func (c candidate) exactNames() []string {
	if c.num == "" {
		names := []string{
			c.base + metadataSuffix + jsonExt,
			c.base + jsonExt,
		}
		if c.stemNoExt != c.base {
			names = append(names, c.stemNoExt+jsonExt)
		}
		return names
	}
	return []string{
		c.base + metadataSuffix + c.num + jsonExt,
		c.base + c.num + jsonExt,
		c.name + metadataSuffix + jsonExt,
		c.name + jsonExt,
	}
}

// Resolve finds the sidecar for mediaPath. Exact names are tried first,
// then truncated names. A video may then take the sidecar of the still
// image with the same stem (live photos). Results are deterministic for a
// directory listing.
func (r *Resolver) Resolve(mediaPath string) (string, error) {
	dir := filepath.Dir(mediaPath)
	cands := candidates(filepath.Base(mediaPath))

	for _, c := range cands {
		for _, name := range c.exactNames() {
			path := filepath.Join(dir, name)
			if isRegular(path) {
				slog.Debug("Matched sidecar by name", "media", mediaPath, "sidecar", name)
				return path, nil
			}
		}
	}

	entries, err := jsonEntries(dir)
	if err != nil {
		return "", err
	}

	for _, c := range cands {
		if name := r.matchTruncated(c, dir, entries); name != "" {
			slog.Debug("Matched truncated sidecar", "media", mediaPath, "sidecar", name)
			return filepath.Join(dir, name), nil
		}
	}

	if media.Classify(mediaPath) == media.Video {
		for _, c := range cands {
			if name := matchSibling(c, dir, entries); name != "" {
				slog.Debug("Matched shared sidecar", "media", mediaPath, "sidecar", name)
				return filepath.Join(dir, name), nil
			}
		}
	}

	return "", fmt.Errorf("%w for %s", ErrNotFound, mediaPath)
}

// matchTruncated picks the longest sidecar stem that is a prefix of the
// full sidecar stem. Entries are sorted, so ties go to the first name.
func (r *Resolver) matchTruncated(c candidate, dir string, entries []string) string {
	full := c.base + metadataSuffix
	best := ""
	bestLen := 0

	for _, name := range entries {
		stem := strings.TrimSuffix(name, jsonExt)
		if c.num != "" {
			if !strings.HasSuffix(stem, c.num) {
				continue
			}
			stem = strings.TrimSuffix(stem, c.num)
		}
		if stem == "" || !strings.HasPrefix(full, stem) {
			continue
		}
		if len(stem) < len(c.stemNoExt) && len(stem) < r.MinTruncatedStem {
			continue
		}
		if len(stem) <= bestLen {
			continue
		}
		if !IsTakeoutSidecar(filepath.Join(dir, name)) {
			continue
		}
		best, bestLen = name, len(stem)
	}
	return best
}

// matchSibling finds a sidecar written for a still image with the same
// stem. A numbered video IMG(1).MP4 also takes IMG.HEIC...(1).json. A
// sidecar numbered for another duplicate never matches.
func matchSibling(c candidate, dir string, entries []string) string {
	own := c.stemNoExt + "."
	shared := strings.TrimSuffix(c.base, filepath.Ext(c.base)) + "."

	for _, name := range entries {
		stem := strings.TrimSuffix(name, jsonExt)
		var rest string
		switch {
		case strings.HasPrefix(stem, own):
			rest = strings.TrimPrefix(stem, own)
			if numberedRe.MatchString(rest) {
				continue
			}
		case c.num != "" && strings.HasPrefix(stem, shared) && strings.HasSuffix(stem, c.num):
			rest = strings.TrimSuffix(strings.TrimPrefix(stem, shared), c.num)
		default:
			continue
		}

		ext, _, _ := strings.Cut(rest, ".")
		if media.Classify("."+ext) != media.Image {
			continue
		}
		if IsTakeoutSidecar(filepath.Join(dir, name)) {
			return name
		}
	}
	return ""
}

// jsonEntries lists candidate sidecar names in dir in sorted order
func jsonEntries(dir string) ([]string, error) {
	dirents, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	sort.Sort(dirents)

	var names []string
	for _, de := range dirents {
		name := de.Name()
		if !de.IsRegular() || !strings.HasSuffix(name, jsonExt) {
			continue
		}
		if name == "metadata.json" || strings.HasPrefix(name, "._") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// IsTakeoutSidecar reports whether path holds JSON with a photoTakenTime timestamp
func IsTakeoutSidecar(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if !gjson.ValidBytes(data) {
		return false
	}
	return gjson.GetBytes(data, "photoTakenTime.timestamp").Exists()
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
