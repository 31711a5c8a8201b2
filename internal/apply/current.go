package apply

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/rwcarlsen/goexif/exif"
)

// EmbeddedDateTimeOriginal reads DateTimeOriginal from a JPEG's EXIF block
func EmbeddedDateTimeOriginal(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return "", err
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return "", err
	}

	s, err := tag.StringVal()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\x00 "), nil
}

// alreadyApplied reports whether a JPEG already carries taken as both its
// DateTimeOriginal and its modification time.
func alreadyApplied(path string, taken time.Time, loc *time.Location) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
	default:
		return false
	}

	embedded, err := EmbeddedDateTimeOriginal(path)
	if err != nil || embedded != taken.In(loc).Format(ExifTimeLayout) {
		return false
	}

	ts, err := times.Stat(path)
	if err != nil {
		return false
	}
	return ts.ModTime().Unix() == taken.Unix()
}
