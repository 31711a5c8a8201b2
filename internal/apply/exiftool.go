package apply

import (
	"math"
	"strconv"
	"time"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/sidecar"
)

const (
	// ExifTimeLayout is the EXIF DateTime format. It carries no offset.
	ExifTimeLayout = "2006:01:02 15:04:05"

	// fileTimeLayout includes the offset so exiftool sets the exact instant
	fileTimeLayout = "2006:01:02 15:04:05-07:00"
)

// ExifToolArgs maps a sidecar record to exiftool arguments for path.
// EXIF dates are written as wall-clock time in loc.
func ExifToolArgs(rec *sidecar.Record, path string, loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	taken := rec.PhotoTakenTime.In(loc)
	exifTime := taken.Format(ExifTimeLayout)
	fileTime := taken.Format(fileTimeLayout)

	args := []string{
		"-overwrite_original",
		"-m",
		"-DateTimeOriginal=" + exifTime,
		"-CreateDate=" + exifTime,
		"-ModifyDate=" + exifTime,
		"-FileCreateDate=" + fileTime,
		"-FileModifyDate=" + fileTime,
	}

	if rec.Geo != nil {
		latRef, lonRef := "N", "E"
		if rec.Geo.Latitude < 0 {
			latRef = "S"
		}
		if rec.Geo.Longitude < 0 {
			lonRef = "W"
		}
		args = append(args,
			"-GPSLatitude="+formatFloat(math.Abs(rec.Geo.Latitude)),
			"-GPSLatitudeRef="+latRef,
			"-GPSLongitude="+formatFloat(math.Abs(rec.Geo.Longitude)),
			"-GPSLongitudeRef="+lonRef,
			"-GPSAltitude="+formatFloat(math.Max(rec.Geo.Altitude, 0)),
			"-GPSAltitudeRef=0",
		)
	}

	if rec.Description != "" {
		args = append(args,
			"-ImageDescription="+rec.Description,
			"-XMP-dc:Description="+rec.Description,
		)
	}

	for _, name := range rec.People {
		args = append(args, "-Keywords="+name)
	}

	return append(args, path)
}

// stripArgs removes every writable tag so a corrupt maker note can be rewritten
func stripArgs(path string) []string {
	return []string{"-all=", "-overwrite_original", path}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
