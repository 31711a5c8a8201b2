package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/djherbis/times"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/media"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/sidecar"
)

// State is the verification result for one file
type State string

const (
	Match      State = "match"
	Mismatch   State = "mismatch"
	NoSidecar  State = "no-sidecar"
	Unreadable State = "unreadable"
)

const exifLayout = "2006:01:02 15:04:05"

// Tags read back from images, in order of preference
var imageTags = []string{"DateTimeOriginal", "CreateDate"}

// Tags read back from videos, in order of preference. QuickTime stores UTC.
var videoTags = []string{"CreateDate", "MediaCreateDate", "CreationDate"}

// Check is the outcome of verifying one media file against its sidecar
type Check struct {
	Path     string
	Sidecar  string
	Kind     media.Kind
	State    State
	Tag      string
	Expected string
	Actual   string
	ModTime  time.Time
	Taken    time.Time
	Reason   string
}

// FileTimeOff reports whether the file's modification time differs from
// the sidecar's photo taken time.
func (c Check) FileTimeOff() bool {
	if c.ModTime.IsZero() || c.Taken.IsZero() {
		return false
	}
	return c.ModTime.Unix() != c.Taken.Unix()
}

// extractor is the part of go-exiftool the verifier needs
type extractor interface {
	ExtractMetadata(files ...string) []exiftool.FileMetadata
}

// Verifier reads embedded timestamps and compares them with sidecars
type Verifier struct {
	et       extractor
	closer   func() error
	resolver *sidecar.Resolver
	loc      *time.Location
}

// New starts a stay-open exiftool at binary. Close must be called when done.
func New(binary string, resolver *sidecar.Resolver, loc *time.Location) (*Verifier, error) {
	var opts []func(*exiftool.Exiftool) error
	if binary != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binary))
	}

	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}

	v := newVerifier(et, resolver, loc)
	v.closer = et.Close
	return v, nil
}

func newVerifier(et extractor, resolver *sidecar.Resolver, loc *time.Location) *Verifier {
	if resolver == nil {
		resolver = sidecar.NewResolver(sidecar.DefaultMinTruncatedStem)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Verifier{et: et, resolver: resolver, loc: loc}
}

// Close stops the underlying exiftool process
func (v *Verifier) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer()
}

// Verify checks every supported file in files. It stops early if ctx is cancelled.
func (v *Verifier) Verify(ctx context.Context, files []media.File) ([]Check, error) {
	checks := make([]Check, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return checks, err
		}
		if f.Kind == media.Unsupported {
			continue
		}
		checks = append(checks, v.verifyFile(f))
	}
	return checks, nil
}

func (v *Verifier) verifyFile(f media.File) Check {
	rec, sidecarPath, err := v.resolver.Find(f.Path)
	if errors.Is(err, sidecar.ErrNotFound) {
		return Check{Path: f.Path, Kind: f.Kind, State: NoSidecar}
	}
	if err != nil {
		return Check{Path: f.Path, Sidecar: sidecarPath, Kind: f.Kind, State: Unreadable, Reason: err.Error()}
	}

	metas := v.et.ExtractMetadata(f.Path)
	if len(metas) == 0 {
		return Check{Path: f.Path, Sidecar: sidecarPath, Kind: f.Kind, State: Unreadable, Reason: "no metadata returned"}
	}

	c := compare(f, rec, metas[0], v.loc)
	c.Sidecar = sidecarPath
	c.Taken = rec.PhotoTakenTime
	if ts, err := times.Stat(f.Path); err == nil {
		c.ModTime = ts.ModTime()
	}

	slog.Debug("Verified file", "path", f.Path, "state", c.State, "expected", c.Expected, "actual", c.Actual, "file_time_off", c.FileTimeOff())
	return c
}

// compare checks the first present timestamp tag against the sidecar.
// Images hold wall-clock time in loc; videos hold UTC.
func compare(f media.File, rec *sidecar.Record, fm exiftool.FileMetadata, loc *time.Location) Check {
	c := Check{Path: f.Path, Kind: f.Kind}
	if fm.Err != nil {
		c.State = Unreadable
		c.Reason = fm.Err.Error()
		return c
	}

	tags := imageTags
	want := rec.PhotoTakenTime.In(loc)
	if f.Kind == media.Video {
		tags = videoTags
		want = rec.PhotoTakenTime.UTC()
	}
	c.Expected = want.Format(exifLayout)

	for _, tag := range tags {
		val, err := fm.GetString(tag)
		if err != nil || val == "" {
			continue
		}
		c.Tag = tag
		c.Actual = val
		// Drop sub-seconds and offsets such as "2021:01:01 00:00:00.000+01:00"
		if len(val) >= len(exifLayout) && val[:len(exifLayout)] == c.Expected {
			c.State = Match
		} else {
			c.State = Mismatch
		}
		return c
	}

	c.State = Mismatch
	c.Reason = "no timestamp tag present"
	return c
}
