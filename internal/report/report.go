package report

import (
	"context"
	"fmt"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gopkg.in/yaml.v3"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/config"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/restore"
)

const timeLayout = time.RFC3339

// RunConfig is the configuration section of a report
type RunConfig struct {
	Root        string `yaml:"root" json:"root"`
	Timezone    string `yaml:"timezone" json:"timezone"`
	FileTimeout string `yaml:"filetimeout" json:"file_timeout"`
	DryRun      bool   `yaml:"dryrun" json:"dry_run"`
	ConvertAVI  bool   `yaml:"convertavi" json:"convert_avi"`
	DeleteJSON  bool   `yaml:"deletejson" json:"delete_json"`
	Started     string `yaml:"started" json:"started"`
	Finished    string `yaml:"finished" json:"finished"`
}

// Counts are the per-status totals of a run
type Counts struct {
	Total     int `yaml:"total" json:"total"`
	Succeeded int `yaml:"succeeded" json:"succeeded"`
	Unchanged int `yaml:"unchanged" json:"unchanged"`
	Skipped   int `yaml:"skipped" json:"skipped"`
	Failed    int `yaml:"failed" json:"failed"`
}

// Entry is one processed file. It is also the parquet row schema.
type Entry struct {
	Path       string `yaml:"path" json:"path" parquet:"path"`
	Sidecar    string `yaml:"sidecar,omitempty" json:"sidecar,omitempty" parquet:"sidecar"`
	Kind       string `yaml:"kind" json:"kind" parquet:"kind"`
	Status     string `yaml:"status" json:"status" parquet:"status"`
	Reason     string `yaml:"reason,omitempty" json:"reason,omitempty" parquet:"reason"`
	DurationMS int64  `yaml:"durationms" json:"duration_ms" parquet:"duration_ms"`
}

// Report is the persisted form of a restore run
type Report struct {
	Config  RunConfig `yaml:"config" json:"config"`
	Counts  Counts    `yaml:"counts" json:"counts"`
	Results []Entry   `yaml:"results" json:"results"`
}

// FromSummary converts a run summary into a report
func FromSummary(s *restore.Summary, cfg *config.Config) *Report {
	rep := &Report{
		Config: RunConfig{
			Root:     s.Root,
			Started:  s.Started.Format(timeLayout),
			Finished: s.Finished.Format(timeLayout),
		},
		Counts: Counts{
			Total:     s.Total,
			Succeeded: s.Succeeded,
			Unchanged: s.Unchanged,
			Skipped:   s.Skipped,
			Failed:    s.Failed,
		},
		Results: make([]Entry, 0, len(s.Results)),
	}

	if cfg != nil {
		rep.Config.Timezone = cfg.Timezone
		rep.Config.FileTimeout = cfg.FileTimeout.String()
		rep.Config.DryRun = cfg.DryRun
		rep.Config.ConvertAVI = cfg.ConvertAVI
		rep.Config.DeleteJSON = cfg.DeleteJSON
	}

	for _, r := range s.Results {
		rep.Results = append(rep.Results, Entry{
			Path:       r.Path,
			Sidecar:    r.Sidecar,
			Kind:       r.Kind,
			Status:     string(r.Status),
			Reason:     r.Reason,
			DurationMS: r.Duration.Milliseconds(),
		})
	}
	return rep
}

// FromEntries rebuilds a report from result rows, such as a parquet export
func FromEntries(entries []Entry) *Report {
	rep := &Report{Results: entries}
	for _, e := range entries {
		rep.Counts.Total++
		switch restore.Status(e.Status) {
		case restore.StatusSucceeded:
			rep.Counts.Succeeded++
		case restore.StatusUnchanged:
			rep.Counts.Unchanged++
		case restore.StatusFailed:
			rep.Counts.Failed++
		default:
			rep.Counts.Skipped++
		}
	}
	return rep
}

// Failures returns the failed entries
func (r *Report) Failures() []Entry {
	var out []Entry
	for _, e := range r.Results {
		if e.Status == string(restore.StatusFailed) {
			out = append(out, e)
		}
	}
	return out
}

// DefaultKey names a report by the time its run started
func DefaultKey(started time.Time) string {
	return fmt.Sprintf("restore_%s.yaml", started.Format("2006-01-02_15-04-05"))
}

// Save writes rep as YAML to key in the bucket at bucketURI
func Save(ctx context.Context, bucketURI, key string, rep *Report) error {
	bucket, err := blob.OpenBucket(ctx, bucketURI)
	if err != nil {
		return fmt.Errorf("failed to open bucket %s: %w", bucketURI, err)
	}
	defer bucket.Close()

	return Write(ctx, bucket, key, rep)
}

// Write writes rep as YAML to key in bucket
func Write(ctx context.Context, bucket *blob.Bucket, key string, rep *Report) error {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	opts := &blob.WriterOptions{ContentType: "application/yaml"}
	if err := bucket.WriteAll(ctx, key, data, opts); err != nil {
		return fmt.Errorf("failed to write report %s: %w", key, err)
	}
	return nil
}

// Load reads a YAML report from key in the bucket at bucketURI
func Load(ctx context.Context, bucketURI, key string) (*Report, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucketURI, err)
	}
	defer bucket.Close()

	return Read(ctx, bucket, key)
}

// Read reads a YAML report from key in bucket
func Read(ctx context.Context, bucket *blob.Bucket, key string) (*Report, error) {
	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", key, err)
	}

	var rep Report
	if err := yaml.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", key, err)
	}
	return &rep, nil
}
