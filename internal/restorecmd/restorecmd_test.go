package restorecmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/config"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/report"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/verify"
)

func TestPromptForRoot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain path", input: "/data/Takeout\n", want: "/data/Takeout"},
		{name: "quoted path", input: "  '/data/My Takeout'  \n", want: "/data/My Takeout"},
		{name: "double quoted", input: "\"/data/Takeout\"\n", want: "/data/Takeout"},
		{name: "empty line", input: "\n", wantErr: true},
		{name: "no input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptForRoot(strings.NewReader(tt.input), &out)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("promptForRoot() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if !strings.Contains(out.String(), "Takeout folder") {
				t.Errorf("Expected prompt to be written, got %q", out.String())
			}
		})
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()

	got, err := resolveRoot([]string{dir}, strings.NewReader(""), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("resolveRoot() error = %v", err)
	}
	if got != dir {
		t.Errorf("Expected %s, got %s", dir, got)
	}

	got, err = resolveRoot(nil, strings.NewReader(dir+"\n"), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("resolveRoot() with prompt error = %v", err)
	}
	if got != dir {
		t.Errorf("Expected prompted %s, got %s", dir, got)
	}

	if _, err := resolveRoot([]string{filepath.Join(dir, "missing")}, nil, nil); err == nil {
		t.Error("Expected error for missing directory")
	}

	file := filepath.Join(dir, "file.jpg")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveRoot([]string{file}, nil, nil); err == nil {
		t.Error("Expected error for a file root")
	}
}

func TestExecuteRestoreDryRun(t *testing.T) {
	color.NoColor = true
	root := t.TempDir()
	files := map[string]string{
		"IMG_001.jpg":                            "jpeg",
		"IMG_001.jpg.supplemental-metadata.json": `{"photoTakenTime": {"timestamp": "1609459200"}}`,
		"IMG_002.jpg":                            "orphan",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	reports := t.TempDir()
	parquetPath := filepath.Join(t.TempDir(), "results.parquet")
	cfg := &config.Config{
		FileTimeout:      time.Minute,
		Timezone:         "UTC",
		Location:         time.UTC,
		MinTruncatedStem: 40,
		ReportURI:        "file://" + filepath.ToSlash(reports),
		DryRun:           true,
		DeleteJSON:       true,
	}

	if err := executeRestore(context.Background(), root, cfg, "run.yaml", parquetPath); err != nil {
		t.Fatalf("executeRestore() error = %v", err)
	}

	rep, err := report.Load(context.Background(), cfg.ReportURI, "run.yaml")
	if err != nil {
		t.Fatalf("Expected saved report: %v", err)
	}
	if rep.Counts.Total != 2 || rep.Counts.Skipped != 2 {
		t.Errorf("Expected 2 skipped files in dry run, got %+v", rep.Counts)
	}
	if !rep.Config.DryRun {
		t.Error("Expected report to record dry run")
	}

	data, err := os.ReadFile(filepath.Join(root, "IMG_001.jpg"))
	if err != nil || string(data) != "jpeg" {
		t.Error("Expected dry run to leave media untouched")
	}
	if _, err := os.Stat(filepath.Join(root, "IMG_001.jpg.supplemental-metadata.json")); err != nil {
		t.Error("Expected dry run to keep sidecars")
	}

	var buf bytes.Buffer
	if err := executeReport(context.Background(), &buf, "", "", parquetPath, "csv"); err != nil {
		t.Fatalf("executeReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "dry run") || !strings.Contains(buf.String(), "no sidecar") {
		t.Errorf("Expected parquet rows with skip reasons, got:\n%s", buf.String())
	}
}

func TestPrintChecks(t *testing.T) {
	checks := []verify.Check{
		{Path: "/t/a.jpg", State: verify.Match, Tag: "DateTimeOriginal", Actual: "2021:01:01 00:00:00"},
		{Path: "/t/b.jpg", State: verify.Mismatch, Tag: "DateTimeOriginal", Expected: "2021:01:01 00:00:00", Actual: "2019:01:01 00:00:00"},
		{Path: "/t/c.jpg", State: verify.NoSidecar},
	}

	var buf bytes.Buffer
	printChecks(&buf, checks, false)
	out := buf.String()

	if strings.Contains(out, "/t/a.jpg") {
		t.Error("Expected matches to be hidden without --all")
	}
	for _, want := range []string{"MISMATCH  /t/b.jpg", "NO JSON   /t/c.jpg", "Match:       1", "Mismatch:    1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	buf.Reset()
	printChecks(&buf, checks, true)
	if !strings.Contains(buf.String(), "OK        /t/a.jpg") {
		t.Errorf("Expected matches with --all, got:\n%s", buf.String())
	}
}

func TestPrintChecksFileTime(t *testing.T) {
	taken := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	checks := []verify.Check{
		{Path: "/t/a.jpg", State: verify.Match, Tag: "DateTimeOriginal", Actual: "2021:01:01 00:00:00", ModTime: taken, Taken: taken},
		{Path: "/t/b.jpg", State: verify.Match, Tag: "DateTimeOriginal", Actual: "2021:01:01 00:00:00", ModTime: taken.Add(48 * time.Hour), Taken: taken},
	}

	var buf bytes.Buffer
	printChecks(&buf, checks, false)
	out := buf.String()

	if strings.Contains(out, "/t/a.jpg") {
		t.Error("Expected matching file times to stay hidden without --all")
	}
	for _, want := range []string{
		"OK        /t/b.jpg",
		"file time: expected 2021-01-01T00:00:00Z, found 2021-01-03T00:00:00Z",
		"File time off: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
