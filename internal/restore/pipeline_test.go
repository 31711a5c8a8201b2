package restore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/apply"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/media"
	"github.com/Jeet-Chowdhury/GooglePhotoTakeOutMetaDataRestore/internal/sidecar"
)

const goodSidecar = `{"title": "x", "photoTakenTime": {"timestamp": "1609459200"}}`

type fakeApplier struct {
	applied  []string
	records  []*sidecar.Record
	errs     map[string]error
	outcome  apply.Outcome
	onApply  func()
	converts []string
}

func (f *fakeApplier) Apply(ctx context.Context, file media.File, rec *sidecar.Record) (apply.Outcome, error) {
	f.applied = append(f.applied, filepath.Base(file.Path))
	f.records = append(f.records, rec)
	if f.onApply != nil {
		f.onApply()
	}
	if err, ok := f.errs[filepath.Base(file.Path)]; ok {
		return 0, err
	}
	return f.outcome, nil
}

func (f *fakeApplier) ConvertAVI(ctx context.Context, path string) (string, error) {
	f.converts = append(f.converts, filepath.Base(path))
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp4"
	if err := os.Rename(path, out); err != nil {
		return path, err
	}
	return out, nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func resultFor(t *testing.T, s *Summary, name string) Result {
	t.Helper()
	for _, r := range s.Results {
		if filepath.Base(r.Path) == name {
			return r
		}
	}
	t.Fatalf("no result for %s", name)
	return Result{}
}

func TestRun(t *testing.T) {
	root := writeTree(t, map[string]string{
		"IMG_001.jpg":                            "jpeg",
		"IMG_001.jpg.supplemental-metadata.json": goodSidecar,
		"VID_001.mp4":                            "video",
		"VID_001.mp4.supplemental-metadata.json": `{"photoTakenTime": `,
		"IMG_002.jpg":                            "orphan",
		"notes.txt":                              "text",
		"IMG_003.png":                            "png",
		"IMG_003.png.supplem.json":               goodSidecar,
		"IMG_004.jpg":                            "broken",
		"IMG_004.jpg.json":                       goodSidecar,
	})

	applier := &fakeApplier{
		outcome: apply.OutcomeApplied,
		errs:    map[string]error{"IMG_004.jpg": errors.New("exiftool exited with status 1: Error: Not a valid JPG")},
	}
	p := NewPipeline(applier, nil, Options{FileTimeout: time.Minute})

	s, err := p.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if s.Total != 6 {
		t.Errorf("Expected 6 files, got %d", s.Total)
	}
	if s.Succeeded != 2 {
		t.Errorf("Expected 2 succeeded, got %d", s.Succeeded)
	}
	if s.Skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", s.Skipped)
	}
	if s.Failed != 2 {
		t.Errorf("Expected 2 failed, got %d", s.Failed)
	}

	video := resultFor(t, s, "VID_001.mp4")
	if video.Status != StatusFailed || !strings.Contains(video.Reason, "malformed") {
		t.Errorf("Expected malformed video sidecar to fail, got %+v", video)
	}

	failures := s.Failures()
	if len(failures) != 2 || filepath.Base(failures[0].Path) != "IMG_004.jpg" || filepath.Base(failures[1].Path) != "VID_001.mp4" {
		t.Errorf("Expected failures IMG_004.jpg and VID_001.mp4, got %+v", failures)
	}

	if r := resultFor(t, s, "IMG_002.jpg"); r.Status != StatusSkipped || r.Reason != ReasonNoSidecar {
		t.Errorf("Expected orphan to be skipped for missing sidecar, got %+v", r)
	}
	if r := resultFor(t, s, "notes.txt"); r.Status != StatusSkipped || r.Reason != ReasonUnsupported {
		t.Errorf("Expected text file to be skipped as unsupported, got %+v", r)
	}
	if r := resultFor(t, s, "IMG_003.png"); r.Sidecar != filepath.Join(root, "IMG_003.png.supplem.json") {
		t.Errorf("Expected truncated sidecar, got %s", r.Sidecar)
	}

	for _, name := range applier.applied {
		if name == "IMG_002.jpg" || name == "VID_001.mp4" || name == "notes.txt" {
			t.Errorf("Expected %s to never reach the applicator", name)
		}
	}
}

func TestRunLeavesOrphanUntouched(t *testing.T) {
	content := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02, 0x03}
	root := t.TempDir()
	path := filepath.Join(root, "IMG_010.jpg")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	before, _ := os.Stat(path)

	p := NewPipeline(&fakeApplier{}, nil, Options{FixExtensions: true})
	if _, err := p.Run(context.Background(), root); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected file to remain: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !bytes.Equal(data, content) {
		t.Error("Expected file to be byte-identical")
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("Expected modification time to be unchanged")
	}
}

func TestRunOutcomes(t *testing.T) {
	tests := []struct {
		outcome    apply.Outcome
		wantStatus Status
		wantReason string
	}{
		{apply.OutcomeApplied, StatusSucceeded, ""},
		{apply.OutcomeUnchanged, StatusUnchanged, ""},
		{apply.OutcomeDryRun, StatusSkipped, ReasonDryRun},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			root := writeTree(t, map[string]string{
				"IMG_001.jpg":                            "jpeg",
				"IMG_001.jpg.supplemental-metadata.json": goodSidecar,
			})
			p := NewPipeline(&fakeApplier{outcome: tt.outcome}, nil, Options{})

			s, err := p.Run(context.Background(), root)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			r := s.Results[0]
			if r.Status != tt.wantStatus || r.Reason != tt.wantReason {
				t.Errorf("Expected %s/%q, got %s/%q", tt.wantStatus, tt.wantReason, r.Status, r.Reason)
			}
		})
	}
}

func TestRunInterrupted(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.jpg":      "a",
		"a.jpg.json": goodSidecar,
		"b.jpg":      "b",
		"b.jpg.json": goodSidecar,
		"c.jpg":      "c",
		"c.jpg.json": goodSidecar,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	applier := &fakeApplier{outcome: apply.OutcomeApplied, onApply: cancel}
	p := NewPipeline(applier, nil, Options{})

	s, err := p.Run(ctx, root)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(applier.applied) != 1 {
		t.Errorf("Expected processing to stop after the current file, got %v", applier.applied)
	}
	if s.Succeeded != 1 || s.Skipped != 2 || !s.Interrupted {
		t.Errorf("Expected 1 succeeded and 2 interrupted, got %+v", s)
	}
	for _, r := range s.Results[1:] {
		if r.Reason != ReasonInterrupted {
			t.Errorf("Expected %s to be interrupted, got %q", r.Path, r.Reason)
		}
	}
}

func TestRunTimeout(t *testing.T) {
	root := writeTree(t, map[string]string{
		"VID_001.mp4":      "v",
		"VID_001.mp4.json": goodSidecar,
	})
	applier := &fakeApplier{errs: map[string]error{"VID_001.mp4": context.DeadlineExceeded}}
	p := NewPipeline(applier, nil, Options{FileTimeout: time.Nanosecond})

	s, err := p.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	r := s.Results[0]
	if r.Status != StatusFailed || !strings.HasPrefix(r.Reason, "timed out") {
		t.Errorf("Expected timeout failure, got %+v", r)
	}
}

func TestRunConvertAVI(t *testing.T) {
	root := writeTree(t, map[string]string{
		"MOV_001.avi":                            "avi",
		"MOV_001.avi.supplemental-metadata.json": goodSidecar,
	})
	applier := &fakeApplier{outcome: apply.OutcomeApplied}
	p := NewPipeline(applier, nil, Options{ConvertAVI: true})

	s, err := p.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(applier.converts) != 1 {
		t.Fatalf("Expected one conversion, got %v", applier.converts)
	}
	if applier.applied[0] != "MOV_001.mp4" {
		t.Errorf("Expected metadata applied to converted file, got %s", applier.applied[0])
	}
	if filepath.Base(s.Results[0].Path) != "MOV_001.mp4" {
		t.Errorf("Expected result path to follow conversion, got %s", s.Results[0].Path)
	}
}

func TestRunMissingRoot(t *testing.T) {
	p := NewPipeline(&fakeApplier{}, nil, Options{})
	if _, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing root")
	}
}

func TestDeleteSidecars(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.jpg.json": goodSidecar,
		"b.jpg.json": goodSidecar,
	})
	a := filepath.Join(root, "a.jpg.json")
	b := filepath.Join(root, "b.jpg.json")

	s := NewSummary(root)
	s.Add(Result{Path: "a.jpg", Sidecar: a, Status: StatusSucceeded})
	s.Add(Result{Path: "b.jpg", Sidecar: b, Status: StatusFailed})

	if _, err := DeleteSidecars(s); !errors.Is(err, ErrFailuresPresent) {
		t.Errorf("Expected ErrFailuresPresent, got %v", err)
	}
	if _, err := os.Stat(a); err != nil {
		t.Error("Expected sidecars to be kept after failures")
	}

	clean := NewSummary(root)
	clean.Add(Result{Path: "a.jpg", Sidecar: a, Status: StatusSucceeded})
	clean.Add(Result{Path: "a.mp4", Sidecar: a, Status: StatusUnchanged})
	clean.Add(Result{Path: "c.jpg", Status: StatusSkipped, Reason: ReasonNoSidecar})

	deleted, err := DeleteSidecars(clean)
	if err != nil {
		t.Fatalf("DeleteSidecars() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted sidecar, got %d", deleted)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Error("Expected used sidecar to be deleted")
	}
	if _, err := os.Stat(b); err != nil {
		t.Error("Expected unused sidecar to be kept")
	}
}
