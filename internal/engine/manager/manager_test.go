package manager

import (
	"WrplSpectra/internal/blk"
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/core/tree"
	"WrplSpectra/internal/engine/correlator"
	"WrplSpectra/internal/engine/pipeline"
	"WrplSpectra/internal/engine/protocol"
	imodel "WrplSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type emptySource struct{}

func (emptySource) Unpack(context.Context, []byte, uint32) (tree.Value, error) {
	return tree.Empty(), blk.ErrInvalidOffset
}

type recordingWriter struct {
	mu      sync.Mutex
	written []string
	fail    bool
}

func (w *recordingWriter) Write(_ context.Context, rec *model.ReplayRecord) error {
	if w.fail {
		return errors.New("disk full")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, rec.Header.FileName)
	return nil
}

func (w *recordingWriter) Name() string { return "recording" }
func (w *recordingWriter) Close() error { return nil }

// writeReplays creates n files, of which the ones with index in bad carry
// corrupted magic bytes.
func writeReplays(t *testing.T, n int, bad map[int]bool) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for i := 0; i < n; i++ {
		buf := make([]byte, protocol.MinHeaderSize)
		copy(buf, protocol.Magic)
		if bad[i] {
			buf[0] = 0
		}
		path := filepath.Join(dir, fmt.Sprintf("replay_%02d.wrpl", i))
		if err := os.WriteFile(path, buf, 0644); err != nil {
			t.Fatalf("Failed to write replay: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestRun_FailuresDoNotStopBatch(t *testing.T) {
	bad := map[int]bool{1: true, 4: true, 7: true}
	paths := writeReplays(t, 10, bad)
	paths = append(paths, filepath.Join(t.TempDir(), "missing.wrpl"))

	w := &recordingWriter{}
	proc := pipeline.NewProcessor(emptySource{}, correlator.Options{})
	report := NewManager(proc, []imodel.Writer{w}, 3).Run(context.Background(), paths)

	if report.Total != 11 {
		t.Errorf("Expected total 11, got %d", report.Total)
	}
	if report.Succeeded != 7 {
		t.Errorf("Expected 7 successes, got %d", report.Succeeded)
	}
	if len(report.Failures) != 4 {
		t.Errorf("Expected 4 failures, got %d: %v", len(report.Failures), report.Failures)
	}
	for i := range bad {
		if err := report.Failures[paths[i]]; !errors.Is(err, protocol.ErrInvalidMagic) {
			t.Errorf("Expected ErrInvalidMagic for %s, got %v", paths[i], err)
		}
	}
	if report.Fatal != nil {
		t.Errorf("Expected no fatal error, got %v", report.Fatal)
	}
	if len(w.written) != 7 {
		t.Errorf("Expected 7 records written, got %d", len(w.written))
	}
}

func TestRun_WriterFailureFailsFile(t *testing.T) {
	paths := writeReplays(t, 2, nil)
	proc := pipeline.NewProcessor(emptySource{}, correlator.Options{})
	report := NewManager(proc, []imodel.Writer{&recordingWriter{fail: true}}, 2).Run(context.Background(), paths)

	if report.Succeeded != 0 || len(report.Failures) != 2 {
		t.Errorf("Expected every file to fail on writer error, got %+v", report)
	}
}

type fatalProcessor struct{}

func (fatalProcessor) Process(context.Context, string, []byte) (*model.ReplayRecord, error) {
	return nil, fmt.Errorf("%w: binary removed", blk.ErrServiceUnavailable)
}

func TestRun_FatalStopsDispatch(t *testing.T) {
	paths := writeReplays(t, 20, nil)
	report := NewManager(fatalProcessor{}, nil, 1).Run(context.Background(), paths)

	if !blk.IsFatal(report.Fatal) {
		t.Fatalf("Expected fatal error in report, got %v", report.Fatal)
	}
	if report.Succeeded != 0 {
		t.Errorf("Expected no successes, got %d", report.Succeeded)
	}
	if len(report.Failures) != 20 {
		t.Errorf("Expected all 20 files reported as failed, got %d", len(report.Failures))
	}
}
