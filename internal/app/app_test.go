package app

import (
	"WrplSpectra/internal/blk"
	"WrplSpectra/internal/config"
	"errors"
	"path/filepath"
	"testing"
)

func TestNewProcessor_MissingService(t *testing.T) {
	cfg := config.Default()
	cfg.Extractor.WtExtCliPath = filepath.Join(t.TempDir(), "wt_ext_cli")

	if _, err := NewProcessor(cfg); !errors.Is(err, blk.ErrServiceUnavailable) {
		t.Fatalf("Expected ErrServiceUnavailable, got %v", err)
	}
}

func TestNewWriters_FileFormats(t *testing.T) {
	cfg := config.Default()
	cfg.Extractor.Formats = []string{"json", "txt"}

	writers, err := NewWriters(cfg)
	if err != nil {
		t.Fatalf("NewWriters failed: %v", err)
	}
	defer CloseWriters(writers)

	if len(writers) != 2 || writers[0].Name() != "json" || writers[1].Name() != "txt" {
		t.Errorf("Unexpected writers: %v", writers)
	}
}
