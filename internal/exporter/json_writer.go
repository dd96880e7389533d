package exporter

import (
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/factory"
	imodel "WrplSpectra/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func init() {
	factory.RegisterWriter("json", func(cfg *config.Config) (imodel.Writer, error) {
		return NewJSONWriter(cfg.Extractor.OutputDir), nil
	})
}

// JSONWriter writes each record as an indented JSON document.
type JSONWriter struct {
	outputDir string
}

// NewJSONWriter creates a JSON exporter. An empty outputDir writes next to
// the source replay.
func NewJSONWriter(outputDir string) *JSONWriter {
	return &JSONWriter{outputDir: outputDir}
}

func (w *JSONWriter) Name() string { return "json" }

func (w *JSONWriter) Close() error { return nil }

// Write serializes rec to <replay>.json.
func (w *JSONWriter) Write(_ context.Context, rec *model.ReplayRecord) error {
	outputFile, err := OutputPath(rec, w.outputDir, "json")
	if err != nil {
		return err
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file '%s': %w", outputFile, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode record to json: %w", err)
	}
	return file.Close()
}

// OutputPath returns the export path for rec with the given extension,
// creating outputDir when set.
func OutputPath(rec *model.ReplayRecord, outputDir, ext string) (string, error) {
	source := rec.SourcePath
	if source == "" {
		source = rec.Header.FileName
	}
	if source == "" {
		return "", fmt.Errorf("record has no source path")
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + "." + ext
	if outputDir == "" {
		return filepath.Join(filepath.Dir(source), base), nil
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(outputDir, base), nil
}
