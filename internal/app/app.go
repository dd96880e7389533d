// Package app wires the configuration into the pipeline pieces shared by
// the binaries.
package app

import (
	"WrplSpectra/internal/blk"
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/engine/correlator"
	"WrplSpectra/internal/engine/pipeline"
	_ "WrplSpectra/internal/exporter" // Registers json and txt writers
	"WrplSpectra/internal/factory"
	"WrplSpectra/internal/model"
	_ "WrplSpectra/internal/storage"   // Registers clickhouse writer
	_ "WrplSpectra/internal/transport" // Registers nats writer
	"fmt"
	"log"
)

// NewProcessor checks the decoding service and builds the pipeline. The
// returned error wraps blk.ErrServiceUnavailable when the service is missing.
func NewProcessor(cfg *config.Config) (*pipeline.Processor, error) {
	timeout, err := cfg.Extractor.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	unpacker, err := blk.NewUnpacker(cfg.Extractor.WtExtCliPath, timeout, cfg.Extractor.Verbose)
	if err != nil {
		return nil, err
	}
	if cfg.Extractor.Verbose {
		log.Printf("debug: resolved wt_ext_cli path: %s", unpacker.Path())
	}

	return pipeline.NewProcessor(unpacker, correlator.Options{
		KeepUnmatched: cfg.Extractor.KeepUnmatchedPlayers,
		Verbose:       cfg.Extractor.Verbose,
	}), nil
}

// NewWriters builds every configured writer.
func NewWriters(cfg *config.Config) ([]model.Writer, error) {
	writers, err := factory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create writers: %w", err)
	}
	return writers, nil
}

// CloseWriters closes all writers, logging failures.
func CloseWriters(writers []model.Writer) {
	for _, w := range writers {
		if err := w.Close(); err != nil {
			log.Printf("Error closing %s writer: %v", w.Name(), err)
		}
	}
}
