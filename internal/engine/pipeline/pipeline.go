package pipeline

import (
	"WrplSpectra/internal/blk"
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/core/tree"
	"WrplSpectra/internal/engine/assembler"
	"WrplSpectra/internal/engine/correlator"
	"WrplSpectra/internal/engine/protocol"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
)

// ResultSource decodes the results block of a replay.
type ResultSource interface {
	Unpack(ctx context.Context, data []byte, rezOffset uint32) (tree.Value, error)
}

// Processor turns the bytes of one replay file into a ReplayRecord.
// It holds no mutable state and is safe for concurrent use.
type Processor struct {
	source     ResultSource
	correlator *correlator.Correlator
	verbose    bool
}

// NewProcessor creates a Processor reading results through source.
func NewProcessor(source ResultSource, opts correlator.Options) *Processor {
	return &Processor{
		source:     source,
		correlator: correlator.New(opts),
		verbose:    opts.Verbose,
	}
}

// Process decodes one replay. Header errors and a missing decoding service
// are returned as errors; every other results-block failure degrades to an
// empty results tree.
func (p *Processor) Process(ctx context.Context, path string, data []byte) (*model.ReplayRecord, error) {
	name := filepath.Base(path)

	header, err := protocol.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header of %s: %w", name, err)
	}
	header.FileName = name

	results, err := p.source.Unpack(ctx, data, header.RezOffset)
	if err != nil {
		switch {
		case blk.IsFatal(err):
			return nil, err
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("processing of %s cancelled: %w", name, err)
		case errors.Is(err, blk.ErrInvalidOffset):
			if p.verbose {
				log.Printf("debug: %s has no results block: %v", name, err)
			}
		default:
			log.Printf("Warning: results block of %s could not be decoded: %v", name, err)
		}
		results = tree.Empty()
	}

	roster := p.correlator.Correlate(header, results)
	rec := assembler.Assemble(*header, results, roster)
	rec.SourcePath = path
	return rec, nil
}
