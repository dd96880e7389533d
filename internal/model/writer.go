package model

import (
	"WrplSpectra/internal/core/model"
	"context"
)

// Writer defines a generic interface for handing a finished replay record to
// an output: a file exporter, a database or a message bus.
type Writer interface {
	// Write persists or forwards a single record.
	Write(ctx context.Context, rec *model.ReplayRecord) error

	// Name identifies the writer in logs.
	Name() string

	// Close releases connections or files held by the writer.
	Close() error
}
