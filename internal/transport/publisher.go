package transport

import (
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/core/model"
	"WrplSpectra/internal/factory"
	imodel "WrplSpectra/internal/model"
	"context"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

func init() {
	factory.RegisterWriter("nats", func(cfg *config.Config) (imodel.Writer, error) {
		return NewPublisher(cfg.NATS)
	})
}

// Publisher publishes record summaries to a NATS subject.
// It implements the model.Writer interface.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.RecordSubject}, nil
}

func (p *Publisher) Name() string { return "nats" }

// Write serializes the record summary to Protobuf and publishes it.
func (p *Publisher) Write(_ context.Context, rec *model.ReplayRecord) error {
	data, err := EncodeSummary(rec)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(HeaderSessionID, rec.Header.SessionID)
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	err := p.nc.Drain()
	log.Println("NATS connection drained and closed.")
	return err
}
