package factory

import (
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/model"
	"fmt"
	"log"
	"sort"
)

// WriterFactory defines a function that creates a writer from the config.
type WriterFactory func(cfg *config.Config) (model.Writer, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// Registered returns the known writer types in sorted order.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds one writer per output format and per enabled writer entry.
// Writers created before a failure are closed.
func Create(cfg *config.Config) ([]model.Writer, error) {
	var types []string
	types = append(types, cfg.Extractor.Formats...)
	for _, def := range cfg.Writers {
		if def.Enabled {
			types = append(types, def.Type)
		}
	}

	var writers []model.Writer
	for _, writerType := range types {
		log.Printf("Creating writer of type: '%s'", writerType)

		factory, ok := registry[writerType]
		if !ok {
			closeAll(writers)
			return nil, fmt.Errorf("unknown writer type: '%s'", writerType)
		}

		w, err := factory(cfg)
		if err != nil {
			closeAll(writers)
			return nil, fmt.Errorf("error creating writer type '%s': %w", writerType, err)
		}
		writers = append(writers, w)
	}

	return writers, nil
}

func closeAll(writers []model.Writer) {
	for _, w := range writers {
		if err := w.Close(); err != nil {
			log.Printf("Error closing writer %s: %v", w.Name(), err)
		}
	}
}
