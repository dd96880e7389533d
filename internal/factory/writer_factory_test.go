package factory

import (
	"WrplSpectra/internal/config"
	"WrplSpectra/internal/core/model"
	imodel "WrplSpectra/internal/model"
	"context"
	"errors"
	"testing"
)

type fakeWriter struct {
	name   string
	closed *int
}

func (w *fakeWriter) Write(context.Context, *model.ReplayRecord) error { return nil }
func (w *fakeWriter) Name() string { return w.name }
func (w *fakeWriter) Close() error {
	*w.closed++
	return nil
}

func withRegistry(t *testing.T, entries map[string]WriterFactory) {
	t.Helper()
	saved := registry
	registry = make(map[string]WriterFactory)
	for name, f := range entries {
		RegisterWriter(name, f)
	}
	t.Cleanup(func() { registry = saved })
}

func TestCreate(t *testing.T) {
	closed := 0
	ok := func(name string) WriterFactory {
		return func(*config.Config) (imodel.Writer, error) {
			return &fakeWriter{name: name, closed: &closed}, nil
		}
	}
	withRegistry(t, map[string]WriterFactory{
		"json":   ok("json"),
		"txt":    ok("txt"),
		"broken": func(*config.Config) (imodel.Writer, error) { return nil, errors.New("no backend") },
	})

	cfg := config.Default()
	cfg.Extractor.Formats = []string{"json", "txt"}
	cfg.Writers = []config.WriterDef{{Type: "broken", Enabled: false}}

	writers, err := Create(cfg)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(writers) != 2 || writers[0].Name() != "json" || writers[1].Name() != "txt" {
		t.Fatalf("Unexpected writers: %v", writers)
	}

	cfg.Writers[0].Enabled = true
	if _, err := Create(cfg); err == nil {
		t.Fatal("Expected error from failing factory")
	}
	if closed != 2 {
		t.Errorf("Expected the 2 writers built before the failure to be closed, got %d", closed)
	}

	cfg.Writers = []config.WriterDef{{Type: "kafka", Enabled: true}}
	if _, err := Create(cfg); err == nil {
		t.Fatal("Expected error for unknown writer type")
	}

	if names := Registered(); len(names) != 3 || names[0] != "broken" {
		t.Errorf("Unexpected registered names: %v", names)
	}
}

func TestRegisterWriter_DuplicatePanics(t *testing.T) {
	withRegistry(t, nil)
	f := func(*config.Config) (imodel.Writer, error) { return nil, nil }
	RegisterWriter("json", f)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()
	RegisterWriter("json", f)
}
