package manager

import (
	"WrplSpectra/internal/blk"
	"WrplSpectra/internal/core/model"
	imodel "WrplSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Processor decodes one replay file.
type Processor interface {
	Process(ctx context.Context, path string, data []byte) (*model.ReplayRecord, error)
}

// Report summarizes a batch run. Failures are keyed by file path.
type Report struct {
	Total     int
	Succeeded int
	Failures  map[string]error
	// Fatal is set when the run was aborted because no further file could
	// be processed.
	Fatal error
}

// Manager runs the replay pipeline over a batch of files with a fixed
// worker pool and fans each record out to the writers.
type Manager struct {
	processor  Processor
	writers    []imodel.Writer
	numWorkers int
}

// NewManager creates a new Manager.
func NewManager(processor Processor, writers []imodel.Writer, numWorkers int) *Manager {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Manager{
		processor:  processor,
		writers:    writers,
		numWorkers: numWorkers,
	}
}

type result struct {
	path string
	err  error
}

// Run processes every path and returns once all workers are done. A failing
// file never stops the others; a fatal error or cancellation of ctx stops
// dispatching of the files not yet started.
func (m *Manager) Run(ctx context.Context, paths []string) Report {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan result)

	var workerWg sync.WaitGroup
	workerWg.Add(m.numWorkers)
	for i := 0; i < m.numWorkers; i++ {
		go m.worker(ctx, jobs, results, &workerWg)
	}

	go func() {
		defer close(jobs)
		for idx, path := range paths {
			select {
			case <-ctx.Done():
				return
			case jobs <- path:
				log.Printf("[%d/%d] Processing %s", idx+1, len(paths), filepath.Base(path))
			}
		}
	}()

	go func() {
		workerWg.Wait()
		close(results)
	}()

	report := Report{Total: len(paths), Failures: make(map[string]error)}
	done := make(map[string]bool, len(paths))
	for r := range results {
		done[r.path] = true
		if r.err == nil {
			report.Succeeded++
			continue
		}
		report.Failures[r.path] = r.err
		log.Printf("Failed to process %s: %v", filepath.Base(r.path), r.err)
		if blk.IsFatal(r.err) && report.Fatal == nil {
			report.Fatal = r.err
			cancel()
		}
	}

	for _, path := range paths {
		if !done[path] {
			if _, failed := report.Failures[path]; !failed {
				report.Failures[path] = fmt.Errorf("not processed: %w", context.Cause(ctx))
			}
		}
	}

	log.Printf("Processing complete. Successful: %d/%d", report.Succeeded, report.Total)
	return report
}

func (m *Manager) worker(ctx context.Context, jobs <-chan string, results chan<- result, wg *sync.WaitGroup) {
	defer wg.Done()
	for path := range jobs {
		results <- result{path: path, err: m.ProcessFile(ctx, path)}
	}
}

// ProcessFile runs one file through the pipeline and every writer. It
// succeeds only when decoding and all writes succeed.
func (m *Manager) ProcessFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	_, err = m.ProcessBytes(ctx, path, data)
	return err
}

// ProcessBytes runs replay bytes received from elsewhere than the local
// disk through the pipeline and every writer.
func (m *Manager) ProcessBytes(ctx context.Context, name string, data []byte) (*model.ReplayRecord, error) {
	rec, err := m.processor.Process(ctx, name, data)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, w := range m.writers {
		if err := w.Write(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%s writer: %w", w.Name(), err))
		}
	}
	return rec, errors.Join(errs...)
}
