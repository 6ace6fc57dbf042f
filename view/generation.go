// Package view holds the state of the question generation page.
package view

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/JoshPattman/cvquestions/datamodels"
	"github.com/JoshPattman/cvquestions/metrics"
	"github.com/JoshPattman/cvquestions/storage"
)

// User-facing messages.
const (
	MessageIncompleteInput = "Please add a job description and select at least one CV."
	MessageSuccess         = "Questions generated successfully!"
	MessageFailure         = "Failed to generate questions."
)

var (
	// ErrGenerationInFlight rejects a trigger while another generation is running.
	ErrGenerationInFlight = errors.New("a generation is already in progress")
	// ErrIncompleteInput means no request was sent because an input is missing.
	ErrIncompleteInput = errors.New("job description and at least one file are required")
)

// State is the lifecycle state of a GenerationView.
type State uint8

const (
	// Idle means no request has been issued since the last input check.
	Idle State = iota
	// Submitting means a request is in flight.
	Submitting
	// Settled means the last request finished, successfully or not.
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// Generator is the remote side of the view.
type Generator interface {
	GenerateQuestions(ctx context.Context, jobDescription string, files []datamodels.SelectedFile) ([]datamodels.GenerationResult, error)
	Linker
}

// ResultsStore persists the last successful result list.
type ResultsStore interface {
	Save([]datamodels.GenerationResult) error
	Load() ([]datamodels.GenerationResult, error)
}

// GenerationView owns the form inputs, the in-flight request and the rendered results.
// It is safe for concurrent use. At most one generation runs at a time.
type GenerationView struct {
	generator Generator
	store     ResultsStore
	logger    *slog.Logger

	// inFlight is held for the whole of Generate.
	inFlight sync.Mutex

	mu             sync.RWMutex
	jobDescription string
	files          []datamodels.SelectedFile
	results        []datamodels.GenerationResult
	message        string
	loading        bool
	state          State
}

// NewGenerationView creates an idle view with no results. Call Restore to load persisted results.
func NewGenerationView(generator Generator, store ResultsStore, logger *slog.Logger) *GenerationView {
	return &GenerationView{
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

// SetJobDescription replaces the job description text.
func (v *GenerationView) SetJobDescription(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.jobDescription = text
}

// SelectFiles replaces the selected files. Earlier selections are discarded, not merged.
func (v *GenerationView) SelectFiles(files []datamodels.SelectedFile) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.files = slices.Clone(files)
}

// Restore loads previously persisted results into memory.
// Nothing stored is not an error. Corrupt data leaves the results empty and is returned.
func (v *GenerationView) Restore() error {
	results, err := v.store.Load()
	if errors.Is(err, storage.ErrNoResults) {
		v.logger.Debug("No persisted results to restore")
		return nil
	}
	if err != nil {
		v.logger.Warn("Failed to restore persisted results", "err", err)
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = results
	v.logger.Info("Restored persisted results", "num_results", len(results))
	return nil
}

// Generate submits the current inputs and waits for the result.
// It returns ErrGenerationInFlight without touching any state if another call is running,
// and ErrIncompleteInput without issuing a request if the inputs are missing.
func (v *GenerationView) Generate(ctx context.Context) error {
	if !v.tryStart() {
		return ErrGenerationInFlight
	}
	defer v.inFlight.Unlock()
	return v.generate(ctx)
}

// Submit replaces both inputs and generates, as one step.
// A rejected Submit leaves the inputs of the running generation alone.
func (v *GenerationView) Submit(ctx context.Context, jobDescription string, files []datamodels.SelectedFile) error {
	if !v.tryStart() {
		return ErrGenerationInFlight
	}
	defer v.inFlight.Unlock()
	v.SetJobDescription(jobDescription)
	v.SelectFiles(files)
	return v.generate(ctx)
}

func (v *GenerationView) tryStart() bool {
	if !v.inFlight.TryLock() {
		metrics.IncGeneration("rejected")
		v.logger.Warn("Generate rejected, a request is already in flight")
		return false
	}
	return true
}

func (v *GenerationView) generate(ctx context.Context) error {
	v.mu.Lock()
	v.message = ""
	v.results = nil
	jobDescription := v.jobDescription
	files := slices.Clone(v.files)
	if jobDescription == "" || len(files) == 0 {
		v.message = MessageIncompleteInput
		v.state = Idle
		v.mu.Unlock()
		metrics.IncGeneration("invalid")
		return ErrIncompleteInput
	}
	v.loading = true
	v.state = Submitting
	v.mu.Unlock()

	logger := v.logger.With("num_files", len(files))
	logger.Info("Generating questions")
	tstart := time.Now()
	results, err := v.generator.GenerateQuestions(ctx, jobDescription, files)
	metrics.ObserveGenerationDuration(time.Since(tstart))

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	v.state = Settled
	if err != nil {
		metrics.IncGeneration("failure")
		logger.Error("Error generating questions", "err", err, "time_taken", time.Since(tstart))
		v.message = MessageFailure
		return err
	}
	metrics.IncGeneration("success")
	metrics.AddArtifacts(len(results))
	v.results = results
	if err := v.store.Save(results); err != nil {
		logger.Error("Failed to persist results", "err", err)
	}
	v.message = MessageSuccess
	logger.Info("Generated questions", "num_results", len(results), "time_taken", time.Since(tstart))
	return nil
}

// Snapshot is a point-in-time copy of the view for rendering.
type Snapshot struct {
	State          State
	JobDescription string
	Files          []datamodels.SelectedFile
	Message        string
	Loading        bool
	Rows           []ResultRow
}

// Snapshot copies the current state and renders the result rows.
func (v *GenerationView) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Snapshot{
		State:          v.state,
		JobDescription: v.jobDescription,
		Files:          slices.Clone(v.files),
		Message:        v.message,
		Loading:        v.loading,
		Rows:           BuildRows(v.results, v.generator),
	}
}

// Results returns a copy of the in-memory results.
func (v *GenerationView) Results() []datamodels.GenerationResult {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.results)
}
