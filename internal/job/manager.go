package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alharthydev/compresspro/internal/encode"
	"github.com/alharthydev/compresspro/internal/probe"
	"github.com/alharthydev/compresspro/internal/resolver"
	"github.com/alharthydev/compresspro/internal/settings"
	"github.com/alharthydev/compresspro/internal/sysinfo"
	"github.com/alharthydev/compresspro/internal/types"
)

var (
	// ErrJobActive is returned when a job is started while one is running.
	ErrJobActive = errors.New("a compression job is already running")
	// ErrJobNotFound is returned when the job id is unknown.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidRequest is returned for requests that fail validation.
	ErrInvalidRequest = errors.New("invalid compression request")
)

// Prober abstracts input analysis for the worker.
type Prober interface {
	Probe(ctx context.Context, inputPath string) (probe.SourceInfo, error)
}

// Manager is the owned session object for compression jobs. At most one
// job encodes at a time; finished jobs stay addressable for status reads
// until the manager is torn down.
type Manager struct {
	opener   encode.Opener
	prober   Prober
	store    *settings.Store
	logger   *logrus.Logger
	freeDisk func(path string) (uint64, error)

	mu     sync.Mutex
	active *Job
	jobs   map[string]*Job
	wg     sync.WaitGroup
}

// NewManager creates a job manager.
func NewManager(opener encode.Opener, prober Prober, store *settings.Store, logger *logrus.Logger) *Manager {
	return &Manager{
		opener:   opener,
		prober:   prober,
		store:    store,
		logger:   logger,
		freeDisk: sysinfo.FreeDiskSpace,
		jobs:     make(map[string]*Job),
	}
}

// Start validates the request and launches the worker goroutine. It
// rejects a second job while one is active.
func (m *Manager) Start(req types.CompressionRequest) (*Job, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	info, err := os.Stat(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", encode.ErrInputNotFound, req.InputPath)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrJobActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := newJob(uuid.NewString(), req, cancel)
	m.active = j
	m.jobs[j.id] = j

	m.logger.WithFields(logrus.Fields{
		"job_id": j.id,
		"input":  req.InputPath,
		"codec":  req.Codec,
	}).Info("Compression job accepted")

	m.wg.Add(1)
	go m.run(ctx, j, info.Size())

	return j, nil
}

// Cancel requests cooperative cancellation of the job.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()

	if !ok {
		return ErrJobNotFound
	}

	m.logger.WithField("job_id", id).Info("Cancelling compression job")
	j.cancel()
	return nil
}

// Get returns the job with the given id.
func (m *Manager) Get(id string) (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	return j, ok
}

// Shutdown cancels any active job and waits for its worker to release
// resources.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.active != nil {
		m.active.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// run is the worker goroutine. The active slot is released before the
// terminal event is published, so observers of the result can start a
// new job immediately.
func (m *Manager) run(ctx context.Context, j *Job, inputSize int64) {
	defer m.wg.Done()

	result := m.execute(ctx, j, inputSize)

	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()

	j.finish(result)

	switch result.Status {
	case types.JobCompleted:
		m.logger.WithFields(logrus.Fields{
			"job_id":  j.id,
			"encoder": result.Encoder,
			"output":  result.OutputPath,
		}).Info("Compression completed")
		if saveErr := m.store.Save(settings.FromRequest(j.Request())); saveErr != nil {
			m.logger.WithError(saveErr).Warn("Failed to persist last-used settings")
		}
	case types.JobCancelled:
		m.logger.WithField("job_id", j.id).Info("Compression cancelled")
	default:
		m.logger.WithField("job_id", j.id).WithField("diagnostic", result.Diagnostic).Error("Compression failed")
	}
}

// execute performs probe, disk check, resolve, attempt and encode. All
// encoder handles are released on every exit path.
func (m *Manager) execute(ctx context.Context, j *Job, inputSize int64) Result {
	req := j.Request()
	j.setStatus(types.JobRunning)

	src, err := m.prober.Probe(ctx, req.InputPath)
	if err != nil {
		if ctx.Err() != nil {
			return m.cancelledResult(j, req)
		}
		return m.failedResult(j, fmt.Errorf("%w: %v", encode.ErrUnsupportedFormat, err))
	}

	// The compressed output should not exceed the input; a volume without
	// room for that much is going to fill up mid-encode.
	if free, diskErr := m.freeDisk(req.OutputPath); diskErr == nil && free < uint64(inputSize) {
		return m.failedResult(j, fmt.Errorf("%w: %d bytes free, input is %d bytes", encode.ErrInsufficientDiskSpace, free, inputSize))
	}

	candidates := resolver.Resolve(req)
	enc, attempts, err := encode.Attempt(ctx, m.opener, candidates, req)
	j.setAttempts(attempts)
	if err != nil {
		if ctx.Err() != nil {
			return m.cancelledResult(j, req)
		}
		return m.failedResult(j, err)
	}
	defer func() {
		if closeErr := enc.Close(); closeErr != nil {
			m.logger.WithError(closeErr).WithField("job_id", j.id).Warn("Failed to close encoder")
		}
	}()

	total := src.TotalFrames
	err = enc.Run(ctx, func(frame int64, speed float64) {
		update := types.ProgressUpdate{
			Frame:       frame,
			TotalFrames: total,
			Speed:       speed,
		}
		if total > 0 {
			update.Fraction = min(float64(frame)/float64(total), 1)
		}
		j.publishProgress(update)
	})

	if err != nil {
		if ctx.Err() != nil {
			return m.cancelledResult(j, req)
		}
		return m.failedResult(j, fmt.Errorf("encoder %s: %w", enc.Candidate().Encoder, err))
	}

	return Result{
		Status:     types.JobCompleted,
		OutputPath: req.OutputPath,
		Encoder:    enc.Candidate().Encoder,
		Attempts:   j.Snapshot().Attempts,
	}
}

func (m *Manager) failedResult(j *Job, err error) Result {
	return Result{
		Status:     types.JobFailed,
		Attempts:   j.Snapshot().Attempts,
		Diagnostic: err.Error(),
	}
}

// cancelledResult removes any partial output. Cancellation is
// user-initiated, not an error.
func (m *Manager) cancelledResult(j *Job, req types.CompressionRequest) Result {
	if removeErr := os.Remove(req.OutputPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		m.logger.WithError(removeErr).WithField("job_id", j.id).Warn("Failed to remove partial output")
	}

	return Result{
		Status:     types.JobCancelled,
		Attempts:   j.Snapshot().Attempts,
		Diagnostic: "cancelled by user",
	}
}

func validate(req types.CompressionRequest) error {
	if req.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidRequest)
	}
	if req.OutputPath == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidRequest)
	}
	if !req.Codec.Valid() {
		return fmt.Errorf("%w: unknown codec family %q", ErrInvalidRequest, req.Codec)
	}
	if !req.Hardware.Valid() {
		return fmt.Errorf("%w: unknown hardware preference %q", ErrInvalidRequest, req.Hardware)
	}

	switch req.QualityMode {
	case types.QualityCRF:
		if req.CRF < 0 || req.CRF > 51 {
			return fmt.Errorf("%w: CRF %d out of range 0-51", ErrInvalidRequest, req.CRF)
		}
	case types.QualityBitrate:
		if req.Bitrate == "" {
			return fmt.Errorf("%w: bitrate is required in bitrate mode", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown quality mode %q", ErrInvalidRequest, req.QualityMode)
	}

	if req.Threads < 0 {
		return fmt.Errorf("%w: thread count must not be negative", ErrInvalidRequest)
	}
	return nil
}
