// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/vitae/internal/adapters/llm/gemini"
	submissionqueue "github.com/okian/vitae/internal/adapters/mq/queue"
	workerpool "github.com/okian/vitae/internal/adapters/mq/worker"
	repository "github.com/okian/vitae/internal/adapters/repository"
	"github.com/okian/vitae/internal/domain/analytics"
	"github.com/okian/vitae/internal/domain/jobs"
	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/internal/domain/report"
	"github.com/okian/vitae/internal/domain/scoring"
	"github.com/okian/vitae/pkg/logger"
)

// Service implements the API dependencies for the CV analysis system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	generator    scoring.TextGenerator
	orchestrator *scoring.Orchestrator
	registry     *jobs.Registry
	queue        submissionqueue.Queue
	workerPool   *workerpool.Pool

	// Configuration
	dataDir            string
	queueSize          int
	workerCount        int
	registrySize       int
	humanReviewMinutes float64
	minSpecLevel       model.Level

	providerAPIKey        string
	providerBaseURL       string
	providerFastModel     string
	providerAccurateModel string
	callTimeout           time.Duration
	maxAttempts           int
	retryBaseDelay        time.Duration
	maxInFlight           int
	globalMaxInFlight     int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDataDir sets the directory holding the durable analysis document.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithQueueSize bounds the batch submission queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithWorkerCount sets the number of batch submission workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithRegistrySize bounds the in-memory job registry.
func WithRegistrySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.registrySize = n
		}
	}
}

// WithHumanReviewMinutes sets the assumed manual review time per CV
// used in time-saved estimates.
func WithHumanReviewMinutes(minutes float64) Option {
	return func(s *Service) {
		if minutes >= 0 {
			s.humanReviewMinutes = minutes
		}
	}
}

// WithMinSpecializationLevel drops specializations below level.
func WithMinSpecializationLevel(level model.Level) Option {
	return func(s *Service) {
		s.minSpecLevel = level
	}
}

// WithProvider configures the model provider connection.
func WithProvider(apiKey, baseURL, fastModel, accurateModel string) Option {
	return func(s *Service) {
		s.providerAPIKey = apiKey
		s.providerBaseURL = baseURL
		if fastModel != "" {
			s.providerFastModel = fastModel
		}
		if accurateModel != "" {
			s.providerAccurateModel = accurateModel
		}
	}
}

// WithGenerator injects a prebuilt text generator, replacing the
// Gemini client constructed on Start. Used by tests and alternate
// backends.
func WithGenerator(gen scoring.TextGenerator) Option {
	return func(s *Service) {
		s.generator = gen
	}
}

// WithCallTimeout bounds each provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithRetry sets the per-call retry budget and backoff base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			s.retryBaseDelay = baseDelay
		}
	}
}

// WithInFlightLimits bounds concurrent provider calls per submission
// and globally.
func WithInFlightLimits(perSubmission, global int) Option {
	return func(s *Service) {
		if perSubmission > 0 {
			s.maxInFlight = perSubmission
		}
		if global > 0 {
			s.globalMaxInFlight = global
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:               "data",
		queueSize:             256,
		workerCount:           runtime.NumCPU(),
		registrySize:          10_000,
		humanReviewMinutes:    20,
		minSpecLevel:          model.LevelIntermediate,
		providerFastModel:     "gemini-2.0-flash",
		providerAccurateModel: "gemini-2.5-pro",
		callTimeout:           60 * time.Second,
		maxAttempts:           3,
		retryBaseDelay:        500 * time.Millisecond,
		maxInFlight:           3,
		globalMaxInFlight:     12,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting analysis service...")

	store, err := repository.Open(ctx, s.dataDir)
	if err != nil {
		return fmt.Errorf("open analysis store: %w", err)
	}
	s.store = store

	if s.generator == nil {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:        s.providerAPIKey,
			BaseURL:       s.providerBaseURL,
			FastModel:     s.providerFastModel,
			AccurateModel: s.providerAccurateModel,
		})
		if err != nil {
			return fmt.Errorf("create model provider: %w", err)
		}
		s.generator = client
	}

	s.orchestrator = scoring.New(s.generator, s.store,
		scoring.WithPolicy(scoring.Policy{
			MaxAttempts: s.maxAttempts,
			BaseDelay:   s.retryBaseDelay,
			Retryable:   gemini.IsTransient,
		}),
		scoring.WithCallTimeout(s.callTimeout),
		scoring.WithMaxInFlight(s.maxInFlight),
		scoring.WithGlobalLimit(s.globalMaxInFlight),
		scoring.WithMinSpecializationLevel(s.minSpecLevel),
	)

	s.registry = jobs.NewRegistry(jobs.WithMaxSize(s.registrySize))
	s.queue = submissionqueue.NewInMemoryQueue(
		submissionqueue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.orchestrator, s.registry)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("dataDir", s.dataDir),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping analysis service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

// Submit runs one CV analysis synchronously and returns the stored record.
func (s *Service) Submit(ctx context.Context, cvText, filename string) (*model.AnalysisRecord, error) {
	return s.orchestrator.Submit(ctx, cvText, filename)
}

// EnqueueSubmission registers a job for asynchronous processing.
// Returns the job and false when the queue reports backpressure, in
// which case the job is already marked failed.
func (s *Service) EnqueueSubmission(ctx context.Context, cvText, filename string) (jobs.Job, bool) {
	job := s.registry.Create(filename)
	ok := s.queue.Enqueue(ctx, submissionqueue.Submission{
		JobID:    job.ID,
		Filename: filename,
		CVText:   cvText,
	})
	if !ok {
		s.registry.MarkFailed(job.ID, "submission queue is full")
		job, _ = s.registry.Get(job.ID)
		return job, false
	}
	return job, true
}

// Job returns the tracked job with the given id.
func (s *Service) Job(_ context.Context, id string) (jobs.Job, bool) {
	return s.registry.Get(id)
}

// Get returns the stored record with the given id.
func (s *Service) Get(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	return s.store.Get(ctx, id)
}

// List returns records ordered newest-first, skipping offset records
// and truncating to limit.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*model.AnalysisRecord, error) {
	return s.store.List(ctx, limit, offset)
}

// Delete removes the record with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Metrics derives the dashboard view from the current store snapshot.
func (s *Service) Metrics(ctx context.Context) (analytics.Metrics, error) {
	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return analytics.Metrics{}, err
	}
	return analytics.Compute(records, s.humanReviewMinutes), nil
}

// BestCandidates derives the per-area top record from the current
// store snapshot.
func (s *Service) BestCandidates(ctx context.Context) (map[model.Area]*model.AnalysisRecord, error) {
	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.ComputeBest(records), nil
}

// Report renders a filtered multi-candidate export.
func (s *Service) Report(ctx context.Context, f report.Filters, format report.Format) ([]byte, error) {
	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return report.Generate(records, f, format)
}

// ReportOne renders a single-candidate export for one record id.
func (s *Service) ReportOne(ctx context.Context, id string, format report.Format) ([]byte, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return report.GenerateOne(rec, format)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["storedAnalyses"] = s.store.Count(ctx)
		stats["trackedJobs"] = s.registry.Size()
	}
	return stats
}
