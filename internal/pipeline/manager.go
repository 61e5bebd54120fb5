package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"subtitler/internal/config"
	"subtitler/internal/download"
	"subtitler/internal/jobs"
	"subtitler/internal/language"
	"subtitler/internal/logging"
	"subtitler/internal/media/audio"
	"subtitler/internal/segment"
	"subtitler/internal/services"
	"subtitler/internal/subtitles"
	"subtitler/internal/transcription"
	"subtitler/internal/translation"
)

// ErrStopped is returned by Submit calls after Stop.
var ErrStopped = errors.New("pipeline stopped")

// Option configures a Manager.
type Option func(*Manager)

// WithCommandRunner routes every external tool invocation through run.
func WithCommandRunner(run services.CommandRunner) Option {
	return func(m *Manager) { m.run = run }
}

// WithTranscriber overrides the configured transcription backend.
func WithTranscriber(t transcription.Transcriber) Option {
	return func(m *Manager) { m.transcriber = t }
}

// WithTranslationBackend overrides the configured translation backend.
func WithTranslationBackend(b translation.Backend) Option {
	return func(m *Manager) { m.translator = b }
}

// WithFetcher overrides the URL downloader.
func WithFetcher(f download.Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithIDGenerator overrides job id generation (for tests).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// Manager dispatches jobs onto background workers.
type Manager struct {
	cfg   *config.Config
	table *jobs.Table

	run         services.CommandRunner
	transcriber transcription.Transcriber
	translator  translation.Backend
	fetcher     download.Fetcher
	logger      *slog.Logger
	newID       func() string

	adapter   *transcription.Adapter
	translate *translation.Service
	renderer  *subtitles.Renderer
	extractor *audio.Extractor

	sem     chan struct{}
	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
	done    map[string]chan struct{}
}

// New wires the stage services from cfg. Options override individual
// backends; anything left unset is built from configuration.
func New(cfg *config.Config, table *jobs.Table, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	if table == nil {
		return nil, errors.New("pipeline: job table required")
	}
	m := &Manager{
		cfg:   cfg,
		table: table,
		newID: uuid.NewString,
		done:  make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "pipeline")

	run := m.run
	if run == nil {
		run = services.RunCommand
	}
	if m.transcriber == nil {
		t, err := transcription.New(cfg, m.run, m.logger)
		if err != nil {
			return nil, err
		}
		m.transcriber = t
	}
	if m.translator == nil {
		b, err := translation.NewBackend(cfg)
		if err != nil {
			return nil, err
		}
		m.translator = b
	}
	if m.fetcher == nil {
		m.fetcher = download.New(cfg.YtDlpBinary(), download.WithCommandRunner(run))
	}
	m.run = run

	m.adapter = transcription.NewAdapter(m.transcriber, weightsFromConfig(cfg.Segmenter), m.logger)
	m.translate = translation.NewService(m.translator, m.logger)
	m.extractor = audio.NewExtractor(cfg.FFmpegBinary(), run)
	m.renderer = subtitles.NewRenderer(m.logger,
		subtitles.WithCommandRunner(run),
		subtitles.WithFFmpegBinary(cfg.FFmpegBinary()),
		subtitles.WithStyle(subtitles.Style{
			FontSize:     cfg.Render.FontSize,
			FontColor:    cfg.Render.FontColor,
			BoxColor:     cfg.Render.BoxColor,
			BoxBorder:    cfg.Render.BoxBorder,
			MarginBottom: cfg.Render.MarginBottom,
		}),
	)

	workers := cfg.Limits.MaxConcurrentJobs
	if workers <= 0 {
		workers = 1
	}
	m.sem = make(chan struct{}, workers)
	m.baseCtx, m.cancel = context.WithCancel(context.Background())
	return m, nil
}

func weightsFromConfig(s config.Segmenter) segment.Weights {
	return segment.Weights{
		WordFactor:       s.WordFactor,
		CommaBonus:       s.CommaBonus,
		TerminalBonus:    s.TerminalBonus,
		ColonBonus:       s.ColonBonus,
		PauseRatio:       s.PauseRatio,
		PausePerSentence: s.PausePerSentence,
		MinDuration:      s.MinDuration,
		ChunkWords:       s.ChunkWords,
	}
}

// Table returns the job table the manager writes to.
func (m *Manager) Table() *jobs.Table { return m.table }

// TranscriptionBackend names the active speech-to-text backend.
func (m *Manager) TranscriptionBackend() string { return m.adapter.Backend() }

// Reserve registers a new job in the uploading state. The caller finishes the
// hand-off with StartFile or StartURL, or Abort if the upload never lands.
func (m *Manager) Reserve(source jobs.Source, name, sourceLang, targetLang string) (jobs.Job, error) {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return jobs.Job{}, ErrStopped
	}
	if strings.TrimSpace(sourceLang) == "" {
		sourceLang = language.Auto
	}
	if strings.TrimSpace(targetLang) == "" {
		targetLang = "en"
	}
	job := jobs.Job{
		ID:         m.newID(),
		Status:     jobs.StatusUploading,
		Progress:   0,
		Message:    jobs.MessageUploading,
		Source:     source,
		SourceName: name,
		SourceLang: language.Normalize(sourceLang),
		TargetLang: language.Normalize(targetLang),
	}
	return m.table.Create(job)
}

// StartFile dispatches processing of an uploaded file already on disk.
func (m *Manager) StartFile(id, path string) error {
	if _, err := m.table.Update(id, func(j *jobs.Job) {
		j.InputPath = path
		j.SetProgress(jobs.StatusProcessing, 10, jobs.MessageValidating)
	}); err != nil {
		return err
	}
	return m.dispatch(id, "")
}

// StartURL dispatches download and processing of rawURL.
func (m *Manager) StartURL(id, rawURL string) error {
	if _, err := m.table.Update(id, func(j *jobs.Job) {
		j.SourceName = rawURL
		j.SetProgress(jobs.StatusDownloading, 10, jobs.MessageDownloading)
	}); err != nil {
		return err
	}
	return m.dispatch(id, rawURL)
}

// Abort marks a reserved job as failed before any worker started.
func (m *Manager) Abort(id string, cause error) {
	_, _ = m.table.Update(id, func(j *jobs.Job) { j.Fail(services.UserMessage(cause)) })
}

// SubmitFile reserves and starts a job for a local file.
func (m *Manager) SubmitFile(path, sourceLang, targetLang string) (jobs.Job, error) {
	if strings.TrimSpace(path) == "" {
		return jobs.Job{}, services.Invalid("No video file uploaded")
	}
	if !m.cfg.IsAllowedExtension(path) {
		return jobs.Job{}, services.Invalid("Invalid file type. Please upload a video file.")
	}
	job, err := m.Reserve(jobs.SourceUpload, path, sourceLang, targetLang)
	if err != nil {
		return jobs.Job{}, err
	}
	if err := m.StartFile(job.ID, path); err != nil {
		return jobs.Job{}, err
	}
	current, _ := m.table.Get(job.ID)
	return current, nil
}

// SubmitURL validates rawURL, then reserves and starts a download job.
func (m *Manager) SubmitURL(rawURL, sourceLang, targetLang string) (jobs.Job, error) {
	if strings.TrimSpace(rawURL) == "" {
		return jobs.Job{}, services.Invalid("No video URL provided")
	}
	if err := download.ValidateURL(rawURL); err != nil {
		return jobs.Job{}, err
	}
	job, err := m.Reserve(jobs.SourceURL, rawURL, sourceLang, targetLang)
	if err != nil {
		return jobs.Job{}, err
	}
	if err := m.StartURL(job.ID, strings.TrimSpace(rawURL)); err != nil {
		return jobs.Job{}, err
	}
	current, _ := m.table.Get(job.ID)
	return current, nil
}

func (m *Manager) dispatch(id, rawURL string) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		m.Abort(id, ErrStopped)
		return ErrStopped
	}
	done := make(chan struct{})
	m.done[id] = done
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.done, id)
			m.mu.Unlock()
			close(done)
		}()
		m.work(id, rawURL)
	}()
	return nil
}

func (m *Manager) work(id, rawURL string) {
	ctx := services.WithJobID(m.baseCtx, id)
	logger := logging.WithContext(ctx, m.logger)

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		m.fail(ctx, id, services.Wrap(services.ErrFatal, "dispatch", "acquire worker", "server shutting down", ctx.Err()))
		return
	}
	defer func() { <-m.sem }()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panic",
				logging.String(logging.FieldEventType, "worker_panic"),
				logging.String("panic", fmt.Sprint(r)),
			)
			m.fail(ctx, id, fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := m.process(ctx, id, rawURL); err != nil {
		m.fail(ctx, id, err)
	}
}

func (m *Manager) fail(ctx context.Context, id string, err error) {
	message := services.UserMessage(err)
	logger := logging.WithContext(ctx, m.logger)
	if errors.Is(err, services.ErrValidation) {
		logger.Info("job rejected",
			logging.String(logging.FieldEventType, "job_rejected"),
			logging.String("reason", message),
		)
	} else {
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the job log for the failing stage"),
		)
	}
	_, _ = m.table.Update(id, func(j *jobs.Job) { j.Fail(message) })
}

// Done returns a channel closed once the job's worker exits. ok is false for
// jobs that are not running, either never dispatched or already finished.
func (m *Manager) Done(id string) (<-chan struct{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.done[id]
	return ch, ok
}

// WaitJob blocks until the job's worker exits or ctx ends, then returns the
// job's final record.
func (m *Manager) WaitJob(ctx context.Context, id string) (jobs.Job, error) {
	ch, ok := m.Done(id)
	if !ok {
		job, found := m.table.Get(id)
		if !found {
			return jobs.Job{}, jobs.ErrNotFound
		}
		return job, nil
	}
	select {
	case <-ch:
	case <-ctx.Done():
		return jobs.Job{}, ctx.Err()
	}
	job, _ := m.table.Get(id)
	return job, nil
}

// Wait blocks until every dispatched worker has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Stop rejects new submissions and waits for in-flight jobs. When ctx ends
// first, running jobs are cancelled and Stop waits for them to unwind.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		<-finished
		return ctx.Err()
	}
}
