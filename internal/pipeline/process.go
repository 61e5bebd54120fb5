package pipeline

import (
	"context"
	"path/filepath"

	"subtitler/internal/jobs"
	"subtitler/internal/logging"
	"subtitler/internal/media/audio"
	"subtitler/internal/media/ffprobe"
	"subtitler/internal/services"
	"subtitler/internal/subtitles"
	"subtitler/internal/transcription"
)

func (m *Manager) process(ctx context.Context, id, rawURL string) error {
	logger := logging.WithContext(ctx, m.logger)
	job, ok := m.table.Get(id)
	if !ok {
		return services.Wrap(services.ErrNotFound, "pipeline", "load job", id, nil)
	}

	inputPath := job.InputPath
	if rawURL != "" {
		stageCtx := services.WithStage(ctx, "download")
		path, err := m.fetcher.Fetch(stageCtx, rawURL, m.cfg.UploadDir(), id)
		if err != nil {
			return err
		}
		inputPath = path
		m.update(id, func(j *jobs.Job) {
			j.InputPath = path
			j.SourceName = filepath.Base(path)
			j.SetProgress(jobs.StatusProcessing, 10, jobs.MessageValidating)
		})
	}

	duration, err := ffprobe.Duration(services.WithStage(ctx, "probe"), m.run, m.cfg.FFprobeBinary(), inputPath)
	if err != nil {
		return services.Wrap(services.ErrFatal, "probe", "duration", "", err)
	}
	m.update(id, func(j *jobs.Job) { j.Duration = duration })
	if err := m.checkDuration(duration); err != nil {
		return err
	}
	logger.Info("job accepted",
		logging.String(logging.FieldEventType, "job_accepted"),
		logging.String("source", string(job.Source)),
		logging.Float64("duration_seconds", duration),
		logging.String("source_lang", job.SourceLang),
		logging.String("target_lang", job.TargetLang),
	)

	m.update(id, func(j *jobs.Job) { j.SetProgress(jobs.StatusProcessing, 30, jobs.MessageExtracting) })
	audioPath := audio.Path(m.cfg.AudioDir(), id)
	stageCtx := services.WithStage(ctx, "extract")
	if err := m.extractor.Extract(stageCtx, inputPath, audioPath); err != nil {
		return services.Wrap(services.ErrFatal, "extract", "audio", "", err)
	}
	audioDuration, err := ffprobe.Duration(stageCtx, m.run, m.cfg.FFprobeBinary(), audioPath)
	if err != nil {
		logger.Debug("audio duration unavailable; using container duration", logging.Error(err))
		audioDuration = duration
	}

	m.update(id, func(j *jobs.Job) { j.SetProgress(jobs.StatusProcessing, 50, jobs.MessageSegments) })
	speech, outcome := m.adapter.Segments(services.WithStage(ctx, "transcribe"), audioPath, audioDuration)
	if outcome == transcription.OutcomePlaceholder {
		logger.Info("transcription replaced by placeholder",
			logging.String(logging.FieldEventType, "transcription_placeholder"),
			logging.String("backend", m.adapter.Backend()),
		)
	}

	m.update(id, func(j *jobs.Job) { j.SetProgress(jobs.StatusProcessing, 70, jobs.MessageTranslating) })
	translated, err := m.translate.Translate(services.WithStage(ctx, "translate"), speech, job.SourceLang, job.TargetLang)
	if err != nil {
		return err
	}

	m.update(id, func(j *jobs.Job) { j.SetProgress(jobs.StatusProcessing, 85, jobs.MessageRendering) })
	result, err := m.renderer.Render(services.WithStage(ctx, "render"), subtitles.Request{
		JobID:       id,
		VideoPath:   inputPath,
		Segments:    translated,
		SubtitleDir: m.cfg.SubtitleDir(),
		OutputDir:   m.cfg.ProcessedDir(),
	})
	if err != nil {
		m.update(id, func(j *jobs.Job) {
			j.SubtitlePath = result.SubtitlePath
			j.TextPath = result.TextPath
		})
		return err
	}

	m.update(id, func(j *jobs.Job) {
		j.FilePath = result.OutputPath
		j.SubtitlePath = result.SubtitlePath
		j.TextPath = result.TextPath
		j.Strategy = string(result.Strategy)
		j.SetProgress(jobs.StatusCompleted, 100, jobs.MessageCompleted)
	})
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.String("output", result.OutputPath),
		logging.String("strategy", string(result.Strategy)),
		logging.Int("segments", len(translated)),
		logging.String("transcription", string(outcome)),
	)
	return nil
}

func (m *Manager) checkDuration(seconds float64) error {
	limit := m.cfg.Limits.MaxDurationSeconds
	if limit <= 0 || seconds <= float64(limit) {
		return nil
	}
	if limit%60 == 0 {
		return services.Invalid("Video exceeds %d minute limit", limit/60)
	}
	return services.Invalid("Video exceeds %d second limit", limit)
}

func (m *Manager) update(id string, fn func(*jobs.Job)) {
	if _, err := m.table.Update(id, fn); err != nil {
		m.logger.Warn("job update failed", logging.String("job_id", id), logging.Error(err))
	}
}
