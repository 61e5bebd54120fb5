package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusUploading   Status = "uploading"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

var allStatuses = []Status{
	StatusUploading,
	StatusDownloading,
	StatusProcessing,
	StatusCompleted,
	StatusError,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a string into a Status if recognized.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions will happen.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Source says how the video reached the service.
type Source string

const (
	SourceUpload Source = "upload"
	SourceURL    Source = "url"
)

// Progress messages shown while a job runs.
const (
	MessageUploading   = "Processing upload..."
	MessageDownloading = "Downloading video..."
	MessageValidating  = "Validating video..."
	MessageExtracting  = "Extracting audio..."
	MessageSegments    = "Extracting speech segments..."
	MessageTranslating = "Translating text..."
	MessageRendering   = "Generating subtitles..."
	MessageCompleted   = "Video processed successfully!"
	// MessageInterrupted marks jobs that were running when the server stopped.
	MessageInterrupted = "Processing failed: server stopped before the job finished"
)

// Job is the status record of one submitted video.
type Job struct {
	ID           string    `json:"job_id"`
	Status       Status    `json:"status"`
	Progress     int       `json:"progress"`
	Message      string    `json:"message"`
	Source       Source    `json:"source"`
	SourceName   string    `json:"source_name,omitempty"`
	SourceLang   string    `json:"source_lang"`
	TargetLang   string    `json:"target_lang"`
	InputPath    string    `json:"-"`
	FilePath     string    `json:"file_path,omitempty"`
	SubtitlePath string    `json:"subtitle_path,omitempty"`
	TextPath     string    `json:"text_path,omitempty"`
	Strategy     string    `json:"render_strategy,omitempty"`
	Duration     float64   `json:"duration_seconds,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetProgress moves the job to status at percent with message.
func (j *Job) SetProgress(status Status, percent int, message string) {
	j.Status = status
	j.Progress = min(max(percent, 0), 100)
	j.Message = message
}

// Fail marks the job as errored. Any output path is cleared so a failed job
// never exposes a download.
func (j *Job) Fail(message string) {
	j.Status = StatusError
	j.Message = message
	j.FilePath = ""
}

// Downloadable reports whether the job's output can be served.
func (j Job) Downloadable() bool {
	return j.Status == StatusCompleted && strings.TrimSpace(j.FilePath) != ""
}
