package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subtitler/internal/logging"
	"subtitler/internal/segment"
)

// DefaultOpenAIBaseURL is the OpenAI API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures the OpenAI-compatible transcription backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// ChunkSeconds splits longer audio into windows of this length. Zero sends
	// the whole file in one request.
	ChunkSeconds   int
	TimeoutSeconds int
}

// DurationProbe reports the length of an audio file in seconds.
type DurationProbe func(ctx context.Context, path string) (float64, error)

// RangeExtractor cuts a window of audio into its own file.
type RangeExtractor interface {
	ExtractRange(ctx context.Context, source, dest string, startSec, durationSec float64) error
}

// OpenAI posts audio to an /audio/transcriptions endpoint.
type OpenAI struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	probe      DurationProbe
	extractor  RangeExtractor
	logger     *slog.Logger
}

// OpenAIOption customizes the backend.
type OpenAIOption func(*OpenAI)

// WithOpenAIHTTPClient overrides the default HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithChunking enables chunked uploads for audio longer than ChunkSeconds.
func WithChunking(probe DurationProbe, extractor RangeExtractor) OpenAIOption {
	return func(o *OpenAI) {
		o.probe = probe
		o.extractor = extractor
	}
}

// WithOpenAILogger sets the logger used for per-chunk diagnostics.
func WithOpenAILogger(logger *slog.Logger) OpenAIOption {
	return func(o *OpenAI) {
		o.logger = logging.NewComponentLogger(logger, "transcription")
	}
}

// NewOpenAI constructs the backend.
func NewOpenAI(cfg OpenAIConfig, opts ...OpenAIOption) *OpenAI {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "whisper-1"
	}
	timeout := 5 * time.Minute
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	o := &OpenAI{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name implements Transcriber.
func (o *OpenAI) Name() string { return "openai" }

// Transcribe implements Transcriber. Audio longer than the chunk length is
// split into temporary chunk files next to the source; each chunk file is
// removed as soon as its request finishes, whatever the outcome.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	if o.cfg.APIKey == "" {
		return Result{}, errors.New("openai transcription: api key required")
	}
	chunk := float64(o.cfg.ChunkSeconds)
	if chunk <= 0 || o.probe == nil || o.extractor == nil {
		return o.transcribeFile(ctx, audioPath)
	}
	total, err := o.probe(ctx, audioPath)
	if err != nil || total <= chunk {
		return o.transcribeFile(ctx, audioPath)
	}

	logger := logging.WithContext(ctx, o.logger)
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	var (
		merged  Result
		texts   []string
		lastErr error
	)
	for index, start := 0, 0.0; start < total; index, start = index+1, start+chunk {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		length := min(chunk, total-start)
		chunkPath := fmt.Sprintf("%s_chunk%03d.wav", base, index)
		res, err := o.transcribeChunk(ctx, audioPath, chunkPath, start, length)
		if err != nil {
			lastErr = err
			logging.WarnWithContext(logger, "transcription chunk failed", "transcription_chunk_failed",
				logging.Int("chunk", index),
				logging.Float64("start_seconds", start),
				logging.Error(err),
				logging.String(logging.FieldImpact, "speech in this window is missing from the subtitles"),
			)
			continue
		}
		if text := strings.TrimSpace(res.Transcript); text != "" {
			texts = append(texts, text)
		}
		for _, s := range res.Segments {
			merged.Segments = append(merged.Segments, segment.Speech{Start: s.Start + start, End: s.End + start, Text: s.Text})
		}
		if merged.Language == "" {
			merged.Language = res.Language
		}
	}
	merged.Transcript = strings.Join(texts, " ")
	if merged.Transcript == "" && len(merged.Segments) == 0 && lastErr != nil {
		return Result{}, lastErr
	}
	return merged, nil
}

func (o *OpenAI) transcribeChunk(ctx context.Context, source, chunkPath string, start, length float64) (Result, error) {
	defer os.Remove(chunkPath)
	if err := o.extractor.ExtractRange(ctx, source, chunkPath, start, length); err != nil {
		return Result{}, err
	}
	return o.transcribeFile(ctx, chunkPath)
}

type openAIResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (o *OpenAI) transcribeFile(ctx context.Context, path string) (Result, error) {
	body, contentType, err := multipartBody(path, map[string]string{
		"model":           o.cfg.Model,
		"response_format": "verbose_json",
	})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("openai transcription: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return Result{}, &StatusError{Service: "openai transcription", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	var decoded openAIResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, fmt.Errorf("openai transcription: decode response: %w", err)
	}
	result := Result{Transcript: strings.TrimSpace(decoded.Text), Language: decoded.Language}
	for _, s := range decoded.Segments {
		result.Segments = append(result.Segments, segment.Speech{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	return result, nil
}

func multipartBody(path string, fields map[string]string) (*bytes.Buffer, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
