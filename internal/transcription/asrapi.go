package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"subtitler/internal/services"
)

// DefaultASRBaseURL is the AssemblyAI v2 API root.
const DefaultASRBaseURL = "https://api.assemblyai.com/v2"

// ASRConfig configures the polling ASR backend.
type ASRConfig struct {
	APIKey  string
	BaseURL string
	// Timeout bounds the total wait for a transcript, measured between polls.
	Timeout      time.Duration
	PollInterval time.Duration
}

// ASR uploads audio to a job-based transcription API and polls for the result.
type ASR struct {
	cfg        ASRConfig
	httpClient *http.Client
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
}

// ASROption customizes the backend.
type ASROption func(*ASR)

// WithASRHTTPClient overrides the default HTTP client.
func WithASRHTTPClient(client *http.Client) ASROption {
	return func(a *ASR) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// WithASRClock overrides the time source and the sleep between polls (for tests).
func WithASRClock(now func() time.Time, sleep func(context.Context, time.Duration) error) ASROption {
	return func(a *ASR) {
		if now != nil {
			a.now = now
		}
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

// NewASR constructs the backend.
func NewASR(cfg ASRConfig, opts ...ASROption) *ASR {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultASRBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 600 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	a := &ASR{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Name implements Transcriber.
func (a *ASR) Name() string { return "asrapi" }

type asrTranscript struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Text         string `json:"text"`
	Error        string `json:"error"`
	LanguageCode string `json:"language_code"`
}

// Transcribe implements Transcriber. The ASR service returns untimed text,
// which the adapter aligns. The timeout is checked by elapsed time before
// each poll; a request already in flight is not interrupted.
func (a *ASR) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	if a.cfg.APIKey == "" {
		return Result{}, errors.New("asr transcription: api key required")
	}
	start := a.now()

	uploadURL, err := a.upload(ctx, audioPath)
	if err != nil {
		return Result{}, err
	}
	var created asrTranscript
	if err := a.doJSON(ctx, http.MethodPost, "/transcript", map[string]any{
		"audio_url":          uploadURL,
		"language_detection": true,
	}, &created); err != nil {
		return Result{}, err
	}
	if created.ID == "" {
		return Result{}, errors.New("asr transcription: no transcript id returned")
	}

	for {
		if elapsed := a.now().Sub(start); elapsed > a.cfg.Timeout {
			return Result{}, services.Wrap(services.ErrTimeout, "transcribe", "asr poll",
				fmt.Sprintf("no result after %s", elapsed.Round(time.Second)), nil)
		}
		var current asrTranscript
		if err := a.doJSON(ctx, http.MethodGet, "/transcript/"+created.ID, nil, &current); err != nil {
			return Result{}, err
		}
		switch strings.ToLower(current.Status) {
		case "completed":
			text := strings.TrimSpace(current.Text)
			if text == "" {
				return Result{}, ErrNoSpeech
			}
			return Result{Transcript: text, Language: current.LanguageCode}, nil
		case "error":
			return Result{}, fmt.Errorf("asr transcription failed: %s", strings.TrimSpace(current.Error))
		}
		if err := a.sleep(ctx, a.cfg.PollInterval); err != nil {
			return Result{}, err
		}
	}
}

func (a *ASR) upload(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("asr upload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("asr upload: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := a.send(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", errors.New("asr upload: no upload_url returned")
	}
	return out.UploadURL, nil
}

func (a *ASR) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("asr request: encode body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("asr request: new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, out)
}

func (a *ASR) send(req *http.Request, out any) error {
	req.Header.Set("Authorization", a.cfg.APIKey)
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("asr request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("asr request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Service: "asr " + req.URL.Path, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("asr request: decode response: %w", err)
	}
	return nil
}
