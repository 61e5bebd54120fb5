package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"subtitler/internal/services"
)

func writeCompletion(t *testing.T, w http.ResponseWriter, choice map[string]any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}}); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func noSleep(time.Duration) {}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got request
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got.ResponseFormat["type"] != "json_object" {
			t.Fatalf("health check should request JSON, got %v", got.ResponseFormat)
		}
		writeCompletion(t, w, map[string]any{"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if !errors.Is(err, services.ErrExternalTool) || errors.Is(err, services.ErrTransient) {
		t.Fatalf("401 should be a permanent failure, got %v", err)
	}
}

func TestCompleteTextSendsSamplingParameters(t *testing.T) {
	var got request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test" {
			t.Fatalf("unexpected auth header %q", auth)
		}
		if title := r.Header.Get("X-Title"); title != "subtitler" {
			t.Fatalf("unexpected title header %q", title)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		writeCompletion(t, w, map[string]any{"message": map[string]any{"content": "  Hola  "}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "gpt-demo", Title: "subtitler", Temperature: 0.3, MaxTokens: 1000})
	text, err := client.CompleteText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if text != "Hola" {
		t.Fatalf("expected trimmed content, got %q", text)
	}
	if got.Model != "gpt-demo" || got.Temperature != 0.3 || got.MaxTokens != 1000 {
		t.Fatalf("unexpected request payload %+v", got)
	}
	if got.ResponseFormat != nil {
		t.Fatalf("text completions must not force a response format, got %v", got.ResponseFormat)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "user" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestCompleteTextFallbackFields(t *testing.T) {
	cases := map[string]map[string]any{
		"delta":  {"delta": map[string]any{"content": "Bonjour"}},
		"legacy": {"finish_reason": "stop", "text": "Bonjour"},
	}
	for name, choice := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeCompletion(t, w, choice)
			}))
			defer server.Close()
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
			text, err := client.CompleteText(context.Background(), "system", "user")
			if err != nil {
				t.Fatalf("CompleteText: %v", err)
			}
			if text != "Bonjour" {
				t.Fatalf("unexpected text %q", text)
			}
		})
	}
}

func TestCompleteTextEmptyContentIsRetriedThenTransient(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeCompletion(t, w, map[string]any{"finish_reason": "length", "message": map[string]any{"content": ""}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"}, WithSleeper(noSleep))
	_, err := client.CompleteText(context.Background(), "system", "user")
	if !errors.Is(err, ErrEmptyCompletion) || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient empty completion, got %v", err)
	}
	if calls != defaultRetryAttempts {
		t.Fatalf("expected %d attempts, got %d", defaultRetryAttempts, calls)
	}
	if !strings.Contains(err.Error(), `finish_reason="length"`) {
		t.Fatalf("expected finish reason in error, got %v", err)
	}
}

func TestCompleteTextRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	_, err := client.CompleteText(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeCompletion(t, w, map[string]any{"message": map[string]any{"content": "Hallo"}})
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	text, err := client.CompleteText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if text != "Hallo" || calls != 2 {
		t.Fatalf("unexpected text %q after %d calls", text, calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientGivesUpOnPersistent5xx(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryBackoff(0, 0),
		WithSleeper(noSleep),
		WithRetryMaxAttempts(3),
	)
	_, err := client.CompleteText(context.Background(), "system", "user")
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker for %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected wrapped status error, got %v", err)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithSleeper(noSleep))
	_, err := client.CompleteText(context.Background(), "system", "user")
	if err == nil || calls != 1 {
		t.Fatalf("expected single failed attempt, calls=%d err=%v", calls, err)
	}
	if errors.Is(err, services.ErrTransient) {
		t.Fatal("400 must not be marked transient")
	}
}

func TestDelayDoublesUpToCeiling(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	plain := errors.New("timeout")
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := client.delay(plain, i+1); got != w {
			t.Fatalf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}
	limited := &StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: time.Minute}
	if got := client.delay(limited, 1); got != 5*time.Second {
		t.Fatalf("Retry-After should be capped, got %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("3"); d != 3*time.Second {
		t.Fatalf("unexpected %v", d)
	}
	if d := parseRetryAfter("-1"); d != 0 {
		t.Fatalf("negative value must be ignored, got %v", d)
	}
	if d := parseRetryAfter("soon"); d != 0 {
		t.Fatalf("garbage must be ignored, got %v", d)
	}
}
