package llm

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long string cut", "hello world", 5, "hello"},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestTruncatePreservesRuneBoundaries(t *testing.T) {
	// Rupee signs are multi-byte; cutting must never split one.
	s := strings.Repeat("₹", 10)
	got := truncate(s, 4)

	if got != strings.Repeat("₹", 4) {
		t.Errorf("expected 4 whole runes, got %q", got)
	}
	if !strings.HasPrefix(s, got) {
		t.Error("truncated text must be a prefix of the input")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{APIKey: "test"})

	if c.embeddingModel == "" {
		t.Error("expected a default embedding model")
	}
	if c.chatModel == "" {
		t.Error("expected a default chat model")
	}
}

func TestGenerateRequestShape(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" ANSWER: The DSCR is 1.45 times. "}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test", BaseURL: srv.URL, ChatModel: "test-model"})
	out, err := c.Generate(context.Background(), "system text", "user prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if out != "ANSWER: The DSCR is 1.45 times." {
		t.Errorf("completion not trimmed: %q", out)
	}
	if got.Model != "test-model" {
		t.Errorf("model = %q, want test-model", got.Model)
	}
	if math.Abs(got.Temperature-float64(answerTemperature)) > 1e-6 {
		t.Errorf("temperature = %v, want %v", got.Temperature, answerTemperature)
	}
	if got.MaxTokens != maxAnswerTokens {
		t.Errorf("max_tokens = %d, want %d", got.MaxTokens, maxAnswerTokens)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}
