package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"claimcheck/internal/model"
)

func TestOllamaProvider_Generate(t *testing.T) {
	var gotReq map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Expected /api/chat, got %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "{\"verdict\": \"insufficient\"}"}}`))
	}))
	defer server.Close()

	p := NewOllamaProvider(model.OracleConfig{Model: "llama3", BaseURL: server.URL})

	got, err := p.Generate(context.Background(), "judge this", GenerateOptions{Temperature: 0.0, MaxTokens: 400})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != `{"verdict": "insufficient"}` {
		t.Errorf("Expected response content, got %q", got)
	}

	if gotReq["model"] != "llama3" {
		t.Errorf("Expected model llama3, got %v", gotReq["model"])
	}
	if gotReq["stream"] != false {
		t.Errorf("Expected stream false, got %v", gotReq["stream"])
	}
}

func TestOllamaProvider_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewOllamaProvider(model.OracleConfig{Model: "llama3", BaseURL: server.URL})

	_, err := p.Generate(context.Background(), "judge this", GenerateOptions{})
	if !IsRateLimit(err) {
		t.Errorf("Expected rate-limit error, got %v", err)
	}
}

func TestOllamaProvider_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	p := NewOllamaProvider(model.OracleConfig{Model: "llama3", BaseURL: server.URL})

	_, err := p.Generate(context.Background(), "judge this", GenerateOptions{})
	if err == nil {
		t.Fatal("Expected error on 500")
	}
}

func TestOllamaProvider_Generate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "  "}}`))
	}))
	defer server.Close()

	p := NewOllamaProvider(model.OracleConfig{Model: "llama3", BaseURL: server.URL})

	_, err := p.Generate(context.Background(), "judge this", GenerateOptions{})
	if err != ErrEmpty {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestOllamaProvider_Available(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := NewOllamaProvider(model.OracleConfig{BaseURL: server.URL})
	if !p.Available(context.Background()) {
		t.Error("Expected provider to be available")
	}

	server.Close()
	if p.Available(context.Background()) {
		t.Error("Expected provider unavailable after server close")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(model.OracleConfig{})
	if err != nil {
		t.Fatalf("Expected no error for disabled oracle, got %v", err)
	}
	if p != nil {
		t.Error("Expected nil provider when disabled")
	}

	if _, err := NewProvider(model.OracleConfig{Provider: "psychic"}); err == nil {
		t.Error("Expected error for unknown provider")
	}

	p, err = NewProvider(model.OracleConfig{Provider: "ollama", Model: "llama3"})
	if err != nil {
		t.Fatalf("Expected no error for ollama, got %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Expected ollama, got %s", p.Name())
	}
}
