package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGoogleSuccess(t *testing.T) {
	want := []float64{0.123, -0.456, 0.789}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":embedContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want %q", r.URL.Query().Get("key"), "test-key")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": want},
		})
	}))
	defer srv.Close()

	fn := Google(GoogleConfig{URL: srv.URL, APIKey: "test-key"})

	got, err := fn(context.Background(), "printer shows paper jam error")
	if err != nil {
		t.Fatalf("Google() returned error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("embedding length = %d, want %d", len(got), len(want))
	}
	for i, v := range want {
		if got[i] != float32(v) {
			t.Errorf("embedding[%d] = %v, want %v", i, got[i], float32(v))
		}
	}
}

func TestGoogleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "API key not valid"}}`))
	}))
	defer srv.Close()

	_, err := Google(GoogleConfig{URL: srv.URL, APIKey: "bad-key"})(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("error %v does not wrap ErrEmbedding", err)
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("error message = %q, want to contain %q", err.Error(), "status 401")
	}
}

func TestGoogleEmptyValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-embedding-001") {
			t.Errorf("expected default model in path, got: %s", r.URL.Path)
		}
		w.Write([]byte(`{"embedding": {"values": []}}`))
	}))
	defer srv.Close()

	_, err := Google(GoogleConfig{URL: srv.URL})(context.Background(), "test")
	if !errors.Is(err, ErrEmbedding) {
		t.Fatalf("err = %v, want ErrEmbedding", err)
	}
}
