package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucas-stellet/ticketeta"
)

func TestBuildTemplateParses(t *testing.T) {
	for _, provider := range []string{"noop", "openai", "ollama", "google"} {
		for _, vector := range []string{"", "qdrant", "pgvector"} {
			content, err := buildTemplate(provider, vector)
			if err != nil {
				t.Fatalf("buildTemplate(%q, %q): %v", provider, vector, err)
			}

			path := filepath.Join(t.TempDir(), configFile)
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatal(err)
			}
			cfg, err := ticketeta.LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig(%q, %q): %v", provider, vector, err)
			}
			if cfg.Embedding.Provider != provider {
				t.Errorf("Provider = %q, want %q", cfg.Embedding.Provider, provider)
			}
			if cfg.Vector.Active.Backend != vector {
				t.Errorf("Active.Backend = %q, want %q", cfg.Vector.Active.Backend, vector)
			}
			if cfg.Engine.NoMatch != "default" {
				t.Errorf("NoMatch = %q, want %q", cfg.Engine.NoMatch, "default")
			}
		}
	}
}

func TestBuildTemplateUnknown(t *testing.T) {
	if _, err := buildTemplate("cohere", ""); err == nil || !strings.Contains(err.Error(), "cohere") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
	if _, err := buildTemplate("noop", "milvus"); err == nil {
		t.Error("expected unknown vector backend error")
	}
}
