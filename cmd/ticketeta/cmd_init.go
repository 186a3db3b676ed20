package main

import (
	"flag"
	"fmt"
	"os"
)

// runInit generates a .ticketeta.toml configuration template in the current directory.
func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite existing .ticketeta.toml")
	provider := fs.String("provider", "noop", "embedding provider: noop, openai, ollama, google")
	vector := fs.String("vector", "", "vector store backend: qdrant, pgvector (empty for text only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*force {
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("`%s` already exists (use -force to overwrite)", configFile)
		}
	}

	content, err := buildTemplate(*provider, *vector)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Println("Created " + configFile)
	fmt.Println("Next: edit the file to configure your backends, then run `ticketeta estimate`.")
	return nil
}

// buildTemplate returns the TOML configuration template for the given
// embedding provider and vector backend.
func buildTemplate(provider, vector string) (string, error) {
	header := `# ticketeta configuration
# Secrets may reference environment variables as ${NAME}; a .env file is loaded first.

`

	var embedding string
	switch provider {
	case "google":
		embedding = `[embedding]
# Embedding provider: "noop", "openai", "ollama", "google"
provider = "google"
model = "gemini-embedding-001"
api_key = "${GOOGLE_API_KEY}"
dimensions = 768
`
	case "openai":
		embedding = `[embedding]
# Embedding provider: "noop", "openai", "ollama", "google"
provider = "openai"
model = "text-embedding-3-small"
api_key = "${OPENAI_API_KEY}"
url = "https://api.openai.com/v1"
dimensions = 1536
`
	case "ollama":
		embedding = `[embedding]
# Embedding provider: "noop", "openai", "ollama", "google"
provider = "ollama"
model = "nomic-embed-text"
url = "http://localhost:11434"
dimensions = 768
`
	case "noop":
		embedding = `[embedding]
# Embedding provider: "noop", "openai", "ollama", "google"
provider = "noop"
# model = ""
# api_key = "${OPENAI_API_KEY}"
# dimensions = 0
`
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}

	var stores string
	switch vector {
	case "":
		stores = `
# [vector.active]
# backend = "qdrant"             # "qdrant" or "pgvector"
# url = "http://localhost:6333"
# collection = "active_tickets"
# ensure = true
`
	case "qdrant":
		stores = `
[vector.active]
backend = "qdrant"
url = "http://localhost:6333"
api_key = "${QDRANT_API_KEY}"
collection = "active_tickets"
ensure = true

[vector.historic]
backend = "qdrant"
url = "http://localhost:6333"
api_key = "${QDRANT_API_KEY}"
collection = "resolved_tickets"
`
	case "pgvector":
		stores = `
[vector.active]
backend = "pgvector"
url = "${DATABASE_URL}"
collection = "active_tickets"
ensure = true

[vector.historic]
backend = "pgvector"
url = "${DATABASE_URL}"
collection = "resolved_tickets"
`
	default:
		return "", fmt.Errorf("unknown vector backend %q", vector)
	}

	rest := `
[text]
path = "./.ticketeta/index"

[compose]
# Notification composer: "template", "anthropic", "openai"
provider = "template"
# api_key = "${ANTHROPIC_API_KEY}"
# summarize = false

[cache]
# Result cache: "none", "file", "redis"
backend = "file"
dir = "./.ticketeta/cache"
# url = "redis://localhost:6379/0"
ttl = "1h"

[engine]
search_limit = 15
# What to answer when no tier qualifies: "default" (24 hours) or "invalid"
no_match = "default"
`

	return header + embedding + stores + rest, nil
}
