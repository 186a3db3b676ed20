package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lucas-stellet/ticketeta"
)

const configFile = ".ticketeta.toml"

// app bundles the engine with the config it was built from so commands can
// reach the concrete indexes.
type app struct {
	engine *ticketeta.Engine
	cfg    ticketeta.EngineConfig
}

func (a *app) Close() error { return a.engine.Close() }

// textIndex returns the Bleve index, or an error when none is configured.
func (a *app) textIndex() (*ticketeta.BleveIndex, error) {
	bi, ok := a.cfg.TextIndex.(*ticketeta.BleveIndex)
	if !ok {
		return nil, errors.New("no text index configured (set [text] path)")
	}
	return bi, nil
}

func loadConfig() (*ticketeta.Config, error) {
	// A missing .env is fine; values may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := configFile
	if env := os.Getenv("TICKETETA_CONFIG"); env != "" {
		path = env
	}

	cfg, err := ticketeta.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// No config file: local text index and file cache only.
	dataDir := os.Getenv("TICKETETA_DATA")
	if dataDir == "" {
		dataDir = "./.ticketeta"
	}
	return &ticketeta.Config{
		Cache: ticketeta.CacheConfig{Backend: "file", Dir: dataDir + "/cache"},
		Text:  ticketeta.TextConfig{Path: dataDir + "/index"},
	}, nil
}

func newApp(verbose bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(verbose)
	engCfg, err := cfg.BuildEngineConfig(context.Background(), logger)
	if err != nil {
		return nil, fmt.Errorf("build config: %w", err)
	}

	eng, err := ticketeta.NewEngine(engCfg)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	return &app{engine: eng, cfg: engCfg}, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("TICKETETA_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// isFlagSet reports whether name was given on the command line, so zero
// values such as location 0 can be told apart from an omitted flag.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
