package main

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/QEStudios/boxcodec/codec"
	"github.com/QEStudios/boxcodec/song"
	"gopkg.in/yaml.v3"
)

func init() {
	logger = log.New(io.Discard, "", 0)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestConfigFileAndFlags(t *testing.T) {
	path := writeFile(t, "boxcodec.yaml", "format: yaml\nloops: 3\nintro: false\n")

	cfg, opts, err := parseArgs([]string{"--config", path, "--loops", "2", "song.txt"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != "yaml" || cfg.Intro || !cfg.Outro {
		t.Errorf("expected format, intro and outro from the file, got %+v", cfg)
	}
	if cfg.Loops != 2 {
		t.Errorf("expected the loops flag to win, got %d", cfg.Loops)
	}
	if len(opts.args) != 1 || opts.args[0] != "song.txt" {
		t.Errorf("expected the song argument, got %v", opts.args)
	}
}

func TestMissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.yaml")
	if _, err := loadConfig(missing, false); err != nil {
		t.Fatalf("expected defaults for a missing default config, got %v", err)
	}
	if _, _, err := parseArgs([]string{"--config", missing}); err == nil {
		t.Fatalf("expected an error for a missing explicit config")
	}
}

func TestUnknownFormat(t *testing.T) {
	path := writeFile(t, "boxcodec.yaml", "")
	if _, _, err := parseArgs([]string{"--config", path, "-f", "midi"}); err == nil {
		t.Fatalf("expected an error for an unknown format")
	}
}

func TestReadSongFromLink(t *testing.T) {
	data, err := codec.Encode(song.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, content := range []string{data, "#" + data, "https://example.com/#" + data + "\n"} {
		s, err := readSong(writeFile(t, "song.txt", content))
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", content, err)
		}
		if s.Title != song.New().Title {
			t.Fatalf("expected the default title, got %q", s.Title)
		}
	}
}

func TestRenderFormats(t *testing.T) {
	s := song.New()
	cfg := defaultConfig()

	cfg.Format = "url"
	out, err := render(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(out), "#") {
		t.Errorf("expected a link fragment, got %q", out)
	}

	cfg.Format = "json"
	out, err = render(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if doc["name"] != s.Title {
		t.Errorf("expected name %q, got %v", s.Title, doc["name"])
	}

	cfg.Format = "yaml"
	out, err = render(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc = nil
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("expected valid YAML, got %v", err)
	}
	if channels, _ := doc["channels"].([]any); len(channels) != len(s.Channels) {
		t.Errorf("expected %d channels, got %d", len(s.Channels), len(channels))
	}

	cfg.Format = "summary"
	out, err = render(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != s.String() {
		t.Errorf("expected the song summary, got %q", out)
	}
}

func TestOutputPath(t *testing.T) {
	s := song.New()
	s.Title = "a/b"
	cfg := defaultConfig()
	cfg.Format = "json"
	cfg.OutputDir = "/tmp/out"
	path, err := outputPath(cfg, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != "/tmp/out" || filepath.Ext(path) != ".json" {
		t.Fatalf("expected a .json file in /tmp/out, got %q", path)
	}
}

func TestValidatePath(t *testing.T) {
	if err := validatePath(writeFile(t, "song.json", "{}")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validatePath(writeFile(t, "song.wav", "")); err == nil {
		t.Fatalf("expected an error for a .wav file")
	}
}
