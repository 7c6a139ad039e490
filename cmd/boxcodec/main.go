package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/QEStudios/boxcodec/codec"
	"github.com/QEStudios/boxcodec/codec/jsonsong"
	"github.com/QEStudios/boxcodec/samples"
	"github.com/QEStudios/boxcodec/song"
	"github.com/davecgh/go-spew/spew"
	"github.com/kennygrant/sanitize"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
	"gopkg.in/yaml.v3"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	cfg, opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		logger.Fatalf("invalid arguments: %v", err)
	}

	// Get the path of the song file.
	path, err := choosePath(cwd, opts.args)
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	s, err := readSong(path)
	if err != nil {
		logger.Fatalf("decode error: %v", err)
	}
	if opts.dump {
		spew.Fdump(os.Stderr, s)
	}

	out, err := render(s, cfg)
	if err != nil {
		logger.Fatalf("encode error: %v", err)
	}

	if cfg.OutputDir == "" {
		os.Stdout.Write(out)
		return
	}
	outPath, err := outputPath(cfg, s)
	if err != nil {
		logger.Fatalf("invalid output directory: %v", err)
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		logger.Fatalf("Error writing output file: %v", err)
	}
	logger.Printf("Wrote %s", outPath)
}

// readSong decodes a file holding a song link, a bare compact string or a
// JSON document.
func readSong(path string) (*song.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	// Links carry the song in the fragment.
	if !strings.HasPrefix(text, "{") {
		if _, fragment, ok := strings.Cut(text, "#"); ok {
			text = fragment
		}
	}

	d := codec.NewDecoder(logger, samples.Default())
	s, err := d.Decode(text)
	if err != nil {
		return nil, err
	}
	if n := len(d.Warnings()); n > 0 {
		logger.Printf("Decoded with %d warnings", n)
	}
	return s, nil
}

// formats maps each output format to its file extension.
var formats = map[string]string{
	"url":     ".txt",
	"json":    ".json",
	"yaml":    ".yaml",
	"summary": ".txt",
}

func render(s *song.Song, cfg config) ([]byte, error) {
	switch cfg.Format {
	case "url":
		data, err := codec.Encode(s)
		if err != nil {
			return nil, err
		}
		return []byte("#" + data + "\n"), nil
	case "summary":
		return []byte(s.String()), nil
	}

	doc, err := jsonsong.Encode(s, jsonsong.Options{
		EnableIntro: cfg.Intro,
		LoopCount:   cfg.Loops,
		EnableOutro: cfg.Outro,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Format == "yaml" {
		return yaml.Marshal(doc)
	}
	if !cfg.Pretty {
		return json.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "\t")
}

// outputPath names the output file after the song title.
func outputPath(cfg config, s *song.Song) (string, error) {
	dir, err := homedir.Expand(cfg.OutputDir)
	if err != nil {
		return "", err
	}
	name := sanitize.BaseName(s.Title)
	if name == "" {
		name = "song"
	}
	return filepath.Join(dir, name+formats[cfg.Format]), nil
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		path := args[0]
		if expanded, err := homedir.Expand(path); err == nil {
			path = expanded
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open song").
		Filter("Song links and documents (*.txt, *.json)", "txt", "json").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Caller checks for dialog.ErrCancelled.
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}

	if absPath == "" {
		return "", dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath checks that p is an existing song file.
func validatePath(p string) error {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".txt", ".json":
	default:
		return fmt.Errorf("file must have .txt or .json extension")
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}
