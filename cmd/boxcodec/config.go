package main

import (
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "~/.boxcodec.yaml"

// config holds the settings that can come from the config file. Flags
// override them when set explicitly.
type config struct {
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
	Intro     bool   `yaml:"intro"`
	Outro     bool   `yaml:"outro"`
	Loops     int    `yaml:"loops"`
	Pretty    bool   `yaml:"pretty"`
}

func defaultConfig() config {
	return config{Format: "summary", Intro: true, Outro: true, Loops: 1, Pretty: true}
}

// loadConfig reads the YAML file at path over the defaults. A missing file
// is only an error if it was asked for explicitly.
func loadConfig(path string, explicit bool) (config, error) {
	cfg := defaultConfig()
	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "expanding %s", path)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing %s", expanded)
	}
	return cfg, nil
}

// options is the parsed command line.
type options struct {
	configPath string
	dump       bool
	args       []string

	format    string
	outputDir string
	intro     bool
	outro     bool
	loops     int
	pretty    bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("boxcodec", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "config file")
	fs.BoolVarP(&opts.dump, "dump", "d", false, "dump the decoded song model to stderr")
	fs.StringVarP(&opts.format, "format", "f", "", "output format: url, json, yaml or summary")
	fs.StringVarP(&opts.outputDir, "output-dir", "o", "", "write the output into this directory instead of stdout")
	fs.BoolVar(&opts.intro, "intro", true, "include the bars before the loop in JSON sequences")
	fs.BoolVar(&opts.outro, "outro", true, "include the bars after the loop in JSON sequences")
	fs.IntVarP(&opts.loops, "loops", "l", 1, "times the loop is repeated in JSON sequences")
	fs.BoolVar(&opts.pretty, "pretty", true, "indent JSON output")
	return fs
}

// parseArgs parses the command line and merges it over the config file.
func parseArgs(args []string) (config, *options, error) {
	opts := &options{}
	fs := newFlagSet(opts)
	if err := fs.Parse(args); err != nil {
		return config{}, nil, err
	}
	opts.args = fs.Args()

	cfg, err := loadConfig(opts.configPath, fs.Changed("config"))
	if err != nil {
		return cfg, nil, err
	}
	if fs.Changed("format") {
		cfg.Format = opts.format
	}
	if fs.Changed("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	if fs.Changed("intro") {
		cfg.Intro = opts.intro
	}
	if fs.Changed("outro") {
		cfg.Outro = opts.outro
	}
	if fs.Changed("loops") {
		cfg.Loops = opts.loops
	}
	if fs.Changed("pretty") {
		cfg.Pretty = opts.pretty
	}
	if _, ok := formats[cfg.Format]; !ok {
		return cfg, nil, errors.Errorf("unknown format %q", cfg.Format)
	}
	return cfg, opts, nil
}
