package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"time"
)

// EnvKey is the environment variable carrying the encoded configuration to
// worker processes.
const EnvKey = "DISKMR_CONFIG"

var ErrInvalid = errors.New("invalid configuration")

// Config describes one job. It is passed explicitly to the engine and copied
// into every worker process it starts.
type Config struct {
	InputDir  string `json:"input_dir"`  // holds file.ext and the split files
	OutputDir string `json:"output_dir"` // holds shards, reducer outputs, the joined result and the ledger
	Mappers   int    `json:"mappers"`
	Reducers  int    `json:"reducers"`
	Cleanup   bool   `json:"cleanup"` // delete splits and shards once consumed

	// WaitTimeout bounds each phase barrier. Zero waits forever.
	WaitTimeout time.Duration `json:"wait_timeout"`

	// LedgerTimeout bounds how long to wait for the ledger file lock.
	LedgerTimeout time.Duration `json:"ledger_timeout"`

	LogLevel string `json:"log_level"`
}

// Default returns the configuration the command line starts from.
func Default() Config {
	return Config{
		InputDir:      "input",
		OutputDir:     "output",
		Mappers:       4,
		Reducers:      4,
		Cleanup:       true,
		LedgerTimeout: 5 * time.Second,
		LogLevel:      "INFO",
	}
}

// Validate reports the first problem found, wrapped in ErrInvalid.
func (c Config) Validate() error {
	switch {
	case c.InputDir == "":
		return fmt.Errorf("%w: input directory cannot be empty", ErrInvalid)
	case c.OutputDir == "":
		return fmt.Errorf("%w: output directory cannot be empty", ErrInvalid)
	case c.Mappers < 1:
		return fmt.Errorf("%w: mappers must be at least 1, got %d", ErrInvalid, c.Mappers)
	case c.Reducers < 1:
		return fmt.Errorf("%w: reducers must be at least 1, got %d", ErrInvalid, c.Reducers)
	case c.WaitTimeout < 0:
		return fmt.Errorf("%w: wait timeout cannot be negative", ErrInvalid)
	case c.LedgerTimeout < 0:
		return fmt.Errorf("%w: ledger timeout cannot be negative", ErrInvalid)
	}
	return nil
}

// Encode serializes the configuration for the worker environment.
func (c Config) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(data), nil
}

// Decode parses a configuration produced by Encode and validates it.
func Decode(s string) (Config, error) {
	var c Config
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// BindFlags registers the configuration fields on fs, using the current
// values as defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.InputDir, "input", c.InputDir, "Directory holding file.ext and its splits")
	fs.StringVar(&c.OutputDir, "output", c.OutputDir, "Directory for intermediate and final outputs")
	fs.IntVar(&c.Mappers, "mappers", c.Mappers, "Number of map tasks (input splits)")
	fs.IntVar(&c.Reducers, "reducers", c.Reducers, "Number of reduce partitions")
	fs.BoolVar(&c.Cleanup, "cleanup", c.Cleanup, "Delete splits and shards once consumed")
	fs.DurationVar(&c.WaitTimeout, "wait-timeout", c.WaitTimeout, "Bound on each phase barrier (0 waits forever)")
	fs.DurationVar(&c.LedgerTimeout, "ledger-timeout", c.LedgerTimeout, "How long to wait for the job ledger lock")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "DEBUG, INFO, WARN or ERROR")
}
