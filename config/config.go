// Package config loads the settings of the segcat tool from YAML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aryszka/segbuf"
	"github.com/aryszka/segbuf/internal/stream"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"
)

// DefaultChunkSize is the size of the buffers read from the input when no chunk size is configured.
const DefaultChunkSize = stream.DefaultChunkSize

// ErrInvalid is wrapped by the errors returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// WindowConfig contains the window options.
type WindowConfig struct {
	Name        string   `yaml:"name"`
	Capacity    int      `yaml:"capacity"`
	Charset     string   `yaml:"charset"`
	DateLayouts []string `yaml:"date_layouts"`
	Events      string   `yaml:"events"`
}

// InputConfig tells how the input is split and decoded.
type InputConfig struct {
	Layout    string `yaml:"layout"`
	ChunkSize int    `yaml:"chunk_size"`
}

// LogConfig contains the logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root of the configuration file.
type Config struct {
	Window WindowConfig `yaml:"window"`
	Input  InputConfig  `yaml:"input"`
	Log    LogConfig    `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Capacity: segbuf.DefaultCapacity,
			Charset:  "ISO-8859-1",
			Events:   segbuf.Normal.String(),
		},
		Input: InputConfig{
			ChunkSize: DefaultChunkSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	// #nosec G304 -- the path comes from the command line.
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the values that can be checked without building the window.
func (c Config) Validate() error {
	if c.Window.Capacity <= 0 {
		return fmt.Errorf("%w: window capacity must be positive, got %d", ErrInvalid, c.Window.Capacity)
	}

	if c.Input.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalid, c.Input.ChunkSize)
	}

	if c.Input.Layout == "" {
		return fmt.Errorf("%w: missing input layout", ErrInvalid)
	}

	if _, err := Charset(c.Window.Charset); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if _, err := segbuf.ParseEventType(c.Window.Events); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return nil
}

// Charset resolves an IANA charset name to a single byte character map. An empty name means ISO-8859-1.
func Charset(name string) (*charmap.Charmap, error) {
	if name == "" {
		return charmap.ISO8859_1, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}

	cm, ok := enc.(*charmap.Charmap)
	if !ok || cm == nil {
		return nil, fmt.Errorf("charset %q is not a single byte charset", name)
	}

	return cm, nil
}

// Options converts the window configuration to window options.
func (wc WindowConfig) Options(logger *slog.Logger, notify chan<- *segbuf.Event) (segbuf.Options, error) {
	cs, err := Charset(wc.Charset)
	if err != nil {
		return segbuf.Options{}, err
	}

	mask, err := segbuf.ParseEventType(wc.Events)
	if err != nil {
		return segbuf.Options{}, err
	}

	return segbuf.Options{
		Name:        wc.Name,
		Capacity:    wc.Capacity,
		Charset:     cs,
		DateLayouts: wc.DateLayouts,
		Notify:      notify,
		NotifyMask:  mask,
		Logger:      logger,
	}, nil
}
