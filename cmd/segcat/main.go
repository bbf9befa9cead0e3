// Command segcat decodes fixed layout records from a file or the standard input, reading it through a bounded
// segment window, and prints one record per line.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryszka/segbuf"
	"github.com/aryszka/segbuf/config"
	"github.com/aryszka/segbuf/internal/layout"
	"github.com/aryszka/segbuf/internal/logging"
	"github.com/aryszka/segbuf/internal/stream"
	"github.com/aryszka/segbuf/metrics"
)

// CLI defines the command-line interface of segcat. The flags override the values of the config file.
type CLI struct {
	Layout    string `short:"l" help:"Record layout, e.g. id=i32,name=cstr,amount=int:8"`
	Config    string `short:"c" help:"YAML config file" type:"existingfile"`
	Capacity  int    `help:"Maximum number of chunks held in memory"`
	Chunk     int    `help:"Size of the chunks read from the input"`
	Charset   string `help:"IANA name of a single byte charset, e.g. windows-1252"`
	Events    string `help:"Window events counted in the metrics, e.g. all or evict|conflict"`
	Header    bool   `help:"Print the field names before the records"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn or error"`
	LogFormat string `name:"log-format" help:"Log format: text or json"`
	Metrics   string `help:"Write metrics in text exposition format to this file when done" type:"path"`
	Input     string `arg:"" optional:"" help:"Input file, defaults to the standard input" type:"existingfile"`
}

func (c *CLI) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		var err error
		if cfg, err = config.Load(c.Config); err != nil {
			return config.Config{}, err
		}
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	override(&cfg.Input.Layout, c.Layout)
	override(&cfg.Window.Charset, c.Charset)
	override(&cfg.Window.Events, c.Events)
	override(&cfg.Log.Level, c.LogLevel)
	override(&cfg.Log.Format, c.LogFormat)
	if c.Capacity != 0 {
		cfg.Window.Capacity = c.Capacity
	}

	if c.Chunk != 0 {
		cfg.Input.ChunkSize = c.Chunk
	}

	return cfg, cfg.Validate()
}

func (c *CLI) run(in io.Reader, out, errOut io.Writer) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	log, err := logging.Parse(errOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	l, err := layout.Parse(cfg.Input.Layout)
	if err != nil {
		return err
	}

	if c.Input != "" {
		// #nosec G304 -- the path comes from the command line.
		f, err := os.Open(c.Input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}

		defer f.Close()
		in = f
	}

	var events chan *segbuf.Event
	if c.Metrics != "" {
		events = make(chan *segbuf.Event, 64)
	}

	o, err := cfg.Window.Options(log, events)
	if err != nil {
		return err
	}

	var (
		reg  *prometheus.Registry
		done chan struct{}
	)

	if events != nil {
		reg = prometheus.NewRegistry()
		done = make(chan struct{})
		ec := metrics.NewEventCounter(reg)
		go func() {
			ec.Run(events, nil)
			close(done)
		}()
	}

	d := stream.New(l, cfg.Input.ChunkSize, o)
	log.Debug("decoding input", "layout", l.String(), "capacity", d.Window().Cap(), "chunk", cfg.Input.ChunkSize)

	w := bufio.NewWriter(out)
	if c.Header {
		for i, name := range l.Names() {
			if i > 0 {
				w.WriteByte('\t')
			}

			w.WriteString(name)
		}

		w.WriteByte('\n')
	}

	decodeErr := d.Decode(in, func(r layout.Record) error {
		_, err := fmt.Fprintln(w, r.String())
		return err
	})

	if err := w.Flush(); err != nil && decodeErr == nil {
		decodeErr = err
	}

	if reg == nil {
		return decodeErr
	}

	close(events)
	<-done
	reg.MustRegister(metrics.ForWindow(d.Window()))
	if err := prometheus.WriteToTextfile(c.Metrics, reg); err != nil {
		log.Error("failed to write metrics", "error", err)
		if decodeErr == nil {
			decodeErr = err
		}
	}

	return decodeErr
}

// Run runs segcat on the standard streams.
func (c *CLI) Run() error {
	return c.run(os.Stdin, os.Stdout, os.Stderr)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("segcat"),
		kong.Description("Decode fixed layout records through a bounded segment window."),
		kong.UsageOnError(),
	)

	ctx.FatalIfErrorf(cli.Run())
}
