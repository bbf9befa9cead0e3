// Package stream decodes records from a byte stream, reading it in fixed size chunks into a window.
package stream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aryszka/segbuf"
	"github.com/aryszka/segbuf/internal/layout"
)

// DefaultChunkSize is used when the chunk size is not set.
const DefaultChunkSize = 4096

var (
	// ErrWindowTooSmall is returned when a record doesn't fit in the window, i.e. it spans more chunks than
	// the window can hold.
	ErrWindowTooSmall = errors.New("record does not fit in the window")

	// ErrTruncated is returned when the input ends inside a record.
	ErrTruncated = errors.New("input ends inside a record")
)

// Decoder reads records of a fixed layout. It owns a window, and a registered cursor that marks the beginning
// of the next record. Records are decoded with a clone of the cursor, and the cursor is moved only when a
// record was decoded completely.
type Decoder struct {
	layout    layout.Layout
	chunkSize int
	window    *segbuf.Window
	cursor    *segbuf.Cursor
	log       *slog.Logger
	records   int
	bytes     int
}

// New creates a decoder. The window is created from the options, and the input is read in chunks of
// chunkSize bytes.
func New(l layout.Layout, chunkSize int, o segbuf.Options) *Decoder {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	w := segbuf.NewWithOptions(o)
	return &Decoder{
		layout:    l,
		chunkSize: chunkSize,
		window:    w,
		cursor:    w.NewCursor(),
		log:       o.Logger.With("window", w.Name()),
	}
}

// Window returns the window of the decoder.
func (d *Decoder) Window() *segbuf.Window { return d.window }

// Records returns the number of records decoded so far.
func (d *Decoder) Records() int { return d.records }

// reads the next chunk and pushes it to the window. It returns io.EOF when there was no more input.
func (d *Decoder) fill(r io.Reader) error {
	p := make([]byte, d.chunkSize)
	n, err := io.ReadFull(r, p)
	if err == io.EOF {
		return io.EOF
	}

	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read input: %w", err)
	}

	p = p[:n]
	if err := d.window.Push(p); err != nil {
		if errors.Is(err, segbuf.ErrCursorConflict) {
			return fmt.Errorf(
				"%w: record %d at %d exceeds %d chunks of %d bytes",
				ErrWindowTooSmall,
				d.records,
				d.cursor.Index(),
				d.window.Cap(),
				d.chunkSize,
			)
		}

		return err
	}

	d.bytes += n
	return nil
}

// Decode reads the input until it ends, and calls emit for every record. It stops on the first error returned
// by emit.
func (d *Decoder) Decode(r io.Reader, emit func(layout.Record) error) error {
	var inputDone bool
	for {
		lookahead := d.cursor.Clone()
		rec, err := d.layout.Decode(lookahead)
		if err == nil {
			d.cursor.Move(int(lookahead.Index() - d.cursor.Index()))
			d.records++
			if err := emit(rec); err != nil {
				return err
			}

			continue
		}

		if err != io.EOF {
			return fmt.Errorf("record %d at %d: %w", d.records, d.cursor.Index(), err)
		}

		if inputDone {
			if !d.cursor.EOF() {
				return fmt.Errorf(
					"%w: %d bytes left at %d",
					ErrTruncated,
					d.window.End()-d.cursor.Index(),
					d.cursor.Index(),
				)
			}

			d.log.Info("input processed", "records", d.records, "bytes", d.bytes)
			return nil
		}

		if err := d.fill(r); err == io.EOF {
			inputDone = true
		} else if err != nil {
			return err
		}
	}
}
