package ui

import (
	"context"
	"io"
	"strings"

	"mpureader/acquisition"
)

const (
	defaultWidth = 32
	clearScreen  = "\x1b[2J\x1b[H"
)

// Console renders frames as plain text, suitable for a serial terminal or
// stdout.
type Console struct {
	Menu

	w     io.Writer
	width int
	clear bool
	crlf  bool
}

// ConsoleOption customizes a Console.
type ConsoleOption func(*Console)

// WithWidth sets the frame width in columns.
func WithWidth(n int) ConsoleOption {
	return func(c *Console) { c.width = n }
}

// WithClear prefixes every frame with an ANSI clear-screen sequence.
func WithClear(on bool) ConsoleOption {
	return func(c *Console) { c.clear = on }
}

// WithCRLF terminates lines with CR LF, as raw serial terminals expect.
func WithCRLF(on bool) ConsoleOption {
	return func(c *Console) { c.crlf = on }
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{w: w, width: defaultWidth}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render writes the current screen.
func (c *Console) Render(snap acquisition.Snapshot) error {
	text := Layout(&c.Menu, snap).Text(c.width)
	if c.crlf {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	if c.clear {
		text = clearScreen + text
	}
	_, err := io.WriteString(c.w, text)
	return err
}

// KeyDecoder turns terminal bytes into key events. It understands ANSI
// arrow sequences, wasd/hjkl, CR or Space for Ok, q, Backspace or a
// doubled Escape for Back, and Ctrl-C for Quit. LF is ignored so a
// line-buffered terminal does not turn every command into an extra Ok.
type KeyDecoder struct {
	seq []byte
}

// Feed consumes one byte and returns a key when one is complete.
func (d *KeyDecoder) Feed(b byte) (Key, bool) {
	if len(d.seq) > 0 {
		d.seq = append(d.seq, b)
		switch {
		case len(d.seq) == 2 && b == 0x1b:
			d.seq = d.seq[:0]
			return KeyBack, true
		case len(d.seq) == 2 && b == '[':
			return 0, false
		case len(d.seq) == 3:
			d.seq = d.seq[:0]
			switch b {
			case 'A':
				return KeyUp, true
			case 'B':
				return KeyDown, true
			case 'C':
				return KeyRight, true
			case 'D':
				return KeyLeft, true
			}
			return 0, false
		default:
			d.seq = d.seq[:0]
			return d.Feed(b)
		}
	}

	switch b {
	case 0x1b:
		d.seq = append(d.seq, b)
	case 'w', 'k':
		return KeyUp, true
	case 's', 'j':
		return KeyDown, true
	case 'a', 'h':
		return KeyLeft, true
	case 'd', 'l':
		return KeyRight, true
	case '\r', ' ':
		return KeyOk, true
	case 'q', 0x7f, 0x08:
		return KeyBack, true
	case 0x03:
		return KeyQuit, true
	}
	return 0, false
}

// ReadKeys decodes key presses from r until r fails or ctx is done.
// The channel is closed when reading stops.
func ReadKeys(ctx context.Context, r io.Reader) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		var dec KeyDecoder
		buf := make([]byte, 16)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				k, ok := dec.Feed(b)
				if !ok {
					continue
				}
				select {
				case out <- Event{Key: k}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil || ctx.Err() != nil {
				return
			}
		}
	}()
	return out
}
