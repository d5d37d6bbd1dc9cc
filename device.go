package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/term"
	xterm "golang.org/x/term"

	"github.com/nf/ssc/acia"
	"github.com/nf/ssc/card"
	"github.com/nf/ssc/vdp"
)

// device is whatever is plugged into the far end of the serial line.
type device struct {
	sink  acia.Sink
	input <-chan byte
	done  <-chan bool // closed when the device stops sending
	win   *vdp.Window

	closers []func() error
}

func (d *device) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

const (
	termCols = 40 // Apple II text screen
	termRows = 24
)

func openDevice(cfg config) (*device, error) {
	d := &device{}
	switch {
	case cfg.line != "":
		t, err := term.Open(cfg.line, term.Speed(cfg.baud), term.RawMode)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %v", cfg.line, err)
		}
		d.closers = append(d.closers, t.Close)
		d.sink = acia.WriterSink{W: t}
		d.input, d.done = pump(t)

	case cfg.gui:
		t := vdp.NewTerminal(termCols, termRows)
		keys := make(chan byte, 1)
		d.sink = t
		d.input = keys
		d.win = vdp.NewWindow(t)
		d.win.Keys = keys

	case cfg.debug:
		// The monitor owns the terminal; bytes from the device
		// arrive through its rx command.
		d.sink = acia.SinkFunc(func(b byte) {
			log.Printf("device: got %.2x %q", b, b&0x7f)
		})

	default:
		if rawInput(cfg) {
			restore, err := rawStdin()
			if err != nil {
				return nil, err
			}
			d.closers = append(d.closers, restore)
		}
		d.sink = ttySink{os.Stdout}
		d.input, d.done = pump(keyReader{os.Stdin})
	}
	return d, nil
}

// pump starts reading r and returns the channel the bytes arrive on and a
// channel that is closed once the last byte has been delivered.
func pump(r io.Reader) (<-chan byte, <-chan bool) {
	var (
		raw  = make(chan byte)
		in   = make(chan byte)
		done = make(chan bool)
	)
	go card.ReadInput(r, raw)
	go func() {
		defer close(done)
		defer close(in)
		for b := range raw {
			in <- b
		}
	}()
	return in, done
}

// rawInput reports whether the terminal should be put into raw mode.
// A script writes its results to stdout, which raw mode would leave
// without carriage returns.
func rawInput(cfg config) bool {
	return cfg.script == "" && !cfg.debug
}

// rawStdin puts the terminal into raw mode, if stdin is a terminal,
// so that each keystroke reaches the card as it is typed.
func rawStdin() (restore func() error, err error) {
	fd := int(os.Stdin.Fd())
	if !xterm.IsTerminal(fd) {
		return func() error { return nil }, nil
	}
	old, err := xterm.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %v", err)
	}
	return func() error { return xterm.Restore(fd, old) }, nil
}

// quitKey ends a terminal session (Ctrl-]).
const quitKey = 0x1d

// keyReader translates terminal keystrokes into what an Apple II terminal
// program expects, and reports EOF when quitKey is typed.
type keyReader struct {
	r io.Reader
}

func (k keyReader) Read(p []byte) (int, error) {
	n, err := k.r.Read(p)
	for i := 0; i < n; i++ {
		switch p[i] {
		case quitKey:
			return i, io.EOF
		case 0x7f: // DEL
			p[i] = 0x08
		}
	}
	return n, err
}

// ttySink writes device output to a raw terminal.
type ttySink struct {
	w io.Writer
}

func (s ttySink) Send(b byte) {
	var out []byte
	switch b &= 0x7f; b {
	case '\r':
		out = []byte("\r\n")
	case 0x08:
		out = []byte("\b \b")
	default:
		out = []byte{b}
	}
	if _, err := s.w.Write(out); err != nil {
		log.Printf("writing to terminal: %v", err)
	}
}
