package acia

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
)

func TestRegisterFile(t *testing.T) {
	c := newRegTestCase
	for i, c := range []*regTestCase{
		// Fresh register file.
		c().peek(Data, 0).peek(Status, 0).state(Empty),
		c().peek(Data, 0).peek(Data, 0).peek(Data, 0).state(Empty),

		// Read clears.
		c().rx('X').peek(Status, 8).peek(Data, 88).peek(Data, 0).peek(Status, 0),
		c().rx(0xff).state(Full).peek(Data, 0xff).state(Empty),

		// Overwrite loses the unread byte.
		c().rx('a').rx('b').peek(Data, 'b').peek(Data, 0),
		c().rx('a').rx('b').rx('c').peek(Status, 8).peek(Data, 'c').peek(Status, 0),

		// Byte 0 is pending even though it reads like an empty buffer.
		c().rx(0).state(Full).peek(Status, 8).peek(Data, 0).state(Empty).peek(Status, 0),

		// Status reads do not consume.
		c().rx('q').peek(Status, 8).peek(Status, 8).peek(Data, 'q'),

		// Canned values.
		c().peek(Command, 11).peek(Control, 28),
		c().poke(Command, 0xff).poke(Control, 0).peek(Command, 11).peek(Control, 28),
		c().rx('z').peek(Command, 11).peek(Control, 28).state(Full),

		// Writes to status are ignored.
		c().poke(Status, 0xff).peek(Status, 0).state(Empty),
		c().rx('z').poke(Status, 0).peek(Status, 8),

		// Out of range registers.
		c().peek(4, 0).peek(0xff, 0),
		c().rx('z').peek(7, 0).poke(7, 1).state(Full).sent(),

		// Outbound.
		c().poke(Data, 65).sent(65),
		c().poke(Data, 1).poke(Data, 2).poke(Status, 3).poke(Command, 4).poke(Control, 5).sent(1, 2),
		c().rx('k').poke(Data, 'j').peek(Data, 'k').sent('j'),
	} {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			c.run(t)
		})
	}
}

type regTestCase struct {
	steps []func(t *testing.T, f *RegisterFile)
	want  []byte
}

func newRegTestCase() *regTestCase {
	return &regTestCase{want: []byte{}}
}

func (c *regTestCase) rx(b byte) *regTestCase {
	c.steps = append(c.steps, func(t *testing.T, f *RegisterFile) {
		f.ReceiveFromDevice(b)
	})
	return c
}

func (c *regTestCase) peek(p Register, want byte) *regTestCase {
	c.steps = append(c.steps, func(t *testing.T, f *RegisterFile) {
		if g := f.Peek(byte(p)); g != want {
			t.Errorf("Peek(%v) == %.2x, want %.2x", p, g, want)
		}
	})
	return c
}

func (c *regTestCase) poke(p Register, b byte) *regTestCase {
	c.steps = append(c.steps, func(t *testing.T, f *RegisterFile) {
		f.Poke(byte(p), b)
	})
	return c
}

func (c *regTestCase) state(want State) *regTestCase {
	c.steps = append(c.steps, func(t *testing.T, f *RegisterFile) {
		if g := f.State(); g != want {
			t.Errorf("State() == %v, want %v", g, want)
		}
	})
	return c
}

func (c *regTestCase) sent(b ...byte) *regTestCase {
	c.want = append(c.want, b...)
	return c
}

func (c *regTestCase) run(t *testing.T) {
	sent := []byte{}
	f := New(SinkFunc(func(b byte) { sent = append(sent, b) }))
	for _, s := range c.steps {
		s(t, f)
	}
	if !bytes.Equal(sent, c.want) {
		t.Errorf("sent %v to device, want %v", sent, c.want)
	}
}

func TestReset(t *testing.T) {
	f := New(nil)
	f.ReceiveFromDevice('r')
	f.Reset()
	if g := f.State(); g != Empty {
		t.Errorf("State() after Reset == %v, want %v", g, Empty)
	}
	if g := f.Peek(byte(Data)); g != 0 {
		t.Errorf("Peek(data) after Reset == %.2x, want 0", g)
	}
}

func TestOverwriteAllPairs(t *testing.T) {
	f := New(nil)
	for a := 0; a < 0x100; a += 7 {
		for b := 0; b < 0x100; b += 5 {
			f.ReceiveFromDevice(byte(a))
			f.ReceiveFromDevice(byte(b))
			if g := f.Peek(byte(Data)); g != byte(b) {
				t.Fatalf("after rx %.2x, %.2x: Peek(data) == %.2x, want %.2x", a, b, g, b)
			}
			if g := f.Peek(byte(Status)); g != 0 {
				t.Fatalf("after reading %.2x: Peek(status) == %.2x, want 0", b, g)
			}
		}
	}
}

func TestUnconnected(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	f := New(nil)
	f.Poke(byte(Data), 65)
	if g := buf.String(); !strings.Contains(g, "dropped 41") {
		t.Errorf("log output %q does not mention the dropped byte", g)
	}

	// Disconnecting a connected line falls back to dropping.
	n := 0
	f.Connect(SinkFunc(func(byte) { n++ }))
	f.Poke(byte(Data), 1)
	f.Connect(nil)
	f.Poke(byte(Data), 2)
	if n != 1 {
		t.Errorf("connected sink got %d bytes, want 1", n)
	}
}

func TestNilSinkFunc(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	var fn SinkFunc
	f := New(fn)
	f.Poke(byte(Data), 0x42)
	f.Connect(fn)
	f.Poke(byte(Data), 0x43)
	if g := buf.String(); !strings.Contains(g, "dropped 42") || !strings.Contains(g, "dropped 43") {
		t.Errorf("log output %q does not mention both dropped bytes", g)
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	f := New(WriterSink{W: &buf})
	for _, b := range []byte("HELLO\r") {
		f.Poke(byte(Data), b)
	}
	if g, w := buf.String(), "HELLO\r"; g != w {
		t.Errorf("device got %q, want %q", g, w)
	}
}

func TestTrace(t *testing.T) {
	var lines []string
	f := New(SinkFunc(func(byte) {}))
	f.SetTrace(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	})
	f.ReceiveFromDevice('X')
	f.Poke(byte(Data), 'Y')
	f.SetTrace(nil)
	f.ReceiveFromDevice('Z')
	want := []string{"serial: rx from device 58", "serial: tx to device 59"}
	if fmt.Sprint(lines) != fmt.Sprint(want) {
		t.Errorf("trace is %q, want %q", lines, want)
	}
}

func TestRegisterString(t *testing.T) {
	for r, w := range map[Register]string{
		Data:    "data",
		Status:  "status",
		Command: "command",
		Control: "control",
		9:       "reg(9)",
	} {
		if g := r.String(); g != w {
			t.Errorf("Register(%d).String() == %q, want %q", byte(r), g, w)
		}
	}
}
