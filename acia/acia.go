// Package acia models the registers of a 6551 ACIA as seen by a polling host:
// a one byte receive buffer, a status register that reports only whether that
// byte is present, and command and control registers that read back fixed
// values and ignore writes.
//
// A RegisterFile is not safe for concurrent use; see package card for a
// runner that serializes host and device access.
package acia

import "fmt"

// Register is the index of one of the four ACIA registers.
type Register byte

const (
	Data Register = iota
	Status
	Command
	Control
)

func (r Register) String() string {
	switch r {
	case Data:
		return "data"
	case Status:
		return "status"
	case Command:
		return "command"
	case Control:
		return "control"
	}
	return fmt.Sprintf("reg(%d)", byte(r))
}

const (
	// StatusRxFull is set in the status register while a byte is pending.
	StatusRxFull = 0x08

	CommandValue = 11 // read back from the command register
	ControlValue = 28 // read back from the control register
)

// State is the observable state of the receive buffer.
type State byte

const (
	Empty State = iota
	Full
)

func (s State) String() string {
	if s == Full {
		return "full"
	}
	return "empty"
}

// RegisterFile holds the receive buffer and forwards data register writes
// to the connected Sink.
type RegisterFile struct {
	sink Sink
	logf func(string, ...any)

	pending byte
	full    bool
}

// New returns an empty RegisterFile connected to sink.
// A nil sink leaves the serial line unconnected.
func New(sink Sink) *RegisterFile {
	f := &RegisterFile{logf: Nopf}
	f.Connect(sink)
	return f
}

// Connect registers s as the device sink, replacing any previous one.
// Passing nil disconnects the line.
func (f *RegisterFile) Connect(s Sink) {
	if s == nil {
		s = Unconnected
	}
	f.sink = s
}

// SetTrace sets a function that is called for every byte crossing the
// serial line in either direction.
func (f *RegisterFile) SetTrace(logf func(string, ...any)) {
	if logf == nil {
		logf = Nopf
	}
	f.logf = logf
}

// State reports whether a byte is waiting to be read.
func (f *RegisterFile) State() State {
	if f.full {
		return Full
	}
	return Empty
}

// Reset empties the receive buffer.
func (f *RegisterFile) Reset() {
	f.pending, f.full = 0, false
}

// ReceiveFromDevice places b in the receive buffer. An unread byte is lost.
func (f *RegisterFile) ReceiveFromDevice(b byte) {
	f.logf("serial: rx from device %.2x", b)
	f.pending, f.full = b, true
}

// Peek reads register p. Reading the data register empties the buffer.
func (f *RegisterFile) Peek(p byte) byte {
	switch Register(p) {
	case Data:
		if !f.full {
			return 0
		}
		b := f.pending
		f.pending, f.full = 0, false
		return b
	case Status:
		if f.full {
			return StatusRxFull
		}
		return 0
	case Command:
		return CommandValue
	case Control:
		return ControlValue
	}
	return 0
}

// Poke writes b to register p. Only the data register does anything.
func (f *RegisterFile) Poke(p, b byte) {
	if Register(p) == Data {
		f.SendToDevice(b)
	}
}

// SendToDevice hands b to the connected sink.
func (f *RegisterFile) SendToDevice(b byte) {
	f.logf("serial: tx to device %.2x", b)
	f.sink.Send(b)
}

// Nopf is a logf function that does nothing.
func Nopf(string, ...any) {}
