package acia

import (
	"io"
	"log"
)

// Sink is the device end of the serial line.
type Sink interface {
	Send(b byte)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(b byte)

// Send calls fn(b). A nil SinkFunc behaves like Unconnected.
func (fn SinkFunc) Send(b byte) {
	if fn == nil {
		Unconnected.Send(b)
		return
	}
	fn(b)
}

// Unconnected is the sink of a line with nothing attached.
// It drops every byte and logs that it did so.
var Unconnected Sink = unconnected{}

type unconnected struct{}

func (unconnected) Send(b byte) {
	log.Printf("serial: no device connected, dropped %.2x", b)
}

// WriterSink sends each byte to W.
// Write errors are logged; the host has no way to observe them.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Send(b byte) {
	if _, err := s.W.Write([]byte{b}); err != nil {
		log.Printf("serial: writing to device: %v", err)
	}
}
