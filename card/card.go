// Package card implements a Super Serial Card: a 6551 ACIA whose four
// registers appear in the I/O space of the slot the card is plugged into.
package card

import (
	"fmt"

	"github.com/nf/ssc/acia"
)

// The data register of the card in slot n is at ioBase + n*16.
const ioBase = 0xc088

type Card struct {
	slot int
	acia *acia.RegisterFile
}

// New returns a card in slot (1-7) whose serial line is connected to sink.
func New(slot int, sink acia.Sink) (*Card, error) {
	if slot < 1 || slot > 7 {
		return nil, fmt.Errorf("invalid slot %d", slot)
	}
	return &Card{slot: slot, acia: acia.New(sink)}, nil
}

func (c *Card) Slot() int                { return c.slot }
func (c *Card) Base() uint16             { return ioBase + uint16(c.slot)<<4 }
func (c *Card) ACIA() *acia.RegisterFile { return c.acia }

// Decode returns the register for addr and reports whether addr belongs to
// the card.
func (c *Card) Decode(addr uint16) (byte, bool) {
	base := c.Base()
	if addr < base || addr > base+uint16(acia.Control) {
		return 0, false
	}
	return byte(addr - base), true
}

// Peek reads addr if it belongs to the card.
func (c *Card) Peek(addr uint16) (byte, bool) {
	p, ok := c.Decode(addr)
	if !ok {
		return 0, false
	}
	return c.acia.Peek(p), true
}

// Poke writes v to addr if it belongs to the card.
func (c *Card) Poke(addr uint16, v byte) bool {
	p, ok := c.Decode(addr)
	if !ok {
		return false
	}
	c.acia.Poke(p, v)
	return true
}
