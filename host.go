package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nf/ssc/acia"
	"github.com/nf/ssc/card"
	"github.com/nf/ssc/monitor"
)

const pollInterval = time.Millisecond

// echo is the host program run when there is no script: it polls the status
// register and writes each received byte back to the device.
func echo(r *card.Runner, done <-chan bool) error {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
		case <-done:
			r.Do(echoPoll)
			return nil
		}
		if !r.Do(echoPoll) {
			return errHalted
		}
	}
}

func echoPoll(c *card.Card) {
	base := c.Base()
	if v, _ := c.Peek(base + uint16(acia.Status)); v&acia.StatusRxFull == 0 {
		return
	}
	b, _ := c.Peek(base + uint16(acia.Data))
	c.Poke(base+uint16(acia.Data), b)
}

func runScript(name string, r *card.Runner, out io.Writer) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	cs, err := monitor.ParseScript(f)
	if err != nil {
		return fmt.Errorf("%s: %v", name, err)
	}
	return execAll(cs, r, out)
}

func execAll(cs []monitor.Command, r *card.Runner, out io.Writer) error {
	for _, c := range cs {
		var err error
		if !r.Do(func(cd *card.Card) { err = c.Exec(cd, out) }) {
			return errHalted
		}
		if err != nil {
			return fmt.Errorf("%v: %v", c, err)
		}
	}
	return nil
}
