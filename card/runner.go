package card

import (
	"io"
	"log"
	"sync"
)

// Runner owns a Card. Host operations and bytes arriving from the device
// are applied one at a time on the goroutine that calls Run.
type Runner struct {
	card  *Card
	input <-chan byte

	host chan func(*Card)
	halt chan bool
	once sync.Once
}

func NewRunner(c *Card) *Runner {
	return &Runner{
		card: c,
		host: make(chan func(*Card)),
		halt: make(chan bool),
	}
}

// Attach sets the channel on which the device delivers bytes.
// It must be called before Run.
func (r *Runner) Attach(input <-chan byte) { r.input = input }

// Run services the card until Halt is called.
func (r *Runner) Run() {
	input := r.input
	for {
		select {
		case b, ok := <-input:
			if !ok {
				input = nil // Device went away; keep serving the host.
				continue
			}
			r.card.acia.ReceiveFromDevice(b)
		case f := <-r.host:
			f(r.card)
		case <-r.halt:
			return
		}
	}
}

// Do runs f on the Run goroutine and waits for it to return.
// It reports false if the runner was halted before f could run.
func (r *Runner) Do(f func(*Card)) bool {
	done := make(chan bool)
	select {
	case r.host <- func(c *Card) { f(c); close(done) }:
	case <-r.halt:
		return false
	}
	<-done
	return true
}

// Reset empties the card's receive buffer.
func (r *Runner) Reset() bool {
	return r.Do(func(c *Card) { c.acia.Reset() })
}

func (r *Runner) Halt() {
	r.once.Do(func() { close(r.halt) })
}

// ReadInput reads bytes from the device and sends them on input,
// closing input when the device returns an error or EOF.
func ReadInput(r io.Reader, input chan<- byte) {
	defer close(input)
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n > 0 {
			input <- b[0]
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("serial: reading device: %v", err)
			}
			return
		}
	}
}
