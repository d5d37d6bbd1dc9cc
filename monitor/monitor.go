// Package monitor implements a small command language that plays the part of
// the host computer, reading and writing the card's registers the way a
// program using PEEK and POKE would.
//
// Commands:
//
//	peek ADDR       read a register and print its value
//	poke ADDR VAL   write a register
//	rx VAL          have the device send a byte
//	get             poll status and, if a byte is waiting, read it
//	state           print the register file without disturbing it
//
// ADDR is a number or one of the register names data, status, command and
// control. Numbers may be decimal (49320), hex ($c0a8 or 0xc0a8) or a
// quoted character ('X').
package monitor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nf/ssc/acia"
	"github.com/nf/ssc/card"
)

// Names lists the command words, for completion.
var Names = []string{"peek", "poke", "rx", "get", "state"}

// Op identifies a command.
type Op byte

const (
	Peek Op = iota
	Poke
	Rx
	Get
	State
)

func (o Op) String() string {
	if int(o) < len(Names) {
		return Names[o]
	}
	return fmt.Sprintf("op(%d)", byte(o))
}

// Command is a parsed monitor command.
type Command struct {
	Op    Op
	Addr  Addr
	Value byte
}

// Addr is either an absolute address or a register of the card.
type Addr struct {
	Abs uint16
	Reg acia.Register
	Rel bool // use Reg
}

// Resolve returns the absolute address of a on card c.
func (a Addr) Resolve(c *card.Card) uint16 {
	if a.Rel {
		return c.Base() + uint16(a.Reg)
	}
	return a.Abs
}

func (a Addr) String() string {
	if a.Rel {
		return a.Reg.String()
	}
	return strconv.Itoa(int(a.Abs))
}

func (c Command) String() string {
	switch c.Op {
	case Peek:
		return fmt.Sprintf("peek %v", c.Addr)
	case Poke:
		return fmt.Sprintf("poke %v %d", c.Addr, c.Value)
	case Rx:
		return fmt.Sprintf("rx %d", c.Value)
	}
	return c.Op.String()
}

// SyntaxError reports a malformed command in a script.
type SyntaxError struct {
	Line int
	Err  error
}

func (e SyntaxError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e SyntaxError) Unwrap() error { return e.Err }

var ErrEmpty = errors.New("empty command")

// Parse parses a single command. Blank lines and comments return ErrEmpty.
func Parse(line string) (Command, error) {
	if i := strings.IndexByte(line, '#'); i >= 0 && !inQuote(line, i) {
		line = line[:i]
	}
	f := strings.Fields(line)
	if len(f) == 0 {
		return Command{}, ErrEmpty
	}
	var (
		c    Command
		args = f[1:]
		want int
	)
	switch f[0] {
	case "peek":
		c.Op, want = Peek, 1
	case "poke":
		c.Op, want = Poke, 2
	case "rx":
		c.Op, want = Rx, 1
	case "get":
		c.Op = Get
	case "state":
		c.Op = State
	default:
		return Command{}, fmt.Errorf("unknown command %q", f[0])
	}
	if len(args) != want {
		return Command{}, fmt.Errorf("%s takes %d arguments, got %d", c.Op, want, len(args))
	}
	var err error
	switch c.Op {
	case Peek:
		c.Addr, err = parseAddr(args[0])
	case Poke:
		if c.Addr, err = parseAddr(args[0]); err == nil {
			c.Value, err = parseByte(args[1])
		}
	case Rx:
		c.Value, err = parseByte(args[0])
	}
	if err != nil {
		return Command{}, err
	}
	return c, nil
}

// ParseScript parses one command per line, skipping blanks and comments.
func ParseScript(r io.Reader) ([]Command, error) {
	var (
		cs []Command
		s  = bufio.NewScanner(r)
		n  = 0
	)
	for s.Scan() {
		n++
		c, err := Parse(s.Text())
		if err == ErrEmpty {
			continue
		}
		if err != nil {
			return nil, SyntaxError{Line: n, Err: err}
		}
		cs = append(cs, c)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return cs, nil
}

// Exec runs c against card, printing any result to w.
func (c Command) Exec(cd *card.Card, w io.Writer) error {
	switch c.Op {
	case Peek:
		addr := c.Addr.Resolve(cd)
		v, ok := cd.Peek(addr)
		if !ok {
			return fmt.Errorf("peek %d: not a card address", addr)
		}
		fmt.Fprintf(w, "%d: %d\n", addr, v)
	case Poke:
		addr := c.Addr.Resolve(cd)
		if !cd.Poke(addr, c.Value) {
			return fmt.Errorf("poke %d: not a card address", addr)
		}
	case Rx:
		cd.ACIA().ReceiveFromDevice(c.Value)
	case Get:
		f := cd.ACIA()
		if f.Peek(byte(acia.Status))&acia.StatusRxFull == 0 {
			fmt.Fprintln(w, "no data")
			return nil
		}
		b := f.Peek(byte(acia.Data))
		fmt.Fprintf(w, "got %d%s\n", b, quote(b))
	case State:
		fmt.Fprint(w, Dump(cd))
	default:
		return fmt.Errorf("unknown op %v", c.Op)
	}
	return nil
}

// Dump describes the card's registers. It does not read the data register.
func Dump(cd *card.Card) string {
	var (
		b    strings.Builder
		f    = cd.ACIA()
		base = cd.Base()
	)
	fmt.Fprintf(&b, "slot %d: %v\n", cd.Slot(), f.State())
	for r := acia.Data; r <= acia.Control; r++ {
		v := "--"
		if r != acia.Data {
			v = fmt.Sprintf("%.2x", f.Peek(byte(r)))
		}
		fmt.Fprintf(&b, "%d %-7s %s\n", base+uint16(r), r, v)
	}
	return b.String()
}

func parseAddr(s string) (Addr, error) {
	for r := acia.Data; r <= acia.Control; r++ {
		if s == r.String() {
			return Addr{Reg: r, Rel: true}, nil
		}
	}
	v, err := parseNum(s, 16)
	if err != nil {
		return Addr{}, fmt.Errorf("invalid address %q", s)
	}
	return Addr{Abs: uint16(v)}, nil
}

func parseByte(s string) (byte, error) {
	v, err := parseNum(s, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(v), nil
}

func parseNum(s string, bits int) (uint64, error) {
	switch {
	case len(s) >= 3 && s[0] == '\'' && s[len(s)-1] == '\'':
		r, _, tail, err := strconv.UnquoteChar(s[1:len(s)-1], '\'')
		if err != nil || tail != "" || r > 0xff {
			return 0, errors.New("bad character literal")
		}
		return uint64(r), nil
	case strings.HasPrefix(s, "$"):
		return strconv.ParseUint(s[1:], 16, bits)
	}
	return strconv.ParseUint(s, 0, bits)
}

func inQuote(s string, i int) bool {
	return i > 0 && i+1 < len(s) && s[i-1] == '\'' && s[i+1] == '\''
}

func quote(b byte) string {
	if b < 0x20 || b >= 0x7f {
		return ""
	}
	return " " + strconv.QuoteRune(rune(b))
}
