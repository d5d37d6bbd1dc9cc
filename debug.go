package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/ssc/acia"
	"github.com/nf/ssc/card"
	"github.com/nf/ssc/monitor"
)

// commandNames are the words the monitor input understands.
var commandNames = append(append([]string{}, monitor.Names...), "reset", "exit")

type debugView struct {
	r *card.Runner

	log   *tview.TextView
	state *tview.TextView
	input *tview.InputField
	rows  *tview.Flex
	app   *tview.Application
}

// debugMode drives the host from an interactive monitor until the user
// types exit. A script, if given, is run first (and re-run on change with -dev).
func debugMode(cfg config, r *card.Runner) error {
	d := newDebugView(r)
	log.SetPrefix("")
	log.SetOutput(d.log)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetPrefix("ssc: ")
	}()

	stop := make(chan bool)
	defer close(stop)
	go d.refresh(stop)
	if cfg.script != "" {
		go func() {
			var err error
			if cfg.dev {
				err = devMode(cfg.script, r, d.log, stop)
			} else {
				err = runScript(cfg.script, r, d.log)
			}
			if err != nil {
				log.Printf("script: %v", err)
			}
		}()
	}
	return d.app.Run()
}

func newDebugView(r *card.Runner) *debugView {
	d := &debugView{
		r: r,
		log: tview.NewTextView().
			SetMaxLines(1000),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.rows.
		AddItem(d.log, 0, 1, false).
		AddItem(d.state, 5, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)
	d.setState(acia.Empty, "")

	d.input.SetAutocompleteFunc(func(t string) (entries []string) {
		if t == "" {
			return nil
		}
		cmd, arg, ok := strings.Cut(t, " ")
		if !ok {
			for _, n := range commandNames {
				if strings.HasPrefix(n, cmd) {
					entries = append(entries, n)
				}
			}
			return
		}
		switch cmd {
		case "peek", "poke":
			if strings.Contains(arg, " ") {
				return nil
			}
			for reg := acia.Data; reg <= acia.Control; reg++ {
				if strings.HasPrefix(reg.String(), arg) {
					entries = append(entries, cmd+" "+reg.String())
				}
			}
		}
		return
	})
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := d.input.GetText()
		if line == "" {
			return
		}
		d.input.SetText("")
		if line == "exit" {
			d.app.Stop()
			return
		}
		d.submit(line)
	})
	return d
}

// submit runs a monitor command off the UI goroutine, so that a runner busy
// with a script cannot stall the UI.
func (d *debugView) submit(line string) {
	go func() {
		if line == "reset" {
			d.r.Reset()
			log.Print("reset")
			d.update()
			return
		}
		c, err := monitor.Parse(line)
		if err == monitor.ErrEmpty {
			return
		}
		if err != nil {
			log.Print(err)
			return
		}
		if err := execAll([]monitor.Command{c}, d.r, d.log); err != nil {
			log.Print(err)
		}
		d.update()
	}()
}

// refresh keeps the state pane current while bytes arrive from the device.
func (d *debugView) refresh(stop <-chan bool) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			d.update()
		case <-stop:
			return
		}
	}
}

func (d *debugView) update() {
	var (
		s    acia.State
		dump string
	)
	if !d.r.Do(func(c *card.Card) {
		s, dump = c.ACIA().State(), monitor.Dump(c)
	}) {
		return
	}
	d.app.QueueUpdateDraw(func() { d.setState(s, dump) })
}

func (d *debugView) setState(s acia.State, dump string) {
	switch s {
	case acia.Full:
		d.state.SetTextColor(tcell.ColorYellow)
		d.state.SetBackgroundColor(tcell.ColorDarkBlue)
	default:
		d.state.SetTextColor(tcell.ColorBlack)
		d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	}
	d.state.SetText(dump)
}
