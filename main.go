// Command ssc emulates a Super Serial Card, connecting a host that reads and
// writes the card's registers to a device at the other end of the serial line.
//
// The device is a display window by default, the terminal with -cli, or a
// real serial port with -line. The host either echoes every byte it receives,
// runs a script of monitor commands (-script), or is driven interactively
// (-debug).
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nf/ssc/card"
)

type config struct {
	slot   int
	gui    bool
	line   string
	baud   int
	script string
	dev    bool
	debug  bool
	trace  bool
}

func main() {
	log.SetPrefix("ssc: ")
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-cli] [-line device] [-slot n] [-script file [-dev]] [-debug]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err == errUsage {
		flag.Usage()
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

var errUsage = errors.New("usage")

// parseFlags builds the configuration from the command line.
// With -debug, a script is watched as if -dev were given.
func parseFlags(fs *flag.FlagSet, args []string) (config, error) {
	var (
		slotFlag   = fs.Int("slot", 2, "plug the card into `slot` (1-7)")
		cliFlag    = fs.Bool("cli", false, "disable the display window; use the terminal as the device")
		lineFlag   = fs.String("line", "", "use the serial port `device` as the device")
		baudFlag   = fs.Int("baud", 9600, "speed of the -line serial port")
		scriptFlag = fs.String("script", "", "run host commands from `file`")
		devFlag    = fs.Bool("dev", false, "re-run the script whenever it changes")
		debugFlag  = fs.Bool("debug", false, "drive the host from an interactive monitor")
		traceFlag  = fs.Bool("trace", false, "log every byte that crosses the serial line")
	)
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() != 0 || (*devFlag && *scriptFlag == "") {
		return config{}, errUsage
	}
	return config{
		slot:   *slotFlag,
		gui:    !*cliFlag,
		line:   *lineFlag,
		baud:   *baudFlag,
		script: *scriptFlag,
		dev:    *devFlag || (*debugFlag && *scriptFlag != ""),
		debug:  *debugFlag,
		trace:  *traceFlag,
	}, nil
}

var errHalted = errors.New("card halted")

func run(cfg config) error {
	d, err := openDevice(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	c, err := card.New(cfg.slot, d.sink)
	if err != nil {
		return err
	}
	if cfg.trace {
		c.ACIA().SetTrace(log.Printf)
	}
	r := card.NewRunner(c)
	r.Attach(d.input)
	go r.Run()
	defer r.Halt()

	var (
		exit = make(chan bool)
		errc = make(chan error, 1)
	)
	go func() {
		errc <- host(cfg, r, d.done)
		close(exit)
	}()
	if d.win != nil {
		// The window owns the main goroutine until the host is done
		// or the window is closed.
		if err := d.win.Run(exit); err != nil {
			return fmt.Errorf("vdp: %v", err)
		}
	} else {
		<-exit
	}
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

func host(cfg config, r *card.Runner, done <-chan bool) error {
	switch {
	case cfg.debug:
		return debugMode(cfg, r)
	case cfg.dev:
		return devMode(cfg.script, r, os.Stdout, nil)
	case cfg.script != "":
		return runScript(cfg.script, r, os.Stdout)
	default:
		return echo(r, done)
	}
}
