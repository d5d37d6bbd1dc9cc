package main

import (
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/nf/ssc/card"
)

// devMode runs the script, then resets the card and runs it again each time
// the file changes, until stop is closed.
func devMode(script string, r *card.Runner, out io.Writer, stop <-chan bool) error {
	script = filepath.Clean(script)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(script)); err != nil {
		return err
	}

	run := time.After(1 * time.Millisecond)
	for {
		select {
		case <-run:
			log.Printf("dev: run %s", filepath.Base(script))
			if !r.Reset() {
				return errHalted
			}
			if err := runScript(script, r, out); err != nil {
				if err == errHalted {
					return err
				}
				log.Printf("dev: %v", err)
			}
		case ev := <-watcher.Event:
			if filepath.Clean(ev.Name) == script && !ev.IsAttrib() {
				run = time.After(100 * time.Millisecond)
			}
		case err := <-watcher.Error:
			log.Printf("dev: watcher: %v", err)
		case <-stop:
			return nil
		}
	}
}
