package vdp

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
)

// Window shows a Terminal in a native window.
type Window struct {
	term *Terminal

	// Keys, if set, receives the characters typed into the window.
	Keys chan<- byte

	buf   screen.Buffer
	tex   screen.Texture
	ops   int // updated to match term.ops after drawing
	dirty bool
}

func NewWindow(t *Terminal) *Window {
	return &Window{term: t, ops: -1}
}

// Run drives the window until exit is closed or the window is closed.
// It must be called from the main goroutine.
func (w *Window) Run(exit <-chan bool) error {
	var runErr error
	driver.Main(func(s screen.Screen) {
		win, err := s.NewWindow(&screen.NewWindowOptions{
			Title:  "ssc",
			Width:  w.term.Size().X * 2,
			Height: w.term.Size().Y * 2,
		})
		if err != nil {
			runErr = err
			return
		}
		defer win.Release()
		defer w.release()

		type update struct{}
		go func() {
			t := time.NewTicker(time.Second / 60)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					win.Send(update{})
				case <-exit:
					win.Send(lifecycle.Event{To: lifecycle.StageDead})
					return
				}
			}
		}()

		var sz size.Event
		for {
			switch e := win.NextEvent().(type) {
			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					return
				}
				w.dirty = true

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case key.Event:
				if e.Direction != key.DirPress && e.Direction != key.DirNone {
					break
				}
				if b, ok := keyByte(e); ok && w.Keys != nil {
					select {
					case w.Keys <- b:
					default:
						// Device side is busy; the keystroke is lost,
						// as it would be on a real line.
					}
				}

			case paint.Event:
				w.dirty = true

			case update:
				if err := w.update(s); err != nil {
					runErr = fmt.Errorf("update: %v", err)
					return
				}
				if w.dirty && sz.WidthPx > 0 {
					win.Scale(sz.Bounds(), w.tex, w.tex.Bounds(), draw.Src, nil)
					win.Publish()
					w.dirty = false
				}

			case error:
				log.Print(e)
			}
		}
	})
	return runErr
}

func (w *Window) update(s screen.Screen) (err error) {
	if w.tex == nil {
		sz := w.term.Size()
		if w.buf, err = s.NewBuffer(sz); err != nil {
			return
		}
		if w.tex, err = s.NewTexture(sz); err != nil {
			return
		}
	}
	if o := w.term.changes(); o != w.ops {
		w.ops = o
		w.term.Draw(w.buf.RGBA())
		w.tex.Upload(image.Point{}, w.buf, w.buf.Bounds())
		w.dirty = true
	}
	return
}

func (w *Window) release() {
	if w.tex != nil {
		w.tex.Release()
	}
	if w.buf != nil {
		w.buf.Release()
	}
}

// keyByte translates a key press into the byte a serial terminal would send.
func keyByte(e key.Event) (byte, bool) {
	switch e.Code {
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		return cr, true
	case key.CodeDeleteBackspace:
		return bs, true
	case key.CodeEscape:
		return 0x1b, true
	case key.CodeTab:
		return '\t', true
	}
	if e.Rune <= 0 || e.Rune >= 0x80 {
		return 0, false
	}
	b := byte(e.Rune)
	if e.Modifiers&key.ModControl != 0 && b >= '@' && b <= '_'|0x20 {
		b &= 0x1f
	}
	return b, true
}
