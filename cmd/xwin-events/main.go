// Command xwin-events opens a window and prints its event stream, one
// line per event. It exists to exercise the library end to end against
// a live display: resize the window, type into it, scroll, and close it
// from the window manager to watch the translated stream.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/1broseidon/xwin"
	"github.com/1broseidon/xwin/internal/tracelog"
	"github.com/1broseidon/xwin/x11"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML window config")
		display    = flag.String("display", "", "X display to connect to (defaults to $DISPLAY)")
		title      = flag.String("title", "", "window title override")
		width      = flag.Uint("width", 0, "window width override")
		height     = flag.Uint("height", 0, "window height override")
		monitorID  = flag.Int("fullscreen", -1, "create fullscreen on the given monitor")
		traceFile  = flag.String("trace", "", "write a protocol trace to this file")
		traceLevel = flag.String("trace-level", "debug", "trace verbosity: debug, info, warn, error")
	)
	flag.Parse()

	cfg := xwin.DefaultConfig()
	if *configPath != "" {
		loaded, err := xwin.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}
	if *title != "" {
		cfg.Title = *title
	}
	if *width != 0 {
		cfg.Width = uint16(*width)
	}
	if *height != 0 {
		cfg.Height = uint16(*height)
	}
	if *monitorID >= 0 {
		m := *monitorID
		cfg.Monitor = &m
	}

	conn, err := x11.NewConnectionDisplay(*display)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	if *traceFile != "" {
		tl, err := tracelog.New(tracelog.Config{
			Enabled:   true,
			Level:     tracelog.ParseLevel(*traceLevel),
			FilePath:  *traceFile,
			MaxSizeMB: 10,
			MaxFiles:  3,
		})
		if err != nil {
			log.Fatalf("trace: %v", err)
		}
		defer tl.Close()
		conn.SetTrace(tl)
	}

	w, err := x11.CreateWindow(conn, cfg)
	if err != nil {
		log.Fatalf("create window: %v", err)
	}
	defer w.Close()

	proxy := w.CreateProxy()
	interrupted := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(interrupted)
		if err := proxy.Wakeup(); err != nil {
			log.Printf("wakeup: %v", err)
		}
	}()

	color := term.IsTerminal(int(os.Stdout.Fd()))
	emit := func(tag, format string, args ...interface{}) {
		if color {
			fmt.Printf("\x1b[36m%-8s\x1b[0m "+format+"\n", append([]interface{}{tag}, args...)...)
		} else {
			fmt.Printf("%-8s "+format+"\n", append([]interface{}{tag}, args...)...)
		}
	}

	emit("window", "%q %dx%d id=%d", cfg.Title, cfg.Width, cfg.Height, w.ID())

loop:
	for ev := range w.WaitEvents() {
		switch e := ev.(type) {
		case xwin.Closed:
			emit("closed", "window manager requested close")
		case xwin.Awakened:
			select {
			case <-interrupted:
				emit("signal", "interrupted")
				break loop
			default:
				emit("awake", "wake-up")
			}
		case xwin.Resized:
			emit("resized", "%dx%d", e.Width, e.Height)
		case xwin.Refresh:
			emit("refresh", "exposed")
		case xwin.KeyboardInput:
			action := "released"
			if e.Pressed {
				action = "pressed"
			}
			emit("key", "%s scancode=%d keysym=%#x shift=%v ctrl=%v alt=%v logo=%v",
				action, e.Scancode, uint32(e.Key), e.Mods.Shift, e.Mods.Ctrl, e.Mods.Alt, e.Mods.Logo)
			if e.Pressed && e.Key == xwin.KeyEscape {
				emit("key", "escape pressed, exiting")
				break loop
			}
		case xwin.ReceivedCharacter:
			emit("char", "%q", e.Char)
		case xwin.MouseMoved:
			emit("motion", "(%d, %d)", e.X, e.Y)
		case xwin.MouseInput:
			action := "released"
			if e.Pressed {
				action = "pressed"
			}
			emit("button", "%s button=%d", action, e.Button)
		case xwin.MouseWheel:
			emit("wheel", "dx=%+.1f dy=%+.1f", e.DeltaX, e.DeltaY)
		}
	}
}
