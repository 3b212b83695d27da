package x11

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xwin"
)

// Viewability polling for visible windows. Focus can only be assigned
// once the window manager has actually mapped the window, so creation
// polls the map state, bounded so a misbehaving server cannot wedge the
// caller forever. Variables so tests can shrink the deadline.
var (
	viewablePollInterval = 16 * time.Millisecond
	viewablePollAttempts = 120
)

// Window owns one native window and the input resources bound to it.
// All methods are safe for concurrent use; the event pump methods are
// expected to be driven from one goroutine at a time.
type Window struct {
	srv  server
	conn *Connection

	id         xproto.Window
	screen     int
	fullscreen bool
	deskMode   *DisplayMode
	im         InputMethod
	ic         InputContext
	wmDelete   xproto.Atom

	closed    atomic.Bool
	closeOnce sync.Once

	proxy *proxySlot

	// pendMu guards the translated-event queue and the last observed
	// size used for resize deduplication.
	pendMu       sync.Mutex
	pending      []xwin.Event
	lastW, lastH uint16

	cursorMu sync.Mutex
	cursor   xwin.CursorState

	trMu sync.Mutex
	tr   Translator
}

// CreateWindow creates a window on the connection according to cfg.
// Setting cfg.Monitor requests a fullscreen window on that monitor,
// switching the display mode when a suitable one exists.
func CreateWindow(conn *Connection, cfg xwin.Config) (*Window, error) {
	w, err := createWindow(conn, cfg)
	if err != nil {
		return nil, err
	}
	w.conn = conn
	return w, nil
}

func createWindow(srv server, cfg xwin.Config) (*Window, error) {
	if cfg.MinWidth != 0 || cfg.MinHeight != 0 || cfg.MaxWidth != 0 || cfg.MaxHeight != 0 {
		panic("x11: min/max window dimensions are not supported")
	}

	width, height := cfg.Width, cfg.Height
	if width == 0 {
		width = 800
	}
	if height == 0 {
		height = 600
	}

	screen := srv.DefaultScreen()
	if cfg.Monitor != nil {
		screen = *cfg.Monitor
	}

	// Resolve the mode to switch to and the mode to restore on exit.
	// A requested monitor whose server reports no modes at all is
	// tolerated: the window still goes fullscreen at the current mode.
	var switchTo, deskMode *DisplayMode
	if srv.ModeSwitchingAvailable() && cfg.Monitor != nil {
		current, modes, err := srv.DisplayModes(screen)
		if err != nil || len(modes) == 0 {
			log.Printf("x11: no display modes reported for screen %d; fullscreen without mode switch", screen)
		} else {
			mode, ok := findMode(modes, width, height)
			if !ok {
				return nil, fmt.Errorf("%w: %dx%d on screen %d", ErrNoSuitableMode, width, height, screen)
			}
			switchTo = &mode
			saved := current
			deskMode = &saved
		}
	}

	id, err := srv.CreateWindow(screen, width, height, cfg.Transparent)
	if err != nil {
		return nil, fmt.Errorf("window creation failed: %w", err)
	}

	// Unwind on failure: everything acquired after this point is
	// released again in teardown order, so an aborted creation leaves
	// neither a switched display mode nor an open input method behind.
	var (
		created  bool
		switched bool
		im       InputMethod
		ic       InputContext
	)
	defer func() {
		if created {
			return
		}
		imLock := srv.IMLock()
		imLock.Lock()
		if switched {
			if err := srv.SwitchMode(screen, *deskMode); err != nil {
				log.Printf("x11: failed to restore display mode after creation error: %v", err)
			}
			if err := srv.ResetViewport(screen); err != nil {
				log.Printf("x11: failed to reset viewport after creation error: %v", err)
			}
		}
		if ic != nil {
			if err := ic.Close(); err != nil {
				log.Printf("x11: failed to destroy input context after creation error: %v", err)
			}
		}
		if im != nil {
			if err := im.Close(); err != nil {
				log.Printf("x11: failed to close input method after creation error: %v", err)
			}
		}
		imLock.Unlock()
		if err := srv.DestroyWindow(id); err != nil {
			log.Printf("x11: failed to destroy window after creation error: %v", err)
		}
	}()

	if cfg.Visible {
		if err := srv.MapRaised(id); err != nil {
			return nil, fmt.Errorf("failed to set window visibility: %w", err)
		}
		if err := srv.Flush(); err != nil {
			return nil, fmt.Errorf("failed to set window visibility: %w", err)
		}
	}

	wmDelete, err := srv.InternAtom("WM_DELETE_WINDOW")
	if err != nil {
		return nil, fmt.Errorf("failed to intern WM_DELETE_WINDOW: %w", err)
	}
	if err := srv.SetProtocols(id, "WM_DELETE_WINDOW"); err != nil {
		return nil, fmt.Errorf("failed to set WM protocols: %w", err)
	}
	if err := srv.Flush(); err != nil {
		return nil, fmt.Errorf("failed to set WM protocols: %w", err)
	}

	// The input-method open is not safe to run concurrently across
	// windows, so it is serialized on the connection's lock.
	imLock := srv.IMLock()
	imLock.Lock()
	im, err = srv.OpenInputMethod()
	imLock.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to open input method: %w", err)
	}

	ic, err = im.NewContext(id)
	if err != nil {
		return nil, fmt.Errorf("failed to create input context: %w", err)
	}

	// Detectable key repeat is required for correct key semantics
	// downstream; a keyboard we cannot query is a creation failure.
	if err := srv.EnableDetectableAutoRepeat(); err != nil {
		return nil, fmt.Errorf("detectable auto-repeat unavailable: %w", err)
	}

	if err := srv.SetClassHint(id, cfg.Title); err != nil {
		return nil, fmt.Errorf("failed to set class hint: %w", err)
	}

	fullscreen := cfg.Monitor != nil
	if fullscreen {
		if err := srv.RequestFullscreen(id); err != nil {
			return nil, fmt.Errorf("failed to request fullscreen state: %w", err)
		}
		if switchTo != nil {
			if err := srv.SwitchMode(screen, *switchTo); err != nil {
				return nil, fmt.Errorf("failed to switch display mode: %w", err)
			}
			switched = true
		}
		if err := srv.ResetViewport(screen); err != nil {
			return nil, fmt.Errorf("failed to reset viewport: %w", err)
		}
	}

	w := &Window{
		srv:        srv,
		id:         id,
		screen:     screen,
		fullscreen: fullscreen,
		deskMode:   deskMode,
		im:         im,
		ic:         ic,
		wmDelete:   wmDelete,
		cursor:     xwin.CursorNormal,
		tr:         ic.Translator(),
	}
	w.proxy = newProxySlot(srv, id)

	// Route the initial title through the one title-encoding path.
	if err := w.SetTitle(cfg.Title); err != nil {
		return nil, fmt.Errorf("failed to set window title: %w", err)
	}

	if cfg.Visible {
		viewable := false
		for i := 0; i < viewablePollAttempts; i++ {
			state, err := srv.MapState(id)
			if err != nil {
				return nil, fmt.Errorf("failed to query map state: %w", err)
			}
			if state == xproto.MapStateViewable {
				viewable = true
				break
			}
			time.Sleep(viewablePollInterval)
		}
		if !viewable {
			return nil, ErrWindowNeverViewable
		}
		if err := srv.SetInputFocus(id); err != nil {
			return nil, fmt.Errorf("failed to set input focus: %w", err)
		}
	}

	created = true
	return w, nil
}

// findMode returns an exact (width, height) match, or else the smallest
// mode at least as large as the request in both dimensions.
func findMode(modes []DisplayMode, width, height uint16) (DisplayMode, bool) {
	for _, m := range modes {
		if m.Width == width && m.Height == height {
			return m, true
		}
	}

	var best DisplayMode
	found := false
	for _, m := range modes {
		if m.Width < width || m.Height < height {
			continue
		}
		if !found ||
			uint32(m.Width)*uint32(m.Height) < uint32(best.Width)*uint32(best.Height) {
			best = m
			found = true
		}
	}
	return best, found
}

// Close releases the window's native resources. It never panics: the
// window is going away, so teardown protocol errors are logged and
// otherwise ignored. Safe to call more than once and concurrently with
// proxy wake-ups.
func (w *Window) Close() {
	w.closeOnce.Do(func() {
		// Invalidate the proxy slot first so no in-flight or future
		// wake-up can reach resources that are about to disappear.
		w.proxy.invalidate()
		w.closed.Store(true)

		// Queued events belong to a window the caller has already
		// discarded; drop them so the pump terminates instead of
		// replaying them.
		w.pendMu.Lock()
		w.pending = nil
		w.pendMu.Unlock()

		imLock := w.srv.IMLock()
		imLock.Lock()
		defer imLock.Unlock()

		if w.fullscreen {
			if w.deskMode != nil {
				if err := w.srv.SwitchMode(w.screen, *w.deskMode); err != nil {
					log.Printf("x11: failed to restore display mode: %v", err)
				}
			}
			if err := w.srv.ResetViewport(w.screen); err != nil {
				log.Printf("x11: failed to reset viewport: %v", err)
			}
		}

		if err := w.ic.Close(); err != nil {
			log.Printf("x11: failed to destroy input context: %v", err)
		}
		if err := w.im.Close(); err != nil {
			log.Printf("x11: failed to close input method: %v", err)
		}
		if err := w.srv.DestroyWindow(w.id); err != nil {
			log.Printf("x11: failed to destroy window: %v", err)
		}
	})
}

// ID returns the native window handle for interop with a rendering
// layer.
func (w *Window) ID() xproto.Window { return w.id }

// Connection returns the connection the window was created on, or nil
// for windows backed by a non-connection server.
func (w *Window) Connection() *Connection { return w.conn }

// Screen returns the screen the window was created on.
func (w *Window) Screen() int { return w.screen }

// Fullscreen reports whether the window was created fullscreen.
func (w *Window) Fullscreen() bool { return w.fullscreen }

// Closed reports whether the window manager close request has been
// observed or Close has been called.
func (w *Window) Closed() bool { return w.closed.Load() }

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) error {
	if err := w.srv.SetTitle(w.id, title); err != nil {
		return err
	}
	return w.srv.Flush()
}

// Show maps and raises the window.
func (w *Window) Show() error {
	if err := w.srv.MapRaised(w.id); err != nil {
		return err
	}
	return w.srv.Flush()
}

// Hide unmaps the window.
func (w *Window) Hide() error {
	if err := w.srv.Unmap(w.id); err != nil {
		return err
	}
	return w.srv.Flush()
}

// Position returns the window's position relative to its parent.
func (w *Window) Position() (int, int, error) {
	geom, err := w.srv.Geometry(w.id)
	if err != nil {
		return 0, 0, err
	}
	return int(geom.X), int(geom.Y), nil
}

// SetPosition moves the window.
func (w *Window) SetPosition(x, y int) error {
	return w.srv.MoveWindow(w.id, int16(x), int16(y))
}

// InnerSize returns the size of the drawable area.
func (w *Window) InnerSize() (uint32, uint32, error) {
	geom, err := w.srv.Geometry(w.id)
	if err != nil {
		return 0, 0, err
	}
	return uint32(geom.Width), uint32(geom.Height), nil
}

// OuterSize returns the size including the window border.
func (w *Window) OuterSize() (uint32, uint32, error) {
	geom, err := w.srv.Geometry(w.id)
	if err != nil {
		return 0, 0, err
	}
	return uint32(geom.Width) + uint32(geom.Border), uint32(geom.Height) + uint32(geom.Border), nil
}

// SetInnerSize resizes the drawable area.
func (w *Window) SetInnerSize(width, height uint32) error {
	return w.srv.ResizeWindow(w.id, uint16(width), uint16(height))
}

// HiDPIFactor returns the scale factor between logical and physical
// pixels, which is always 1 on this platform.
func (w *Window) HiDPIFactor() float32 { return 1.0 }
