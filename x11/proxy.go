package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
)

// proxySlot is the shared state between a window and its proxies. The
// window invalidates the slot during teardown; the slot's lock is held
// for the duration of a wake-up send, so a wake-up either completes
// before teardown starts or becomes a no-op.
type proxySlot struct {
	mu     sync.Mutex
	srv    server
	window xproto.Window
	valid  bool
}

func newProxySlot(srv server, window xproto.Window) *proxySlot {
	return &proxySlot{srv: srv, window: window, valid: true}
}

func (s *proxySlot) invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// Proxy wakes a window's event loop from another goroutine. Proxies
// remain safe to use after the window is closed; wake-ups just stop
// doing anything.
type Proxy struct {
	slot *proxySlot
}

// CreateProxy returns a wake-up handle for the window. Any number of
// proxies may exist and they may be used concurrently.
func (w *Window) CreateProxy() Proxy {
	return Proxy{slot: w.proxy}
}

// Wakeup posts a wake-up to the window's event stream, surfacing as an
// Awakened event. Calling it on a closed window is a no-op.
func (p Proxy) Wakeup() error {
	s := p.slot
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid {
		return nil
	}

	// An all-zero client message: the type atom matches nothing the
	// pump knows, so it classifies as a wake-up.
	if err := s.srv.SendClientMessage(s.window, 0, [5]uint32{}); err != nil {
		return err
	}
	return s.srv.Flush()
}
