package x11

import (
	"sync"
	"testing"

	"github.com/1broseidon/xwin"
)

func TestProxy_WakeupSurfacesAsAwakened(t *testing.T) {
	f := newFakeServer()
	w := newTestWindow(t, f, xwin.DefaultConfig())
	proxy := w.CreateProxy()

	if err := proxy.Wakeup(); err != nil {
		t.Fatalf("Wakeup failed: %v", err)
	}
	if f.callCount("SendClientMessage") != 1 {
		t.Fatalf("wake-up message not sent")
	}

	ev, ok := w.WaitEvent()
	if !ok {
		t.Fatalf("expected an event")
	}
	if _, isAwake := ev.(xwin.Awakened); !isAwake {
		t.Fatalf("expected Awakened, got %v", ev)
	}
}

func TestProxy_WakeupAfterCloseIsNoOp(t *testing.T) {
	f := newFakeServer()
	w := newTestWindow(t, f, xwin.DefaultConfig())
	proxy := w.CreateProxy()

	w.Close()

	if err := proxy.Wakeup(); err != nil {
		t.Fatalf("Wakeup after close failed: %v", err)
	}
	if f.callCount("SendClientMessage") != 0 {
		t.Fatalf("wake-up sent to a closed window")
	}
}

func TestProxy_ConcurrentWakeupsDuringClose(t *testing.T) {
	f := newFakeServer()
	w := newTestWindow(t, f, xwin.DefaultConfig())
	proxy := w.CreateProxy()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := proxy.Wakeup(); err != nil {
					t.Errorf("Wakeup failed: %v", err)
					return
				}
			}
		}()
	}
	w.Close()
	wg.Wait()
}

func TestProxy_MultipleProxiesShareTheWindow(t *testing.T) {
	f := newFakeServer()
	w := newTestWindow(t, f, xwin.DefaultConfig())

	p1 := w.CreateProxy()
	p2 := w.CreateProxy()
	if err := p1.Wakeup(); err != nil {
		t.Fatalf("Wakeup failed: %v", err)
	}
	if err := p2.Wakeup(); err != nil {
		t.Fatalf("Wakeup failed: %v", err)
	}
	if f.callCount("SendClientMessage") != 2 {
		t.Fatalf("expected 2 wake-ups, got %d", f.callCount("SendClientMessage"))
	}
}
