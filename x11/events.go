package x11

import (
	"iter"
	"log"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xwin"
)

// XInput2 event type range recognized on generic events. Payloads
// outside the range belong to other extensions and are dropped.
const (
	xiDeviceChanged = 1
	xiLastEvent     = 26
)

// PollEvent returns the next event without blocking. ok is false when
// no event is currently available.
func (w *Window) PollEvent() (xwin.Event, bool) {
	for {
		if ev, ok := w.dequeue(); ok {
			return ev, true
		}

		raw, err := w.srv.PollEvent()
		if err != nil {
			// Protocol errors arrive interleaved with events. They
			// concern individual requests, not the stream, so the pump
			// keeps going.
			log.Printf("x11: event stream error: %v", err)
			continue
		}
		if raw == nil {
			return nil, false
		}
		w.classify(raw)
	}
}

// WaitEvent blocks until an event is available. ok is false once the
// window has been closed and the queue is drained, or the connection is
// gone.
func (w *Window) WaitEvent() (xwin.Event, bool) {
	for {
		if ev, ok := w.dequeue(); ok {
			return ev, true
		}
		if w.closed.Load() {
			return nil, false
		}

		raw, err := w.srv.WaitEvent()
		if err != nil {
			log.Printf("x11: event stream error: %v", err)
			continue
		}
		if raw == nil {
			return nil, false
		}
		w.classify(raw)
	}
}

// PollEvents iterates over the events currently available, returning
// once the queue and the server's pending events are exhausted.
func (w *Window) PollEvents() iter.Seq[xwin.Event] {
	return func(yield func(xwin.Event) bool) {
		for {
			ev, ok := w.PollEvent()
			if !ok {
				return
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// WaitEvents iterates over events, blocking between them. The sequence
// ends after a close has been observed or the connection is gone.
func (w *Window) WaitEvents() iter.Seq[xwin.Event] {
	return func(yield func(xwin.Event) bool) {
		for {
			ev, ok := w.WaitEvent()
			if !ok {
				return
			}
			if !yield(ev) {
				return
			}
		}
	}
}

func (w *Window) dequeue() (xwin.Event, bool) {
	w.pendMu.Lock()
	defer w.pendMu.Unlock()
	if len(w.pending) == 0 {
		return nil, false
	}
	ev := w.pending[0]
	w.pending = w.pending[1:]
	return ev, true
}

func (w *Window) enqueue(evs ...xwin.Event) {
	if len(evs) == 0 {
		return
	}
	w.pendMu.Lock()
	w.pending = append(w.pending, evs...)
	w.pendMu.Unlock()
}

// classify turns one raw protocol event into zero or more application
// events on the pending queue.
func (w *Window) classify(raw xgb.Event) {
	switch ev := raw.(type) {
	case xproto.MappingNotifyEvent:
		if err := w.srv.RefreshKeyboardMapping(ev); err != nil {
			log.Printf("x11: failed to refresh keyboard mapping: %v", err)
		}

	case xproto.ClientMessageEvent:
		if xproto.Atom(ev.Data.Data32[0]) == w.wmDelete {
			w.closed.Store(true)
			w.enqueue(xwin.Closed{})
		} else {
			w.enqueue(xwin.Awakened{})
		}

	case xproto.ConfigureNotifyEvent:
		w.pendMu.Lock()
		if ev.Width != w.lastW || ev.Height != w.lastH {
			w.lastW, w.lastH = ev.Width, ev.Height
			w.pending = append(w.pending, xwin.Resized{
				Width:  uint32(ev.Width),
				Height: uint32(ev.Height),
			})
		}
		w.pendMu.Unlock()

	case xproto.ExposeEvent:
		w.enqueue(xwin.Refresh{})

	case xproto.KeyPressEvent:
		w.translateKey(ev, true)

	case xproto.KeyReleaseEvent:
		w.keyRelease(ev)

	case xproto.MotionNotifyEvent:
		w.enqueue(xwin.MouseMoved{X: int32(ev.EventX), Y: int32(ev.EventY)})

	case xproto.ButtonPressEvent:
		w.pointerButton(ev.Detail, true)

	case xproto.ButtonReleaseEvent:
		w.pointerButton(ev.Detail, false)

	case *GenericEvent:
		w.handleGeneric(ev)

	default:
		// VisibilityNotify, KeymapNotify and anything else we never
		// asked for.
	}
}

// keyRelease distinguishes a real release from the synthetic half of an
// auto-repeat pair. The server reports a repeat as a release followed
// immediately by a press with the same keycode and timestamp, so one
// non-blocking lookahead decides: a matching press means repeat (the
// release is swallowed, the press surfaces), anything else means the
// release is real and is translated right away.
func (w *Window) keyRelease(ev xproto.KeyReleaseEvent) {
	next, err := w.srv.PollEvent()
	if err != nil {
		log.Printf("x11: event stream error: %v", err)
		next = nil
	}
	if press, ok := next.(xproto.KeyPressEvent); ok && press.Detail == ev.Detail && press.Time == ev.Time {
		w.translateKey(press, true)
		return
	}

	w.translateKey(xproto.KeyPressEvent(ev), false)
	if next != nil {
		w.classify(next)
	}
}

func (w *Window) translateKey(ev xproto.KeyPressEvent, pressed bool) {
	w.trMu.Lock()
	evs := w.tr.TranslateKey(ev, pressed)
	w.trMu.Unlock()
	w.enqueue(evs...)
}

// handleGeneric examines one extension payload and releases it on every
// path, including translator panics.
func (w *Window) handleGeneric(ev *GenericEvent) {
	defer ev.Release()

	if ev.EvType < xiDeviceChanged || ev.EvType > xiLastEvent {
		return
	}

	w.trMu.Lock()
	out, ok := w.tr.TranslateGeneric(ev)
	w.trMu.Unlock()
	if ok {
		w.enqueue(out)
	}
}

// pointerButton maps core buttons 1..3 to button events and 4..7 to
// wheel ticks. Wheel buttons report only on press, since their release
// carries no information.
func (w *Window) pointerButton(detail xproto.Button, pressed bool) {
	switch detail {
	case 1, 2, 3:
		w.enqueue(xwin.MouseInput{Pressed: pressed, Button: xwin.MouseButton(detail)})
	case 4:
		if pressed {
			w.enqueue(xwin.MouseWheel{DeltaY: 1})
		}
	case 5:
		if pressed {
			w.enqueue(xwin.MouseWheel{DeltaY: -1})
		}
	case 6:
		if pressed {
			w.enqueue(xwin.MouseWheel{DeltaX: -1})
		}
	case 7:
		if pressed {
			w.enqueue(xwin.MouseWheel{DeltaX: 1})
		}
	}
}
