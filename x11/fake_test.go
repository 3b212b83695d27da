package x11

import (
	"errors"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xwin"
)

const fakeWMDelete xproto.Atom = 42

// fakeServer scripts the display side of the window layer. It records
// calls in order, serves events from an in-memory queue, and lets tests
// tune the responses that drive each code path.
type fakeServer struct {
	mu    sync.Mutex
	cond  *sync.Cond
	calls []string

	queue      []xgb.Event
	connClosed bool

	modeSwitching bool
	current       DisplayMode
	modes         []DisplayMode
	modesErr      error
	switched      []DisplayMode

	createdW, createdH uint16
	nextWindow         xproto.Window
	destroyed          []xproto.Window

	// viewableAfter is how many MapState calls report unviewable before
	// the window becomes viewable. Negative means never.
	viewableAfter int
	mapStateCalls int

	grabStatus byte
	defined    []xproto.Cursor
	freed      []xproto.Cursor
	titles     []string

	failRepeat bool
	translator Translator

	imLock sync.Mutex
}

func newFakeServer() *fakeServer {
	f := &fakeServer{
		modeSwitching: true,
		current:       DisplayMode{ID: 1, Width: 1920, Height: 1080},
		modes: []DisplayMode{
			{ID: 1, Width: 1920, Height: 1080},
			{ID: 2, Width: 1024, Height: 768},
			{ID: 3, Width: 800, Height: 600},
		},
		nextWindow: 100,
		grabStatus: xproto.GrabStatusSuccess,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *fakeServer) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeServer) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

// callIndex returns the position of the first occurrence of name, or -1.
func (f *fakeServer) callIndex(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.calls {
		if c == name {
			return i
		}
	}
	return -1
}

func (f *fakeServer) callLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeServer) callsFrom(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls)-n)
	copy(out, f.calls[n:])
	return out
}

// push appends raw events and wakes a blocked WaitEvent.
func (f *fakeServer) push(evs ...xgb.Event) {
	f.mu.Lock()
	f.queue = append(f.queue, evs...)
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *fakeServer) closeConn() {
	f.mu.Lock()
	f.connClosed = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *fakeServer) DefaultScreen() int           { return 0 }
func (f *fakeServer) ModeSwitchingAvailable() bool { return f.modeSwitching }

func (f *fakeServer) DisplayModes(screen int) (DisplayMode, []DisplayMode, error) {
	f.record("DisplayModes")
	if f.modesErr != nil {
		return DisplayMode{}, nil, f.modesErr
	}
	return f.current, f.modes, nil
}

func (f *fakeServer) SwitchMode(screen int, mode DisplayMode) error {
	f.record("SwitchMode")
	f.mu.Lock()
	f.switched = append(f.switched, mode)
	f.mu.Unlock()
	return nil
}

func (f *fakeServer) ResetViewport(screen int) error {
	f.record("ResetViewport")
	return nil
}

func (f *fakeServer) CreateWindow(screen int, width, height uint16, transparent bool) (xproto.Window, error) {
	f.record("CreateWindow")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdW, f.createdH = width, height
	id := f.nextWindow
	f.nextWindow++
	return id, nil
}

func (f *fakeServer) DestroyWindow(id xproto.Window) error {
	f.record("DestroyWindow")
	f.mu.Lock()
	f.destroyed = append(f.destroyed, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeServer) MapRaised(id xproto.Window) error { f.record("MapRaised"); return nil }
func (f *fakeServer) Unmap(id xproto.Window) error     { f.record("Unmap"); return nil }

func (f *fakeServer) MapState(id xproto.Window) (byte, error) {
	f.record("MapState")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mapStateCalls++
	if f.viewableAfter < 0 || f.mapStateCalls <= f.viewableAfter {
		return xproto.MapStateUnviewable, nil
	}
	return xproto.MapStateViewable, nil
}

func (f *fakeServer) SetInputFocus(id xproto.Window) error { f.record("SetInputFocus"); return nil }

func (f *fakeServer) InternAtom(name string) (xproto.Atom, error) {
	f.record("InternAtom")
	if name == "WM_DELETE_WINDOW" {
		return fakeWMDelete, nil
	}
	return 7, nil
}

func (f *fakeServer) SetProtocols(id xproto.Window, protocols ...string) error {
	f.record("SetProtocols")
	return nil
}

func (f *fakeServer) SetClassHint(id xproto.Window, name string) error {
	f.record("SetClassHint")
	return nil
}

func (f *fakeServer) SetTitle(id xproto.Window, title string) error {
	f.record("SetTitle")
	f.mu.Lock()
	f.titles = append(f.titles, title)
	f.mu.Unlock()
	return nil
}

func (f *fakeServer) RequestFullscreen(id xproto.Window) error {
	f.record("RequestFullscreen")
	return nil
}

func (f *fakeServer) Geometry(id xproto.Window) (Geometry, error) {
	f.record("Geometry")
	f.mu.Lock()
	defer f.mu.Unlock()
	return Geometry{X: 10, Y: 20, Width: f.createdW, Height: f.createdH, Border: 2}, nil
}

func (f *fakeServer) MoveWindow(id xproto.Window, x, y int16) error {
	f.record("MoveWindow")
	return nil
}

func (f *fakeServer) ResizeWindow(id xproto.Window, width, height uint16) error {
	f.record("ResizeWindow")
	return nil
}

func (f *fakeServer) IMLock() *sync.Mutex { return &f.imLock }

func (f *fakeServer) OpenInputMethod() (InputMethod, error) {
	f.record("OpenInputMethod")
	return &fakeInputMethod{f: f}, nil
}

func (f *fakeServer) EnableDetectableAutoRepeat() error {
	f.record("EnableDetectableAutoRepeat")
	if f.failRepeat {
		return errors.New("keyboard unreachable")
	}
	return nil
}

func (f *fakeServer) RefreshKeyboardMapping(ev xproto.MappingNotifyEvent) error {
	f.record("RefreshKeyboardMapping")
	return nil
}

func (f *fakeServer) LoadCursor(shape uint16) (xproto.Cursor, error) {
	f.record("LoadCursor")
	return xproto.Cursor(500 + uint32(shape)), nil
}

func (f *fakeServer) CreateBlankCursor(id xproto.Window) (xproto.Cursor, error) {
	f.record("CreateBlankCursor")
	return 600, nil
}

func (f *fakeServer) DefineCursor(id xproto.Window, cursor xproto.Cursor) error {
	f.record("DefineCursor")
	f.mu.Lock()
	f.defined = append(f.defined, cursor)
	f.mu.Unlock()
	return nil
}

func (f *fakeServer) FreeCursor(cursor xproto.Cursor) error {
	f.record("FreeCursor")
	f.mu.Lock()
	f.freed = append(f.freed, cursor)
	f.mu.Unlock()
	return nil
}

func (f *fakeServer) GrabPointer(id xproto.Window, eventMask uint16) (byte, error) {
	f.record("GrabPointer")
	return f.grabStatus, nil
}

func (f *fakeServer) UngrabPointer() error {
	f.record("UngrabPointer")
	return nil
}

func (f *fakeServer) WarpPointer(id xproto.Window, x, y int16) error {
	f.record("WarpPointer")
	return nil
}

func (f *fakeServer) PollEvent() (xgb.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, nil
	}
	ev := f.queue[0]
	f.queue = f.queue[1:]
	return ev, nil
}

func (f *fakeServer) WaitEvent() (xgb.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.queue) == 0 && !f.connClosed {
		f.cond.Wait()
	}
	if len(f.queue) == 0 {
		return nil, nil
	}
	ev := f.queue[0]
	f.queue = f.queue[1:]
	return ev, nil
}

func (f *fakeServer) SendClientMessage(id xproto.Window, typ xproto.Atom, data [5]uint32) error {
	f.record("SendClientMessage")
	f.push(xproto.ClientMessageEvent{
		Format: 32,
		Window: id,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	})
	return nil
}

func (f *fakeServer) Flush() error { return nil }

type fakeInputMethod struct {
	f *fakeServer
}

func (im *fakeInputMethod) NewContext(win xproto.Window) (InputContext, error) {
	im.f.record("NewContext")
	return &fakeInputContext{f: im.f}, nil
}

func (im *fakeInputMethod) Close() error {
	im.f.record("IM.Close")
	return nil
}

type fakeInputContext struct {
	f *fakeServer
}

func (ic *fakeInputContext) Translator() Translator {
	if ic.f.translator != nil {
		return ic.f.translator
	}
	return nopTranslator{}
}

func (ic *fakeInputContext) Close() error {
	ic.f.record("IC.Close")
	return nil
}

type nopTranslator struct{}

func (nopTranslator) TranslateKey(ev xproto.KeyPressEvent, pressed bool) []xwin.Event {
	return nil
}

func (nopTranslator) TranslateGeneric(ev *GenericEvent) (xwin.Event, bool) {
	return nil, false
}

var _ server = (*fakeServer)(nil)
