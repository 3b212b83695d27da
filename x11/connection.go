// Package x11 implements window creation and event translation on top
// of an X11 display server.
package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/xwin/internal/tracelog"
)

// Connection manages the X11 connection and the extension state shared
// by every window created from it. It outlives the windows and proxies
// built on top of it.
//
// xgb reports protocol errors synchronously through checked requests,
// so every Connection method returns the protocol-level outcome of the
// call it wraps.
type Connection struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	randrOK bool

	// imMu serializes input-method open/close and keyboard-mapping
	// reloads across windows; the underlying calls are not safe under
	// concurrent invocation.
	imMu sync.Mutex

	trace *tracelog.Logger
}

// NewConnection establishes a connection to the X server named by
// $DISPLAY and probes the mode-switching extension.
func NewConnection() (*Connection, error) {
	return NewConnectionDisplay("")
}

// NewConnectionDisplay connects to a specific display. An empty string
// falls back to $DISPLAY.
func NewConnectionDisplay(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	c := &Connection{
		xu:   xu,
		root: xu.RootWin(),
	}

	// RandR is optional: without it windows still work, but fullscreen
	// windows cannot switch the display mode.
	if err := randr.Init(xu.Conn()); err == nil {
		c.randrOK = true
	}

	return c, nil
}

// SetTrace attaches a protocol trace logger. Passing nil disables
// tracing.
func (c *Connection) SetTrace(l *tracelog.Logger) {
	c.trace = l
}

// XUtil exposes the underlying xgbutil handle for interop with a
// rendering layer.
func (c *Connection) XUtil() *xgbutil.XUtil { return c.xu }

// Root returns the root window of the default screen.
func (c *Connection) Root() xproto.Window { return c.root }

// Close disconnects from the X server. Windows created from this
// connection must be closed first.
func (c *Connection) Close() {
	c.xu.Conn().Close()
}

// DefaultScreen returns the screen the connection was opened on.
func (c *Connection) DefaultScreen() int {
	return c.xu.Conn().DefaultScreen
}

// ModeSwitchingAvailable reports whether the mode-switching extension
// was found at connection time.
func (c *Connection) ModeSwitchingAvailable() bool { return c.randrOK }

func (c *Connection) screenInfo(screen int) *xproto.ScreenInfo {
	roots := xproto.Setup(c.xu.Conn()).Roots
	if screen >= 0 && screen < len(roots) {
		return &roots[screen]
	}
	return c.xu.Screen()
}

// CreateWindow creates an unmapped top-level window on the given
// screen with the event mask the pump relies on.
func (c *Connection) CreateWindow(screen int, width, height uint16, transparent bool) (xproto.Window, error) {
	conn := c.xu.Conn()
	info := c.screenInfo(screen)

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	const eventMask = xproto.EventMaskExposure |
		xproto.EventMaskStructureNotify |
		xproto.EventMaskVisibilityChange |
		xproto.EventMaskKeyPress |
		xproto.EventMaskKeyRelease |
		xproto.EventMaskPointerMotion |
		xproto.EventMaskButtonPress |
		xproto.EventMaskButtonRelease |
		xproto.EventMaskKeymapState

	// Value list order follows the bit positions of the mask (low to
	// high): back_pixel, border_pixel, event_mask.
	mask := uint32(xproto.CwBorderPixel | xproto.CwEventMask)
	values := []uint32{0, eventMask}
	if transparent {
		mask |= xproto.CwBackPixel
		values = []uint32{0, 0, eventMask}
	}

	err = xproto.CreateWindowChecked(
		conn,
		info.RootDepth,
		wid,
		info.Root,
		0, 0,
		width, height,
		0,
		xproto.WindowClassInputOutput,
		info.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}

	c.trace.Debug("create-window", map[string]interface{}{
		"id": wid, "width": width, "height": height, "screen": screen,
	})
	return wid, nil
}

// DestroyWindow destroys a window created by CreateWindow.
func (c *Connection) DestroyWindow(id xproto.Window) error {
	return xproto.DestroyWindowChecked(c.xu.Conn(), id).Check()
}

// MapRaised maps the window and raises it to the top of the stack.
func (c *Connection) MapRaised(id xproto.Window) error {
	conn := c.xu.Conn()
	err := xproto.ConfigureWindowChecked(
		conn, id,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check()
	if err != nil {
		return err
	}
	return xproto.MapWindowChecked(conn, id).Check()
}

// Unmap hides the window.
func (c *Connection) Unmap(id xproto.Window) error {
	return xproto.UnmapWindowChecked(c.xu.Conn(), id).Check()
}

// MapState returns the window's current map state, one of the
// xproto.MapState constants.
func (c *Connection) MapState(id xproto.Window) (byte, error) {
	attrs, err := xproto.GetWindowAttributes(c.xu.Conn(), id).Reply()
	if err != nil {
		return 0, err
	}
	return attrs.MapState, nil
}

// SetInputFocus assigns keyboard focus to the window. The window must
// be viewable or the server reports an error.
func (c *Connection) SetInputFocus(id xproto.Window) error {
	return xproto.SetInputFocusChecked(
		c.xu.Conn(),
		xproto.InputFocusParent,
		id,
		xproto.TimeCurrentTime,
	).Check()
}

// InternAtom resolves an atom by name, creating it if needed.
func (c *Connection) InternAtom(name string) (xproto.Atom, error) {
	return xprop.Atm(c.xu, name)
}

// SetProtocols declares which WM protocols the window participates in.
func (c *Connection) SetProtocols(id xproto.Window, protocols ...string) error {
	return icccm.WmProtocolsSet(c.xu, id, protocols)
}

// SetClassHint sets the ICCCM WM_CLASS property.
func (c *Connection) SetClassHint(id xproto.Window, name string) error {
	return icccm.WmClassSet(c.xu, id, &icccm.WmClass{
		Instance: name,
		Class:    name,
	})
}

// SetTitle sets both the legacy and the EWMH window title properties.
func (c *Connection) SetTitle(id xproto.Window, title string) error {
	if err := icccm.WmNameSet(c.xu, id, title); err != nil {
		return err
	}
	return ewmh.WmNameSet(c.xu, id, title)
}

// RequestFullscreen asks the window manager to put the window into the
// fullscreen state via a _NET_WM_STATE client message to the root.
func (c *Connection) RequestFullscreen(id xproto.Window) error {
	return ewmh.WmStateReq(c.xu, id, ewmh.StateAdd, "_NET_WM_STATE_FULLSCREEN")
}

// Geometry queries the window's placement relative to its parent.
func (c *Connection) Geometry(id xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.xu.Conn(), xproto.Drawable(id)).Reply()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{
		X:      geom.X,
		Y:      geom.Y,
		Width:  geom.Width,
		Height: geom.Height,
		Border: geom.BorderWidth,
	}, nil
}

// MoveWindow repositions the window.
func (c *Connection) MoveWindow(id xproto.Window, x, y int16) error {
	return xproto.ConfigureWindowChecked(
		c.xu.Conn(), id,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(int32(x)), uint32(int32(y))},
	).Check()
}

// ResizeWindow changes the window's inner size.
func (c *Connection) ResizeWindow(id xproto.Window, width, height uint16) error {
	return xproto.ConfigureWindowChecked(
		c.xu.Conn(), id,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)},
	).Check()
}

// IMLock returns the mutex serializing input-method open/close across
// windows on this connection.
func (c *Connection) IMLock() *sync.Mutex { return &c.imMu }

// OpenInputMethod loads the keyboard mapping and modifier map and
// returns the input-method resource. Callers hold IMLock around this
// call and around InputMethod.Close.
func (c *Connection) OpenInputMethod() (InputMethod, error) {
	keybind.Initialize(c.xu)
	return &xInputMethod{conn: c}, nil
}

// EnableDetectableAutoRepeat verifies that keyboard control state is
// reachable. The core protocol has no detectable-autorepeat toggle; the
// key translator collapses repeats from event timestamps instead, and
// this round-trip confirms the keyboard is usable at all.
func (c *Connection) EnableDetectableAutoRepeat() error {
	_, err := xproto.GetKeyboardControl(c.xu.Conn()).Reply()
	return err
}

// RefreshKeyboardMapping reloads the keyboard mapping after the server
// reported a mapping change.
func (c *Connection) RefreshKeyboardMapping(ev xproto.MappingNotifyEvent) error {
	c.imMu.Lock()
	keybind.Initialize(c.xu)
	c.imMu.Unlock()
	c.trace.Debug("refresh-keyboard-mapping", map[string]interface{}{
		"request": ev.Request, "count": ev.Count,
	})
	return nil
}

// LoadCursor loads a themed cursor by its cursor-font shape id.
func (c *Connection) LoadCursor(shape uint16) (xproto.Cursor, error) {
	return xcursor.CreateCursor(c.xu, shape)
}

// CreateBlankCursor builds a fully transparent 1x1 cursor for the
// hidden cursor state.
func (c *Connection) CreateBlankCursor(id xproto.Window) (xproto.Cursor, error) {
	conn := c.xu.Conn()

	pid, err := xproto.NewPixmapId(conn)
	if err != nil {
		return 0, err
	}
	if err := xproto.CreatePixmapChecked(conn, 1, pid, xproto.Drawable(id), 1, 1).Check(); err != nil {
		return 0, err
	}
	defer xproto.FreePixmap(conn, pid)

	cid, err := xproto.NewCursorId(conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateCursorChecked(
		conn, cid,
		pid, pid,
		0, 0, 0,
		0, 0, 0,
		0, 0,
	).Check()
	if err != nil {
		return 0, err
	}
	return cid, nil
}

// DefineCursor installs a cursor on the window.
func (c *Connection) DefineCursor(id xproto.Window, cursor xproto.Cursor) error {
	return xproto.ChangeWindowAttributesChecked(
		c.xu.Conn(), id,
		xproto.CwCursor,
		[]uint32{uint32(cursor)},
	).Check()
}

// FreeCursor releases a cursor created by LoadCursor or
// CreateBlankCursor.
func (c *Connection) FreeCursor(cursor xproto.Cursor) error {
	return xproto.FreeCursorChecked(c.xu.Conn(), cursor).Check()
}

// GrabPointer requests an active pointer grab confined to the window,
// asynchronous for both pointer and keyboard. The returned byte is one
// of the xproto.GrabStatus constants.
func (c *Connection) GrabPointer(id xproto.Window, eventMask uint16) (byte, error) {
	reply, err := xproto.GrabPointer(
		c.xu.Conn(),
		false,
		id,
		eventMask,
		xproto.GrabModeAsync, xproto.GrabModeAsync,
		id,
		xproto.CursorNone,
		xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Status, nil
}

// UngrabPointer releases an active pointer grab.
func (c *Connection) UngrabPointer() error {
	return xproto.UngrabPointerChecked(c.xu.Conn(), xproto.TimeCurrentTime).Check()
}

// WarpPointer moves the pointer to window-relative coordinates.
func (c *Connection) WarpPointer(id xproto.Window, x, y int16) error {
	return xproto.WarpPointerChecked(
		c.xu.Conn(),
		xproto.WindowNone, id,
		0, 0, 0, 0,
		x, y,
	).Check()
}

// PollEvent returns the next pending event without blocking, or
// (nil, nil) when none is queued.
func (c *Connection) PollEvent() (xgb.Event, error) {
	ev, xerr := c.xu.Conn().PollForEvent()
	if xerr != nil {
		return nil, xerr
	}
	return wrapGeneric(ev), nil
}

// WaitEvent blocks until an event arrives. It returns (nil, nil) once
// the connection is closed.
func (c *Connection) WaitEvent() (xgb.Event, error) {
	ev, xerr := c.xu.Conn().WaitForEvent()
	if xerr != nil {
		return nil, xerr
	}
	return wrapGeneric(ev), nil
}

// wrapGeneric converts a raw generic extension event into the scoped
// payload form the pump hands to the translator. xgb only exposes the
// payload of extensions it has initialized, so an unrecognized generic
// event carries an empty payload and is dropped by the pump after
// release.
func wrapGeneric(ev xgb.Event) xgb.Event {
	if ge, ok := ev.(xproto.GeGenericEvent); ok {
		return &GenericEvent{Data: ge.Bytes()}
	}
	return ev
}

// SendClientMessage delivers a 32-bit-format client message directly to
// the window with an empty event mask.
func (c *Connection) SendClientMessage(id xproto.Window, typ xproto.Atom, data [5]uint32) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: id,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(data[:]),
	}
	err := xproto.SendEventChecked(
		c.xu.Conn(),
		false,
		id,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
	if err != nil {
		return err
	}
	c.trace.Debug("send-client-message", map[string]interface{}{
		"window": id, "type": typ,
	})
	return nil
}

// Flush forces a round-trip so all buffered requests reach the server
// before it returns.
func (c *Connection) Flush() error {
	_, err := xproto.GetInputFocus(c.xu.Conn()).Reply()
	return err
}

// xInputMethod is the input-method resource over a live connection.
// Opening it loads the keyboard mapping; contexts bind it per window.
type xInputMethod struct {
	conn *Connection
}

func (im *xInputMethod) NewContext(win xproto.Window) (InputContext, error) {
	return &xInputContext{conn: im.conn, win: win}, nil
}

func (im *xInputMethod) Close() error { return nil }

type xInputContext struct {
	conn *Connection
	win  xproto.Window
}

func (ic *xInputContext) Translator() Translator {
	return newKeyTranslator(ic.conn, ic.win)
}

func (ic *xInputContext) Close() error { return nil }
