package x11

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/xwin"
)

// Creation failures with a specific, testable cause.
var (
	// ErrNoSuitableMode means a fullscreen window was requested but no
	// display mode at least as large as the requested dimensions exists.
	ErrNoSuitableMode = errors.New("could not find a suitable graphics mode")

	// ErrWindowNeverViewable means a visible window never reached the
	// viewable map state within the creation deadline, so input focus
	// could not be assigned.
	ErrWindowNeverViewable = errors.New("window never became viewable")
)

// GrabError reports a failed pointer grab. The pointer may be grabbed
// by another client, the grab may target an unviewable window, or the
// device may be frozen; all of these are recoverable from the caller's
// point of view and leave the cursor state unchanged.
type GrabError struct {
	Status byte
}

func (e *GrabError) Error() string {
	return fmt.Sprintf("cursor could not be grabbed: %s", grabStatusString(e.Status))
}

func grabStatusString(status byte) string {
	switch status {
	case xproto.GrabStatusAlreadyGrabbed:
		return "already grabbed"
	case xproto.GrabStatusInvalidTime:
		return "invalid time"
	case xproto.GrabStatusNotViewable:
		return "not viewable"
	case xproto.GrabStatusFrozen:
		return "frozen"
	default:
		return fmt.Sprintf("status %d", status)
	}
}

// Geometry is the server-reported placement of a window.
type Geometry struct {
	X, Y          int16
	Width, Height uint16
	Border        uint16
}

// DisplayMode is one mode a screen can be switched to.
type DisplayMode struct {
	ID     uint32
	Width  uint16
	Height uint16
}

// GenericEvent carries the auxiliary payload of a generic extension
// event. The payload is a scoped acquisition: Release must be called on
// every path once the event has been examined, and is safe to call more
// than once.
//
// Over a live connection Extension and EvType are currently always
// zero and Data is empty, because no generic-event extension is
// initialized and xgb's xproto.GeGenericEvent carries neither field.
// The pump therefore drops every live payload before translation. A
// translator that needs real payloads (XI2, for example) also needs
// the extension initialized and these fields populated in the
// connection's event wrapping.
type GenericEvent struct {
	Extension byte
	EvType    uint16
	Data      []byte

	released  bool
	onRelease func()
}

// Release frees the payload. Idempotent.
func (g *GenericEvent) Release() {
	if g.released {
		return
	}
	g.released = true
	if g.onRelease != nil {
		g.onRelease()
	}
}

// Bytes implements xgb.Event.
func (g *GenericEvent) Bytes() []byte { return g.Data }

func (g *GenericEvent) String() string {
	return fmt.Sprintf("GenericEvent {Extension: %d, EvType: %d}", g.Extension, g.EvType)
}

// InputMethod is the per-connection text-input resource. Opening one is
// not safe concurrently across windows; callers hold the connection's
// input-method lock around OpenInputMethod and Close.
type InputMethod interface {
	NewContext(win xproto.Window) (InputContext, error)
	Close() error
}

// InputContext is the per-window binding of an InputMethod. It owns the
// translator that turns raw input events into application events.
type InputContext interface {
	Translator() Translator
	Close() error
}

// Translator converts raw input protocol events into zero or more
// application events. Implementations own their modifier and repeat
// tracking state across calls; the window serializes access.
type Translator interface {
	// TranslateKey handles one key press or release record. The
	// returned events are queued in order.
	TranslateKey(ev xproto.KeyPressEvent, pressed bool) []xwin.Event

	// TranslateGeneric handles one extension event payload. The pump
	// releases the payload after the call returns.
	TranslateGeneric(ev *GenericEvent) (xwin.Event, bool)
}

// server is the capability surface the window layer needs from the
// display connection. *Connection implements it over the X protocol;
// tests substitute a scripted fake. Every method that can fail at the
// protocol level reports the failure synchronously through its error
// return.
type server interface {
	// Screens and display modes.
	DefaultScreen() int
	ModeSwitchingAvailable() bool
	DisplayModes(screen int) (current DisplayMode, modes []DisplayMode, err error)
	SwitchMode(screen int, mode DisplayMode) error
	ResetViewport(screen int) error

	// Window lifecycle.
	CreateWindow(screen int, width, height uint16, transparent bool) (xproto.Window, error)
	DestroyWindow(id xproto.Window) error
	MapRaised(id xproto.Window) error
	Unmap(id xproto.Window) error
	MapState(id xproto.Window) (byte, error)
	SetInputFocus(id xproto.Window) error

	// Atoms, protocols, and properties.
	InternAtom(name string) (xproto.Atom, error)
	SetProtocols(id xproto.Window, protocols ...string) error
	SetClassHint(id xproto.Window, name string) error
	SetTitle(id xproto.Window, title string) error
	RequestFullscreen(id xproto.Window) error

	// Geometry.
	Geometry(id xproto.Window) (Geometry, error)
	MoveWindow(id xproto.Window, x, y int16) error
	ResizeWindow(id xproto.Window, width, height uint16) error

	// Input.
	IMLock() *sync.Mutex
	OpenInputMethod() (InputMethod, error)
	EnableDetectableAutoRepeat() error
	RefreshKeyboardMapping(ev xproto.MappingNotifyEvent) error

	// Cursors and pointer.
	LoadCursor(shape uint16) (xproto.Cursor, error)
	CreateBlankCursor(id xproto.Window) (xproto.Cursor, error)
	DefineCursor(id xproto.Window, cursor xproto.Cursor) error
	FreeCursor(cursor xproto.Cursor) error
	GrabPointer(id xproto.Window, eventMask uint16) (byte, error)
	UngrabPointer() error
	WarpPointer(id xproto.Window, x, y int16) error

	// Event stream and client messages. PollEvent returns (nil, nil)
	// when no event is pending; WaitEvent returns (nil, nil) once the
	// connection is closed.
	PollEvent() (xgb.Event, error)
	WaitEvent() (xgb.Event, error)
	SendClientMessage(id xproto.Window, typ xproto.Atom, data [5]uint32) error
	Flush() error
}
