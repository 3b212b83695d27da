package xwin

// Event is one entry in the ordered application event stream produced
// by a backend's event pump. The concrete types below are the full set
// a consumer can observe.
type Event interface {
	isEvent()
}

// Closed reports that the window manager asked the window to close.
// It is emitted at most once per window.
type Closed struct{}

// Awakened reports a wake-up request, typically sent through a Proxy
// from another goroutine to unblock a waiting event loop.
type Awakened struct{}

// Resized reports a new inner size. Consecutive duplicate sizes are
// suppressed by the pump, so two adjacent Resized events always carry
// different dimensions.
type Resized struct {
	Width  uint32
	Height uint32
}

// Refresh reports that part of the window was exposed and should be
// redrawn.
type Refresh struct{}

// KeyboardInput reports a key press or release.
type KeyboardInput struct {
	Pressed  bool
	Scancode uint8
	Key      Key
	Mods     Modifiers
}

// ReceivedCharacter reports a character produced by a key press, after
// keymap and modifier resolution. One key press may produce several.
type ReceivedCharacter struct {
	Char rune
}

// MouseMoved reports a pointer position change in window coordinates.
type MouseMoved struct {
	X int32
	Y int32
}

// MouseInput reports a pointer button press or release.
type MouseInput struct {
	Pressed bool
	Button  MouseButton
}

// MouseWheel reports scroll motion.
type MouseWheel struct {
	DeltaX float64
	DeltaY float64
}

func (Closed) isEvent()            {}
func (Awakened) isEvent()          {}
func (Resized) isEvent()           {}
func (Refresh) isEvent()           {}
func (KeyboardInput) isEvent()     {}
func (ReceivedCharacter) isEvent() {}
func (MouseMoved) isEvent()        {}
func (MouseInput) isEvent()        {}
func (MouseWheel) isEvent()        {}

// Key identifies a key by its X keysym value. Only the keys the
// library itself needs are named; consumers can compare against any
// keysym constant directly.
type Key uint32

const (
	KeyUnknown Key = 0

	KeyEscape    Key = 0xff1b
	KeyReturn    Key = 0xff0d
	KeyKPEnter   Key = 0xff8d
	KeyTab       Key = 0xff09
	KeyBackspace Key = 0xff08
	KeySpace     Key = 0x0020
	KeyLeft      Key = 0xff51
	KeyUp        Key = 0xff52
	KeyRight     Key = 0xff53
	KeyDown      Key = 0xff54
)

// Modifiers is the modifier key state attached to an input event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Logo  bool
}

// MouseButton identifies a pointer button.
type MouseButton uint8

const (
	MouseLeft   MouseButton = 1
	MouseMiddle MouseButton = 2
	MouseRight  MouseButton = 3
)
