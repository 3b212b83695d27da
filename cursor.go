package xwin

// CursorState is the interaction mode of the pointer within a window.
// The three states are mutually exclusive.
type CursorState int

const (
	// CursorNormal shows the regular cursor with free movement.
	CursorNormal CursorState = iota
	// CursorHidden keeps free movement but makes the cursor invisible
	// while it is over the window.
	CursorHidden
	// CursorGrabbed confines the pointer to the window and routes all
	// pointer events to it.
	CursorGrabbed
)

func (s CursorState) String() string {
	switch s {
	case CursorNormal:
		return "normal"
	case CursorHidden:
		return "hidden"
	case CursorGrabbed:
		return "grabbed"
	default:
		return "unknown"
	}
}

// CursorIcon names a cursor shape from a fixed portable set. Backends
// map each icon to the closest native cursor; icons with no faithful
// native equivalent fall back to the default pointer.
type CursorIcon int

const (
	IconDefault CursorIcon = iota
	IconArrow
	IconCrosshair
	IconHand
	IconGrab
	IconGrabbing
	IconHelp
	IconMove
	IconProgress
	IconWait
	IconText
	IconVerticalText
	IconNotAllowed
	IconNoDrop
	IconCell
	IconAlias
	IconCopy
	IconContextMenu
	IconAllScroll
	IconZoomIn
	IconZoomOut

	IconEResize
	IconNResize
	IconNeResize
	IconNwResize
	IconSResize
	IconSeResize
	IconSwResize
	IconWResize
	IconEwResize
	IconNsResize
	IconNwseResize
	IconNeswResize
	IconColResize
	IconRowResize
)
