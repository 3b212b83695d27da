package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xcursor"

	"github.com/1broseidon/xwin"
)

// grabEventMask is the pointer event selection used while the cursor is
// grabbed.
const grabEventMask = uint16(xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskPointerMotionHint |
	xproto.EventMaskButton1Motion |
	xproto.EventMaskButton2Motion |
	xproto.EventMaskButton3Motion |
	xproto.EventMaskButton4Motion |
	xproto.EventMaskButton5Motion |
	xproto.EventMaskButtonMotion |
	xproto.EventMaskKeymapState)

// CursorState returns the current pointer interaction mode.
func (w *Window) CursorState() xwin.CursorState {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	return w.cursor
}

// SetCursorState transitions the pointer to the given mode. Setting the
// current mode again is a no-op. A transition first undoes the current
// mode, so a failure to enter the new one leaves the pointer in the
// normal mode.
func (w *Window) SetCursorState(state xwin.CursorState) error {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()

	if state == w.cursor {
		return nil
	}

	switch w.cursor {
	case xwin.CursorHidden:
		// Reverting to the parent's cursor unhides it.
		if err := w.srv.DefineCursor(w.id, xproto.CursorNone); err != nil {
			return fmt.Errorf("failed to restore cursor: %w", err)
		}
	case xwin.CursorGrabbed:
		if err := w.srv.UngrabPointer(); err != nil {
			return fmt.Errorf("failed to release pointer grab: %w", err)
		}
	}
	w.cursor = xwin.CursorNormal

	switch state {
	case xwin.CursorNormal:
		return w.srv.Flush()

	case xwin.CursorHidden:
		cursor, err := w.srv.CreateBlankCursor(w.id)
		if err != nil {
			return fmt.Errorf("failed to create blank cursor: %w", err)
		}
		if err := w.srv.DefineCursor(w.id, cursor); err != nil {
			return fmt.Errorf("failed to hide cursor: %w", err)
		}
		if err := w.srv.FreeCursor(cursor); err != nil {
			return fmt.Errorf("failed to free blank cursor: %w", err)
		}
		if err := w.srv.Flush(); err != nil {
			return err
		}
		w.cursor = xwin.CursorHidden
		return nil

	case xwin.CursorGrabbed:
		status, err := w.srv.GrabPointer(w.id, grabEventMask)
		if err != nil {
			return fmt.Errorf("pointer grab failed: %w", err)
		}
		switch status {
		case xproto.GrabStatusSuccess:
			w.cursor = xwin.CursorGrabbed
			return nil
		case xproto.GrabStatusAlreadyGrabbed,
			xproto.GrabStatusInvalidTime,
			xproto.GrabStatusNotViewable,
			xproto.GrabStatusFrozen:
			return &GrabError{Status: status}
		default:
			panic(fmt.Sprintf("x11: unexpected pointer grab status %d", status))
		}

	default:
		panic(fmt.Sprintf("x11: unknown cursor state %d", state))
	}
}

// SetCursor changes the cursor shape shown over the window.
func (w *Window) SetCursor(icon xwin.CursorIcon) error {
	cursor, err := w.srv.LoadCursor(fontCursorFor(icon))
	if err != nil {
		return fmt.Errorf("failed to load cursor: %w", err)
	}
	if err := w.srv.DefineCursor(w.id, cursor); err != nil {
		return fmt.Errorf("failed to set cursor: %w", err)
	}
	if err := w.srv.FreeCursor(cursor); err != nil {
		return fmt.Errorf("failed to free cursor: %w", err)
	}
	return w.srv.Flush()
}

// SetCursorPosition warps the pointer to window coordinates.
func (w *Window) SetCursorPosition(x, y int) error {
	if err := w.srv.WarpPointer(w.id, int16(x), int16(y)); err != nil {
		return fmt.Errorf("failed to warp pointer: %w", err)
	}
	return w.srv.Flush()
}

// fontCursorFor maps a portable icon to the nearest cursor-font shape.
// Icons with no close match fall back to the plain pointer.
func fontCursorFor(icon xwin.CursorIcon) uint16 {
	switch icon {
	case xwin.IconCrosshair:
		return xcursor.Crosshair
	case xwin.IconHand, xwin.IconAlias:
		return xcursor.Hand2
	case xwin.IconGrab, xwin.IconGrabbing, xwin.IconMove, xwin.IconAllScroll:
		return xcursor.Fleur
	case xwin.IconHelp:
		return xcursor.QuestionArrow
	case xwin.IconProgress, xwin.IconWait:
		return xcursor.Watch
	case xwin.IconText, xwin.IconVerticalText:
		return xcursor.XTerm
	case xwin.IconNotAllowed, xwin.IconNoDrop:
		return xcursor.Circle
	case xwin.IconCell, xwin.IconCopy:
		return xcursor.Plus
	case xwin.IconZoomIn, xwin.IconZoomOut:
		return xcursor.Sizing
	case xwin.IconEResize:
		return xcursor.RightSide
	case xwin.IconWResize:
		return xcursor.LeftSide
	case xwin.IconNResize:
		return xcursor.TopSide
	case xwin.IconSResize:
		return xcursor.BottomSide
	case xwin.IconNeResize:
		return xcursor.TopRightCorner
	case xwin.IconNwResize:
		return xcursor.TopLeftCorner
	case xwin.IconSeResize, xwin.IconNwseResize:
		return xcursor.BottomRightCorner
	case xwin.IconSwResize, xwin.IconNeswResize:
		return xcursor.BottomLeftCorner
	case xwin.IconEwResize, xwin.IconColResize:
		return xcursor.SBHDoubleArrow
	case xwin.IconNsResize, xwin.IconRowResize:
		return xcursor.SBVDoubleArrow
	default:
		return xcursor.LeftPtr
	}
}
