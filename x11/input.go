package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/1broseidon/xwin"
)

// keyTranslator turns raw key records into keyboard and character
// events. Auto-repeat pairs never reach it: the pump resolves them
// with a one-event lookahead, so every record here is translated
// immediately.
type keyTranslator struct {
	conn *Connection
	win  xproto.Window

	// Keymap lookups, swappable so translation logic is testable
	// without a live keyboard mapping.
	lookupKeysym func(code xproto.Keycode) uint32
	lookupString func(mods uint16, code xproto.Keycode) string
}

func newKeyTranslator(conn *Connection, win xproto.Window) *keyTranslator {
	t := &keyTranslator{conn: conn, win: win}
	t.lookupKeysym = func(code xproto.Keycode) uint32 {
		return uint32(keybind.KeysymGet(conn.xu, code, 0))
	}
	t.lookupString = func(mods uint16, code xproto.Keycode) string {
		return keybind.LookupString(conn.xu, mods, code)
	}
	return t
}

func (t *keyTranslator) TranslateKey(ev xproto.KeyPressEvent, pressed bool) []xwin.Event {
	out := []xwin.Event{t.keyEvent(ev, pressed)}
	if !pressed {
		return out
	}
	for _, r := range t.lookupString(ev.State, ev.Detail) {
		out = append(out, xwin.ReceivedCharacter{Char: r})
	}
	return out
}

// TranslateGeneric ignores extension payloads: the connection selects
// the pointer stream through core events, so no generic-event extension
// is ever initialized and the payloads carry nothing we can decode.
func (t *keyTranslator) TranslateGeneric(ev *GenericEvent) (xwin.Event, bool) {
	return nil, false
}

func (t *keyTranslator) keyEvent(ev xproto.KeyPressEvent, pressed bool) xwin.Event {
	return xwin.KeyboardInput{
		Pressed:  pressed,
		Scancode: uint8(ev.Detail),
		Key:      xwin.Key(t.lookupKeysym(ev.Detail)),
		Mods:     modifiersFromState(ev.State),
	}
}

func modifiersFromState(state uint16) xwin.Modifiers {
	return xwin.Modifiers{
		Shift: state&xproto.ModMaskShift != 0,
		Ctrl:  state&xproto.ModMaskControl != 0,
		Alt:   state&xproto.ModMask1 != 0,
		Logo:  state&xproto.ModMask4 != 0,
	}
}
