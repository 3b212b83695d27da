package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// crtcState is the RandR state needed to change or restore one output's
// mode: the CRTC itself, its placement, and the outputs driven by it.
type crtcState struct {
	crtc            randr.Crtc
	x, y            int16
	rotation        uint16
	mode            randr.Mode
	outputs         []randr.Output
	configTimestamp xproto.Timestamp
}

func (c *Connection) crtcForScreen(screen int) (*crtcState, *randr.GetScreenResourcesReply, error) {
	conn := c.xu.Conn()

	resources, err := randr.GetScreenResources(conn, c.root).Reply()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get screen resources: %w", err)
	}
	if screen < 0 || screen >= len(resources.Crtcs) {
		return nil, nil, fmt.Errorf("no such screen: %d", screen)
	}

	crtc := resources.Crtcs[screen]
	info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get crtc info: %w", err)
	}

	return &crtcState{
		crtc:            crtc,
		x:               info.X,
		y:               info.Y,
		rotation:        info.Rotation,
		mode:            info.Mode,
		outputs:         info.Outputs,
		configTimestamp: resources.ConfigTimestamp,
	}, resources, nil
}

// DisplayModes enumerates the modes available on a screen along with
// the mode currently active on it.
func (c *Connection) DisplayModes(screen int) (DisplayMode, []DisplayMode, error) {
	state, resources, err := c.crtcForScreen(screen)
	if err != nil {
		return DisplayMode{}, nil, err
	}

	var current DisplayMode
	modes := make([]DisplayMode, 0, len(resources.Modes))
	for _, m := range resources.Modes {
		dm := DisplayMode{ID: m.Id, Width: m.Width, Height: m.Height}
		modes = append(modes, dm)
		if randr.Mode(m.Id) == state.mode {
			current = dm
		}
	}
	return current, modes, nil
}

// SwitchMode switches the screen's output to the given display mode,
// keeping the current placement and rotation.
func (c *Connection) SwitchMode(screen int, mode DisplayMode) error {
	state, _, err := c.crtcForScreen(screen)
	if err != nil {
		return err
	}

	_, err = randr.SetCrtcConfig(
		c.xu.Conn(),
		state.crtc,
		xproto.TimeCurrentTime,
		state.configTimestamp,
		state.x, state.y,
		randr.Mode(mode.ID),
		state.rotation,
		state.outputs,
	).Reply()
	if err != nil {
		return fmt.Errorf("failed to switch mode: %w", err)
	}

	c.trace.Debug("switch-mode", map[string]interface{}{
		"screen": screen, "width": mode.Width, "height": mode.Height,
	})
	return nil
}

// ResetViewport moves the screen's output back to the origin, the
// equivalent of resetting the viewport after a mode switch.
func (c *Connection) ResetViewport(screen int) error {
	state, _, err := c.crtcForScreen(screen)
	if err != nil {
		return err
	}
	if state.x == 0 && state.y == 0 {
		return nil
	}

	_, err = randr.SetCrtcConfig(
		c.xu.Conn(),
		state.crtc,
		xproto.TimeCurrentTime,
		state.configTimestamp,
		0, 0,
		state.mode,
		state.rotation,
		state.outputs,
	).Reply()
	if err != nil {
		return fmt.Errorf("failed to reset viewport: %w", err)
	}
	return nil
}
