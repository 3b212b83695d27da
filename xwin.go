// Package xwin provides the portable types shared by the platform
// backends: window configuration, the application event stream, and
// cursor state. The X11 backend lives in the x11 subpackage.
package xwin
