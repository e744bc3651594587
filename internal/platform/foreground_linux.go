//go:build linux

package platform

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"
)

// X11Foreground reports the WM_CLASS of the window named by the root
// window's _NET_ACTIVE_WINDOW property.
type X11Foreground struct {
	logger *zap.Logger

	mu         sync.Mutex
	conn       *xgb.Conn
	root       xproto.Window
	activeAtom xproto.Atom
}

// NewForeground returns the frontmost-application lookup for this platform
func NewForeground(logger *zap.Logger) *X11Foreground {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &X11Foreground{logger: logger}
}

func (f *X11Foreground) connect() error {
	if f.conn != nil {
		return nil
	}
	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	name := "_NET_ACTIVE_WINDOW"
	atom, err := xproto.InternAtom(conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to intern %s: %w", name, err)
	}
	f.conn = conn
	f.root = xproto.Setup(conn).DefaultScreen(conn).Root
	f.activeAtom = atom.Atom
	return nil
}

// Frontmost returns the class name of the active window, or "" when there
// is none.
func (f *X11Foreground) Frontmost() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.connect(); err != nil {
		return "", err
	}

	active, err := xproto.GetProperty(f.conn, false, f.root, f.activeAtom,
		xproto.GetPropertyTypeAny, 0, 1).Reply()
	if err != nil {
		f.reset()
		return "", fmt.Errorf("failed to read active window: %w", err)
	}
	if len(active.Value) < 4 {
		return "", nil
	}
	window := xproto.Window(xgb.Get32(active.Value))
	if window == 0 {
		return "", nil
	}

	class, err := xproto.GetProperty(f.conn, false, window, xproto.AtomWmClass,
		xproto.GetPropertyTypeAny, 0, 256).Reply()
	if err != nil {
		return "", fmt.Errorf("failed to read WM_CLASS: %w", err)
	}
	return parseWMClass(class.Value)
}

// Close releases the X connection
func (f *X11Foreground) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

func (f *X11Foreground) reset() {
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

// parseWMClass returns the class half of a "instance\0class\0" value,
// falling back to the instance.
func parseWMClass(value []byte) (string, error) {
	parts := bytes.Split(bytes.TrimRight(value, "\x00"), []byte{0})
	if len(parts) == 0 || len(parts[0]) == 0 {
		return "", errors.New("empty WM_CLASS")
	}
	if len(parts) > 1 && len(parts[1]) > 0 {
		return string(parts[1]), nil
	}
	return string(parts[0]), nil
}
