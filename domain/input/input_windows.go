//go:build windows

package input

import (
	"log/slog"

	"golang.org/x/sys/windows"
)

const (
	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
)

// systemInput sends key events with keybd_event.
type systemInput struct {
	logger     *slog.Logger
	keybdEvent *windows.LazyProc
}

func newSystemInput(logger *slog.Logger) (KeyInput, error) {
	user32 := windows.NewLazySystemDLL("user32.dll")
	proc := user32.NewProc("keybd_event")
	if err := proc.Find(); err != nil {
		return nil, err
	}
	return &systemInput{logger: logger, keybdEvent: proc}, nil
}

func (s *systemInput) KeyDown(key string) error { return s.send(key, 0) }

func (s *systemInput) KeyUp(key string) error { return s.send(key, keyeventfKeyUp) }

func (s *systemInput) send(key string, flags uintptr) error {
	vk, err := ParseVK(key)
	if err != nil {
		return err
	}
	if IsExtended(vk) {
		flags |= keyeventfExtendedKey
	}
	_, _, _ = s.keybdEvent.Call(uintptr(vk), 0, flags, 0)
	if s.logger != nil {
		s.logger.Debug("key event", "key", key, "vk", vk, "up", flags&keyeventfKeyUp != 0)
	}
	return nil
}
