package input

import (
	"fmt"
	"strconv"
	"strings"
)

// Windows virtual-key codes for named keys.
var namedKeys = map[string]byte{
	"backspace": 0x08,
	"tab":       0x09,
	"enter":     0x0D,
	"return":    0x0D,
	"shift":     0x10,
	"ctrl":      0x11,
	"alt":       0x12,
	"pause":     0x13,
	"capslock":  0x14,
	"esc":       0x1B,
	"escape":    0x1B,
	"space":     0x20,
	"pageup":    0x21,
	"pagedown":  0x22,
	"end":       0x23,
	"home":      0x24,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"insert":    0x2D,
	"delete":    0x2E,
	"del":       0x2E,
}

// extendedKeys need KEYEVENTF_EXTENDEDKEY so they are not read as numpad keys.
var extendedKeys = map[byte]bool{
	0x21: true, 0x22: true, 0x23: true, 0x24: true,
	0x25: true, 0x26: true, 0x27: true, 0x28: true,
	0x2D: true, 0x2E: true,
}

// ParseVK converts a key name ("up", "space", "a", "7", "f5") into a Windows
// virtual-key code. Names are case-insensitive.
func ParseVK(key string) (byte, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	if vk, ok := namedKeys[k]; ok {
		return vk, nil
	}
	if len(k) == 1 {
		c := k[0]
		switch {
		case c >= 'a' && c <= 'z':
			return c - 'a' + 'A', nil
		case c >= '0' && c <= '9':
			return c, nil
		}
	}
	if len(k) >= 2 && k[0] == 'f' {
		if n, err := strconv.Atoi(k[1:]); err == nil && n >= 1 && n <= 12 {
			return byte(0x70 + n - 1), nil // VK_F1=0x70
		}
	}
	return 0, fmt.Errorf("input: unknown key %q", key)
}

// IsExtended reports whether vk is sent with the extended-key flag.
func IsExtended(vk byte) bool { return extendedKeys[vk] }
