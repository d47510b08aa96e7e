//go:build !windows

package input

import "log/slog"

func newSystemInput(*slog.Logger) (KeyInput, error) {
	return nil, ErrUnsupported
}
