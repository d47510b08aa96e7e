//go:build !windows

package capture

import "fmt"

func newGDIBackend() (Backend, error) {
	return nil, fmt.Errorf("capture: backend %q is only available on windows", BackendGDI)
}
