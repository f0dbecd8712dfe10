//go:build !linux

package gpio

import (
	"fmt"
	"runtime"

	"github.com/core-tools/hsu-buttons/pkg/errors"
	"github.com/core-tools/hsu-buttons/pkg/logging"
)

// Chip is unavailable outside linux; the GPIO character device is a linux ABI.
type Chip struct{}

func OpenChip(name string, consumer string, logger logging.Logger) (*Chip, error) {
	return nil, errors.NewGPIOError("unable to access GPIO", fmt.Errorf("GPIO character devices are not supported on %s", runtime.GOOS)).
		WithContext("chip", name)
}

func (c *Chip) Open(config LineConfig) (EdgeSource, error) {
	return nil, errors.NewPinError("unable to access GPIO pin", nil).WithContext("line", config.Line)
}

func (c *Chip) Close() error {
	return nil
}
