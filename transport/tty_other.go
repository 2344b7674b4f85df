//go:build !linux

package transport

import (
	"github.com/juju/errors"
)

func OpenTTY(path string, baud int) (Transport, error) {
	return nil, errors.NotSupportedf("tty transport on this OS, use serial")
}
