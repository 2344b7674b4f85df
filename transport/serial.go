package transport

import (
	"fmt"

	"github.com/juju/errors"
	"go.bug.st/serial"
)

type serialPort struct {
	serial.Port
	path string
	baud int
}

// OpenSerial opens portable serial port 8N1.
func OpenSerial(path string, baud int) (Transport, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, errors.Annotatef(err, "serial open path=%s baud=%d", path, baud)
	}
	// discard boot garbage
	_ = port.ResetInputBuffer()
	return &serialPort{Port: port, path: path, baud: baud}, nil
}

func (s *serialPort) String() string { return fmt.Sprintf("serial:%s@%d", s.path, s.baud) }

// SerialPorts lists available port names.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	return ports, errors.Annotate(err, "serial ports list")
}
