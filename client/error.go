package client

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/temoto/sonar/message"
)

var ErrClosed = errors.New("connection closed")

func IsClosed(err error) bool { return errors.Cause(err) == ErrClosed }

// NackError is device refusal of command.
type NackError struct {
	Reason    string
	NackedID  uint16
	CommandID uint16
}

func newNackError(cmd uint16, m message.Nack) *NackError {
	return &NackError{Reason: m.Reason, NackedID: m.NackedID, CommandID: cmd}
}

func (e *NackError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("nack command=%d nacked=%d", e.CommandID, e.NackedID)
	}
	return fmt.Sprintf("nack command=%d nacked=%d reason=%s", e.CommandID, e.NackedID, e.Reason)
}

func IsNack(err error) (*NackError, bool) {
	ne, ok := errors.Cause(err).(*NackError)
	return ne, ok
}
