package transport

import (
	"fmt"
	"os"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

type tty struct {
	*os.File
	path string
	baud int
}

// OpenTTY opens Linux serial device in raw 8N1 mode with arbitrary baud rate
// via termios2 BOTHER.
func OpenTTY(path string, baud int) (Transport, error) {
	f, err := os.OpenFile(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0600)
	if err != nil {
		return nil, errors.Annotatef(err, "tty open path=%s", path)
	}
	if err = ttyRaw(int(f.Fd()), baud); err != nil {
		f.Close()
		return nil, errors.Annotatef(err, "tty termios path=%s baud=%d", path, baud)
	}
	return &tty{File: f, path: path, baud: baud}, nil
}

func (t *tty) String() string { return fmt.Sprintf("tty:%s@%d", t.path, t.baud) }

func ttyRaw(fd int, baud int) error {
	t2, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		return errors.Annotate(err, "TCGETS2")
	}
	t2.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t2.Oflag &^= unix.OPOST
	t2.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t2.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t2.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD | unix.BOTHER
	t2.Ispeed = uint32(baud)
	t2.Ospeed = uint32(baud)
	// blocking read of at least 1 byte, os.File poller handles wakeup on Close
	t2.Cc[unix.VMIN] = 1
	t2.Cc[unix.VTIME] = 0
	// flush input and output
	if err = unix.IoctlSetTermios(fd, unix.TCSETSF2, t2); err != nil {
		return errors.Annotate(err, "TCSETSF2")
	}
	return nil
}
