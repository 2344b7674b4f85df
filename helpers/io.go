package helpers

import (
	"expvar"
	"io"
)

const maxZeroWrites = 16

// WriteAll repeats partial writes until b is consumed.
// Some serial drivers return n=0 without error when output queue is full,
// after maxZeroWrites in a row that is io.ErrShortWrite.
func WriteAll(w io.Writer, b []byte) error {
	zero := 0
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			if zero++; zero >= maxZeroWrites {
				return io.ErrShortWrite
			}
			continue
		}
		zero = 0
		b = b[n:]
	}
	return nil
}

// CountReader adds bytes read from R to V, including garbage between frames.
type CountReader struct {
	R io.Reader
	V *expvar.Int
}

func (c CountReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	if n > 0 {
		c.V.Add(int64(n))
	}
	return n, err
}

type CountWriter struct {
	W io.Writer
	V *expvar.Int
}

func (c CountWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	if n > 0 {
		c.V.Add(int64(n))
	}
	return n, err
}
