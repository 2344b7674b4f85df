package helpers

import (
	"bytes"
	"expvar"
	"io"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkWriter accepts at most n bytes per call, n=0 accepts nothing.
type chunkWriter struct {
	buf   bytes.Buffer
	n     int
	err   error
	calls int
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.err != nil {
		return 0, w.err
	}
	if len(p) > w.n {
		p = p[:w.n]
	}
	return w.buf.Write(p)
}

func TestWriteAll(t *testing.T) {
	t.Parallel()
	frame := MustHex("42520400ea030000d83b05009d02")

	type Case struct {
		name   string
		w      *chunkWriter
		expect error
		calls  int
	}
	cases := []Case{
		{"whole", &chunkWriter{n: 64}, nil, 1},
		{"chunks", &chunkWriter{n: 3}, nil, 5},
		{"byte", &chunkWriter{n: 1}, nil, len(frame)},
		{"stuck", &chunkWriter{n: 0}, io.ErrShortWrite, maxZeroWrites},
		{"error", &chunkWriter{n: 8, err: errors.New("port closed")}, nil, 1},
	}
	RandUnix().Shuffle(len(cases), func(i int, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			err := WriteAll(c.w, frame)
			switch {
			case c.w.err != nil:
				assert.Equal(t, c.w.err, err)
			case c.expect != nil:
				assert.Equal(t, c.expect, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, frame, c.w.buf.Bytes())
			}
			assert.Equal(t, c.calls, c.w.calls)
		})
	}
	assert.NoError(t, WriteAll(&chunkWriter{}, nil))
}

func TestCountReader(t *testing.T) {
	t.Parallel()
	var counter expvar.Int
	r := CountReader{R: strings.NewReader(strings.Repeat(".", 20)), V: &counter}
	buf := make([]byte, 17)
	_, _ = r.Read(buf[:0])
	assert.Equal(t, int64(0), counter.Value())
	_, _ = r.Read(buf[:5])
	assert.Equal(t, int64(5), counter.Value())
	n, err := r.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 15, n)
	_, err = r.Read(buf)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(20), counter.Value())
}

func TestCountWriter(t *testing.T) {
	t.Parallel()
	var counter expvar.Int
	cw := &chunkWriter{n: 4}
	w := CountWriter{W: cw, V: &counter}
	require.NoError(t, WriteAll(w, make([]byte, 10)))
	assert.Equal(t, int64(10), counter.Value())
	assert.Equal(t, 3, cw.calls)
}
