package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/helpers/cli"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/message/ping1d"
)

func newTestSession(t testing.TB) (*session, *bytes.Buffer) {
	out := &bytes.Buffer{}
	log := log2.NewTest(t, log2.LInfo)
	s, err := newSimSession(client.Options{
		Log:            log,
		Family:         ping1d.NewFamily("ping1d"),
		RequestTimeout: 5 * time.Second,
	}, log, out)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, out
}

func TestScript(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, out := newTestSession(t)

	const script = `
# set and read back
speed 343000
get speed_of_sound device_id
raw set_ping_interval 3200
get ping_interval
watch distance_simple 2
streaming
info
nope
`
	cli.RunLines(strings.NewReader(script), s.Exec(ctx))
	text := out.String()
	assert.Contains(t, text, "speed_of_sound=343000 mm/s")
	assert.Contains(t, text, "SpeedOfSound:343000")
	assert.Contains(t, text, "DeviceID:1")
	assert.Contains(t, text, "< ack ")
	assert.Contains(t, text, "PingInterval:50")
	assert.Equal(t, 2, strings.Count(text, "< distance_simple {Distance:"))
	assert.Contains(t, text, "streaming: \n")
	for _, name := range []string{"device_information", "firmware_version", "general_info", "processor_temperature", "protocol_version", "voltage_5"} {
		assert.Contains(t, text, name+"=")
	}
	assert.Contains(t, text, "voltage_5=5012")
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestSession(t)

	type Case struct {
		line  string
		check func(error) bool
	}
	cases := []Case{
		{"nope", errors.IsNotFound},
		{"get", errors.IsNotValid},
		{"get no_such_message", errors.IsNotFound},
		{"watch profile 0", errors.IsNotValid},
		{"raw 1202 zz", errors.IsNotValid},
		{"log verbose", errors.IsNotValid},
		{"sleep x", errors.IsNotValid},
		{"get 4242", func(err error) bool { _, ok := client.IsNack(err); return ok }},
	}
	for _, c := range cases {
		words := strings.Fields(c.line)
		err := s.run(ctx, words[0], words[1:])
		require.Error(t, err, c.line)
		assert.True(t, c.check(err), "line=%s err=%v", c.line, err)
	}
}

func TestResolveID(t *testing.T) {
	t.Parallel()
	f := ping1d.NewFamily("ping1d")
	id, err := resolveID(f, "profile")
	require.NoError(t, err)
	assert.Equal(t, ping1d.IDProfile, id)
	id, err = resolveID(f, "4242")
	require.NoError(t, err)
	assert.Equal(t, uint16(4242), id)
	_, err = resolveID(f, "70000")
	assert.True(t, errors.IsNotFound(err))
}

func TestUsage(t *testing.T) {
	t.Parallel()
	u := usage()
	for _, c := range commands {
		assert.Contains(t, u, "- "+c.name)
	}
	assert.NotNil(t, rootCmd.Commands())
}
