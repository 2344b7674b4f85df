package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/device"
	"github.com/temoto/sonar/helpers"
	"github.com/temoto/sonar/helpers/cli"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/message"
	"github.com/temoto/sonar/transport"
)

type session struct {
	log     *log2.Log
	c       *client.Client
	out     io.Writer
	closers []func() error
	once    sync.Once
}

func newSession(c *client.Client, log *log2.Log, out io.Writer) *session {
	return &session{log: log, c: c, out: out}
}

func (s *session) Close() {
	s.once.Do(func() {
		_ = s.c.Close()
		for i := len(s.closers) - 1; i >= 0; i-- {
			_ = s.closers[i]()
		}
	})
}

func (s *session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// Exec runs one line, errors are logged and do not stop the loop.
func (s *session) Exec(ctx context.Context) cli.ExecFunc {
	return func(line string) {
		words := strings.Fields(line)
		if len(words) == 0 {
			return
		}
		if err := s.run(ctx, words[0], words[1:]); err != nil {
			s.log.Errorf("%s: %s", line, errors.ErrorStack(err))
		}
	}
}

func (s *session) run(ctx context.Context, name string, args []string) error {
	c, ok := findCommand(name)
	if !ok {
		return errors.NotFoundf("command=%s, try help", name)
	}
	if len(args) < c.min || len(args) > c.max {
		return errors.NotValidf("usage: %s %s", c.name, c.args)
	}
	return c.run(ctx, s, args)
}

type command struct {
	name string
	args string
	help string
	min  int
	max  int
	run  func(ctx context.Context, s *session, args []string) error

	// offline commands run without device connection
	offline bool
}

var commands []command

// initCommands is separate from declaration, help refers to commands.
func initCommands() {
	commands = []command{
		{name: "help", help: "show commands", run: cmdHelp},
		{name: "get", args: "MESSAGE...", help: "request messages by name or id", min: 1, max: 64, run: cmdGet},
		{name: "start", args: "MESSAGE", help: "start continuous stream", min: 1, max: 1, run: cmdStart},
		{name: "stop", args: "MESSAGE", help: "stop continuous stream", min: 1, max: 1, run: cmdStop},
		{name: "streaming", help: "list active streams", run: cmdStreaming},
		{name: "watch", args: "MESSAGE [N]", help: "stream and print N messages, default 10", min: 1, max: 2, run: cmdWatch},
		{name: "speed", args: "[MM/S]", help: "get or set speed of sound (ping1d)", max: 1, run: cmdSpeed},
		{name: "raw", args: "ID [HEX] [EXPECT]", help: "send raw payload, wait for EXPECT or ack", min: 1, max: 3, run: cmdRaw},
		{name: "info", help: "concurrently query versions, voltage, temperature", run: cmdInfo},
		{name: "stat", help: "show connection counters", run: cmdStat},
		{name: "log", args: "error|info|debug", help: "set log level", min: 1, max: 1, run: cmdLog},
		{name: "sleep", args: "MS", help: "pause", min: 1, max: 1, run: cmdSleep},
		{name: "ports", help: "list serial ports", run: cmdPorts, offline: true},
	}
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage() string {
	var b strings.Builder
	b.WriteString("commands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "- %-26s %s\n", strings.TrimSpace(c.name+" "+c.args), c.help)
	}
	return b.String()
}

func complete(d prompt.Document) []prompt.Suggest {
	suggests := make([]prompt.Suggest, 0, len(commands))
	for _, c := range commands {
		suggests = append(suggests, prompt.Suggest{Text: c.name, Description: c.help})
	}
	return cli.Suggest(d, suggests)
}

// resolveID accepts message name or decimal id.
func resolveID(f *message.Family, word string) (uint16, error) {
	if id, ok := f.IDOf(word); ok {
		return id, nil
	}
	id, err := strconv.ParseUint(word, 10, 16)
	if err != nil {
		return 0, errors.NotFoundf("family=%s message=%s", f, word)
	}
	return uint16(id), nil
}

func cmdHelp(ctx context.Context, s *session, args []string) error {
	s.printf("%s", usage())
	return nil
}

func cmdGet(ctx context.Context, s *session, args []string) error {
	for _, word := range args {
		id, err := resolveID(s.c.Family(), word)
		if err != nil {
			return err
		}
		p, err := s.c.Get(ctx, id)
		if err != nil {
			return err
		}
		s.printf("< %s %s", s.c.Family().Name(id), p.String())
	}
	return nil
}

func cmdStart(ctx context.Context, s *session, args []string) error {
	id, err := resolveID(s.c.Family(), args[0])
	if err != nil {
		return err
	}
	return s.c.ContinuousStart(ctx, id)
}

func cmdStop(ctx context.Context, s *session, args []string) error {
	id, err := resolveID(s.c.Family(), args[0])
	if err != nil {
		return err
	}
	return s.c.ContinuousStop(ctx, id)
}

func cmdStreaming(ctx context.Context, s *session, args []string) error {
	ids := s.c.Streaming()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = s.c.Family().Name(id)
	}
	s.printf("streaming: %s", strings.Join(names, " "))
	return nil
}

func cmdWatch(ctx context.Context, s *session, args []string) error {
	f := s.c.Family()
	id, err := resolveID(f, args[0])
	if err != nil {
		return err
	}
	n := 10
	if len(args) > 1 {
		if n, err = strconv.Atoi(args[1]); err != nil || n <= 0 {
			return errors.NotValidf("watch count=%s", args[1])
		}
	}

	d := device.Device{C: s.c}
	sub := d.Subscribe(id)
	defer sub.Close()
	if !s.c.IsStreaming(id) {
		err = s.c.ContinuousStart(ctx, id)
		switch {
		case err == nil:
			defer func() {
				if err := s.c.ContinuousStop(ctx, id); err != nil {
					s.log.Error(err)
				}
			}()
		case errors.IsNotSupported(err):
			// ping360 emits auto_device_data after auto_transmit
		default:
			return err
		}
	}
	ms, err := sub.Collect(ctx, n)
	for _, m := range ms {
		s.printf("< %s %+v", f.Name(id), m)
	}
	return err
}

func cmdSpeed(ctx context.Context, s *session, args []string) error {
	d := device.NewPing1D(s.c)
	if len(args) == 1 {
		mmps, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return errors.NotValidf("speed=%s", args[0])
		}
		if err = d.SetSpeedOfSound(ctx, uint32(mmps)); err != nil {
			return err
		}
	}
	mmps, err := d.SpeedOfSound(ctx)
	if err != nil {
		return err
	}
	s.printf("speed_of_sound=%d mm/s", mmps)
	return nil
}

func cmdRaw(ctx context.Context, s *session, args []string) error {
	f := s.c.Family()
	id, err := resolveID(f, args[0])
	if err != nil {
		return err
	}
	var payload []byte
	if len(args) > 1 {
		if payload, err = parseHex(args[1]); err != nil {
			return err
		}
	}
	var expect []uint16
	if len(args) > 2 {
		e, err := resolveID(f, args[2])
		if err != nil {
			return err
		}
		expect = append(expect, e)
	}
	p, err := s.c.Request(ctx, message.Unknown{MessageID: id, Payload: payload}, expect...)
	if err != nil {
		return err
	}
	s.printf("< %s %s", f.Name(p.ID()), p.String())
	return nil
}

func parseHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewNotValid(err, "raw payload hex="+s)
	}
	return b, nil
}

func cmdInfo(ctx context.Context, s *session, args []string) error {
	type query struct {
		name string
		fun  func() (interface{}, error)
	}
	d := device.Device{C: s.c}
	qs := []query{
		{"protocol_version", func() (interface{}, error) { return d.ProtocolVersion(ctx) }},
		{"device_information", func() (interface{}, error) { return d.DeviceInformation(ctx) }},
	}
	if s.c.Family().StreamControl() != nil {
		p := device.NewPing1D(s.c)
		qs = append(qs,
			query{"firmware_version", func() (interface{}, error) { return p.FirmwareVersion(ctx) }},
			query{"voltage_5", func() (interface{}, error) { return p.Voltage5(ctx) }},
			query{"processor_temperature", func() (interface{}, error) { return p.ProcessorTemperature(ctx) }},
			query{"general_info", func() (interface{}, error) { return p.GeneralInfo(ctx) }},
		)
	}

	results := make([]string, len(qs))
	errs := make([]error, len(qs))
	wg := sync.WaitGroup{}
	for i, q := range qs {
		wg.Add(1)
		go func(i int, q query) {
			defer wg.Done()
			v, err := q.fun()
			if err != nil {
				errs[i] = errors.Annotate(err, q.name)
				return
			}
			results[i] = fmt.Sprintf("%s=%+v", q.name, v)
		}(i, q)
	}
	wg.Wait()
	sort.Strings(results)
	for _, r := range results {
		if r != "" {
			s.printf("%s", r)
		}
	}
	return helpers.FoldErrors(errs)
}

func cmdStat(ctx context.Context, s *session, args []string) error {
	s.printf("%s state=%s since_recv=%v stat=%s", s.c.String(), s.c.State(), s.c.SinceLastRecv().Truncate(time.Millisecond), s.c.Stat().String())
	return nil
}

func cmdLog(ctx context.Context, s *session, args []string) error {
	switch args[0] {
	case "error":
		s.log.SetLevel(log2.LError)
	case "info":
		s.log.SetLevel(log2.LInfo)
	case "debug":
		s.log.SetLevel(log2.LDebug)
	default:
		return errors.NotValidf("log level=%s", args[0])
	}
	return nil
}

func cmdSleep(ctx context.Context, s *session, args []string) error {
	ms, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return errors.NotValidf("sleep=%s", args[0])
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func cmdPorts(ctx context.Context, s *session, args []string) error {
	ports, err := transport.SerialPorts()
	if err != nil {
		return err
	}
	s.printf("%s", strings.Join(ports, "\n"))
	return nil
}
