// Ping-cli talks to Ping family sonar over serial, tty or UDP.
//
// Usage:
//
//	ping-cli [flags]                 interactive prompt or lines from stdin
//	ping-cli get speed_of_sound      single command
//	ping-cli --sim watch profile 5   simulated device
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/config"
	"github.com/temoto/sonar/devsim"
	"github.com/temoto/sonar/family"
	"github.com/temoto/sonar/helpers/cli"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/transport"
)

var log = log2.NewStderr(log2.LInfo)

var flags struct {
	config  string
	family  string
	serial  string
	tty     string
	udp     string
	baud    int
	timeout time.Duration
	sim     bool
	debug   bool
}

func main() {
	log.SetFlags(log2.LInteractiveFlags)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ping-cli",
	Short:         "Ping sonar protocol console",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd.Flags(), os.Stdout)
		if err != nil {
			return err
		}
		defer s.Close()
		cli.MainLoop("ping-cli", s.Exec(ctx), complete, func() { s.Close() })
		return nil
	},
}

func init() {
	initCommands()
	rootCmd.Long = "Without subcommand reads commands from interactive prompt or stdin lines.\n" + usage()
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "HCL config file, flags override it")
	pf.StringVarP(&flags.family, "family", "f", family.Ping1D, "device family: "+fmt.Sprint(family.Names()))
	pf.StringVar(&flags.serial, "serial", "", "serial port path")
	pf.StringVar(&flags.tty, "tty", "", "linux tty path, raw termios")
	pf.StringVar(&flags.udp, "udp", "", "device UDP address, e.g. "+transport.DefaultUDP)
	pf.IntVar(&flags.baud, "baud", transport.DefaultBaud, "serial baud rate")
	pf.DurationVar(&flags.timeout, "timeout", client.DefaultRequestTimeout, "request timeout")
	pf.BoolVar(&flags.sim, "sim", false, "connect to built-in simulated ping1d")
	pf.BoolVarP(&flags.debug, "debug", "d", false, "debug logging")

	for _, c := range commands {
		rootCmd.AddCommand(c.cobra())
	}
}

func (c command) cobra() *cobra.Command {
	return &cobra.Command{
		Use:   c.name + " " + c.args,
		Short: c.help,
		Args:  cobra.RangeArgs(c.min, c.max),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.offline {
				return c.run(ctx, &session{log: log, out: os.Stdout}, args)
			}
			s, err := openSession(ctx, cmd.Flags(), os.Stdout)
			if err != nil {
				return err
			}
			defer s.Close()
			return c.run(ctx, s, args)
		},
	}
}

type changer interface{ Changed(name string) bool }

func readConfig(fs changer) (*config.Config, error) {
	cfg := &config.Config{}
	if flags.config != "" {
		var err error
		if cfg, err = config.ReadFile(log, flags.config); err != nil {
			return nil, err
		}
	}
	if fs.Changed("family") || cfg.Device.Family == "" {
		cfg.Device.Family = flags.family
	}
	switch {
	case flags.serial != "":
		cfg.Transport = config.TransportConfig{Kind: transport.KindSerial, Path: flags.serial}
	case flags.tty != "":
		cfg.Transport = config.TransportConfig{Kind: transport.KindTTY, Path: flags.tty}
	case flags.udp != "":
		cfg.Transport = config.TransportConfig{Kind: transport.KindUDP, Addr: flags.udp}
	}
	if fs.Changed("baud") {
		cfg.Transport.Baud = flags.baud
	}
	if fs.Changed("timeout") || cfg.Device.RequestTimeoutMs == 0 {
		cfg.Device.RequestTimeoutMs = int(flags.timeout / time.Millisecond)
	}
	cfg.LogDebug = cfg.LogDebug || flags.debug
	cfg.SetDefaults()
	return cfg, nil
}

func openSession(ctx context.Context, fs changer, out io.Writer) (*session, error) {
	cfg, err := readConfig(fs)
	if err != nil {
		return nil, err
	}
	if cfg.LogDebug {
		log.SetLevel(log2.LDebug)
	}

	if flags.sim {
		if cfg.Device.Family == family.Ping360 {
			return nil, errors.NotSupportedf("simulator family=%s", cfg.Device.Family)
		}
		opt, err := cfg.ClientOptions(log.Clone(log2.LInfo))
		if err != nil {
			return nil, err
		}
		return newSimSession(opt, log, out)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	opt, err := cfg.ClientOptions(log)
	if err != nil {
		return nil, err
	}
	t, err := transport.Open(ctx, cfg.TransportConfig())
	if err != nil {
		return nil, err
	}
	c, err := client.New(t, opt)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	return newSession(c, log, out), nil
}

func newSimSession(opt client.Options, log *log2.Log, out io.Writer) (*session, error) {
	host, dev := transport.Pipe()
	c, err := client.New(host, opt)
	if err != nil {
		return nil, err
	}
	sim := devsim.New(dev, devsim.Options{Log: log.Clone(log2.LInfo)})
	sim.Start()
	s := newSession(c, log, out)
	s.closers = append(s.closers, sim.Close)
	return s, nil
}
