// Ping-bridge keeps connection to sonar and republishes its messages to MQTT.
// Device connection is reopened with backoff after transport errors.
package main

import (
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/temoto/sonar/config"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/mqttbridge"
)

var log = log2.NewStderr(log2.LInfo)

var flags struct {
	config     string
	expvarAddr string
	sim        bool
	debug      bool
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

var rootCmd = &cobra.Command{
	Use:           "ping-bridge",
	Short:         "Republish Ping sonar messages to MQTT",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sdnotify("start") {
			// under systemd, journal adds timestamps
			log.SetFlags(log2.LServiceFlags)
		} else {
			log.SetFlags(log2.LInteractiveFlags)
		}

		cfg, err := config.ReadFile(log, flags.config)
		if err != nil {
			return err
		}
		if cfg.LogDebug || flags.debug {
			log.SetLevel(log2.LDebug)
		}
		if cfg.Bridge.Broker == "" {
			return errors.NotValidf("config bridge.broker empty")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m := mqttbridge.NewMQTT(log, cfg.Bridge, cfg.Device.Family)
		if err = m.Connect(ctx); err != nil {
			return err
		}
		defer m.Close()

		r := newRunner(log, cfg, m)
		if flags.sim {
			r.open = openSim(log)
		}
		r.ready = func() { sdnotify(daemon.SdNotifyReady) }
		expvar.Publish("sonar", expvar.Func(r.vars))
		if flags.expvarAddr != "" {
			go func() {
				// expvar registers /debug/vars on default mux
				err := http.ListenAndServe(flags.expvarAddr, nil)
				log.Errorf("expvar http err=%v", err)
			}()
		}

		log.Infof("bridge running broker=%s transport=%s", cfg.Bridge.Broker, cfg.TransportConfig().String())
		err = r.Run(ctx)
		sdnotify(daemon.SdNotifyStopping)
		return err
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	f := rootCmd.Flags()
	f.StringVarP(&flags.config, "config", "c", "ping-bridge.hcl", "HCL config file")
	f.StringVar(&flags.expvarAddr, "expvar", "", "serve /debug/vars on address, e.g. localhost:8090")
	f.BoolVar(&flags.sim, "sim", false, "use built-in simulated ping1d instead of transport")
	f.BoolVarP(&flags.debug, "debug", "d", false, "debug logging")
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Errorf("sdnotify: %s", errors.ErrorStack(err))
	}
	return ok
}

func (r *runner) vars() interface{} {
	v := map[string]json.RawMessage{
		"bridge": json.RawMessage(r.bridgeStat.String()),
		"opens":  json.RawMessage(fmt.Sprint(r.opens.Value())),
	}
	if c := r.client(); c != nil {
		v["client"] = json.RawMessage(c.Stat().String())
	}
	return v
}
