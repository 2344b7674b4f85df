// Package config reads HCL configuration of device connection and bridge.
//
//	include "local.hcl" { optional = true }
//	device { family = "ping1d" request_timeout_ms = 2000 }
//	transport { kind = "serial" path = "/dev/ttyUSB0" baud = 115200 }
//	bus { policy = "lossy" capacity = 64 }
//	bridge { broker = "tcp://localhost:1883" streams = ["profile"] }
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/sonar/bus"
	"github.com/temoto/sonar/client"
	"github.com/temoto/sonar/family"
	"github.com/temoto/sonar/frame"
	"github.com/temoto/sonar/helpers"
	"github.com/temoto/sonar/log2"
	"github.com/temoto/sonar/transport"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []Source `hcl:"include"`

	Device    DeviceConfig    `hcl:"device"`
	Transport TransportConfig `hcl:"transport"`
	Bus       BusConfig       `hcl:"bus"`
	Bridge    BridgeConfig    `hcl:"bridge"`
	LogDebug  bool            `hcl:"log_debug"`
}

type DeviceConfig struct {
	Family           string `hcl:"family"`
	RequestTimeoutMs int    `hcl:"request_timeout_ms"`
	SrcID            int    `hcl:"src_id"`
	DstID            int    `hcl:"dst_id"`
	MaxPayload       int    `hcl:"max_payload"`
}

type TransportConfig struct {
	Kind string `hcl:"kind"`
	Path string `hcl:"path"`
	Baud int    `hcl:"baud"`
	Addr string `hcl:"addr"`
}

type BusConfig struct {
	Policy   string `hcl:"policy"`
	Capacity int    `hcl:"capacity"`
}

type BridgeConfig struct {
	Broker          string   `hcl:"broker"`
	TopicPrefix     string   `hcl:"topic_prefix"`
	ClientID        string   `hcl:"client_id"`
	Username        string   `hcl:"username"`
	Password        string   `hcl:"password"`
	Streams         []string `hcl:"streams"`
	QoS             int      `hcl:"qos"`
	StatIntervalSec int      `hcl:"stat_interval_sec"`
	Retain          bool     `hcl:"retain"`
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

const (
	DefaultFamily      = family.Ping1D
	DefaultTopicPrefix = "sonar"
)

func (c *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			*errs = append(*errs, errors.NotFoundf("config required name=%s path=%s", source.Name, norm))
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	if err = hcl.Unmarshal(bs, c); err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config unmarshal source=%s", source.Name))
		return
	}

	var includes []Source
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		if _, ok := c.includeSeen[fs.Normalize(include.Name)]; ok {
			*errs = append(*errs, errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name))
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// Read parses names in order, later values override earlier.
// Defaults are applied after all sources, then config is validated.
func Read(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.NotValidf("code error config.Read without names")
	}
	c := &Config{includeSeen: make(map[string]struct{})}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	if err := helpers.FoldErrors(errs); err != nil {
		return nil, err
	}
	c.SetDefaults()
	return c, c.Validate()
}

// ReadFile resolves includes relative to file directory.
func ReadFile(log *log2.Log, path string) (*Config, error) {
	fs, err := NewOsFullReader(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return Read(log, fs, filepath.Base(path))
}

// Parse single source without includes.
func Parse(b []byte) (*Config, error) {
	return Read(nil, NewMockFullReader(map[string]string{"config": string(b)}), "config")
}

func (c *Config) SetDefaults() {
	if c.Device.Family == "" {
		c.Device.Family = DefaultFamily
	}
	if c.Device.RequestTimeoutMs == 0 {
		c.Device.RequestTimeoutMs = int(client.DefaultRequestTimeout / time.Millisecond)
	}
	if c.Device.MaxPayload == 0 {
		c.Device.MaxPayload = frame.DefaultMaxPayload
	}
	if c.Transport.Kind == "" {
		c.Transport.Kind = transport.KindSerial
	}
	if c.Transport.Kind == transport.KindUDP && c.Transport.Addr == "" {
		c.Transport.Addr = transport.DefaultUDP
	}
	if c.Transport.Baud == 0 {
		c.Transport.Baud = transport.DefaultBaud
	}
	if c.Bus.Capacity == 0 {
		c.Bus.Capacity = bus.DefaultCapacity
	}
	if c.Bridge.TopicPrefix == "" {
		c.Bridge.TopicPrefix = DefaultTopicPrefix
	}
	if c.Bridge.StatIntervalSec == 0 {
		c.Bridge.StatIntervalSec = 60
	}
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if _, err := family.New(c.Device.Family); err != nil {
		errs = append(errs, errors.Annotate(err, "device.family"))
	}
	if c.Device.RequestTimeoutMs < 0 {
		errs = append(errs, errors.NotValidf("device.request_timeout_ms=%d", c.Device.RequestTimeoutMs))
	}
	if c.Device.SrcID < 0 || c.Device.SrcID > 255 {
		errs = append(errs, errors.NotValidf("device.src_id=%d", c.Device.SrcID))
	}
	if c.Device.DstID < 0 || c.Device.DstID > 255 {
		errs = append(errs, errors.NotValidf("device.dst_id=%d", c.Device.DstID))
	}
	if c.Device.MaxPayload < 0 || c.Device.MaxPayload > 0xffff {
		errs = append(errs, errors.NotValidf("device.max_payload=%d", c.Device.MaxPayload))
	}
	tc := c.TransportConfig()
	if err := tc.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := bus.ParsePolicy(c.Bus.Policy); err != nil {
		errs = append(errs, err)
	}
	if c.Bus.Capacity < 0 {
		errs = append(errs, errors.NotValidf("bus.capacity=%d", c.Bus.Capacity))
	}
	if c.Bridge.QoS < 0 || c.Bridge.QoS > 2 {
		errs = append(errs, errors.NotValidf("bridge.qos=%d", c.Bridge.QoS))
	}
	if c.Bridge.Broker != "" {
		if fam, err := family.New(c.Device.Family); err == nil {
			for _, name := range c.Bridge.Streams {
				if _, ok := fam.IDOf(name); !ok {
					errs = append(errs, errors.NotValidf("bridge.streams message=%s for family=%s", name, fam))
				}
			}
		}
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		Kind: strings.ToLower(c.Transport.Kind),
		Path: c.Transport.Path,
		Baud: c.Transport.Baud,
		Addr: c.Transport.Addr,
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Device.RequestTimeoutMs) * time.Millisecond
}

// ClientOptions builds connection options, config must be valid.
func (c *Config) ClientOptions(log *log2.Log) (client.Options, error) {
	fam, err := family.New(c.Device.Family)
	if err != nil {
		return client.Options{}, err
	}
	policy, err := bus.ParsePolicy(c.Bus.Policy)
	if err != nil {
		return client.Options{}, err
	}
	return client.Options{
		Log:            log,
		Family:         fam,
		Bus:            bus.Options{Policy: policy, Capacity: c.Bus.Capacity},
		RequestTimeout: c.RequestTimeout(),
		MaxPayload:     c.Device.MaxPayload,
		SrcID:          uint8(c.Device.SrcID),
		DstID:          uint8(c.Device.DstID),
	}, nil
}
