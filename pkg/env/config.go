// Package env provides the common configuration of repcode tools.
package env

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/golang/glog"

	"github.com/robotalks/repcode/pkg/codec"
)

// Config provides common options to setup devices and the link.
type Config struct {
	Framing codec.Framing `toml:"framing"`

	// LinkURL specifies the link carrying encoded payloads.
	// e.g. mqtt://host:port/topic-prefix, ws://host/path, tcp://host:port,
	// file:///dev/ttyO1, loop://
	LinkURL string `toml:"link"`
	// Name and Peer are the topic names on MQTT links.
	Name string `toml:"name"`
	Peer string `toml:"peer"`
	// ClientID identifies the MQTT client, defaults to the machine ID.
	ClientID string `toml:"client_id"`
	// Origin is the websocket origin.
	Origin string `toml:"origin"`
	// Framed wraps payloads into sequenced frames on packet links.
	Framed bool `toml:"framed"`
	// Noise is the bit error rate injected into sent payloads.
	Noise float64 `toml:"noise"`
	Seed  int64   `toml:"seed"`
}

var defaultConfig = Config{
	Framing: codec.FramingSentinel,
	LinkURL: "loop://",
	Name:    "uart0",
	Peer:    "uart1",
	Origin:  "http://localhost/",
	Seed:    1,
}

var configFile string

func init() {
	configFile = applyEnv(&defaultConfig, os.Getenv)
}

// applyEnv overrides conf with REPCODE_* variables and returns the config
// file path. Invalid values are logged and ignored.
func applyEnv(conf *Config, getenv func(string) string) string {
	if val := getenv("REPCODE_FRAMING"); val != "" {
		if framing, err := codec.ParseFraming(val); err == nil {
			conf.Framing = framing
		} else {
			glog.Warningf("REPCODE_FRAMING ignored: %v", err)
		}
	}
	if val := getenv("REPCODE_LINK_URL"); val != "" {
		conf.LinkURL = val
	}
	if val := getenv("REPCODE_NAME"); val != "" {
		conf.Name = val
	}
	if val := getenv("REPCODE_PEER"); val != "" {
		conf.Peer = val
	}
	if val := getenv("REPCODE_CLIENT_ID"); val != "" {
		conf.ClientID = val
	}
	if val := getenv("REPCODE_NOISE"); val != "" {
		if rate, err := parseNoise(val); err == nil {
			conf.Noise = rate
		} else {
			glog.Warningf("REPCODE_NOISE ignored: %v", err)
		}
	}
	return getenv("REPCODE_CONFIG")
}

func parseNoise(val string) (float64, error) {
	rate, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid bit error rate %q", val)
	}
	if rate < 0 || rate > 1 {
		return 0, errors.Newf("bit error rate %v out of [0, 1]", rate)
	}
	return rate, nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "TOML config file, flags take precedence.")
	defaultConfig.BindFlags(flag.CommandLine)
}

// BindFlags binds the fields to flags.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.Var(&c.Framing, "framing", "Payload framing: sentinel or length.")
	fs.StringVar(&c.LinkURL, "link", c.LinkURL, "Link URL.")
	fs.StringVar(&c.Name, "name", c.Name, "Name of this end on MQTT links.")
	fs.StringVar(&c.Peer, "peer", c.Peer, "Name of the peer end on MQTT links.")
	fs.StringVar(&c.ClientID, "client-id", c.ClientID, "MQTT client ID, defaults to machine ID.")
	fs.StringVar(&c.Origin, "origin", c.Origin, "Websocket origin.")
	fs.BoolVar(&c.Framed, "framed", c.Framed, "Wrap payloads in sequenced frames.")
	fs.Float64Var(&c.Noise, "noise", c.Noise, "Bit error rate injected into sent payloads.")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Seed of the noise generator.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load creates a Config from defaults, the config file and flags.
func Load() (*Config, error) {
	conf := NewConfig()
	if configFile == "" {
		return conf, nil
	}
	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if err := conf.Merge(configFile, explicit); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoad loads the Config and fails on error.
func MustLoad() *Config {
	conf, err := Load()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// Merge reads a TOML file and overrides the fields not set by an explicit
// flag.
func (c *Config) Merge(path string, explicit map[string]bool) error {
	file := *c
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return errors.Wrapf(err, "load config %q", path)
	}
	merge := func(name string, apply func()) {
		if !explicit[name] {
			apply()
		}
	}
	merge("framing", func() { c.Framing = file.Framing })
	merge("link", func() { c.LinkURL = file.LinkURL })
	merge("name", func() { c.Name = file.Name })
	merge("peer", func() { c.Peer = file.Peer })
	merge("client-id", func() { c.ClientID = file.ClientID })
	merge("origin", func() { c.Origin = file.Origin })
	merge("framed", func() { c.Framed = file.Framed })
	merge("noise", func() { c.Noise = file.Noise })
	merge("seed", func() { c.Seed = file.Seed })
	return nil
}
