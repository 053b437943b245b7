// Package env sets up configuration shared by rcx commands from flags,
// RCX_* environment variables and an optional TOML file.
package env

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/robotalks/rcx.go/pkg/link"
)

// Config provides common options.
type Config struct {
	// Name identifies this tower on the bridge, defaults to the machine ID.
	Name        string `toml:"name"`
	Description string `toml:"description"`

	Link link.Config `toml:"link"`

	// MQTTURL specifies the MQTT broker, empty disables the bridge.
	// e.g. mqtt://host:port/topic-prefix
	MQTTURL string `toml:"mqtt"`
	// Listen is the HTTP address for /ws and /metrics, empty disables.
	Listen string `toml:"listen"`
}

var (
	defaultConfig = Config{
		MQTTURL: "mqtt://localhost:1883/rcx/",
		Listen:  ":8424",
	}

	configFile string
)

func init() {
	defaultConfig.Link = link.DefaultConfig()
	if val := os.Getenv("RCX_NAME"); val != "" {
		defaultConfig.Name = val
	}
	if val, ok := os.LookupEnv("RCX_MQTT_URL"); ok {
		defaultConfig.MQTTURL = val
	}
	if val, ok := os.LookupEnv("RCX_LISTEN"); ok {
		defaultConfig.Listen = val
	}
	configFile = os.Getenv("RCX_CONFIG")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "TOML config file, flags given on the command line take precedence.")
	defaultConfig.bindFlags(flag.CommandLine)
}

func (c *Config) bindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Name, "name", c.Name, "Tower name, defaults to machine ID.")
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL, empty to disable.")
	fs.StringVar(&c.Listen, "listen", c.Listen, "HTTP listen address, empty to disable.")
	c.Link.SetupFlags(fs)
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config from defaults, the config file and flags,
// in increasing precedence.
func NewConfig() (*Config, error) {
	return newConfig(defaultConfig, flag.CommandLine, configFile)
}

func newConfig(conf Config, fs *flag.FlagSet, path string) (*Config, error) {
	if path != "" {
		if err := conf.LoadFile(path); err != nil {
			return nil, err
		}
		if err := conf.applyFlags(fs); err != nil {
			return nil, err
		}
	}
	if conf.Name == "" {
		conf.Name = MachineID()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// applyFlags sets again the flags explicitly given in fs.
func (c *Config) applyFlags(fs *flag.FlagSet) (err error) {
	bound := flag.NewFlagSet("", flag.ContinueOnError)
	c.bindFlags(bound)
	fs.Visit(func(f *flag.Flag) {
		if err == nil && bound.Lookup(f.Name) != nil {
			err = bound.Set(f.Name, f.Value.String())
		}
	})
	return
}

// LoadFile decodes a TOML file on top of the current values.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for n, key := range undecoded {
			keys[n] = key.String()
		}
		return fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if strings.ContainsAny(c.Name, "/+#") {
		return fmt.Errorf("invalid name %q", c.Name)
	}
	if err := c.Link.Validate(); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	return nil
}
