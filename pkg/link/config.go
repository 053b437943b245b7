package link

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Parity is the serial parity mode.
type Parity int

// Parity modes.
const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

var parityNames = []string{"none", "odd", "even"}

// String implements fmt.Stringer and flag.Value.
func (p Parity) String() string {
	if p < 0 || int(p) >= len(parityNames) {
		return fmt.Sprintf("parity(%d)", int(p))
	}
	return parityNames[p]
}

// ParseParity parses "none", "odd" or "even".
func ParseParity(s string) (Parity, error) {
	for n, name := range parityNames {
		if strings.EqualFold(s, name) {
			return Parity(n), nil
		}
	}
	return ParityNone, fmt.Errorf("unknown parity %q", s)
}

// Set implements flag.Value.
func (p *Parity) Set(s string) error {
	v, err := ParseParity(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Parity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Parity) UnmarshalText(text []byte) error {
	return p.Set(string(text))
}

// Config describes how the serial line is set up.
// The brick's IR tower expects 2400 8O1.
type Config struct {
	Port     string `toml:"port" json:"port"`
	Baud     int    `toml:"baud" json:"baud"`
	Parity   Parity `toml:"parity" json:"parity"`
	StopBits int    `toml:"stop_bits" json:"stop_bits"`
	DataBits int    `toml:"data_bits" json:"data_bits"`

	// Driver selects the serial implementation, see RegisterDriver.
	Driver string `toml:"driver" json:"driver"`
	// WriteTimeout bounds a single transmission, 0 means no limit.
	WriteTimeout time.Duration `toml:"write_timeout" json:"write_timeout"`
}

// Defaults of the tower link.
const (
	DefaultPort     = "/dev/ttyUSB0"
	DefaultBaud     = 2400
	DefaultStopBits = 1
	DefaultDataBits = 8
	DefaultDriver   = "bugst"
)

var (
	// ErrNoPort indicates the port is not specified.
	ErrNoPort = errors.New("serial port not specified")
)

// DefaultConfig returns 2400 baud, odd parity, 1 stop bit, 8 data bits.
// RCX_PORT overrides the port.
func DefaultConfig() Config {
	conf := Config{
		Port:     DefaultPort,
		Baud:     DefaultBaud,
		Parity:   ParityOdd,
		StopBits: DefaultStopBits,
		DataBits: DefaultDataBits,
		Driver:   DefaultDriver,
	}
	if val := os.Getenv("RCX_PORT"); val != "" {
		conf.Port = val
	}
	if val := os.Getenv("RCX_SERIAL_DRIVER"); val != "" {
		conf.Driver = val
	}
	return conf
}

// SetupFlags registers command line flags bound to c.
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "Serial port of the IR tower.")
	fs.IntVar(&c.Baud, "baud", c.Baud, "Baud rate.")
	fs.Var(&c.Parity, "parity", "Parity: none, odd or even.")
	fs.IntVar(&c.StopBits, "stop-bits", c.StopBits, "Stop bits: 1 or 2.")
	fs.IntVar(&c.DataBits, "data-bits", c.DataBits, "Data bits: 5 to 8.")
	fs.StringVar(&c.Driver, "serial-driver", c.Driver, "Serial driver: bugst or tarm.")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", c.WriteTimeout, "Timeout of a single transmission.")
}

// Validate checks the config.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return ErrNoPort
	}
	if c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.Parity < ParityNone || c.Parity > ParityEven {
		return fmt.Errorf("invalid parity %d", int(c.Parity))
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("invalid stop bits %d", c.StopBits)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("invalid data bits %d", c.DataBits)
	}
	return nil
}

// String formats the config like "/dev/ttyUSB0 2400 8O1".
func (c Config) String() string {
	return fmt.Sprintf("%s %d %d%c%d", c.Port, c.Baud, c.DataBits,
		strings.ToUpper(c.Parity.String())[0], c.StopBits)
}
