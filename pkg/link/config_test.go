package link

import (
	"flag"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
)

func TestParity(t *testing.T) {
	for _, name := range []string{"none", "odd", "even"} {
		p, err := ParseParity(name)
		require.NoError(t, err)
		require.Equal(t, name, p.String())
	}
	p, err := ParseParity("ODD")
	require.NoError(t, err)
	require.Equal(t, ParityOdd, p)
	_, err = ParseParity("mark")
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("RCX_PORT", "/dev/ttyS1")
	conf := DefaultConfig()
	require.Equal(t, "/dev/ttyS1", conf.Port)
	require.NoError(t, conf.Validate())
	require.Equal(t, "/dev/ttyS1 2400 8O1", conf.String())
}

func TestConfigFlags(t *testing.T) {
	conf := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	conf.SetupFlags(fs)
	require.NoError(t, fs.Parse([]string{"-port", "COM3", "-parity", "even", "-stop-bits", "2"}))
	require.Equal(t, "COM3", conf.Port)
	require.Equal(t, ParityEven, conf.Parity)
	require.Equal(t, "COM3 2400 8E2", conf.String())
	require.Error(t, fs.Parse([]string{"-parity", "space"}))
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"baud", func(c *Config) { c.Baud = 0 }},
		{"parity", func(c *Config) { c.Parity = Parity(7) }},
		{"stop bits", func(c *Config) { c.StopBits = 3 }},
		{"data bits", func(c *Config) { c.DataBits = 9 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := DefaultConfig()
			tc.modify(&conf)
			require.Error(t, conf.Validate())
		})
	}
}

func TestConfigTOML(t *testing.T) {
	var conf Config
	_, err := toml.Decode(`
port = "COM3"
baud = 2400
parity = "odd"
stop_bits = 1
data_bits = 8
driver = "tarm"
`, &conf)
	require.NoError(t, err)
	require.Equal(t, "COM3", conf.Port)
	require.Equal(t, ParityOdd, conf.Parity)
	require.Equal(t, "tarm", conf.Driver)
	require.NoError(t, conf.Validate())
}
