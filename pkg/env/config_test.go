package env

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rcx.go/pkg/link"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rcx.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
name = "brick1"
mqtt = ""

[link]
port = "COM3"
parity = "even"
`), 0644))

	conf := Config{Link: link.DefaultConfig(), Listen: ":1"}
	require.NoError(t, conf.LoadFile(path))
	require.Equal(t, "brick1", conf.Name)
	require.Equal(t, "", conf.MQTTURL)
	require.Equal(t, ":1", conf.Listen)
	require.Equal(t, "COM3", conf.Link.Port)
	require.Equal(t, link.ParityEven, conf.Link.Parity)
	require.Equal(t, 2400, conf.Link.Baud)
	require.NoError(t, conf.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	conf := Config{Link: link.DefaultConfig()}
	require.Error(t, conf.LoadFile(filepath.Join(dir, "missing.toml")))

	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("speed = 9600\n"), 0644))
	err := conf.LoadFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "speed")
}

func TestValidate(t *testing.T) {
	conf := Config{Name: "a/b", Link: link.DefaultConfig()}
	require.Error(t, conf.Validate())
	conf.Name = "ok"
	conf.Link.Baud = 0
	require.Error(t, conf.Validate())
}

func TestMachineID(t *testing.T) {
	id := MachineID()
	require.NotEmpty(t, id)
	require.Equal(t, id, MachineID())
}

func TestNewConfigFlagsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rcx.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
name = "brick1"

[link]
port = "COM3"
parity = "even"
`), 0644))

	base := Config{Link: link.DefaultConfig(), Listen: ":1"}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	base.bindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-port", "/dev/ttyS1", "-name", "cli"}))

	conf, err := newConfig(base, fs, path)
	require.NoError(t, err)
	require.Equal(t, "cli", conf.Name)
	require.Equal(t, "/dev/ttyS1", conf.Link.Port)
	require.Equal(t, link.ParityEven, conf.Link.Parity)
	require.Equal(t, ":1", conf.Listen)
}
