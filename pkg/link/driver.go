package link

import (
	"fmt"
	"io"
	"sort"
	"sync"

	tarm "github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Opener opens the serial line described by Config.
type Opener func(Config) (io.WriteCloser, error)

var (
	drivers     = make(map[string]Opener)
	driversLock sync.RWMutex
)

// RegisterDriver makes an Opener available by name.
func RegisterDriver(name string, opener Opener) {
	driversLock.Lock()
	drivers[name] = opener
	driversLock.Unlock()
}

// Drivers lists registered driver names.
func Drivers() []string {
	driversLock.RLock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	driversLock.RUnlock()
	sort.Strings(names)
	return names
}

func driverFor(name string) (Opener, error) {
	if name == "" {
		name = DefaultDriver
	}
	driversLock.RLock()
	opener := drivers[name]
	driversLock.RUnlock()
	if opener == nil {
		return nil, fmt.Errorf("unknown serial driver %q", name)
	}
	return opener, nil
}

func init() {
	RegisterDriver("bugst", openBugst)
	RegisterDriver("tarm", openTarm)
}

type bugstPort struct {
	bugst.Port
}

// Close drains the output buffer before releasing the port.
func (p bugstPort) Close() error {
	err := p.Port.Drain()
	if cerr := p.Port.Close(); err == nil {
		err = cerr
	}
	return err
}

func openBugst(conf Config) (io.WriteCloser, error) {
	mode := &bugst.Mode{
		BaudRate: conf.Baud,
		DataBits: conf.DataBits,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	switch conf.Parity {
	case ParityOdd:
		mode.Parity = bugst.OddParity
	case ParityEven:
		mode.Parity = bugst.EvenParity
	}
	if conf.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}
	port, err := bugst.Open(conf.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Port, err)
	}
	return bugstPort{port}, nil
}

func openTarm(conf Config) (io.WriteCloser, error) {
	c := &tarm.Config{
		Name:     conf.Port,
		Baud:     conf.Baud,
		Size:     byte(conf.DataBits),
		Parity:   tarm.ParityNone,
		StopBits: tarm.Stop1,
	}
	switch conf.Parity {
	case ParityOdd:
		c.Parity = tarm.ParityOdd
	case ParityEven:
		c.Parity = tarm.ParityEven
	}
	if conf.StopBits == 2 {
		c.StopBits = tarm.Stop2
	}
	port, err := tarm.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Port, err)
	}
	return port, nil
}

// Ports lists serial ports present on the system.
func Ports() ([]string, error) {
	return bugst.GetPortsList()
}
