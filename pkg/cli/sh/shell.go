// Package sh provides the interactive rcx shell.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rcx.go/pkg/comm"
	"github.com/robotalks/rcx.go/pkg/comm/mqtt"
	"github.com/robotalks/rcx.go/pkg/env"
	"github.com/robotalks/rcx.go/pkg/link"
	"github.com/robotalks/rcx.go/pkg/rcx"
	"github.com/robotalks/rcx.go/pkg/tower"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Link   *link.Link
	Tower  *tower.Tower
	Remote *Remote
}

// Remote is a connection to a bridge over MQTT.
type Remote struct {
	Name   string
	Queue  *mqtt.Queue
	Client *mqtt.Client
}

// Close disconnects the remote.
func (r *Remote) Close() error {
	r.Client.Close()
	return r.Queue.Close()
}

const (
	shellKey    = "$shell"
	localPrompt = "[local] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = 10 * time.Second

	// commands
	commands = []*ishell.Cmd{
		&SendCmd,
		&EncodeCmd,
		&ConfigCmd,
		&PortCmd,
		&PortsCmd,
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout of a single command.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell sending through the local link.
func New(conf *env.Config) (*Shell, error) {
	l, err := link.New(conf.Link)
	if err != nil {
		return nil, err
	}
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
		Link:   l,
		Tower:  tower.New(l),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(localPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s, nil
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Sender returns the remote bridge if connected, otherwise the local tower.
func (s *Shell) Sender() comm.Sender {
	if s.Remote != nil {
		return s.Remote.Client
	}
	return s.Tower
}

// Context creates a context for one command.
func (s *Shell) Context() (context.Context, context.CancelFunc) {
	if s.Timeout > 0 {
		return context.WithTimeout(context.Background(), s.Timeout)
	}
	return context.WithCancel(context.Background())
}

// InterruptContext is canceled on Ctrl-C, for commands running longer
// than Timeout like scripts.
func (s *Shell) InterruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// SendOpcodes sends ops through Sender, bounded by Timeout.
func (s *Shell) SendOpcodes(ctx context.Context, ops rcx.Opcodes) ([]byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	return s.Sender().Send(ctx, ops)
}

// SendResult is printed after a send.
type SendResult struct {
	Opcodes string `json:"opcodes"`
	Wire    string `json:"wire"`
	Via     string `json:"via"`
}

// Send parses args as opcodes and sends them.
func (s *Shell) Send(args []string) (*SendResult, error) {
	ops, err := rcx.ParseOpcodes(strings.Join(args, " "))
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.Context()
	defer cancel()
	wire, err := s.Sender().Send(ctx, ops)
	if err != nil {
		return nil, err
	}
	res := &SendResult{Opcodes: ops.String(), Wire: rcx.FormatHex(wire), Via: s.Link.Config.Port}
	if s.Remote != nil {
		res.Via = "mqtt:" + s.Remote.Name
	}
	return res, nil
}

// Print prints v as JSON or plain text.
func (s *Shell) Print(c *ishell.Context, v interface{}, plain string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(plain)
}

// Connect connects a bridge by name.
func (s *Shell) Connect(name string) error {
	if s.Config.MQTTURL == "" {
		return fmt.Errorf("MQTT broker not configured")
	}
	opts, err := mqtt.ParseURL(s.Config.MQTTURL)
	if err != nil {
		return err
	}
	q := mqtt.NewQueue(opts)
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return err
	}
	if s.Remote != nil {
		s.Remote.Close()
	}
	s.Remote = &Remote{Name: name, Queue: q, Client: mqtt.NewClient(q, name)}
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", name))
	return nil
}

// Disconnect goes back to the local link.
func (s *Shell) Disconnect() {
	if s.Remote != nil {
		s.Remote.Close()
		s.Remote = nil
		s.Shell.SetPrompt(localPrompt)
	}
}

// Discover lists bridges on the broker.
func (s *Shell) Discover() ([]mqtt.Info, error) {
	if s.Config.MQTTURL == "" {
		return nil, fmt.Errorf("MQTT broker not configured")
	}
	opts, err := mqtt.ParseURL(s.Config.MQTTURL)
	if err != nil {
		return nil, err
	}
	q := mqtt.NewQueue(opts)
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return nil, err
	}
	defer q.Close()
	ctx, cancel := s.Context()
	defer cancel()
	return mqtt.Discover(ctx, q, 0)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Printf("Sending through %s\n", s.Link.Config)
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// SendCmd sends opcodes.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "HEX... e.g. send 51 01",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			res, err := s.Send(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, res, res.Wire)
		},
	}

	// EncodeCmd prints the packet without sending.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"enc"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			ops, err := rcx.ParseOpcodes(strings.Join(c.Args, " "))
			if err != nil {
				c.Err(err)
				return
			}
			wire, err := rcx.Encode(ops)
			if err != nil {
				c.Err(err)
				return
			}
			if _, err = rcx.Verify(wire); err != nil {
				c.Err(err)
				return
			}
			res := &SendResult{Opcodes: ops.String(), Wire: rcx.FormatHex(wire)}
			ShellFrom(c).Print(c, res, res.Wire)
		},
	}

	// ConfigCmd shows the link config.
	ConfigCmd = ishell.Cmd{
		Name: "config",
		Help: "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			s.Print(c, s.Link.Config, s.Link.Config.String())
		},
	}

	// PortCmd shows or changes the serial port.
	PortCmd = ishell.Cmd{
		Name: "port",
		Help: "[PATH]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				conf := s.Link.Config
				conf.Port = c.Args[0]
				if err := s.Link.SetConfig(conf); err != nil {
					c.Err(err)
					return
				}
			}
			c.Println(s.Link.Config.Port)
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				ports = []string{}
			}
			ShellFrom(c).Print(c, ports, strings.Join(ports, "\n"))
		},
	}

	// DiscoverCmd discovers bridges.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infos, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if infos == nil {
				infos = []mqtt.Info{}
			}
			lines := make([]string, len(infos))
			for n, info := range infos {
				lines[n] = FormatInfo(info)
			}
			if len(lines) == 0 && !s.OutputJSON {
				lines = append(lines, "No bridges found")
			}
			s.Print(c, infos, strings.Join(lines, "\n"))
		},
	}

	// ConnectCmd sends through a remote bridge.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "NAME",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			if err := ShellFrom(c).Connect(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd goes back to the local link.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// FormatInfo prints bridge Info into friendly string for display.
func FormatInfo(info mqtt.Info) string {
	var sb strings.Builder
	sb.WriteString(info.Name)
	if info.Meta.Description != "" {
		fmt.Fprintf(&sb, ": %s", info.Meta.Description)
	}
	if info.Meta.Link != "" {
		fmt.Fprintf(&sb, " (%s)", info.Meta.Link)
	}
	return sb.String()
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := env.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	s, err := New(conf)
	if err != nil {
		log.Fatalln(err)
	}
	s.Run(flag.Args()...)
}
