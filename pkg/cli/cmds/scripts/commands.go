package scripts

import (
	"context"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rcx.go/pkg/cli/sh"
	"github.com/robotalks/rcx.go/pkg/rcx"
	"github.com/robotalks/rcx.go/pkg/script"
)

var (
	// ScriptCmd runs a script file.
	ScriptCmd = ishell.Cmd{
		Name:    "script",
		Aliases: []string{"run"},
		Help:    "FILE (.txt or .yaml)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			s, err := script.Load(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			runScript(c, s)
		},
	}

	// DemoCmd runs the built-in demo sequence.
	DemoCmd = ishell.Cmd{
		Name: "demo",
		Help: "",
		Func: func(c *ishell.Context) {
			runScript(c, script.Demo())
		},
	}
)

// echoSender prints every packet sent.
type echoSender struct {
	shell *sh.Shell
	c     *ishell.Context
}

func (s *echoSender) Send(ctx context.Context, ops rcx.Opcodes) ([]byte, error) {
	wire, err := s.shell.SendOpcodes(ctx, ops)
	if err == nil {
		s.c.Println(rcx.FormatHex(wire))
	}
	return wire, err
}

func runScript(c *ishell.Context, s *script.Script) {
	shell := sh.ShellFrom(c)
	ctx, cancel := shell.InterruptContext()
	defer cancel()
	c.Printf("Running %s (%d steps), Ctrl-C to stop\n", s.Name, len(s.Steps))
	if err := s.Run(ctx, &echoSender{shell: shell, c: c}); err != nil {
		c.Err(err)
	}
}

func init() {
	sh.AddCmds(&ScriptCmd, &DemoCmd)
}
