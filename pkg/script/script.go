// Package script runs timed sequences of opcode packets.
package script

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/rcx.go/pkg/rcx"
)

// Step either sends opcodes or pauses.
type Step struct {
	Send  rcx.Opcodes
	Delay time.Duration
}

// IsDelay tells whether the step only pauses.
func (s Step) IsDelay() bool {
	return len(s.Send) == 0
}

// String implements fmt.Stringer.
func (s Step) String() string {
	if s.IsDelay() {
		return "sleep " + s.Delay.String()
	}
	return s.Send.String()
}

// Script is a named list of steps.
type Script struct {
	Name  string
	Steps []Step
}

// Sender sends opcodes, e.g. *tower.Tower.
type Sender interface {
	Send(ctx context.Context, ops rcx.Opcodes) ([]byte, error)
}

// StepError reports which step failed.
type StepError struct {
	Index int
	Step  Step
	Err   error
}

// Error implements error.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Follow-up packet and pauses used by Demo.
const (
	DemoPause         = 5 * time.Second
	DemoFollowUpPause = time.Second
)

// Demo sends a few motor commands, each followed by a "10 10" packet.
func Demo() *Script {
	s := &Script{Name: "demo"}
	for _, text := range []string{"51 01", "21 81", "e1 81", "21 41", "51 01"} {
		s.Steps = append(s.Steps,
			Step{Send: rcx.MustParseOpcodes(text)},
			Step{Delay: DemoPause},
			Step{Send: rcx.MustParseOpcodes("10 10")},
			Step{Delay: DemoFollowUpPause},
		)
	}
	return s
}

// Run executes the steps in order and stops at the first failure.
// Pauses return early when ctx is done.
func (s *Script) Run(ctx context.Context, sender Sender) error {
	for n, step := range s.Steps {
		if step.IsDelay() {
			timer := time.NewTimer(step.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return &StepError{Index: n, Step: step, Err: ctx.Err()}
			case <-timer.C:
			}
			continue
		}
		glog.V(2).Infof("script %s step %d: %s", s.Name, n, step)
		if _, err := sender.Send(ctx, step.Send); err != nil {
			return &StepError{Index: n, Step: step, Err: err}
		}
	}
	return nil
}

// ParseText reads the line format:
//
//	# comment
//	51 01
//	sleep 5s
func ParseText(name string, r io.Reader) (*Script, error) {
	s := &Script{Name: name}
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		if rest, ok := cutKeyword(line, "sleep"); ok {
			d, err := parseDelay(rest)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			s.Steps = append(s.Steps, Step{Delay: d})
			continue
		}
		ops, err := rcx.ParseOpcodes(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		s.Steps = append(s.Steps, Step{Send: ops})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

type yamlScript struct {
	Name  string     `yaml:"name"`
	Steps []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	Send  string `yaml:"send"`
	Ops   []int  `yaml:"ops"`
	Sleep string `yaml:"sleep"`
}

// LoadYAML reads the YAML format:
//
//	name: forward
//	steps:
//	  - send: "51 01"
//	  - sleep: 5s
//	  - ops: [16, 16]
func LoadYAML(name string, r io.Reader) (*Script, error) {
	var doc yamlScript
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s := &Script{Name: doc.Name}
	if s.Name == "" {
		s.Name = name
	}
	for n, ys := range doc.Steps {
		step, err := ys.step()
		if err != nil {
			return nil, fmt.Errorf("%s: step %d: %w", name, n, err)
		}
		s.Steps = append(s.Steps, step)
	}
	return s, nil
}

func (ys yamlStep) step() (step Step, err error) {
	var kinds int
	if ys.Send != "" {
		kinds++
		step.Send, err = rcx.ParseOpcodes(ys.Send)
	}
	if len(ys.Ops) > 0 && err == nil {
		kinds++
		step.Send, err = rcx.FromInts(ys.Ops)
	}
	if ys.Sleep != "" && err == nil {
		kinds++
		step.Delay, err = parseDelay(ys.Sleep)
	}
	if err != nil {
		return
	}
	if kinds != 1 {
		err = fmt.Errorf("exactly one of send, ops or sleep is required")
	}
	return
}

// Load reads a script file, choosing the format by extension.
func Load(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(name, f)
	default:
		return ParseText(name, f)
	}
}

func cutKeyword(line, keyword string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], keyword) {
		return "", false
	}
	return strings.TrimSpace(line[len(fields[0]):]), true
}

func parseDelay(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("delay must be positive: %s", s)
	}
	return d, nil
}
