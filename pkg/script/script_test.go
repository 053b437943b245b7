package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rcx.go/pkg/rcx"
)

type recordSender struct {
	sent []rcx.Opcodes
	fail int
}

func (s *recordSender) Send(ctx context.Context, ops rcx.Opcodes) ([]byte, error) {
	s.sent = append(s.sent, ops)
	if s.fail > 0 && len(s.sent) == s.fail {
		return nil, errors.New("link down")
	}
	return rcx.Encode(ops)
}

func TestParseText(t *testing.T) {
	s, err := ParseText("test", strings.NewReader(`
# forward
51 01
sleep 10ms   # wait
10 10
`))
	require.NoError(t, err)
	require.Equal(t, []Step{
		{Send: rcx.Opcodes{0x51, 0x01}},
		{Delay: 10 * time.Millisecond},
		{Send: rcx.Opcodes{0x10, 0x10}},
	}, s.Steps)

	_, err = ParseText("bad", strings.NewReader("51 01\n51 1\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad:2")
	var ie *rcx.InvalidOpcodeError
	require.True(t, errors.As(err, &ie))

	_, err = ParseText("bad", strings.NewReader("sleep forever\n"))
	require.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	s, err := LoadYAML("test.yaml", strings.NewReader(`
name: forward
steps:
  - send: "51 01"
  - sleep: 5s
  - ops: [16, 16]
`))
	require.NoError(t, err)
	require.Equal(t, "forward", s.Name)
	require.Equal(t, []Step{
		{Send: rcx.Opcodes{0x51, 0x01}},
		{Delay: 5 * time.Second},
		{Send: rcx.Opcodes{0x10, 0x10}},
	}, s.Steps)

	testCases := []struct {
		name string
		doc  string
	}{
		{"out of range", "steps:\n  - ops: [256]\n"},
		{"empty step", "steps:\n  - {}\n"},
		{"two kinds", "steps:\n  - send: \"51\"\n    sleep: 1s\n"},
		{"bad yaml", "steps: [\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadYAML("x.yaml", strings.NewReader(tc.doc))
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "a.rcx")
	require.NoError(t, os.WriteFile(txt, []byte("51 01\n"), 0644))
	s, err := Load(txt)
	require.NoError(t, err)
	require.Equal(t, "a.rcx", s.Name)
	require.Len(t, s.Steps, 1)

	yml := filepath.Join(dir, "b.yml")
	require.NoError(t, os.WriteFile(yml, []byte("steps:\n  - send: \"10 10\"\n"), 0644))
	s, err = Load(yml)
	require.NoError(t, err)
	require.Equal(t, "b.yml", s.Name)
	require.Equal(t, rcx.Opcodes{0x10, 0x10}, s.Steps[0].Send)
}

func TestRun(t *testing.T) {
	s := &Script{Name: "t", Steps: []Step{
		{Send: rcx.Opcodes{0x51, 0x01}},
		{Delay: time.Millisecond},
		{Send: rcx.Opcodes{0x10, 0x10}},
	}}
	sender := &recordSender{}
	require.NoError(t, s.Run(context.Background(), sender))
	require.Equal(t, []rcx.Opcodes{{0x51, 0x01}, {0x10, 0x10}}, sender.sent)
}

func TestRunStopsOnError(t *testing.T) {
	s := &Script{Steps: []Step{
		{Send: rcx.Opcodes{1}},
		{Send: rcx.Opcodes{2}},
		{Send: rcx.Opcodes{3}},
	}}
	sender := &recordSender{fail: 2}
	err := s.Run(context.Background(), sender)
	var se *StepError
	require.True(t, errors.As(err, &se))
	require.Equal(t, 1, se.Index)
	require.Len(t, sender.sent, 2)
}

func TestRunCancelDuringDelay(t *testing.T) {
	s := &Script{Steps: []Step{{Delay: time.Hour}, {Send: rcx.Opcodes{1}}}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	sender := &recordSender{}
	err := s.Run(ctx, sender)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Empty(t, sender.sent)
}

func TestDemo(t *testing.T) {
	s := Demo()
	require.Len(t, s.Steps, 20)
	require.Equal(t, rcx.Opcodes{0x51, 0x01}, s.Steps[0].Send)
	require.Equal(t, DemoPause, s.Steps[1].Delay)
	require.Equal(t, rcx.Opcodes{0x10, 0x10}, s.Steps[2].Send)
	require.Equal(t, "sleep 1s", s.Steps[3].String())
}
