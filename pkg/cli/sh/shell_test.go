package sh

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rcx.go/pkg/comm/mqtt"
	"github.com/robotalks/rcx.go/pkg/env"
	"github.com/robotalks/rcx.go/pkg/link"
	"github.com/robotalks/rcx.go/pkg/rcx"
	"github.com/robotalks/rcx.go/pkg/tower"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func newTestShell(buf *bytes.Buffer) *Shell {
	conf := env.Default()
	l := &link.Link{
		Config: link.DefaultConfig(),
		Opener: func(link.Config) (io.WriteCloser, error) {
			return nopCloser{buf}, nil
		},
	}
	return &Shell{
		Timeout: time.Second,
		Config:  conf,
		Link:    l,
		Tower:   tower.New(l),
	}
}

func TestShellSend(t *testing.T) {
	var buf bytes.Buffer
	s := newTestShell(&buf)
	res, err := s.Send([]string{"51", "01"})
	require.NoError(t, err)
	require.Equal(t, "51 01", res.Opcodes)
	require.Equal(t, "55 ff 00 51 ae 01 fe 52 ad", res.Wire)
	require.Equal(t, s.Link.Config.Port, res.Via)
	require.Equal(t, []byte{0x55, 0xff, 0x00, 0x51, 0xae, 0x01, 0xfe, 0x52, 0xad}, buf.Bytes())
}

func TestShellSendInvalid(t *testing.T) {
	var buf bytes.Buffer
	s := newTestShell(&buf)
	_, err := s.Send([]string{"51", "zz"})
	var opErr *rcx.InvalidOpcodeError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, 1, opErr.Index)
	_, err = s.Send(nil)
	require.ErrorIs(t, err, rcx.ErrEmptySequence)
	require.Zero(t, buf.Len())
}

func TestShellSenderIsLocalByDefault(t *testing.T) {
	s := newTestShell(&bytes.Buffer{})
	require.Same(t, s.Tower, s.Sender())
}

func TestFormatInfo(t *testing.T) {
	require.Equal(t, "t1", FormatInfo(mqtt.Info{Name: "t1"}))
	require.Equal(t, "t1: kitchen (/dev/ttyUSB0 2400 8O1)", FormatInfo(mqtt.Info{
		Name: "t1",
		Meta: mqtt.Meta{Description: "kitchen", Link: "/dev/ttyUSB0 2400 8O1"},
	}))
}

// stuckPort blocks writes until closed.
type stuckPort struct {
	closed chan struct{}
}

func (p *stuckPort) Write(b []byte) (int, error) {
	<-p.closed
	return 0, io.ErrClosedPipe
}

func (p *stuckPort) Close() error {
	close(p.closed)
	return nil
}

func TestShellSendOpcodesTimeout(t *testing.T) {
	s := newTestShell(&bytes.Buffer{})
	s.Link.Opener = func(link.Config) (io.WriteCloser, error) {
		return &stuckPort{closed: make(chan struct{})}, nil
	}
	s.Timeout = 50 * time.Millisecond
	_, err := s.SendOpcodes(context.Background(), rcx.Opcodes{0x10, 0x10})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
