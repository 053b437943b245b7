package comm

import (
	"context"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/rcx.go/pkg/framework"
	"github.com/robotalks/rcx.go/pkg/metrics"
)

// Pipe serves send requests arriving on a PacketReadWriter.
type Pipe struct {
	ReadWriter PacketReadWriter
	Codec      Codec
	Sender     Sender
	Source     string
	Metrics    *metrics.Metrics
}

// NewPipe creates a Pipe with the text codec.
func NewPipe(rw PacketReadWriter, sender Sender) *Pipe {
	return &Pipe{ReadWriter: rw, Codec: TextCodec{}, Sender: sender}
}

// WithCodec sets Codec.
func (p *Pipe) WithCodec(codec Codec) *Pipe {
	p.Codec = codec
	return p
}

// WithMetrics sets Metrics, counting requests under source.
func (p *Pipe) WithMetrics(m *metrics.Metrics, source string) *Pipe {
	p.Metrics, p.Source = m, source
	return p
}

// Run implements Runnable. It returns when reading fails or ctx is done.
// Bad requests are answered with an error reply and don't stop the pipe.
// On cancel the ReadWriter is closed; a read that Close can't interrupt
// (e.g. a terminal stdin) is left behind.
func (p *Pipe) Run(ctx context.Context) error {
	return fx.RunWithContextDetach(ctx, func() { p.Close() }, func() error {
		defer p.Close()
		return p.loop(ctx)
	})
}

func (p *Pipe) loop(ctx context.Context) error {
	for {
		frame, err := p.ReadWriter.ReadPacket()
		if err != nil {
			return err
		}
		if err = p.serve(ctx, frame); err != nil {
			return err
		}
	}
}

func (p *Pipe) serve(ctx context.Context, frame []byte) error {
	p.Metrics.ObserveRequest(p.Source)
	var wire []byte
	ops, err := p.Codec.DecodeRequest(frame)
	if err == nil {
		wire, err = p.Sender.Send(ctx, ops)
	}
	if err != nil {
		glog.V(1).Infof("%s request failed: %v", p.Source, err)
	}
	reply, err := p.Codec.EncodeReply(wire, err)
	if err != nil {
		return err
	}
	return p.ReadWriter.WritePacket(reply)
}

// Close implements Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Name implements Named.
func (p *Pipe) Name() string {
	if p.Source != "" {
		return "pipe:" + p.Source
	}
	return "pipe"
}
