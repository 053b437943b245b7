// Package tower sends opcode sequences to the brick through the IR tower.
package tower

import (
	"context"
	"errors"

	"github.com/golang/glog"

	"github.com/robotalks/rcx.go/pkg/metrics"
	"github.com/robotalks/rcx.go/pkg/rcx"
)

// Sender transmits raw bytes, e.g. *link.Link.
type Sender interface {
	Send(ctx context.Context, pkt []byte) error
}

// Tower encodes opcodes and hands packets to the Sender.
type Tower struct {
	Link    Sender
	Metrics *metrics.Metrics
}

// New creates a Tower.
func New(sender Sender) *Tower {
	return &Tower{Link: sender}
}

// WithMetrics sets Metrics.
func (t *Tower) WithMetrics(m *metrics.Metrics) *Tower {
	t.Metrics = m
	return t
}

// Send encodes ops and transmits the packet. It returns the wire bytes
// written. Invalid input never reaches the link.
func (t *Tower) Send(ctx context.Context, ops rcx.Opcodes) ([]byte, error) {
	pkt, err := rcx.Encode(ops)
	if err != nil {
		t.Metrics.ObserveFailed(metrics.ResultInvalid)
		return nil, err
	}
	if err = t.Link.Send(ctx, pkt); err != nil {
		if !errors.Is(err, context.Canceled) {
			glog.Warningf("send [%s] failed: %v", ops, err)
		}
		t.Metrics.ObserveFailed(metrics.ResultLinkFailure)
		return pkt, err
	}
	glog.V(1).Infof("sent [%s]", ops)
	t.Metrics.ObserveSent(len(ops), len(pkt))
	return pkt, nil
}

// SendText parses opcodes like "51 01" and sends them.
func (t *Tower) SendText(ctx context.Context, text string) ([]byte, error) {
	ops, err := rcx.ParseOpcodes(text)
	if err != nil {
		t.Metrics.ObserveFailed(metrics.ResultInvalid)
		return nil, err
	}
	return t.Send(ctx, ops)
}
