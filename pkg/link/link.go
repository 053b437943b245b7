// Package link owns the serial line to the IR tower.
package link

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/rcx.go/pkg/framework"
	"github.com/robotalks/rcx.go/pkg/rcx"
)

// Link transmits raw packets over a serial line.
// The port is opened for each transmission and closed right after, so
// the line is only held while a packet is in flight. Concurrent senders
// are serialised.
type Link struct {
	Config Config
	Opener Opener

	lock sync.Mutex
}

// New creates a Link using the driver named in conf.
func New(conf Config) (*Link, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	opener, err := driverFor(conf.Driver)
	if err != nil {
		return nil, err
	}
	return &Link{Config: conf, Opener: opener}, nil
}

// Send writes pkt verbatim. The port is released when Send returns,
// including on write failure or cancellation.
func (l *Link) Send(ctx context.Context, pkt []byte) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if l.Config.WriteTimeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, l.Config.WriteTimeout)
		defer cancel()
	}

	port, err := l.Opener(l.Config)
	if err != nil {
		return err
	}
	if glog.V(2) {
		glog.Infof("TX %s [%s]", l.Config.Port, rcx.FormatHex(pkt))
	}
	err = fx.RunWithContextCloser(ctx, port, func() error {
		return writeFull(port, pkt)
	})
	if err == context.Canceled && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("send to %s: %w", l.Config.Port, err)
	}
	return nil
}

// SetConfig replaces the config for subsequent transmissions.
// It waits for any in-flight transmission.
func (l *Link) SetConfig(conf Config) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	opener, err := driverFor(conf.Driver)
	if err != nil {
		return err
	}
	l.lock.Lock()
	l.Config, l.Opener = conf, opener
	l.lock.Unlock()
	return nil
}

func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
