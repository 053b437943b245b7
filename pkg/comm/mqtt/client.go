package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rcx.go/pkg/comm"
	"github.com/robotalks/rcx.go/pkg/rcx"
)

// Default timeouts of remote operations.
const (
	DefaultDiscoverTimeout = 500 * time.Millisecond
	DefaultReplyTimeout    = 5 * time.Second
)

// Discover lists bridges with a retained meta under the queue prefix.
// The queue must be connected.
func Discover(ctx context.Context, q *Queue, timeout time.Duration) (res []Info, err error) {
	resCh := make(chan Info, 1)
	sub := q.Sub("+/"+TopicMeta, Handler(func(topic string, payload []byte) {
		items := strings.Split(topic, "/")
		if len(items) != 2 || len(payload) == 0 {
			return
		}
		info := Info{Name: items[0]}
		if err := json.Unmarshal(payload, &info.Meta); err != nil {
			glog.V(2).Infof("%s: malformed meta: %v", topic, err)
			return
		}
		select {
		case resCh <- info:
		case <-time.After(time.Second):
		}
	}))
	defer sub.Close()

	if timeout == 0 {
		timeout = DefaultDiscoverTimeout
	}
	expire := time.After(timeout)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-expire:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// Client sends opcodes to a remote bridge. It implements comm.Sender.
// Replies on the shared reply topic carry no request id: an OK reply is
// matched by the packet it reports, other clients' packets are skipped.
// ERR replies can't be matched and go to whichever client reads first.
type Client struct {
	Queue   *Queue
	Name    string
	Codec   comm.Codec
	Timeout time.Duration

	rw   *ReadWriter
	lock sync.Mutex
}

// NewClient creates a Client for bridge name using the text topic.
// The queue must be connected.
func NewClient(q *Queue, name string) *Client {
	return &Client{
		Queue:   q,
		Name:    name,
		Codec:   comm.TextCodec{},
		Timeout: DefaultReplyTimeout,
		rw:      NewPacketReadWriter(q).ForClient(name, TopicCmd).Open(),
	}
}

// Send implements comm.Sender. Requests are serialised so replies can be
// matched in order.
func (c *Client) Send(ctx context.Context, ops rcx.Opcodes) ([]byte, error) {
	req, err := c.Codec.EncodeRequest(ops)
	if err != nil {
		return nil, err
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.rw.Drain()
	if err = c.rw.WritePacket(req); err != nil {
		return nil, err
	}
	if c.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	for {
		select {
		case reply, ok := <-c.rw.packetCh:
			if !ok {
				return nil, io.ErrClosedPipe
			}
			wire, err := c.Codec.DecodeReply(reply)
			if err == nil && !repliedTo(wire, ops) {
				glog.V(2).Infof("%s: skipped reply for another request", c.Name)
				continue
			}
			return wire, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// repliedTo tells whether wire is the packet built from ops.
func repliedTo(wire []byte, ops rcx.Opcodes) bool {
	sent, err := rcx.Verify(wire)
	return err == nil && bytes.Equal(sent, ops)
}

// Close stops listening for replies. The queue is left connected.
func (c *Client) Close() error {
	return c.rw.Close()
}
