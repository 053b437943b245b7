package mqtt

import (
	"io"
	"sync"

	"github.com/golang/glog"
)

// ReadWriter implements PacketReadWriter on a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	sub      *Subscription
	lock     sync.Mutex
	closed   bool
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 16)}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForBridge sets topics using default convention for a bridge:
// SubTopic = name/suffix
// PubTopic = name/suffix/reply
func (p *ReadWriter) ForBridge(name, suffix string) *ReadWriter {
	prefix := name + "/" + suffix
	return p.WithTopics(prefix, prefix+"/reply")
}

// ForClient is the reverse of ForBridge.
func (p *ReadWriter) ForClient(name, suffix string) *ReadWriter {
	prefix := name + "/" + suffix
	return p.WithTopics(prefix+"/reply", prefix)
}

// Open subscribes SubTopic.
func (p *ReadWriter) Open() *ReadWriter {
	p.sub = p.Queue.Sub(p.SubTopic, p.handleMsg)
	return p
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Close unsubscribes and makes pending reads return io.EOF.
// Messages arriving while unsubscribing are dropped.
func (p *ReadWriter) Close() error {
	p.lock.Lock()
	if p.closed {
		p.lock.Unlock()
		return nil
	}
	p.closed = true
	close(p.packetCh)
	p.lock.Unlock()
	if p.sub != nil {
		return p.sub.Close()
	}
	return nil
}

// Drain drops packets received so far.
func (p *ReadWriter) Drain() {
	for {
		select {
		case _, ok := <-p.packetCh:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return
	}
	select {
	case p.packetCh <- payload:
	default:
		glog.Warningf("%s: backlog full, dropped %d bytes", p.SubTopic, len(payload))
	}
}
