// Package websocket serves send requests over websocket connections.
package websocket

import (
	"context"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/rcx.go/pkg/comm"
	"github.com/robotalks/rcx.go/pkg/metrics"
)

// ReadWriter implements PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements PacketReader.
// Text and binary messages are both accepted.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
// Replies go out as text frames when the codec is textual.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

type textReadWriter struct {
	*ReadWriter
}

func (p textReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p.ReadWriter), string(pkt))
}

// Server serves one Pipe per websocket connection.
type Server struct {
	Context context.Context
	Sender  comm.Sender
	Codec   comm.Codec
	Metrics *metrics.Metrics
}

// Handler returns the http.Handler accepting connections.
func (s *Server) Handler() websocket.Handler {
	return websocket.Handler(s.serve)
}

func (s *Server) serve(conn *websocket.Conn) {
	ctx := s.Context
	if ctx == nil {
		ctx = context.Background()
	}
	codec := s.Codec
	if codec == nil {
		codec = comm.TextCodec{}
	}
	var rw comm.PacketReadWriter = New(conn)
	if _, ok := codec.(comm.TextCodec); ok {
		rw = textReadWriter{New(conn)}
	}
	glog.V(1).Infof("websocket client %s connected", conn.Request().RemoteAddr)
	err := comm.NewPipe(rw, s.Sender).
		WithCodec(codec).
		WithMetrics(s.Metrics, "websocket").
		Run(ctx)
	glog.V(1).Infof("websocket client %s disconnected: %v", conn.Request().RemoteAddr, err)
}
