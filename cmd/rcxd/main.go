package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/rcx.go/pkg/comm"
	"github.com/robotalks/rcx.go/pkg/comm/mqtt"
	"github.com/robotalks/rcx.go/pkg/comm/stream"
	"github.com/robotalks/rcx.go/pkg/comm/websocket"
	"github.com/robotalks/rcx.go/pkg/env"
	"github.com/robotalks/rcx.go/pkg/framework"
	"github.com/robotalks/rcx.go/pkg/link"
	"github.com/robotalks/rcx.go/pkg/metrics"
	"github.com/robotalks/rcx.go/pkg/tower"
)

var serveStdio bool

func init() {
	env.SetupFlags()
	flag.BoolVar(&serveStdio, "stdio", serveStdio, "Serve length-prefixed requests on stdin/stdout.")
}

type stdio struct {
	io.Reader
	io.Writer
}

// Close closes the input so a pending read returns where the OS allows.
func (s *stdio) Close() error {
	if closer, ok := s.Reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// httpServer runs an http.Server until the context is canceled.
type httpServer struct {
	*http.Server
}

func (s *httpServer) Name() string {
	return "http:" + s.Addr
}

func (s *httpServer) Run(ctx context.Context) error {
	glog.Infof("listening on %s", s.Addr)
	return framework.RunWithContextCancel(ctx, func() {
		s.Shutdown(context.Background())
	}, func() error {
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func main() {
	flag.Parse()

	conf, err := env.NewConfig()
	if err != nil {
		glog.Exit(err)
	}
	l, err := link.New(conf.Link)
	if err != nil {
		glog.Exit(err)
	}
	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	t := tower.New(l).WithMetrics(m)

	runner := framework.NewRunner().HandleSignals()
	if conf.MQTTURL != "" {
		opts, err := mqtt.ParseURL(conf.MQTTURL)
		if err != nil {
			glog.Exit(err)
		}
		bridge := mqtt.NewBridge(opts, conf.Name, t).
			WithMeta(mqtt.Meta{Description: conf.Description, Link: conf.Link.String()}).
			WithMetrics(m)
		runner.Go(framework.NamedRun(bridge.String(), bridge))
	}
	if conf.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", (&websocket.Server{Context: runner.Context, Sender: t, Metrics: m}).Handler())
		mux.Handle("/metrics", metrics.Handler(reg))
		runner.Go(&httpServer{Server: &http.Server{Addr: conf.Listen, Handler: mux}})
	}
	if serveStdio {
		rw := stream.New(&stdio{Reader: os.Stdin, Writer: os.Stdout})
		runner.Go(comm.NewPipe(rw, t).WithCodec(comm.ProtoCodec{}).WithMetrics(m, "stdio"))
	}
	if len(runner.Runners) == 0 {
		glog.Exit("nothing to serve: set -mqtt, -listen or -stdio")
	}
	glog.Infof("tower %q on %s", conf.Name, conf.Link)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
