package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/robotalks/rcx.go/pkg/comm"
	fx "github.com/robotalks/rcx.go/pkg/framework"
	"github.com/robotalks/rcx.go/pkg/metrics"
)

// Topic suffixes under <prefix><name>/.
const (
	TopicMeta = "meta"
	TopicCmd  = "cmd"
	TopicRaw  = "raw"
)

// Meta is published retained on <name>/meta while the bridge is up.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Link        string            `json:"link,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Info describes a discovered bridge.
type Info struct {
	Name string `json:"name"`
	Meta Meta   `json:"meta"`
}

// Bridge accepts send requests from MQTT:
// <name>/cmd takes hex text, <name>/raw takes protobuf, replies go to
// the same topic with /reply appended.
type Bridge struct {
	Queue   *Queue
	Name    string
	Meta    Meta
	Sender  comm.Sender
	Metrics *metrics.Metrics
}

// NewBridge creates a Bridge. The meta topic is cleared by the broker if
// the bridge disappears without a clean shutdown.
func NewBridge(opts *Options, name string, sender comm.Sender) *Bridge {
	opts.Client.SetBinaryWill(opts.TopicPrefix+name+"/"+TopicMeta, nil, 1, true)
	if opts.Client.ClientID == "" {
		opts.Client.SetClientID("rcx:" + name)
	}
	return newBridge(NewQueue(opts), name, sender)
}

func newBridge(q *Queue, name string, sender comm.Sender) *Bridge {
	b := &Bridge{Queue: q, Name: name, Sender: sender}
	q.OnConnect = func(*Queue) { b.publishMeta() }
	return b
}

// WithMeta sets Meta.
func (b *Bridge) WithMeta(meta Meta) *Bridge {
	b.Meta = meta
	return b
}

// WithMetrics sets Metrics.
func (b *Bridge) WithMetrics(m *metrics.Metrics) *Bridge {
	b.Metrics = m
	return b
}

// Run implements Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	token := b.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	defer b.Queue.Close()

	text := NewPacketReadWriter(b.Queue).ForBridge(b.Name, TopicCmd).Open()
	raw := NewPacketReadWriter(b.Queue).ForBridge(b.Name, TopicRaw).Open()
	runner := fx.NewRunnerWith(ctx)
	runner.StopOnError = true
	runner.Go(
		comm.NewPipe(text, b.Sender).WithMetrics(b.Metrics, "mqtt"),
		comm.NewPipe(raw, b.Sender).WithCodec(comm.ProtoCodec{}).WithMetrics(b.Metrics, "mqtt-raw"),
	)
	glog.Infof("bridge %q serving on %s%s/", b.Name, b.Queue.TopicPrefix, b.Name)
	err := runner.Wait()

	token = b.Queue.PubWith(b.Name+"/"+TopicMeta, nil, 1, true)
	token.Wait()
	return err
}

func (b *Bridge) publishMeta() {
	data, err := json.Marshal(&b.Meta)
	if err != nil {
		panic(err)
	}
	b.Queue.PubWith(b.Name+"/"+TopicMeta, data, 1, true)
}

// String implements fmt.Stringer.
func (b *Bridge) String() string {
	return "mqtt:" + b.Name
}
