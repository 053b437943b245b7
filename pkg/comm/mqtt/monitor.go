package mqtt

import (
	"fmt"
	"strings"

	"github.com/robotalks/rcx.go/pkg/comm"
	"github.com/robotalks/rcx.go/pkg/rcx"
)

// Describe renders a message seen on a bridge topic for monitoring.
// topic is relative to the queue prefix.
func Describe(topic string, payload []byte) string {
	items := strings.Split(topic, "/")
	if len(items) < 2 {
		return fmt.Sprintf("%s: %d bytes", topic, len(payload))
	}
	kind := strings.Join(items[1:], "/")
	switch kind {
	case TopicMeta:
		if len(payload) == 0 {
			return fmt.Sprintf("%s: offline", topic)
		}
		return fmt.Sprintf("%s: %s", topic, string(payload))
	case TopicCmd, TopicCmd + "/reply":
		return fmt.Sprintf("%s: %s", topic, strings.TrimSpace(string(payload)))
	case TopicRaw:
		ops, err := comm.ProtoCodec{}.DecodeRequest(payload)
		if err != nil {
			return fmt.Sprintf("%s: bad request: %v", topic, err)
		}
		return fmt.Sprintf("%s: %s", topic, ops)
	case TopicRaw + "/reply":
		wire, err := comm.ProtoCodec{}.DecodeReply(payload)
		if err != nil {
			return fmt.Sprintf("%s: ERR %v", topic, err)
		}
		return fmt.Sprintf("%s: OK %s", topic, rcx.FormatHex(wire))
	}
	return fmt.Sprintf("%s: %d bytes", topic, len(payload))
}
