package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/rcx.go/pkg/comm/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/rcx/"
)

func init() {
	if val := os.Getenv("RCX_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	opts, err := mqtt.ParseURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q := mqtt.NewQueue(opts)
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		log.Println(mqtt.Describe(topic, payload))
	}))
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
