package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/servoemu/pkg/mqtt"
	"github.com/robotalks/servoemu/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/"
)

func init() {
	if val := os.Getenv("SERVOEMU_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/meta"):
			if len(payload) == 0 {
				log.Printf("%s: offline", topic)
				return
			}
			log.Printf("%s: %s", topic, string(payload))
		case strings.HasSuffix(topic, "/events"):
			ev, err := telemetry.DecodeEvent(payload)
			if err != nil {
				log.Printf("%s: bad event: %v", topic, err)
				return
			}
			log.Printf("%s: [%s] %s", topic, ev.Kind, ev.String())
		case strings.HasSuffix(topic, "/"+mqtt.TopicTx), strings.HasSuffix(topic, "/"+mqtt.TopicRx), topic == mqtt.TopicTx, topic == mqtt.TopicRx:
			log.Printf("%s: % x", topic, payload)
		}
	}))
	if err := q.ConnectWait(); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
