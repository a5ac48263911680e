package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"

	"github.com/robotalks/servoemu/pkg/telemetry"
)

// DefaultEventBuffer is the number of events queued before dropping.
const DefaultEventBuffer = 64

// Meta is published retained on NAME/meta while the emulator is online.
type Meta struct {
	Description string `json:"description,omitempty"`
	ServoID     uint   `json:"servo_id"`
	Checksum    string `json:"checksum"`
	Preemptible bool   `json:"preemptible"`
	Profile     string `json:"profile"`
	Source      string `json:"source,omitempty"`
}

// Publisher publishes telemetry events to NAME/events.
type Publisher struct {
	Queue *Queue
	Name  string
	Meta  Meta

	events chan *telemetry.Event
}

// MetaTopic returns the topic of the retained meta.
func MetaTopic(name string) string {
	return name + "/meta"
}

// EventsTopic returns the topic of events.
func EventsTopic(name string) string {
	return name + "/events"
}

// NewPublisher creates a Publisher. The meta is cleared by the broker if the
// connection is lost.
func NewPublisher(brokerURL, name string, meta Meta) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+MetaTopic(name), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("servoemu:" + name)
	}
	p := &Publisher{
		Queue:  NewQueue(opts, topicPrefix),
		Name:   name,
		Meta:   meta,
		events: make(chan *telemetry.Event, DefaultEventBuffer),
	}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	return p, nil
}

// Observe implements telemetry.Observer. Events are dropped when the buffer
// is full.
func (p *Publisher) Observe(ev *telemetry.Event) {
	select {
	case p.events <- ev:
	default:
		glog.V(2).Infof("event dropped: %s", ev.Kind)
	}
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	p.Queue.Connect()
	defer p.Queue.Close()
	for {
		select {
		case ev := <-p.events:
			p.publish(ev)
		case <-ctx.Done():
			p.Queue.PubWith(MetaTopic(p.Name), nil, 1, true).Wait()
			return ctx.Err()
		}
	}
}

func (p *Publisher) publish(ev *telemetry.Event) {
	data, err := ev.Encode()
	if err != nil {
		glog.Errorf("encode event %s error: %v", ev.Kind, err)
		return
	}
	p.Queue.Pub(EventsTopic(p.Name), data)
}

func (p *Publisher) publishMeta() {
	meta, err := json.Marshal(&p.Meta)
	if err != nil {
		panic(err)
	}
	p.Queue.PubWith(MetaTopic(p.Name), meta, 1, true)
}
