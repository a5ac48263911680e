package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/servoemu/pkg/telemetry"
)

func TestNewPublisher(t *testing.T) {
	p, err := NewPublisher("mqtt://localhost:1883/robo/", "lx16a/m1", Meta{ServoID: 1})
	require.NoError(t, err)
	opts := p.Queue.Client.OptionsReader()
	assert.Equal(t, "servoemu:lx16a/m1", opts.ClientID())
	assert.Equal(t, "robo/lx16a/m1/meta", opts.WillTopic())
	assert.True(t, opts.WillRetained())
	assert.Equal(t, "robo/", p.Queue.TopicPrefix)
}

func TestPublisher(t *testing.T) {
	c := &fakeClient{}
	p := &Publisher{
		Queue:  &Queue{Client: c},
		Name:   "lx16a/m1",
		Meta:   Meta{ServoID: 3, Checksum: "ignore", Profile: "100:3s"},
		events: make(chan *telemetry.Event, 1),
	}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	p.Queue.OnConnectHandler(c)
	metas := c.publishedTo("lx16a/m1/meta")
	require.Len(t, metas, 1)
	var meta Meta
	require.NoError(t, json.Unmarshal(metas[0].payload, &meta))
	assert.Equal(t, p.Meta, meta)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	ev := telemetry.NewEvent(telemetry.EventTriggerSent, time.Now())
	ev.Position = 600
	ev.Value = 1
	p.Observe(ev)
	require.Eventually(t, func() bool {
		return len(c.publishedTo("lx16a/m1/events")) == 1
	}, time.Second, time.Millisecond)
	decoded, err := telemetry.DecodeEvent(c.publishedTo("lx16a/m1/events")[0].payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(600), decoded.Position)

	cancel()
	assert.Equal(t, context.Canceled, <-done)
	metas = c.publishedTo("lx16a/m1/meta")
	require.Len(t, metas, 2)
	assert.Empty(t, metas[1].payload)
	assert.True(t, metas[1].retained)
	assert.False(t, c.connected)
}

func TestPublisherDropsWhenFull(t *testing.T) {
	p := &Publisher{events: make(chan *telemetry.Event, 1)}
	p.Observe(telemetry.NewEvent(telemetry.EventIndicator, time.Now()))
	p.Observe(telemetry.NewEvent(telemetry.EventIndicator, time.Now()))
	assert.Len(t, p.events, 1)
}
