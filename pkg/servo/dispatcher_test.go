package servo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/servoemu/pkg/lx16a"
	"github.com/robotalks/servoemu/pkg/telemetry"
)

type sentValues []uint32

func (s *sentValues) Send(ctx context.Context, v uint32) error {
	*s = append(*s, v)
	return nil
}

func mustFrame(t *testing.T, id, cmd byte, params ...byte) *lx16a.Frame {
	f, err := lx16a.NewFrame(id, cmd, params...)
	require.NoError(t, err)
	return f
}

func TestTrigger(t *testing.T) {
	assert.Equal(t, uint32(0), Trigger(0, DefaultThreshold))
	assert.Equal(t, uint32(0), Trigger(500, DefaultThreshold))
	assert.Equal(t, uint32(1), Trigger(501, DefaultThreshold))
	assert.Equal(t, uint32(1), Trigger(0xffff, DefaultThreshold))
}

func TestDispatcher(t *testing.T) {
	cases := []struct {
		name    string
		matchID bool
		frame   func(*testing.T) *lx16a.Frame
		sent    []uint32
	}{
		{
			name:  "move above threshold",
			frame: func(t *testing.T) *lx16a.Frame { return mustFrame(t, 1, lx16a.CmdMoveTimeWrite, 0xf5, 0x01, 0xe8, 0x03) },
			sent:  []uint32{1},
		},
		{
			name:  "move at threshold",
			frame: func(t *testing.T) *lx16a.Frame { return mustFrame(t, 1, lx16a.CmdMoveTimeWrite, 0xf4, 0x01, 0xe8, 0x03) },
			sent:  []uint32{0},
		},
		{
			name:  "position only",
			frame: func(t *testing.T) *lx16a.Frame { return mustFrame(t, 1, lx16a.CmdMoveTimeWrite, 0x00, 0x04) },
			sent:  []uint32{1},
		},
		{
			name:  "any id accepted",
			frame: func(t *testing.T) *lx16a.Frame { return mustFrame(t, 7, lx16a.CmdMoveTimeWrite, 0x00, 0x04) },
			sent:  []uint32{1},
		},
		{
			name:    "other id filtered",
			matchID: true,
			frame:   func(t *testing.T) *lx16a.Frame { return mustFrame(t, 7, lx16a.CmdMoveTimeWrite, 0x00, 0x04) },
		},
		{
			name:    "broadcast accepted",
			matchID: true,
			frame:   func(t *testing.T) *lx16a.Frame { return mustFrame(t, lx16a.BroadcastID, lx16a.CmdMoveTimeWrite, 0x00, 0x04) },
			sent:    []uint32{1},
		},
		{
			name:  "missing position",
			frame: func(t *testing.T) *lx16a.Frame { return mustFrame(t, 1, lx16a.CmdMoveTimeWrite, 0x00) },
		},
		{
			name:  "other command",
			frame: func(t *testing.T) *lx16a.Frame { return mustFrame(t, 1, lx16a.CmdMoveTimeWaitWrite, 0x00, 0x04) },
		},
		{
			name:  "stop",
			frame: func(t *testing.T) *lx16a.Frame { return mustFrame(t, 1, lx16a.CmdMoveStop) },
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var sent sentValues
			rec := telemetry.NewRecorder(0)
			d := NewDispatcher(&sent)
			d.MatchID = c.matchID
			d.Observer = rec
			require.NoError(t, d.HandleFrame(context.Background(), c.frame(t)))
			assert.Equal(t, c.sent, []uint32(sent))
			assert.Len(t, rec.Kinds(telemetry.EventFrameDecoded), 1)
			assert.Len(t, rec.Kinds(telemetry.EventTriggerSent), len(c.sent))
		})
	}
}

type failingSender struct{ err error }

func (s failingSender) Send(context.Context, uint32) error { return s.err }

func TestDispatcherSendError(t *testing.T) {
	d := NewDispatcher(failingSender{err: context.Canceled})
	err := d.HandleFrame(context.Background(), mustFrame(t, 1, lx16a.CmdMoveTimeWrite, 0x00, 0x04))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDispatcherRejected(t *testing.T) {
	rec := telemetry.NewRecorder(0)
	d := NewDispatcher(&sentValues{})
	d.Observer = rec
	d.FrameRejected(context.Background(), lx16a.ErrParamsOverflow)
	events := rec.Kinds(telemetry.EventFrameRejected)
	require.Len(t, events, 1)
	assert.Equal(t, lx16a.ErrParamsOverflow.Error(), events[0].Error)
}

func TestDispatcherClock(t *testing.T) {
	clk := clock.NewMock()
	clk.Add(90 * time.Second)
	rec := telemetry.NewRecorder(0)
	d := NewDispatcher(&sentValues{})
	d.Clock = clk
	d.Observer = rec
	require.NoError(t, d.HandleFrame(context.Background(), mustFrame(t, 1, lx16a.CmdMoveTimeWrite, 0x00, 0x04)))
	events := rec.Events()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, clk.Now().UnixNano(), ev.Timestamp, ev.Kind.String())
	}
}
