package servo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/servoemu/pkg/mailbox"
	"github.com/robotalks/servoemu/pkg/telemetry"
)

type seqFixture struct {
	mbox *mailbox.Mailbox
	pwm  *SimPWM
	led  *SimIndicator
	clk  *clock.Mock
	rec  *telemetry.Recorder
	seq  *Sequencer
}

func newSeqFixture() *seqFixture {
	f := &seqFixture{
		mbox: mailbox.New(mailbox.DefaultDepth),
		pwm:  &SimPWM{},
		led:  &SimIndicator{},
		clk:  clock.NewMock(),
		rec:  telemetry.NewRecorder(64),
	}
	f.seq = NewSequencer(f.mbox, f.pwm, f.led)
	f.seq.Clock = f.clk
	f.seq.Observer = f.rec
	return f
}

func (f *seqFixture) trigger(t *testing.T, values ...uint32) {
	for _, v := range values {
		require.NoError(t, f.mbox.Send(context.Background(), v))
	}
	f.mbox.Drain()
}

func (f *seqFixture) next(t *testing.T, kind telemetry.EventKind) *telemetry.Event {
	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-f.rec.C():
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
			return nil
		}
	}
}

func (f *seqFixture) poll(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := f.seq.Poll(ctx)
		done <- err
	}()
	return done
}

func TestDefaultProfile(t *testing.T) {
	assert.Equal(t, []uint16{100, 256, 412, 256}, DefaultProfile.Levels())
	assert.Equal(t, 11000*time.Millisecond, DefaultProfile.Duration())
	assert.NoError(t, DefaultProfile.Validate())
	for _, level := range DefaultProfile.Levels() {
		assert.True(t, level <= PWMWrap)
	}
}

func TestProfileValidate(t *testing.T) {
	assert.Error(t, Profile{{Level: PWMWrap + 1}}.Validate())
	assert.Error(t, Profile{{Level: 10, Hold: -time.Second}}.Validate())
	assert.Equal(t, "100:3s,256:5s,412:3s,256:0s", DefaultProfile.String())
}

func TestSequencerFullProfile(t *testing.T) {
	f := newSeqFixture()
	f.trigger(t, 1)
	start := f.clk.Now()
	done := f.poll(context.Background())

	for n, step := range DefaultProfile {
		ev := f.next(t, telemetry.EventDutyLevel)
		assert.Equal(t, int32(n), ev.Step)
		assert.Equal(t, uint32(step.Level), ev.Value)
		assert.Equal(t, step.Level, f.pwm.Level())
		if step.Hold == 0 {
			continue
		}
		f.clk.Add(step.Hold - time.Millisecond)
		select {
		case ev := <-f.rec.C():
			t.Fatalf("step %d ended early: %s", n, ev)
		case <-time.After(20 * time.Millisecond):
		}
		f.clk.Add(time.Millisecond)
	}
	f.next(t, telemetry.EventSequenceDone)
	require.NoError(t, <-done)

	assert.Equal(t, 11000*time.Millisecond, f.clk.Now().Sub(start))
	assert.Equal(t, DefaultProfile.Levels(), f.pwm.History())
	assert.Equal(t, []bool{true}, f.led.History())
}

func TestSequencerZeroTrigger(t *testing.T) {
	f := newSeqFixture()
	require.NoError(t, f.led.Set(true))
	f.trigger(t, 0)
	polled, err := f.seq.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, polled)
	assert.False(t, f.led.On())
	assert.Empty(t, f.pwm.History())
}

func TestSequencerNothingPending(t *testing.T) {
	f := newSeqFixture()
	polled, err := f.seq.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, polled)
	assert.Empty(t, f.led.History())
}

func TestSequencerLatestWins(t *testing.T) {
	f := newSeqFixture()
	f.seq.Profile = Profile{{Level: 10}, {Level: 20}}
	f.trigger(t, 1, 1, 0)
	polled, err := f.seq.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, polled)
	assert.Empty(t, f.pwm.History())
	assert.False(t, f.led.On())

	f.trigger(t, 0, 0, 1)
	_, err = f.seq.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint16{10, 20}, f.pwm.History())
	assert.True(t, f.led.On())

	polled, err = f.seq.Poll(context.Background())
	require.NoError(t, err)
	assert.False(t, polled, "each trigger is consumed once")
}

func TestSequencerNotPreempted(t *testing.T) {
	f := newSeqFixture()
	f.seq.Profile = Profile{{Level: 10, Hold: time.Second}, {Level: 20}}
	f.trigger(t, 1)
	done := f.poll(context.Background())
	f.next(t, telemetry.EventDutyLevel)

	f.trigger(t, 0)
	select {
	case err := <-done:
		t.Fatalf("actuation aborted: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	f.clk.Add(time.Second)
	require.NoError(t, <-done)
	assert.Equal(t, []uint16{10, 20}, f.pwm.History())

	polled, err := f.seq.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, polled)
	assert.False(t, f.led.On())
}

func TestSequencerPreempted(t *testing.T) {
	f := newSeqFixture()
	f.seq.Preemptible = true
	f.seq.Profile = Profile{{Level: 10, Hold: time.Second}, {Level: 20}}
	f.trigger(t, 1)
	done := f.poll(context.Background())
	f.next(t, telemetry.EventDutyLevel)

	f.trigger(t, 1)
	ev := f.next(t, telemetry.EventSequencePreempted)
	assert.Equal(t, int32(0), ev.Step)
	require.NoError(t, <-done)
	assert.Equal(t, []uint16{10}, f.pwm.History())

	done = f.poll(context.Background())
	f.next(t, telemetry.EventDutyLevel)
	f.clk.Add(time.Second)
	require.NoError(t, <-done)
	assert.Equal(t, []uint16{10, 10, 20}, f.pwm.History())
}

func TestSequencerCanceled(t *testing.T) {
	f := newSeqFixture()
	f.trigger(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := f.poll(ctx)
	f.next(t, telemetry.EventDutyLevel)
	cancel()
	assert.Equal(t, context.Canceled, <-done)
}

func TestSequencerRun(t *testing.T) {
	f := newSeqFixture()
	f.seq.Profile = Profile{{Level: 300}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- f.seq.Run(ctx) }()

	ev := f.next(t, telemetry.EventDutyLevel)
	assert.Equal(t, int32(-1), ev.Step)
	assert.Equal(t, uint32(IdleLevel), ev.Value)

	f.trigger(t, 1)
	require.Eventually(t, func() bool {
		f.clk.Add(DefaultPollInterval)
		return f.pwm.Level() == 300
	}, time.Second, time.Millisecond)
	assert.True(t, f.led.On())

	cancel()
	assert.Equal(t, context.Canceled, <-done)
}

type failingIndicator struct{}

func (failingIndicator) Set(bool) error { return errors.New("gpio failure") }

func TestSequencerIndicatorError(t *testing.T) {
	f := newSeqFixture()
	f.seq.Indicator = failingIndicator{}
	f.trigger(t, 1)
	polled, err := f.seq.Poll(context.Background())
	assert.True(t, polled)
	assert.EqualError(t, err, "gpio failure")
	assert.Empty(t, f.pwm.History())
}
