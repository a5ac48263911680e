package servo

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/servoemu/pkg/telemetry"
)

// DefaultPollInterval is the delay between polls of an empty mailbox.
const DefaultPollInterval = 10 * time.Millisecond

// Receiver is the receiving end of the trigger mailbox.
type Receiver interface {
	TryReceive() (uint32, bool)
	Ready() <-chan struct{}
}

// Sequencer polls triggers and runs the actuation profile.
type Sequencer struct {
	Receiver     Receiver
	PWM          PWM
	Indicator    Indicator
	Profile      Profile
	Clock        clock.Clock
	PollInterval time.Duration
	// Preemptible lets a new trigger abort a running profile.
	// The profile always runs to completion otherwise.
	Preemptible bool
	Observer    telemetry.Observer
}

// NewSequencer creates a Sequencer with the default profile.
func NewSequencer(rx Receiver, pwm PWM, indicator Indicator) *Sequencer {
	return &Sequencer{
		Receiver:     rx,
		PWM:          pwm,
		Indicator:    indicator,
		Profile:      DefaultProfile,
		Clock:        clock.New(),
		PollInterval: DefaultPollInterval,
	}
}

// Name implements Named.
func (s *Sequencer) Name() string {
	return "sequencer"
}

// Run sets the idle level and polls for triggers until ctx is done.
func (s *Sequencer) Run(ctx context.Context) error {
	if err := s.setLevel(-1, IdleLevel, 0); err != nil {
		return err
	}
	for {
		polled, err := s.Poll(ctx)
		if err != nil {
			return err
		}
		if polled {
			continue
		}
		if err := s.sleep(ctx, s.PollInterval); err != nil {
			return err
		}
	}
}

// Poll handles at most one pending trigger. It returns false if there was
// none. A non-zero trigger turns the indicator on and runs the profile; a zero
// trigger turns the indicator off and leaves the PWM untouched.
func (s *Sequencer) Poll(ctx context.Context) (bool, error) {
	v, ok := s.Receiver.TryReceive()
	if !ok {
		return false, nil
	}
	ev := telemetry.NewEvent(telemetry.EventTriggerReceived, s.Clock.Now())
	ev.Value = v
	telemetry.Notify(s.Observer, ev)

	on := v != 0
	if err := s.Indicator.Set(on); err != nil {
		return true, err
	}
	ev = telemetry.NewEvent(telemetry.EventIndicator, s.Clock.Now())
	if on {
		ev.Value = 1
	}
	telemetry.Notify(s.Observer, ev)
	if !on {
		return true, nil
	}
	return true, s.Actuate(ctx)
}

// Actuate runs the profile once.
func (s *Sequencer) Actuate(ctx context.Context) error {
	var preempt <-chan struct{}
	if s.Preemptible {
		preempt = s.Receiver.Ready()
	}
	glog.V(1).Infof("actuation started: %s", s.Profile)
	for n, step := range s.Profile {
		if step.Hold <= 0 {
			if err := s.setLevel(n, step.Level, 0); err != nil {
				return err
			}
			continue
		}
		if err := s.PWM.SetLevel(step.Level); err != nil {
			return err
		}
		timer := s.Clock.Timer(step.Hold)
		s.notifyLevel(n, step.Level, step.Hold)
		select {
		case <-timer.C:
		case <-preempt:
			timer.Stop()
			glog.V(1).Infof("actuation preempted at step %d", n)
			ev := telemetry.NewEvent(telemetry.EventSequencePreempted, s.Clock.Now())
			ev.Step = int32(n)
			telemetry.Notify(s.Observer, ev)
			return nil
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	glog.V(1).Info("actuation done")
	telemetry.Notify(s.Observer, telemetry.NewEvent(telemetry.EventSequenceDone, s.Clock.Now()))
	return nil
}

func (s *Sequencer) setLevel(n int, level uint16, hold time.Duration) error {
	if err := s.PWM.SetLevel(level); err != nil {
		return err
	}
	s.notifyLevel(n, level, hold)
	return nil
}

func (s *Sequencer) notifyLevel(n int, level uint16, hold time.Duration) {
	ev := telemetry.NewEvent(telemetry.EventDutyLevel, s.Clock.Now())
	ev.Step, ev.Value, ev.HoldMs = int32(n), uint32(level), hold.Milliseconds()
	telemetry.Notify(s.Observer, ev)
}

func (s *Sequencer) sleep(ctx context.Context, d time.Duration) error {
	timer := s.Clock.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
