package servo

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/servoemu/pkg/lx16a"
	"github.com/robotalks/servoemu/pkg/telemetry"
)

// DefaultThreshold is the position above which a move triggers actuation.
const DefaultThreshold uint16 = 500

// Sender pushes a trigger to the actuation context.
type Sender interface {
	Send(ctx context.Context, v uint32) error
}

// Dispatcher handles decoded frames.
// Only timed moves are acted upon, everything else is ignored.
type Dispatcher struct {
	Sender    Sender
	Threshold uint16
	// ServoID is only compared when MatchID is set.
	ServoID  byte
	MatchID  bool
	Clock    clock.Clock
	Observer telemetry.Observer
}

// NewDispatcher creates a Dispatcher sending triggers to sender.
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{
		Sender:    sender,
		Threshold: DefaultThreshold,
		ServoID:   1,
		Clock:     clock.New(),
	}
}

// Trigger maps a commanded position to a trigger value.
func Trigger(position, threshold uint16) uint32 {
	if position > threshold {
		return 1
	}
	return 0
}

// Accepts returns whether a frame addressed to id is for this servo.
func (d *Dispatcher) Accepts(id byte) bool {
	return !d.MatchID || id == d.ServoID || id == lx16a.BroadcastID
}

// HandleFrame implements lx16a.FrameHandler.
func (d *Dispatcher) HandleFrame(ctx context.Context, f *lx16a.Frame) error {
	ev := d.event(telemetry.EventFrameDecoded)
	ev.ServoId, ev.Command = uint32(f.ServoID), uint32(f.Command)
	telemetry.Notify(d.Observer, ev)

	if !d.Accepts(f.ServoID) {
		glog.V(2).Infof("frame for servo %d ignored", f.ServoID)
		return nil
	}
	switch f.Command {
	case lx16a.CmdMoveTimeWrite:
		position, ok := f.Params.Word(0)
		if !ok {
			glog.Warningf("move without position ignored: %s", f)
			return nil
		}
		trigger := Trigger(position, d.Threshold)
		if err := d.Sender.Send(ctx, trigger); err != nil {
			return err
		}
		glog.V(1).Infof("move to %d, trigger %d", position, trigger)
		ev := d.event(telemetry.EventTriggerSent)
		ev.ServoId, ev.Position, ev.Value = uint32(f.ServoID), uint32(position), trigger
		telemetry.Notify(d.Observer, ev)
	default:
		glog.V(2).Infof("command %d ignored", f.Command)
	}
	return nil
}

// FrameRejected implements lx16a.RejectNotifier.
func (d *Dispatcher) FrameRejected(ctx context.Context, err error) {
	ev := d.event(telemetry.EventFrameRejected)
	ev.Error = err.Error()
	telemetry.Notify(d.Observer, ev)
}

func (d *Dispatcher) event(kind telemetry.EventKind) *telemetry.Event {
	return telemetry.NewEvent(kind, d.now())
}

func (d *Dispatcher) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}
