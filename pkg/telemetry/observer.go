package telemetry

import (
	"sync"

	"github.com/golang/glog"
)

// Observer receives telemetry events.
// Observe must not block the caller for long.
type Observer interface {
	Observe(*Event)
}

// ObserverFunc is the func form of Observer.
type ObserverFunc func(*Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ev *Event) {
	f(ev)
}

// Observers fans an event out to multiple observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(ev *Event) {
	for _, observer := range o {
		observer.Observe(ev)
	}
}

// Notify sends ev to o if o is not nil.
func Notify(o Observer, ev *Event) {
	if o != nil {
		o.Observe(ev)
	}
}

// LogObserver writes events to glog.
type LogObserver struct{}

// LogLevel returns the glog verbosity an event of kind is logged at.
// Rejected frames are always logged as warnings.
func LogLevel(kind EventKind) glog.Level {
	switch kind {
	case EventFrameDecoded:
		return 2
	case EventTriggerSent, EventTriggerReceived, EventIndicator, EventDutyLevel:
		return 1
	}
	return 0
}

// Observe implements Observer.
func (LogObserver) Observe(ev *Event) {
	if ev.Kind == EventFrameRejected {
		glog.Warningf("%s: %s", ev.Kind, ev.Error)
		return
	}
	if !glog.V(LogLevel(ev.Kind)) {
		return
	}
	switch ev.Kind {
	case EventFrameDecoded:
		glog.Infof("%s: id=%d cmd=%d", ev.Kind, ev.ServoId, ev.Command)
	case EventTriggerSent, EventTriggerReceived, EventIndicator:
		glog.Infof("%s: %d", ev.Kind, ev.Value)
	case EventDutyLevel:
		glog.Infof("%s: step=%d level=%d hold=%dms", ev.Kind, ev.Step, ev.Value, ev.HoldMs)
	default:
		glog.Infof("%s", ev.Kind)
	}
}
// Recorder keeps every observed event in memory.
type Recorder struct {
	lock   sync.Mutex
	events []*Event
	notify chan *Event
}

// NewRecorder creates a Recorder. If buffer is positive, events are also
// delivered on C.
func NewRecorder(buffer int) *Recorder {
	r := &Recorder{}
	if buffer > 0 {
		r.notify = make(chan *Event, buffer)
	}
	return r
}

// Observe implements Observer.
func (r *Recorder) Observe(ev *Event) {
	r.lock.Lock()
	r.events = append(r.events, ev)
	r.lock.Unlock()
	if r.notify != nil {
		r.notify <- ev
	}
}

// C delivers events as they are observed.
func (r *Recorder) C() <-chan *Event {
	return r.notify
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []*Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]*Event(nil), r.events...)
}

// Kinds returns the recorded events matching kinds, all if none given.
func (r *Recorder) Kinds(kinds ...EventKind) []*Event {
	var events []*Event
	for _, ev := range r.Events() {
		if len(kinds) == 0 {
			events = append(events, ev)
			continue
		}
		for _, k := range kinds {
			if ev.Kind == k {
				events = append(events, ev)
				break
			}
		}
	}
	return events
}
