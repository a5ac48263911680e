// Package telemetry provides the events emitted by the emulator and the
// observers consuming them.
package telemetry

import (
	"time"

	"github.com/golang/protobuf/proto"
)

// EventKind is the type of an Event.
type EventKind int32

// Event kinds.
const (
	EventUnknown           EventKind = 0
	EventFrameDecoded      EventKind = 1
	EventFrameRejected     EventKind = 2
	EventTriggerSent       EventKind = 3
	EventTriggerReceived   EventKind = 4
	EventIndicator         EventKind = 5
	EventDutyLevel         EventKind = 6
	EventSequenceDone      EventKind = 7
	EventSequencePreempted EventKind = 8
)

// EventKind_name maps kinds to names for text encoding.
var EventKind_name = map[int32]string{
	0: "UNKNOWN",
	1: "FRAME_DECODED",
	2: "FRAME_REJECTED",
	3: "TRIGGER_SENT",
	4: "TRIGGER_RECEIVED",
	5: "INDICATOR",
	6: "DUTY_LEVEL",
	7: "SEQUENCE_DONE",
	8: "SEQUENCE_PREEMPTED",
}

// EventKind_value maps names to kinds.
var EventKind_value = map[string]int32{
	"UNKNOWN":            0,
	"FRAME_DECODED":      1,
	"FRAME_REJECTED":     2,
	"TRIGGER_SENT":       3,
	"TRIGGER_RECEIVED":   4,
	"INDICATOR":          5,
	"DUTY_LEVEL":         6,
	"SEQUENCE_DONE":      7,
	"SEQUENCE_PREEMPTED": 8,
}

func init() {
	proto.RegisterEnum("servoemu.telemetry.v1.EventKind", EventKind_name, EventKind_value)
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	return proto.EnumName(EventKind_name, int32(k))
}

// Event is a single telemetry record. It is encoded with protobuf on the wire.
type Event struct {
	Kind      EventKind `protobuf:"varint,1,opt,name=kind,proto3,enum=servoemu.telemetry.v1.EventKind" json:"kind,omitempty"`
	Timestamp int64     `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	ServoId   uint32    `protobuf:"varint,3,opt,name=servo_id,json=servoId,proto3" json:"servo_id,omitempty"`
	Command   uint32    `protobuf:"varint,4,opt,name=command,proto3" json:"command,omitempty"`
	Position  uint32    `protobuf:"varint,5,opt,name=position,proto3" json:"position,omitempty"`
	Value     uint32    `protobuf:"varint,6,opt,name=value,proto3" json:"value,omitempty"`
	Step      int32     `protobuf:"varint,7,opt,name=step,proto3" json:"step,omitempty"`
	HoldMs    int64     `protobuf:"varint,8,opt,name=hold_ms,json=holdMs,proto3" json:"hold_ms,omitempty"`
	Error     string    `protobuf:"bytes,9,opt,name=error,proto3" json:"error,omitempty"`
}

// Reset implements proto.Message.
func (m *Event) Reset() { *m = Event{} }

// String implements proto.Message.
func (m *Event) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Event) ProtoMessage() {}

// NewEvent creates an Event stamped with t.
func NewEvent(kind EventKind, t time.Time) *Event {
	return &Event{Kind: kind, Timestamp: t.UnixNano()}
}

// Time returns the timestamp as time.Time.
func (m *Event) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Encode encodes the event to bytes.
func (m *Event) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeEvent decodes bytes into an Event.
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := proto.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
