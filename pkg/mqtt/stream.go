package mqtt

import (
	"io"
	"sync"
)

// Topics of a byte stream relative to the queue prefix.
// The host publishes on TopicTx, the servo replies on TopicRx.
const (
	TopicTx = "tx"
	TopicRx = "rx"
)

// Stream carries a byte stream over a pair of topics.
// Each received message is appended to the stream; each Write is published
// as one message.
type Stream struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	reader *io.PipeReader
	writer *io.PipeWriter
	sub    *Subscription
	once   sync.Once
}

// NewStream creates a Stream on q.
func NewStream(q *Queue, sub, pub string) *Stream {
	s := &Stream{Queue: q, SubTopic: sub, PubTopic: pub}
	s.reader, s.writer = io.Pipe()
	return s
}

// NewServoStream creates a Stream for the servo side of the bus.
func NewServoStream(q *Queue) *Stream {
	return NewStream(q, TopicTx, TopicRx)
}

// NewHostStream creates a Stream for the host side of the bus.
func NewHostStream(q *Queue) *Stream {
	return NewStream(q, TopicRx, TopicTx)
}

// DialStream connects to the broker at brokerURL and opens a Stream.
// servo selects the side of the bus.
func DialStream(brokerURL string, servo bool) (*Stream, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	s := NewHostStream(q)
	if servo {
		s = NewServoStream(q)
	}
	if err := s.Open(); err != nil {
		q.Close()
		return nil, err
	}
	return s, nil
}

// Open connects the queue and subscribes the receiving topic.
func (s *Stream) Open() error {
	if err := s.Queue.ConnectWait(); err != nil {
		return err
	}
	s.sub = s.Queue.Sub(s.SubTopic, s.handleMsg)
	return nil
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	payload := append([]byte(nil), p...)
	token := s.Queue.Pub(s.PubTopic, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer. Pending reads get io.EOF.
func (s *Stream) Close() (err error) {
	s.once.Do(func() {
		if s.sub != nil {
			err = s.sub.Close()
		}
		s.writer.Close()
		s.Queue.Close()
	})
	return
}

func (s *Stream) handleMsg(_ string, payload []byte) {
	// Blocks the paho router until the bytes are consumed.
	s.writer.Write(payload)
}
