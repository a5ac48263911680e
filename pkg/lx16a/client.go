package lx16a

import (
	"io"
	"sync"
)

// Limits accepted by move commands.
const (
	MaxPosition uint16 = 1000
	MaxMoveTime uint16 = 30000
)

// Client sends commands to servos on the bus.
type Client struct {
	Writer io.Writer

	lock sync.Mutex
}

// NewClient creates client and wraps the writer.
func NewClient(w io.Writer) *Client {
	return &Client{Writer: w}
}

// Send writes a frame.
func (c *Client) Send(f *Frame) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, err := f.WriteTo(c.Writer)
	return err
}

// Do builds a frame and sends it.
func (c *Client) Do(id, cmd byte, params ...byte) (*Frame, error) {
	f, err := NewFrame(id, cmd, params...)
	if err != nil {
		return nil, err
	}
	return f, c.Send(f)
}

// Move moves the servo to position within duration (ms) immediately.
func (c *Client) Move(id byte, position, duration uint16) (*Frame, error) {
	return c.Do(id, CmdMoveTimeWrite, moveParams(position, duration)...)
}

// MovePrepare stores a move to be started by MoveStart.
func (c *Client) MovePrepare(id byte, position, duration uint16) (*Frame, error) {
	return c.Do(id, CmdMoveTimeWaitWrite, moveParams(position, duration)...)
}

// MoveStart starts a prepared move.
func (c *Client) MoveStart(id byte) (*Frame, error) {
	return c.Do(id, CmdMoveStart)
}

// MoveStop stops the servo.
func (c *Client) MoveStop(id byte) (*Frame, error) {
	return c.Do(id, CmdMoveStop)
}

// SetID changes the servo ID.
func (c *Client) SetID(id, newID byte) (*Frame, error) {
	return c.Do(id, CmdIDWrite, newID)
}

// AdjustOffset adjusts the angle offset, not saved across power loss.
func (c *Client) AdjustOffset(id byte, deviation int8) (*Frame, error) {
	return c.Do(id, CmdAngleOffsetAdjust, byte(deviation))
}

func moveParams(position, duration uint16) []byte {
	if position > MaxPosition {
		position = MaxPosition
	}
	if duration > MaxMoveTime {
		duration = MaxMoveTime
	}
	return []byte{byte(position), byte(position >> 8), byte(duration), byte(duration >> 8)}
}
