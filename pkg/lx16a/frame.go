package lx16a

import (
	"fmt"
	"io"
)

// Frame layout constants.
const (
	// SyncByte is sent twice to start a frame.
	SyncByte byte = 0x55
	// BroadcastID addresses all servos on the bus.
	BroadcastID byte = 0xfe
	// MaxParams is the capacity of the parameter buffer.
	MaxParams = 8

	// length, command and checksum are counted in Length.
	lengthOverhead = 3
)

// Command codes.
const (
	CmdMoveTimeWrite     byte = 1
	CmdMoveTimeRead      byte = 2
	CmdMoveTimeWaitWrite byte = 7
	CmdMoveTimeWaitRead  byte = 8
	CmdMoveStart         byte = 11
	CmdMoveStop          byte = 12
	CmdIDWrite           byte = 13
	CmdIDRead            byte = 14
	CmdAngleOffsetAdjust byte = 17
	CmdAngleOffsetWrite  byte = 18
	CmdAngleOffsetRead   byte = 19
	CmdPosRead           byte = 28
	CmdLoadOrUnloadWrite byte = 31
	CmdLEDCtrlWrite      byte = 33
)

// Params is a bounded parameter buffer.
type Params struct {
	buf [MaxParams]byte
	n   int
}

// NewParams creates Params from bytes.
func NewParams(b ...byte) (Params, error) {
	var p Params
	if len(b) > MaxParams {
		return p, fmt.Errorf("%w: %d parameters", ErrParamsOverflow, len(b))
	}
	p.n = copy(p.buf[:], b)
	return p, nil
}

// Len returns the number of parameters.
func (p Params) Len() int {
	return p.n
}

// At returns the parameter at index i, or 0 if i is out of range.
func (p Params) At(i int) byte {
	if i < 0 || i >= p.n {
		return 0
	}
	return p.buf[i]
}

// Word returns the little-endian 16-bit value at index i and i+1.
func (p Params) Word(i int) (uint16, bool) {
	if i < 0 || i+1 >= p.n {
		return 0, false
	}
	return uint16(p.buf[i]) | uint16(p.buf[i+1])<<8, true
}

// Bytes returns a copy of the parameters.
func (p Params) Bytes() []byte {
	b := make([]byte, p.n)
	copy(b, p.buf[:p.n])
	return b
}

// Sum adds up all parameters.
func (p Params) Sum() (sum int) {
	for _, b := range p.buf[:p.n] {
		sum += int(b)
	}
	return
}

// Append adds one parameter. It returns false when the buffer is full.
func (p *Params) Append(b byte) bool {
	if p.n >= MaxParams {
		return false
	}
	p.buf[p.n] = b
	p.n++
	return true
}

// Frame contains the information of a decoded frame.
type Frame struct {
	ServoID  byte
	Length   byte
	Command  byte
	Params   Params
	Checksum byte
}

// Checksum calculates the checksum over the frame fields.
func Checksum(id, length, cmd byte, paramSum int) byte {
	return byte(255 - (int(id)+int(length)+int(cmd)+paramSum)%256)
}

// NewFrame builds a frame with Length and Checksum filled.
func NewFrame(id, cmd byte, params ...byte) (*Frame, error) {
	p, err := NewParams(params...)
	if err != nil {
		return nil, err
	}
	f := &Frame{
		ServoID: id,
		Length:  byte(p.Len() + lengthOverhead),
		Command: cmd,
		Params:  p,
	}
	f.Checksum = f.ExpectedChecksum()
	return f, nil
}

// ParamCount is the number of parameters declared by Length.
func (f *Frame) ParamCount() int {
	if f.Length <= lengthOverhead {
		return 0
	}
	return int(f.Length) - lengthOverhead
}

// ExpectedChecksum calculates the checksum from the received fields.
func (f *Frame) ExpectedChecksum() byte {
	return Checksum(f.ServoID, f.Length, f.Command, f.Params.Sum())
}

// ChecksumValid tells whether the received checksum matches.
func (f *Frame) ChecksumValid() bool {
	return f.Checksum == f.ExpectedChecksum()
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, 0, f.Params.Len()+6)
	b = append(b, SyncByte, SyncByte, f.ServoID, f.Length, f.Command)
	b = append(b, f.Params.buf[:f.Params.n]...)
	return append(b, f.Checksum)
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	return fmt.Sprintf("id=%d len=%d cmd=%d params=% x checksum=0x%02x",
		f.ServoID, f.Length, f.Command, f.Params.Bytes(), f.Checksum)
}
