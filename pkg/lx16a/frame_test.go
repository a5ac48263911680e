package lx16a

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParams(t *testing.T) {
	var p Params
	for i := 0; i < MaxParams; i++ {
		require.True(t, p.Append(byte(i+1)))
	}
	require.False(t, p.Append(9))
	require.Equal(t, MaxParams, p.Len())
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, p.Bytes())
	require.Equal(t, 36, p.Sum())
	require.Equal(t, byte(8), p.At(7))
	require.Equal(t, byte(0), p.At(8))
	require.Equal(t, byte(0), p.At(-1))

	w, ok := p.Word(0)
	require.True(t, ok)
	require.Equal(t, uint16(0x0201), w)
	_, ok = p.Word(7)
	require.False(t, ok)

	_, err := NewParams(make([]byte, MaxParams+1)...)
	require.True(t, errors.Is(err, ErrParamsOverflow))
}

func TestFrame(t *testing.T) {
	testCases := []struct {
		name   string
		id     byte
		cmd    byte
		params []byte
		expect []byte
	}{
		{"position 500", 5, CmdMoveTimeWrite, []byte{0xf4, 0x01}, []byte{0x55, 0x55, 5, 5, 1, 0xf4, 0x01, 0xff}},
		{"position 501", 5, CmdMoveTimeWrite, []byte{0xf5, 0x01}, []byte{0x55, 0x55, 5, 5, 1, 0xf5, 0x01, 0xfe}},
		{"no params", 1, CmdMoveStart, nil, []byte{0x55, 0x55, 1, 3, 11, 0xf0}},
		{"broadcast", BroadcastID, CmdMoveStop, nil, []byte{0x55, 0x55, 0xfe, 3, 12, 0xf2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFrame(tc.id, tc.cmd, tc.params...)
			require.NoError(t, err)
			require.True(t, f.ChecksumValid())
			require.Equal(t, tc.expect, f.Bytes())
			var buf bytes.Buffer
			n, err := f.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.Bytes())
		})
	}
}

func TestFrameDecodesBack(t *testing.T) {
	f, err := NewFrame(3, CmdMoveTimeWrite, 0xe8, 0x03, 0x10, 0x27)
	require.NoError(t, err)
	parser := Parser{Mode: ChecksumEnforce}
	var pr ParseResult
	for _, b := range f.Bytes() {
		pr = parser.Parse(b)
		require.NoError(t, pr.Err)
	}
	require.Equal(t, f, pr.Frame)
}

func TestClient(t *testing.T) {
	testCases := []struct {
		name   string
		do     func(*Client) (*Frame, error)
		expect []byte
	}{
		{
			"move",
			func(c *Client) (*Frame, error) { return c.Move(1, 501, 0) },
			[]byte{0x55, 0x55, 1, 7, 1, 0xf5, 0x01, 0x00, 0x00, 0x00},
		},
		{
			"move clamped",
			func(c *Client) (*Frame, error) { return c.Move(1, 2000, 40000) },
			[]byte{0x55, 0x55, 1, 7, 1, 0xe8, 0x03, 0x30, 0x75, 0x66},
		},
		{
			"prepare",
			func(c *Client) (*Frame, error) { return c.MovePrepare(1, 0, 0) },
			[]byte{0x55, 0x55, 1, 7, 7, 0, 0, 0, 0, 0xf0},
		},
		{
			"start",
			func(c *Client) (*Frame, error) { return c.MoveStart(1) },
			[]byte{0x55, 0x55, 1, 3, 11, 0xf0},
		},
		{
			"stop",
			func(c *Client) (*Frame, error) { return c.MoveStop(1) },
			[]byte{0x55, 0x55, 1, 3, 12, 0xef},
		},
		{
			"set id",
			func(c *Client) (*Frame, error) { return c.SetID(BroadcastID, 2) },
			[]byte{0x55, 0x55, 0xfe, 4, 13, 2, 0xee},
		},
		{
			"adjust offset",
			func(c *Client) (*Frame, error) { return c.AdjustOffset(1, -1) },
			[]byte{0x55, 0x55, 1, 4, 17, 0xff, 0xea},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			f, err := tc.do(NewClient(&buf))
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, tc.expect, f.Bytes())
		})
	}
}
