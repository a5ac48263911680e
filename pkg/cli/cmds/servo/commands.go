// Package servo exposes LX-16A commands in the shell.
package servo

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/servoemu/pkg/cli/sh"
	"github.com/robotalks/servoemu/pkg/lx16a"
)

// DefaultMoveTime is used when TIME is omitted, in milliseconds.
const DefaultMoveTime = 1000

func parseMove(args []string) (position, duration uint16, err error) {
	if len(args) < 1 {
		return 0, 0, fmt.Errorf("POS required")
	}
	val, err := sh.ParseUint(args[0], "POS", uint64(lx16a.MaxPosition))
	if err != nil {
		return 0, 0, err
	}
	position, duration = uint16(val), DefaultMoveTime
	if len(args) > 1 {
		if val, err = sh.ParseUint(args[1], "TIME", uint64(lx16a.MaxMoveTime)); err != nil {
			return 0, 0, err
		}
		duration = uint16(val)
	}
	return
}

func parseState(arg string) (bool, error) {
	switch arg {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	on, err := strconv.ParseBool(arg)
	if err != nil {
		return false, fmt.Errorf("invalid state %q", arg)
	}
	return on, nil
}

// DecodeFrames parses bytes and formats every frame or rejection found.
func DecodeFrames(data []byte, mode lx16a.ChecksumMode) []string {
	var out []string
	p := lx16a.Parser{Mode: mode}
	for _, b := range data {
		pr := p.Parse(b)
		switch {
		case pr.Err != nil:
			out = append(out, "rejected: "+pr.Err.Error())
		case pr.Frame != nil:
			line := pr.Frame.String()
			if !pr.Frame.ChecksumValid() {
				line += " (bad checksum)"
			}
			out = append(out, line)
		}
	}
	if phase := p.Phase(); phase != lx16a.PhaseIdle {
		out = append(out, "incomplete: "+phase.String())
	}
	return out
}

var (
	// MoveCmd moves the servo in TIME.
	MoveCmd = ishell.Cmd{
		Name:    "move",
		Aliases: []string{"m"},
		Help:    "POS [TIME(ms)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			position, duration, err := parseMove(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			f, err := s.Client.Move(s.ServoID, position, duration)
			sh.Sent(c, f, err)
		}),
	}

	// PrepareCmd sets a move to run on start.
	PrepareCmd = ishell.Cmd{
		Name:    "prepare",
		Aliases: []string{"p"},
		Help:    "POS [TIME(ms)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			position, duration, err := parseMove(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			f, err := s.Client.MovePrepare(s.ServoID, position, duration)
			sh.Sent(c, f, err)
		}),
	}

	// StartCmd starts the prepared move.
	StartCmd = ishell.Cmd{
		Name: "start",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			f, err := s.Client.MoveStart(s.ServoID)
			sh.Sent(c, f, err)
		}),
	}

	// StopCmd stops the servo.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			f, err := s.Client.MoveStop(s.ServoID)
			sh.Sent(c, f, err)
		}),
	}

	// TriggerCmd moves to either end of the range.
	TriggerCmd = ishell.Cmd{
		Name:    "trigger",
		Aliases: []string{"t"},
		Help:    "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			on := true
			if len(c.Args) > 0 {
				var err error
				if on, err = parseState(c.Args[0]); err != nil {
					c.Err(err)
					return
				}
			}
			var position uint16
			if on {
				position = lx16a.MaxPosition
			}
			s := sh.ShellFrom(c)
			f, err := s.Client.Move(s.ServoID, position, 0)
			sh.Sent(c, f, err)
		}),
	}

	// SetIDCmd changes the ID of the servo.
	SetIDCmd = ishell.Cmd{
		Name: "setid",
		Help: "NEWID",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NEWID required"))
				return
			}
			id, err := sh.ParseUint(c.Args[0], "NEWID", uint64(lx16a.BroadcastID-1))
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			f, err := s.Client.SetID(s.ServoID, byte(id))
			sh.Sent(c, f, err)
		}),
	}

	// OffsetCmd adjusts the angle offset.
	OffsetCmd = ishell.Cmd{
		Name: "offset",
		Help: "DEVIATION(-125..125)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DEVIATION required"))
				return
			}
			val, err := strconv.ParseInt(c.Args[0], 0, 8)
			if err != nil || val < -125 || val > 125 {
				c.Err(fmt.Errorf("invalid DEVIATION %q", c.Args[0]))
				return
			}
			s := sh.ShellFrom(c)
			f, err := s.Client.AdjustOffset(s.ServoID, int8(val))
			sh.Sent(c, f, err)
		}),
	}

	// RawCmd writes bytes as is.
	RawCmd = ishell.Cmd{
		Name: "raw",
		Help: "HEX...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			data, err := sh.ParseHex(c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			if _, err := sh.ShellFrom(c).Conn.Write(data); err != nil {
				c.Err(err)
				return
			}
			c.Println(hex.EncodeToString(data))
		}),
	}

	// DecodeCmd decodes bytes locally, nothing is sent.
	DecodeCmd = ishell.Cmd{
		Name: "decode",
		Help: "HEX...",
		Func: func(c *ishell.Context) {
			data, err := sh.ParseHex(c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			for _, line := range DecodeFrames(data, lx16a.ChecksumIgnore) {
				c.Println(line)
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&MoveCmd,
		&PrepareCmd,
		&StartCmd,
		&StopCmd,
		&TriggerCmd,
		&SetIDCmd,
		&OffsetCmd,
		&RawCmd,
		&DecodeCmd,
	)
}
