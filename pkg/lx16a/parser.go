package lx16a

import (
	"fmt"
	"strings"
)

// Phase is the position of the parser within a frame.
type Phase int

const (
	// PhaseIdle waits for the first sync byte.
	PhaseIdle Phase = iota
	// PhaseSyncSeen waits for the second sync byte.
	PhaseSyncSeen
	// PhaseID waits for the servo id.
	PhaseID
	// PhaseLength waits for the length byte.
	PhaseLength
	// PhaseCommand waits for the command byte.
	PhaseCommand
	// PhaseParams collects parameter bytes.
	PhaseParams
	// PhaseChecksum waits for the checksum byte.
	PhaseChecksum
	// PhaseDone marks a completed frame. It is consumed by the next byte.
	PhaseDone
)

var phaseNames = [...]string{"idle", "sync", "id", "length", "command", "params", "checksum", "done"}

// String implements fmt.Stringer.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ChecksumMode decides what to do with a mismatched checksum.
type ChecksumMode int

const (
	// ChecksumIgnore accepts frames regardless of the checksum.
	ChecksumIgnore ChecksumMode = iota
	// ChecksumEnforce drops frames with a mismatched checksum.
	ChecksumEnforce
)

// String implements flag.Value.
func (m ChecksumMode) String() string {
	if m == ChecksumEnforce {
		return "enforce"
	}
	return "ignore"
}

// Set implements flag.Value.
func (m *ChecksumMode) Set(s string) error {
	switch strings.ToLower(s) {
	case "ignore", "off":
		*m = ChecksumIgnore
	case "enforce", "on":
		*m = ChecksumEnforce
	default:
		return fmt.Errorf("invalid checksum mode %q", s)
	}
	return nil
}

// State is the complete decoding state between two bytes.
// The zero value is PhaseIdle.
type State struct {
	Phase    Phase
	frame    Frame
	paramSum int
}

// Next consumes one byte and returns the next state. A completed frame is
// returned together with a PhaseDone state. A rejected frame returns an idle
// state and the reason.
func (s State) Next(b byte, mode ChecksumMode) (State, *Frame, error) {
	switch s.Phase {
	case PhaseIdle, PhaseDone:
		if b == SyncByte {
			return State{Phase: PhaseSyncSeen}, nil, nil
		}
		return State{}, nil, nil
	case PhaseSyncSeen:
		if b != SyncByte {
			return State{}, nil, nil
		}
		s.Phase = PhaseID
	case PhaseID:
		s.frame.ServoID = b
		s.Phase = PhaseLength
	case PhaseLength:
		s.frame.Length = b
		s.Phase = PhaseCommand
	case PhaseCommand:
		s.frame.Command = b
		s.frame.Params, s.paramSum = Params{}, 0
		switch n := s.frame.ParamCount(); {
		case n == 0:
			s.Phase = PhaseChecksum
		case n > MaxParams:
			return State{}, nil, fmt.Errorf("%w: length %d declares %d parameters", ErrParamsOverflow, s.frame.Length, n)
		default:
			s.Phase = PhaseParams
		}
	case PhaseParams:
		s.frame.Params.Append(b)
		s.paramSum += int(b)
		if s.frame.Params.Len() >= s.frame.ParamCount() {
			s.Phase = PhaseChecksum
		}
	case PhaseChecksum:
		s.frame.Checksum = b
		expected := Checksum(s.frame.ServoID, s.frame.Length, s.frame.Command, s.paramSum)
		if mode == ChecksumEnforce && b != expected {
			return State{}, nil, &ChecksumError{Expected: expected, Actual: b}
		}
		s.Phase = PhaseDone
		frame := s.frame
		return s, &frame, nil
	}
	return s, nil, nil
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	Phase Phase
	Frame *Frame
	Err   error
}

// Parser parses bytes received.
type Parser struct {
	Mode ChecksumMode

	state State
}

// Phase gets the current phase.
func (p *Parser) Phase() Phase {
	return p.state.Phase
}

// Reset resets the internal state of parser.
func (p *Parser) Reset() {
	p.state = State{}
}

// Parse consumes one byte. After a frame completes the parser is back
// to idle.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	p.state, pr.Frame, pr.Err = p.state.Next(b, p.Mode)
	pr.Phase = p.state.Phase
	if p.state.Phase == PhaseDone {
		p.state = State{}
	}
	return
}
