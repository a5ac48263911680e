package lx16a

import (
	"errors"
	"fmt"
)

var (
	// ErrParamsOverflow indicates the declared length implies more
	// parameters than a frame can carry.
	ErrParamsOverflow = errors.New("parameters overflow")
)

// ChecksumError is reported when a received checksum doesn't match.
type ChecksumError struct {
	Expected byte
	Actual   byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%02x, got 0x%02x", e.Expected, e.Actual)
}
