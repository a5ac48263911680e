package servo

import (
	"fmt"
	"strings"
	"time"
)

// IdleLevel is the PWM level set at bring-up.
const IdleLevel uint16 = 100

// Step is one segment of an actuation profile.
type Step struct {
	Level uint16
	Hold  time.Duration
}

// Profile is an ordered list of steps executed on a trigger.
type Profile []Step

// DefaultProfile is the actuation executed on every non-zero trigger.
var DefaultProfile = Profile{
	{Level: 100, Hold: 3000 * time.Millisecond},
	{Level: 256, Hold: 5000 * time.Millisecond},
	{Level: 412, Hold: 3000 * time.Millisecond},
	{Level: 256},
}

// Duration is the total hold time of the profile.
func (p Profile) Duration() (d time.Duration) {
	for _, step := range p {
		d += step.Hold
	}
	return
}

// Levels returns the levels of all steps in order.
func (p Profile) Levels() []uint16 {
	levels := make([]uint16, len(p))
	for n, step := range p {
		levels[n] = step.Level
	}
	return levels
}

// Validate checks all levels fit in the PWM wrap.
func (p Profile) Validate() error {
	for n, step := range p {
		if step.Level > PWMWrap {
			return fmt.Errorf("step %d: level %d exceeds wrap %d", n, step.Level, PWMWrap)
		}
		if step.Hold < 0 {
			return fmt.Errorf("step %d: negative hold %v", n, step.Hold)
		}
	}
	return nil
}

// String formats the profile as LEVEL:HOLD pairs.
func (p Profile) String() string {
	strs := make([]string, len(p))
	for n, step := range p {
		strs[n] = fmt.Sprintf("%d:%s", step.Level, step.Hold)
	}
	return strings.Join(strs, ",")
}
