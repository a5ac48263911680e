package servo

import (
	"sync"

	"github.com/golang/glog"
)

// PWMWrap is the counter wrap of the PWM slice. Duty cycle is level/PWMWrap.
const PWMWrap uint16 = 512

// PWM drives a single PWM channel.
type PWM interface {
	SetLevel(level uint16) error
}

// Indicator is a boolean output, usually an LED.
type Indicator interface {
	Set(on bool) error
}

// SimPWM is an in-memory PWM channel keeping the history of levels.
type SimPWM struct {
	lock    sync.Mutex
	level   uint16
	history []uint16
}

// SetLevel implements PWM.
func (p *SimPWM) SetLevel(level uint16) error {
	p.lock.Lock()
	p.level = level
	p.history = append(p.history, level)
	p.lock.Unlock()
	glog.V(3).Infof("pwm level %d/%d", level, PWMWrap)
	return nil
}

// Level returns the current level.
func (p *SimPWM) Level() uint16 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.level
}

// History returns all levels set so far.
func (p *SimPWM) History() []uint16 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]uint16(nil), p.history...)
}

// SimIndicator is an in-memory Indicator keeping its history.
type SimIndicator struct {
	lock    sync.Mutex
	on      bool
	history []bool
}

// Set implements Indicator.
func (i *SimIndicator) Set(on bool) error {
	i.lock.Lock()
	i.on = on
	i.history = append(i.history, on)
	i.lock.Unlock()
	glog.V(3).Infof("indicator %v", on)
	return nil
}

// On returns the current state.
func (i *SimIndicator) On() bool {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.on
}

// History returns all states set so far.
func (i *SimIndicator) History() []bool {
	i.lock.Lock()
	defer i.lock.Unlock()
	return append([]bool(nil), i.history...)
}
