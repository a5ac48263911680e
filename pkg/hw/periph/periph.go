// Package periph drives the servo outputs on real GPIO pins using periph.io.
package periph

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/robotalks/servoemu/pkg/servo"
)

// DefaultFrequency is the PWM frequency of the output pin.
const DefaultFrequency = 50 * physic.Hertz

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the host drivers. It is safe to call multiple times.
func Init() error {
	initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			initErr = fmt.Errorf("periph host init: %w", err)
			return
		}
		for _, drv := range state.Loaded {
			glog.V(2).Infof("periph driver loaded: %s", drv)
		}
	})
	return initErr
}

func lookup(name string) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return pin, nil
}

// PWM drives a hardware PWM pin. Levels are relative to servo.PWMWrap.
type PWM struct {
	Pin       gpio.PinIO
	Frequency physic.Frequency
}

// OpenPWM looks up a pin by name.
func OpenPWM(name string, freq physic.Frequency) (*PWM, error) {
	pin, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &PWM{Pin: pin, Frequency: freq}, nil
}

// Duty converts a level to a periph duty cycle.
func Duty(level uint16) gpio.Duty {
	if level >= servo.PWMWrap {
		return gpio.DutyMax
	}
	return gpio.Duty(int64(level) * int64(gpio.DutyMax) / int64(servo.PWMWrap))
}

// SetLevel implements servo.PWM.
func (p *PWM) SetLevel(level uint16) error {
	duty := Duty(level)
	glog.V(3).Infof("%s: pwm %s @ %s", p.Pin, duty, p.Frequency)
	return p.Pin.PWM(duty, p.Frequency)
}

// LED drives a digital output.
type LED struct {
	Pin gpio.PinIO
}

// OpenLED looks up a pin by name.
func OpenLED(name string) (*LED, error) {
	pin, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return &LED{Pin: pin}, nil
}

// Set implements servo.Indicator.
func (l *LED) Set(on bool) error {
	return l.Pin.Out(gpio.Level(on))
}
