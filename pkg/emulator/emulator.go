// Package emulator wires the LX-16A frame decoder to the actuation sequencer.
//
// Bytes from the source are decoded and dispatched in the serial context.
// Triggers cross to the actuation context through a mailbox, where the
// sequencer drives the outputs.
package emulator

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/golang/glog"

	fx "github.com/robotalks/servoemu/pkg/framework"
	"github.com/robotalks/servoemu/pkg/hw/periph"
	"github.com/robotalks/servoemu/pkg/lx16a"
	"github.com/robotalks/servoemu/pkg/mailbox"
	"github.com/robotalks/servoemu/pkg/mqtt"
	"github.com/robotalks/servoemu/pkg/servo"
	"github.com/robotalks/servoemu/pkg/source"
	"github.com/robotalks/servoemu/pkg/telemetry"
)

// Emulator is a fully wired servo emulator.
type Emulator struct {
	Config     *Config
	Source     io.ReadCloser
	Mailbox    *mailbox.Mailbox
	Decoder    *lx16a.Decoder
	Dispatcher *servo.Dispatcher
	Sequencer  *servo.Sequencer
	Observers  telemetry.Observers
	// Runnables are run along with the emulator.
	Runnables []fx.Runnable
}

// New wires an Emulator on the given source and outputs.
func New(conf *Config, src io.ReadCloser, pwm servo.PWM, indicator servo.Indicator) *Emulator {
	e := &Emulator{
		Config:  conf,
		Source:  src,
		Mailbox: mailbox.New(conf.QueueDepth),
	}
	observer := telemetry.ObserverFunc(e.observe)

	e.Dispatcher = servo.NewDispatcher(e.Mailbox)
	e.Dispatcher.ServoID = byte(conf.ServoID)
	e.Dispatcher.MatchID = conf.MatchID
	e.Dispatcher.Threshold = uint16(conf.Threshold)
	e.Dispatcher.Observer = observer

	e.Decoder = lx16a.NewDecoder(src, conf.Checksum)
	e.Decoder.Handler = e.Dispatcher
	e.Decoder.Notifier = e.Dispatcher

	e.Sequencer = servo.NewSequencer(e.Mailbox, pwm, indicator)
	e.Sequencer.Profile = conf.Profile
	e.Sequencer.Preemptible = conf.Preemptible
	e.Sequencer.Observer = observer
	return e
}

// NewOutputs creates the PWM and indicator outputs.
// Outputs without a pin are simulated.
func (c *Config) NewOutputs() (servo.PWM, servo.Indicator, error) {
	var pwm servo.PWM = &servo.SimPWM{}
	var indicator servo.Indicator = &servo.SimIndicator{}
	if c.PWMPin == "" && c.LEDPin == "" {
		return pwm, indicator, nil
	}
	if err := periph.Init(); err != nil {
		return nil, nil, err
	}
	if c.PWMPin != "" {
		p, err := periph.OpenPWM(c.PWMPin, periph.DefaultFrequency)
		if err != nil {
			return nil, nil, err
		}
		pwm = p
	}
	if c.LEDPin != "" {
		led, err := periph.OpenLED(c.LEDPin)
		if err != nil {
			return nil, nil, err
		}
		indicator = led
	}
	return pwm, indicator, nil
}

// NewEmulator creates the Emulator from config.
func (c *Config) NewEmulator() (*Emulator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	pwm, indicator, err := c.NewOutputs()
	if err != nil {
		return nil, fmt.Errorf("create outputs error: %w", err)
	}
	var pub *mqtt.Publisher
	if c.MQTTBrokerURL != "" {
		meta := mqtt.Meta{
			Description: "LX-16A servo emulator",
			ServoID:     c.ServoID,
			Checksum:    c.Checksum.String(),
			Preemptible: c.Preemptible,
			Profile:     c.Profile.String(),
			Source:      c.Source,
		}
		if pub, err = mqtt.NewPublisher(c.MQTTBrokerURL, c.NodeName(), meta); err != nil {
			return nil, fmt.Errorf("create MQTT publisher error: %w", err)
		}
	}
	src, err := source.Open(c.Source, c.BaudRate)
	if err != nil {
		return nil, fmt.Errorf("open source error: %w", err)
	}
	e := New(c, src, pwm, indicator)
	e.AddObserver(telemetry.LogObserver{})
	if pub != nil {
		e.AddObserver(pub)
		e.Runnables = append(e.Runnables, fx.NamedRun("mqtt-publisher", pub))
	}
	return e, nil
}

// MustNewEmulator creates the Emulator and fails on error.
func (c *Config) MustNewEmulator() *Emulator {
	e, err := c.NewEmulator()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddObserver adds an observer of telemetry events.
// It must be called before Run.
func (e *Emulator) AddObserver(o telemetry.Observer) {
	e.Observers = append(e.Observers, o)
}

func (e *Emulator) observe(ev *telemetry.Event) {
	e.Observers.Observe(ev)
}

// Run runs the emulator until ctx is done.
// Actuation keeps running after the source is exhausted.
func (e *Emulator) Run(ctx context.Context) error {
	r := fx.NewRunnerWith(ctx)
	r.Go(fx.NamedRun(e.Decoder.Name(), fx.RunFunc(e.decode)), e.Mailbox, e.Sequencer)
	r.Go(e.Runnables...)
	return r.Wait()
}

func (e *Emulator) decode(ctx context.Context) error {
	err := fx.RunWithContextCloser(ctx, e.Source, func() error {
		return e.Decoder.Run(ctx)
	})
	if err != nil {
		return err
	}
	glog.Info("source exhausted")
	<-ctx.Done()
	return ctx.Err()
}
