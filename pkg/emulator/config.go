package emulator

import (
	"flag"
	"fmt"
	"os"

	"github.com/robotalks/servoemu/pkg/lx16a"
	"github.com/robotalks/servoemu/pkg/mailbox"
	"github.com/robotalks/servoemu/pkg/servo"
	"github.com/robotalks/servoemu/pkg/source"
	"github.com/robotalks/servoemu/pkg/telemetry"
)

// Config provides options to set up the emulator.
type Config struct {
	// Source names the byte stream to listen on, see package source.
	Source   string
	BaudRate int
	Checksum lx16a.ChecksumMode

	ServoID uint
	MatchID bool

	// Threshold and Profile are fixed in the binary.
	Threshold uint
	Profile   servo.Profile
	// Preemptible lets a new trigger abort a running actuation.
	Preemptible bool
	QueueDepth  int

	// PWMPin and LEDPin name GPIO pins. Outputs are simulated if empty.
	PWMPin string
	LEDPin string

	// MQTTBrokerURL enables publishing telemetry if not empty.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// Name is the node name used in MQTT topics.
	Name string
}

var defaultConfig = Config{
	Source:     source.Stdin,
	BaudRate:   source.DefaultBaudRate,
	Checksum:   lx16a.ChecksumIgnore,
	ServoID:    1,
	Threshold:  uint(servo.DefaultThreshold),
	Profile:    servo.DefaultProfile,
	QueueDepth: mailbox.DefaultDepth,
}

func init() {
	if val := os.Getenv("SERVOEMU_SOURCE"); val != "" {
		defaultConfig.Source = val
	}
	if val := os.Getenv("SERVOEMU_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Source, "source", defaultConfig.Source, "Byte source: -, serial device, ws://addr/path or mqtt://broker/prefix")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate")
	flag.Var(&defaultConfig.Checksum, "checksum", "Checksum mode: ignore or enforce")
	flag.UintVar(&defaultConfig.ServoID, "servo-id", defaultConfig.ServoID, "Servo ID")
	flag.BoolVar(&defaultConfig.MatchID, "match-id", defaultConfig.MatchID, "Only accept frames for servo-id or broadcast")
	flag.BoolVar(&defaultConfig.Preemptible, "preempt", defaultConfig.Preemptible, "A new trigger aborts a running actuation")
	flag.IntVar(&defaultConfig.QueueDepth, "queue-depth", defaultConfig.QueueDepth, "Depth of the trigger queue")
	flag.StringVar(&defaultConfig.PWMPin, "pwm-pin", defaultConfig.PWMPin, "GPIO pin for PWM output, simulated if empty")
	flag.StringVar(&defaultConfig.LEDPin, "led-pin", defaultConfig.LEDPin, "GPIO pin for the indicator, simulated if empty")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for telemetry")
	flag.StringVar(&defaultConfig.Name, "name", defaultConfig.Name, "Node name in MQTT topics, defaults to lx16a/MACHINE-ID")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.ServoID > 0xff {
		return fmt.Errorf("invalid servo id %d", c.ServoID)
	}
	if c.Threshold > 0xffff {
		return fmt.Errorf("invalid threshold %d", c.Threshold)
	}
	if len(c.Profile) == 0 {
		return fmt.Errorf("empty profile")
	}
	return c.Profile.Validate()
}

// NodeName returns the name used in MQTT topics.
func (c *Config) NodeName() string {
	if c.Name != "" {
		return c.Name
	}
	return "lx16a/" + telemetry.ProtectedMachineID("servoemu")
}
