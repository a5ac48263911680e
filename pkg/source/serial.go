package source

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the bus speed of LX-16A servos.
const DefaultBaudRate = 115200

// SerialConfig holds configuration for opening a serial port.
type SerialConfig struct {
	Port     string
	BaudRate int
	// Timeout of a single read. Zero blocks until data arrives.
	Timeout time.Duration
}

// SerialPort is an opened serial port.
type SerialPort struct {
	serial.Port
	Name string
}

// OpenSerial opens a serial port with 8N1 framing.
func OpenSerial(cfg SerialConfig) (*SerialPort, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial port path is required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	if cfg.Timeout > 0 {
		if err := port.SetReadTimeout(cfg.Timeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}
	return &SerialPort{Port: port, Name: cfg.Port}, nil
}

// Ports lists the serial ports available on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
