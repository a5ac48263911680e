// Package source opens the byte streams the emulator listens on, and the
// matching client ends used to drive it.
//
// A source is named by a string:
//
//	-                          standard input
//	/dev/ttyUSB0               serial port
//	serial:///dev/ttyUSB0      serial port
//	ws://:8080/lx16a           websocket server accepting frames
//	mqtt://host:1883/bus/      MQTT topics bus/tx and bus/rx
package source

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/robotalks/servoemu/pkg/mqtt"
)

// Stdin is the name of standard input.
const Stdin = "-"

// Open opens the servo end of the named byte stream.
func Open(name string, baudRate int) (io.ReadCloser, error) {
	scheme, target := split(name)
	switch scheme {
	case "stdin":
		return io.NopCloser(os.Stdin), nil
	case "serial":
		return OpenSerial(SerialConfig{Port: target, BaudRate: baudRate})
	case "ws":
		addr, path := wsAddr(target)
		return ListenWebsocket(addr, path)
	case "mqtt", "tcp", "ssl":
		return mqtt.DialStream(name, true)
	}
	return nil, fmt.Errorf("unsupported source %q", name)
}

// Dial opens the host end of the named byte stream.
func Dial(name string, baudRate int) (io.ReadWriteCloser, error) {
	scheme, target := split(name)
	switch scheme {
	case "stdin":
		return nil, fmt.Errorf("stdin can't be dialed")
	case "serial":
		return OpenSerial(SerialConfig{Port: target, BaudRate: baudRate})
	case "ws":
		return DialWebsocket(name)
	case "mqtt", "tcp", "ssl":
		return mqtt.DialStream(name, false)
	}
	return nil, fmt.Errorf("unsupported source %q", name)
}

func split(name string) (scheme, target string) {
	if name == "" || name == Stdin {
		return "stdin", ""
	}
	if !strings.Contains(name, "://") {
		return "serial", name
	}
	u, err := url.Parse(name)
	if err != nil {
		return "", name
	}
	switch u.Scheme {
	case "serial":
		return u.Scheme, u.Host + u.Path
	case "wss":
		return "ws", name
	}
	return u.Scheme, name
}

func wsAddr(name string) (addr, path string) {
	u, err := url.Parse(name)
	if err != nil {
		return name, "/"
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Host, path
}
