// Package sh provides the interactive shell talking to LX-16A servos.
package sh

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/servoemu/pkg/lx16a"
	"github.com/robotalks/servoemu/pkg/source"
)

// Config provides options to connect the servo bus.
type Config struct {
	// Port names the host end of the bus, see package source.
	Port     string
	BaudRate int
	ServoID  uint
}

var defaultConfig = Config{
	BaudRate: source.DefaultBaudRate,
	ServoID:  1,
}

func init() {
	if val := os.Getenv("SERVOCLI_PORT"); val != "" {
		defaultConfig.Port = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Servo bus: serial device, ws://host/path or mqtt://broker/prefix")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate")
	flag.UintVar(&defaultConfig.ServoID, "id", defaultConfig.ServoID, "Servo ID to address")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	AutoConnect bool

	Shell   *ishell.Shell
	Config  *Config
	ServoID byte
	Port    string
	Conn    io.ReadWriteCloser
	Client  *lx16a.Client

	// Dial opens the bus, source.Dial by default.
	Dial func(name string, baudRate int) (io.ReadWriteCloser, error)
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly bool

	commands = []*ishell.Cmd{
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&IDCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Config:      conf,
		ServoID:     byte(conf.ServoID),
		Dial:        source.Dial,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Client == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the bus.
func (s *Shell) Connect(name string) error {
	conn, err := s.Dial(name, s.Config.BaudRate)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Port, s.Conn, s.Client = name, conn, lx16a.NewClient(conn)
	s.updatePrompt()
	return nil
}

// Disconnect closes the bus.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Port, s.Conn, s.Client = "", nil, nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (s *Shell) updatePrompt() {
	s.Shell.SetPrompt(fmt.Sprintf("%s#%d > ", s.Port, s.ServoID))
}

// Sent prints a frame just sent, or the error.
func Sent(c *ishell.Context, f *lx16a.Frame, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	c.Printf("%s\n", hex.EncodeToString(f.Bytes()))
}

// ParseUint parses a command argument bounded by max.
func ParseUint(arg, name string, max uint64) (uint64, error) {
	val, err := strconv.ParseUint(arg, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", name, err)
	}
	if val > max {
		return 0, fmt.Errorf("invalid %s: %d exceeds %d", name, val, max)
	}
	return val, nil
}

// ParseHex parses bytes written in hex, spaces and separators allowed.
func ParseHex(args ...string) ([]byte, error) {
	str := strings.Join(args, "")
	str = strings.NewReplacer(" ", "", ":", "", "-", "", "0x", "", "0X", "").Replace(str)
	return hex.DecodeString(str)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(s.Config.Port); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Port, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"l"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := source.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// ConnectCmd opens the bus.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "PORT",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			name := s.Config.Port
			if len(c.Args) > 0 {
				name = c.Args[0]
			}
			if name == "" {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			if err := s.Connect(name); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the bus.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// IDCmd shows or selects the addressed servo.
	IDCmd = ishell.Cmd{
		Name: "id",
		Help: "[ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				c.Println(s.ServoID)
				return
			}
			id, err := ParseUint(c.Args[0], "ID", 0xff)
			if err != nil {
				c.Err(err)
				return
			}
			s.ServoID = byte(id)
			if s.Conn != nil {
				s.updatePrompt()
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
