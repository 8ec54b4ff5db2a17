package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/robko.go/pkg/l0/comm"
	"github.com/robotalks/robko.go/pkg/l0/serial"
	"github.com/robotalks/robko.go/pkg/robko"
)

// Config defines the link to the controller.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

var defaultConfig = Config{
	BaudRate: serial.DefaultBaudRate,
	Timeout:  comm.DefaultTimeout,
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *Config
	Conn   *Conn
}

// Conn is an opened link with a running client.
type Conn struct {
	Ctx    context.Context
	Cancel func()
	Port   *serial.Port
	Client *comm.Client
	Remote *robko.Remote
}

// Close stops the client and closes the port.
func (c *Conn) Close() error {
	c.Cancel()
	return c.Port.Close()
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	if val := os.Getenv("ROBKO_SERIAL_PORT"); val != "" {
		defaultConfig.Port = val
	}
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device, empty for the first USB serial device.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Response timeout.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
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
		if ShellFrom(c).Conn == nil {
			c.Err(comm.ErrNotConnected)
			return
		}
		fn(c)
	}
}

// Context creates the context of a command.
func (s *Shell) Context() (context.Context, context.CancelFunc) {
	if s.Conn == nil {
		return context.WithCancel(context.Background())
	}
	return context.WithCancel(s.Conn.Ctx)
}

// Print prints the result of a command. A nil value prints OK.
func Print(c *ishell.Context, v interface{}) {
	s := ShellFrom(c)
	if s.OutputJSON {
		if v == nil {
			v = map[string]string{"status": "ok"}
		}
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if v == nil {
		c.Println("OK")
		return
	}
	switch val := v.(type) {
	case fmt.Stringer:
		c.Println(val.String())
	case byte:
		c.Printf("0x%02x\n", val)
	default:
		c.Printf("%+v\n", v)
	}
}

// Do runs fn with the remote and prints the result or the error.
func Do(c *ishell.Context, fn func(ctx context.Context, r *robko.Remote) (interface{}, error)) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		c.Err(comm.ErrNotConnected)
		return comm.ErrNotConnected
	}
	ctx, cancel := s.Context()
	defer cancel()
	v, err := fn(ctx, s.Conn.Remote)
	if err != nil {
		c.Err(err)
		return err
	}
	Print(c, v)
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the serial device and starts the client.
// The current connection is closed first.
func (s *Shell) Connect(device string) error {
	s.Disconnect()
	cfg := serial.DefaultConfig(device)
	cfg.BaudRate = s.Config.BaudRate
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	conn := &Conn{Port: port, Client: comm.NewClient(port)}
	conn.Client.Timeout = s.Config.Timeout
	conn.Remote = robko.NewRemote(conn.Client)
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	s.Conn = conn
	go func() {
		if err := conn.Client.Run(conn.Ctx); err != nil && conn.Ctx.Err() == nil {
			glog.Errorf("%s: %v", port.Device, err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", port.Device))
	return nil
}

// Disconnect closes the current connection.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		if err := s.Conn.Close(); err != nil {
			glog.Warningf("close %s: %v", s.Conn.Port.Device, err)
		}
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if err := s.Connect(s.Config.Port); err != nil {
			if !s.Interactive {
				log.Fatalf("connect %q failed: %v", s.Config.Port, err)
			}
			s.Shell.Printf("Not connected: %v\n", err)
		} else if s.Interactive {
			s.Shell.Printf("Connected %s\n", s.Conn.Port.Device)
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
	// PortsCmd lists serial devices.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := serial.List()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(ports) == 0 {
					// in case ports is nil, make it empty slice.
					ports = []serial.PortInfo{}
				}
				Print(c, ports)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, p := range ports {
				c.Println(p.String())
			}
		},
	}

	// ConnectCmd connects a controller.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			device := s.Config.Port
			if len(c.Args) > 0 {
				device = c.Args[0]
			}
			if err := s.Connect(device); err != nil {
				c.Err(err)
				return
			}
			c.Printf("Connected %s\n", s.Conn.Port.Device)
		},
	}

	// DisconnectCmd disconnects current controller.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
