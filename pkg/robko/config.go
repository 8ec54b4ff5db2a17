package robko

import (
	"flag"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/robko.go/pkg/framework"
	"github.com/robotalks/robko.go/pkg/l0/bus"
	"github.com/robotalks/robko.go/pkg/l0/comm"
	"github.com/robotalks/robko.go/pkg/l0/gpio"
	"github.com/robotalks/robko.go/pkg/l0/serial"
	"github.com/robotalks/robko.go/pkg/l1/env"
	"github.com/robotalks/robko.go/pkg/sim"
)

// Config defines the configurations of the controller daemon.
type Config struct {
	// Port is the serial device, empty for the first USB serial device.
	Port         string
	BaudRate     int
	PinsFile     string
	Sim          bool
	UpdateRate   time.Duration
	Settle       time.Duration
	FrameTimeout time.Duration
	SerialNumber uint
}

var defaultConfig = Config{
	BaudRate:   serial.DefaultBaudRate,
	UpdateRate: DefaultUpdateRate,
	Settle:     bus.DefaultSettle,
}

func init() {
	if val := os.Getenv("ROBKO_SERIAL_PORT"); val != "" {
		defaultConfig.Port = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device, empty for auto detection")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Serial baud rate")
	flag.StringVar(&defaultConfig.PinsFile, "pins", defaultConfig.PinsFile, "Pin map YAML file, empty for the built-in map")
	flag.BoolVar(&defaultConfig.Sim, "sim", defaultConfig.Sim, "Use the simulated board instead of GPIO")
	flag.DurationVar(&defaultConfig.UpdateRate, "update-rate", defaultConfig.UpdateRate, "Minimum interval between bus ticks")
	flag.DurationVar(&defaultConfig.Settle, "settle", defaultConfig.Settle, "Strobe settle time")
	flag.DurationVar(&defaultConfig.FrameTimeout, "frame-timeout", defaultConfig.FrameTimeout, "Partial frame timeout, 0 to disable")
	flag.UintVar(&defaultConfig.SerialNumber, "serial", defaultConfig.SerialNumber, "Robot serial number, 0 to derive from the machine ID")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Device is the assembled controller with its link.
type Device struct {
	Controller *Controller
	Dispatcher *Dispatcher
	Engine     *comm.Engine
	// Board is the simulated board if Sim is set.
	Board *sim.Board
}

// AddToLoop implements fx.LoopAdder.
func (d *Device) AddToLoop(l *fx.Loop) {
	l.Add(d.Engine, d.Controller)
}

// NewController creates and sets up the controller.
// The board is returned when simulated.
func (c *Config) NewController(clock fx.TimeSource) (*Controller, *sim.Board, error) {
	pins, err := gpio.LoadPinMap(c.PinsFile)
	if err != nil {
		return nil, nil, err
	}
	var backend gpio.Backend
	var board *sim.Board
	if c.Sim {
		board = sim.NewBoard(*pins)
		board.Loopback = true
		backend = board
	} else if backend, err = gpio.NewPeriph(); err != nil {
		return nil, nil, err
	}
	ctl := NewController(backend, *pins, clock)
	ctl.UpdateRate = c.UpdateRate
	ctl.Bus.Settle = c.Settle
	ctl.Settings.SerialNumber = uint32(c.SerialNumber)
	if ctl.Settings.SerialNumber == 0 {
		ctl.Settings.SerialNumber = SerialFromMachineID(env.MachineID())
	}
	if err := ctl.Setup(); err != nil {
		return nil, nil, fmt.Errorf("setup bus error: %v", err)
	}
	return ctl, board, nil
}

// NewDevice creates the controller and binds it to the link.
func (c *Config) NewDevice(link io.ReadWriter, clock fx.TimeSource) (*Device, error) {
	ctl, board, err := c.NewController(clock)
	if err != nil {
		return nil, err
	}
	d := &Device{
		Controller: ctl,
		Dispatcher: NewDispatcher(ctl),
		Engine:     comm.NewEngine(link),
		Board:      board,
	}
	d.Engine.Handler = d.Dispatcher
	d.Engine.FrameTimeout = c.FrameTimeout
	d.Engine.Clock = clock
	glog.Infof("robot serial number %d", ctl.Settings.SerialNumber)
	return d, nil
}

// OpenPort opens the serial link.
func (c *Config) OpenPort() (*serial.Port, error) {
	cfg := serial.DefaultConfig(c.Port)
	cfg.BaudRate = c.BaudRate
	return serial.Open(cfg)
}

// SerialFromMachineID derives a serial number from the machine ID.
func SerialFromMachineID(id string) uint32 {
	h := fnv.New32a()
	io.WriteString(h, id)
	return h.Sum32()
}
