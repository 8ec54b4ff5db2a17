// Package serial opens the serial link between the host and the controller.
package serial

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Defaults of the link.
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 100 * time.Millisecond
)

// ErrNoDevice indicates no serial device was found.
var ErrNoDevice = errors.New("no serial device found")

// Config is the serial port configuration.
type Config struct {
	Device   string
	BaudRate int
	// ReadTimeout bounds a Read, which returns 0 bytes and no error
	// on expiry. Zero blocks until data arrives.
	ReadTimeout time.Duration
}

// DefaultConfig returns the configuration of 8N1 at 115200 baud.
func DefaultConfig(device string) Config {
	return Config{Device: device, BaudRate: DefaultBaudRate, ReadTimeout: DefaultReadTimeout}
}

// Port is an opened serial port.
type Port struct {
	serial.Port
	Device string

	closeOnce sync.Once
	closeErr  error
}

// Open opens a serial port. If the device is empty, the first USB serial
// device is used.
func Open(cfg Config) (*Port, error) {
	device := cfg.Device
	if device == "" {
		ports, err := List()
		if err != nil {
			return nil, err
		}
		for _, p := range ports {
			if p.USB {
				device = p.Name
				break
			}
		}
		if device == "" {
			return nil, ErrNoDevice
		}
	}
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if cfg.ReadTimeout > 0 {
		if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
			p.Close()
			return nil, err
		}
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, err
	}
	return &Port{Port: p, Device: device}, nil
}

// Close closes the port, it can be called more than once.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.Port.Close()
	})
	return p.closeErr
}

// PortInfo describes a serial device.
type PortInfo struct {
	Name         string `json:"name"`
	USB          bool   `json:"usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial,omitempty"`
	Product      string `json:"product,omitempty"`
}

// String implements fmt.Stringer.
func (i PortInfo) String() string {
	if !i.USB {
		return i.Name
	}
	return fmt.Sprintf("%s %s:%s %s %s", i.Name, i.VID, i.PID, i.SerialNumber, i.Product)
}

// List enumerates serial devices.
func List() ([]PortInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	infos := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		infos = append(infos, PortInfo{
			Name:         p.Name,
			USB:          p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}
	return infos, nil
}
