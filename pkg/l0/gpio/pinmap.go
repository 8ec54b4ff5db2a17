package gpio

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	fx "github.com/robotalks/robko.go/pkg/framework"
)

// PinMap assigns GPIO lines to the bus signals.
// DI lines are data inputs of the robot (driven by the controller),
// DO lines are data outputs of the robot (sampled by the controller).
type PinMap struct {
	AO  [3]Pin `yaml:"ao"`
	IOW Pin    `yaml:"iow"`
	IOR Pin    `yaml:"ior"`
	DI  [4]Pin `yaml:"di"`
	DO  [4]Pin `yaml:"do"`
}

// DefaultPinMap is the wiring on a Raspberry Pi header.
var DefaultPinMap = PinMap{
	AO:  [3]Pin{"GPIO5", "GPIO6", "GPIO13"},
	IOW: "GPIO19",
	IOR: "GPIO26",
	DI:  [4]Pin{"GPIO12", "GPIO16", "GPIO20", "GPIO21"},
	DO:  [4]Pin{"GPIO17", "GPIO27", "GPIO22", "GPIO23"},
}

// Outputs lists the pins driven by the controller.
func (m *PinMap) Outputs() []Pin {
	pins := make([]Pin, 0, 9)
	pins = append(pins, m.AO[:]...)
	pins = append(pins, m.IOW, m.IOR)
	return append(pins, m.DI[:]...)
}

// Inputs lists the pins sampled by the controller.
func (m *PinMap) Inputs() []Pin {
	return append([]Pin(nil), m.DO[:]...)
}

// Validate checks all pins are assigned and distinct.
func (m *PinMap) Validate() error {
	var errs fx.AggregatedError
	seen := make(map[Pin]bool)
	for _, pin := range append(m.Outputs(), m.Inputs()...) {
		if pin == "" {
			errs.Add(fmt.Errorf("pin not assigned"))
			continue
		}
		if seen[pin] {
			errs.Add(fmt.Errorf("pin %s assigned more than once", pin))
		}
		seen[pin] = true
	}
	return errs.Aggregate()
}

// DecodePinMap reads a YAML pin map. Unknown keys are rejected.
func DecodePinMap(r io.Reader) (*PinMap, error) {
	var m PinMap
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadPinMap loads a YAML pin map from a file.
// An empty path returns a copy of DefaultPinMap.
func LoadPinMap(path string) (*PinMap, error) {
	if path == "" {
		m := DefaultPinMap
		return &m, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := DecodePinMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return m, nil
}
