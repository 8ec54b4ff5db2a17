// Package controller sets up the telemetry of a controller.
package controller

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	fx "github.com/robotalks/robko.go/pkg/framework"
	"github.com/robotalks/robko.go/pkg/l1"
	"github.com/robotalks/robko.go/pkg/l1/comm"
	"github.com/robotalks/robko.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/robko.go/pkg/l1/env"
)

// Config provides common options to setup telemetry of a controller.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL specifies the MQTT broker to use, empty to disable.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// StateInterval is the interval between state snapshots.
	StateInterval time.Duration
}

var defaultConfig = Config{
	StateInterval: comm.DefaultStateInterval,
}

func init() {
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	if defaultConfig.Info.Ref.ID == "" {
		defaultConfig.Info.Ref.ID = env.MachineID()
	}
	flag.StringVar(&defaultConfig.Info.Ref.Type, "type", defaultConfig.Info.Ref.Type, "Controller type")
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable telemetry")
	flag.DurationVar(&defaultConfig.StateInterval, "telemetry-interval", defaultConfig.StateInterval, "Interval between state messages")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetControllerType should be called in init with basic info about the controller.
func SetControllerType(typ string, meta l1.ControllerMeta) {
	defaultConfig.Info.Ref.Type = typ
	defaultConfig.Info.Meta = meta
}

// Env publishes the state of a controller.
type Env struct {
	Config       *Config
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
	Publisher    *comm.StatePublisher
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewEnv creates Env from config. The source is sampled from the loop.
func (c *Config) NewEnv(source l1.StateFunc) (*Env, error) {
	if c.MQTTBrokerURL != "" && !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("robot type and id must be specified")
	}
	e := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	e.Publisher = &comm.StatePublisher{
		Registrar: e.Registrar,
		Source:    source,
		Interval:  c.StateInterval,
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		e.Registrar.Add(reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv(source l1.StateFunc) *Env {
	e, err := c.NewEnv(source)
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// Enabled tells if any registrar is configured.
func (e *Env) Enabled() bool {
	return len(e.Registrar.Registrars) > 0
}

// AddToLoop adds registrars and the state publisher to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	if !e.Enabled() {
		return
	}
	loop.Add(e.Registrar, e.Publisher)
}
