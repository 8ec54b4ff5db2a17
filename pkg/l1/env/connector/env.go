// Package connector sets up the telemetry connection of a monitor.
package connector

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/robko.go/pkg/l1"
	"github.com/robotalks/robko.go/pkg/l1/comm/mqtt"
)

// Config selects the broker and the controllers to watch.
type Config struct {
	// Ref filters controllers, empty fields match any.
	Ref l1.ControllerRef

	// RegistryURL is the broker with the topic prefix,
	// e.g. mqtt://host:port/robo/
	RegistryURL string
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/robo/",
}

func init() {
	if val := os.Getenv("ROBKO_WATCH_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("ROBKO_WATCH_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("ROBO_MQTT_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "type", defaultConfig.Ref.Type, "Robot type to watch, empty for any.")
	flag.StringVar(&defaultConfig.Ref.ID, "id", defaultConfig.Ref.ID, "Robot ID to watch, empty for any.")
	flag.StringVar(&defaultConfig.RegistryURL, "mqtt", defaultConfig.RegistryURL, "MQTT broker URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Matches tells if ref passes the Ref filter.
func (c *Config) Matches(ref l1.ControllerRef) bool {
	return (c.Ref.Type == "" || c.Ref.Type == ref.Type) &&
		(c.Ref.ID == "" || c.Ref.ID == ref.ID)
}

// NewConnector creates a Connector from the scheme of RegistryURL.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "tcp", "ws", "wss", "ssl":
		return mqtt.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
