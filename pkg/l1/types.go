// Package l1 defines how a controller announces itself and reports its
// state to monitors. Telemetry is one way: commands only arrive over the
// serial link.
package l1

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// ControllerRef is a reference to a controller.
type ControllerRef struct {
	// Type is controller type (robot type).
	Type string `json:"type"`
	// ID is unique ID of the device.
	ID string `json:"id"`
}

// Name retrieves the name from ref.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates ControllerRef is valid.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// RefFromTopic extracts the ref from a topic like TYPE/ID/SUFFIX.
func RefFromTopic(topic, suffix string) (ref ControllerRef, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != suffix {
		return
	}
	ref.Type, ref.ID = items[0], items[1]
	return ref, ref.IsValid()
}

// ControllerMeta provides metadata of a controller.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo provides information of a controller.
type ControllerInfo struct {
	Ref  ControllerRef  `json:"ref"`
	Meta ControllerMeta `json:"meta"`
}

// StateMsg is a state snapshot published by a controller.
type StateMsg struct {
	Ref   ControllerRef   `json:"-"`
	Time  time.Time       `json:"time"`
	State json.RawMessage `json:"state"`
}

// StateFunc takes a snapshot of the controller state.
type StateFunc func() interface{}

// Registrar announces a controller and publishes its state.
type Registrar interface {
	PublishState(ctx context.Context, t time.Time, state interface{}) error
}

// Connector is used by monitors to find controllers and watch states.
type Connector interface {
	// Discover enumerates registered controllers.
	Discover(context.Context) ([]ControllerInfo, error)
	// Watch calls fn with the states of the controllers matching ref
	// until the context is done. An empty Type or ID matches any.
	Watch(ctx context.Context, ref ControllerRef, fn func(StateMsg)) error
}
