package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/robko.go/pkg/l1"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector implements l1.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

func (c *Connector) connect() (*Queue, error) {
	q := NewQueue(c.options, c.topicPrefix)
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return q, nil
}

// Discover implements Connector. Controllers are found by their retained
// meta, an empty meta means the controller is gone.
func (c *Connector) Discover(ctx context.Context) (res []l1.ControllerInfo, err error) {
	q, err := c.connect()
	if err != nil {
		return nil, err
	}
	defer q.Close()
	resCh := make(chan l1.ControllerInfo, 1)
	q.Sub("+/+/"+MetaTopic, Handler(func(topic string, payload []byte) {
		info, ok := DecodeMeta(topic, payload)
		if !ok {
			return
		}
		select {
		case resCh <- info:
		case <-time.After(time.Second):
		}
	}))

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// Watch implements Connector.
func (c *Connector) Watch(ctx context.Context, ref l1.ControllerRef, fn func(l1.StateMsg)) error {
	q, err := c.connect()
	if err != nil {
		return err
	}
	defer q.Close()
	sub := q.Sub(WatchPattern(ref), Handler(func(topic string, payload []byte) {
		from, ok := l1.RefFromTopic(topic, StateTopic)
		if !ok {
			return
		}
		msg, err := DecodeState(from, payload)
		if err != nil {
			glog.Warningf("%s: bad state: %v", topic, err)
			return
		}
		fn(msg)
	}))
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

// WatchPattern returns the topic pattern of the states of ref.
func WatchPattern(ref l1.ControllerRef) string {
	typ, id := ref.Type, ref.ID
	if typ == "" {
		typ = "+"
	}
	if id == "" {
		id = "+"
	}
	return typ + "/" + id + "/" + StateTopic
}

// DecodeMeta decodes a retained meta message.
func DecodeMeta(topic string, payload []byte) (info l1.ControllerInfo, ok bool) {
	ref, ok := l1.RefFromTopic(topic, MetaTopic)
	if !ok || len(payload) == 0 {
		return info, false
	}
	if err := json.Unmarshal(payload, &info); err != nil {
		glog.Warningf("%s: bad meta: %v", topic, err)
	}
	info.Ref = ref
	return info, true
}
