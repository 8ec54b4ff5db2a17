package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	fx "github.com/robotalks/robko.go/pkg/framework"
	"github.com/robotalks/robko.go/pkg/l1"
)

// Topic suffixes under TYPE/ID.
const (
	MetaTopic  = "meta"
	StateTopic = "state"
)

// Registrar implements l1.Registrar using MQTT. The meta is published
// retained on connect and cleared by the will on disconnect.
type Registrar struct {
	Queue *Queue
	Info  l1.ControllerInfo

	metaJSON []byte
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Name()+"/"+MetaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("robko:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.publishMeta(r.metaJSON) }
	return r, nil
}

// PublishState implements l1.Registrar. States are dropped while
// disconnected.
func (r *Registrar) PublishState(ctx context.Context, t time.Time, state interface{}) error {
	if !r.Queue.Connected() {
		return nil
	}
	payload, err := EncodeState(t, state)
	if err != nil {
		return err
	}
	r.Queue.Pub(r.Info.Ref.Name()+"/"+StateTopic, payload)
	return nil
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.publishMeta(nil).WaitTimeout(time.Second)
	r.Queue.Close()
	return ctx.Err()
}

func (r *Registrar) publishMeta(payload []byte) paho.Token {
	glog.V(1).Infof("publish meta of %s", r.Info.Ref.Name())
	return r.Queue.PubWith(r.Info.Ref.Name()+"/"+MetaTopic, payload, 1, true)
}

// EncodeState encodes the payload of a state message.
func EncodeState(t time.Time, state interface{}) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&l1.StateMsg{Time: t, State: raw})
}

// DecodeState decodes the payload of a state message.
func DecodeState(ref l1.ControllerRef, payload []byte) (msg l1.StateMsg, err error) {
	err = json.Unmarshal(payload, &msg)
	msg.Ref = ref
	return
}
