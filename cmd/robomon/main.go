package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"

	fx "github.com/robotalks/robko.go/pkg/framework"
	"github.com/robotalks/robko.go/pkg/l1"
	env "github.com/robotalks/robko.go/pkg/l1/env/connector"
	"github.com/robotalks/robko.go/pkg/robko"
)

func init() {
	env.SetupFlags()
}

func printState(msg l1.StateMsg) {
	var state robko.State
	if msg.Ref.Type != "robko01" || json.Unmarshal(msg.State, &state) != nil {
		log.Printf("%s: %s", msg.Ref.Name(), string(msg.State))
		return
	}
	log.Printf("%s: [%s enabled=%v moving=%s porta=%02x/%02x] %s",
		msg.Ref.Name(), state.Mode, state.Enabled, state.MotorState,
		state.PortAIn, state.PortAOut, state.Position)
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.NewConfig()
	connector := conf.MustNewConnector()
	infoList, err := connector.Discover(context.Background())
	if err != nil {
		log.Fatalln(err)
	}
	for _, info := range infoList {
		if conf.Matches(info.Ref) {
			log.Printf("%s: %s %v", info.Ref.Name(), info.Meta.Description, info.Meta.Labels)
		}
	}

	runner := fx.NewRunner().HandleSignals().Go(fx.NamedRun("watch", fx.RunnableFunc(func(ctx context.Context) error {
		return connector.Watch(ctx, conf.Ref, printState)
	})))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
